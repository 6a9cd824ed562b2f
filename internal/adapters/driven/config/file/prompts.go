package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/testbrief/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads drafting prompts from user-editable files on disk,
// falling back to built-in defaults.
//
// The prompt directory and default files are created on first Load, not in
// the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptSystem: `You are a senior QA engineer. You write clear, complete and testable documentation from the source material you are given. Use only facts present in the material; when something is unknown, list it under "Open Questions" instead of inventing it.`,

	driven.PromptTestPlan: `Write a Test Plan for the epic %s using the consolidated content below.

Include these sections:
1. Objective and Scope (in scope / out of scope)
2. Test Strategy (levels, types, environments)
3. Features to be Tested, traced to the requirements
4. Entry and Exit Criteria
5. Risks and Mitigations
6. Open Questions

Consolidated content:
%s`,

	driven.PromptTestCases: `Write Test Cases for the ticket %s using the consolidated content below.

For each test case give: ID, Title, Preconditions, Steps, Expected Result and Priority.
Cover positive, negative and boundary scenarios for every acceptance criterion.
Finish with a short list of Open Questions.

Consolidated content:
%s`,

	driven.PromptRefine: `Revise the document below according to the reviewer's feedback.
Keep every section the feedback does not mention. Return the complete revised document only.

Document:
%s

Feedback:
%s`,
}

// NewPromptStore creates a file-based prompt store.
// If promptDir is empty, defaults to ~/.testbrief/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for name, creating the default files on
// first use. A missing or unreadable file falls back to the built-in prompt.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil {
		if def, ok := defaultPrompts[name]; ok {
			return def, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# testbrief prompts

Prompts used by ` + "`testbrief generate`" + `.

- ` + "`system.txt`" + ` - system prompt for every draft
- ` + "`test_plan.txt`" + ` - Test Plan for epics; placeholders: ticket key, consolidated content
- ` + "`test_cases.txt`" + ` - Test Cases for stories and tasks; placeholders: ticket key, consolidated content
- ` + "`refine.txt`" + ` - revision after review; placeholders: current draft, reviewer feedback

Each of these prompts takes two ` + "`%s`" + ` placeholders, in the order listed.
`
	return os.WriteFile(path, []byte(content), 0600)
}
