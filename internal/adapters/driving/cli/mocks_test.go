package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/testbrief/internal/core/domain"
	"github.com/custodia-labs/testbrief/internal/core/ports/driving"
)

// resolveCall records one Resolve invocation.
type resolveCall struct {
	runID    string
	category domain.MissingCategory
	res      domain.Resolution
}

// mockGatherService implements driving.GatherService for testing.
type mockGatherService struct {
	startResult *driving.GatherResult
	startErr    error
	resolveErr  error
	summary     *domain.RunSummary
	runs        []domain.Run
	artifact    string
	err         error

	gotInput string
	gotOpts  driving.GatherOptions
	resolved []resolveCall
	touched  []string
}

func (m *mockGatherService) Start(_ context.Context, input string, opts driving.GatherOptions) (*driving.GatherResult, error) {
	m.gotInput, m.gotOpts = input, opts
	if m.startErr != nil {
		return nil, m.startErr
	}
	return m.startResult, nil
}

func (m *mockGatherService) Resolve(
	_ context.Context, runID string, category domain.MissingCategory, res domain.Resolution,
) (*driving.ResolveResult, error) {
	m.resolved = append(m.resolved, resolveCall{runID: runID, category: category, res: res})
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	rr := &driving.ResolveResult{ArtifactLocation: "/docs/" + runID + "/final-content.md"}
	if res.Option != domain.OptionSkip {
		rr.Resolved = true
		rr.Outcomes = []domain.Outcome{domain.Stored("user provided", domain.DocumentUnit{
			Category: domain.CategoryRequirements, Origin: "PROJ-1", Sequence: 1,
		})}
	}
	return rr, nil
}

func (m *mockGatherService) Consolidate(_ context.Context, runID string) (string, error) {
	m.touched = append(m.touched, runID)
	return "/docs/" + runID + "/final-content.md", m.err
}

func (m *mockGatherService) Summary(_ context.Context, runID string) (*domain.RunSummary, error) {
	m.touched = append(m.touched, runID)
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

func (m *mockGatherService) Runs(_ context.Context) ([]domain.Run, error) {
	return m.runs, m.err
}

func (m *mockGatherService) Artifact(_ context.Context, runID string) (string, error) {
	m.touched = append(m.touched, runID)
	return m.artifact, m.err
}

func (m *mockGatherService) Discard(_ context.Context, runID string) error {
	m.touched = append(m.touched, runID)
	return m.err
}

// mockDraftService implements driving.DraftService for testing.
// Refine appends the feedback to the draft.
type mockDraftService struct {
	draft     string
	err       error
	refineErr error
	saveErr   error
	feedback  []string
	saved     string
}

func (m *mockDraftService) Draft(_ context.Context, _ string) (string, error) {
	return m.draft, m.err
}

func (m *mockDraftService) Refine(_ context.Context, _, draft, feedback string) (string, error) {
	if m.refineErr != nil {
		return "", m.refineErr
	}
	m.feedback = append(m.feedback, feedback)
	return draft + "\n" + feedback, nil
}

func (m *mockDraftService) Save(_ context.Context, runID, draft string) (*driving.SavedDraft, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.saved = draft
	return &driving.SavedDraft{
		Location: "/docs/" + runID + "/FINAL-test-cases-PROJ-1.md",
		Metrics:  domain.DraftMetrics{Words: 12, Sections: 3},
	}, nil
}

// setupTestServices installs s for the duration of the test.
// Prompts are disabled unless a test enables them.
func setupTestServices(t *testing.T, s Services) {
	t.Helper()

	prevGather, prevDraft, prevConfig := gatherService, draftService, configStore
	prevDryRun, prevConcurrency, prevUnavailable := dryRunFactory, defaultConcurrency, unavailableErr
	prevPrompt, prevTerminal := promptResolution, stdinIsTerminal

	defaultConcurrency = 1
	SetServices(s)
	stdinIsTerminal = func() bool { return false }

	t.Cleanup(func() {
		gatherService, draftService, configStore = prevGather, prevDraft, prevConfig
		dryRunFactory, defaultConcurrency, unavailableErr = prevDryRun, prevConcurrency, prevUnavailable
		promptResolution, stdinIsTerminal = prevPrompt, prevTerminal
	})
}

// executeCommand runs the root command with args and returns its output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag to its default so tests do not leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func wikiRequest() domain.MissingSourceRequest {
	return domain.MissingSourceRequest{
		Category:  domain.MissingWiki,
		TicketKey: "PROJ-1",
		Message:   "No Confluence pages found for PROJ-1.",
		Options:   []domain.ResolutionOption{domain.OptionText, domain.OptionURL, domain.OptionSkip},
	}
}

func designRequest() domain.MissingSourceRequest {
	return domain.MissingSourceRequest{
		Category:  domain.MissingDesign,
		TicketKey: "PROJ-1",
		Message:   "No design documents found for PROJ-1.",
		Options:   []domain.ResolutionOption{domain.OptionText, domain.OptionURL, domain.OptionSkip},
	}
}

func gatherResult(requests ...domain.MissingSourceRequest) *driving.GatherResult {
	return &driving.GatherResult{
		Run: domain.Run{
			ID: "run-1", TicketKey: "PROJ-1", TicketSummary: "Login with SSO",
			DocumentType: domain.DocumentTypeTestCases,
		},
		Ticket: &domain.Ticket{Key: "PROJ-1", Summary: "Login with SSO", IssueType: "Story"},
		Epic:   &domain.Ticket{Key: "PROJ-9", Summary: "Identity"},
		Outcomes: []domain.Outcome{
			domain.Stored("PROJ-1", domain.DocumentUnit{
				Category: domain.CategoryPrimaryTicket, Origin: "PROJ-1", Sequence: 1,
			}),
			domain.Failed("HLD.pdf", domain.CategoryHighLevelDesign, "PROJ-1", "could not extract content"),
		},
		Requests:         requests,
		ArtifactLocation: "/docs/run-1/final-content.md",
	}
}
