package driven

// PromptStore provides access to generation prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptTestPlan drafts a Test Plan for an epic.
	// The template expects %s placeholders for the ticket key and the consolidated content.
	PromptTestPlan = "test_plan"

	// PromptTestCases drafts Test Cases for a story or task.
	// The template expects %s placeholders for the ticket key and the consolidated content.
	PromptTestCases = "test_cases"

	// PromptSystem is the system prompt for all drafting. No placeholders.
	PromptSystem = "system"

	// PromptRefine revises a draft after review.
	// The template expects %s placeholders for the current draft and the feedback.
	PromptRefine = "refine"
)
