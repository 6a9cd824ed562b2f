package driven

import "context"

// Generator drafts text from a prompt using a language model.
// This is an optional service - when nil, the generate command is unavailable.
//
// Implementations may include:
//   - Azure OpenAI deployments
//   - OpenAI (GPT-4o family)
type Generator interface {
	// Generate produces a completion for the given messages.
	Generate(ctx context.Context, messages []ChatMessage, opts GenerateOptions) (string, error)

	// ModelName returns the model or deployment in use.
	ModelName() string
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}
