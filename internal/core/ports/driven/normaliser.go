package driven

import (
	"context"

	"github.com/custodia-labs/testbrief/internal/core/domain"
)

// Normaliser turns one document format into plain text.
type Normaliser interface {
	// Format returns the format this normaliser handles.
	Format() domain.Format

	// Normalise extracts text. An error means no usable text.
	Normalise(ctx context.Context, raw *domain.RawDocument) (string, error)
}

// ToolChecker is implemented by extractors whose normalisers depend on
// external tools.
type ToolChecker interface {
	// Check returns one error per missing tool.
	Check() []error
}

// TextExtractor selects a normaliser for a raw document and runs it.
// Failures never escape as errors: ok is false when no text was produced.
type TextExtractor interface {
	// Extract dispatches on filename suffix, then content type,
	// then falls back to a best-effort text decode.
	Extract(ctx context.Context, raw *domain.RawDocument) (text string, ok bool)

	// ExtractAs runs the normaliser for an already-decided format.
	ExtractAs(ctx context.Context, format domain.Format, raw *domain.RawDocument) (text string, ok bool)

	// Register adds or replaces the normaliser for its format.
	Register(n Normaliser)
}
