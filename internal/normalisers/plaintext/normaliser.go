// Package plaintext decodes text documents as UTF-8.
package plaintext

import (
	"context"
	"strings"

	"github.com/custodia-labs/testbrief/internal/core/domain"
	"github.com/custodia-labs/testbrief/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text and markdown documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns the format this normaliser handles.
func (n *Normaliser) Format() domain.Format {
	return domain.FormatText
}

// Normalise decodes the content as UTF-8, dropping invalid sequences
// and a leading byte-order mark.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}
	return Decode(raw.Content), nil
}

// Decode is the best-effort UTF-8 decode used for text and as the fallback.
func Decode(b []byte) string {
	s := strings.ToValidUTF8(string(b), "")
	return strings.TrimPrefix(s, "\ufeff")
}
