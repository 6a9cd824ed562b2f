package pdf

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/testbrief/internal/core/domain"
	"github.com/custodia-labs/testbrief/internal/core/ports/driven"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error
	name   string
	args   []string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.name = name
	m.args = args
	return m.output, m.err
}

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.Equal(t, domain.FormatPDF, normaliser.Format())
}

func TestNormalise_NilDocument(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "pdftotext")
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}

func TestCheck_ToolMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	err := New().Check()

	require.ErrorIs(t, err, ErrPDFToolNotFound)
	assert.Contains(t, err.Error(), "apt install poppler-utils")
}

func TestCheck_InjectedRunner(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	assert.NoError(t, NewWithRunner(&mockRunner{}).Check())
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}

func TestErrPDFToolNotFound(t *testing.T) {
	assert.Contains(t, ErrPDFToolNotFound.Error(), "pdftotext")
}

// TestNewWithRunner verifies the mock runner injection works.
func TestNewWithRunner(t *testing.T) {
	runner := &mockRunner{output: []byte("test output")}
	normaliser := NewWithRunner(runner)
	require.NotNil(t, normaliser)
	assert.Equal(t, runner, normaliser.runner)
}

func TestNormalise_JoinsPages(t *testing.T) {
	runner := &mockRunner{
		output: []byte("Page one text\n\fPage two text\n\f"),
	}
	normaliser := NewWithRunner(runner)

	text, err := normaliser.Normalise(context.Background(), &domain.RawDocument{
		Filename: "prd.pdf",
		Content:  []byte("%PDF-1.4 fake pdf content"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Page one text\nPage two text", text)
	assert.Equal(t, "pdftotext", runner.name)
	require.Len(t, runner.args, 4)
	assert.Equal(t, "-", runner.args[3])
}

// TestNormalise_RunnerError tests error handling when pdftotext fails.
func TestNormalise_RunnerError(t *testing.T) {
	runner := &mockRunner{err: errors.New("pdftotext crashed")}
	normaliser := NewWithRunner(runner)

	text, err := normaliser.Normalise(context.Background(), &domain.RawDocument{
		Filename: "broken.pdf",
		Content:  []byte("%PDF-1.4 truncated"),
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext failed")
	assert.Empty(t, text)
}

func TestJoinPages(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single page", "only page\n\f", "only page"},
		{"no form feed", "raw text\n", "raw text"},
		{"empty middle page", "a\n\f\n\fc\n\f", "a\n\nc"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, joinPages(tt.in))
		})
	}
}

// Integration test - only runs if pdftotext is available.
func TestNormalise_Integration(t *testing.T) {
	if err := CheckAvailable(); err != nil {
		t.Skip("pdftotext not available, skipping integration test")
	}

	_, err := New().Normalise(context.Background(), &domain.RawDocument{
		Filename: "garbage.pdf",
		Content:  []byte("not a pdf at all"),
	})
	assert.Error(t, err)
}
