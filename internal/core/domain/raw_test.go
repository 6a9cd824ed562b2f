package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat_Values(t *testing.T) {
	formats := map[Format]string{
		FormatPDF:   "pdf",
		FormatWord:  "word",
		FormatText:  "text",
		FormatHTML:  "html",
		FormatEmail: "email",
	}

	seen := make(map[string]bool)
	for f, want := range formats {
		assert.Equal(t, want, string(f))
		assert.False(t, seen[want], "duplicate format %q", want)
		seen[want] = true
	}
}

func TestRawDocument_Fields(t *testing.T) {
	raw := RawDocument{
		Filename:    "PRD-v2.pdf",
		URI:         "https://example.atlassian.net/rest/api/3/attachment/content/10001",
		ContentType: "application/pdf",
		Content:     []byte("%PDF-1.7"),
	}

	assert.Equal(t, "PRD-v2.pdf", raw.Filename)
	assert.Equal(t, "application/pdf", raw.ContentType)
	assert.Len(t, raw.Content, 8)

	var empty RawDocument
	assert.Empty(t, empty.Filename)
	assert.Nil(t, empty.Content)
}
