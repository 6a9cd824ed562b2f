// Package html strips markup from HTML documents and wiki storage bodies.
package html

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/custodia-labs/testbrief/internal/core/domain"
	"github.com/custodia-labs/testbrief/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// maxDepth bounds recursion on pathological documents.
const maxDepth = 200

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns the format this normaliser handles.
func (n *Normaliser) Format() domain.Format {
	return domain.FormatHTML
}

// Normalise returns the readable text of the document, one block per line.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}
	return Strip(string(raw.Content))
}

// Strip removes markup from an HTML fragment or document.
func Strip(content string) (string, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	extractText(doc, &sb, 0)
	return tidy(sb.String()), nil
}

// skipped elements never contribute text.
var skipped = map[string]bool{
	"head":         true,
	"script":       true,
	"style":        true,
	"noscript":     true,
	"svg":          true,
	"template":     true,
	"iframe":       true,
	"ac:parameter": true,
}

// block elements start and end on their own line.
var block = map[string]bool{
	"p": true, "div": true, "br": true, "hr": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "table": true, "section": true,
	"article": true, "ul": true, "ol": true, "dt": true, "dd": true,
	"ac:structured-macro": true, "ac:task": true,
}

func extractText(n *html.Node, sb *strings.Builder, depth int) {
	if depth > maxDepth {
		return
	}

	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.CommentNode:
		// Wiki code macros carry their body as CDATA, which the HTML parser reports as a comment.
		if body, ok := strings.CutPrefix(n.Data, "[CDATA["); ok {
			sb.WriteString("\n")
			sb.WriteString(strings.TrimSuffix(body, "]]"))
			sb.WriteString("\n")
		}
		return
	case html.ElementNode:
		if skipped[n.Data] {
			return
		}
		if block[n.Data] {
			sb.WriteString("\n")
		}
		if n.Data == "td" || n.Data == "th" {
			sb.WriteString(" ")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, sb, depth+1)
	}

	if n.Type == html.ElementNode && block[n.Data] {
		sb.WriteString("\n")
	}
}

var multiSpaces = regexp.MustCompile(`[ \t\x{00a0}]+`)

// tidy collapses runs of spaces, trims each line and drops empty lines.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(multiSpaces.ReplaceAllString(line, " "))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
