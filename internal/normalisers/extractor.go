package normalisers

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/testbrief/internal/core/domain"
	"github.com/custodia-labs/testbrief/internal/core/ports/driven"
	"github.com/custodia-labs/testbrief/internal/logger"
	"github.com/custodia-labs/testbrief/internal/normalisers/docx"
	"github.com/custodia-labs/testbrief/internal/normalisers/eml"
	"github.com/custodia-labs/testbrief/internal/normalisers/html"
	"github.com/custodia-labs/testbrief/internal/normalisers/pdf"
	"github.com/custodia-labs/testbrief/internal/normalisers/plaintext"
)

// Ensure Extractor implements the interfaces.
var (
	_ driven.TextExtractor = (*Extractor)(nil)
	_ driven.ToolChecker   = (*Extractor)(nil)
)

// formatRule matches a filename suffix or a content-type fragment.
type formatRule struct {
	suffixes []string
	fragment string
	format   domain.Format
}

// formatRules are checked in order; the first rule matching either the
// suffix or the content type wins. "text/html" therefore decodes as text.
var formatRules = []formatRule{
	{[]string{".pdf"}, "pdf", domain.FormatPDF},
	{[]string{".docx", ".doc"}, "word", domain.FormatWord},
	{[]string{".eml"}, "rfc822", domain.FormatEmail},
	{[]string{".txt", ".md"}, "text", domain.FormatText},
	{[]string{".html", ".htm"}, "html", domain.FormatHTML},
}

// toolCheck is implemented by normalisers that shell out.
type toolCheck interface {
	Check() error
}

// Extractor dispatches raw documents to format normalisers.
type Extractor struct {
	mu          sync.RWMutex
	normalisers map[domain.Format]driven.Normaliser
}

// New creates an extractor with the given normalisers registered.
func New(ns ...driven.Normaliser) *Extractor {
	e := &Extractor{normalisers: make(map[domain.Format]driven.Normaliser)}
	for _, n := range ns {
		e.Register(n)
	}
	return e
}

// NewDefault creates an extractor with every built-in normaliser.
func NewDefault() *Extractor {
	return New(pdf.New(), docx.New(), plaintext.New(), html.New(), eml.New())
}

// Register adds or replaces the normaliser for its format.
func (e *Extractor) Register(n driven.Normaliser) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.normalisers[n.Format()] = n
}

// Extract returns the text of raw, or ok=false when nothing usable was produced.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawDocument) (string, bool) {
	if raw == nil {
		return "", false
	}

	if format, ok := DetectFormat(raw.Filename, raw.ContentType); ok {
		return e.ExtractAs(ctx, format, raw)
	}

	// Fallback: best-effort decode; invalid sequences are dropped.
	return nonEmpty(plaintext.Decode(raw.Content))
}

// ExtractAs runs the normaliser registered for format.
func (e *Extractor) ExtractAs(ctx context.Context, format domain.Format, raw *domain.RawDocument) (string, bool) {
	if raw == nil {
		return "", false
	}

	e.mu.RLock()
	n, ok := e.normalisers[format]
	e.mu.RUnlock()
	if !ok {
		logger.Debug("extract %s: no normaliser for %s", raw.Filename, format)
		return "", false
	}

	text, err := n.Normalise(ctx, raw)
	if err != nil {
		if c, ok := n.(toolCheck); ok && c.Check() != nil {
			logger.Warn("extract %s: %v", raw.Filename, err)
		} else {
			logger.Debug("extract %s as %s: %v", raw.Filename, format, err)
		}
		return "", false
	}
	return nonEmpty(text)
}

// Check returns an error for every registered normaliser whose external
// tool is missing, in format order.
func (e *Extractor) Check() []error {
	e.mu.RLock()
	ns := make([]driven.Normaliser, 0, len(e.normalisers))
	for _, n := range e.normalisers {
		ns = append(ns, n)
	}
	e.mu.RUnlock()
	sort.Slice(ns, func(i, j int) bool { return ns[i].Format() < ns[j].Format() })

	var errs []error
	for _, n := range ns {
		if c, ok := n.(toolCheck); ok {
			if err := c.Check(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errs
}

// DetectFormat applies the format rules in order. Each rule matches on the
// filename suffix or on the content-type hint.
func DetectFormat(filename, contentType string) (domain.Format, bool) {
	name := strings.ToLower(filename)
	ct := strings.ToLower(contentType)
	for _, rule := range formatRules {
		if hasAnySuffix(name, rule.suffixes) || (ct != "" && strings.Contains(ct, rule.fragment)) {
			return rule.format, true
		}
	}
	return "", false
}

// FormatFromSuffix maps a filename or URL path suffix to a format.
func FormatFromSuffix(name string) (domain.Format, bool) {
	return DetectFormat(name, "")
}

// FormatFromContentType maps a MIME hint to a format.
func FormatFromContentType(contentType string) (domain.Format, bool) {
	return DetectFormat("", contentType)
}

func hasAnySuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

func nonEmpty(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}
