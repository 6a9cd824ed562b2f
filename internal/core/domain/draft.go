package domain

import (
	"fmt"
	"strings"
)

// FinalDocumentName is the file a reviewed draft is saved as,
// for example "FINAL-test-cases-PROJ-1.md".
func FinalDocumentName(documentType, ticketKey string) string {
	slug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(documentType)), " ", "-")
	return fmt.Sprintf("FINAL-%s-%s.md", slug, ticketKey)
}

// ValidateDocumentName rejects names that are not plain file names or that
// would overwrite the consolidated artifact.
func ValidateDocumentName(name string) error {
	switch {
	case name == "", name == ".", name == "..", strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: document name %q", ErrInvalidInput, name)
	case name == ArtifactName:
		return fmt.Errorf("%w: %s is reserved", ErrInvalidInput, name)
	}
	return nil
}

// DraftMetrics describes a generated document.
type DraftMetrics struct {
	Words int

	// Sections counts Markdown headings in a Test Plan and
	// "test case" mentions in Test Cases.
	Sections int
}

// MeasureDraft computes the metrics of a draft of the given document type.
func MeasureDraft(documentType, text string) DraftMetrics {
	m := DraftMetrics{Words: len(strings.Fields(text))}
	if documentType == DocumentTypeTestPlan {
		for _, line := range strings.Split(text, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "#") {
				m.Sections++
			}
		}
		return m
	}
	m.Sections = strings.Count(strings.ToLower(text), "test case")
	return m
}
