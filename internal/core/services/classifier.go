package services

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/testbrief/internal/core/domain"
)

// documentExt is the extension set shared by every classification pattern.
const documentExt = `.*\.(pdf|docx?)$`

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p + documentExt)
	}
	return out
}

var requirementsPatterns = compileAll(
	`prd`,
	`product.*requirement`,
	`requirement.*document`,
	`functional.*spec`,
	`business.*requirement`,
)

var designPatterns = compileAll(
	`hld`,
	`high.*level.*design`,
	`lld`,
	`low.*level.*design`,
	`technical.*design`,
	`architecture`,
	`design.*document`,
)

// ClassifyRequirements returns the attachments that look like requirements
// documents, in input order. It never returns an error.
func ClassifyRequirements(atts []domain.Attachment) []domain.Attachment {
	return filterByName(atts, requirementsPatterns)
}

// ClassifyDesign returns the attachments that look like design documents,
// in input order. An attachment may match both classifiers.
func ClassifyDesign(atts []domain.Attachment) []domain.Attachment {
	return filterByName(atts, designPatterns)
}

// DesignCategory splits design attachments into high- and low-level design.
func DesignCategory(att domain.Attachment) domain.Category {
	name := strings.ToLower(att.Filename)
	if strings.Contains(name, "hld") || strings.Contains(name, "high") {
		return domain.CategoryHighLevelDesign
	}
	return domain.CategoryLowLevelDesign
}

func filterByName(atts []domain.Attachment, patterns []*regexp.Regexp) []domain.Attachment {
	var out []domain.Attachment
	for _, att := range atts {
		for _, p := range patterns {
			if p.MatchString(att.Filename) {
				out = append(out, att)
				break
			}
		}
	}
	return out
}
