package domain

import (
	"fmt"
	"slices"
	"strings"
)

// MissingCategory names a kind of source that a ticket should have but does not.
type MissingCategory string

// Missing-source categories, in evaluation order.
const (
	MissingRequirements MissingCategory = "requirements"
	MissingWiki         MissingCategory = "wiki"
	MissingDesign       MissingCategory = "design"
)

// Label returns the human-readable name of the category.
func (m MissingCategory) Label() string {
	switch m {
	case MissingRequirements:
		return "PRD"
	case MissingWiki:
		return "Confluence"
	case MissingDesign:
		return "Design Documents"
	default:
		return string(m)
	}
}

// ParseMissingCategory accepts a category name or one of its common aliases.
func ParseMissingCategory(s string) (MissingCategory, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "requirements", "prd":
		return MissingRequirements, nil
	case "wiki", "confluence":
		return MissingWiki, nil
	case "design", "hld", "lld":
		return MissingDesign, nil
	default:
		return "", fmt.Errorf("%w: unknown missing-source category %q", ErrInvalidInput, s)
	}
}

// ResolutionOption is one way the user can answer a missing-source request.
type ResolutionOption string

// Resolution options.
const (
	OptionText   ResolutionOption = "text"
	OptionURL    ResolutionOption = "url"
	OptionSkip   ResolutionOption = "skip"
	OptionParent ResolutionOption = "parent"
)

// Describe returns the label shown when offering the option.
func (o ResolutionOption) Describe() string {
	switch o {
	case OptionText:
		return "Provide the content as text"
	case OptionURL:
		return "Provide a URL or file path"
	case OptionSkip:
		return "Skip"
	case OptionParent:
		return "Check the parent Epic"
	default:
		return string(o)
	}
}

// ParseResolutionOption parses an option name.
func ParseResolutionOption(s string) (ResolutionOption, error) {
	switch o := ResolutionOption(strings.ToLower(strings.TrimSpace(s))); o {
	case OptionText, OptionURL, OptionSkip, OptionParent:
		return o, nil
	case "path", "file":
		return OptionURL, nil
	default:
		return "", fmt.Errorf("%w: unknown resolution option %q", ErrInvalidInput, s)
	}
}

// MissingSourceRequest asks the user to supply a source the ticket lacks.
type MissingSourceRequest struct {
	Category  MissingCategory
	TicketKey string
	Message   string
	Options   []ResolutionOption
}

// Allows reports whether the request offers option o.
func (r *MissingSourceRequest) Allows(o ResolutionOption) bool {
	return slices.Contains(r.Options, o)
}

// Resolution is the user's answer to a MissingSourceRequest.
type Resolution struct {
	Option ResolutionOption

	// Text is used with OptionText.
	Text string

	// Locations are URLs or local paths, used with OptionURL.
	Locations []string
}
