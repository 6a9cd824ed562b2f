package domain

import (
	"fmt"
	"strings"
	"time"
)

// ArtifactName is the filename of the consolidated artifact within a run.
const ArtifactName = "final-content.md"

// Category classifies a DocumentUnit by where it came from.
type Category string

// Document unit categories.
const (
	CategoryPrimaryTicket   Category = "primary-ticket"
	CategoryEpicTicket      Category = "epic-ticket"
	CategoryRequirements    Category = "requirements"
	CategoryHighLevelDesign Category = "high-level-design"
	CategoryLowLevelDesign  Category = "low-level-design"
	CategoryWikiPage        Category = "wiki-page"
	CategoryUserText        Category = "user-supplied-text"
	CategoryUserURL         Category = "user-supplied-url"
	CategoryUserOther       Category = "user-supplied-other"
)

type categoryNaming struct {
	slug string
	kind string
}

var categoryNames = map[Category]categoryNaming{
	CategoryPrimaryTicket:   {"ticket", "issue"},
	CategoryEpicTicket:      {"epic", "issue"},
	CategoryRequirements:    {"prd", "attachment"},
	CategoryHighLevelDesign: {"hld", "attachment"},
	CategoryLowLevelDesign:  {"lld", "attachment"},
	CategoryWikiPage:        {"wiki", "page"},
	CategoryUserText:        {"user-text", "text"},
	CategoryUserURL:         {"user-url", "url"},
	CategoryUserOther:       {"user-file", "file"},
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

// Slug returns the short filename prefix for the category.
func (c Category) Slug() string {
	return categoryNames[c].slug
}

// Kind returns the unit kind used in filenames ("attachment", "page", ...).
func (c Category) Kind() string {
	return categoryNames[c].kind
}

// IsDesign reports whether the category holds design documents.
func (c Category) IsDesign() bool {
	return c == CategoryHighLevelDesign || c == CategoryLowLevelDesign
}

// DocumentUnit is one normalised source persisted for a run.
type DocumentUnit struct {
	// Category determines the filename slug and unit kind.
	Category Category

	// Origin is the ticket key the unit was gathered on behalf of.
	Origin string

	// Sequence is 1-based and unique within (Category, Origin).
	// Assigned by the store on append.
	Sequence int

	// Body is the header plus extracted text, stored byte-for-byte.
	Body string

	// Location is the store-assigned address used to read the unit back.
	Location string

	// SourceRef is the filename, URL or path the unit was built from.
	SourceRef string

	// Resolves is the missing category this unit answers, if any.
	Resolves MissingCategory

	// CreatedAt is when the unit was appended.
	CreatedAt time.Time
}

// UnitFileName renders the canonical filename for a unit.
// Path separators in origin are replaced so the name stays flat.
func UnitFileName(c Category, origin string, seq int) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(origin)
	return fmt.Sprintf("%s-from-%s-%s%d-content.md", c.Slug(), safe, c.Kind(), seq)
}

// FileName returns the canonical filename for this unit.
func (u *DocumentUnit) FileName() string {
	return UnitFileName(u.Category, u.Origin, u.Sequence)
}
