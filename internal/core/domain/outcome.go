package domain

import "fmt"

// Outcome is the result of fetching a single source.
// Exactly one of Unit or Reason is meaningful.
type Outcome struct {
	// Source is the filename, URL or ticket key that was fetched.
	Source string

	Category Category
	Origin   string

	// Unit is set on success.
	Unit *DocumentUnit

	// Reason is set on failure.
	Reason string
}

// Stored builds a successful outcome.
func Stored(source string, unit DocumentUnit) Outcome {
	return Outcome{
		Source:   source,
		Category: unit.Category,
		Origin:   unit.Origin,
		Unit:     &unit,
	}
}

// Failed builds a failure outcome.
func Failed(source string, category Category, origin, reason string) Outcome {
	return Outcome{
		Source:   source,
		Category: category,
		Origin:   origin,
		Reason:   reason,
	}
}

// Succeeded reports whether a unit was stored.
func (o *Outcome) Succeeded() bool {
	return o.Unit != nil
}

// StatusLine renders the user-visible status for the outcome.
func (o *Outcome) StatusLine() string {
	if o.Succeeded() {
		return fmt.Sprintf("stored %s (%s)", o.Unit.FileName(), o.Source)
	}
	return fmt.Sprintf("failed %s: %s", o.Source, o.Reason)
}
