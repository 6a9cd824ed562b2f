package domain

import "time"

// Run is one gathering session for a ticket.
type Run struct {
	ID            string
	TicketKey     string
	TicketSummary string
	DocumentType  string

	// ArtifactLocation is set after the first consolidation.
	ArtifactLocation string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MissingStatus tracks a missing-source category for a run.
// A category stays recorded as missing even after it is resolved.
type MissingStatus struct {
	Category MissingCategory

	// Resolution is empty while unresolved, otherwise the option that satisfied it.
	Resolution ResolutionOption

	UpdatedAt time.Time
}

// Resolved reports whether a unit was stored for the category.
func (m MissingStatus) Resolved() bool {
	return m.Resolution != "" && m.Resolution != OptionSkip
}

// RunSummary collects everything known about a run.
type RunSummary struct {
	Run      Run
	Outcomes []Outcome
	Missing  []MissingStatus
	Units    []DocumentUnit
}
