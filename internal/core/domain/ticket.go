package domain

import (
	"strings"
	"time"
)

// Document types produced downstream of consolidation.
const (
	DocumentTypeTestPlan  = "Test Plan"
	DocumentTypeTestCases = "Test Cases"
)

// Ticket is a point-in-time snapshot of a tracker issue.
type Ticket struct {
	Key         string
	Summary     string
	Description string
	IssueType   string
	Status      string
	Priority    string
	Assignee    string
	Reporter    string
	Project     string
	ProjectKey  string
	Created     time.Time
	Updated     time.Time

	// EpicLink is the legacy epic-link custom field value, if any.
	EpicLink string

	// Parent is the hierarchical parent, if any.
	Parent *TicketRef

	Subtasks    []TicketRef
	Attachments []Attachment
	Labels      []string
	Components  []string
	FixVersions []string

	// WikiLinks are links carried outside the description text,
	// such as ADF inline cards or remote links.
	WikiLinks []string
}

// TicketRef is a lightweight reference to another ticket.
type TicketRef struct {
	Key       string
	Summary   string
	IssueType string
	Status    string
}

// IsEpic reports whether the ticket's issue type is Epic.
func (t *Ticket) IsEpic() bool {
	return strings.EqualFold(t.IssueType, "epic")
}

// DocumentType returns the kind of test documentation this ticket needs.
func (t *Ticket) DocumentType() string {
	if t.IsEpic() {
		return DocumentTypeTestPlan
	}
	return DocumentTypeTestCases
}

// Attachment describes a file attached to a ticket.
type Attachment struct {
	ID          string
	Filename    string
	Size        int64
	ContentType string

	// DownloadURL is an opaque handle passed back to the tracker to download.
	DownloadURL string

	Created time.Time
	Author  string
}

// WikiPage is a wiki page as returned by the wiki client.
type WikiPage struct {
	ID      string
	Title   string
	Body    string
	Version int
}

// WebContent is the response of a generic URL fetch.
type WebContent struct {
	ContentType string
	Body        []byte
}
