package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/testbrief/internal/core/domain"
)

// TicketTracker reads tickets from an issue tracker.
type TicketTracker interface {
	// GetTicket returns a snapshot of the ticket with the given key.
	GetTicket(ctx context.Context, key string) (*domain.Ticket, error)

	// DownloadAttachment returns the raw bytes of an attachment.
	DownloadAttachment(ctx context.Context, att domain.Attachment) ([]byte, error)

	// FindParent returns the parent epic of a ticket.
	// Returns domain.ErrNoParent when the ticket has none.
	FindParent(ctx context.Context, key string) (*domain.Ticket, error)
}

// WikiClient reads pages from a wiki.
type WikiClient interface {
	// GetPage returns the page with the given id, body in storage markup.
	GetPage(ctx context.Context, id string) (*domain.WikiPage, error)
}

// WebFetcher retrieves arbitrary URLs.
type WebFetcher interface {
	// Get fetches url, giving up after timeout. Non-2xx responses are errors.
	Get(ctx context.Context, url string, timeout time.Duration) (*domain.WebContent, error)
}

// FileReader reads user-supplied local files.
type FileReader interface {
	// ReadFile loads the file at location, a path or file:// URI.
	ReadFile(ctx context.Context, location string) (*domain.RawDocument, error)
}
