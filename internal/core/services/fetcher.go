package services

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/testbrief/internal/core/domain"
	"github.com/custodia-labs/testbrief/internal/core/ports/driven"
	"github.com/custodia-labs/testbrief/internal/logger"
)

// DefaultFetchTimeout bounds arbitrary URL retrieval.
const DefaultFetchTimeout = 30 * time.Second

// Failure reasons reported in outcomes.
const (
	reasonExtract       = "could not extract content"
	reasonNoPageID      = "no wiki page id in URL"
	reasonEmptyText     = "no text provided"
	reasonNotConfigured = "not configured"
)

// Sources bundles the read-only collaborators fetches draw on.
type Sources struct {
	Tracker   driven.TicketTracker
	Wiki      driven.WikiClient
	Web       driven.WebFetcher
	Files     driven.FileReader
	Extractor driven.TextExtractor
}

// Fetcher retrieves one source at a time, normalises it and appends it to a run's store.
// Every entry point returns an Outcome; per-source failures are never errors.
type Fetcher struct {
	sources Sources
	store   driven.UnitStore
	timeout time.Duration
	now     func() time.Time
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithFetchTimeout overrides the arbitrary URL timeout.
func WithFetchTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithClock overrides the clock used for header timestamps.
func WithClock(now func() time.Time) FetcherOption {
	return func(f *Fetcher) {
		if now != nil {
			f.now = now
		}
	}
}

// NewFetcher creates a fetcher that appends into store.
func NewFetcher(sources Sources, store driven.UnitStore, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		sources: sources,
		store:   store,
		timeout: DefaultFetchTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// StoreTicket stores a ticket snapshot as the primary or epic unit.
func (f *Fetcher) StoreTicket(ctx context.Context, t *domain.Ticket, category domain.Category) domain.Outcome {
	body := renderTicket(t, f.now())
	return f.append(ctx, t.Key, domain.DocumentUnit{
		Category:  category,
		Origin:    t.Key,
		Body:      body,
		SourceRef: t.Key,
	})
}

// FetchAttachment downloads an attachment, extracts its text and stores it.
func (f *Fetcher) FetchAttachment(
	ctx context.Context,
	att domain.Attachment,
	ticketKey string,
	category domain.Category,
) domain.Outcome {
	return f.fetchAttachment(ctx, att, ticketKey, category, "")
}

func (f *Fetcher) fetchAttachment(
	ctx context.Context,
	att domain.Attachment,
	ticketKey string,
	category domain.Category,
	resolves domain.MissingCategory,
) domain.Outcome {
	if f.sources.Tracker == nil || f.sources.Extractor == nil {
		return f.fail(att.Filename, category, ticketKey, "ticket tracker "+reasonNotConfigured)
	}

	content, err := f.sources.Tracker.DownloadAttachment(ctx, att)
	if err != nil {
		return f.fail(att.Filename, category, ticketKey, fmt.Sprintf("download: %v", err))
	}

	text, ok := f.sources.Extractor.Extract(ctx, &domain.RawDocument{
		Filename:    att.Filename,
		URI:         att.DownloadURL,
		ContentType: att.ContentType,
		Content:     content,
	})
	if !ok {
		return f.fail(att.Filename, category, ticketKey, reasonExtract)
	}

	h := unitHeader{title: fmt.Sprintf("%s Document: %s", strings.ToUpper(category.Slug()), att.Filename)}
	h.add("Source", "Jira Ticket "+ticketKey)
	h.add("Category", string(category))
	h.add("File Type", orDefault(att.ContentType, "unknown"))
	h.add("Size", strconv.FormatInt(att.Size, 10)+" bytes")
	if !att.Created.IsZero() || att.Author != "" {
		h.add("Created", fmt.Sprintf("%s by %s", formatTime(att.Created), orDefault(att.Author, "unknown")))
	}
	if resolves != "" {
		h.add("Provided for", resolves.Label())
	}
	h.add("Fetched", formatTime(f.now()))

	return f.append(ctx, att.Filename, domain.DocumentUnit{
		Category:  category,
		Origin:    ticketKey,
		Body:      h.render(text),
		SourceRef: att.Filename,
		Resolves:  resolves,
	})
}

// FetchWikiPage retrieves a wiki page referenced from sourceTicket and stores its text.
func (f *Fetcher) FetchWikiPage(ctx context.Context, pageURL, sourceTicket string) domain.Outcome {
	return f.fetchWikiPage(ctx, pageURL, sourceTicket, "")
}

func (f *Fetcher) fetchWikiPage(
	ctx context.Context,
	pageURL, sourceTicket string,
	resolves domain.MissingCategory,
) domain.Outcome {
	category := domain.CategoryWikiPage

	id, ok := ParseWikiPageID(pageURL)
	if !ok {
		return f.fail(pageURL, category, sourceTicket, reasonNoPageID)
	}
	if f.sources.Wiki == nil {
		return f.fail(pageURL, category, sourceTicket, "wiki client "+reasonNotConfigured)
	}

	page, err := f.sources.Wiki.GetPage(ctx, id)
	if err != nil {
		return f.fail(pageURL, category, sourceTicket, fmt.Sprintf("fetch page %s: %v", id, err))
	}

	text, ok := f.extractAs(ctx, domain.FormatHTML, pageURL, "text/html", []byte(page.Body))
	if !ok {
		return f.fail(pageURL, category, sourceTicket, reasonExtract)
	}

	h := unitHeader{title: "Confluence Page: " + orDefault(page.Title, id)}
	h.add("Source", pageURL)
	h.add("Referenced from", "Jira Ticket "+sourceTicket)
	if page.Version > 0 {
		h.add("Version", strconv.Itoa(page.Version))
	}
	if resolves != "" {
		h.add("Provided for", resolves.Label())
	}
	h.add("Fetched", formatTime(f.now()))

	return f.append(ctx, pageURL, domain.DocumentUnit{
		Category:  category,
		Origin:    sourceTicket,
		Body:      h.render(text),
		SourceRef: pageURL,
		Resolves:  resolves,
	})
}

// FetchArbitraryURL retrieves a user-supplied URL with a bounded timeout.
// The format comes from the response content type first, then the URL suffix.
func (f *Fetcher) FetchArbitraryURL(
	ctx context.Context,
	rawURL string,
	resolves domain.MissingCategory,
	ticketKey string,
) domain.Outcome {
	category := domain.CategoryUserURL
	if f.sources.Web == nil {
		return f.fail(rawURL, category, ticketKey, "web fetcher "+reasonNotConfigured)
	}

	resp, err := f.sources.Web.Get(ctx, rawURL, f.timeout)
	if err != nil {
		return f.fail(rawURL, category, ticketKey, fmt.Sprintf("fetch: %v", err))
	}

	format := urlFormat(resp.ContentType, rawURL)
	text, ok := f.extractAs(ctx, format, rawURL, resp.ContentType, resp.Body)
	if !ok {
		return f.fail(rawURL, category, ticketKey, reasonExtract)
	}

	h := unitHeader{title: "Document from URL"}
	if resolves != "" {
		h.title = resolves.Label() + " " + h.title
	}
	h.add("Source", rawURL)
	h.add("Ticket", ticketKey)
	h.add("Content Type", orDefault(resp.ContentType, "unknown"))
	h.add("Fetched", formatTime(f.now()))

	return f.append(ctx, rawURL, domain.DocumentUnit{
		Category:  category,
		Origin:    ticketKey,
		Body:      h.render(text),
		SourceRef: rawURL,
		Resolves:  resolves,
	})
}

// StoreUserText stores text typed in by the user.
func (f *Fetcher) StoreUserText(
	ctx context.Context,
	text string,
	resolves domain.MissingCategory,
	ticketKey string,
) domain.Outcome {
	category := domain.CategoryUserText
	if strings.TrimSpace(text) == "" {
		return f.fail("user input", category, ticketKey, reasonEmptyText)
	}

	h := unitHeader{title: "User-Provided Document"}
	h.add("Source", "User Input")
	h.add("Provided for", resolves.Label())
	h.add("Created", formatTime(f.now()))

	return f.append(ctx, "user input", domain.DocumentUnit{
		Category:  category,
		Origin:    ticketKey,
		Body:      h.render(text),
		SourceRef: "user input",
		Resolves:  resolves,
	})
}

// FetchLocalFile reads a user-supplied local file and stores its text.
func (f *Fetcher) FetchLocalFile(
	ctx context.Context,
	filePath string,
	resolves domain.MissingCategory,
	ticketKey string,
) domain.Outcome {
	category := domain.CategoryUserOther
	if f.sources.Files == nil {
		return f.fail(filePath, category, ticketKey, "file reader "+reasonNotConfigured)
	}
	if f.sources.Extractor == nil {
		return f.fail(filePath, category, ticketKey, "extractor "+reasonNotConfigured)
	}

	raw, err := f.sources.Files.ReadFile(ctx, filePath)
	if err != nil {
		return f.fail(filePath, category, ticketKey, fmt.Sprintf("read file: %v", err))
	}
	content := raw.Content

	text, ok := f.sources.Extractor.Extract(ctx, raw)
	if !ok {
		return f.fail(filePath, category, ticketKey, reasonExtract)
	}

	h := unitHeader{title: "User-Provided Document: " + raw.Filename}
	h.add("Source", raw.URI)
	h.add("Provided for", resolves.Label())
	h.add("Size", strconv.Itoa(len(content))+" bytes")
	h.add("Fetched", formatTime(f.now()))

	return f.append(ctx, filePath, domain.DocumentUnit{
		Category:  category,
		Origin:    ticketKey,
		Body:      h.render(text),
		SourceRef: filePath,
		Resolves:  resolves,
	})
}

func (f *Fetcher) extractAs(
	ctx context.Context,
	format domain.Format,
	uri, contentType string,
	content []byte,
) (string, bool) {
	if f.sources.Extractor == nil {
		return "", false
	}
	return f.sources.Extractor.ExtractAs(ctx, format, &domain.RawDocument{
		Filename:    path.Base(uri),
		URI:         uri,
		ContentType: contentType,
		Content:     content,
	})
}

// append stores a unit. A store failure is reported as a failed outcome
// so that one bad write does not abort the run.
func (f *Fetcher) append(ctx context.Context, source string, unit domain.DocumentUnit) domain.Outcome {
	stored, err := f.store.Append(ctx, unit)
	if err != nil {
		return f.fail(source, unit.Category, unit.Origin, fmt.Sprintf("store: %v", err))
	}
	logger.Debug("stored %s from %s", stored.FileName(), source)
	return domain.Stored(source, stored)
}

func (f *Fetcher) fail(source string, category domain.Category, origin, reason string) domain.Outcome {
	logger.Warn("%s (%s for %s): %s", source, category, origin, reason)
	return domain.Failed(source, category, origin, reason)
}

// urlFormat decides how to extract a URL response: content type, then suffix, then text.
func urlFormat(contentType, rawURL string) domain.Format {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "pdf"):
		return domain.FormatPDF
	case strings.Contains(ct, "word"):
		return domain.FormatWord
	case strings.Contains(ct, "html"):
		return domain.FormatHTML
	}

	p := strings.ToLower(rawURL)
	if u, err := url.Parse(rawURL); err == nil {
		p = strings.ToLower(u.Path)
	}
	switch {
	case strings.HasSuffix(p, ".pdf"):
		return domain.FormatPDF
	case strings.HasSuffix(p, ".doc"), strings.HasSuffix(p, ".docx"):
		return domain.FormatWord
	case strings.HasSuffix(p, ".html"), strings.HasSuffix(p, ".htm"):
		return domain.FormatHTML
	default:
		return domain.FormatText
	}
}
