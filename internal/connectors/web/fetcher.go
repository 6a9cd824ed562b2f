// Package web implements the generic URL fetcher used for user-supplied links.
package web

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/custodia-labs/testbrief/internal/core/domain"
	"github.com/custodia-labs/testbrief/internal/core/ports/driven"
)

// Ensure Fetcher implements the interface.
var _ driven.WebFetcher = (*Fetcher)(nil)

const (
	// DefaultTimeout applies when Get is called with a zero timeout.
	DefaultTimeout = 30 * time.Second

	// MaxBodyBytes caps how much of a response is read.
	MaxBodyBytes = 32 << 20

	userAgent = "testbrief/1.0 (+https://github.com/custodia-labs/testbrief)"
)

// Fetcher retrieves arbitrary URLs over HTTP.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a fetcher. A nil client uses a fresh http.Client.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &Fetcher{client: client}
}

// Get fetches rawURL, giving up after timeout. Non-2xx responses are errors.
// Textual bodies are transcoded to UTF-8 using the declared charset.
func (f *Fetcher) Get(ctx context.Context, rawURL string, timeout time.Duration) (*domain.WebContent, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	var body io.Reader = io.LimitReader(resp.Body, MaxBodyBytes)
	if isText(contentType) {
		if r, err := charset.NewReader(body, contentType); err == nil {
			body = r
		}
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	return &domain.WebContent{ContentType: contentType, Body: data}, nil
}

func isText(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "text/") || strings.HasSuffix(mediaType, "+xml") ||
		mediaType == "application/xhtml+xml" || mediaType == "application/json"
}
