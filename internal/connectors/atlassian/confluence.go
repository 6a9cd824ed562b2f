package atlassian

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/custodia-labs/testbrief/internal/core/domain"
	"github.com/custodia-labs/testbrief/internal/core/ports/driven"
)

// Ensure Confluence implements the interface.
var _ driven.WikiClient = (*Confluence)(nil)

// Confluence reads pages from the Confluence REST API.
type Confluence struct {
	client *Client
}

// NewConfluence creates a Confluence adapter.
func NewConfluence(client *Client) *Confluence {
	return &Confluence{client: client}
}

type contentResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
	Version struct {
		Number int `json:"number"`
	} `json:"version"`
}

// GetPage returns the page with the given id, body in storage markup.
func (c *Confluence) GetPage(ctx context.Context, id string) (*domain.WikiPage, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("confluence: %w", domain.ErrNoPageID)
	}

	var resp contentResponse
	query := url.Values{"expand": {"body.storage,version"}}
	if err := c.client.getJSON(ctx, "/rest/api/content/"+url.PathEscape(id), query, &resp); err != nil {
		return nil, fmt.Errorf("confluence: get page %s: %w", id, err)
	}

	return &domain.WikiPage{
		ID:      resp.ID,
		Title:   resp.Title,
		Body:    resp.Body.Storage.Value,
		Version: resp.Version.Number,
	}, nil
}
