package services

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/custodia-labs/testbrief/internal/core/domain"
)

var ticketKeyPattern = regexp.MustCompile(`[A-Z][A-Z0-9]+-\d+`)

// wikiLinkPatterns recognise wiki page links in free text, checked in order.
var wikiLinkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)https?://[^/\s]+/wiki/spaces/[^/\s]+/pages/\d+/[^\s)\]|>]+`),
	regexp.MustCompile(`(?i)https?://[^/\s]+/display/[^/\s]+/[^\s)\]|>]+`),
	regexp.MustCompile(`(?i)https?://[^/\s]+\.atlassian\.net/wiki/[^\s)\]|>]+`),
}

// pageIDPatterns extract a wiki page id from a URL. First match wins.
var pageIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/pages/(\d+)/`),
	regexp.MustCompile(`pageId=(\d+)`),
	regexp.MustCompile(`/(\d+)/`),
}

// ParseTicketKey extracts a ticket key from a bare key or a tracker URL.
func ParseTicketKey(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%w: empty ticket reference", domain.ErrInvalidInput)
	}

	if u, err := url.Parse(input); err == nil && u.Scheme != "" && u.Host != "" {
		if key := ticketKeyPattern.FindString(u.Path); key != "" {
			return key, nil
		}
		if key := ticketKeyPattern.FindString(u.RawQuery); key != "" {
			return key, nil
		}
		return "", fmt.Errorf("%w: no ticket key in %q", domain.ErrInvalidInput, input)
	}

	if key := ticketKeyPattern.FindString(strings.ToUpper(input)); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("%w: no ticket key in %q", domain.ErrInvalidInput, input)
}

// ExtractWikiLinks returns wiki page links found in text, without duplicates,
// grouped by pattern and in order of appearance within each pattern.
func ExtractWikiLinks(text string) []string {
	seen := make(map[string]bool)
	var links []string
	for _, p := range wikiLinkPatterns {
		for _, m := range p.FindAllString(text, -1) {
			m = strings.TrimRight(m, ".,;:")
			if !seen[m] {
				seen[m] = true
				links = append(links, m)
			}
		}
	}
	return links
}

// TicketWikiLinks returns the wiki links of a ticket: those in its description
// followed by any carried separately that also look like wiki links.
func TicketWikiLinks(t *domain.Ticket) []string {
	if t == nil {
		return nil
	}
	links := ExtractWikiLinks(t.Description)
	seen := make(map[string]bool, len(links))
	for _, l := range links {
		seen[l] = true
	}
	for _, l := range t.WikiLinks {
		if !seen[l] && IsWikiURL(l) {
			seen[l] = true
			links = append(links, l)
		}
	}
	return links
}

// ParseWikiPageID extracts the numeric page id from a wiki URL.
func ParseWikiPageID(rawURL string) (string, bool) {
	for _, p := range pageIDPatterns {
		if m := p.FindStringSubmatch(rawURL); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// IsWikiURL reports whether a URL should be fetched through the wiki client.
func IsWikiURL(rawURL string) bool {
	for _, p := range wikiLinkPatterns {
		if p.MatchString(rawURL) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(rawURL), "confluence")
}

// IsRemoteURL reports whether s is an http(s) URL rather than a local path.
func IsRemoteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
