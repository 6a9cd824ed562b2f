package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/testbrief/internal/core/domain"
)

// timestampLayout is used for every timestamp written into a unit header.
const timestampLayout = "2006-01-02 15:04:05"

// unitHeader is the metadata block prepended to every stored unit.
type unitHeader struct {
	title  string
	fields [][2]string
}

func (h *unitHeader) add(key, value string) {
	if value != "" {
		h.fields = append(h.fields, [2]string{key, value})
	}
}

// render returns the header, a "## Content" heading, and text.
func (h *unitHeader) render(text string) string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(h.title)
	b.WriteString("\n\n")
	for _, f := range h.fields {
		fmt.Fprintf(&b, "**%s**: %s\n", f[0], f[1])
	}
	b.WriteString("\n## Content\n\n")
	b.WriteString(text)
	b.WriteString("\n")
	return b.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timestampLayout)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// renderTicket formats a ticket snapshot as markdown.
func renderTicket(t *domain.Ticket, fetched time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Jira Ticket: %s\n\n", t.Key)
	fmt.Fprintf(&b, "**Fetched**: %s\n\n", formatTime(fetched))
	fmt.Fprintf(&b, "## Summary\n%s\n\n", t.Summary)

	b.WriteString("## Details\n")
	fmt.Fprintf(&b, "- **Issue Type**: %s\n", t.IssueType)
	fmt.Fprintf(&b, "- **Status**: %s\n", t.Status)
	fmt.Fprintf(&b, "- **Priority**: %s\n", orDefault(t.Priority, "None"))
	fmt.Fprintf(&b, "- **Assignee**: %s\n", orDefault(t.Assignee, "Unassigned"))
	fmt.Fprintf(&b, "- **Reporter**: %s\n", orDefault(t.Reporter, "Unknown"))
	if t.Project != "" {
		fmt.Fprintf(&b, "- **Project**: %s (%s)\n", t.Project, t.ProjectKey)
	}
	if created := formatTime(t.Created); created != "" {
		fmt.Fprintf(&b, "- **Created**: %s\n", created)
	}
	if updated := formatTime(t.Updated); updated != "" {
		fmt.Fprintf(&b, "- **Updated**: %s\n", updated)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Description\n%s\n\n", orDefault(strings.TrimSpace(t.Description), "No description provided"))

	if t.EpicLink != "" {
		fmt.Fprintf(&b, "## Epic Link\n%s\n\n", t.EpicLink)
	}
	if p := t.Parent; p != nil {
		fmt.Fprintf(&b, "## Parent\n- **Key**: %s\n- **Summary**: %s\n- **Type**: %s\n\n", p.Key, p.Summary, p.IssueType)
	}
	if len(t.Subtasks) > 0 {
		b.WriteString("## Subtasks\n")
		for _, s := range t.Subtasks {
			fmt.Fprintf(&b, "- **%s**: %s (%s)\n", s.Key, s.Summary, s.Status)
		}
		b.WriteString("\n")
	}
	writeList(&b, "Components", t.Components)
	writeList(&b, "Labels", t.Labels)
	writeList(&b, "Fix Versions", t.FixVersions)

	if len(t.Attachments) > 0 {
		b.WriteString("## Attachments\n")
		for _, a := range t.Attachments {
			fmt.Fprintf(&b, "- **%s** (%d bytes) - %s\n", a.Filename, a.Size, orDefault(a.ContentType, "unknown"))
			if a.Author != "" || !a.Created.IsZero() {
				fmt.Fprintf(&b, "  - Created: %s by %s\n", formatTime(a.Created), orDefault(a.Author, "unknown"))
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) > 0 {
		fmt.Fprintf(b, "## %s\n%s\n\n", title, strings.Join(items, ", "))
	}
}
