package atlassian

import (
	"encoding/json"
	"strings"
)

// adfNode is one node of an Atlassian Document Format tree.
type adfNode struct {
	Type    string         `json:"type"`
	Text    string         `json:"text,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Marks   []adfMark      `json:"marks,omitempty"`
	Content []adfNode      `json:"content,omitempty"`
}

type adfMark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// blockTypes end with a line break when flattened.
var blockTypes = map[string]bool{
	"paragraph":  true,
	"heading":    true,
	"codeBlock":  true,
	"blockquote": true,
	"rule":       true,
	"tableRow":   true,
	"panel":      true,
	"blockCard":  true,
	"embedCard":  true,
}

// flattenDescription turns a Jira description into plain text.
// Server returns a string; Cloud v3 returns ADF. Card and link URLs are
// returned separately and also kept in the text.
func flattenDescription(raw json.RawMessage) (string, []string) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", nil
		}
		return s, nil
	}

	var doc adfNode
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", nil
	}
	f := &adfFlattener{seen: make(map[string]bool)}
	f.walk(doc, 0)
	return strings.TrimSpace(collapseBlankLines(f.b.String())), f.links
}

type adfFlattener struct {
	b     strings.Builder
	links []string
	seen  map[string]bool
}

func (f *adfFlattener) addLink(u string) {
	if u != "" && !f.seen[u] {
		f.seen[u] = true
		f.links = append(f.links, u)
	}
}

func (f *adfFlattener) walk(n adfNode, depth int) {
	switch n.Type {
	case "text":
		f.b.WriteString(n.Text)
		for _, m := range n.Marks {
			if m.Type != "link" {
				continue
			}
			href, _ := m.Attrs["href"].(string)
			f.addLink(href)
			if href != "" && href != n.Text {
				f.b.WriteString(" (" + href + ")")
			}
		}
		return
	case "hardBreak":
		f.b.WriteString("\n")
		return
	case "inlineCard", "blockCard", "embedCard":
		if u, _ := n.Attrs["url"].(string); u != "" {
			f.addLink(u)
			f.b.WriteString(u)
		}
	case "mention":
		if t, _ := n.Attrs["text"].(string); t != "" {
			f.b.WriteString(t)
		}
		return
	case "emoji":
		if t, _ := n.Attrs["shortName"].(string); t != "" {
			f.b.WriteString(t)
		}
		return
	case "listItem":
		f.b.WriteString(strings.Repeat("  ", max(depth-1, 0)) + "- ")
	case "tableCell", "tableHeader":
		f.b.WriteString("| ")
	case "rule":
		f.b.WriteString("---")
	}

	childDepth := depth
	if n.Type == "bulletList" || n.Type == "orderedList" {
		childDepth++
	}
	for _, c := range n.Content {
		f.walk(c, childDepth)
	}

	switch {
	case n.Type == "listItem":
		if !strings.HasSuffix(f.b.String(), "\n") {
			f.b.WriteString("\n")
		}
	case n.Type == "tableCell" || n.Type == "tableHeader":
		f.b.WriteString(" ")
	case blockTypes[n.Type] && depth > 0:
		f.b.WriteString("\n")
	case blockTypes[n.Type]:
		f.b.WriteString("\n\n")
	}
}

func collapseBlankLines(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}
