package atlassian

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlattenDescription(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantText  string
		wantLinks []string
	}{
		{"null", `null`, "", nil},
		{"plain string", `"h1. Title\nbody"`, "h1. Title\nbody", nil},
		{
			name: "paragraphs and link marks",
			raw: `{"type":"doc","content":[
				{"type":"heading","attrs":{"level":1},"content":[{"type":"text","text":"Scope"}]},
				{"type":"paragraph","content":[
					{"type":"text","text":"spec","marks":[{"type":"link","attrs":{"href":"https://x.atlassian.net/wiki/spaces/A/pages/1/B"}}]},
					{"type":"hardBreak"},
					{"type":"mention","attrs":{"text":"@ana"}}
				]}
			]}`,
			wantText:  "Scope\n\nspec (https://x.atlassian.net/wiki/spaces/A/pages/1/B)\n@ana",
			wantLinks: []string{"https://x.atlassian.net/wiki/spaces/A/pages/1/B"},
		},
		{
			name: "lists",
			raw: `{"type":"doc","content":[{"type":"bulletList","content":[
				{"type":"listItem","content":[{"type":"paragraph","content":[{"type":"text","text":"one"}]}]},
				{"type":"listItem","content":[{"type":"paragraph","content":[{"type":"text","text":"two"}]}]}
			]}]}`,
			wantText: "- one\n- two",
		},
		{
			name: "cards are deduplicated",
			raw: `{"type":"doc","content":[
				{"type":"blockCard","attrs":{"url":"https://a/wiki/x"}},
				{"type":"paragraph","content":[{"type":"inlineCard","attrs":{"url":"https://a/wiki/x"}}]}
			]}`,
			wantText:  "https://a/wiki/x\n\nhttps://a/wiki/x",
			wantLinks: []string{"https://a/wiki/x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, links := flattenDescription(json.RawMessage(tt.raw))
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantLinks, links)
		})
	}
}
