package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/testbrief/internal/core/domain"
	"github.com/custodia-labs/testbrief/internal/core/ports/driving"
)

// GatherInput is the input schema for the gather_ticket tool.
type GatherInput struct {
	Ticket      string `json:"ticket" jsonschema:"ticket key such as PROJ-123, or a Jira browse URL"`
	Concurrency int    `json:"concurrency,omitempty" jsonschema:"parallel fetches within a phase (default 1)"`
}

// GatherOutput is the output schema for the gather_ticket tool.
type GatherOutput struct {
	RunID        string          `json:"run_id"`
	TicketKey    string          `json:"ticket_key"`
	DocumentType string          `json:"document_type"`
	Epic         string          `json:"epic,omitempty"`
	Sources      []SourceOutput  `json:"sources"`
	Missing      []MissingOutput `json:"missing"`
	Warnings     []string        `json:"warnings,omitempty"`
	Artifact     string          `json:"artifact"`
}

// SourceOutput is the result of fetching one source.
type SourceOutput struct {
	Source   string `json:"source"`
	Category string `json:"category"`
	Origin   string `json:"origin"`
	Stored   bool   `json:"stored"`
	Unit     string `json:"unit,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// MissingOutput is an open missing-source request.
type MissingOutput struct {
	Category string   `json:"category"`
	Message  string   `json:"message"`
	Options  []string `json:"options"`
}

// ResolveInput is the input schema for the resolve_missing tool.
type ResolveInput struct {
	RunID     string   `json:"run_id" jsonschema:"run id returned by gather_ticket"`
	Category  string   `json:"category" jsonschema:"requirements, wiki or design"`
	Option    string   `json:"option" jsonschema:"text, url, parent or skip"`
	Text      string   `json:"text,omitempty" jsonschema:"content for the text option"`
	Locations []string `json:"locations,omitempty" jsonschema:"URLs or file paths for the url option"`
}

// ResolveOutput is the output schema for the resolve_missing tool.
type ResolveOutput struct {
	Resolved bool           `json:"resolved"`
	Sources  []SourceOutput `json:"sources"`
	Artifact string         `json:"artifact,omitempty"`
}

// RunInput names a run.
type RunInput struct {
	RunID string `json:"run_id" jsonschema:"run id returned by gather_ticket"`
}

// SummaryOutput is the output schema for the run_summary tool.
type SummaryOutput struct {
	RunID        string          `json:"run_id"`
	TicketKey    string          `json:"ticket_key"`
	DocumentType string          `json:"document_type"`
	Artifact     string          `json:"artifact"`
	Units        []string        `json:"units"`
	Sources      []SourceOutput  `json:"sources"`
	Missing      []MissingStatus `json:"missing"`
}

// MissingStatus is the state of one missing category.
type MissingStatus struct {
	Category   string `json:"category"`
	Resolution string `json:"resolution,omitempty"`
	Resolved   bool   `json:"resolved"`
}

// DraftInput is the input schema for the draft_document tool.
type DraftInput struct {
	RunID    string   `json:"run_id" jsonschema:"the run to draft from"`
	Draft    string   `json:"draft,omitempty" jsonschema:"an earlier draft to refine instead of drafting anew"`
	Feedback []string `json:"feedback,omitempty" jsonschema:"reviewer feedback, applied in order"`
	Save     bool     `json:"save,omitempty" jsonschema:"save the result as the run's final document"`
}

// DraftOutput is the output schema for the draft_document tool.
type DraftOutput struct {
	Draft    string `json:"draft"`
	Saved    string `json:"saved,omitempty"`
	Words    int    `json:"words,omitempty"`
	Sections int    `json:"sections,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "gather_ticket",
		Description: "Gather, store and consolidate every source of a Jira ticket for test documentation",
	}, s.handleGather)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "resolve_missing",
		Description: "Answer a missing requirements, wiki or design request for a run and re-consolidate",
	}, s.handleResolve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "run_summary",
		Description: "Show the sources, units and missing-source status of a run",
	}, s.handleSummary)

	if s.ports.Draft != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "draft_document",
			Description: "Draft, refine with reviewer feedback and optionally save the Test Plan or Test Cases for a run",
		}, s.handleDraft)
	}
}

func (s *Server) handleGather(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GatherInput,
) (*mcp.CallToolResult, GatherOutput, error) {
	if strings.TrimSpace(input.Ticket) == "" {
		return nil, GatherOutput{}, errors.New("ticket is required")
	}

	result, err := s.ports.Gather.Start(ctx, input.Ticket, driving.GatherOptions{Concurrency: input.Concurrency})
	if err != nil {
		return nil, GatherOutput{}, err
	}

	output := GatherOutput{
		RunID:        result.Run.ID,
		TicketKey:    result.Run.TicketKey,
		DocumentType: result.Run.DocumentType,
		Sources:      toSources(result.Outcomes),
		Missing:      make([]MissingOutput, len(result.Requests)),
		Warnings:     result.Warnings,
		Artifact:     result.ArtifactLocation,
	}
	if result.Epic != nil {
		output.Epic = result.Epic.Key
	}
	for i, req := range result.Requests {
		opts := make([]string, len(req.Options))
		for j, o := range req.Options {
			opts[j] = string(o)
		}
		output.Missing[i] = MissingOutput{Category: string(req.Category), Message: req.Message, Options: opts}
	}
	return nil, output, nil
}

func (s *Server) handleResolve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ResolveInput,
) (*mcp.CallToolResult, ResolveOutput, error) {
	category, err := domain.ParseMissingCategory(input.Category)
	if err != nil {
		return nil, ResolveOutput{}, err
	}
	option, err := domain.ParseResolutionOption(input.Option)
	if err != nil {
		return nil, ResolveOutput{}, err
	}

	res := domain.Resolution{Option: option, Text: input.Text, Locations: input.Locations}
	rr, err := s.ports.Gather.Resolve(ctx, input.RunID, category, res)
	if err != nil {
		return nil, ResolveOutput{}, err
	}

	return nil, ResolveOutput{
		Resolved: rr.Resolved,
		Sources:  toSources(rr.Outcomes),
		Artifact: rr.ArtifactLocation,
	}, nil
}

func (s *Server) handleSummary(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunInput,
) (*mcp.CallToolResult, SummaryOutput, error) {
	summary, err := s.ports.Gather.Summary(ctx, input.RunID)
	if err != nil {
		return nil, SummaryOutput{}, err
	}

	output := SummaryOutput{
		RunID:        summary.Run.ID,
		TicketKey:    summary.Run.TicketKey,
		DocumentType: summary.Run.DocumentType,
		Artifact:     summary.Run.ArtifactLocation,
		Units:        make([]string, len(summary.Units)),
		Sources:      toSources(summary.Outcomes),
		Missing:      make([]MissingStatus, len(summary.Missing)),
	}
	for i := range summary.Units {
		output.Units[i] = summary.Units[i].FileName()
	}
	for i := range summary.Missing {
		m := summary.Missing[i]
		output.Missing[i] = MissingStatus{
			Category:   string(m.Category),
			Resolution: string(m.Resolution),
			Resolved:   m.Resolved(),
		}
	}
	return nil, output, nil
}

func (s *Server) handleDraft(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DraftInput,
) (*mcp.CallToolResult, DraftOutput, error) {
	draft := input.Draft
	if strings.TrimSpace(draft) == "" {
		var err error
		if draft, err = s.ports.Draft.Draft(ctx, input.RunID); err != nil {
			return nil, DraftOutput{}, err
		}
	}
	for _, fb := range input.Feedback {
		var err error
		if draft, err = s.ports.Draft.Refine(ctx, input.RunID, draft, fb); err != nil {
			return nil, DraftOutput{}, err
		}
	}

	output := DraftOutput{Draft: draft}
	if input.Save {
		saved, err := s.ports.Draft.Save(ctx, input.RunID, draft)
		if err != nil {
			return nil, DraftOutput{}, err
		}
		output.Saved = saved.Location
		output.Words = saved.Metrics.Words
		output.Sections = saved.Metrics.Sections
	}
	return nil, output, nil
}

func toSources(outcomes []domain.Outcome) []SourceOutput {
	out := make([]SourceOutput, len(outcomes))
	for i := range outcomes {
		o := outcomes[i]
		out[i] = SourceOutput{
			Source:   o.Source,
			Category: string(o.Category),
			Origin:   o.Origin,
			Stored:   o.Succeeded(),
			Reason:   o.Reason,
		}
		if o.Succeeded() {
			out[i].Unit = o.Unit.FileName()
		}
	}
	return out
}
