package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const uriScheme = "testbrief://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "runs",
		Name:        "runs",
		Description: "Gathering runs, newest first",
		MIMEType:    "application/json",
	}, s.handleRunsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "runs/{runId}/artifact",
		Name:        "run-artifact",
		Description: "Consolidated content of a run",
		MIMEType:    "text/markdown",
	}, s.handleArtifactResource)
}

func (s *Server) handleRunsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	runs, err := s.ports.Gather.Runs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	type runInfo struct {
		ID           string `json:"id"`
		TicketKey    string `json:"ticket_key"`
		Summary      string `json:"summary"`
		DocumentType string `json:"document_type"`
		CreatedAt    string `json:"created_at"`
		Artifact     string `json:"artifact_uri"`
	}

	infos := make([]runInfo, len(runs))
	for i := range runs {
		infos[i] = runInfo{
			ID:           runs[i].ID,
			TicketKey:    runs[i].TicketKey,
			Summary:      runs[i].TicketSummary,
			DocumentType: runs[i].DocumentType,
			CreatedAt:    runs[i].CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			Artifact:     uriScheme + "runs/" + runs[i].ID + "/artifact",
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling runs: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func (s *Server) handleArtifactResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	runID := extractRunID(req.Params.URI)
	if runID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	text, err := s.ports.Gather.Artifact(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     text,
		}},
	}, nil
}

// extractRunID extracts the run ID from testbrief://runs/{runId}/artifact.
func extractRunID(uri string) string {
	const prefix = uriScheme + "runs/"
	const suffix = "/artifact"

	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return ""
	}
	id := strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
