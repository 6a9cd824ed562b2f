package mcp

import (
	"context"

	"github.com/custodia-labs/testbrief/internal/core/domain"
	"github.com/custodia-labs/testbrief/internal/core/ports/driving"
)

// mockGatherService implements driving.GatherService for testing.
type mockGatherService struct {
	startResult   *driving.GatherResult
	resolveResult *driving.ResolveResult
	summary       *domain.RunSummary
	runs          []domain.Run
	artifact      string
	err           error

	gotInput    string
	gotOpts     driving.GatherOptions
	gotRunID    string
	gotCategory domain.MissingCategory
	gotRes      domain.Resolution
}

func (m *mockGatherService) Start(_ context.Context, input string, opts driving.GatherOptions) (*driving.GatherResult, error) {
	m.gotInput, m.gotOpts = input, opts
	if m.err != nil {
		return nil, m.err
	}
	return m.startResult, nil
}

func (m *mockGatherService) Resolve(
	_ context.Context, runID string, category domain.MissingCategory, res domain.Resolution,
) (*driving.ResolveResult, error) {
	m.gotRunID, m.gotCategory, m.gotRes = runID, category, res
	if m.err != nil {
		return nil, m.err
	}
	return m.resolveResult, nil
}

func (m *mockGatherService) Consolidate(_ context.Context, runID string) (string, error) {
	m.gotRunID = runID
	return "/docs/" + runID + "/final-content.md", m.err
}

func (m *mockGatherService) Summary(_ context.Context, runID string) (*domain.RunSummary, error) {
	m.gotRunID = runID
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

func (m *mockGatherService) Runs(_ context.Context) ([]domain.Run, error) {
	return m.runs, m.err
}

func (m *mockGatherService) Artifact(_ context.Context, runID string) (string, error) {
	m.gotRunID = runID
	return m.artifact, m.err
}

func (m *mockGatherService) Discard(_ context.Context, runID string) error {
	m.gotRunID = runID
	return m.err
}

// mockDraftService implements driving.DraftService for testing.
type mockDraftService struct {
	draft    string
	err      error
	drafted  int
	feedback []string
	saved    string
}

func (m *mockDraftService) Draft(_ context.Context, _ string) (string, error) {
	m.drafted++
	return m.draft, m.err
}

func (m *mockDraftService) Refine(_ context.Context, _, draft, feedback string) (string, error) {
	m.feedback = append(m.feedback, feedback)
	return draft + " + " + feedback, m.err
}

func (m *mockDraftService) Save(_ context.Context, runID, draft string) (*driving.SavedDraft, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.saved = draft
	return &driving.SavedDraft{
		Location: "/docs/" + runID + "/FINAL-test-cases-PROJ-1.md",
		Metrics:  domain.DraftMetrics{Words: 40, Sections: 5},
	}, nil
}
