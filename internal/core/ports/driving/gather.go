package driving

import (
	"context"

	"github.com/custodia-labs/testbrief/internal/core/domain"
)

// GatherService runs and manages source-gathering runs.
type GatherService interface {
	// Start gathers every source for the ticket named by input (a key or URL),
	// consolidates, and returns the run with its outcomes and missing requests.
	Start(ctx context.Context, input string, opts GatherOptions) (*GatherResult, error)

	// Resolve answers a missing-source request for a run and re-consolidates.
	Resolve(ctx context.Context, runID string, category domain.MissingCategory, res domain.Resolution) (*ResolveResult, error)

	// Consolidate rebuilds the run's artifact.
	Consolidate(ctx context.Context, runID string) (string, error)

	// Summary returns the run with its outcomes, missing status and units.
	Summary(ctx context.Context, runID string) (*domain.RunSummary, error)

	// Runs lists all recorded runs, newest first.
	Runs(ctx context.Context) ([]domain.Run, error)

	// Artifact returns the consolidated artifact text.
	Artifact(ctx context.Context, runID string) (string, error)

	// Discard removes a run's stored units, artifact and ledger records.
	Discard(ctx context.Context, runID string) error
}

// GatherOptions tunes a gathering run.
type GatherOptions struct {
	// Concurrency bounds parallel fetches within a phase. Values below 1 mean 1.
	Concurrency int
}

// GatherResult is the state of a run after Start.
type GatherResult struct {
	Run      domain.Run
	Ticket   *domain.Ticket
	Epic     *domain.Ticket
	Outcomes []domain.Outcome
	Requests []domain.MissingSourceRequest

	// Warnings name extraction tools that are missing on this machine.
	Warnings []string

	// ArtifactLocation is where the consolidated artifact was written.
	ArtifactLocation string
}

// ResolveResult is the state of a run after Resolve.
type ResolveResult struct {
	Outcomes         []domain.Outcome
	Resolved         bool
	ArtifactLocation string
}

// DraftService drafts test documentation from a run's artifact.
type DraftService interface {
	// Draft returns a Test Plan or Test Cases for the run's ticket.
	Draft(ctx context.Context, runID string) (string, error)

	// Refine revises a draft according to reviewer feedback.
	Refine(ctx context.Context, runID, draft, feedback string) (string, error)

	// Save stores the reviewed draft in the run's namespace.
	Save(ctx context.Context, runID, draft string) (*SavedDraft, error)
}

// SavedDraft is a final document written by DraftService.Save.
type SavedDraft struct {
	Location string
	Metrics  domain.DraftMetrics
}
