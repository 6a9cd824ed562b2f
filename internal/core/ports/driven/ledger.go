package driven

import (
	"context"

	"github.com/custodia-labs/testbrief/internal/core/domain"
)

// RunLedger records runs, fetch outcomes and missing-source status.
// Backed by SQLite so runs survive across CLI invocations.
type RunLedger interface {
	// SaveRun stores or updates a run.
	SaveRun(ctx context.Context, run domain.Run) error

	// GetRun retrieves a run by ID.
	GetRun(ctx context.Context, id string) (*domain.Run, error)

	// ListRuns returns all runs, newest first.
	ListRuns(ctx context.Context) ([]domain.Run, error)

	// DeleteRun removes a run and all its records.
	DeleteRun(ctx context.Context, id string) error

	// RecordOutcome appends an outcome to the run.
	RecordOutcome(ctx context.Context, runID string, outcome domain.Outcome) error

	// Outcomes returns the run's outcomes in record order.
	Outcomes(ctx context.Context, runID string) ([]domain.Outcome, error)

	// MarkMissing records a missing category. Existing records are left as-is.
	MarkMissing(ctx context.Context, runID string, category domain.MissingCategory) error

	// MarkResolved records how a missing category was answered.
	MarkResolved(ctx context.Context, runID string, category domain.MissingCategory, option domain.ResolutionOption) error

	// Missing returns the run's missing-source status in evaluation order.
	Missing(ctx context.Context, runID string) ([]domain.MissingStatus, error)
}
