package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/testbrief/internal/core/domain"
	"github.com/custodia-labs/testbrief/internal/core/ports/driven"
)

// Ensure RunLedger implements the interface.
var _ driven.RunLedger = (*RunLedger)(nil)

// RunLedger is an in-memory implementation of driven.RunLedger.
type RunLedger struct {
	mu       sync.RWMutex
	runs     map[string]domain.Run
	outcomes map[string][]domain.Outcome
	missing  map[string][]domain.MissingStatus
}

// NewRunLedger creates a new in-memory run ledger.
func NewRunLedger() *RunLedger {
	return &RunLedger{
		runs:     make(map[string]domain.Run),
		outcomes: make(map[string][]domain.Outcome),
		missing:  make(map[string][]domain.MissingStatus),
	}
}

// SaveRun stores or updates a run.
func (l *RunLedger) SaveRun(_ context.Context, run domain.Run) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs[run.ID] = run
	return nil
}

// GetRun retrieves a run by ID.
func (l *RunLedger) GetRun(_ context.Context, id string) (*domain.Run, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	run, ok := l.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &run, nil
}

// ListRuns returns all runs, newest first.
func (l *RunLedger) ListRuns(_ context.Context) ([]domain.Run, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	runs := make([]domain.Run, 0, len(l.runs))
	for _, r := range l.runs {
		runs = append(runs, r)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs, nil
}

// DeleteRun removes a run and all its records.
func (l *RunLedger) DeleteRun(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.runs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(l.runs, id)
	delete(l.outcomes, id)
	delete(l.missing, id)
	return nil
}

// RecordOutcome appends an outcome to the run.
func (l *RunLedger) RecordOutcome(_ context.Context, runID string, outcome domain.Outcome) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outcomes[runID] = append(l.outcomes[runID], outcome)
	return nil
}

// Outcomes returns the run's outcomes in record order.
func (l *RunLedger) Outcomes(_ context.Context, runID string) ([]domain.Outcome, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Outcome, len(l.outcomes[runID]))
	copy(out, l.outcomes[runID])
	return out, nil
}

// MarkMissing records a missing category once.
func (l *RunLedger) MarkMissing(_ context.Context, runID string, category domain.MissingCategory) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.missing[runID] {
		if m.Category == category {
			return nil
		}
	}
	l.missing[runID] = append(l.missing[runID], domain.MissingStatus{
		Category:  category,
		UpdatedAt: time.Now(),
	})
	return nil
}

// MarkResolved records how a missing category was answered.
func (l *RunLedger) MarkResolved(
	_ context.Context,
	runID string,
	category domain.MissingCategory,
	option domain.ResolutionOption,
) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.missing[runID] {
		if l.missing[runID][i].Category == category {
			l.missing[runID][i].Resolution = option
			l.missing[runID][i].UpdatedAt = time.Now()
			return nil
		}
	}
	return domain.ErrNotFound
}

// Missing returns the run's missing-source status in record order.
func (l *RunLedger) Missing(_ context.Context, runID string) ([]domain.MissingStatus, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.MissingStatus, len(l.missing[runID]))
	copy(out, l.missing[runID])
	return out, nil
}
