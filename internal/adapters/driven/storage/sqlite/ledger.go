package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/testbrief/internal/core/domain"
	"github.com/custodia-labs/testbrief/internal/core/ports/driven"
)

// Ensure runLedger implements the interface.
var _ driven.RunLedger = (*runLedger)(nil)

type runLedger struct {
	db *sql.DB
}

func (l *runLedger) SaveRun(ctx context.Context, run domain.Run) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO runs (id, ticket_key, ticket_summary, document_type, artifact_location, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ticket_key = excluded.ticket_key,
			ticket_summary = excluded.ticket_summary,
			document_type = excluded.document_type,
			artifact_location = excluded.artifact_location,
			updated_at = excluded.updated_at
	`, run.ID, run.TicketKey, run.TicketSummary, run.DocumentType, run.ArtifactLocation,
		formatTime(run.CreatedAt), formatTime(run.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

func (l *runLedger) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT id, ticket_key, ticket_summary, document_type, artifact_location, created_at, updated_at
		FROM runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting run: %w", err)
	}
	return run, nil
}

func (l *runLedger) ListRuns(ctx context.Context) ([]domain.Run, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, ticket_key, ticket_summary, document_type, artifact_location, created_at, updated_at
		FROM runs ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func (l *runLedger) DeleteRun(ctx context.Context, id string) error {
	result, err := l.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (l *runLedger) RecordOutcome(ctx context.Context, runID string, o domain.Outcome) error {
	var seq int
	var location string
	var resolves domain.MissingCategory
	if o.Unit != nil {
		seq = o.Unit.Sequence
		location = o.Unit.Location
		resolves = o.Unit.Resolves
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO outcomes (run_id, source, category, origin, unit_sequence, unit_location, resolves, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, o.Source, string(o.Category), o.Origin, seq, location, string(resolves), o.Reason)
	if err != nil {
		return fmt.Errorf("recording outcome: %w", err)
	}
	return nil
}

func (l *runLedger) Outcomes(ctx context.Context, runID string) ([]domain.Outcome, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT source, category, origin, unit_sequence, unit_location, resolves, reason
		FROM outcomes WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []domain.Outcome
	for rows.Next() {
		var (
			source, category, origin, location, resolves, reason string
			seq                                                  int
		)
		if err := rows.Scan(&source, &category, &origin, &seq, &location, &resolves, &reason); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}

		if location == "" {
			outcomes = append(outcomes, domain.Failed(source, domain.Category(category), origin, reason))
			continue
		}
		outcomes = append(outcomes, domain.Stored(source, domain.DocumentUnit{
			Category:  domain.Category(category),
			Origin:    origin,
			Sequence:  seq,
			Location:  location,
			SourceRef: source,
			Resolves:  domain.MissingCategory(resolves),
		}))
	}
	return outcomes, rows.Err()
}

func (l *runLedger) MarkMissing(ctx context.Context, runID string, category domain.MissingCategory) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO missing (run_id, category, position, updated_at)
		VALUES (?, ?, (SELECT COUNT(*) FROM missing WHERE run_id = ?), ?)
	`, runID, string(category), runID, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("marking missing: %w", err)
	}
	return nil
}

func (l *runLedger) MarkResolved(
	ctx context.Context,
	runID string,
	category domain.MissingCategory,
	option domain.ResolutionOption,
) error {
	result, err := l.db.ExecContext(ctx, `
		UPDATE missing SET resolution = ?, updated_at = ?
		WHERE run_id = ? AND category = ?
	`, string(option), formatTime(time.Now()), runID, string(category))
	if err != nil {
		return fmt.Errorf("marking resolved: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("marking resolved: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (l *runLedger) Missing(ctx context.Context, runID string) ([]domain.MissingStatus, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT category, resolution, updated_at
		FROM missing WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing missing: %w", err)
	}
	defer rows.Close()

	var statuses []domain.MissingStatus
	for rows.Next() {
		var category, resolution, updated string
		if err := rows.Scan(&category, &resolution, &updated); err != nil {
			return nil, fmt.Errorf("scanning missing: %w", err)
		}
		statuses = append(statuses, domain.MissingStatus{
			Category:   domain.MissingCategory(category),
			Resolution: domain.ResolutionOption(resolution),
			UpdatedAt:  parseTime(updated),
		})
	}
	return statuses, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*domain.Run, error) {
	var run domain.Run
	var created, updated string
	if err := row.Scan(&run.ID, &run.TicketKey, &run.TicketSummary, &run.DocumentType,
		&run.ArtifactLocation, &created, &updated); err != nil {
		return nil, err
	}
	run.CreatedAt = parseTime(created)
	run.UpdatedAt = parseTime(updated)
	return &run, nil
}
