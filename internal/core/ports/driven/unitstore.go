package driven

import (
	"context"

	"github.com/custodia-labs/testbrief/internal/core/domain"
)

// UnitStore persists the document units of a single run.
// Append is the only mutating operation on units and must be serialised
// by the implementation so that sequence numbers are never reused.
type UnitStore interface {
	// Append assigns Sequence and Location and persists the body byte-for-byte.
	// Sequence is one more than the number of stored units with the same
	// category and origin.
	Append(ctx context.Context, unit domain.DocumentUnit) (domain.DocumentUnit, error)

	// List returns all units in append order.
	List(ctx context.Context) ([]domain.DocumentUnit, error)

	// Read returns the body stored at location.
	Read(ctx context.Context, location string) (string, error)

	// WriteArtifact overwrites the consolidated artifact and returns its location.
	WriteArtifact(ctx context.Context, text string) (string, error)

	// ReadArtifact returns the consolidated artifact.
	ReadArtifact(ctx context.Context) (string, error)

	// WriteDocument overwrites a named document beside the units and returns
	// its location. Names must be plain file names and may not collide with
	// the artifact or store bookkeeping.
	WriteDocument(ctx context.Context, name, text string) (string, error)

	// Discard deletes every unit and the artifact.
	Discard(ctx context.Context) error
}

// UnitStoreFactory opens the unit store for a run.
type UnitStoreFactory interface {
	// Open returns the store for runID, creating it if needed.
	Open(ctx context.Context, runID string) (UnitStore, error)
}
