package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/testbrief/internal/core/domain"
	"github.com/custodia-labs/testbrief/internal/core/ports/driven"
)

// Ensure UnitStore and UnitStoreFactory implement the interfaces.
var (
	_ driven.UnitStore        = (*UnitStore)(nil)
	_ driven.UnitStoreFactory = (*UnitStoreFactory)(nil)
)

// UnitStore is an in-memory implementation of driven.UnitStore.
type UnitStore struct {
	mu       sync.RWMutex
	runID    string
	units    []domain.DocumentUnit
	bodies   map[string]string
	artifact *string
}

// NewUnitStore creates an empty in-memory unit store for a run.
func NewUnitStore(runID string) *UnitStore {
	return &UnitStore{
		runID:  runID,
		bodies: make(map[string]string),
	}
}

// Append assigns the next sequence number for (category, origin) and stores the unit.
func (s *UnitStore) Append(_ context.Context, unit domain.DocumentUnit) (domain.DocumentUnit, error) {
	if !unit.Category.Valid() {
		return domain.DocumentUnit{}, fmt.Errorf("%w: category %q", domain.ErrInvalidInput, unit.Category)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seq := 1
	for i := range s.units {
		if s.units[i].Category == unit.Category && s.units[i].Origin == unit.Origin {
			seq++
		}
	}

	unit.Sequence = seq
	unit.Location = fmt.Sprintf("memory://%s/%s", s.runID, unit.FileName())
	if unit.CreatedAt.IsZero() {
		unit.CreatedAt = time.Now()
	}

	s.units = append(s.units, unit)
	s.bodies[unit.Location] = unit.Body
	return unit, nil
}

// List returns all units in append order.
func (s *UnitStore) List(_ context.Context) ([]domain.DocumentUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.DocumentUnit, len(s.units))
	copy(out, s.units)
	return out, nil
}

// Read returns the body stored at location.
func (s *UnitStore) Read(_ context.Context, location string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	body, ok := s.bodies[location]
	if !ok {
		return "", domain.ErrNotFound
	}
	return body, nil
}

// WriteArtifact overwrites the consolidated artifact.
func (s *UnitStore) WriteArtifact(_ context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.artifact = &text
	return fmt.Sprintf("memory://%s/%s", s.runID, domain.ArtifactName), nil
}

// ReadArtifact returns the consolidated artifact.
func (s *UnitStore) ReadArtifact(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.artifact == nil {
		return "", domain.ErrNotFound
	}
	return *s.artifact, nil
}

// WriteDocument stores a named document; it is readable through Read.
func (s *UnitStore) WriteDocument(_ context.Context, name, text string) (string, error) {
	if err := domain.ValidateDocumentName(name); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loc := fmt.Sprintf("memory://%s/%s", s.runID, name)
	s.bodies[loc] = text
	return loc, nil
}

// Discard deletes every unit and the artifact.
func (s *UnitStore) Discard(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.units = nil
	s.bodies = make(map[string]string)
	s.artifact = nil
	return nil
}

// UnitStoreFactory hands out one in-memory store per run ID.
type UnitStoreFactory struct {
	mu     sync.Mutex
	stores map[string]*UnitStore
}

// NewUnitStoreFactory creates a new in-memory store factory.
func NewUnitStoreFactory() *UnitStoreFactory {
	return &UnitStoreFactory{stores: make(map[string]*UnitStore)}
}

// Open returns the store for runID, creating it if needed.
func (f *UnitStoreFactory) Open(_ context.Context, runID string) (driven.UnitStore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.stores[runID]
	if !ok {
		s = NewUnitStore(runID)
		f.stores[runID] = s
	}
	return s, nil
}
