package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/testbrief/internal/core/domain"
	"github.com/custodia-labs/testbrief/internal/core/ports/driven"
)

// ManifestName is the file that records append order within a run directory.
const ManifestName = "manifest.toml"

// Ensure UnitStore and UnitStoreFactory implement the interfaces.
var (
	_ driven.UnitStore        = (*UnitStore)(nil)
	_ driven.UnitStoreFactory = (*UnitStoreFactory)(nil)
)

type manifest struct {
	Units []manifestEntry `toml:"units"`
}

type manifestEntry struct {
	Category  string    `toml:"category"`
	Origin    string    `toml:"origin"`
	Sequence  int       `toml:"sequence"`
	File      string    `toml:"file"`
	SourceRef string    `toml:"source_ref,omitempty"`
	Resolves  string    `toml:"resolves,omitempty"`
	CreatedAt time.Time `toml:"created_at"`
}

// UnitStore keeps a run's units as files in a single directory.
type UnitStore struct {
	mu  sync.Mutex
	dir string
	man manifest

	// onDiscard is set by the factory to drop its cached handle.
	onDiscard func()
}

// NewUnitStore opens (or creates) the run directory and loads its manifest.
func NewUnitStore(dir string) (*UnitStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}

	s := &UnitStore{dir: dir}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the run directory.
func (s *UnitStore) Dir() string {
	return s.dir
}

// Append writes the unit file and records it in the manifest.
func (s *UnitStore) Append(ctx context.Context, unit domain.DocumentUnit) (domain.DocumentUnit, error) {
	if !unit.Category.Valid() {
		return domain.DocumentUnit{}, fmt.Errorf("%w: category %q", domain.ErrInvalidInput, unit.Category)
	}
	if err := ctx.Err(); err != nil {
		return domain.DocumentUnit{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seq := 1
	for _, e := range s.man.Units {
		if e.Category == string(unit.Category) && e.Origin == unit.Origin {
			seq++
		}
	}
	unit.Sequence = seq
	if unit.CreatedAt.IsZero() {
		unit.CreatedAt = time.Now()
	}

	name := unit.FileName()
	unit.Location = filepath.Join(s.dir, name)
	if err := os.WriteFile(unit.Location, []byte(unit.Body), 0600); err != nil {
		return domain.DocumentUnit{}, fmt.Errorf("write unit: %w", err)
	}

	s.man.Units = append(s.man.Units, manifestEntry{
		Category:  string(unit.Category),
		Origin:    unit.Origin,
		Sequence:  unit.Sequence,
		File:      name,
		SourceRef: unit.SourceRef,
		Resolves:  string(unit.Resolves),
		CreatedAt: unit.CreatedAt,
	})
	if err := s.save(); err != nil {
		// Roll back so the sequence number can be reused.
		s.man.Units = s.man.Units[:len(s.man.Units)-1]
		_ = os.Remove(unit.Location)
		return domain.DocumentUnit{}, err
	}

	return unit, nil
}

// List returns all units in append order, bodies included.
func (s *UnitStore) List(_ context.Context) ([]domain.DocumentUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	units := make([]domain.DocumentUnit, 0, len(s.man.Units))
	for _, e := range s.man.Units {
		loc := filepath.Join(s.dir, e.File)
		body, err := os.ReadFile(loc)
		if err != nil {
			return nil, fmt.Errorf("read unit %s: %w", e.File, err)
		}
		units = append(units, domain.DocumentUnit{
			Category:  domain.Category(e.Category),
			Origin:    e.Origin,
			Sequence:  e.Sequence,
			Body:      string(body),
			Location:  loc,
			SourceRef: e.SourceRef,
			Resolves:  domain.MissingCategory(e.Resolves),
			CreatedAt: e.CreatedAt,
		})
	}
	return units, nil
}

// Read returns the body stored at location, which must lie inside the run directory.
func (s *UnitStore) Read(_ context.Context, location string) (string, error) {
	if !s.contains(location) {
		return "", fmt.Errorf("%w: %s is outside the run directory", domain.ErrInvalidInput, location)
	}
	data, err := os.ReadFile(location)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("read unit: %w", err)
	}
	return string(data), nil
}

// WriteArtifact overwrites final-content.md.
func (s *UnitStore) WriteArtifact(_ context.Context, text string) (string, error) {
	loc := filepath.Join(s.dir, domain.ArtifactName)
	if err := os.WriteFile(loc, []byte(text), 0600); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return loc, nil
}

// ReadArtifact returns the contents of final-content.md.
func (s *UnitStore) ReadArtifact(_ context.Context) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, domain.ArtifactName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("read artifact: %w", err)
	}
	return string(data), nil
}

// WriteDocument overwrites a named document in the run directory.
func (s *UnitStore) WriteDocument(_ context.Context, name, text string) (string, error) {
	if err := domain.ValidateDocumentName(name); err != nil {
		return "", err
	}
	if name == ManifestName {
		return "", fmt.Errorf("%w: %s is reserved", domain.ErrInvalidInput, name)
	}
	loc := filepath.Join(s.dir, name)
	if err := os.WriteFile(loc, []byte(text), 0600); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return loc, nil
}

// Discard removes the run directory.
func (s *UnitStore) Discard(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("remove run directory: %w", err)
	}
	s.man = manifest{}
	if s.onDiscard != nil {
		s.onDiscard()
	}
	return nil
}

func (s *UnitStore) contains(location string) bool {
	rel, err := filepath.Rel(s.dir, location)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// load reads the manifest (caller must hold lock or be the constructor).
func (s *UnitStore) load() error {
	data, err := os.ReadFile(filepath.Join(s.dir, ManifestName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.man = manifest{}
			return nil
		}
		return fmt.Errorf("read manifest: %w", err)
	}

	var m manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}
	s.man = m
	return nil
}

// save writes the manifest (caller must hold lock).
func (s *UnitStore) save() error {
	data, err := toml.Marshal(s.man)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, ManifestName), data, 0600); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// UnitStoreFactory opens run directories beneath a documents folder.
type UnitStoreFactory struct {
	mu     sync.Mutex
	root   string
	stores map[string]*UnitStore
}

// NewUnitStoreFactory creates a factory rooted at the documents folder.
// If root is empty, defaults to ./documents.
func NewUnitStoreFactory(root string) *UnitStoreFactory {
	if root == "" {
		root = "documents"
	}
	return &UnitStoreFactory{
		root:   root,
		stores: make(map[string]*UnitStore),
	}
}

// Root returns the documents folder.
func (f *UnitStoreFactory) Root() string {
	return f.root
}

// Open returns the store for runID. The same store is returned for repeated
// calls so that appends within a process share one lock.
func (f *UnitStoreFactory) Open(_ context.Context, runID string) (driven.UnitStore, error) {
	if runID == "" || strings.ContainsAny(runID, `/\`) || runID == "." || runID == ".." {
		return nil, fmt.Errorf("%w: run id %q", domain.ErrInvalidInput, runID)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if s, ok := f.stores[runID]; ok {
		return s, nil
	}
	s, err := NewUnitStore(filepath.Join(f.root, runID))
	if err != nil {
		return nil, err
	}
	s.onDiscard = func() { f.evict(runID, s) }
	f.stores[runID] = s
	return s, nil
}

// evict forgets a discarded store so the next Open recreates its directory.
func (f *UnitStoreFactory) evict(runID string, s *UnitStore) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stores[runID] == s {
		delete(f.stores, runID)
	}
}
