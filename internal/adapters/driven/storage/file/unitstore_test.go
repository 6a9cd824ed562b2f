package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/testbrief/internal/core/domain"
)

func TestUnitStore_Append_WritesNamedFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewUnitStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	unit, err := store.Append(ctx, domain.DocumentUnit{
		Category:  domain.CategoryRequirements,
		Origin:    "PROJ-7",
		Body:      "prd body",
		SourceRef: "PRD-v2.pdf",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, unit.Sequence)
	assert.Equal(t, filepath.Join(dir, "prd-from-PROJ-7-attachment1-content.md"), unit.Location)

	data, err := os.ReadFile(unit.Location)
	require.NoError(t, err)
	assert.Equal(t, "prd body", string(data))
	assert.FileExists(t, filepath.Join(dir, ManifestName))
}

func TestUnitStore_SequencePerCategoryAndOrigin(t *testing.T) {
	store, err := NewUnitStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	var seqs []int
	for _, u := range []domain.DocumentUnit{
		{Category: domain.CategoryWikiPage, Origin: "PROJ-1"},
		{Category: domain.CategoryWikiPage, Origin: "PROJ-1"},
		{Category: domain.CategoryWikiPage, Origin: "PROJ-2"},
		{Category: domain.CategoryRequirements, Origin: "PROJ-1"},
		{Category: domain.CategoryWikiPage, Origin: "PROJ-1"},
	} {
		stored, err := store.Append(ctx, u)
		require.NoError(t, err)
		seqs = append(seqs, stored.Sequence)
	}

	assert.Equal(t, []int{1, 2, 1, 1, 3}, seqs)
}

func TestUnitStore_RoundTrip(t *testing.T) {
	store, err := NewUnitStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	body := "# Header\r\n\n\tBody with é and trailing spaces   \n\n"

	unit, err := store.Append(ctx, domain.DocumentUnit{
		Category: domain.CategoryUserText,
		Origin:   "PROJ-1",
		Body:     body,
	})
	require.NoError(t, err)

	got, err := store.Read(ctx, unit.Location)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestUnitStore_Read_Errors(t *testing.T) {
	dir := t.TempDir()
	store, err := NewUnitStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Read(ctx, filepath.Join(dir, "missing.md"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.Read(ctx, filepath.Join(dir, "..", "elsewhere.md"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUnitStore_ManifestSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewUnitStore(dir)
	require.NoError(t, err)
	for _, c := range []domain.Category{domain.CategoryPrimaryTicket, domain.CategoryLowLevelDesign} {
		_, err := first.Append(ctx, domain.DocumentUnit{
			Category: c,
			Origin:   "PROJ-1",
			Body:     string(c),
			Resolves: domain.MissingDesign,
		})
		require.NoError(t, err)
	}

	reopened, err := NewUnitStore(dir)
	require.NoError(t, err)

	units, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, domain.CategoryPrimaryTicket, units[0].Category)
	assert.Equal(t, domain.CategoryLowLevelDesign, units[1].Category)
	assert.Equal(t, string(domain.CategoryLowLevelDesign), units[1].Body)
	assert.Equal(t, domain.MissingDesign, units[1].Resolves)

	next, err := reopened.Append(ctx, domain.DocumentUnit{Category: domain.CategoryLowLevelDesign, Origin: "PROJ-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, next.Sequence)
}

func TestUnitStore_Artifact(t *testing.T) {
	dir := t.TempDir()
	store, err := NewUnitStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.ReadArtifact(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	loc, err := store.WriteArtifact(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, domain.ArtifactName), loc)

	_, err = store.WriteArtifact(ctx, "v2")
	require.NoError(t, err)

	got, err := store.ReadArtifact(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v2", got)
}

func TestUnitStore_Discard(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	store, err := NewUnitStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Append(ctx, domain.DocumentUnit{Category: domain.CategoryPrimaryTicket, Origin: "PROJ-1"})
	require.NoError(t, err)

	require.NoError(t, store.Discard(ctx))
	assert.NoDirExists(t, dir)
}

func TestUnitStoreFactory_Open(t *testing.T) {
	root := t.TempDir()
	factory := NewUnitStoreFactory(root)
	ctx := context.Background()

	a, err := factory.Open(ctx, "run-a")
	require.NoError(t, err)
	again, err := factory.Open(ctx, "run-a")
	require.NoError(t, err)
	assert.Same(t, a, again)
	assert.DirExists(t, filepath.Join(root, "run-a"))

	for _, bad := range []string{"", "..", "a/b", `a\b`} {
		_, err := factory.Open(ctx, bad)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, bad)
	}
}

func TestUnitStoreFactory_OpenAfterDiscard(t *testing.T) {
	root := t.TempDir()
	factory := NewUnitStoreFactory(root)
	ctx := context.Background()

	first, err := factory.Open(ctx, "run-a")
	require.NoError(t, err)
	_, err = first.Append(ctx, domain.DocumentUnit{Category: domain.CategoryPrimaryTicket, Origin: "PROJ-1", Body: "old"})
	require.NoError(t, err)
	require.NoError(t, first.Discard(ctx))

	second, err := factory.Open(ctx, "run-a")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.DirExists(t, filepath.Join(root, "run-a"))

	unit, err := second.Append(ctx, domain.DocumentUnit{Category: domain.CategoryPrimaryTicket, Origin: "PROJ-1", Body: "new"})
	require.NoError(t, err)
	assert.Equal(t, 1, unit.Sequence)
}

func TestUnitStore_ConcurrentAppend(t *testing.T) {
	dir := t.TempDir()
	store, err := NewUnitStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	const n = 30
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Append(ctx, domain.DocumentUnit{
				Category: domain.CategoryLowLevelDesign,
				Origin:   "PROJ-1",
				Body:     fmt.Sprintf("design %d", i),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	units, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, units, n)
	for i, u := range units {
		assert.Equal(t, i+1, u.Sequence)
	}

	// The manifest on disk agrees with the in-memory order.
	reopened, err := NewUnitStore(dir)
	require.NoError(t, err)
	again, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, again, n)
	bodies := make(map[string]bool)
	for i := range again {
		assert.Equal(t, units[i].Sequence, again[i].Sequence)
		assert.Equal(t, units[i].Body, again[i].Body)
		bodies[again[i].Body] = true
	}
	assert.Len(t, bodies, n)
}

func TestNewUnitStoreFactory_DefaultRoot(t *testing.T) {
	assert.Equal(t, "documents", NewUnitStoreFactory("").Root())
}

func TestUnitStore_WriteDocument(t *testing.T) {
	dir := t.TempDir()
	store, err := NewUnitStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	loc, err := store.WriteDocument(ctx, "FINAL-test-cases-PROJ-1.md", "v1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "FINAL-test-cases-PROJ-1.md"), loc)

	_, err = store.WriteDocument(ctx, "FINAL-test-cases-PROJ-1.md", "v2")
	require.NoError(t, err)
	got, err := store.Read(ctx, loc)
	require.NoError(t, err)
	assert.Equal(t, "v2", got)

	units, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, units)

	for _, bad := range []string{ManifestName, domain.ArtifactName, "../escape.md", ""} {
		_, err := store.WriteDocument(ctx, bad, "x")
		assert.ErrorIs(t, err, domain.ErrInvalidInput, bad)
	}
}
