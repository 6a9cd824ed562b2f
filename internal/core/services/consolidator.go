package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/testbrief/internal/core/ports/driven"
	"github.com/custodia-labs/testbrief/internal/logger"
)

// ConsolidatedHeader opens every consolidated artifact.
const ConsolidatedHeader = "# Consolidated Content for Test Documentation Generation\n\n"

// unitSeparator precedes each unit body in the artifact.
const unitSeparator = "\n---\n\n"

// Consolidate merges every unit in store listing order into one artifact and
// returns its location. Read or write failures are returned; the caller has
// nothing usable to generate from without the artifact.
func Consolidate(ctx context.Context, store driven.UnitStore) (string, error) {
	units, err := store.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list units: %w", err)
	}

	var b strings.Builder
	b.WriteString(ConsolidatedHeader)
	for i := range units {
		body, err := store.Read(ctx, units[i].Location)
		if err != nil {
			return "", fmt.Errorf("read unit %s: %w", units[i].FileName(), err)
		}
		b.WriteString(unitSeparator)
		b.WriteString(body)
		b.WriteString("\n\n")
	}

	loc, err := store.WriteArtifact(ctx, b.String())
	if err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}

	logger.Info("consolidated %d units into %s", len(units), loc)
	return loc, nil
}
