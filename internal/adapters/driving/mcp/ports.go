package mcp

import (
	"github.com/custodia-labs/testbrief/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Gather runs and inspects gathering runs.
	Gather driving.GatherService

	// Draft drafts test documentation. Optional.
	Draft driving.DraftService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Gather == nil {
		return ErrMissingGatherService
	}
	return nil
}
