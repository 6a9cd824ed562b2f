// Package mcp provides an MCP (Model Context Protocol) server adapter for testbrief.
// It lets AI assistants gather a ticket's sources, answer missing-source
// requests and read the consolidated artifact.
package mcp

import "errors"

// ErrMissingGatherService is returned when the gather service is not provided.
var ErrMissingGatherService = errors.New("mcp: gather service is required")
