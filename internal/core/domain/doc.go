// Package domain defines the core business entities for testbrief.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Ticket: A snapshot of a tracker issue and its attachments
//   - DocumentUnit: One normalised source stored for a run
//   - MissingSourceRequest: A prompt for a document category that was not found
//   - Outcome: The success or failure of a single fetch
//   - Run: One gathering session for a ticket
//   - RawDocument: Opaque bytes awaiting text extraction
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
