package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a format no extractor can handle.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrExtractionFailed indicates a document produced no usable text.
	ErrExtractionFailed = errors.New("could not extract content")

	// ErrNoPageID indicates a wiki URL carried no recognisable page id.
	ErrNoPageID = errors.New("no wiki page id in URL")

	// ErrNoParent indicates a ticket has no parent epic.
	ErrNoParent = errors.New("no parent epic")

	// ErrConfigMissing indicates a required configuration value is absent.
	ErrConfigMissing = errors.New("required configuration missing")

	// ErrGeneratorUnavailable indicates no generation backend is configured.
	ErrGeneratorUnavailable = errors.New("generator unavailable")

	// Connector Errors.

	// ErrAuthRequired indicates the remote service rejected the credentials.
	ErrAuthRequired = errors.New("authentication required")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
