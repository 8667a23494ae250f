package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrParseAmbiguous indicates text that matches the identifier shape
	// but fails strict validation. Surfaced as a per-document warning,
	// never fatal to a scan.
	ErrParseAmbiguous = errors.New("ambiguous identifier")

	// ErrEmbeddingUnavailable indicates the embedding model cannot be
	// reached. Transient and retryable; the affected item is flagged for
	// a later embed pass, the scan continues.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrStorageConflict indicates concurrent write contention on the
	// same document. Retried with backoff inside the upsert engine and
	// never surfaced past it.
	ErrStorageConflict = errors.New("storage conflict")

	// ErrDuplicateBaseline indicates the baseline name already exists
	// for the repository. User error; no state change.
	ErrDuplicateBaseline = errors.New("baseline name already exists")

	// ErrUnknownIdentifier indicates a link target that resolves to no
	// known item. Recorded as a dangling link, surfaced only in reports.
	ErrUnknownIdentifier = errors.New("unknown identifier")

	// ErrScanInProgress indicates a scan is already running for the
	// repository.
	ErrScanInProgress = errors.New("scan in progress")
)
