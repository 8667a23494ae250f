package domain

import "time"

// Baseline is a named, immutable snapshot of every identifier known at a
// commit, frozen to the exact document revision it resolved to.
// Created once, never mutated.
type Baseline struct {
	// ID is the unique identifier for the baseline row.
	ID string

	// RepositoryID links to the owning Repository.
	RepositoryID string

	// Name is the user-chosen baseline name, unique per repository.
	Name string

	// CommitSHA is the head commit the snapshot was taken at.
	CommitSHA string

	// ManifestHash is the SHA-256 of the canonical manifest serialization.
	ManifestHash string

	// CreatedAt is when the baseline was frozen.
	CreatedAt time.Time
}

// BaselineEntry maps one identifier to the revision it resolved to when the
// baseline was created. Entries hold references, not content.
type BaselineEntry struct {
	// BaselineID links to the owning Baseline.
	BaselineID string

	// Identifier is the frozen identifier string.
	Identifier string

	// RevisionID is the resolved DocumentRevision.
	RevisionID string

	// ContentHash is the revision's content hash, duplicated here so
	// baseline diffs never need to load revision rows.
	ContentHash string

	// Path is the document path at freeze time.
	Path string
}

// BaselineDiff partitions the identifiers of two baselines.
type BaselineDiff struct {
	// Added lists identifiers present only in the newer baseline.
	Added []string

	// Removed lists identifiers present only in the older baseline.
	Removed []string

	// Changed lists identifiers present in both with differing content.
	Changed []string

	// Unchanged lists identifiers present in both with identical content.
	Unchanged []string
}
