package domain

import "time"

// Repository represents a tracked git working tree.
// Identity is the absolute root path.
type Repository struct {
	// ID is the unique identifier for the repository row.
	ID string

	// RootPath is the absolute path of the working tree.
	RootPath string

	// DefaultBranch is the branch scans follow (e.g. "main").
	DefaultBranch string

	// CreatedAt is when the repository was first registered.
	CreatedAt time.Time
}

// Commit is an immutable revision record. Never mutated once stored.
type Commit struct {
	// SHA is the content-addressed commit hash.
	SHA string

	// RepositoryID links to the owning Repository.
	RepositoryID string

	// Author is the commit author in "Name <email>" form.
	Author string

	// AuthoredAt is the author timestamp.
	AuthoredAt time.Time

	// Message is the full commit message.
	Message string
}

// Document is a tracked file path within a repository.
// It persists across commits; per-commit content lives in DocumentRevision.
type Document struct {
	// ID is the unique identifier for the document row.
	ID string

	// RepositoryID links to the owning Repository.
	RepositoryID string

	// Path is the repository-relative file path.
	Path string

	// CreatedAt is when the document was first seen by a scan.
	CreatedAt time.Time
}

// DocumentRevision is a snapshot of a document's content at one commit.
// At most one revision exists per (document, commit); content is immutable.
type DocumentRevision struct {
	// ID is the unique identifier for the revision row.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// CommitSHA is the commit at which this snapshot was taken.
	CommitSHA string

	// ContentHash is the SHA-256 of Content, hex-encoded.
	ContentHash string

	// Size is len(Content) in bytes.
	Size int

	// Content is the full document text.
	Content string

	// IndexedAt is when the scan recorded this revision.
	IndexedAt time.Time
}
