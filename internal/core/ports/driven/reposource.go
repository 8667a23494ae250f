package driven

import (
	"context"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
)

// RepoSource is read-only access to the version-control collaborator.
// The core never writes through it except to create baseline tags, which
// are human-visible markers and hold no state of record.
type RepoSource interface {
	// Root returns the absolute path of the working tree.
	Root() string

	// Head returns metadata for the current head commit.
	Head(ctx context.Context) (*domain.Commit, error)

	// CommitInfo returns metadata for an arbitrary revision.
	CommitInfo(ctx context.Context, ref string) (*domain.Commit, error)

	// ListFiles returns all tracked text document paths at head,
	// in path-lexicographic order.
	ListFiles(ctx context.Context) ([]string, error)

	// ChangedFiles returns the tracked text document paths that differ
	// between sinceRef and head, in path-lexicographic order. Paths
	// removed in that range come back in the deleted slice; a rename
	// deletes the old path and changes the new one.
	ChangedFiles(ctx context.Context, sinceRef string) (changed []string, deleted []string, err error)

	// FileAt returns the file content at the given revision.
	FileAt(ctx context.Context, ref, path string) (string, error)

	// CommitsSince returns commit metadata newer than sinceRef, oldest
	// first. With an empty sinceRef it returns the most recent commits
	// up to the given limit.
	CommitsSince(ctx context.Context, sinceRef string, limit int) ([]domain.Commit, error)

	// TagBaseline creates an annotated tag baseline/<name> at the given
	// commit, carrying the annotation payload.
	TagBaseline(ctx context.Context, name, commitSHA, annotation string) error

	// ListBaselineTags returns existing baseline tag names.
	ListBaselineTags(ctx context.Context) ([]string, error)
}
