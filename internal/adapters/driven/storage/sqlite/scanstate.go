package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
	"github.com/Y10K-tech/reqstudio/internal/core/ports/driven"
)

// scanStateStore implements driven.ScanStateStore.
type scanStateStore struct {
	store *Store
}

var _ driven.ScanStateStore = (*scanStateStore)(nil)

// SaveLastScan records the head commit a completed scan reached.
func (s *scanStateStore) SaveLastScan(ctx context.Context, repositoryID, commitSHA string) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO scan_states (repository_id, last_commit_sha, last_scan)
		VALUES (?, ?, ?)
		ON CONFLICT(repository_id) DO UPDATE SET
			last_commit_sha = excluded.last_commit_sha,
			last_scan = excluded.last_scan
	`, repositoryID, commitSHA, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving scan state: %w", err)
	}
	return nil
}

// LastScan returns the last completed scan commit.
func (s *scanStateStore) LastScan(ctx context.Context, repositoryID string) (string, error) {
	var sha string
	err := s.store.db.QueryRowContext(ctx, `
		SELECT last_commit_sha FROM scan_states WHERE repository_id = ?
	`, repositoryID).Scan(&sha)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("scanning scan state: %w", err)
	}
	return sha, nil
}
