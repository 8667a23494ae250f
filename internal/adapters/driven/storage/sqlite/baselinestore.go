package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
	"github.com/Y10K-tech/reqstudio/internal/core/ports/driven"
)

// baselineStore implements driven.BaselineStore.
type baselineStore struct {
	store *Store
}

var _ driven.BaselineStore = (*baselineStore)(nil)

// CreateBaseline writes the baseline and its entries atomically.
func (s *baselineStore) CreateBaseline(ctx context.Context, b *domain.Baseline, entries []domain.BaselineEntry) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return mapStoreErr(fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO baselines (id, repository_id, name, commit_sha, manifest_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, b.ID, b.RepositoryID, b.Name, b.CommitSHA, b.ManifestHash, b.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.ErrDuplicateBaseline
		}
		return mapStoreErr(fmt.Errorf("inserting baseline: %w", err))
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO baseline_entries (baseline_id, identifier, revision_id, content_hash, path)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		if _, err := stmt.ExecContext(ctx, b.ID, entry.Identifier,
			entry.RevisionID, entry.ContentHash, entry.Path); err != nil {
			return mapStoreErr(fmt.Errorf("inserting baseline entry: %w", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return mapStoreErr(fmt.Errorf("committing transaction: %w", err))
	}
	return nil
}

// GetBaseline retrieves a baseline by name.
func (s *baselineStore) GetBaseline(ctx context.Context, repositoryID, name string) (*domain.Baseline, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, repository_id, name, commit_sha, manifest_hash, created_at
		FROM baselines WHERE repository_id = ? AND name = ?
	`, repositoryID, name)

	return scanBaseline(row)
}

// ListBaselines returns all baselines for a repository.
func (s *baselineStore) ListBaselines(ctx context.Context, repositoryID string) ([]domain.Baseline, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, repository_id, name, commit_sha, manifest_hash, created_at
		FROM baselines WHERE repository_id = ?
		ORDER BY created_at
	`, repositoryID)
	if err != nil {
		return nil, fmt.Errorf("querying baselines: %w", err)
	}
	defer rows.Close()

	var baselines []domain.Baseline //nolint:prealloc // size unknown from query
	for rows.Next() {
		var b domain.Baseline
		if err := rows.Scan(&b.ID, &b.RepositoryID, &b.Name, &b.CommitSHA,
			&b.ManifestHash, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning baseline: %w", err)
		}
		baselines = append(baselines, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating baselines: %w", err)
	}
	return baselines, nil
}

// BaselineEntries returns the frozen identifier mapping, sorted by
// identifier for deterministic serialization.
func (s *baselineStore) BaselineEntries(ctx context.Context, baselineID string) ([]domain.BaselineEntry, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT baseline_id, identifier, revision_id, content_hash, path
		FROM baseline_entries WHERE baseline_id = ?
		ORDER BY identifier
	`, baselineID)
	if err != nil {
		return nil, fmt.Errorf("querying baseline entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.BaselineEntry //nolint:prealloc // size unknown from query
	for rows.Next() {
		var e domain.BaselineEntry
		if err := rows.Scan(&e.BaselineID, &e.Identifier, &e.RevisionID,
			&e.ContentHash, &e.Path); err != nil {
			return nil, fmt.Errorf("scanning baseline entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating baseline entries: %w", err)
	}
	return entries, nil
}

// scanBaseline scans a single baseline row.
func scanBaseline(row *sql.Row) (*domain.Baseline, error) {
	var b domain.Baseline
	if err := row.Scan(&b.ID, &b.RepositoryID, &b.Name, &b.CommitSHA,
		&b.ManifestHash, &b.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning baseline: %w", err)
	}
	return &b, nil
}
