package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
	"github.com/Y10K-tech/reqstudio/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// UpsertRepository registers a repository by root path.
func (s *documentStore) UpsertRepository(ctx context.Context, rootPath, defaultBranch string) (*domain.Repository, error) {
	if defaultBranch == "" {
		defaultBranch = "main"
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO repositories (id, root_path, default_branch, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(root_path) DO UPDATE SET
			default_branch = excluded.default_branch
	`, uuid.New().String(), rootPath, defaultBranch, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("upserting repository: %w", err)
	}

	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, root_path, default_branch, created_at
		FROM repositories WHERE root_path = ?
	`, rootPath)

	var repo domain.Repository
	if err := row.Scan(&repo.ID, &repo.RootPath, &repo.DefaultBranch, &repo.CreatedAt); err != nil {
		return nil, fmt.Errorf("scanning repository: %w", err)
	}
	return &repo, nil
}

// SaveCommit records commit metadata and subject mentions. Idempotent.
func (s *documentStore) SaveCommit(ctx context.Context, commit *domain.Commit, mentions []string) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO commits (sha, repository_id, author, authored_at, message)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(sha) DO NOTHING
	`, commit.SHA, commit.RepositoryID, commit.Author, commit.AuthoredAt.UTC(), commit.Message)
	if err != nil {
		return fmt.Errorf("saving commit: %w", err)
	}

	for _, identifier := range mentions {
		_, err := s.store.db.ExecContext(ctx, `
			INSERT INTO commit_mentions (commit_sha, identifier)
			VALUES (?, ?)
			ON CONFLICT(commit_sha, identifier) DO NOTHING
		`, commit.SHA, identifier)
		if err != nil {
			return fmt.Errorf("saving commit mention: %w", err)
		}
	}
	return nil
}

// Apply performs the atomic per-document upsert.
//
//nolint:gocognit,gocyclo // Transaction with necessary sequential steps
func (s *documentStore) Apply(ctx context.Context, req driven.ApplyRequest) (*driven.ApplyResult, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapStoreErr(fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()

	// 1. Upsert the document row by (repository, path).
	docID, err := upsertDocumentTx(ctx, tx, req.RepositoryID, req.Path, now)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	result := &driven.ApplyResult{DocumentID: docID}

	// 2. Short-circuit when this (document, commit) revision already
	// exists with matching content. Idempotency guarantee: re-running
	// the same scan writes nothing.
	var existingID, existingHash string
	err = tx.QueryRowContext(ctx, `
		SELECT id, content_hash FROM document_revisions
		WHERE document_id = ? AND commit_sha = ?
	`, docID, req.Commit.SHA).Scan(&existingID, &existingHash)
	switch {
	case err == nil:
		if existingHash == req.ContentHash {
			result.Outcome = domain.OutcomeUnchanged
			result.RevisionID = existingID
			if err := tx.Commit(); err != nil {
				return nil, mapStoreErr(fmt.Errorf("committing transaction: %w", err))
			}
			return result, nil
		}
		// Content at a fixed commit cannot legitimately differ; a hash
		// mismatch means a prior partial write. Drop and rewrite.
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM document_revisions WHERE id = ?", existingID); err != nil {
			return nil, mapStoreErr(fmt.Errorf("dropping stale revision: %w", err))
		}
	case errors.Is(err, sql.ErrNoRows):
		// New revision.
	default:
		return nil, mapStoreErr(fmt.Errorf("checking revision: %w", err))
	}

	// 3. Record which identifiers are affected by this change, from
	// the previous latest revision, before the new one lands.
	prevIdentifiers, prevHash, err := previousIdentifiersTx(ctx, tx, docID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	// 4. Insert the new revision.
	revisionID := uuid.New().String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO document_revisions
			(id, document_id, commit_sha, content_hash, size, content, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, revisionID, docID, req.Commit.SHA, req.ContentHash, len(req.Content), req.Content, now)
	if err != nil {
		return nil, mapStoreErr(fmt.Errorf("inserting revision: %w", err))
	}
	result.RevisionID = revisionID

	// 5. Write the parsed item and link set for the new revision.
	// Items from prior commits stay attached to their revisions.
	newItemIDs := make(map[string]bool, len(req.Items))
	for i := range req.Items {
		item := &req.Items[i].Item
		item.RevisionID = revisionID
		metadataJSON, err := json.Marshal(item.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshalling item metadata: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO requirement_items
				(id, revision_id, identifier, type, title, status, version,
				 owner, start_line, end_line, metadata, needs_embedding, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)
		`, item.ID, revisionID, item.Identifier, string(item.Type), item.Title,
			item.Status, item.Version, item.Owner, item.StartLine, item.EndLine,
			string(metadataJSON), now)
		if err != nil {
			return nil, mapStoreErr(fmt.Errorf("inserting item: %w", err))
		}
		newItemIDs[item.ID] = true
		result.PendingItemIDs = append(result.PendingItemIDs, item.ID)

		for _, link := range req.Items[i].Links {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO item_links
					(id, source_item_id, target_identifier, kind, commit_sha, suspect, line)
				VALUES (?, ?, ?, ?, ?, 0, ?)
				ON CONFLICT(source_item_id, target_identifier, kind, commit_sha) DO NOTHING
			`, link.ID, item.ID, link.TargetIdentifier, string(link.Kind),
				req.Commit.SHA, link.Line)
			if err != nil {
				return nil, mapStoreErr(fmt.Errorf("inserting link: %w", err))
			}
		}
	}

	// 6. Suspect propagation: when the document content changed, every
	// link pointing at an identifier declared here (before or after the
	// change) becomes suspect until its own document is re-scanned.
	if prevHash != "" && prevHash != req.ContentHash {
		affected := make(map[string]bool, len(prevIdentifiers)+len(req.Items))
		for _, id := range prevIdentifiers {
			affected[id] = true
		}
		for i := range req.Items {
			affected[req.Items[i].Item.Identifier] = true
		}
		for identifier := range affected {
			if err := markSuspectTx(ctx, tx, identifier, req.Commit.SHA); err != nil {
				return nil, mapStoreErr(err)
			}
			result.ChangedIdentifiers = append(result.ChangedIdentifiers, identifier)
		}
	}

	result.Outcome = domain.OutcomeIndexed
	if err := tx.Commit(); err != nil {
		return nil, mapStoreErr(fmt.Errorf("committing transaction: %w", err))
	}
	return result, nil
}

// GetDocument retrieves a document by repository and path.
func (s *documentStore) GetDocument(ctx context.Context, repositoryID, path string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, repository_id, path, created_at
		FROM documents WHERE repository_id = ? AND path = ?
	`, repositoryID, path)

	var doc domain.Document
	if err := row.Scan(&doc.ID, &doc.RepositoryID, &doc.Path, &doc.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return &doc, nil
}

// ListDocuments returns all documents for a repository.
func (s *documentStore) ListDocuments(ctx context.Context, repositoryID string) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, repository_id, path, created_at
		FROM documents WHERE repository_id = ?
		ORDER BY path
	`, repositoryID)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(&doc.ID, &doc.RepositoryID, &doc.Path, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// LatestRevision returns the newest revision of a document.
func (s *documentStore) LatestRevision(ctx context.Context, documentID string) (*domain.DocumentRevision, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT dr.id, dr.document_id, dr.commit_sha, dr.content_hash,
		       dr.size, dr.content, dr.indexed_at
		FROM document_revisions dr
		JOIN commits c ON c.sha = dr.commit_sha
		WHERE dr.document_id = ?
		ORDER BY c.authored_at DESC, dr.indexed_at DESC
		LIMIT 1
	`, documentID)

	var rev domain.DocumentRevision
	if err := row.Scan(&rev.ID, &rev.DocumentID, &rev.CommitSHA, &rev.ContentHash,
		&rev.Size, &rev.Content, &rev.IndexedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning revision: %w", err)
	}
	return &rev, nil
}

// upsertDocumentTx ensures the document row exists and returns its id.
func upsertDocumentTx(ctx context.Context, tx *sql.Tx, repositoryID, path string, now time.Time) (string, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO documents (id, repository_id, path, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(repository_id, path) DO NOTHING
	`, uuid.New().String(), repositoryID, path, now)
	if err != nil {
		return "", fmt.Errorf("upserting document: %w", err)
	}

	var docID string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM documents WHERE repository_id = ? AND path = ?
	`, repositoryID, path).Scan(&docID)
	if err != nil {
		return "", fmt.Errorf("resolving document id: %w", err)
	}
	return docID, nil
}

// previousIdentifiersTx returns the identifiers and content hash of the
// document's latest revision inside the transaction, empty when none.
func previousIdentifiersTx(ctx context.Context, tx *sql.Tx, docID string) ([]string, string, error) {
	var revID, hash string
	err := tx.QueryRowContext(ctx, `
		SELECT dr.id, dr.content_hash
		FROM document_revisions dr
		JOIN commits c ON c.sha = dr.commit_sha
		WHERE dr.document_id = ?
		ORDER BY c.authored_at DESC, dr.indexed_at DESC
		LIMIT 1
	`, docID).Scan(&revID, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("querying previous revision: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT identifier FROM requirement_items WHERE revision_id = ?
	`, revID)
	if err != nil {
		return nil, "", fmt.Errorf("querying previous items: %w", err)
	}
	defer rows.Close()

	var identifiers []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, "", fmt.Errorf("scanning identifier: %w", err)
		}
		identifiers = append(identifiers, id)
	}
	return identifiers, hash, rows.Err()
}

// markSuspectTx flags links pointing at the identifier. Edges recorded
// at the commit that introduced the change were parsed at or after it,
// so they stay trusted.
func markSuspectTx(ctx context.Context, tx *sql.Tx, identifier, commitSHA string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE item_links SET suspect = 1
		WHERE target_identifier = ?
		  AND commit_sha <> ?
	`, identifier, commitSHA)
	if err != nil {
		return fmt.Errorf("marking suspect links: %w", err)
	}
	return nil
}
