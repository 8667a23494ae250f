package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
	"github.com/Y10K-tech/reqstudio/internal/core/ports/driven"
)

// itemStore implements driven.ItemStore.
type itemStore struct {
	store *Store
}

var _ driven.ItemStore = (*itemStore)(nil)

// currentItemsQuery selects items of every document's latest revision.
const currentItemsQuery = `
	SELECT ri.id, ri.revision_id, ri.identifier, ri.type, ri.title,
	       ri.status, ri.version, ri.owner, ri.start_line, ri.end_line,
	       ri.metadata, ri.created_at
	FROM documents d
	JOIN document_revisions dr ON dr.id = ` + currentRevisionExpr + `
	JOIN requirement_items ri ON ri.revision_id = dr.id
	WHERE d.repository_id = ?`

// CurrentItems returns the items of every document's latest revision.
func (s *itemStore) CurrentItems(ctx context.Context, repositoryID string) ([]domain.RequirementItem, error) {
	rows, err := s.store.db.QueryContext(ctx, currentItemsQuery+" ORDER BY ri.identifier", repositoryID)
	if err != nil {
		return nil, fmt.Errorf("querying current items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// CurrentItemByIdentifier resolves an identifier against the current view.
func (s *itemStore) CurrentItemByIdentifier(ctx context.Context, repositoryID, identifier string) (*domain.RequirementItem, error) {
	rows, err := s.store.db.QueryContext(ctx,
		currentItemsQuery+" AND ri.identifier = ? LIMIT 1", repositoryID, identifier)
	if err != nil {
		return nil, fmt.Errorf("querying item: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrNotFound
	}
	return &items[0], nil
}

// ItemPath returns the document path an item was parsed from.
func (s *itemStore) ItemPath(ctx context.Context, itemID string) (string, error) {
	var path string
	err := s.store.db.QueryRowContext(ctx, `
		SELECT d.path
		FROM requirement_items ri
		JOIN document_revisions dr ON dr.id = ri.revision_id
		JOIN documents d ON d.id = dr.document_id
		WHERE ri.id = ?
	`, itemID).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying item path: %w", err)
	}
	return path, nil
}

// SaveEmbedding stores the vector pair for an item and clears its
// pending flag.
func (s *itemStore) SaveEmbedding(ctx context.Context, emb *domain.Embedding) error {
	fullBlob := float32SliceToBytes(emb.Full)
	truncatedBlob := float32SliceToBytes(emb.Truncated)

	if emb.ComputedAt.IsZero() {
		emb.ComputedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO item_embeddings
			(item_id, commit_sha, model, vector_full, vector_truncated, computed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			commit_sha = excluded.commit_sha,
			model = excluded.model,
			vector_full = excluded.vector_full,
			vector_truncated = excluded.vector_truncated,
			computed_at = excluded.computed_at
	`, emb.ItemID, emb.CommitSHA, emb.Model, fullBlob, truncatedBlob, emb.ComputedAt)
	if err != nil {
		return fmt.Errorf("saving embedding: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx,
		"UPDATE requirement_items SET needs_embedding = 0 WHERE id = ?", emb.ItemID)
	if err != nil {
		return fmt.Errorf("clearing pending flag: %w", err)
	}
	return nil
}

// GetEmbedding retrieves the stored vector pair for an item.
func (s *itemStore) GetEmbedding(ctx context.Context, itemID string) (*domain.Embedding, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT item_id, commit_sha, model, vector_full, vector_truncated, computed_at
		FROM item_embeddings WHERE item_id = ?
	`, itemID)

	var emb domain.Embedding
	var fullBlob, truncatedBlob []byte
	if err := row.Scan(&emb.ItemID, &emb.CommitSHA, &emb.Model,
		&fullBlob, &truncatedBlob, &emb.ComputedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning embedding: %w", err)
	}

	emb.Full = bytesToFloat32Slice(fullBlob)
	emb.Truncated = bytesToFloat32Slice(truncatedBlob)
	return &emb, nil
}

// PendingEmbeddings returns current items flagged for the embed retry pass.
func (s *itemStore) PendingEmbeddings(ctx context.Context, repositoryID string, limit int) ([]domain.RequirementItem, error) {
	query := currentItemsQuery + " AND ri.needs_embedding = 1 ORDER BY ri.identifier"
	args := []any{repositoryID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying pending embeddings: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// CurrentVectors hydrates the requested vectors for every current item
// that has an embedding.
func (s *itemStore) CurrentVectors(ctx context.Context, repositoryID string, dim domain.VectorDimension) ([]driven.ItemVector, error) {
	column := "ie.vector_full"
	if dim == domain.DimensionTruncated {
		column = "ie.vector_truncated"
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT ri.id, ri.identifier, ri.title, ri.type, d.path, dr.content, `+column+`
		FROM documents d
		JOIN document_revisions dr ON dr.id = `+currentRevisionExpr+`
		JOIN requirement_items ri ON ri.revision_id = dr.id
		JOIN item_embeddings ie ON ie.item_id = ri.id
		WHERE d.repository_id = ?
		ORDER BY ri.identifier
	`, repositoryID)
	if err != nil {
		return nil, fmt.Errorf("querying current vectors: %w", err)
	}
	defer rows.Close()

	var vectors []driven.ItemVector //nolint:prealloc // size unknown from query
	for rows.Next() {
		var v driven.ItemVector
		var itemType string
		var blob []byte
		if err := rows.Scan(&v.ItemID, &v.Identifier, &v.Title, &itemType,
			&v.Path, &v.Body, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		v.Type = domain.ItemType(itemType)
		v.Vector = bytesToFloat32Slice(blob)
		vectors = append(vectors, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}
	return vectors, nil
}

// currentLinksQuery selects link edges of the current view.
const currentLinksQuery = `
	SELECT il.id, il.source_item_id, il.target_identifier, il.kind,
	       il.commit_sha, il.suspect, il.line
	FROM documents d
	JOIN document_revisions dr ON dr.id = ` + currentRevisionExpr + `
	JOIN requirement_items ri ON ri.revision_id = dr.id
	JOIN item_links il ON il.source_item_id = ri.id
	WHERE d.repository_id = ?`

// CurrentLinks returns the link edges of the current view.
func (s *itemStore) CurrentLinks(ctx context.Context, repositoryID string) ([]domain.Link, error) {
	rows, err := s.store.db.QueryContext(ctx,
		currentLinksQuery+" ORDER BY il.target_identifier", repositoryID)
	if err != nil {
		return nil, fmt.Errorf("querying current links: %w", err)
	}
	defer rows.Close()

	return scanLinks(rows)
}

// LinksTo returns current edges pointing at an identifier.
func (s *itemStore) LinksTo(ctx context.Context, repositoryID, identifier string) ([]domain.Link, error) {
	rows, err := s.store.db.QueryContext(ctx,
		currentLinksQuery+" AND il.target_identifier = ?", repositoryID, identifier)
	if err != nil {
		return nil, fmt.Errorf("querying links to %s: %w", identifier, err)
	}
	defer rows.Close()

	return scanLinks(rows)
}

// CommitMentions returns commit SHAs whose subject mentions the identifier.
func (s *itemStore) CommitMentions(ctx context.Context, repositoryID, identifier string) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT cm.commit_sha
		FROM commit_mentions cm
		JOIN commits c ON c.sha = cm.commit_sha
		WHERE c.repository_id = ? AND cm.identifier = ?
		ORDER BY c.authored_at
	`, repositoryID, identifier)
	if err != nil {
		return nil, fmt.Errorf("querying commit mentions: %w", err)
	}
	defer rows.Close()

	var shas []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var sha string
		if err := rows.Scan(&sha); err != nil {
			return nil, fmt.Errorf("scanning mention: %w", err)
		}
		shas = append(shas, sha)
	}
	return shas, rows.Err()
}

// scanItems scans multiple item rows.
func scanItems(rows *sql.Rows) ([]domain.RequirementItem, error) {
	var items []domain.RequirementItem //nolint:prealloc // size unknown from query
	for rows.Next() {
		var item domain.RequirementItem
		var itemType, metadataJSON string
		if err := rows.Scan(&item.ID, &item.RevisionID, &item.Identifier, &itemType,
			&item.Title, &item.Status, &item.Version, &item.Owner,
			&item.StartLine, &item.EndLine, &metadataJSON, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item.Type = domain.ItemType(itemType)

		if metadataJSON != "" && metadataJSON != "{}" {
			if err := json.Unmarshal([]byte(metadataJSON), &item.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling item metadata: %w", err)
			}
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}
	return items, nil
}

// scanLinks scans multiple link rows.
func scanLinks(rows *sql.Rows) ([]domain.Link, error) {
	var links []domain.Link //nolint:prealloc // size unknown from query
	for rows.Next() {
		var link domain.Link
		var kind string
		if err := rows.Scan(&link.ID, &link.SourceItemID, &link.TargetIdentifier,
			&kind, &link.CommitSHA, &link.Suspect, &link.Line); err != nil {
			return nil, fmt.Errorf("scanning link: %w", err)
		}
		link.Kind = domain.RelationKind(kind)
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating links: %w", err)
	}
	return links, nil
}
