package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
	"github.com/Y10K-tech/reqstudio/internal/core/ports/driven"
)

// CurrentItems returns the items of every document's latest revision,
// sorted by identifier.
func (s *Store) CurrentItems(_ context.Context, repositoryID string) ([]domain.RequirementItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []domain.RequirementItem
	for _, view := range s.currentRevisions(repositoryID) {
		items = append(items, s.items[view.rev.ID]...)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Identifier < items[j].Identifier })
	return items, nil
}

// CurrentItemByIdentifier resolves an identifier against the current view.
func (s *Store) CurrentItemByIdentifier(_ context.Context, repositoryID, identifier string) (*domain.RequirementItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, view := range s.currentRevisions(repositoryID) {
		for i := range s.items[view.rev.ID] {
			if s.items[view.rev.ID][i].Identifier == identifier {
				item := s.items[view.rev.ID][i]
				return &item, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

// ItemPath returns the document path an item was parsed from.
func (s *Store) ItemPath(_ context.Context, itemID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for revID, items := range s.items {
		for i := range items {
			if items[i].ID != itemID {
				continue
			}
			docID := s.revisionDocument(revID)
			doc, ok := s.docByID[docID]
			if !ok {
				return "", domain.ErrNotFound
			}
			return doc.Path, nil
		}
	}
	return "", domain.ErrNotFound
}

// SaveEmbedding stores the vector pair for an item and clears its
// pending flag.
func (s *Store) SaveEmbedding(_ context.Context, emb *domain.Embedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if emb.ComputedAt.IsZero() {
		emb.ComputedAt = time.Now().UTC()
	}
	s.embeddings[emb.ItemID] = *emb
	delete(s.pending, emb.ItemID)
	return nil
}

// GetEmbedding retrieves the stored vector pair for an item.
func (s *Store) GetEmbedding(_ context.Context, itemID string) (*domain.Embedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emb, ok := s.embeddings[itemID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &emb, nil
}

// PendingEmbeddings returns current items flagged for the embed retry pass.
func (s *Store) PendingEmbeddings(ctx context.Context, repositoryID string, limit int) ([]domain.RequirementItem, error) {
	items, err := s.CurrentItems(ctx, repositoryID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []domain.RequirementItem
	for i := range items {
		if !s.pending[items[i].ID] {
			continue
		}
		pending = append(pending, items[i])
		if limit > 0 && len(pending) == limit {
			break
		}
	}
	return pending, nil
}

// CurrentVectors hydrates the requested vectors for every current item
// that has an embedding.
func (s *Store) CurrentVectors(_ context.Context, repositoryID string, dim domain.VectorDimension) ([]driven.ItemVector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var vectors []driven.ItemVector
	for _, view := range s.currentRevisions(repositoryID) {
		for i := range s.items[view.rev.ID] {
			item := &s.items[view.rev.ID][i]
			emb, ok := s.embeddings[item.ID]
			if !ok {
				continue
			}
			vector := emb.Full
			if dim == domain.DimensionTruncated {
				vector = emb.Truncated
			}
			vectors = append(vectors, driven.ItemVector{
				ItemID:     item.ID,
				Identifier: item.Identifier,
				Title:      item.Title,
				Type:       item.Type,
				Path:       view.path,
				Body:       sliceLines(view.rev.Content, item.StartLine, item.EndLine),
				Vector:     vector,
			})
		}
	}
	sort.Slice(vectors, func(i, j int) bool { return vectors[i].Identifier < vectors[j].Identifier })
	return vectors, nil
}

// CurrentLinks returns the link edges of the current view.
func (s *Store) CurrentLinks(_ context.Context, repositoryID string) ([]domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var links []domain.Link
	for _, view := range s.currentRevisions(repositoryID) {
		links = append(links, s.links[view.rev.ID]...)
	}
	sort.Slice(links, func(i, j int) bool { return links[i].TargetIdentifier < links[j].TargetIdentifier })
	return links, nil
}

// LinksTo returns current edges pointing at an identifier.
func (s *Store) LinksTo(ctx context.Context, repositoryID, identifier string) ([]domain.Link, error) {
	all, err := s.CurrentLinks(ctx, repositoryID)
	if err != nil {
		return nil, err
	}
	var links []domain.Link
	for _, link := range all {
		if link.TargetIdentifier == identifier {
			links = append(links, link)
		}
	}
	return links, nil
}

// CommitMentions returns commit SHAs whose subject mentions the
// identifier, oldest first.
func (s *Store) CommitMentions(_ context.Context, repositoryID, identifier string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shas := append([]string(nil), s.mentions[repositoryID][identifier]...)
	sort.Slice(shas, func(i, j int) bool {
		return s.commits[shas[i]].AuthoredAt.Before(s.commits[shas[j]].AuthoredAt)
	})
	return shas, nil
}

// revisionDocument resolves a revision's owning document id.
// Caller holds the lock.
func (s *Store) revisionDocument(revisionID string) string {
	for docID, revs := range s.revisions {
		for i := range revs {
			if revs[i].ID == revisionID {
				return docID
			}
		}
	}
	return ""
}

// sliceLines extracts the 1-based inclusive line range from content.
func sliceLines(content string, startLine, endLine int) string {
	lines := strings.Split(content, "\n")
	if startLine < 1 {
		startLine = 1
	}
	if endLine > len(lines) {
		endLine = len(lines)
	}
	if startLine > endLine {
		return ""
	}
	return strings.Join(lines[startLine-1:endLine], "\n")
}
