package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
)

// CreateBaseline writes the baseline and its entries atomically.
func (s *Store) CreateBaseline(_ context.Context, b *domain.Baseline, entries []domain.BaselineEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byName, ok := s.baselines[b.RepositoryID]
	if !ok {
		byName = make(map[string]domain.Baseline)
		s.baselines[b.RepositoryID] = byName
	}
	if _, exists := byName[b.Name]; exists {
		return domain.ErrDuplicateBaseline
	}

	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	byName[b.Name] = *b
	s.entries[b.ID] = append([]domain.BaselineEntry(nil), entries...)
	return nil
}

// GetBaseline retrieves a baseline by name.
func (s *Store) GetBaseline(_ context.Context, repositoryID, name string) (*domain.Baseline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.baselines[repositoryID][name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

// ListBaselines returns all baselines for a repository, oldest first.
func (s *Store) ListBaselines(_ context.Context, repositoryID string) ([]domain.Baseline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var baselines []domain.Baseline
	for _, b := range s.baselines[repositoryID] {
		baselines = append(baselines, b)
	}
	sort.Slice(baselines, func(i, j int) bool {
		return baselines[i].CreatedAt.Before(baselines[j].CreatedAt)
	})
	return baselines, nil
}

// BaselineEntries returns the frozen identifier mapping, sorted by
// identifier.
func (s *Store) BaselineEntries(_ context.Context, baselineID string) ([]domain.BaselineEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := append([]domain.BaselineEntry(nil), s.entries[baselineID]...)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Identifier < entries[j].Identifier
	})
	return entries, nil
}
