package driving

import (
	"context"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
)

// QueryService is the read path over the index.
type QueryService interface {
	// Search performs vector similarity search.
	Search(ctx context.Context, req domain.SearchRequest) ([]domain.SearchResult, error)

	// HybridSearch combines lexical and vector relevance as
	// alpha*vector + (1-alpha)*lexical.
	HybridSearch(ctx context.Context, req domain.SearchRequest) ([]domain.SearchResult, error)

	// SuggestLinks ranks candidate link targets for an item, seeded by
	// the item's own embedding and excluding itself and existing
	// targets.
	SuggestLinks(ctx context.Context, identifier string, k int) ([]domain.LinkSuggestion, error)

	// Matrix assembles the traceability matrix: requirements with the
	// components implementing them and the tests verifying them.
	Matrix(ctx context.Context, types []domain.ItemType) ([]domain.MatrixRow, error)
}

// BaselineService freezes and compares baselines.
type BaselineService interface {
	// Create freezes the current identifier -> revision mapping under
	// the given name. Returns domain.ErrDuplicateBaseline when the
	// name is taken.
	Create(ctx context.Context, name string) (*domain.Baseline, error)

	// List returns all baselines for the repository.
	List(ctx context.Context) ([]domain.Baseline, error)

	// Compare diffs two baselines by name.
	Compare(ctx context.Context, nameA, nameB string) (*domain.BaselineDiff, error)

	// Manifest returns the canonical serialized manifest of a baseline.
	Manifest(ctx context.Context, name string) ([]byte, error)
}
