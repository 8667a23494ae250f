package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
	"github.com/Y10K-tech/reqstudio/internal/core/ports/driven"
	"github.com/Y10K-tech/reqstudio/internal/core/ports/driving"
	"github.com/Y10K-tech/reqstudio/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.QueryService = (*SearchService)(nil)

// DefaultSuggestionCount is how many link candidates SuggestLinks
// returns when the caller passes k <= 0.
const DefaultSuggestionCount = 10

// suggestTypeBoost nudges component and decision targets up the
// suggestion ranking; they are the usual link targets for a requirement.
const suggestTypeBoost = 0.05

// SearchService is the read path over the index: vector and hybrid
// search, link suggestions and the traceability matrix.
type SearchService struct {
	itemStore driven.ItemStore
	embedder  driven.EmbeddingService
	resolver  *repoResolver
}

// NewSearchService creates a new search service.
// The embedder is optional; without it vector search is unavailable and
// hybrid search degrades to lexical scoring.
func NewSearchService(
	source driven.RepoSource,
	docStore driven.DocumentStore,
	itemStore driven.ItemStore,
	embedder driven.EmbeddingService,
	defaultBranch string,
) *SearchService {
	return &SearchService{
		itemStore: itemStore,
		embedder:  embedder,
		resolver:  newRepoResolver(source, docStore, defaultBranch),
	}
}

// Search performs vector similarity search over the current view.
func (s *SearchService) Search(ctx context.Context, req domain.SearchRequest) ([]domain.SearchResult, error) {
	req.Clamp()
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return []domain.SearchResult{}, nil
	}

	hits, err := s.vectorHits(ctx, req)
	if err != nil {
		return nil, err
	}

	for i := range hits {
		hits[i].Score = hits[i].Similarity
	}
	return rankResults(hits, req.Limit), nil
}

// HybridSearch combines lexical and vector relevance as
// alpha*vector + (1-alpha)*lexical. When the embedding service is down
// it degrades to lexical scoring alone.
func (s *SearchService) HybridSearch(ctx context.Context, req domain.SearchRequest) ([]domain.SearchResult, error) {
	req.Clamp()
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return []domain.SearchResult{}, nil
	}

	hits, err := s.vectorHits(ctx, req)
	if errors.Is(err, domain.ErrEmbeddingUnavailable) {
		logger.Warn("Vector search unavailable, degrading to lexical: %v", err)
		return s.lexicalOnly(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	terms := queryTerms(req.Query)
	for i := range hits {
		lex := lexicalScore(terms, hits[i].Identifier, hits[i].Title, hits[i].body)
		hits[i].Score = req.Alpha*hits[i].Similarity + (1-req.Alpha)*lex
	}
	return rankResults(hits, req.Limit), nil
}

// SuggestLinks ranks candidate link targets for an item, seeded by the
// item's own embedding and excluding itself and existing targets.
func (s *SearchService) SuggestLinks(ctx context.Context, identifier string, k int) ([]domain.LinkSuggestion, error) {
	if k <= 0 {
		k = DefaultSuggestionCount
	}

	repo, err := s.resolver.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve repository: %w", err)
	}

	item, err := s.itemStore.CurrentItemByIdentifier(ctx, repo.ID, identifier)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownIdentifier, identifier)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", identifier, err)
	}

	emb, err := s.itemStore.GetEmbedding(ctx, item.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s has no stored embedding, run a scan first",
			domain.ErrEmbeddingUnavailable, identifier)
	}
	if err != nil {
		return nil, fmt.Errorf("load embedding: %w", err)
	}

	// Exclude targets the item already links to.
	links, err := s.itemStore.CurrentLinks(ctx, repo.ID)
	if err != nil {
		return nil, fmt.Errorf("load links: %w", err)
	}
	excluded := map[string]bool{identifier: true}
	for _, l := range links {
		if l.SourceItemID == item.ID {
			excluded[l.TargetIdentifier] = true
		}
	}

	vectors, err := s.itemStore.CurrentVectors(ctx, repo.ID, domain.DimensionFull)
	if err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}

	suggestions := make([]domain.LinkSuggestion, 0, len(vectors))
	for _, v := range vectors {
		if excluded[v.Identifier] {
			continue
		}
		sim := domain.Cosine(emb.Full, v.Vector)
		sug := domain.LinkSuggestion{
			TargetIdentifier: v.Identifier,
			Title:            v.Title,
			Type:             v.Type,
			Similarity:       sim,
			Score:            sim,
		}
		if v.Type == domain.TypeComponent || v.Type == domain.TypeDecision {
			sug.Score += suggestTypeBoost
		}
		suggestions = append(suggestions, sug)
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].TargetIdentifier < suggestions[j].TargetIdentifier
	})
	if len(suggestions) > k {
		suggestions = suggestions[:k]
	}
	return suggestions, nil
}

// Matrix assembles the traceability matrix: requirements with the
// components implementing them, the tests verifying them, and the
// commits mentioning them.
//
//nolint:gocognit // Matrix assembly joins several current-view queries
func (s *SearchService) Matrix(ctx context.Context, types []domain.ItemType) ([]domain.MatrixRow, error) {
	repo, err := s.resolver.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve repository: %w", err)
	}

	items, err := s.itemStore.CurrentItems(ctx, repo.ID)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	links, err := s.itemStore.CurrentLinks(ctx, repo.ID)
	if err != nil {
		return nil, fmt.Errorf("load links: %w", err)
	}

	byID := make(map[string]*domain.RequirementItem, len(items))
	known := make(map[string]bool, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
		known[items[i].Identifier] = true
	}

	rowTypes := map[domain.ItemType]bool{}
	if len(types) == 0 {
		// Requirements by default: high- and low-level.
		rowTypes[domain.TypeHighLevel] = true
		rowTypes[domain.TypeLowLevel] = true
	}
	for _, t := range types {
		rowTypes[t] = true
	}

	rows := make(map[string]*domain.MatrixRow)
	for i := range items {
		if !rowTypes[items[i].Type] {
			continue
		}
		rows[items[i].Identifier] = &domain.MatrixRow{
			Requirement: items[i].Identifier,
			Title:       items[i].Title,
		}
	}

	for _, link := range links {
		source, ok := byID[link.SourceItemID]
		if !ok {
			continue
		}

		// Outbound edges from a row item contribute dangling targets.
		if row, ok := rows[source.Identifier]; ok && !known[link.TargetIdentifier] {
			row.Dangling = appendUnique(row.Dangling, link.TargetIdentifier)
		}

		// Inbound edges to a row item contribute columns.
		row, ok := rows[link.TargetIdentifier]
		if !ok {
			continue
		}
		if link.Suspect {
			row.Suspect = true
		}
		switch {
		case link.Kind == domain.RelationImplements || source.Type == domain.TypeComponent:
			row.Components = appendUnique(row.Components, source.Identifier)
		case link.Kind == domain.RelationTests || source.Type == domain.TypeTest:
			row.Tests = appendUnique(row.Tests, source.Identifier)
		}
	}

	out := make([]domain.MatrixRow, 0, len(rows))
	for _, row := range rows {
		mentions, err := s.itemStore.CommitMentions(ctx, repo.ID, row.Requirement)
		if err != nil {
			return nil, fmt.Errorf("commit mentions for %s: %w", row.Requirement, err)
		}
		row.Commits = mentions
		sort.Strings(row.Components)
		sort.Strings(row.Tests)
		sort.Strings(row.Dangling)
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Requirement < out[j].Requirement })
	return out, nil
}

// scoredHit pairs a hydrated item vector with its scores.
type scoredHit struct {
	domain.SearchResult
	body string
}

// vectorHits scores every current vector against the query embedding.
func (s *SearchService) vectorHits(ctx context.Context, req domain.SearchRequest) ([]scoredHit, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrEmbeddingUnavailable)
	}

	repo, err := s.resolver.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve repository: %w", err)
	}

	query, err := s.embedder.EmbedQuery(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	query = domain.Normalize(query)
	if req.Dimension == domain.DimensionTruncated {
		query = domain.Truncate(query, domain.TruncatedDimensions)
	}

	vectors, err := s.itemStore.CurrentVectors(ctx, repo.ID, req.Dimension)
	if err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}

	wanted := typeFilter(req.Types)
	hits := make([]scoredHit, 0, len(vectors))
	for _, v := range vectors {
		if wanted != nil && !wanted[v.Type] {
			continue
		}
		hits = append(hits, scoredHit{
			SearchResult: domain.SearchResult{
				Identifier: v.Identifier,
				Title:      v.Title,
				Type:       v.Type,
				Path:       v.Path,
				Similarity: domain.Cosine(query, v.Vector),
			},
			body: v.Body,
		})
	}
	return hits, nil
}

// lexicalOnly scores current items on term overlap alone.
func (s *SearchService) lexicalOnly(ctx context.Context, req domain.SearchRequest) ([]domain.SearchResult, error) {
	repo, err := s.resolver.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve repository: %w", err)
	}

	items, err := s.itemStore.CurrentItems(ctx, repo.ID)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	terms := queryTerms(req.Query)
	wanted := typeFilter(req.Types)
	hits := make([]scoredHit, 0, len(items))
	for i := range items {
		if wanted != nil && !wanted[items[i].Type] {
			continue
		}
		score := lexicalScore(terms, items[i].Identifier, items[i].Title, "")
		if score == 0 {
			continue
		}
		hits = append(hits, scoredHit{
			SearchResult: domain.SearchResult{
				Identifier: items[i].Identifier,
				Title:      items[i].Title,
				Type:       items[i].Type,
				Score:      score,
			},
		})
	}
	return rankResults(hits, req.Limit), nil
}

// rankResults sorts hits by score descending, identifier ascending, and
// truncates to limit.
func rankResults(hits []scoredHit, limit int) []domain.SearchResult {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Identifier < hits[j].Identifier
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	results := make([]domain.SearchResult, len(hits))
	for i := range hits {
		results[i] = hits[i].SearchResult
	}
	return results
}

// typeFilter converts a type list into a membership set, nil when empty.
func typeFilter(types []domain.ItemType) map[domain.ItemType]bool {
	if len(types) == 0 {
		return nil
	}
	set := make(map[domain.ItemType]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}

// queryTerms lowercases and splits a query into terms.
func queryTerms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// lexicalScore is the fraction of query terms found in the item's
// identifier, title or body.
func lexicalScore(terms []string, identifier, title, body string) float64 {
	if len(terms) == 0 {
		return 0
	}
	haystack := strings.ToLower(identifier + " " + title + " " + body)
	matched := 0
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

// appendUnique appends s when not already present.
func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
