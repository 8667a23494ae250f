package cli

import (
	"context"
	"time"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
	"github.com/Y10K-tech/reqstudio/internal/core/ports/driving"
)

// --- Mock implementations ---

// mockIndexer implements driving.Indexer for testing.
type mockIndexer struct {
	summary   *domain.ScanSummary
	scanErr   error
	embedded  int
	embedErr  error
	verifyErr error
	lastOpts  driving.ScanOptions
}

func (m *mockIndexer) Scan(_ context.Context, opts driving.ScanOptions) (*domain.ScanSummary, error) {
	m.lastOpts = opts
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	if m.summary != nil {
		return m.summary, nil
	}
	now := time.Now()
	return &domain.ScanSummary{CommitSHA: "abc1234", Started: now, Finished: now}, nil
}

func (m *mockIndexer) EmbedPending(_ context.Context) (int, error) {
	return m.embedded, m.embedErr
}

func (m *mockIndexer) VerifyHead(_ context.Context) error {
	return m.verifyErr
}

// mockQuery implements driving.QueryService for testing.
type mockQuery struct {
	results     []domain.SearchResult
	suggestions []domain.LinkSuggestion
	rows        []domain.MatrixRow
	err         error
	lastRequest domain.SearchRequest
	hybridCalls int
}

func (m *mockQuery) Search(_ context.Context, req domain.SearchRequest) ([]domain.SearchResult, error) {
	m.lastRequest = req
	return m.results, m.err
}

func (m *mockQuery) HybridSearch(_ context.Context, req domain.SearchRequest) ([]domain.SearchResult, error) {
	m.hybridCalls++
	m.lastRequest = req
	return m.results, m.err
}

func (m *mockQuery) SuggestLinks(_ context.Context, _ string, _ int) ([]domain.LinkSuggestion, error) {
	return m.suggestions, m.err
}

func (m *mockQuery) Matrix(_ context.Context, _ []domain.ItemType) ([]domain.MatrixRow, error) {
	return m.rows, m.err
}

// mockBaselines implements driving.BaselineService for testing.
type mockBaselines struct {
	baseline  *domain.Baseline
	baselines []domain.Baseline
	diff      *domain.BaselineDiff
	manifest  []byte
	err       error
}

func (m *mockBaselines) Create(_ context.Context, name string) (*domain.Baseline, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.baseline != nil {
		return m.baseline, nil
	}
	return &domain.Baseline{Name: name, CommitSHA: "abc1234", ManifestHash: "deadbeef"}, nil
}

func (m *mockBaselines) List(_ context.Context) ([]domain.Baseline, error) {
	return m.baselines, m.err
}

func (m *mockBaselines) Compare(_ context.Context, _, _ string) (*domain.BaselineDiff, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.diff != nil {
		return m.diff, nil
	}
	return &domain.BaselineDiff{}, nil
}

func (m *mockBaselines) Manifest(_ context.Context, _ string) ([]byte, error) {
	return m.manifest, m.err
}

// setupTestServices installs mock services and returns a cleanup that
// restores the previous wiring.
func setupTestServices() (*mockIndexer, *mockQuery, *mockBaselines, func()) {
	prevIndexer := indexer
	prevQuery := queryService
	prevBaselines := baselineService

	idx := &mockIndexer{}
	query := &mockQuery{}
	baselines := &mockBaselines{}
	Initialize(idx, query, baselines)

	return idx, query, baselines, func() {
		indexer = prevIndexer
		queryService = prevQuery
		baselineService = prevBaselines
	}
}
