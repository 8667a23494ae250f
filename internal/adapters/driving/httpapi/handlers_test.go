package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
)

// --- Mock implementations ---

// mockQueryService implements driving.QueryService for testing.
type mockQueryService struct {
	results     []domain.SearchResult
	suggestions []domain.LinkSuggestion
	rows        []domain.MatrixRow
	searchErr   error
	suggestErr  error
	matrixErr   error

	lastRequest domain.SearchRequest
}

func (m *mockQueryService) Search(_ context.Context, req domain.SearchRequest) ([]domain.SearchResult, error) {
	m.lastRequest = req
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.results, nil
}

func (m *mockQueryService) HybridSearch(_ context.Context, req domain.SearchRequest) ([]domain.SearchResult, error) {
	return m.Search(context.Background(), req)
}

func (m *mockQueryService) SuggestLinks(_ context.Context, _ string, _ int) ([]domain.LinkSuggestion, error) {
	if m.suggestErr != nil {
		return nil, m.suggestErr
	}
	return m.suggestions, nil
}

func (m *mockQueryService) Matrix(_ context.Context, _ []domain.ItemType) ([]domain.MatrixRow, error) {
	if m.matrixErr != nil {
		return nil, m.matrixErr
	}
	return m.rows, nil
}

// mockBaselineService implements driving.BaselineService for testing.
type mockBaselineService struct {
	baselines  []domain.Baseline
	diff       *domain.BaselineDiff
	createErr  error
	compareErr error
	created    []string
}

func (m *mockBaselineService) Create(_ context.Context, name string) (*domain.Baseline, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = append(m.created, name)
	return &domain.Baseline{ID: "b1", Name: name, CommitSHA: "abc123"}, nil
}

func (m *mockBaselineService) List(_ context.Context) ([]domain.Baseline, error) {
	return m.baselines, nil
}

func (m *mockBaselineService) Compare(_ context.Context, _, _ string) (*domain.BaselineDiff, error) {
	if m.compareErr != nil {
		return nil, m.compareErr
	}
	return m.diff, nil
}

func (m *mockBaselineService) Manifest(_ context.Context, _ string) ([]byte, error) {
	return []byte("{}"), nil
}

// --- Test helpers ---

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// --- Tests ---

func TestHandleSearch(t *testing.T) {
	query := &mockQueryService{results: []domain.SearchResult{
		{Identifier: "Y10K-PAY-CORE-HL-001", Title: "Card Authorization", Score: 0.9},
	}}
	h := NewHandlers(query, &mockBaselineService{})

	rec := postJSON(t, h.HandleSearch, "/api/search",
		`{"query":"card auth","limit":5,"fast":true,"types":["HL"]}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeBody(t, rec)
	assert.Equal(t, "card auth", body["query"])
	assert.Equal(t, float64(1), body["total"])

	assert.Equal(t, "card auth", query.lastRequest.Query)
	assert.Equal(t, 5, query.lastRequest.Limit)
	assert.Equal(t, domain.DimensionTruncated, query.lastRequest.Dimension)
	assert.Equal(t, []domain.ItemType{domain.TypeHighLevel}, query.lastRequest.Types)
}

func TestHandleSearch_MissingQuery(t *testing.T) {
	h := NewHandlers(&mockQueryService{}, &mockBaselineService{})

	rec := postJSON(t, h.HandleSearch, "/api/search", `{"limit":5}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing query", decodeBody(t, rec)["error"])
}

func TestHandleSearch_UnknownType(t *testing.T) {
	h := NewHandlers(&mockQueryService{}, &mockBaselineService{})

	rec := postJSON(t, h.HandleSearch, "/api/search", `{"query":"x","types":["XX"]}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "unknown item type XX")
}

func TestHandleSearch_MethodNotAllowed(t *testing.T) {
	h := NewHandlers(&mockQueryService{}, &mockBaselineService{})

	req := httptest.NewRequest(http.MethodGet, "/api/search", nil)
	rec := httptest.NewRecorder()
	h.HandleSearch(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleSearch_EmbeddingDown(t *testing.T) {
	query := &mockQueryService{searchErr: domain.ErrEmbeddingUnavailable}
	h := NewHandlers(query, &mockBaselineService{})

	rec := postJSON(t, h.HandleSearch, "/api/search", `{"query":"card"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleSuggestLinks(t *testing.T) {
	query := &mockQueryService{suggestions: []domain.LinkSuggestion{
		{TargetIdentifier: "Y10K-PAY-CORE-LL-003", Similarity: 0.8},
	}}
	h := NewHandlers(query, &mockBaselineService{})

	rec := postJSON(t, h.HandleSuggestLinks, "/api/suggest-links",
		`{"identifier":"Y10K-PAY-CORE-HL-001","count":3}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Y10K-PAY-CORE-HL-001", body["identifier"])
	assert.Equal(t, float64(1), body["total"])
}

func TestHandleSuggestLinks_UnknownIdentifier(t *testing.T) {
	query := &mockQueryService{suggestErr: domain.ErrUnknownIdentifier}
	h := NewHandlers(query, &mockBaselineService{})

	rec := postJSON(t, h.HandleSuggestLinks, "/api/suggest-links",
		`{"identifier":"Y10K-PAY-CORE-HL-999"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleMatrix(t *testing.T) {
	query := &mockQueryService{rows: []domain.MatrixRow{
		{Requirement: "Y10K-PAY-CORE-HL-001", Components: []string{"Y10K-PAY-CORE-CMP-010"}},
	}}
	h := NewHandlers(query, &mockBaselineService{})

	req := httptest.NewRequest(http.MethodGet, "/api/matrix?type=HL", nil)
	rec := httptest.NewRecorder()
	h.HandleMatrix(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeBody(t, rec)["total"])
}

func TestHandleMatrix_UnknownType(t *testing.T) {
	h := NewHandlers(&mockQueryService{}, &mockBaselineService{})

	req := httptest.NewRequest(http.MethodGet, "/api/matrix?type=NOPE", nil)
	rec := httptest.NewRecorder()
	h.HandleMatrix(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleBaselines_List(t *testing.T) {
	baselines := &mockBaselineService{baselines: []domain.Baseline{
		{Name: "REL-1.0"}, {Name: "REL-1.1"},
	}}
	h := NewHandlers(&mockQueryService{}, baselines)

	req := httptest.NewRequest(http.MethodGet, "/api/baselines", nil)
	rec := httptest.NewRecorder()
	h.HandleBaselines(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), decodeBody(t, rec)["total"])
}

func TestHandleBaselines_Create(t *testing.T) {
	baselines := &mockBaselineService{}
	h := NewHandlers(&mockQueryService{}, baselines)

	rec := postJSON(t, h.HandleBaselines, "/api/baselines", `{"name":"REL-1.0"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"REL-1.0"}, baselines.created)
}

func TestHandleBaselines_CreateDuplicate(t *testing.T) {
	baselines := &mockBaselineService{createErr: domain.ErrDuplicateBaseline}
	h := NewHandlers(&mockQueryService{}, baselines)

	rec := postJSON(t, h.HandleBaselines, "/api/baselines", `{"name":"REL-1.0"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleBaselineDiff(t *testing.T) {
	baselines := &mockBaselineService{diff: &domain.BaselineDiff{
		Added:   []string{"Y10K-PAY-CORE-API-001"},
		Changed: []string{"Y10K-PAY-CORE-LL-003"},
	}}
	h := NewHandlers(&mockQueryService{}, baselines)

	req := httptest.NewRequest(http.MethodGet, "/api/baselines/diff?a=REL-1.0&b=REL-1.1", nil)
	rec := httptest.NewRecorder()
	h.HandleBaselineDiff(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleBaselineDiff_MissingParams(t *testing.T) {
	h := NewHandlers(&mockQueryService{}, &mockBaselineService{})

	req := httptest.NewRequest(http.MethodGet, "/api/baselines/diff?a=REL-1.0", nil)
	rec := httptest.NewRecorder()
	h.HandleBaselineDiff(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleHealthz(t *testing.T) {
	h := NewHandlers(&mockQueryService{}, &mockBaselineService{})

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	rec := httptest.NewRecorder()
	h.HandleHealthz(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestServerRoutes(t *testing.T) {
	srv := New("127.0.0.1:0", &mockQueryService{}, &mockBaselineService{})

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
