package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
	"github.com/Y10K-tech/reqstudio/internal/core/ports/driving"
	"github.com/Y10K-tech/reqstudio/internal/logger"
)

// Handlers holds the driving ports the API serves.
type Handlers struct {
	query     driving.QueryService
	baselines driving.BaselineService
}

// NewHandlers creates the handler set.
func NewHandlers(query driving.QueryService, baselines driving.BaselineService) *Handlers {
	return &Handlers{query: query, baselines: baselines}
}

// searchRequest is the JSON body of the search endpoints.
type searchRequest struct {
	Query string   `json:"query"`
	Limit int      `json:"limit"`
	Fast  bool     `json:"fast"`
	Alpha float64  `json:"alpha"`
	Types []string `json:"types"`
}

// toDomain converts the wire request, validating item types.
func (r *searchRequest) toDomain() (domain.SearchRequest, error) {
	req := domain.SearchRequest{
		Query: r.Query,
		Limit: r.Limit,
		Alpha: r.Alpha,
	}
	if r.Fast {
		req.Dimension = domain.DimensionTruncated
	}
	for _, t := range r.Types {
		it := domain.ItemType(t)
		if !it.Valid() {
			return req, errors.New("unknown item type " + t)
		}
		req.Types = append(req.Types, it)
	}
	return req, nil
}

// HandleSearch serves POST /api/search.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	h.runSearch(w, r, h.query.Search)
}

// HandleHybridSearch serves POST /api/hybrid-search.
func (h *Handlers) HandleHybridSearch(w http.ResponseWriter, r *http.Request) {
	h.runSearch(w, r, h.query.HybridSearch)
}

func (h *Handlers) runSearch(
	w http.ResponseWriter,
	r *http.Request,
	search func(context.Context, domain.SearchRequest) ([]domain.SearchResult, error),
) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body searchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Query == "" {
		writeError(w, http.StatusBadRequest, "missing query")
		return
	}

	req, err := body.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := search(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":   body.Query,
		"results": results,
		"total":   len(results),
	})
}

// HandleSuggestLinks serves POST /api/suggest-links.
func (h *Handlers) HandleSuggestLinks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Identifier string `json:"identifier"`
		Count      int    `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Identifier == "" {
		writeError(w, http.StatusBadRequest, "missing identifier")
		return
	}

	suggestions, err := h.query.SuggestLinks(r.Context(), body.Identifier, body.Count)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"identifier":  body.Identifier,
		"suggestions": suggestions,
		"total":       len(suggestions),
	})
}

// HandleMatrix serves GET /api/matrix. Types filter via ?type=HL&type=LL.
func (h *Handlers) HandleMatrix(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var types []domain.ItemType
	for _, t := range r.URL.Query()["type"] {
		it := domain.ItemType(t)
		if !it.Valid() {
			writeError(w, http.StatusBadRequest, "unknown item type "+t)
			return
		}
		types = append(types, it)
	}

	rows, err := h.query.Matrix(r.Context(), types)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"rows":  rows,
		"total": len(rows),
	})
}

// HandleBaselines serves GET (list) and POST (create) /api/baselines.
func (h *Handlers) HandleBaselines(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		baselines, err := h.baselines.List(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"baselines": baselines,
			"total":     len(baselines),
		})

	case http.MethodPost:
		var body struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.Name == "" {
			writeError(w, http.StatusBadRequest, "missing name")
			return
		}
		baseline, err := h.baselines.Create(r.Context(), body.Name)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, baseline)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// HandleBaselineDiff serves GET /api/baselines/diff?a=older&b=newer.
func (h *Handlers) HandleBaselineDiff(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	a := r.URL.Query().Get("a")
	b := r.URL.Query().Get("b")
	if a == "" || b == "" {
		writeError(w, http.StatusBadRequest, "missing query parameters 'a' and 'b'")
		return
	}

	diff, err := h.baselines.Compare(r.Context(), a, b)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, diff)
}

// HandleHealthz serves GET /api/healthz.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeServiceError maps domain errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUnknownIdentifier):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrDuplicateBaseline):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		logger.Warn("Request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response: %v", err)
	}
}
