// Package httpapi exposes the query surface over HTTP JSON.
// It is a driving adapter: handlers translate requests into driving
// port calls and never touch storage directly.
package httpapi

import (
	"net/http"
	"time"

	"github.com/Y10K-tech/reqstudio/internal/core/ports/driving"
)

// New builds the API server. The GUI and other external collaborators
// consume this surface; writes still go through the CLI.
func New(addr string, query driving.QueryService, baselines driving.BaselineService) *http.Server {
	handlers := NewHandlers(query, baselines)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/search", handlers.HandleSearch)
	mux.HandleFunc("/api/hybrid-search", handlers.HandleHybridSearch)
	mux.HandleFunc("/api/suggest-links", handlers.HandleSuggestLinks)
	mux.HandleFunc("/api/matrix", handlers.HandleMatrix)
	mux.HandleFunc("/api/baselines", handlers.HandleBaselines)
	mux.HandleFunc("/api/baselines/diff", handlers.HandleBaselineDiff)
	mux.HandleFunc("/api/healthz", handlers.HandleHealthz)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
