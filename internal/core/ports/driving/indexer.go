package driving

import (
	"context"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
)

// ScanOptions configures one scan run.
type ScanOptions struct {
	// Mode selects full or incremental scanning.
	Mode domain.ScanMode

	// SinceRef overrides the stored last-scan reference for
	// incremental mode. Empty means use the stored reference.
	SinceRef string

	// SkipEmbedding indexes structure only, leaving every item
	// flagged for the embed retry pass.
	SkipEmbedding bool
}

// Indexer drives the scan -> parse -> embed -> upsert pipeline.
type Indexer interface {
	// Scan walks the repository and upserts changed documents.
	// Per-document failures never abort the scan; they are counted in
	// the returned summary. Cancellation is honoured between documents
	// and leaves a consistent, resumable partial state.
	Scan(ctx context.Context, opts ScanOptions) (*domain.ScanSummary, error)

	// EmbedPending retries embedding generation for items the last
	// scans left without vectors. Returns the number embedded.
	EmbedPending(ctx context.Context) (int, error)

	// VerifyHead checks that the head commit subject carries a strict
	// identifier. Returns domain.ErrInvalidInput when it does not.
	VerifyHead(ctx context.Context) error
}
