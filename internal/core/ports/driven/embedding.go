package driven

import "context"

// DocInput is one document-side embedding input.
type DocInput struct {
	// Title is the item title, folded into the prompt template.
	Title string

	// Body is the item's declaration text.
	Body string
}

// EmbeddingService generates vector embeddings from text.
// This is an optional service - when nil, vector/semantic search is
// disabled and scanned items stay flagged for a later embed pass.
//
// Document-side and query-side prompts use distinct templates; callers
// must not mix them.
type EmbeddingService interface {
	// EmbedDocuments generates embeddings for a batch of items using
	// the document-side prompt template. Results align with inputs.
	EmbedDocuments(ctx context.Context, inputs []DocInput) ([][]float32, error)

	// EmbedQuery generates an embedding for a search query using the
	// query-side prompt template.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the full embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
