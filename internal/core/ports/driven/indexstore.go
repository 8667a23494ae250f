package driven

import (
	"context"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
)

// ParsedItem is one parsed requirement item together with its outbound
// links, as handed from the parser to the upsert engine.
type ParsedItem struct {
	Item  domain.RequirementItem
	Links []domain.Link
}

// ApplyRequest carries everything the store needs to upsert one document
// atomically.
type ApplyRequest struct {
	// RepositoryID is the owning repository.
	RepositoryID string

	// Path is the repository-relative document path.
	Path string

	// Commit is the commit the content was read at.
	Commit domain.Commit

	// Content is the full document text.
	Content string

	// ContentHash is the SHA-256 of Content, hex-encoded.
	ContentHash string

	// Items is the parsed item set with outbound links attached.
	Items []ParsedItem
}

// ApplyResult reports what the atomic apply did.
type ApplyResult struct {
	// Outcome classifies the write.
	Outcome domain.ScanOutcome

	// DocumentID is the upserted document row.
	DocumentID string

	// RevisionID is the inserted revision row, empty when unchanged.
	RevisionID string

	// PendingItemIDs lists item rows written without an embedding.
	PendingItemIDs []string

	// ChangedIdentifiers lists identifiers whose content differs from
	// the previous revision; inbound links to these were marked suspect.
	ChangedIdentifiers []string
}

// ItemVector pairs an item's display fields with one stored vector,
// hydrated for similarity scans.
type ItemVector struct {
	ItemID     string
	Identifier string
	Title      string
	Type       domain.ItemType
	Path       string
	Body       string
	Vector     []float32
}

// DocumentStore persists repositories, documents and revisions.
// Backed by SQLite.
type DocumentStore interface {
	// UpsertRepository registers a repository by root path, returning
	// the existing row when already known.
	UpsertRepository(ctx context.Context, rootPath, defaultBranch string) (*domain.Repository, error)

	// SaveCommit records commit metadata and any strict identifiers
	// found in its subject line. Idempotent per SHA.
	SaveCommit(ctx context.Context, commit *domain.Commit, mentions []string) error

	// Apply performs the atomic per-document upsert: document row,
	// revision short-circuit, revision insert, item/link replacement
	// and suspect propagation, all in one transaction.
	//
	// Returns domain.ErrStorageConflict when a concurrent writer holds
	// the document; callers retry with backoff.
	Apply(ctx context.Context, req ApplyRequest) (*ApplyResult, error)

	// GetDocument retrieves a document by repository and path.
	GetDocument(ctx context.Context, repositoryID, path string) (*domain.Document, error)

	// ListDocuments returns all documents for a repository.
	ListDocuments(ctx context.Context, repositoryID string) ([]domain.Document, error)

	// LatestRevision returns the newest revision of a document, by
	// commit author time. "Current state" is always this derived view.
	LatestRevision(ctx context.Context, documentID string) (*domain.DocumentRevision, error)
}

// ItemStore persists requirement items, links and embeddings.
type ItemStore interface {
	// CurrentItems returns the items of every document's latest
	// revision, with paths hydrated.
	CurrentItems(ctx context.Context, repositoryID string) ([]domain.RequirementItem, error)

	// CurrentItemByIdentifier resolves an identifier against the
	// current view. Returns domain.ErrNotFound for unknown identifiers.
	CurrentItemByIdentifier(ctx context.Context, repositoryID, identifier string) (*domain.RequirementItem, error)

	// ItemPath returns the document path an item was parsed from.
	ItemPath(ctx context.Context, itemID string) (string, error)

	// SaveEmbedding stores the vector pair for an item and clears its
	// pending flag.
	SaveEmbedding(ctx context.Context, emb *domain.Embedding) error

	// GetEmbedding retrieves the stored vector pair for an item.
	GetEmbedding(ctx context.Context, itemID string) (*domain.Embedding, error)

	// PendingEmbeddings returns current items flagged for the embed
	// retry pass.
	PendingEmbeddings(ctx context.Context, repositoryID string, limit int) ([]domain.RequirementItem, error)

	// CurrentVectors hydrates the requested vectors for every current
	// item that has an embedding.
	CurrentVectors(ctx context.Context, repositoryID string, dim domain.VectorDimension) ([]ItemVector, error)

	// CurrentLinks returns the link edges of the current view.
	CurrentLinks(ctx context.Context, repositoryID string) ([]domain.Link, error)

	// LinksTo returns current edges pointing at an identifier.
	LinksTo(ctx context.Context, repositoryID, identifier string) ([]domain.Link, error)

	// CommitMentions returns commit SHAs whose subject mentions the
	// identifier.
	CommitMentions(ctx context.Context, repositoryID, identifier string) ([]string, error)
}

// ScanStateStore persists incremental scan progress per repository.
type ScanStateStore interface {
	// SaveLastScan records the head commit a completed scan reached.
	SaveLastScan(ctx context.Context, repositoryID, commitSHA string) error

	// LastScan returns the last completed scan commit.
	// Returns domain.ErrNotFound when the repository was never scanned.
	LastScan(ctx context.Context, repositoryID string) (string, error)
}

// BaselineStore persists frozen baselines.
type BaselineStore interface {
	// CreateBaseline writes the baseline and its entries atomically.
	// Returns domain.ErrDuplicateBaseline when the name exists for the
	// repository.
	CreateBaseline(ctx context.Context, b *domain.Baseline, entries []domain.BaselineEntry) error

	// GetBaseline retrieves a baseline by name.
	GetBaseline(ctx context.Context, repositoryID, name string) (*domain.Baseline, error)

	// ListBaselines returns all baselines for a repository.
	ListBaselines(ctx context.Context, repositoryID string) ([]domain.Baseline, error)

	// BaselineEntries returns the frozen identifier mapping.
	BaselineEntries(ctx context.Context, baselineID string) ([]domain.BaselineEntry, error)
}
