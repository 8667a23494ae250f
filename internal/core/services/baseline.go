package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"

	"github.com/google/uuid"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
	"github.com/Y10K-tech/reqstudio/internal/core/ports/driven"
	"github.com/Y10K-tech/reqstudio/internal/core/ports/driving"
	"github.com/Y10K-tech/reqstudio/internal/logger"
)

// Ensure BaselineManager implements the interface.
var _ driving.BaselineService = (*BaselineManager)(nil)

// baselineNameRe constrains names to what a git tag accepts.
var baselineNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// BaselineManager freezes and compares named snapshots of the current
// identifier -> revision mapping.
type BaselineManager struct {
	source        driven.RepoSource
	docStore      driven.DocumentStore
	itemStore     driven.ItemStore
	baselineStore driven.BaselineStore
	resolver      *repoResolver
}

// NewBaselineManager creates a new baseline service.
func NewBaselineManager(
	source driven.RepoSource,
	docStore driven.DocumentStore,
	itemStore driven.ItemStore,
	baselineStore driven.BaselineStore,
	defaultBranch string,
) *BaselineManager {
	return &BaselineManager{
		source:        source,
		docStore:      docStore,
		itemStore:     itemStore,
		baselineStore: baselineStore,
		resolver:      newRepoResolver(source, docStore, defaultBranch),
	}
}

// manifest is the canonical serialization of a baseline. Entries are
// sorted by identifier so the same snapshot always hashes identically.
type manifest struct {
	Name      string          `json:"name"`
	CommitSHA string          `json:"commit_sha"`
	Entries   []manifestEntry `json:"entries"`
}

type manifestEntry struct {
	Identifier  string `json:"identifier"`
	RevisionID  string `json:"revision_id"`
	ContentHash string `json:"content_hash"`
	Path        string `json:"path"`
}

// Create freezes the current identifier -> revision mapping under the
// given name and tags the head commit. The tag is a human-visible
// marker; the store rows are the state of record.
func (m *BaselineManager) Create(ctx context.Context, name string) (*domain.Baseline, error) {
	if !baselineNameRe.MatchString(name) {
		return nil, fmt.Errorf("%w: invalid baseline name %q", domain.ErrInvalidInput, name)
	}

	repo, err := m.resolver.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve repository: %w", err)
	}

	head, err := m.source.Head(ctx)
	if err != nil {
		return nil, fmt.Errorf("read head: %w", err)
	}

	entries, err := m.snapshotEntries(ctx, repo.ID)
	if err != nil {
		return nil, err
	}

	payload, hash := serializeManifest(name, head.SHA, entries)

	baseline := &domain.Baseline{
		ID:           uuid.New().String(),
		RepositoryID: repo.ID,
		Name:         name,
		CommitSHA:    head.SHA,
		ManifestHash: hash,
	}
	for i := range entries {
		entries[i].BaselineID = baseline.ID
	}

	if err := m.baselineStore.CreateBaseline(ctx, baseline, entries); err != nil {
		return nil, err
	}

	// Tagging is best effort; a failed tag never unwinds the baseline.
	if err := m.source.TagBaseline(ctx, name, head.SHA, string(payload)); err != nil {
		logger.Warn("Failed to tag baseline %s: %v", name, err)
	}

	logger.Info("Baseline %s frozen at %s (%d identifiers)", name, head.SHA, len(entries))
	return baseline, nil
}

// List returns all baselines for the repository.
func (m *BaselineManager) List(ctx context.Context) ([]domain.Baseline, error) {
	repo, err := m.resolver.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve repository: %w", err)
	}
	return m.baselineStore.ListBaselines(ctx, repo.ID)
}

// Compare diffs two baselines by name, partitioning identifiers by
// presence and content hash.
func (m *BaselineManager) Compare(ctx context.Context, nameA, nameB string) (*domain.BaselineDiff, error) {
	entriesA, err := m.entriesByName(ctx, nameA)
	if err != nil {
		return nil, err
	}
	entriesB, err := m.entriesByName(ctx, nameB)
	if err != nil {
		return nil, err
	}

	hashA := make(map[string]string, len(entriesA))
	for _, e := range entriesA {
		hashA[e.Identifier] = e.ContentHash
	}

	diff := &domain.BaselineDiff{}
	for _, e := range entriesB {
		prev, ok := hashA[e.Identifier]
		switch {
		case !ok:
			diff.Added = append(diff.Added, e.Identifier)
		case prev != e.ContentHash:
			diff.Changed = append(diff.Changed, e.Identifier)
		default:
			diff.Unchanged = append(diff.Unchanged, e.Identifier)
		}
		delete(hashA, e.Identifier)
	}
	for identifier := range hashA {
		diff.Removed = append(diff.Removed, identifier)
	}

	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	sort.Strings(diff.Changed)
	sort.Strings(diff.Unchanged)
	return diff, nil
}

// Manifest returns the canonical serialized manifest of a baseline.
func (m *BaselineManager) Manifest(ctx context.Context, name string) ([]byte, error) {
	repo, err := m.resolver.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve repository: %w", err)
	}
	baseline, err := m.baselineStore.GetBaseline(ctx, repo.ID, name)
	if err != nil {
		return nil, fmt.Errorf("get baseline %s: %w", name, err)
	}
	entries, err := m.baselineStore.BaselineEntries(ctx, baseline.ID)
	if err != nil {
		return nil, fmt.Errorf("baseline entries: %w", err)
	}

	payload, _ := serializeManifest(baseline.Name, baseline.CommitSHA, entries)
	return payload, nil
}

// snapshotEntries resolves every current identifier to its revision.
func (m *BaselineManager) snapshotEntries(ctx context.Context, repositoryID string) ([]domain.BaselineEntry, error) {
	items, err := m.itemStore.CurrentItems(ctx, repositoryID)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	// Revision hash and path are looked up once per document.
	type revInfo struct {
		hash string
	}
	byPath := map[string]revInfo{}

	entries := make([]domain.BaselineEntry, 0, len(items))
	for i := range items {
		path, err := m.itemStore.ItemPath(ctx, items[i].ID)
		if err != nil {
			return nil, fmt.Errorf("item path for %s: %w", items[i].Identifier, err)
		}
		info, ok := byPath[path]
		if !ok {
			doc, err := m.docStore.GetDocument(ctx, repositoryID, path)
			if err != nil {
				return nil, fmt.Errorf("get document %s: %w", path, err)
			}
			rev, err := m.docStore.LatestRevision(ctx, doc.ID)
			if err != nil {
				return nil, fmt.Errorf("latest revision of %s: %w", path, err)
			}
			info = revInfo{hash: rev.ContentHash}
			byPath[path] = info
		}
		entries = append(entries, domain.BaselineEntry{
			Identifier:  items[i].Identifier,
			RevisionID:  items[i].RevisionID,
			ContentHash: info.hash,
			Path:        path,
		})
	}
	return entries, nil
}

// entriesByName loads a baseline's entries.
func (m *BaselineManager) entriesByName(ctx context.Context, name string) ([]domain.BaselineEntry, error) {
	repo, err := m.resolver.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve repository: %w", err)
	}
	baseline, err := m.baselineStore.GetBaseline(ctx, repo.ID, name)
	if err != nil {
		return nil, fmt.Errorf("get baseline %s: %w", name, err)
	}
	return m.baselineStore.BaselineEntries(ctx, baseline.ID)
}

// serializeManifest builds the canonical manifest payload and its hash.
func serializeManifest(name, commitSHA string, entries []domain.BaselineEntry) ([]byte, string) {
	mf := manifest{
		Name:      name,
		CommitSHA: commitSHA,
		Entries:   make([]manifestEntry, len(entries)),
	}
	for i, e := range entries {
		mf.Entries[i] = manifestEntry{
			Identifier:  e.Identifier,
			RevisionID:  e.RevisionID,
			ContentHash: e.ContentHash,
			Path:        e.Path,
		}
	}
	sort.Slice(mf.Entries, func(i, j int) bool {
		return mf.Entries[i].Identifier < mf.Entries[j].Identifier
	})

	payload, _ := json.MarshalIndent(mf, "", "  ") //nolint:errcheck // struct of strings cannot fail
	sum := sha256.Sum256(payload)
	return payload, hex.EncodeToString(sum[:])
}
