// Package memory provides in-memory implementations of the storage
// ports, mirroring the SQLite adapter's semantics. Used by tests and as
// a reference for the derived current view.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
	"github.com/Y10K-tech/reqstudio/internal/core/ports/driven"
)

// Ensure Store implements the storage ports.
var (
	_ driven.DocumentStore  = (*Store)(nil)
	_ driven.ItemStore      = (*Store)(nil)
	_ driven.ScanStateStore = (*Store)(nil)
	_ driven.BaselineStore  = (*Store)(nil)
)

// Store is an in-memory implementation of the storage ports.
// One mutex guards everything; keys mirror the SQLite schema.
type Store struct {
	mu sync.RWMutex

	// repositories keyed by root path; repoByID indexes them.
	repositories map[string]domain.Repository
	repoByID     map[string]string

	// commits keyed by SHA; mentions keyed by repository then identifier.
	commits  map[string]domain.Commit
	mentions map[string]map[string][]string

	// documents keyed by repository then path; docByID indexes them.
	documents map[string]map[string]domain.Document
	docByID   map[string]domain.Document

	// revisions keyed by document ID, insertion order.
	revisions map[string][]domain.DocumentRevision

	// items and links keyed by revision ID.
	items map[string][]domain.RequirementItem
	links map[string][]domain.Link

	// embeddings and the pending flag keyed by item ID.
	embeddings map[string]domain.Embedding
	pending    map[string]bool

	// scanState keyed by repository ID.
	scanState map[string]string

	// baselines keyed by repository then name; entries by baseline ID.
	baselines map[string]map[string]domain.Baseline
	entries   map[string][]domain.BaselineEntry
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		repositories: make(map[string]domain.Repository),
		repoByID:     make(map[string]string),
		commits:      make(map[string]domain.Commit),
		mentions:     make(map[string]map[string][]string),
		documents:    make(map[string]map[string]domain.Document),
		docByID:      make(map[string]domain.Document),
		revisions:    make(map[string][]domain.DocumentRevision),
		items:        make(map[string][]domain.RequirementItem),
		links:        make(map[string][]domain.Link),
		embeddings:   make(map[string]domain.Embedding),
		pending:      make(map[string]bool),
		scanState:    make(map[string]string),
		baselines:    make(map[string]map[string]domain.Baseline),
		entries:      make(map[string][]domain.BaselineEntry),
	}
}

// currentRevision resolves the document's latest revision by commit
// author time, then index time. Revisions whose commit was never
// recorded do not participate, matching the SQLite join.
// Caller holds the lock.
func (s *Store) currentRevision(documentID string) (*domain.DocumentRevision, bool) {
	var best *domain.DocumentRevision
	var bestAt time.Time
	for i := range s.revisions[documentID] {
		rev := &s.revisions[documentID][i]
		commit, ok := s.commits[rev.CommitSHA]
		if !ok {
			continue
		}
		if best == nil || commit.AuthoredAt.After(bestAt) ||
			(commit.AuthoredAt.Equal(bestAt) && rev.IndexedAt.After(best.IndexedAt)) {
			best = rev
			bestAt = commit.AuthoredAt
		}
	}
	return best, best != nil
}

// currentRevisions lists the current revision of every document in a
// repository, with paths, sorted by path. Caller holds the lock.
func (s *Store) currentRevisions(repositoryID string) []revisionView {
	var out []revisionView
	for path, doc := range s.documents[repositoryID] {
		rev, ok := s.currentRevision(doc.ID)
		if !ok {
			continue
		}
		out = append(out, revisionView{path: path, rev: rev})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out
}

// revisionView pairs a current revision with its document path.
type revisionView struct {
	path string
	rev  *domain.DocumentRevision
}

func newID() string {
	return uuid.New().String()
}
