package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
	"github.com/Y10K-tech/reqstudio/internal/core/ports/driven"
)

// UpsertRepository registers a repository by root path.
func (s *Store) UpsertRepository(_ context.Context, rootPath, defaultBranch string) (*domain.Repository, error) {
	if defaultBranch == "" {
		defaultBranch = "main"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	repo, ok := s.repositories[rootPath]
	if ok {
		repo.DefaultBranch = defaultBranch
		s.repositories[rootPath] = repo
		return &repo, nil
	}

	repo = domain.Repository{
		ID:            newID(),
		RootPath:      rootPath,
		DefaultBranch: defaultBranch,
		CreatedAt:     time.Now().UTC(),
	}
	s.repositories[rootPath] = repo
	s.repoByID[repo.ID] = rootPath
	return &repo, nil
}

// SaveCommit records commit metadata and subject mentions. Idempotent.
func (s *Store) SaveCommit(_ context.Context, commit *domain.Commit, mentions []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.commits[commit.SHA]; !ok {
		s.commits[commit.SHA] = *commit
	}

	byIdentifier, ok := s.mentions[commit.RepositoryID]
	if !ok {
		byIdentifier = make(map[string][]string)
		s.mentions[commit.RepositoryID] = byIdentifier
	}
	for _, identifier := range mentions {
		shas := byIdentifier[identifier]
		seen := false
		for _, sha := range shas {
			if sha == commit.SHA {
				seen = true
				break
			}
		}
		if !seen {
			byIdentifier[identifier] = append(shas, commit.SHA)
		}
	}
	return nil
}

// Apply performs the atomic per-document upsert, mirroring the SQLite
// adapter: revision short-circuit, stale rewrite, item/link replacement
// and suspect propagation.
func (s *Store) Apply(_ context.Context, req driven.ApplyRequest) (*driven.ApplyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	byPath, ok := s.documents[req.RepositoryID]
	if !ok {
		byPath = make(map[string]domain.Document)
		s.documents[req.RepositoryID] = byPath
	}
	doc, ok := byPath[req.Path]
	if !ok {
		doc = domain.Document{
			ID:           newID(),
			RepositoryID: req.RepositoryID,
			Path:         req.Path,
			CreatedAt:    now,
		}
		byPath[req.Path] = doc
		s.docByID[doc.ID] = doc
	}

	result := &driven.ApplyResult{DocumentID: doc.ID}

	// Short-circuit when this (document, commit) revision already exists
	// with matching content.
	for i := range s.revisions[doc.ID] {
		rev := &s.revisions[doc.ID][i]
		if rev.CommitSHA != req.Commit.SHA {
			continue
		}
		if rev.ContentHash == req.ContentHash {
			result.Outcome = domain.OutcomeUnchanged
			result.RevisionID = rev.ID
			return result, nil
		}
		// Hash mismatch at a fixed commit means a prior partial write.
		s.dropRevision(doc.ID, rev.ID)
		break
	}

	prevIdentifiers, prevHash := s.previousIdentifiers(doc.ID)

	rev := domain.DocumentRevision{
		ID:          newID(),
		DocumentID:  doc.ID,
		CommitSHA:   req.Commit.SHA,
		ContentHash: req.ContentHash,
		Size:        len(req.Content),
		Content:     req.Content,
		IndexedAt:   now,
	}
	s.revisions[doc.ID] = append(s.revisions[doc.ID], rev)
	result.RevisionID = rev.ID

	for i := range req.Items {
		item := req.Items[i].Item
		item.RevisionID = rev.ID
		item.CreatedAt = now
		s.items[rev.ID] = append(s.items[rev.ID], item)
		s.pending[item.ID] = true
		result.PendingItemIDs = append(result.PendingItemIDs, item.ID)

		for _, link := range req.Items[i].Links {
			link.SourceItemID = item.ID
			link.CommitSHA = req.Commit.SHA
			link.Suspect = false
			s.links[rev.ID] = append(s.links[rev.ID], link)
		}
	}

	// Suspect propagation over identifiers declared before or after the
	// change. Edges recorded at the change commit stay trusted.
	if prevHash != "" && prevHash != req.ContentHash {
		affected := make(map[string]bool, len(prevIdentifiers)+len(req.Items))
		for _, id := range prevIdentifiers {
			affected[id] = true
		}
		for i := range req.Items {
			affected[req.Items[i].Item.Identifier] = true
		}
		for identifier := range affected {
			s.markSuspect(identifier, req.Commit.SHA)
			result.ChangedIdentifiers = append(result.ChangedIdentifiers, identifier)
		}
	}

	result.Outcome = domain.OutcomeIndexed
	return result, nil
}

// GetDocument retrieves a document by repository and path.
func (s *Store) GetDocument(_ context.Context, repositoryID, path string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[repositoryID][path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ListDocuments returns all documents for a repository, sorted by path.
func (s *Store) ListDocuments(_ context.Context, repositoryID string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentDocuments(repositoryID), nil
}

// LatestRevision returns the newest revision of a document.
func (s *Store) LatestRevision(_ context.Context, documentID string) (*domain.DocumentRevision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rev, ok := s.currentRevision(documentID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *rev
	return &out, nil
}

// currentDocuments lists a repository's documents sorted by path.
// Caller holds the lock.
func (s *Store) currentDocuments(repositoryID string) []domain.Document {
	byPath := s.documents[repositoryID]
	paths := make([]string, 0, len(byPath))
	for path := range byPath {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	docs := make([]domain.Document, 0, len(paths))
	for _, path := range paths {
		docs = append(docs, byPath[path])
	}
	return docs
}

// previousIdentifiers returns the identifiers and content hash of the
// document's current revision, empty when none. Caller holds the lock.
func (s *Store) previousIdentifiers(documentID string) ([]string, string) {
	rev, ok := s.currentRevision(documentID)
	if !ok {
		return nil, ""
	}
	var identifiers []string
	for i := range s.items[rev.ID] {
		identifiers = append(identifiers, s.items[rev.ID][i].Identifier)
	}
	return identifiers, rev.ContentHash
}

// dropRevision removes a revision and its items, links and embeddings.
// Caller holds the lock.
func (s *Store) dropRevision(documentID, revisionID string) {
	revs := s.revisions[documentID]
	for i := range revs {
		if revs[i].ID == revisionID {
			s.revisions[documentID] = append(revs[:i], revs[i+1:]...)
			break
		}
	}
	for i := range s.items[revisionID] {
		itemID := s.items[revisionID][i].ID
		delete(s.embeddings, itemID)
		delete(s.pending, itemID)
	}
	delete(s.items, revisionID)
	delete(s.links, revisionID)
}

// markSuspect flags links pointing at the identifier, sparing edges
// recorded at the change commit. Caller holds the lock.
func (s *Store) markSuspect(identifier, commitSHA string) {
	for revID := range s.links {
		for i := range s.links[revID] {
			link := &s.links[revID][i]
			if link.TargetIdentifier == identifier && link.CommitSHA != commitSHA {
				link.Suspect = true
			}
		}
	}
}
