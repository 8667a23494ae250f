package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
	"github.com/Y10K-tech/reqstudio/internal/core/ports/driven"
	"github.com/Y10K-tech/reqstudio/internal/core/ports/driving"
	"github.com/Y10K-tech/reqstudio/internal/logger"
	"github.com/Y10K-tech/reqstudio/internal/parser"
)

// Ensure IndexerService implements the interface.
var _ driving.Indexer = (*IndexerService)(nil)

// Default indexer tuning.
const (
	// DefaultWorkers bounds parse/upsert concurrency.
	DefaultWorkers = 4

	// DefaultCommitWindow caps how many commits a first scan records.
	DefaultCommitWindow = 200

	// applyAttempts bounds upsert retries on storage conflicts.
	applyAttempts = 4

	// applyBackoff is the initial retry delay, doubled per attempt.
	applyBackoff = 25 * time.Millisecond
)

// IndexerConfig tunes one IndexerService.
type IndexerConfig struct {
	// Workers bounds document-level concurrency (default 4).
	Workers int

	// DefaultBranch is recorded on the repository row (default "main").
	DefaultBranch string

	// CommitWindow caps commit history recorded when no prior scan
	// state exists (default 200).
	CommitWindow int
}

// IndexerService drives the scan -> parse -> embed -> upsert pipeline.
// One scan runs at a time per service; concurrent calls get
// domain.ErrScanInProgress.
type IndexerService struct {
	source    driven.RepoSource
	docStore  driven.DocumentStore
	itemStore driven.ItemStore
	scanStore driven.ScanStateStore
	embedder  driven.EmbeddingService
	policy    driven.FieldPolicy
	resolver  *repoResolver
	cfg       IndexerConfig

	mu       sync.Mutex
	scanning bool
}

// NewIndexerService creates a new indexer.
// The embedder and policy are optional - a nil embedder leaves scanned
// items flagged for the embed retry pass, a nil policy skips
// required-field validation.
func NewIndexerService(
	source driven.RepoSource,
	docStore driven.DocumentStore,
	itemStore driven.ItemStore,
	scanStore driven.ScanStateStore,
	embedder driven.EmbeddingService,
	policy driven.FieldPolicy,
	cfg IndexerConfig,
) *IndexerService {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.DefaultBranch == "" {
		cfg.DefaultBranch = "main"
	}
	if cfg.CommitWindow <= 0 {
		cfg.CommitWindow = DefaultCommitWindow
	}
	return &IndexerService{
		source:    source,
		docStore:  docStore,
		itemStore: itemStore,
		scanStore: scanStore,
		embedder:  embedder,
		policy:    policy,
		resolver:  newRepoResolver(source, docStore, cfg.DefaultBranch),
		cfg:       cfg,
	}
}

// Scan walks the repository and upserts changed documents.
// Per-document failures never abort the scan; they are counted in the
// returned summary. Cancellation is honoured between documents and
// leaves a consistent, resumable partial state.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (s *IndexerService) Scan(ctx context.Context, opts driving.ScanOptions) (*domain.ScanSummary, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()

	repo, err := s.resolver.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve repository: %w", err)
	}

	head, err := s.source.Head(ctx)
	if err != nil {
		return nil, fmt.Errorf("read head: %w", err)
	}
	head.RepositoryID = repo.ID

	// Resolve the incremental reference. No stored state forces a full
	// walk regardless of the requested mode.
	sinceRef := opts.SinceRef
	mode := opts.Mode
	if mode == domain.ScanIncremental && sinceRef == "" {
		sinceRef, err = s.scanStore.LastScan(ctx, repo.ID)
		if errors.Is(err, domain.ErrNotFound) {
			logger.Info("No previous scan, falling back to full scan")
			mode = domain.ScanFull
		} else if err != nil {
			return nil, fmt.Errorf("read scan state: %w", err)
		}
	}
	if mode == domain.ScanIncremental && sinceRef == head.SHA {
		logger.Debug("Head %s already scanned, nothing to do", head.SHA)
		now := time.Now().UTC()
		return &domain.ScanSummary{
			RepositoryID: repo.ID,
			CommitSHA:    head.SHA,
			Started:      now,
			Finished:     now,
		}, nil
	}

	if err := s.recordCommits(ctx, repo.ID, sinceRef); err != nil {
		return nil, err
	}

	paths, err := s.collectPaths(ctx, mode, sinceRef)
	if err != nil {
		return nil, err
	}

	summary := &domain.ScanSummary{
		RepositoryID: repo.ID,
		CommitSHA:    head.SHA,
		Started:      time.Now().UTC(),
	}

	logger.Info("Scanning %d documents at %s (%d workers)", len(paths), head.SHA, s.cfg.Workers)
	s.runWorkers(ctx, repo.ID, head, paths, opts.SkipEmbedding, summary)

	summary.Finished = time.Now().UTC()

	if ctx.Err() != nil {
		// Partial state is consistent per document; the stored scan
		// reference stays at the previous head so the next run resumes.
		return summary, ctx.Err()
	}

	if err := s.scanStore.SaveLastScan(ctx, repo.ID, head.SHA); err != nil {
		return summary, fmt.Errorf("save scan state: %w", err)
	}

	logger.Info("Scan complete: %d indexed, %d unchanged, %d warned, %d failed",
		summary.Indexed, summary.Unchanged, summary.Warned, summary.Failed)
	return summary, nil
}

// acquire takes the single-scan slot.
func (s *IndexerService) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scanning {
		return domain.ErrScanInProgress
	}
	s.scanning = true
	return nil
}

// release frees the single-scan slot.
func (s *IndexerService) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scanning = false
}

// recordCommits saves commit metadata and subject mentions newer than
// sinceRef. Commit history is advisory; failures only log.
func (s *IndexerService) recordCommits(ctx context.Context, repositoryID, sinceRef string) error {
	commits, err := s.source.CommitsSince(ctx, sinceRef, s.cfg.CommitWindow)
	if err != nil {
		return fmt.Errorf("list commits: %w", err)
	}
	for i := range commits {
		commits[i].RepositoryID = repositoryID
		mentions := parser.DetectIdentifiers(subjectLine(commits[i].Message))
		if err := s.docStore.SaveCommit(ctx, &commits[i], mentions); err != nil {
			logger.Warn("Failed to record commit %s: %v", commits[i].SHA, err)
		}
	}
	return nil
}

// collectPaths lists the documents one scan visits.
func (s *IndexerService) collectPaths(ctx context.Context, mode domain.ScanMode, sinceRef string) ([]string, error) {
	if mode == domain.ScanFull {
		paths, err := s.source.ListFiles(ctx)
		if err != nil {
			return nil, fmt.Errorf("list files: %w", err)
		}
		return paths, nil
	}

	changed, deleted, err := s.source.ChangedFiles(ctx, sinceRef)
	if err != nil {
		return nil, fmt.Errorf("changed files: %w", err)
	}
	// Deleted documents keep their history; the store is append-only
	// and the current view simply stops gaining revisions for them.
	for _, path := range deleted {
		logger.Debug("Deleted since %s: %s", sinceRef, path)
	}
	return changed, nil
}

// runWorkers processes paths with bounded concurrency, accumulating
// outcomes into summary.
func (s *IndexerService) runWorkers(
	ctx context.Context,
	repositoryID string,
	head *domain.Commit,
	paths []string,
	skipEmbedding bool,
	summary *domain.ScanSummary,
) {
	jobs := make(chan string)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < s.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				// Cancellation is checked between documents; an
				// in-flight apply always completes.
				if ctx.Err() != nil {
					continue
				}
				res := s.processDocument(ctx, repositoryID, head, path, skipEmbedding)
				mu.Lock()
				res.fold(summary, path)
				mu.Unlock()
			}
		}()
	}

	for _, path := range paths {
		jobs <- path
	}
	close(jobs)
	wg.Wait()
}

// docResult is one document's contribution to the scan summary.
type docResult struct {
	outcome  domain.ScanOutcome
	items    int
	links    int
	pending  int
	warnings []string
}

// fold accumulates the result into a summary. Caller holds the lock.
func (r docResult) fold(summary *domain.ScanSummary, path string) {
	switch r.outcome {
	case domain.OutcomeIndexed:
		summary.Indexed++
	case domain.OutcomeUnchanged:
		summary.Unchanged++
	case domain.OutcomeWarned:
		summary.Indexed++
		summary.Warned++
	case domain.OutcomeFailed:
		summary.Failed++
	}
	summary.ItemsParsed += r.items
	summary.LinksParsed += r.links
	summary.EmbeddingsPending += r.pending
	for _, w := range r.warnings {
		summary.AddWarning(path, w)
	}
}

// processDocument runs the parse -> upsert -> embed pipeline for one
// document at the head commit.
func (s *IndexerService) processDocument(
	ctx context.Context,
	repositoryID string,
	head *domain.Commit,
	path string,
	skipEmbedding bool,
) docResult {
	content, err := s.source.FileAt(ctx, head.SHA, path)
	if err != nil {
		logger.Warn("Failed to read %s: %v", path, err)
		return docResult{outcome: domain.OutcomeFailed, warnings: []string{err.Error()}}
	}

	parsed := parser.Parse(content)
	warnings := append([]string(nil), parsed.Warnings...)
	warnings = append(warnings, s.validateFields(parsed.Items)...)

	req := buildApplyRequest(repositoryID, path, *head, content, parsed)

	result, err := s.applyWithRetry(ctx, req)
	if err != nil {
		logger.Warn("Failed to upsert %s: %v", path, err)
		return docResult{outcome: domain.OutcomeFailed, warnings: append(warnings, err.Error())}
	}

	res := docResult{
		outcome:  result.Outcome,
		warnings: warnings,
	}
	if result.Outcome == domain.OutcomeUnchanged {
		return res
	}
	if len(warnings) > 0 {
		res.outcome = domain.OutcomeWarned
	}

	res.items = len(req.Items)
	for i := range req.Items {
		res.links += len(req.Items[i].Links)
	}

	// Embed the freshly written items. Embedding failures never fail
	// the document; items stay flagged for the retry pass.
	if skipEmbedding || s.embedder == nil {
		res.pending = len(result.PendingItemIDs)
		return res
	}
	embedded, err := s.embedItems(ctx, head.SHA, content, req.Items, result.PendingItemIDs)
	if err != nil {
		logger.Warn("Embedding failed for %s: %v", path, err)
	}
	res.pending = len(result.PendingItemIDs) - embedded
	return res
}

// applyWithRetry upserts one document, retrying storage conflicts with
// doubling backoff. A conflict means another writer raced the same
// document at the same commit; the racing write is identical, so a
// conflict that outlives every attempt collapses to unchanged instead
// of failing the document.
func (s *IndexerService) applyWithRetry(ctx context.Context, req driven.ApplyRequest) (*driven.ApplyResult, error) {
	backoff := applyBackoff
	var lastErr error
	for attempt := 1; attempt <= applyAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		result, err := s.docStore.Apply(ctx, req)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, domain.ErrStorageConflict) {
			return nil, err
		}
		lastErr = err
		logger.Debug("Storage conflict on %s (attempt %d/%d): %v", req.Path, attempt, applyAttempts, err)
	}
	logger.Warn("Storage conflict on %s persisted, treating as duplicate write: %v", req.Path, lastErr)
	return &driven.ApplyResult{Outcome: domain.OutcomeUnchanged}, nil
}

// validateFields checks parsed items against the required-field policy.
func (s *IndexerService) validateFields(items []parser.ItemDescriptor) []string {
	if s.policy == nil {
		return nil
	}
	var warnings []string
	for i := range items {
		for _, field := range s.policy.RequiredFields(items[i].Type) {
			if !hasField(&items[i], field) {
				warnings = append(warnings,
					fmt.Sprintf("%s: missing required field %q", items[i].Identifier, field))
			}
		}
	}
	return warnings
}

// hasField reports whether a parsed item declares the named field.
func hasField(item *parser.ItemDescriptor, field string) bool {
	switch strings.ToLower(field) {
	case "status":
		return item.Status != ""
	case "version":
		return item.Version != ""
	case "owner":
		return item.Owner != ""
	default:
		_, ok := item.Metadata[field]
		return ok
	}
}

// buildApplyRequest converts parser output into the store's upsert
// request, assigning row IDs and attributing links to their items.
func buildApplyRequest(
	repositoryID, path string,
	commit domain.Commit,
	content string,
	parsed *parser.Result,
) driven.ApplyRequest {
	items := make([]driven.ParsedItem, len(parsed.Items))
	byIdentifier := make(map[string]int, len(parsed.Items))
	for i := range parsed.Items {
		d := &parsed.Items[i]
		items[i] = driven.ParsedItem{
			Item: domain.RequirementItem{
				ID:         uuid.New().String(),
				Identifier: d.Identifier,
				Type:       d.Type,
				Title:      d.Title,
				Status:     d.Status,
				Version:    d.Version,
				Owner:      d.Owner,
				StartLine:  d.StartLine,
				EndLine:    d.EndLine,
				Metadata:   d.Metadata,
			},
		}
		byIdentifier[d.Identifier] = i
	}

	for _, link := range parsed.Links {
		// Links above the first declaration have no source item and
		// are dropped; the parser already attributed the rest.
		idx, ok := byIdentifier[link.SourceIdentifier]
		if !ok {
			continue
		}
		items[idx].Links = append(items[idx].Links, domain.Link{
			ID:               uuid.New().String(),
			SourceItemID:     items[idx].Item.ID,
			TargetIdentifier: link.Target,
			Kind:             link.Kind,
			CommitSHA:        commit.SHA,
			Line:             link.Line,
		})
	}

	return driven.ApplyRequest{
		RepositoryID: repositoryID,
		Path:         path,
		Commit:       commit,
		Content:      content,
		ContentHash:  hashContent(content),
		Items:        items,
	}
}

// embedItems generates and stores vector pairs for the pending items of
// one document. Returns how many were embedded.
func (s *IndexerService) embedItems(
	ctx context.Context,
	commitSHA, content string,
	items []driven.ParsedItem,
	pendingIDs []string,
) (int, error) {
	if len(pendingIDs) == 0 {
		return 0, nil
	}

	inputs := make([]driven.DocInput, len(items))
	for i := range items {
		inputs[i] = driven.DocInput{
			Title: items[i].Item.Title,
			Body:  itemBody(content, items[i].Item.StartLine, items[i].Item.EndLine),
		}
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, inputs)
	if err != nil {
		return 0, err
	}

	embedded := 0
	for i := range items {
		full := domain.Normalize(vectors[i])
		emb := &domain.Embedding{
			ItemID:    items[i].Item.ID,
			CommitSHA: commitSHA,
			Model:     s.embedder.ModelName(),
			Full:      full,
			Truncated: domain.Truncate(full, domain.TruncatedDimensions),
		}
		if err := s.itemStore.SaveEmbedding(ctx, emb); err != nil {
			return embedded, fmt.Errorf("save embedding for %s: %w", items[i].Item.Identifier, err)
		}
		embedded++
	}
	return embedded, nil
}

// EmbedPending retries embedding generation for items the last scans
// left without vectors. Returns the number embedded.
func (s *IndexerService) EmbedPending(ctx context.Context) (int, error) {
	if s.embedder == nil {
		return 0, fmt.Errorf("%w: no embedding service configured", domain.ErrEmbeddingUnavailable)
	}

	repo, err := s.resolver.Resolve(ctx)
	if err != nil {
		return 0, fmt.Errorf("resolve repository: %w", err)
	}

	items, err := s.itemStore.PendingEmbeddings(ctx, repo.ID, 0)
	if err != nil {
		return 0, fmt.Errorf("list pending embeddings: %w", err)
	}
	if len(items) == 0 {
		return 0, nil
	}
	logger.Info("Embedding %d pending items", len(items))

	embedded := 0
	for i := range items {
		if ctx.Err() != nil {
			return embedded, ctx.Err()
		}
		rev, err := s.revisionFor(ctx, repo.ID, &items[i])
		if err != nil {
			logger.Warn("Skipping %s: %v", items[i].Identifier, err)
			continue
		}
		body := itemBody(rev.Content, items[i].StartLine, items[i].EndLine)
		vectors, err := s.embedder.EmbedDocuments(ctx, []driven.DocInput{
			{Title: items[i].Title, Body: body},
		})
		if err != nil {
			return embedded, err
		}
		full := domain.Normalize(vectors[0])
		emb := &domain.Embedding{
			ItemID:    items[i].ID,
			CommitSHA: rev.CommitSHA,
			Model:     s.embedder.ModelName(),
			Full:      full,
			Truncated: domain.Truncate(full, domain.TruncatedDimensions),
		}
		if err := s.itemStore.SaveEmbedding(ctx, emb); err != nil {
			return embedded, fmt.Errorf("save embedding for %s: %w", items[i].Identifier, err)
		}
		embedded++
	}
	return embedded, nil
}

// revisionFor loads the current revision owning an item.
func (s *IndexerService) revisionFor(ctx context.Context, repositoryID string, item *domain.RequirementItem) (*domain.DocumentRevision, error) {
	path, err := s.itemStore.ItemPath(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("item path: %w", err)
	}
	doc, err := s.docStore.GetDocument(ctx, repositoryID, path)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	rev, err := s.docStore.LatestRevision(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("latest revision: %w", err)
	}
	return rev, nil
}

// VerifyHead checks that the head commit subject carries a strict
// identifier.
func (s *IndexerService) VerifyHead(ctx context.Context) error {
	head, err := s.source.Head(ctx)
	if err != nil {
		return fmt.Errorf("read head: %w", err)
	}
	subject := subjectLine(head.Message)
	if len(parser.DetectIdentifiers(subject)) == 0 {
		return fmt.Errorf("%w: commit subject %q references no identifier", domain.ErrInvalidInput, subject)
	}
	return nil
}

// subjectLine returns the first line of a commit message.
func subjectLine(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return message[:i]
	}
	return message
}

// hashContent returns the hex SHA-256 of content.
func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
