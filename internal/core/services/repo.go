package services

import (
	"context"
	"strings"
	"sync"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
	"github.com/Y10K-tech/reqstudio/internal/core/ports/driven"
)

// repoResolver resolves and caches the repository row for the working
// tree a service is bound to. Each service carries its own resolver;
// the underlying upsert is idempotent by root path, so repeated
// registration across services converges on the same row.
type repoResolver struct {
	source        driven.RepoSource
	docStore      driven.DocumentStore
	defaultBranch string

	mu   sync.Mutex
	repo *domain.Repository
}

// newRepoResolver creates a resolver for the given working tree.
func newRepoResolver(source driven.RepoSource, docStore driven.DocumentStore, defaultBranch string) *repoResolver {
	return &repoResolver{
		source:        source,
		docStore:      docStore,
		defaultBranch: defaultBranch,
	}
}

// Resolve returns the repository row, registering it on first use.
func (r *repoResolver) Resolve(ctx context.Context) (*domain.Repository, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo != nil {
		return r.repo, nil
	}

	repo, err := r.docStore.UpsertRepository(ctx, r.source.Root(), r.defaultBranch)
	if err != nil {
		return nil, err
	}
	r.repo = repo
	return repo, nil
}

// itemBody returns the declaration text of an item: its line range
// sliced out of the owning revision's content.
func itemBody(content string, startLine, endLine int) string {
	lines := strings.Split(content, "\n")
	if startLine < 1 {
		startLine = 1
	}
	if endLine > len(lines) {
		endLine = len(lines)
	}
	if startLine > endLine {
		return ""
	}
	return strings.Join(lines[startLine-1:endLine], "\n")
}
