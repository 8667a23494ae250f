package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
	"github.com/Y10K-tech/reqstudio/internal/core/ports/driven"
)

func seedRepo(t *testing.T, store *Store) string {
	t.Helper()
	repo, err := store.UpsertRepository(context.Background(), "/tmp/repo", "main")
	require.NoError(t, err)
	return repo.ID
}

func seedCommit(t *testing.T, store *Store, repoID, sha string, at time.Time) domain.Commit {
	t.Helper()
	commit := domain.Commit{SHA: sha, RepositoryID: repoID, AuthoredAt: at}
	require.NoError(t, store.SaveCommit(context.Background(), &commit, nil))
	return commit
}

func apply(t *testing.T, store *Store, repoID, path, hash string, commit domain.Commit, items ...driven.ParsedItem) *driven.ApplyResult {
	t.Helper()
	result, err := store.Apply(context.Background(), driven.ApplyRequest{
		RepositoryID: repoID,
		Path:         path,
		Commit:       commit,
		Content:      "line one\nline two",
		ContentHash:  hash,
		Items:        items,
	})
	require.NoError(t, err)
	return result
}

func item(identifier string, links ...domain.Link) driven.ParsedItem {
	id := uuid.New().String()
	for i := range links {
		links[i].ID = uuid.New().String()
		links[i].SourceItemID = id
	}
	return driven.ParsedItem{
		Item: domain.RequirementItem{
			ID:         id,
			Identifier: identifier,
			Type:       domain.TypeHighLevel,
			Title:      identifier,
			StartLine:  1,
			EndLine:    2,
		},
		Links: links,
	}
}

func TestStore_ApplyShortCircuit(t *testing.T) {
	store := NewStore()
	repoID := seedRepo(t, store)
	commit := seedCommit(t, store, repoID, "c1", time.Now().UTC())

	first := apply(t, store, repoID, "a.md", "h1", commit, item("Y10K-PAY-CORE-HL-001"))
	second := apply(t, store, repoID, "a.md", "h1", commit, item("Y10K-PAY-CORE-HL-001"))

	assert.Equal(t, domain.OutcomeIndexed, first.Outcome)
	assert.Equal(t, domain.OutcomeUnchanged, second.Outcome)
	assert.Equal(t, first.RevisionID, second.RevisionID)
}

func TestStore_CurrentViewFollowsAuthorTime(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	repoID := seedRepo(t, store)
	base := time.Now().UTC().Add(-time.Hour)
	c1 := seedCommit(t, store, repoID, "c1", base)
	c2 := seedCommit(t, store, repoID, "c2", base.Add(time.Minute))

	apply(t, store, repoID, "a.md", "h1", c1, item("Y10K-PAY-CORE-HL-001"))
	apply(t, store, repoID, "a.md", "h2", c2, item("Y10K-PAY-CORE-HL-001"))

	doc, err := store.GetDocument(ctx, repoID, "a.md")
	require.NoError(t, err)
	rev, err := store.LatestRevision(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "c2", rev.CommitSHA)

	items, err := store.CurrentItems(ctx, repoID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, rev.ID, items[0].RevisionID)
}

func TestStore_SuspectPropagation(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	repoID := seedRepo(t, store)
	base := time.Now().UTC().Add(-time.Hour)
	c1 := seedCommit(t, store, repoID, "c1", base)
	c2 := seedCommit(t, store, repoID, "c2", base.Add(time.Minute))

	apply(t, store, repoID, "target.md", "t1", c1, item("Y10K-PAY-CORE-HL-001"))
	apply(t, store, repoID, "ref.md", "r1", c1, item("Y10K-PAY-CORE-CMP-001",
		domain.Link{TargetIdentifier: "Y10K-PAY-CORE-HL-001", Kind: domain.RelationImplements, Line: 1}))

	apply(t, store, repoID, "target.md", "t2", c2, item("Y10K-PAY-CORE-HL-001"))

	links, err := store.LinksTo(ctx, repoID, "Y10K-PAY-CORE-HL-001")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.True(t, links[0].Suspect)
}

func TestStore_PendingClearedBySaveEmbedding(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	repoID := seedRepo(t, store)
	commit := seedCommit(t, store, repoID, "c1", time.Now().UTC())

	result := apply(t, store, repoID, "a.md", "h1", commit, item("Y10K-PAY-CORE-HL-001"))
	require.Len(t, result.PendingItemIDs, 1)

	pending, err := store.PendingEmbeddings(ctx, repoID, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, store.SaveEmbedding(ctx, &domain.Embedding{
		ItemID:    result.PendingItemIDs[0],
		CommitSHA: "c1",
		Full:      []float32{1, 0},
		Truncated: []float32{1},
	}))

	pending, err = store.PendingEmbeddings(ctx, repoID, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)

	vectors, err := store.CurrentVectors(ctx, repoID, domain.DimensionFull)
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Equal(t, "line one\nline two", vectors[0].Body)
}
