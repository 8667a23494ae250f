package git

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecutor implements CommandExecutor with canned outputs keyed by
// the joined argument list.
type fakeExecutor struct {
	outputs map[string]string
	err     error
	calls   []string
}

func (f *fakeExecutor) Run(_ context.Context, _ string, name string, args ...string) ([]byte, error) {
	key := name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, key)
	if f.err != nil {
		return nil, f.err
	}
	out, ok := f.outputs[key]
	if !ok {
		return nil, errors.New("unexpected command: " + key)
	}
	return []byte(out), nil
}

const commitFormat = "%H\x01%an <%ae>\x01%aI\x01"

func TestSource_Head(t *testing.T) {
	exec := &fakeExecutor{outputs: map[string]string{
		"git log -n 1 --pretty=format:" + commitFormat + "%B HEAD": "abc123\x01Alice <alice@example.com>\x012024-03-01T10:00:00+01:00\x01Y10K-PAY-CORE-HL-001: tighten auth\n\nlonger body\n",
	}}
	source := NewSourceWithExecutor("/repo", exec)

	head, err := source.Head(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "abc123", head.SHA)
	assert.Equal(t, "Alice <alice@example.com>", head.Author)
	assert.Equal(t, "Y10K-PAY-CORE-HL-001: tighten auth\n\nlonger body", head.Message)

	want, _ := time.Parse(time.RFC3339, "2024-03-01T10:00:00+01:00")
	assert.True(t, head.AuthoredAt.Equal(want))
}

func TestSource_Head_MalformedRecord(t *testing.T) {
	exec := &fakeExecutor{outputs: map[string]string{
		"git log -n 1 --pretty=format:" + commitFormat + "%B HEAD": "not a commit record",
	}}
	source := NewSourceWithExecutor("/repo", exec)

	_, err := source.Head(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed commit record")
}

func TestSource_ListFiles_FiltersToTextDocuments(t *testing.T) {
	exec := &fakeExecutor{outputs: map[string]string{
		"git ls-files": "README.md\nsrc/main.go\ndocs/spec.txt\nnotes.MARKDOWN\nimage.png\n",
	}}
	source := NewSourceWithExecutor("/repo", exec)

	files, err := source.ListFiles(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"README.md", "docs/spec.txt", "notes.MARKDOWN"}, files)
}

func TestSource_ChangedFiles(t *testing.T) {
	exec := &fakeExecutor{outputs: map[string]string{
		"git diff --name-status abc..HEAD": strings.Join([]string{
			"M\tdocs/payments.md",
			"A\tdocs/gateway.md",
			"D\tdocs/legacy.md",
			"M\tsrc/main.go",
			"R100\tdocs/old-name.md\tdocs/new-name.md",
		}, "\n"),
	}}
	source := NewSourceWithExecutor("/repo", exec)

	changed, deleted, err := source.ChangedFiles(context.Background(), "abc")

	require.NoError(t, err)
	assert.Equal(t, []string{"docs/gateway.md", "docs/new-name.md", "docs/payments.md"}, changed)
	assert.Equal(t, []string{"docs/legacy.md", "docs/old-name.md"}, deleted)
}

func TestSource_FileAt(t *testing.T) {
	exec := &fakeExecutor{outputs: map[string]string{
		"git show abc:docs/payments.md": "# Payments\n",
	}}
	source := NewSourceWithExecutor("/repo", exec)

	content, err := source.FileAt(context.Background(), "abc", "docs/payments.md")

	require.NoError(t, err)
	assert.Equal(t, "# Payments\n", content)
}

func TestSource_CommitsSince(t *testing.T) {
	exec := &fakeExecutor{outputs: map[string]string{
		"git log --reverse --pretty=format:" + commitFormat + "%s abc..HEAD": strings.Join([]string{
			"c1\x01Alice <a@example.com>\x012024-03-01T10:00:00Z\x01first subject",
			"c2\x01Bob <b@example.com>\x012024-03-01T11:00:00Z\x01second subject",
		}, "\n"),
	}}
	source := NewSourceWithExecutor("/repo", exec)

	commits, err := source.CommitsSince(context.Background(), "abc", 0)

	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "c1", commits[0].SHA)
	assert.Equal(t, "first subject", commits[0].Message)
	assert.Equal(t, "c2", commits[1].SHA)
}

func TestSource_CommitsSince_WindowWithoutReference(t *testing.T) {
	exec := &fakeExecutor{outputs: map[string]string{
		"git log --reverse --pretty=format:" + commitFormat + "%s -n 200": "c1\x01Alice <a@example.com>\x012024-03-01T10:00:00Z\x01subject",
	}}
	source := NewSourceWithExecutor("/repo", exec)

	commits, err := source.CommitsSince(context.Background(), "", 200)

	require.NoError(t, err)
	assert.Len(t, commits, 1)
}

func TestSource_TagBaseline(t *testing.T) {
	exec := &fakeExecutor{outputs: map[string]string{
		"git tag -a baseline/REL-1.0 -m manifest abc123": "",
	}}
	source := NewSourceWithExecutor("/repo", exec)

	err := source.TagBaseline(context.Background(), "REL-1.0", "abc123", "manifest")

	require.NoError(t, err)
	require.Len(t, exec.calls, 1)
}

func TestSource_ListBaselineTags(t *testing.T) {
	exec := &fakeExecutor{outputs: map[string]string{
		"git tag --list baseline/*": "baseline/REL-1.0\nbaseline/REL-1.1\n",
	}}
	source := NewSourceWithExecutor("/repo", exec)

	names, err := source.ListBaselineTags(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"REL-1.0", "REL-1.1"}, names)
}

func TestSource_ExecutorErrorPropagates(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("fatal: not a git repository")}
	source := NewSourceWithExecutor("/repo", exec)

	_, err := source.ListFiles(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a git repository")
}
