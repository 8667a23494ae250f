// Package git implements the RepoSource port over the git CLI.
//
// The repository is consumed read-only; the only write is the annotated
// baseline tag, a human-visible marker.
package git

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
	"github.com/Y10K-tech/reqstudio/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.RepoSource = (*Source)(nil)

// fieldSep separates pretty-format fields. Never appears in commit data.
const fieldSep = "\x01"

// textExtensions are the tracked file types treated as requirement
// documents.
var textExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// Source reads a local git working tree.
type Source struct {
	root     string
	executor CommandExecutor
}

// NewSource creates a Source for the working tree at root.
func NewSource(root string) *Source {
	return &Source{root: root, executor: &DefaultExecutor{}}
}

// NewSourceWithExecutor creates a Source with a custom executor (for testing).
func NewSourceWithExecutor(root string, executor CommandExecutor) *Source {
	return &Source{root: root, executor: executor}
}

// Root returns the absolute path of the working tree.
func (s *Source) Root() string {
	return s.root
}

// Head returns metadata for the current head commit.
func (s *Source) Head(ctx context.Context) (*domain.Commit, error) {
	return s.CommitInfo(ctx, "HEAD")
}

// CommitInfo returns metadata for an arbitrary revision.
func (s *Source) CommitInfo(ctx context.Context, ref string) (*domain.Commit, error) {
	out, err := s.executor.Run(ctx, s.root, "git", "log", "-n", "1",
		"--pretty=format:%H"+fieldSep+"%an <%ae>"+fieldSep+"%aI"+fieldSep+"%B", ref)
	if err != nil {
		return nil, fmt.Errorf("git log %s: %w", ref, err)
	}

	commit, err := parseCommit(string(out))
	if err != nil {
		return nil, fmt.Errorf("parse commit %s: %w", ref, err)
	}
	return commit, nil
}

// ListFiles returns all tracked text document paths at head, sorted.
func (s *Source) ListFiles(ctx context.Context) ([]string, error) {
	out, err := s.executor.Run(ctx, s.root, "git", "ls-files")
	if err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var files []string
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line != "" && textExtensions[strings.ToLower(filepath.Ext(line))] {
			files = append(files, line)
		}
	}
	sort.Strings(files)
	return files, nil
}

// ChangedFiles returns the tracked text document paths that differ
// between sinceRef and head, changed and deleted separately, sorted.
func (s *Source) ChangedFiles(ctx context.Context, sinceRef string) ([]string, []string, error) {
	out, err := s.executor.Run(ctx, s.root, "git", "diff", "--name-status",
		sinceRef+"..HEAD")
	if err != nil {
		return nil, nil, fmt.Errorf("git diff %s..HEAD: %w", sinceRef, err)
	}

	var changed, deleted []string
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			continue
		}
		status := parts[0]
		switch {
		case strings.HasPrefix(status, "R") && len(parts) == 3:
			// Rename: old path is gone, new path changed.
			if isTextDoc(parts[1]) {
				deleted = append(deleted, parts[1])
			}
			if isTextDoc(parts[2]) {
				changed = append(changed, parts[2])
			}
		case status == "D":
			if isTextDoc(parts[1]) {
				deleted = append(deleted, parts[1])
			}
		default:
			if isTextDoc(parts[1]) {
				changed = append(changed, parts[1])
			}
		}
	}
	sort.Strings(changed)
	sort.Strings(deleted)
	return changed, deleted, nil
}

// FileAt returns the file content at the given revision.
func (s *Source) FileAt(ctx context.Context, ref, path string) (string, error) {
	out, err := s.executor.Run(ctx, s.root, "git", "show", ref+":"+path)
	if err != nil {
		return "", fmt.Errorf("git show %s:%s: %w", ref, path, err)
	}
	return string(out), nil
}

// CommitsSince returns commit metadata newer than sinceRef, oldest first.
func (s *Source) CommitsSince(ctx context.Context, sinceRef string, limit int) ([]domain.Commit, error) {
	args := []string{"log", "--reverse",
		"--pretty=format:%H" + fieldSep + "%an <%ae>" + fieldSep + "%aI" + fieldSep + "%s"}
	if sinceRef != "" {
		args = append(args, sinceRef+"..HEAD")
	} else if limit > 0 {
		args = append(args, "-n", fmt.Sprintf("%d", limit))
	}

	out, err := s.executor.Run(ctx, s.root, "git", args...)
	if err != nil {
		return nil, fmt.Errorf("git log: %w", err)
	}

	var commits []domain.Commit
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line == "" {
			continue
		}
		commit, err := parseCommit(line)
		if err != nil {
			return nil, fmt.Errorf("parse commit log: %w", err)
		}
		commits = append(commits, *commit)
	}
	return commits, nil
}

// TagBaseline creates an annotated tag baseline/<name> at the commit.
func (s *Source) TagBaseline(ctx context.Context, name, commitSHA, annotation string) error {
	tag := "baseline/" + name
	_, err := s.executor.Run(ctx, s.root, "git", "tag", "-a", tag, "-m", annotation, commitSHA)
	if err != nil {
		return fmt.Errorf("git tag %s: %w", tag, err)
	}
	return nil
}

// ListBaselineTags returns existing baseline tag names, without the
// baseline/ prefix.
func (s *Source) ListBaselineTags(ctx context.Context) ([]string, error) {
	out, err := s.executor.Run(ctx, s.root, "git", "tag", "--list", "baseline/*")
	if err != nil {
		return nil, fmt.Errorf("git tag --list: %w", err)
	}

	var names []string
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line != "" {
			names = append(names, strings.TrimPrefix(line, "baseline/"))
		}
	}
	sort.Strings(names)
	return names, nil
}

// DefaultBranch returns the current branch name.
func (s *Source) DefaultBranch(ctx context.Context) (string, error) {
	out, err := s.executor.Run(ctx, s.root, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func isTextDoc(path string) bool {
	return textExtensions[strings.ToLower(filepath.Ext(path))]
}

// parseCommit splits one pretty-format record into commit metadata.
func parseCommit(record string) (*domain.Commit, error) {
	parts := strings.SplitN(record, fieldSep, 4)
	if len(parts) != 4 {
		return nil, fmt.Errorf("malformed commit record: %q", record)
	}

	authoredAt, err := time.Parse(time.RFC3339, parts[2])
	if err != nil {
		return nil, fmt.Errorf("parse author time: %w", err)
	}

	return &domain.Commit{
		SHA:        parts[0],
		Author:     parts[1],
		AuthoredAt: authoredAt,
		Message:    strings.TrimSpace(parts[3]),
	}, nil
}
