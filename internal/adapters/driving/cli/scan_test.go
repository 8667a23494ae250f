package cli

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
)

func TestScanCmd_Use(t *testing.T) {
	assert.Equal(t, "scan", scanCmd.Use)
}

func TestScanCmd_HasFlags(t *testing.T) {
	for _, name := range []string{"full", "since", "no-embed", "watch", "watch-dir"} {
		assert.NotNil(t, scanCmd.Flags().Lookup(name), "flag %s should exist", name)
	}
}

func TestScanCmd_PrintsSummary(t *testing.T) {
	idx, _, _, cleanup := setupTestServices()
	defer cleanup()
	now := time.Now()
	idx.summary = &domain.ScanSummary{
		CommitSHA:         "abc1234",
		Indexed:           3,
		Unchanged:         1,
		Warned:            1,
		ItemsParsed:       7,
		LinksParsed:       4,
		EmbeddingsPending: 2,
		Started:           now,
		Finished:          now.Add(120 * time.Millisecond),
	}
	idx.summary.AddWarning("docs/payments.md", "missing required field \"Owner\"")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"scan"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Scanned at abc1234")
	assert.Contains(t, out, "indexed: 3  unchanged: 1  warned: 1  failed: 0")
	assert.Contains(t, out, "items: 7  links: 4  embeddings pending: 2")
	assert.Contains(t, out, "warning: docs/payments.md")
}

func TestScanCmd_DefaultsToIncremental(t *testing.T) {
	idx, _, _, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"scan"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, domain.ScanIncremental, idx.lastOpts.Mode)
}

func TestScanCmd_FullFlag(t *testing.T) {
	idx, _, _, cleanup := setupTestServices()
	defer cleanup()
	defer func() { scanFull = false }()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"scan", "--full"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, domain.ScanFull, idx.lastOpts.Mode)
}

func TestScanCmd_NoEmbedFlag(t *testing.T) {
	idx, _, _, cleanup := setupTestServices()
	defer cleanup()
	defer func() { scanNoEmbed = false }()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"scan", "--no-embed"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	require.NoError(t, rootCmd.Execute())
	assert.True(t, idx.lastOpts.SkipEmbedding)
}

func TestScanCmd_ScanErrorPropagates(t *testing.T) {
	idx, _, _, cleanup := setupTestServices()
	defer cleanup()
	idx.scanErr = errors.New("repository unreadable")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"scan"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repository unreadable")
}

func TestRelevantEvent(t *testing.T) {
	tests := []struct {
		name     string
		event    fsnotify.Event
		expected bool
	}{
		{"markdown write", fsnotify.Event{Name: "docs/payments.md", Op: fsnotify.Write}, true},
		{"text create", fsnotify.Event{Name: "notes.txt", Op: fsnotify.Create}, true},
		{"markdown remove", fsnotify.Event{Name: "docs/old.md", Op: fsnotify.Remove}, true},
		{"go file", fsnotify.Event{Name: "main.go", Op: fsnotify.Write}, false},
		{"hidden file", fsnotify.Event{Name: ".payments.md.swp", Op: fsnotify.Write}, false},
		{"chmod only", fsnotify.Event{Name: "docs/payments.md", Op: fsnotify.Chmod}, false},
		{"head move", fsnotify.Event{Name: ".git/HEAD", Op: fsnotify.Create}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, relevantEvent(tt.event))
		})
	}
}
