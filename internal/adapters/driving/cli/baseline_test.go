package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
)

func TestBaselineCmd_Use(t *testing.T) {
	assert.Equal(t, "baseline", baselineCmd.Use)
	assert.Equal(t, "create [name]", baselineCreateCmd.Use)
	assert.Equal(t, "list", baselineListCmd.Use)
	assert.Equal(t, "diff [older] [newer]", baselineDiffCmd.Use)
	assert.Equal(t, "show [name]", baselineShowCmd.Use)
}

func TestBaselineCreateCmd_PrintsFrozenState(t *testing.T) {
	_, _, _, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"baseline", "create", "REL-1.0"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "Baseline REL-1.0 frozen at abc1234")
	assert.Contains(t, out, "manifest hash: deadbeef")
}

func TestBaselineCreateCmd_DuplicateName(t *testing.T) {
	_, _, baselines, cleanup := setupTestServices()
	defer cleanup()
	baselines.err = domain.ErrDuplicateBaseline

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"baseline", "create", "REL-1.0"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `baseline "REL-1.0" already exists`)
}

func TestBaselineListCmd_Empty(t *testing.T) {
	_, _, _, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"baseline", "list"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "No baselines.")
}

func TestBaselineListCmd_RendersRows(t *testing.T) {
	_, _, baselines, cleanup := setupTestServices()
	defer cleanup()
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	baselines.baselines = []domain.Baseline{
		{Name: "REL-1.0", CommitSHA: "abc1234", CreatedAt: created},
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"baseline", "list"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "REL-1.0  abc1234  2026-03-14 09:30")
}

func TestBaselineDiffCmd_PrintsSections(t *testing.T) {
	_, _, baselines, cleanup := setupTestServices()
	defer cleanup()
	baselines.diff = &domain.BaselineDiff{
		Added:     []string{"Y10K-PAY-CORE-API-001"},
		Removed:   []string{"Y10K-PAY-CORE-TST-001"},
		Changed:   []string{"Y10K-PAY-CORE-LL-003"},
		Unchanged: []string{"Y10K-PAY-CORE-HL-001", "Y10K-PAY-CORE-CMP-010"},
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"baseline", "diff", "REL-1.0", "REL-1.1"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "added: 1\n  Y10K-PAY-CORE-API-001")
	assert.Contains(t, out, "removed: 1\n  Y10K-PAY-CORE-TST-001")
	assert.Contains(t, out, "changed: 1\n  Y10K-PAY-CORE-LL-003")
	assert.Contains(t, out, "unchanged: 2")
}

func TestBaselineShowCmd_PrintsManifest(t *testing.T) {
	_, _, baselines, cleanup := setupTestServices()
	defer cleanup()
	baselines.manifest = []byte(`{"Name":"REL-1.0"}`)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"baseline", "show", "REL-1.0"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), `{"Name":"REL-1.0"}`)
}

func TestBaselineShowCmd_NotFound(t *testing.T) {
	_, _, baselines, cleanup := setupTestServices()
	defer cleanup()
	baselines.err = domain.ErrNotFound

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"baseline", "show", "missing"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "show baseline")
}
