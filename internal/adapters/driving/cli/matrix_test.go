package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
)

func TestMatrixCmd_Use(t *testing.T) {
	assert.Equal(t, "matrix", matrixCmd.Use)
}

func TestMatrixCmd_EmptyIndex(t *testing.T) {
	_, _, _, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"matrix"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "No requirements indexed.")
}

func TestMatrixCmd_RendersRows(t *testing.T) {
	_, query, _, cleanup := setupTestServices()
	defer cleanup()
	query.rows = []domain.MatrixRow{
		{
			Requirement: "Y10K-PAY-CORE-HL-001",
			Title:       "Card authorization",
			Components:  []string{"Y10K-PAY-CORE-CMP-010"},
			Tests:       []string{"Y10K-PAY-CORE-TST-001"},
			Commits:     []string{"0123456789abcdef0123456789abcdef01234567"},
		},
		{
			Requirement: "Y10K-PAY-CORE-LL-003",
			Title:       "Retry budget",
			Suspect:     true,
			Dangling:    []string{"Y10K-PAY-CORE-LL-999"},
		},
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"matrix"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "  Y10K-PAY-CORE-HL-001  Card authorization")
	assert.Contains(t, out, "implemented by: Y10K-PAY-CORE-CMP-010")
	assert.Contains(t, out, "verified by:    Y10K-PAY-CORE-TST-001")
	assert.Contains(t, out, "commits:        01234567\n")
	assert.Contains(t, out, "! Y10K-PAY-CORE-LL-003  Retry budget")
	assert.Contains(t, out, "dangling:       Y10K-PAY-CORE-LL-999")
}

func TestMatrixCmd_RejectsUnknownType(t *testing.T) {
	_, _, _, cleanup := setupTestServices()
	defer cleanup()
	defer func() { matrixTypes = nil }()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"matrix", "--type", "XX"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown item type "XX"`)
}

func TestShorten(t *testing.T) {
	in := []string{"0123456789abcdef", "abc"}
	assert.Equal(t, []string{"01234567", "abc"}, shorten(in))
}
