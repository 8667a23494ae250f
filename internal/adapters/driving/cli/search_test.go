package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
)

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"search"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_HasLimitFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "limit flag should exist")
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "20", flag.DefValue)
}

func TestSearchCmd_Executes(t *testing.T) {
	_, query, _, cleanup := setupTestServices()
	defer cleanup()
	query.results = []domain.SearchResult{
		{Identifier: "Y10K-PAY-CORE-HL-001", Title: "Card Authorization", Score: 0.91, Path: "docs/payments.md"},
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "card authorization"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Y10K-PAY-CORE-HL-001")
	assert.Contains(t, buf.String(), "docs/payments.md")
	assert.Equal(t, "card authorization", query.lastRequest.Query)
}

func TestSearchCmd_HybridFlag(t *testing.T) {
	_, query, _, cleanup := setupTestServices()
	defer cleanup()
	defer func() { searchHybrid = false; searchAlpha = 0.7 }()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "--hybrid", "--alpha", "0.5", "retry"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Equal(t, 1, query.hybridCalls)
	assert.InDelta(t, 0.5, query.lastRequest.Alpha, 1e-9)
}

func TestSearchCmd_FastFlagSelectsTruncated(t *testing.T) {
	_, query, _, cleanup := setupTestServices()
	defer cleanup()
	defer func() { searchTruncated = false }()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "--fast", "retry"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Equal(t, domain.DimensionTruncated, query.lastRequest.Dimension)
}

func TestSearchCmd_RejectsUnknownType(t *testing.T) {
	_, _, _, cleanup := setupTestServices()
	defer cleanup()
	defer func() { searchTypes = nil }()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"search", "--type", "XX", "retry"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown item type "XX"`)
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	_, query, _, cleanup := setupTestServices()
	defer cleanup()
	defer func() { searchJSON = false }()
	query.results = []domain.SearchResult{{Identifier: "Y10K-PAY-CORE-HL-001"}}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "--json", "card"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), `"Identifier": "Y10K-PAY-CORE-HL-001"`)
}

func TestParseTypes(t *testing.T) {
	types, err := parseTypes([]string{"hl", " TST "})
	require.NoError(t, err)
	assert.Equal(t, []domain.ItemType{domain.TypeHighLevel, domain.TypeTest}, types)

	_, err = parseTypes([]string{"nope"})
	assert.Error(t, err)
}
