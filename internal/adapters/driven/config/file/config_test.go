package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, "main", cfg.Repository.DefaultBranch)
	assert.True(t, cfg.Embedding.Enabled)
	assert.Equal(t, "http://localhost:11434", cfg.Embedding.BaseURL)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, 768, cfg.Embedding.Dimensions)
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.Equal(t, "127.0.0.1:8787", cfg.HTTP.Addr)
}

func TestSaveAndLoadConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Repository.Root = "/srv/requirements"
	cfg.Embedding.Model = "mxbai-embed-large"
	cfg.Embedding.RequestsPerSecond = 2.5
	cfg.Scan.Workers = 8
	cfg.Policy.RequiredFields = map[string][]string{
		"HL":  {"Owner", "Status"},
		"TST": {"Owner"},
	}

	require.NoError(t, SaveConfig(dir, cfg))

	loaded, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "/srv/requirements", loaded.Repository.Root)
	assert.Equal(t, "mxbai-embed-large", loaded.Embedding.Model)
	assert.Equal(t, 2.5, loaded.Embedding.RequestsPerSecond)
	assert.Equal(t, 8, loaded.Scan.Workers)
	assert.Equal(t, []string{"Owner", "Status"}, loaded.Policy.RequiredFields["HL"])
}

func TestSaveConfig_RestrictsPermissions(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, SaveConfig(dir, DefaultConfig()))

	info, err := os.Stat(filepath.Join(dir, DefaultConfigFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	content := "[embedding]\nmodel = \"custom-model\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(content), 0600))

	cfg, err := LoadConfig(dir)

	require.NoError(t, err)
	assert.Equal(t, "custom-model", cfg.Embedding.Model)
	// Untouched sections keep their defaults.
	assert.Equal(t, 768, cfg.Embedding.Dimensions)
	assert.Equal(t, "main", cfg.Repository.DefaultBranch)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte("not = [valid"), 0600))

	_, err := LoadConfig(dir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
