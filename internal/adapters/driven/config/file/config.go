package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultConfigDirName = ".reqstudio"
	DefaultConfigFile    = "config.toml"
)

// Config is the typed application configuration, stored as TOML in the
// reqstudio config directory.
type Config struct {
	Repository RepositoryConfig `toml:"repository"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	Scan       ScanConfig       `toml:"scan"`
	Policy     PolicyConfig     `toml:"policy"`
	HTTP       HTTPConfig       `toml:"http"`
}

// RepositoryConfig locates the requirements working tree.
type RepositoryConfig struct {
	// Root is the working tree path. Empty means the current directory.
	Root string `toml:"root"`

	// DefaultBranch is recorded on the repository row.
	DefaultBranch string `toml:"default_branch"`
}

// EmbeddingConfig configures the embedding service.
type EmbeddingConfig struct {
	// Enabled toggles embedding generation entirely.
	Enabled bool `toml:"enabled"`

	// Provider selects the embedding backend: "ollama" or "openai".
	Provider string `toml:"provider"`

	// BaseURL is the embedding API base URL.
	BaseURL string `toml:"base_url"`

	// APIKey authenticates against the openai provider. Unused by ollama.
	APIKey string `toml:"api_key"`

	// Model is the embedding model name.
	Model string `toml:"model"`

	// Dimensions is the full vector size the model produces.
	Dimensions int `toml:"dimensions"`

	// BatchSize caps documents per embedding batch.
	BatchSize int `toml:"batch_size"`

	// TimeoutSeconds is the per-call request timeout.
	TimeoutSeconds int `toml:"timeout_seconds"`

	// RequestsPerSecond throttles model calls. Zero means unlimited.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// ScanConfig tunes the indexing pipeline.
type ScanConfig struct {
	// Workers bounds document-level concurrency.
	Workers int `toml:"workers"`
}

// PolicyConfig declares per-type required front-matter fields, keyed by
// the identifier TYPE segment ("HL", "CMP", ...).
type PolicyConfig struct {
	RequiredFields map[string][]string `toml:"required_fields"`
}

// HTTPConfig configures the query API server.
type HTTPConfig struct {
	// Addr is the listen address for the serve command.
	Addr string `toml:"addr"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Repository: RepositoryConfig{
			DefaultBranch: "main",
		},
		Embedding: EmbeddingConfig{
			Enabled:        true,
			Provider:       "ollama",
			BaseURL:        "http://localhost:11434",
			Model:          "nomic-embed-text",
			Dimensions:     768,
			BatchSize:      32,
			TimeoutSeconds: 30,
		},
		Scan: ScanConfig{
			Workers: 4,
		},
		HTTP: HTTPConfig{
			Addr: "127.0.0.1:8787",
		},
	}
}

// ConfigDir returns the reqstudio config directory, creating it if
// needed. Defaults to ~/.reqstudio.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, DefaultConfigDirName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	return dir, nil
}

// LoadConfig reads the configuration from configDir, falling back to
// defaults for a missing file. Empty configDir means the default
// directory.
func LoadConfig(configDir string) (*Config, error) {
	if configDir == "" {
		var err error
		configDir, err = ConfigDir()
		if err != nil {
			return nil, err
		}
	}

	cfg := DefaultConfig()
	path := filepath.Join(configDir, DefaultConfigFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the configuration to configDir with restricted
// permissions.
func SaveConfig(configDir string, cfg *Config) error {
	if configDir == "" {
		var err error
		configDir, err = ConfigDir()
		if err != nil {
			return err
		}
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(configDir, DefaultConfigFile), data, 0600)
}
