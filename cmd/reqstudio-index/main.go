// Command reqstudio-index maintains and queries the semantic index of a
// Git-backed requirements corpus.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Y10K-tech/reqstudio/internal/adapters/driven/config/file"
	"github.com/Y10K-tech/reqstudio/internal/adapters/driven/embedding/ollama"
	"github.com/Y10K-tech/reqstudio/internal/adapters/driven/embedding/openai"
	"github.com/Y10K-tech/reqstudio/internal/adapters/driven/git"
	"github.com/Y10K-tech/reqstudio/internal/adapters/driven/storage/sqlite"
	"github.com/Y10K-tech/reqstudio/internal/adapters/driving/cli"
	"github.com/Y10K-tech/reqstudio/internal/core/ports/driven"
	"github.com/Y10K-tech/reqstudio/internal/core/services"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := file.LoadConfig("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	root := cfg.Repository.Root
	if root == "" {
		root, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
	}
	source := git.NewSource(root)

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	embedder, err := newEmbedder(cfg.Embedding)
	if err != nil {
		return err
	}
	if embedder != nil {
		defer embedder.Close() //nolint:errcheck
	}

	branch := cfg.Repository.DefaultBranch

	indexer := services.NewIndexerService(
		source,
		store.DocumentStore(),
		store.ItemStore(),
		store.ScanStateStore(),
		embedder,
		file.NewPolicy(cfg.Policy),
		services.IndexerConfig{
			Workers:       cfg.Scan.Workers,
			DefaultBranch: branch,
		},
	)
	query := services.NewSearchService(source, store.DocumentStore(), store.ItemStore(), embedder, branch)
	baselines := services.NewBaselineManager(
		source, store.DocumentStore(), store.ItemStore(), store.BaselineStore(), branch)

	cli.Initialize(indexer, query, baselines)
	cli.SetHTTPAddr(cfg.HTTP.Addr)
	cli.SetVersion(version)
	return cli.Execute()
}

// newEmbedder builds the configured embedding backend, or nil when
// embedding is disabled.
func newEmbedder(cfg file.EmbeddingConfig) (driven.EmbeddingService, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	switch cfg.Provider {
	case "", "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			Dimensions:        cfg.Dimensions,
			BatchSize:         cfg.BatchSize,
			Timeout:           timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}), nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embedding provider openai requires api_key")
		}
		// The config defaults target ollama; treat them as unset here so
		// the adapter applies its own.
		baseURL, model, dims := cfg.BaseURL, cfg.Model, cfg.Dimensions
		if baseURL == "http://localhost:11434" {
			baseURL = ""
		}
		if model == "nomic-embed-text" {
			model, dims = "", 0
		}
		return openai.NewEmbeddingService(openai.Config{
			APIKey:            cfg.APIKey,
			BaseURL:           baseURL,
			Model:             model,
			Dimensions:        dims,
			BatchSize:         cfg.BatchSize,
			Timeout:           timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
