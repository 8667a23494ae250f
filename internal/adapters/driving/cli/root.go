// Package cli provides the cobra command-line interface.
// Commands talk to the core exclusively through the driving ports;
// wiring happens in the main package via Initialize.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/Y10K-tech/reqstudio/internal/core/ports/driving"
	"github.com/Y10K-tech/reqstudio/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services the commands run against, set by Initialize.
var (
	indexer         driving.Indexer
	queryService    driving.QueryService
	baselineService driving.BaselineService
)

var verboseFlag bool

// httpAddr is the configured serve address, set by SetHTTPAddr.
var httpAddr = "127.0.0.1:8787"

var rootCmd = &cobra.Command{
	Use:   "reqstudio-index",
	Short: "Semantic index over a Git-backed requirements corpus",
	Long: `reqstudio-index maintains a queryable index over the requirement
documents of a Git working tree: structured identifiers, traceability
links, embeddings and frozen baselines.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// Initialize wires the services the commands depend on.
func Initialize(idx driving.Indexer, query driving.QueryService, baseline driving.BaselineService) {
	indexer = idx
	queryService = query
	baselineService = baseline
}

// SetHTTPAddr sets the default listen address for the serve command.
func SetHTTPAddr(addr string) {
	if addr != "" {
		httpAddr = addr
	}
}

// SetVersion sets the version string printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
