// Package cli implements the command-line interface: corpus ingestion,
// retrieval queries and evaluation runs. Services are wired in by the
// composition root before Execute.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/retrieva/internal/core/ports/driving"
	"github.com/custodia-labs/retrieva/internal/logger"
)

// version is overridden at build time via ldflags.
var version = "dev"

// Services used by the commands, set through SetServices.
var (
	retrievalService  driving.RetrievalService
	evaluationService driving.EvaluationService
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "retrieva",
	Short: "Hybrid retrieval over code and markup corpora",
	Long: `retrieva retrieves short code/markup documents with hybrid search:
BM25 keyword matching and vector similarity run in parallel, their scores
are fused, optionally reranked by a pairwise scorer, and enriched with
document metadata.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging to stderr")
}

// SetServices wires the services the commands depend on.
func SetServices(retrieval driving.RetrievalService, evaluation driving.EvaluationService) {
	retrievalService = retrieval
	evaluationService = evaluation
}

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
