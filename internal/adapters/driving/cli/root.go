// Package cli implements the vinsearch command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/vintner-labs/vinsearch/internal/core/ports/driven"
	"github.com/vintner-labs/vinsearch/internal/core/ports/driving"
	"github.com/vintner-labs/vinsearch/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services are injected by the composition root before Execute runs.
var (
	retrievalService driving.RetrievalService
	ingestService    driving.IngestService
	configStore      driven.ConfigStore
	sourceWatcher    driven.SourceWatcher
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "vinsearch",
	Short: "Hybrid retrieval over a wine document corpus",
	Long: `Vinsearch indexes a directory of wine documents and answers
queries with hybrid retrieval: BM25 keyword search and vector
similarity, merged with rank fusion and deduplicated.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// SetServices injects the driving services. Call before Execute.
func SetServices(
	retrieval driving.RetrievalService,
	ingest driving.IngestService,
	config driven.ConfigStore,
	watcher driven.SourceWatcher,
) {
	retrievalService = retrieval
	ingestService = ingest
	configStore = config
	sourceWatcher = watcher
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
