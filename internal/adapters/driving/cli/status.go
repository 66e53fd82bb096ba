package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vintner-labs/vinsearch/internal/core/domain"
)

var statusDetailed bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index status",
	Long: `Summarises the indexed corpus from the manifest: document and
chunk counts, last update time, and query cache hit rate.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusDetailed, "detailed", false, "list chunk counts per document")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	status, err := ingestService.Status(context.Background())
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}

	cmd.Println("Index status:")
	cmd.Printf("  Documents: %d\n", status.DocumentsIndexed)
	cmd.Printf("  Chunks:    %d\n", status.TotalChunks)
	if !status.LastUpdated.IsZero() {
		cmd.Printf("  Updated:   %s\n", status.LastUpdated.Format("2006-01-02 15:04:05"))
	}

	if reporter, ok := retrievalService.(interface{ CacheStats() domain.CacheStats }); ok {
		stats := reporter.CacheStats()
		cmd.Printf("  Cache:     %d/%d entries, %.0f%% hit rate\n",
			stats.Size, stats.Capacity, stats.HitRate()*100)
	}

	if statusDetailed && len(status.ChunkCounts) > 0 {
		paths := make([]string, 0, len(status.ChunkCounts))
		for path := range status.ChunkCounts {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		cmd.Println()
		cmd.Println("Documents:")
		for _, path := range paths {
			cmd.Printf("  %s (%d chunks)\n", path, status.ChunkCounts[path])
		}
	}

	return nil
}
