package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vintner-labs/vinsearch/internal/core/domain"
	"github.com/vintner-labs/vinsearch/internal/logger"
)

var (
	ingestForce bool
	ingestWatch bool
)

// watchDebounce batches bursts of file events into one ingest run.
const watchDebounce = 2 * time.Second

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index new and modified documents",
	Long: `Diffs the document directory against the index manifest and
processes new and modified documents. Unchanged documents are skipped.
With --watch, keeps running and re-ingests when files change.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestForce, "force", "f", false, "reindex every document regardless of fingerprint")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "watch for file changes and re-ingest")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := context.Background()

	if err := ingestOnce(ctx, cmd, ingestForce); err != nil {
		return err
	}

	if !ingestWatch {
		return nil
	}
	return watchAndIngest(ctx, cmd)
}

func ingestOnce(ctx context.Context, cmd *cobra.Command, force bool) error {
	summary, err := ingestService.Ingest(ctx, force)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Run %s complete:\n", summary.RunID)
	cmd.Printf("  Processed: %d\n", summary.DocumentsProcessed)
	cmd.Printf("  Skipped:   %d\n", summary.DocumentsSkipped)
	cmd.Printf("  Deleted:   %d\n", summary.DocumentsDeleted)
	cmd.Printf("  Chunks:    %d\n", summary.ChunksAdded)
	return nil
}

// watchAndIngest blocks on the source watcher and runs a debounced
// incremental ingest after each burst of changes. Returns when
// interrupted.
func watchAndIngest(ctx context.Context, cmd *cobra.Command) error {
	if sourceWatcher == nil {
		return errors.New("source watcher not configured")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	changes, err := sourceWatcher.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}

	cmd.Println("Watching for changes. Press Ctrl+C to stop.")

	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			cmd.Println("Stopped watching.")
			return nil

		case path, ok := <-changes:
			if !ok {
				return nil
			}
			logger.Debug("Change detected: %s", path)
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				pending = timer.C
			} else {
				timer.Reset(watchDebounce)
			}

		case <-pending:
			timer = nil
			pending = nil
			if err := ingestOnce(ctx, cmd, false); err != nil {
				if errors.Is(err, domain.ErrIngestInProgress) {
					continue
				}
				logger.Error("Ingest after change failed: %v", err)
			}
		}
	}
}
