package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Remove orphaned vector entries",
	Long: `Compares the vector store against the chunk store and deletes
vector entries whose chunks no longer exist. Orphans appear when an
earlier run was interrupted between deleting chunks and deleting their
vectors.`,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	removed, err := ingestService.Reconcile(context.Background())
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}

	if removed == 0 {
		cmd.Println("No orphaned vectors found.")
	} else {
		cmd.Printf("Removed %d orphaned vector entries.\n", removed)
	}
	return nil
}
