package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/cricket-graph/internal/config"
)

var dropForce bool

// dropCmd deletes the SQLite graph database file.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the graph database",
	Long:  "Permanently delete the SQLite graph database. All loaded matches, deliveries and player figures will be lost. Re-run ingest afterwards to rebuild.",
	Args:  cobra.NoArgs,
	RunE:  runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
}

func runDrop(cmd *cobra.Command, args []string) error {
	if cfg.Store != config.StoreSQLite {
		return fmt.Errorf("drop only deletes the local SQLite database; clear Neo4j with its own tools")
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", cfg.DB)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	for _, path := range []string{cfg.DB, cfg.DB + "-wal", cfg.DB + "-shm"} {
		err := os.Remove(path)
		if err == nil {
			continue
		}
		if !os.IsNotExist(err) {
			return fmt.Errorf("remove database: %w", err)
		}
		if path == cfg.DB {
			fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
			return nil
		}
	}
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", cfg.DB)
	return nil
}
