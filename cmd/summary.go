package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/cricket-graph/internal/graph"
	"github.com/pable/cricket-graph/internal/report"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show node and relationship counts",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func runSummary(cmd *cobra.Command, _ []string) error {
	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()
	return printSummary(cmd, store)
}

func printSummary(cmd *cobra.Command, store graph.Store) error {
	counts, err := store.Counts(cmd.Context())
	if err != nil {
		return fmt.Errorf("count graph: %w", err)
	}
	if len(counts.Nodes) == 0 {
		fmt.Fprintln(os.Stdout, "The graph is empty. Run 'cricgraph ingest' first.")
		return nil
	}
	report.PrintCounts(os.Stdout, counts)
	return nil
}
