package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/cricket-graph/internal/graph"
	"github.com/pable/cricket-graph/internal/mapper"
	"github.com/pable/cricket-graph/internal/report"
)

var playerCmd = &cobra.Command{
	Use:   "player <name> [<name>...]",
	Short: "Show batting and bowling figures for players",
	Long: `Show the accumulated batting and bowling figures of one or more players.

Names must match the graph exactly, e.g. "V Kohli".`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlayer,
}

func runPlayer(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	for _, name := range args {
		if err := printPlayer(cmd, store, name); err != nil {
			return err
		}
	}
	return nil
}

func printPlayer(cmd *cobra.Command, store graph.Store, name string) error {
	props, ok, err := store.NodeProperties(cmd.Context(), mapper.PlayerNode(name))
	if err != nil {
		return fmt.Errorf("player %q: %w", name, err)
	}
	if !ok {
		cWarn.Fprintf(os.Stderr, "no player named %q\n", name)
		return nil
	}
	report.PrintPlayer(os.Stdout, name, props)
	return nil
}
