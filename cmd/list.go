package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/cricket-graph/internal/graph"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list <label>",
	Short: "List stored nodes of one label",
	Long: `List nodes of one label with their properties, ordered by identity.

Labels: Season, Venue, City, Umpire, Team, Player, Match, Innings, Delivery, Wicket.`,
	Example: "  cricgraph list Match --limit 20",
	Args:    cobra.ExactArgs(1),
	RunE:    runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 50, "maximum nodes to print (0 for all)")
}

func runList(cmd *cobra.Command, args []string) error {
	label := args[0]
	if !graph.ValidIdentifier(label) {
		return fmt.Errorf("invalid label %q", label)
	}
	db, err := openSQLite()
	if err != nil {
		return err
	}
	defer db.Close()

	nodes, err := db.NodesOfLabel(cmd.Context(), label, listLimit)
	if err != nil {
		return fmt.Errorf("list %s: %w", label, err)
	}
	if len(nodes) == 0 {
		fmt.Fprintf(os.Stdout, "No %s nodes stored yet. Run 'cricgraph ingest' to add some.\n", label)
		return nil
	}

	for _, n := range nodes {
		cHeader.Fprintf(os.Stdout, "%s", n.Key)
		var parts []string
		for _, k := range n.Props.Names() {
			parts = append(parts, fmt.Sprintf("%s=%v", k, n.Props[k]))
		}
		cMuted.Fprintf(os.Stdout, "  %s\n", strings.Join(parts, " "))
	}
	return nil
}
