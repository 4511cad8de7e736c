package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/cricket-graph/internal/graph"
	"github.com/pable/cricket-graph/internal/ingest"
	"github.com/pable/cricket-graph/internal/mapper"
	"github.com/pable/cricket-graph/internal/report"
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Read input files and report what would be loaded",
	Long: `Parse match and delivery inputs without touching the graph.

Prints how many records were read and rejected, and the number of nodes and
relationships the inputs describe once merged.`,
	Args: cobra.NoArgs,
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVar(&matchesPath, "matches", "", "match metadata CSV")
	parseCmd.Flags().StringVar(&deliveriesPath, "deliveries", "", "ball-by-ball CSV")
	parseCmd.Flags().StringSliceVar(&cricsheetPaths, "cricsheet", nil, "cricsheet JSON files or directories")
}

func runParse(cmd *cobra.Command, _ []string) error {
	in, err := readInputs(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Read %d matches and %d deliveries (%d rows rejected).\n",
		len(in.matches), len(in.deliveries), in.rejected)

	mp := mapper.New()
	if mp.WicketKeying, err = mapper.ParseWicketKeying(cfg.Graph.WicketKeying); err != nil {
		return err
	}

	// Distinct identities per label and per relationship type.
	nodes := make(map[string]map[string]bool)
	rels := make(map[string]map[string]bool)
	addNode := func(n graph.NodeRef) {
		if nodes[n.Label] == nil {
			nodes[n.Label] = make(map[string]bool)
		}
		nodes[n.Label][n.KeyString()] = true
	}
	collect := func(d graph.Delta) {
		for _, op := range d.Ops {
			switch op := op.(type) {
			case graph.NodeUpsert:
				addNode(op.Node)
			case graph.PropertySet:
				addNode(op.Node)
			case graph.RelationshipUpsert:
				addNode(op.Rel.From)
				addNode(op.Rel.To)
				if rels[op.Rel.Type] == nil {
					rels[op.Rel.Type] = make(map[string]bool)
				}
				rels[op.Rel.Type][op.Rel.String()] = true
			}
		}
	}
	for _, m := range in.matches {
		for _, d := range mp.MatchDeltas(m) {
			collect(d)
		}
	}
	for _, d := range ingest.SortDeliveries(in.deliveries) {
		collect(mp.DeliveryWithWicket(d))
	}

	counts := graph.Counts{Nodes: make(map[string]int), Relationships: make(map[string]int)}
	for label, ids := range nodes {
		counts.Nodes[label] = len(ids)
	}
	for typ, ids := range rels {
		counts.Relationships[typ] = len(ids)
	}
	report.PrintCounts(os.Stdout, counts)
	return nil
}
