// Package report renders graph contents and ingestion results as terminal
// tables.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/cricket-graph/internal/aggregator"
	"github.com/pable/cricket-graph/internal/graph"
	"github.com/pable/cricket-graph/internal/ingest"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

// PrintCounts prints node counts per label and relationship counts per type,
// each sorted by name.
func PrintCounts(w io.Writer, c graph.Counts) {
	fmt.Fprintf(w, "\n--- Nodes ---\n\n")
	printCountTable(w, "LABEL", c.Nodes)
	fmt.Fprintf(w, "\n--- Relationships ---\n\n")
	printCountTable(w, "TYPE", c.Relationships)
}

func printCountTable(w io.Writer, header string, counts map[string]int) {
	names := make([]string, 0, len(counts))
	total := 0
	for name, n := range counts {
		names = append(names, name)
		total += n
	}
	sort.Strings(names)

	table := newTable(w)
	table.Header(header, "COUNT")
	for _, name := range names {
		table.Append(name, strconv.Itoa(counts[name]))
	}
	table.Footer("TOTAL", strconv.Itoa(total))
	table.Render()
}

// PrintPlayer prints the batting and bowling figures of one player followed
// by any other stored properties.
func PrintPlayer(w io.Writer, name string, props graph.Properties) {
	s, err := aggregator.StatsFromProperties(name, props)
	if err != nil {
		fmt.Fprintf(w, "warning: %v\n", err)
	}

	fmt.Fprintf(w, "\n=== %s ===\n\n", name)

	bat := newTable(w)
	bat.Header("RUNS", "BALLS", "SR")
	bat.Append(strconv.Itoa(s.RunsScored), strconv.Itoa(s.BallsFaced), rate(s.StrikeRate()))
	bat.Render()
	fmt.Fprintln(w)

	bowl := newTable(w)
	bowl.Header("BALLS", "OVERS", "WKTS", "RUNS", "ECON")
	bowl.Append(
		strconv.Itoa(s.BallsBowled),
		Overs(s.BallsBowled),
		strconv.Itoa(s.Wickets),
		strconv.Itoa(s.RunsConceded),
		rate(s.EconomyRate()),
	)
	bowl.Render()

	statProps := map[string]bool{
		"name":                      true,
		aggregator.PropRunsScored:   true,
		aggregator.PropBallsFaced:   true,
		aggregator.PropStrikeRate:   true,
		aggregator.PropBallsBowled:  true,
		aggregator.PropWickets:      true,
		aggregator.PropRunsConceded: true,
		aggregator.PropEconomyRate:  true,
	}
	var rest []string
	for _, k := range props.Names() {
		if !statProps[k] {
			rest = append(rest, k)
		}
	}
	if len(rest) == 0 {
		return
	}
	fmt.Fprintf(w, "\n--- Other properties ---\n\n")
	other := newTable(w)
	other.Header("PROPERTY", "VALUE")
	for _, k := range rest {
		other.Append(k, fmt.Sprint(props[k]))
	}
	other.Render()
}

// Overs renders a ball count in cricket notation: 14 balls is "2.2".
func Overs(balls int) string {
	return fmt.Sprintf("%d.%d", balls/6, balls%6)
}

func rate(v float64, ok bool) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

// PrintResults prints one row per ingestion pass.
func PrintResults(w io.Writer, results ...ingest.Result) {
	table := newTable(w)
	table.Header("KIND", "TOTAL", "OK", "FAILED", "ELAPSED", "RATE/S")
	for _, r := range results {
		table.Append(
			r.Kind,
			strconv.Itoa(r.Total),
			strconv.Itoa(r.Succeeded),
			strconv.Itoa(r.Failed),
			r.Elapsed.Round(1e6).String(),
			fmt.Sprintf("%.1f", r.Rate()),
		)
	}
	table.Render()
}

// PrintQuery prints the result of a raw query.
func PrintQuery(w io.Writer, cols []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}
	table := newTable(w)
	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)
	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(w, "\n(%d rows)\n", len(rows))
}
