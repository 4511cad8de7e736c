package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/cricket-graph/internal/report"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the graph database",
	Long: `Run an arbitrary SQL query against the SQLite graph database and print results as a table.

Schema overview:
  nodes(label, key, props)
    key is the canonical identity, e.g. 'name=V Kohli' or 'match_id=1|number=2'
    props is a JSON object holding every property, key properties included
  relationships(from_label, from_key, type, to_label, to_key, tag, props)

Example:
  cricgraph sql "SELECT json_extract(props, '$.name') AS player,
                        json_extract(props, '$.runs_scored') AS runs
                 FROM nodes WHERE label = 'Player' ORDER BY runs DESC LIMIT 10"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := openSQLite()
	if err != nil {
		return err
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(cmd.Context(), query)
	if err != nil {
		return err
	}
	report.PrintQuery(os.Stdout, cols, rows)
	return nil
}
