package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/cricket-graph/internal/aggregator"
	"github.com/pable/cricket-graph/internal/ingest"
	"github.com/pable/cricket-graph/internal/mapper"
	"github.com/pable/cricket-graph/internal/metrics"
	"github.com/pable/cricket-graph/internal/report"
)

var (
	cOK   = color.New(color.FgGreen, color.Bold)
	cFail = color.New(color.FgRed, color.Bold)
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load match and delivery files into the graph",
	Long: `Load IPL match metadata and ball-by-ball deliveries into the graph.

Matches are written first, then deliveries in (match, innings, over, ball)
order. Rows that fail to parse and records that fail to write are logged and
skipped; the run carries on with the next record.

Inputs may be plain, .gz, .zst or .bz2 compressed. --cricsheet accepts
cricsheet JSON files or directories of them.`,
	Example: `  cricgraph ingest --matches IPL_Matches_2008_2022.csv --deliveries IPL_Ball-by-Ball_2008-2022.csv
  cricgraph ingest --store neo4j --cricsheet ./ipl_json/`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&matchesPath, "matches", "", "match metadata CSV")
	ingestCmd.Flags().StringVar(&deliveriesPath, "deliveries", "", "ball-by-ball CSV")
	ingestCmd.Flags().StringSliceVar(&cricsheetPaths, "cricsheet", nil, "cricsheet JSON files or directories")
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in, err := readInputs(ctx)
	if err != nil {
		return err
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		m = metrics.New()
		go serveMetrics(ctx, m)
	}

	mp := mapper.New()
	keying, err := mapper.ParseWicketKeying(cfg.Graph.WicketKeying)
	if err != nil {
		return err
	}
	mp.WicketKeying = keying

	stats := aggregator.NewUpdater(store, aggregator.Options{TrackRunsConceded: cfg.Stats.TrackRunsConceded})
	loader := ingest.NewLoader(store, mp, stats, log, ingest.Options{
		Atomic:             cfg.Ingest.Atomic,
		Workers:            cfg.Ingest.Workers,
		ProgressMatches:    cfg.Ingest.ProgressMatches,
		ProgressDeliveries: cfg.Ingest.ProgressDeliveries,
		Metrics:            m,
	})
	log.Info("Starting ingest",
		zap.String("run_id", loader.RunID()),
		zap.String("store", cfg.Store),
		zap.Int("matches", len(in.matches)),
		zap.Int("deliveries", len(in.deliveries)),
		zap.Int("rejected_rows", in.rejected))

	mr, dr, err := loader.Run(ctx, in.matches, in.deliveries)

	fmt.Fprintln(os.Stdout)
	report.PrintResults(os.Stdout, mr, dr)
	printOutcome(mr, dr, in.rejected)
	if err != nil {
		return fmt.Errorf("ingest interrupted: %w", err)
	}
	return nil
}

func printOutcome(mr, dr ingest.Result, rejected int) {
	failed := mr.Failed + dr.Failed
	if failed == 0 && rejected == 0 {
		cOK.Fprintln(os.Stdout, "All records loaded.")
		return
	}
	cFail.Fprintf(os.Stdout, "%d records failed to load, %d rows rejected while reading.\n", failed, rejected)
	cMuted.Fprintln(os.Stdout, "See the log for details.")
}

func serveMetrics(ctx context.Context, m *metrics.Metrics) {
	log.Info("Serving metrics", zap.String("addr", cfg.MetricsAddr))
	if err := m.Serve(ctx, cfg.MetricsAddr); err != nil {
		log.Error("Metrics server stopped", zap.Error(err))
	}
}
