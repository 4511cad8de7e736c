package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pable/cricket-graph/internal/config"
	"github.com/pable/cricket-graph/internal/graph"
	"github.com/pable/cricket-graph/internal/logging"
	"github.com/pable/cricket-graph/internal/mapper"
	"github.com/pable/cricket-graph/internal/neo4jstore"
	"github.com/pable/cricket-graph/internal/storage"
)

var (
	cfg = config.Default()
	log = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "cricgraph",
	Short: "IPL match and ball-by-ball graph loader",
	Long: `Load IPL match records and ball-by-ball deliveries into a property graph.

Nodes are merged on their identity properties, so re-running a load is safe.
The graph lives in a local SQLite file by default, or in Neo4j with --store neo4j.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	log.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cfg.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(dropCmd)
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	if err := config.Load(viper.New(), cmd.Flags()); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	l, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	log = l
	return nil
}

// openStore connects to the configured backend. On Neo4j it also declares
// the uniqueness constraints that back MERGE.
func openStore(ctx context.Context) (graph.Store, error) {
	switch cfg.Store {
	case config.StoreNeo4j:
		s, err := neo4jstore.Open(ctx, neo4jstore.Config{
			URI:      cfg.Neo4j.URI,
			Username: cfg.Neo4j.User,
			Password: cfg.Neo4j.Password,
			Database: cfg.Neo4j.Database,
		})
		if err != nil {
			return nil, err
		}
		if err := s.EnsureConstraints(ctx, mapper.UniqueKeys); err != nil {
			s.Close()
			return nil, fmt.Errorf("ensure constraints: %w", err)
		}
		log.Debug("Connected to Neo4j", zap.String("uri", cfg.Neo4j.URI))
		return s, nil
	default:
		db, err := openSQLite()
		if err != nil {
			return nil, err
		}
		return db, nil
	}
}

// openSQLite opens the local database for commands that only work there.
func openSQLite() (*storage.DB, error) {
	if cfg.Store != config.StoreSQLite {
		return nil, fmt.Errorf("this command needs --store %s", config.StoreSQLite)
	}
	db, err := storage.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	log.Debug("Opened database", zap.String("path", cfg.DB))
	return db, nil
}
