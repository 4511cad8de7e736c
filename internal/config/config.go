// Package config holds the runtime settings of cricgraph. Values come from
// command-line flags, a YAML config file, CRICGRAPH_* environment variables
// and an optional .env file. Explicit flags win over the environment, which
// wins over the config file, which wins over flag defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/pable/cricket-graph/internal/mapper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CRICGRAPH"

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreNeo4j  = "neo4j"
)

// Config is the full set of settings.
type Config struct {
	ConfigFile string

	Store string
	DB    string
	Neo4j Neo4j

	LogLevel    string
	LogFormat   string
	MetricsAddr string

	Ingest Ingest
	Graph  Graph
	Stats  Stats
}

// Neo4j holds the connection settings of the neo4j store.
type Neo4j struct {
	URI      string
	User     string
	Password string
	Database string
}

// Ingest tunes the loader.
type Ingest struct {
	// Atomic applies the four match deltas in one transaction.
	Atomic             bool
	Workers            int
	ProgressMatches    int
	ProgressDeliveries int
}

// Graph holds graph mapping choices.
type Graph struct {
	WicketKeying string
}

// Stats tunes the player statistics rule.
type Stats struct {
	TrackRunsConceded bool
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Store:     StoreSQLite,
		DB:        "cricket.db",
		Neo4j:     Neo4j{URI: "neo4j://localhost:7687", User: "neo4j"},
		LogLevel:  "info",
		LogFormat: "console",
		Ingest: Ingest{
			Workers:            1,
			ProgressMatches:    50,
			ProgressDeliveries: 200,
		},
		Graph: Graph{WicketKeying: string(mapper.WicketByDelivery)},
		Stats: Stats{TrackRunsConceded: true},
	}
}

// RegisterFlags binds every setting to a flag on fs, using the current values
// of c as defaults.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "path to a YAML config file")
	fs.StringVar(&c.Store, "store", c.Store, "graph store backend: sqlite or neo4j")
	fs.StringVar(&c.DB, "db", c.DB, "path to the SQLite database")
	fs.StringVar(&c.Neo4j.URI, "neo4j-uri", c.Neo4j.URI, "Neo4j connection URI")
	fs.StringVar(&c.Neo4j.User, "neo4j-user", c.Neo4j.User, "Neo4j user")
	fs.StringVar(&c.Neo4j.Password, "neo4j-password", c.Neo4j.Password, "Neo4j password (prefer CRICGRAPH_NEO4J_PASSWORD)")
	fs.StringVar(&c.Neo4j.Database, "neo4j-database", c.Neo4j.Database, "Neo4j database (default: server default)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log format: console or json")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "serve Prometheus metrics on this address (e.g. :9090)")
	fs.BoolVar(&c.Ingest.Atomic, "ingest.atomic", c.Ingest.Atomic, "apply all writes of a match record in one transaction")
	fs.IntVar(&c.Ingest.Workers, "ingest.workers", c.Ingest.Workers, "parallel match workers, sharded by match id")
	fs.IntVar(&c.Ingest.ProgressMatches, "ingest.progress-matches", c.Ingest.ProgressMatches, "log progress every N matches")
	fs.IntVar(&c.Ingest.ProgressDeliveries, "ingest.progress-deliveries", c.Ingest.ProgressDeliveries, "log progress every N deliveries")
	fs.StringVar(&c.Graph.WicketKeying, "graph.wicket-keying", c.Graph.WicketKeying, "Wicket node identity: delivery or dismissal")
	fs.BoolVar(&c.Stats.TrackRunsConceded, "stats.track-runs-conceded", c.Stats.TrackRunsConceded, "accumulate runs conceded by bowlers")
}

// Load fills the flags in fs that were not set explicitly from the config
// file, the environment and a .env file in the working directory. Call it
// after fs has been parsed.
func Load(v *viper.Viper, fs *pflag.FlagSet) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	if err := v.BindPFlags(fs); err != nil {
		return err
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	validKeys := make(map[string]bool)
	fs.VisitAll(func(f *pflag.Flag) {
		validKeys[f.Name] = true
	})

	if c := v.GetString("config"); c != "" {
		v.SetConfigFile(c)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", c, err)
		}
		for _, key := range v.AllKeys() {
			if !validKeys[key] {
				return fmt.Errorf("invalid option in config file: %s", key)
			}
		}
	}

	var flagErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if flagErr != nil || f.Changed {
			return
		}
		if err := f.Value.Set(v.GetString(f.Name)); err != nil {
			flagErr = fmt.Errorf("%s: %w", f.Name, err)
		}
	})
	return flagErr
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Store {
	case StoreSQLite:
		if c.DB == "" {
			return errors.New("db: path required for the sqlite store")
		}
	case StoreNeo4j:
		if c.Neo4j.URI == "" {
			return errors.New("neo4j-uri: required for the neo4j store")
		}
	default:
		return fmt.Errorf("store: unknown backend %q (want %s or %s)", c.Store, StoreSQLite, StoreNeo4j)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log-level: %w", err)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log-format: unknown format %q", c.LogFormat)
	}
	if c.Ingest.Workers < 1 {
		return fmt.Errorf("ingest.workers: must be at least 1, got %d", c.Ingest.Workers)
	}
	if c.Ingest.ProgressMatches < 1 || c.Ingest.ProgressDeliveries < 1 {
		return errors.New("ingest.progress-*: intervals must be positive")
	}
	if _, err := mapper.ParseWicketKeying(c.Graph.WicketKeying); err != nil {
		return fmt.Errorf("graph.wicket-keying: %w", err)
	}
	return nil
}
