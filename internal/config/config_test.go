package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// load parses args into a fresh Config and runs Load from dir.
func load(t *testing.T, dir string, args ...string) (Config, error) {
	t.Helper()
	t.Chdir(dir)

	cfg := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	err := Load(viper.New(), fs)
	return cfg, err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := load(t, t.TempDir())
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, 50, cfg.Ingest.ProgressMatches)
	assert.Equal(t, 200, cfg.Ingest.ProgressDeliveries)
	assert.Equal(t, "delivery", cfg.Graph.WicketKeying)
	assert.True(t, cfg.Stats.TrackRunsConceded)
	assert.False(t, cfg.Ingest.Atomic)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "cricgraph.yaml", `
store: neo4j
neo4j-uri: bolt://file:7687
log-level: debug
ingest:
  workers: 4
  atomic: true
stats:
  track-runs-conceded: false
`)

	t.Run("file", func(t *testing.T) {
		cfg, err := load(t, dir, "--config", cfgPath)
		require.NoError(t, err)
		assert.Equal(t, StoreNeo4j, cfg.Store)
		assert.Equal(t, "bolt://file:7687", cfg.Neo4j.URI)
		assert.Equal(t, 4, cfg.Ingest.Workers)
		assert.True(t, cfg.Ingest.Atomic)
		assert.False(t, cfg.Stats.TrackRunsConceded)
	})

	t.Run("env beats file", func(t *testing.T) {
		t.Setenv("CRICGRAPH_NEO4J_URI", "bolt://env:7687")
		t.Setenv("CRICGRAPH_INGEST_WORKERS", "2")
		cfg, err := load(t, dir, "--config", cfgPath)
		require.NoError(t, err)
		assert.Equal(t, "bolt://env:7687", cfg.Neo4j.URI)
		assert.Equal(t, 2, cfg.Ingest.Workers)
	})

	t.Run("flag beats env", func(t *testing.T) {
		t.Setenv("CRICGRAPH_NEO4J_URI", "bolt://env:7687")
		cfg, err := load(t, dir, "--config", cfgPath, "--neo4j-uri", "bolt://flag:7687")
		require.NoError(t, err)
		assert.Equal(t, "bolt://flag:7687", cfg.Neo4j.URI)
	})
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "CRICGRAPH_NEO4J_PASSWORD=from-dotenv\n")
	t.Cleanup(func() { os.Unsetenv("CRICGRAPH_NEO4J_PASSWORD") })

	cfg, err := load(t, dir)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Neo4j.Password)
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "bad.yaml", "stroe: neo4j\n")

	_, err := load(t, dir, "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stroe")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"neo4j", func(c *Config) { c.Store = StoreNeo4j }, true},
		{"unknown store", func(c *Config) { c.Store = "postgres" }, false},
		{"no db path", func(c *Config) { c.DB = "" }, false},
		{"neo4j without uri", func(c *Config) { c.Store = StoreNeo4j; c.Neo4j.URI = "" }, false},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, false},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, false},
		{"zero workers", func(c *Config) { c.Ingest.Workers = 0 }, false},
		{"zero progress", func(c *Config) { c.Ingest.ProgressDeliveries = 0 }, false},
		{"dismissal keying", func(c *Config) { c.Graph.WicketKeying = "dismissal" }, true},
		{"bad keying", func(c *Config) { c.Graph.WicketKeying = "ball" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
