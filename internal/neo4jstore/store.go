// Package neo4jstore implements graph.Store on a Neo4j database through the
// official Go driver. Every Apply call runs as one managed write transaction.
package neo4jstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/pable/cricket-graph/internal/graph"
)

// Config holds connection settings.
type Config struct {
	URI      string
	Username string
	Password string
	Database string // "" selects the server default
}

// Store is a graph.Store backed by Neo4j.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
}

var _ graph.Store = (*Store)(nil)

// Open connects to Neo4j and verifies the server is reachable.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("neo4j connectivity %s: %w", cfg.URI, err)
	}
	return &Store{driver: driver, database: cfg.Database}, nil
}

// Close releases the driver.
func (s *Store) Close() error {
	return s.driver.Close(context.Background())
}

func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

// EnsureConstraints declares a uniqueness constraint for every label → key
// property pair. Existing constraints are left alone.
func (s *Store) EnsureConstraints(ctx context.Context, keys map[string]string) error {
	labels := make([]string, 0, len(keys))
	for label := range keys {
		if !graph.ValidIdentifier(label) || !graph.ValidIdentifier(keys[label]) {
			return fmt.Errorf("invalid constraint %s.%s", label, keys[label])
		}
		labels = append(labels, label)
	}
	sort.Strings(labels)

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)
	for _, label := range labels {
		res, err := session.Run(ctx, RenderUniqueConstraint(label, keys[label]), nil)
		if err == nil {
			_, err = res.Consume(ctx)
		}
		if err != nil {
			return fmt.Errorf("constraint on %s: %w", label, err)
		}
	}
	return nil
}

// Apply checks requirements and merges the ops of all deltas in one write
// transaction.
func (s *Store) Apply(ctx context.Context, deltas ...graph.Delta) error {
	type step struct {
		stmt Statement
		req  graph.Requirement // nil for ops
	}
	var steps []step
	for _, d := range deltas {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("%s: %w", d.Kind, err)
		}
		for _, req := range d.Requires {
			stmt, err := RenderRequirement(req)
			if err != nil {
				return fmt.Errorf("%s: %w", d.Kind, err)
			}
			steps = append(steps, step{stmt: stmt, req: req})
		}
		for _, op := range d.Ops {
			stmt, err := RenderOp(op)
			if err != nil {
				return fmt.Errorf("%s: %w", d.Kind, err)
			}
			steps = append(steps, step{stmt: stmt})
		}
	}
	if len(steps) == 0 {
		return nil
	}

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, st := range steps {
			res, err := tx.Run(ctx, st.stmt.Query, st.stmt.Params)
			if err != nil {
				return nil, err
			}
			if st.req == nil {
				if _, err := res.Consume(ctx); err != nil {
					return nil, err
				}
				continue
			}
			rec, err := res.Single(ctx)
			if err != nil {
				return nil, err
			}
			n, _, err := neo4j.GetRecordValue[int64](rec, countColumn)
			if err != nil {
				return nil, err
			}
			if n == 0 {
				return nil, &graph.DependencyError{Requirement: st.req}
			}
		}
		return nil, nil
	})
	return err
}

// NodeProperties returns all properties of a node.
func (s *Store) NodeProperties(ctx context.Context, node graph.NodeRef) (graph.Properties, bool, error) {
	stmt := RenderNodeProperties(node)
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	props, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, stmt.Query, stmt.Params)
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, res.Err()
		}
		v, _, err := neo4j.GetRecordValue[map[string]any](res.Record(), "props")
		return v, err
	})
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", node, err)
	}
	if props == nil {
		return nil, false, nil
	}
	return graph.Properties(props.(map[string]any)), true, nil
}

// Counts returns node counts per label and relationship counts per type.
func (s *Store) Counts(ctx context.Context) (graph.Counts, error) {
	out := graph.Counts{Nodes: make(map[string]int), Relationships: make(map[string]int)}
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	queries := []struct {
		query string
		into  map[string]int
	}{
		{"MATCH (n) UNWIND labels(n) AS name RETURN name, count(*) AS c", out.Nodes},
		{"MATCH ()-[r]->() RETURN type(r) AS name, count(r) AS c", out.Relationships},
	}
	for _, q := range queries {
		_, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			res, err := tx.Run(ctx, q.query, nil)
			if err != nil {
				return nil, err
			}
			records, err := res.Collect(ctx)
			if err != nil {
				return nil, err
			}
			for _, rec := range records {
				name, _, err := neo4j.GetRecordValue[string](rec, "name")
				if err != nil {
					return nil, err
				}
				n, _, err := neo4j.GetRecordValue[int64](rec, countColumn)
				if err != nil {
					return nil, err
				}
				q.into[name] = int(n)
			}
			return nil, nil
		})
		if err != nil {
			return out, err
		}
	}
	return out, nil
}
