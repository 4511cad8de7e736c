package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pable/cricket-graph/internal/graph"
)

// Relationship is one stored relationship row.
type Relationship struct {
	FromLabel, FromKey string
	Type               string
	ToLabel, ToKey     string
	Tag                string
}

// NodeProperties returns all properties of a node. Integral JSON numbers are
// returned as int64, other numbers as float64.
func (db *DB) NodeProperties(ctx context.Context, node graph.NodeRef) (graph.Properties, bool, error) {
	var raw string
	err := db.conn.QueryRowContext(ctx,
		"SELECT props FROM nodes WHERE label = ? AND key = ?",
		node.Label, node.KeyString()).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	props, err := decodeProps(raw)
	if err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", node, err)
	}
	return props, true, nil
}

// Counts returns node counts per label and relationship counts per type.
func (db *DB) Counts(ctx context.Context) (graph.Counts, error) {
	out := graph.Counts{Nodes: make(map[string]int), Relationships: make(map[string]int)}
	if err := db.groupCount(ctx, "SELECT label, COUNT(1) FROM nodes GROUP BY label", out.Nodes); err != nil {
		return out, err
	}
	if err := db.groupCount(ctx, "SELECT type, COUNT(1) FROM relationships GROUP BY type", out.Relationships); err != nil {
		return out, err
	}
	return out, nil
}

func (db *DB) groupCount(ctx context.Context, query string, into map[string]int) error {
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return err
		}
		into[name] = n
	}
	return rows.Err()
}

// CountNodes returns the number of nodes carrying label.
func (db *DB) CountNodes(ctx context.Context, label string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(1) FROM nodes WHERE label = ?", label).Scan(&n)
	return n, err
}

// Node is one stored node row.
type Node struct {
	Label string
	Key   string
	Props graph.Properties
}

// NodesOfLabel returns up to limit nodes carrying label ordered by key.
// limit <= 0 returns every node.
func (db *DB) NodesOfLabel(ctx context.Context, label string, limit int) ([]Node, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.QueryContext(ctx,
		"SELECT label, key, props FROM nodes WHERE label = ? ORDER BY key LIMIT ?", label, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Node
	for rows.Next() {
		var n Node
		var raw string
		if err := rows.Scan(&n.Label, &n.Key, &raw); err != nil {
			return nil, err
		}
		if n.Props, err = decodeProps(raw); err != nil {
			return nil, fmt.Errorf("decode %s{%s}: %w", n.Label, n.Key, err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// RelationshipsOfType returns every relationship of the given type ordered by
// endpoints and tag.
func (db *DB) RelationshipsOfType(ctx context.Context, typ string) ([]Relationship, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT from_label, from_key, type, to_label, to_key, tag
		FROM relationships WHERE type = ?
		ORDER BY from_label, from_key, to_label, to_key, tag`, typ)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Relationship
	for rows.Next() {
		var r Relationship
		if err := rows.Scan(&r.FromLabel, &r.FromKey, &r.Type, &r.ToLabel, &r.ToKey, &r.Tag); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// QueryRaw runs an arbitrary read query and returns column names and rows
// rendered as strings. NULL is rendered as "NULL".
func (db *DB) QueryRaw(ctx context.Context, query string) ([]string, [][]string, error) {
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			switch v := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(v)
			default:
				row[i] = fmt.Sprint(v)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

func decodeProps(raw string) (graph.Properties, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var props map[string]any
	if err := dec.Decode(&props); err != nil {
		return nil, err
	}
	out := make(graph.Properties, len(props))
	for k, v := range props {
		if n, ok := v.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				out[k] = i
				continue
			}
			f, err := n.Float64()
			if err != nil {
				return nil, err
			}
			out[k] = f
			continue
		}
		out[k] = v
	}
	return out, nil
}
