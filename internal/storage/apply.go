package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pable/cricket-graph/internal/graph"
)

var _ graph.Store = (*DB)(nil)

// Apply checks the requirements and applies the ops of every delta inside a
// single transaction. On any error the transaction is rolled back.
func (db *DB) Apply(ctx context.Context, deltas ...graph.Delta) error {
	for _, d := range deltas {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("%s: %w", d.Kind, err)
		}
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, d := range deltas {
		for _, req := range d.Requires {
			ok, err := requirementHolds(ctx, tx, req)
			if err != nil {
				return fmt.Errorf("%s: check %s: %w", d.Kind, req, err)
			}
			if !ok {
				return &graph.DependencyError{Requirement: req}
			}
		}
		for _, op := range d.Ops {
			if err := applyOp(ctx, tx, op); err != nil {
				return fmt.Errorf("%s: %w", d.Kind, err)
			}
		}
	}
	return tx.Commit()
}

func requirementHolds(ctx context.Context, tx *sql.Tx, req graph.Requirement) (bool, error) {
	var count int
	var err error
	switch r := req.(type) {
	case graph.NodeRequirement:
		err = tx.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM nodes WHERE label = ? AND key = ?",
			r.Node.Label, r.Node.KeyString()).Scan(&count)
	case graph.RelationshipRequirement:
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(1) FROM relationships
			WHERE from_label = ? AND from_key = ? AND type = ? AND to_label = ? AND to_key = ?`,
			r.Rel.From.Label, r.Rel.From.KeyString(), r.Rel.Type,
			r.Rel.To.Label, r.Rel.To.KeyString()).Scan(&count)
	default:
		return false, fmt.Errorf("unsupported requirement %T", req)
	}
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func applyOp(ctx context.Context, tx *sql.Tx, op graph.Op) error {
	switch o := op.(type) {
	case graph.NodeUpsert:
		return ensureNode(ctx, tx, o.Node)
	case graph.PropertySet:
		if err := ensureNode(ctx, tx, o.Node); err != nil {
			return err
		}
		patch, err := json.Marshal(o.Patch())
		if err != nil {
			return fmt.Errorf("encode properties of %s: %w", o.Node, err)
		}
		// json_patch follows RFC 7396: null removes a member, other members overwrite.
		_, err = tx.ExecContext(ctx,
			"UPDATE nodes SET props = json_patch(props, ?) WHERE label = ? AND key = ?",
			string(patch), o.Node.Label, o.Node.KeyString())
		if err != nil {
			return fmt.Errorf("set properties of %s: %w", o.Node, err)
		}
		return nil
	case graph.RelationshipUpsert:
		return ensureRelationship(ctx, tx, o.Rel)
	default:
		return fmt.Errorf("unsupported op %T", op)
	}
}

func ensureNode(ctx context.Context, tx *sql.Tx, n graph.NodeRef) error {
	props, err := json.Marshal(n.KeyProperties())
	if err != nil {
		return fmt.Errorf("encode key of %s: %w", n, err)
	}
	_, err = tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO nodes(label, key, props) VALUES (?, ?, ?)",
		n.Label, n.KeyString(), string(props))
	if err != nil {
		return fmt.Errorf("merge node %s: %w", n, err)
	}
	return nil
}

func ensureRelationship(ctx context.Context, tx *sql.Tx, r graph.RelRef) error {
	if err := ensureNode(ctx, tx, r.From); err != nil {
		return err
	}
	if err := ensureNode(ctx, tx, r.To); err != nil {
		return err
	}
	tag := make(graph.Properties, len(r.Tag))
	for _, p := range r.Tag {
		tag[p.Name] = p.Value
	}
	props, err := json.Marshal(tag)
	if err != nil {
		return fmt.Errorf("encode tag of %s: %w", r, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO relationships(from_label, from_key, type, to_label, to_key, tag, props)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.From.Label, r.From.KeyString(), r.Type, r.To.Label, r.To.KeyString(),
		r.TagString(), string(props))
	if err != nil {
		return fmt.Errorf("merge relationship %s: %w", r, err)
	}
	return nil
}
