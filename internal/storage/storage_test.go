package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/pable/cricket-graph/internal/graph"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var (
	teamA = graph.Node("Team", graph.P("name", "A"))
	teamB = graph.Node("Team", graph.P("name", "B"))
	match = graph.Node("Match", graph.P("id", int64(1)))
)

func mustApply(t *testing.T, db *DB, deltas ...graph.Delta) {
	t.Helper()
	if err := db.Apply(context.Background(), deltas...); err != nil {
		t.Fatalf("Apply: %v", err)
	}
}

func mustProps(t *testing.T, db *DB, n graph.NodeRef) graph.Properties {
	t.Helper()
	props, ok, err := db.NodeProperties(context.Background(), n)
	if err != nil {
		t.Fatalf("NodeProperties(%s): %v", n, err)
	}
	if !ok {
		t.Fatalf("node %s not found", n)
	}
	return props
}

func TestNodeUpsertIdempotent(t *testing.T) {
	db := openMemDB(t)
	d := graph.Delta{Ops: []graph.Op{graph.NodeUpsert{Node: teamA}, graph.NodeUpsert{Node: teamA}}}

	mustApply(t, db, d)
	mustApply(t, db, d)

	n, err := db.CountNodes(context.Background(), "Team")
	if err != nil {
		t.Fatalf("CountNodes: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 Team node, got %d", n)
	}
	if got := mustProps(t, db, teamA)["name"]; got != "A" {
		t.Errorf("key property not stored: %v", got)
	}
}

func TestPropertySetOverwrites(t *testing.T) {
	db := openMemDB(t)

	mustApply(t, db, graph.Delta{Ops: []graph.Op{
		graph.PropertySet{Node: match, Props: graph.Properties{"date": "2008-04-18", "margin": 140, "won_by": "Runs"}},
	}})
	mustApply(t, db, graph.Delta{Ops: []graph.Op{
		graph.PropertySet{Node: match, Props: graph.Properties{"margin": nil, "won_by": "Wickets"}},
	}})

	props := mustProps(t, db, match)
	if props["won_by"] != "Wickets" {
		t.Errorf("won_by: want Wickets, got %v", props["won_by"])
	}
	if _, ok := props["margin"]; ok {
		t.Errorf("margin should be removed by a null set, got %v", props["margin"])
	}
	if props["date"] != "2008-04-18" {
		t.Errorf("date should be left untouched, got %v", props["date"])
	}
	if props["id"] != int64(1) {
		t.Errorf("id: want int64 1, got %T %v", props["id"], props["id"])
	}
}

func TestPropertySetKeepsKey(t *testing.T) {
	db := openMemDB(t)
	wicket := graph.Node("Wicket", graph.P("player_out", "SC Ganguly"), graph.P("type", "caught"))

	mustApply(t, db, graph.Delta{Ops: []graph.Op{
		graph.PropertySet{Node: wicket, Props: graph.Properties{"type": nil, "fielders_involved": "Z Khan"}},
	}})

	props := mustProps(t, db, wicket)
	if props["type"] != "caught" {
		t.Errorf("key property must survive a set, got %v", props["type"])
	}
}

func TestRelationshipMergeAndTags(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()

	rel := func(id int64) graph.Op {
		return graph.RelationshipUpsert{Rel: graph.Rel(teamA, "PLAYED_AGAINST", teamB, graph.P("match_id", id))}
	}
	mustApply(t, db, graph.Delta{Ops: []graph.Op{rel(1), rel(1)}})
	mustApply(t, db, graph.Delta{Ops: []graph.Op{rel(1), rel(2)}})

	rels, err := db.RelationshipsOfType(ctx, "PLAYED_AGAINST")
	if err != nil {
		t.Fatalf("RelationshipsOfType: %v", err)
	}
	if len(rels) != 2 {
		t.Fatalf("expected 2 tagged relationships, got %d", len(rels))
	}
	if rels[0].Tag != "match_id=1" || rels[1].Tag != "match_id=2" {
		t.Errorf("unexpected tags %q, %q", rels[0].Tag, rels[1].Tag)
	}

	// Endpoints were merged implicitly.
	if n, _ := db.CountNodes(ctx, "Team"); n != 2 {
		t.Errorf("expected 2 Team nodes, got %d", n)
	}
}

func TestRequirementFailureRollsBack(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()

	d := graph.Delta{
		Kind:     graph.KindTeams,
		Requires: []graph.Requirement{graph.NodeRequirement{Node: match}},
		Ops:      []graph.Op{graph.NodeUpsert{Node: teamA}},
	}
	err := db.Apply(ctx, d)
	if !errors.Is(err, graph.ErrMissingDependency) {
		t.Fatalf("expected ErrMissingDependency, got %v", err)
	}
	if n, _ := db.CountNodes(ctx, "Team"); n != 0 {
		t.Errorf("nothing should be committed, found %d Team nodes", n)
	}

	// A requirement satisfied earlier in the same Apply is visible.
	create := graph.Delta{Ops: []graph.Op{graph.NodeUpsert{Node: match}}}
	mustApply(t, db, create, d)
	if n, _ := db.CountNodes(ctx, "Team"); n != 1 {
		t.Errorf("expected Team after satisfied requirement, got %d", n)
	}
}

func TestRelationshipRequirement(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()

	req := graph.Delta{Requires: []graph.Requirement{
		graph.RelationshipRequirement{Rel: graph.Rel(match, "INVOLVES_TEAM", teamA)},
	}}
	if err := db.Apply(ctx, req); !errors.Is(err, graph.ErrMissingDependency) {
		t.Fatalf("expected missing relationship, got %v", err)
	}

	mustApply(t, db, graph.Delta{Ops: []graph.Op{
		graph.RelationshipUpsert{Rel: graph.Rel(match, "INVOLVES_TEAM", teamA)},
	}})
	mustApply(t, db, req)
}

func TestApplyRejectsInvalidIdentifiers(t *testing.T) {
	db := openMemDB(t)
	bad := graph.Delta{Ops: []graph.Op{graph.NodeUpsert{Node: graph.Node("Team; DROP", graph.P("name", "x"))}}}
	if err := db.Apply(context.Background(), bad); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestCountsAndQueryRaw(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()

	mustApply(t, db, graph.Delta{Ops: []graph.Op{
		graph.RelationshipUpsert{Rel: graph.Rel(match, "INVOLVES_TEAM", teamA)},
		graph.RelationshipUpsert{Rel: graph.Rel(match, "INVOLVES_TEAM", teamB)},
	}})

	counts, err := db.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts.Nodes["Team"] != 2 || counts.Nodes["Match"] != 1 {
		t.Errorf("unexpected node counts %v", counts.Nodes)
	}
	if counts.Relationships["INVOLVES_TEAM"] != 2 {
		t.Errorf("unexpected relationship counts %v", counts.Relationships)
	}

	cols, rows, err := db.QueryRaw(ctx, "SELECT label, json_extract(props, '$.name') AS name FROM nodes WHERE label = 'Team' ORDER BY key")
	if err != nil {
		t.Fatalf("QueryRaw: %v", err)
	}
	if len(cols) != 2 || cols[1] != "name" {
		t.Errorf("unexpected columns %v", cols)
	}
	if len(rows) != 2 || rows[0][1] != "A" || rows[1][1] != "B" {
		t.Errorf("unexpected rows %v", rows)
	}
}

func TestNodePropertiesMissing(t *testing.T) {
	db := openMemDB(t)
	_, ok, err := db.NodeProperties(context.Background(), teamA)
	if err != nil {
		t.Fatalf("NodeProperties: %v", err)
	}
	if ok {
		t.Error("expected missing node")
	}
}

func TestNodesOfLabel(t *testing.T) {
	db := openMemDB(t)
	mustApply(t, db, graph.Delta{Ops: []graph.Op{
		graph.NodeUpsert{Node: teamB},
		graph.PropertySet{Node: teamA, Props: graph.Properties{"short": "AA"}},
		graph.NodeUpsert{Node: match},
	}})

	nodes, err := db.NodesOfLabel(context.Background(), "Team", 0)
	if err != nil {
		t.Fatalf("NodesOfLabel: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 teams, got %d", len(nodes))
	}
	if nodes[0].Key != "name=A" || nodes[1].Key != "name=B" {
		t.Errorf("unexpected order: %q, %q", nodes[0].Key, nodes[1].Key)
	}
	if nodes[0].Props["short"] != "AA" {
		t.Errorf("expected props of A, got %v", nodes[0].Props)
	}

	limited, err := db.NodesOfLabel(context.Background(), "Team", 1)
	if err != nil {
		t.Fatalf("NodesOfLabel: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected limit 1 to return 1 node, got %d", len(limited))
	}
}

func TestKeysWithSeparatorsStayDistinct(t *testing.T) {
	db := openMemDB(t)
	plain := graph.Node("Wicket", graph.P("player_out", "x"), graph.P("type", "y"))
	crafted := graph.Node("Wicket", graph.P("player_out", "x|type=y"))
	mustApply(t, db, graph.Delta{Ops: []graph.Op{graph.NodeUpsert{Node: plain}, graph.NodeUpsert{Node: crafted}}})

	n, err := db.CountNodes(context.Background(), "Wicket")
	if err != nil {
		t.Fatalf("CountNodes: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 Wicket nodes, got %d", n)
	}
	if got := mustProps(t, db, crafted)["player_out"]; got != "x|type=y" {
		t.Errorf("player_out = %v", got)
	}
}
