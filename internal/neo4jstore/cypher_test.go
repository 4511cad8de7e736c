package neo4jstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/cricket-graph/internal/graph"
)

var (
	match = graph.Node("Match", graph.P("id", int64(7)))
	team  = graph.Node("Team", graph.P("name", "Gujarat Titans"))
)

func TestRenderNodeUpsert(t *testing.T) {
	st, err := RenderOp(graph.NodeUpsert{Node: graph.Node("Innings", graph.P("match_id", int64(7)), graph.P("number", 2))})
	require.NoError(t, err)
	assert.Equal(t, "MERGE (n:Innings {match_id: $n_match_id, number: $n_number})", st.Query)
	assert.Equal(t, map[string]any{"n_match_id": int64(7), "n_number": 2}, st.Params)
}

func TestRenderPropertySet(t *testing.T) {
	st, err := RenderOp(graph.PropertySet{Node: match, Props: graph.Properties{
		"id":     int64(99),
		"won_by": "Runs",
		"margin": nil,
	}})
	require.NoError(t, err)
	assert.Equal(t, "MERGE (n:Match {id: $n_id}) SET n += $props", st.Query)
	assert.Equal(t, int64(7), st.Params["n_id"])

	props, ok := st.Params["props"].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, props, "id", "key properties are never overwritten")
	assert.Contains(t, props, "margin")
	assert.Nil(t, props["margin"], "null removes the property")
}

func TestRenderRelationshipUpsert(t *testing.T) {
	t.Run("untagged", func(t *testing.T) {
		st, err := RenderOp(graph.RelationshipUpsert{Rel: graph.Rel(match, "INVOLVES_TEAM", team)})
		require.NoError(t, err)
		assert.Equal(t,
			"MERGE (a:Match {id: $a_id}) MERGE (b:Team {name: $b_name}) MERGE (a)-[r:INVOLVES_TEAM]->(b)",
			st.Query)
		assert.Len(t, st.Params, 2)
	})

	t.Run("tagged", func(t *testing.T) {
		other := graph.Node("Team", graph.P("name", "Rajasthan Royals"))
		st, err := RenderOp(graph.RelationshipUpsert{Rel: graph.Rel(team, "PLAYED_AGAINST", other, graph.P("match_id", int64(7)))})
		require.NoError(t, err)
		assert.Equal(t,
			"MERGE (a:Team {name: $a_name}) MERGE (b:Team {name: $b_name}) MERGE (a)-[r:PLAYED_AGAINST {match_id: $r_match_id}]->(b)",
			st.Query)
		assert.Equal(t, "Rajasthan Royals", st.Params["b_name"])
		assert.Equal(t, int64(7), st.Params["r_match_id"])
	})
}

func TestRenderRequirement(t *testing.T) {
	st, err := RenderRequirement(graph.NodeRequirement{Node: match})
	require.NoError(t, err)
	assert.Equal(t, "MATCH (n:Match {id: $n_id}) RETURN count(n) AS c", st.Query)

	st, err = RenderRequirement(graph.RelationshipRequirement{Rel: graph.Rel(match, "INVOLVES_TEAM", team)})
	require.NoError(t, err)
	assert.Equal(t, "MATCH (a:Match {id: $a_id})-[r:INVOLVES_TEAM]->(b:Team {name: $b_name}) RETURN count(r) AS c", st.Query)
}

func TestRenderNodeProperties(t *testing.T) {
	st := RenderNodeProperties(team)
	assert.Equal(t, "MATCH (n:Team {name: $n_name}) RETURN properties(n) AS props LIMIT 1", st.Query)
	assert.Equal(t, map[string]any{"n_name": "Gujarat Titans"}, st.Params)
}

func TestRenderUniqueConstraint(t *testing.T) {
	assert.Equal(t,
		"CREATE CONSTRAINT player_name_unique IF NOT EXISTS FOR (n:Player) REQUIRE n.name IS UNIQUE",
		RenderUniqueConstraint("Player", "name"))
}
