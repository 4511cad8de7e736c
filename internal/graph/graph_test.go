package graph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeRefKeyString(t *testing.T) {
	n := Node("Innings", P("match_id", int64(335982)), P("number", 2))
	assert.Equal(t, "match_id=335982|number=2", n.KeyString())
	assert.Equal(t, "Innings{match_id=335982|number=2}", n.String())
	assert.Equal(t, Properties{"match_id": int64(335982), "number": 2}, n.KeyProperties())
}

func TestKeyStringEscapesSeparators(t *testing.T) {
	plain := Node("Wicket", P("player_out", "x"), P("type", "y"))
	crafted := Node("Wicket", P("player_out", "x|type=y"))
	assert.NotEqual(t, plain.KeyString(), crafted.KeyString())
	assert.Equal(t, `player_out=x\|type\=y`, crafted.KeyString())

	slash := Node("Player", P("name", `a\`))
	assert.Equal(t, `name=a\\`, slash.KeyString())
}

func TestRelRefString(t *testing.T) {
	a := Node("Team", P("name", "A"))
	b := Node("Team", P("name", "B"))

	untagged := Rel(a, "WON", b)
	assert.Equal(t, "(Team{name=A})-[:WON]->(Team{name=B})", untagged.String())
	assert.Equal(t, "", untagged.TagString())

	tagged := Rel(a, "PLAYED_AGAINST", b, P("match_id", int64(7)))
	assert.Equal(t, "match_id=7", tagged.TagString())
	assert.Contains(t, tagged.String(), "{match_id=7}")
}

func TestDeltaMergeDoesNotAlias(t *testing.T) {
	base := Delta{Kind: KindDelivery, Ops: make([]Op, 1, 4)}
	base.Ops[0] = NodeUpsert{Node: Node("Match", P("id", 1))}

	extra := Delta{Ops: []Op{NodeUpsert{Node: Node("Wicket", P("id", 1))}}}
	merged := base.Merge(extra)

	require.Len(t, merged.Ops, 2)
	assert.Len(t, base.Ops, 1)
	assert.Equal(t, KindDelivery, merged.Kind)
}

func TestDeltaValidate(t *testing.T) {
	ok := Node("Player", P("name", "V Kohli"))

	t.Run("valid", func(t *testing.T) {
		d := Delta{
			Requires: []Requirement{NodeRequirement{Node: ok}},
			Ops: []Op{
				NodeUpsert{Node: ok},
				PropertySet{Node: ok, Props: Properties{"runs_scored": 1}},
				RelationshipUpsert{Rel: Rel(ok, "MEMBER_OF", Node("Team", P("name", "RCB")))},
			},
		}
		assert.NoError(t, d.Validate())
	})

	tests := []struct {
		name string
		op   Op
	}{
		{"bad label", NodeUpsert{Node: Node("Player-1", P("name", "x"))}},
		{"no key", NodeUpsert{Node: Node("Player")}},
		{"nil key value", NodeUpsert{Node: Node("City", P("name", nil))}},
		{"bad property", PropertySet{Node: ok, Props: Properties{"runs scored": 1}}},
		{"bad rel type", RelationshipUpsert{Rel: Rel(ok, "MEMBER OF", ok)}},
		{"bad tag", RelationshipUpsert{Rel: Rel(ok, "X", ok, P("1x", 1))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Delta{Ops: []Op{tt.op}}.Validate())
		})
	}
}

func TestDependencyErrorUnwraps(t *testing.T) {
	err := fmt.Errorf("apply: %w", &DependencyError{Requirement: NodeRequirement{Node: Node("Match", P("id", 9))}})
	assert.True(t, errors.Is(err, ErrMissingDependency))

	var depErr *DependencyError
	require.True(t, errors.As(err, &depErr))
	assert.Equal(t, "Match{id=9}", depErr.Requirement.String())
}

func TestPropertySetPatchDropsKeyProperties(t *testing.T) {
	set := PropertySet{
		Node:  Node("Wicket", P("player_out", "SC Ganguly"), P("type", "caught")),
		Props: Properties{"player_out": "other", "type": nil, "fielders_involved": "BB McCullum"},
	}
	assert.Equal(t, Properties{"fielders_involved": "BB McCullum"}, set.Patch())
	assert.Len(t, set.Props, 3, "Patch must not mutate the op")
}
