package neo4jstore

import (
	"fmt"
	"strings"

	"github.com/pable/cricket-graph/internal/graph"
)

// Statement is one parameterized Cypher query.
type Statement struct {
	Query  string
	Params map[string]any
}

// countColumn is the result column of requirement queries.
const countColumn = "c"

// RenderOp renders a merge operation. Labels, types and property names are
// interpolated, so the delta must have passed Validate.
func RenderOp(op graph.Op) (Statement, error) {
	params := make(map[string]any)
	switch o := op.(type) {
	case graph.NodeUpsert:
		return Statement{
			Query:  "MERGE " + nodePattern("n", o.Node, params),
			Params: params,
		}, nil
	case graph.PropertySet:
		params["props"] = map[string]any(o.Patch())
		return Statement{
			Query:  "MERGE " + nodePattern("n", o.Node, params) + " SET n += $props",
			Params: params,
		}, nil
	case graph.RelationshipUpsert:
		return Statement{
			Query:  relMerge(o.Rel, params),
			Params: params,
		}, nil
	default:
		return Statement{}, fmt.Errorf("unsupported op %T", op)
	}
}

// RenderRequirement renders a query returning the number of matches of a
// requirement in column "c".
func RenderRequirement(req graph.Requirement) (Statement, error) {
	params := make(map[string]any)
	switch r := req.(type) {
	case graph.NodeRequirement:
		return Statement{
			Query:  fmt.Sprintf("MATCH %s RETURN count(n) AS %s", nodePattern("n", r.Node, params), countColumn),
			Params: params,
		}, nil
	case graph.RelationshipRequirement:
		q := fmt.Sprintf("MATCH %s-[r:%s]->%s RETURN count(r) AS %s",
			nodePattern("a", r.Rel.From, params), r.Rel.Type, nodePattern("b", r.Rel.To, params), countColumn)
		return Statement{Query: q, Params: params}, nil
	default:
		return Statement{}, fmt.Errorf("unsupported requirement %T", req)
	}
}

// RenderNodeProperties renders a lookup of all properties of one node.
func RenderNodeProperties(n graph.NodeRef) Statement {
	params := make(map[string]any)
	return Statement{
		Query:  "MATCH " + nodePattern("n", n, params) + " RETURN properties(n) AS props LIMIT 1",
		Params: params,
	}
}

// RenderUniqueConstraint renders an idempotent uniqueness constraint.
func RenderUniqueConstraint(label, prop string) string {
	return fmt.Sprintf("CREATE CONSTRAINT %s_%s_unique IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
		strings.ToLower(label), prop, label, prop)
}

func relMerge(r graph.RelRef, params map[string]any) string {
	var b strings.Builder
	b.WriteString("MERGE ")
	b.WriteString(nodePattern("a", r.From, params))
	b.WriteString(" MERGE ")
	b.WriteString(nodePattern("b", r.To, params))
	b.WriteString(" MERGE (a)-[r:")
	b.WriteString(r.Type)
	if len(r.Tag) > 0 {
		b.WriteByte(' ')
		b.WriteString(propMap("r", r.Tag, params))
	}
	b.WriteString("]->(b)")
	return b.String()
}

// nodePattern renders (v:Label {k: $v_k, ...}) and records the parameters.
func nodePattern(v string, n graph.NodeRef, params map[string]any) string {
	return fmt.Sprintf("(%s:%s %s)", v, n.Label, propMap(v, n.Key, params))
}

func propMap(v string, props []graph.Prop, params map[string]any) string {
	parts := make([]string, len(props))
	for i, p := range props {
		name := v + "_" + p.Name
		params[name] = p.Value
		parts[i] = fmt.Sprintf("%s: $%s", p.Name, name)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
