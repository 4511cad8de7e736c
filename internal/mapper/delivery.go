package mapper

import (
	"github.com/pable/cricket-graph/internal/graph"
	"github.com/pable/cricket-graph/internal/model"
)

// Delivery merges the Innings and Delivery nodes for an existing Match,
// overwrites the delivery attributes and links the batter, bowler and
// non-striker with their role relationships.
func (m *Mapper) Delivery(d model.Delivery) graph.Delta {
	key := d.Key()
	match := MatchNode(d.MatchID)
	innings := InningsNode(d.MatchID, d.Innings)
	delivery := DeliveryNode(key)

	batter := PlayerNode(d.Batter)
	bowler := PlayerNode(d.Bowler)
	nonStriker := PlayerNode(d.NonStriker)

	return graph.Delta{
		Kind:     graph.KindDelivery,
		Subject:  deliverySubject(key),
		Requires: []graph.Requirement{graph.NodeRequirement{Node: match}},
		Ops: []graph.Op{
			graph.NodeUpsert{Node: innings},
			graph.RelationshipUpsert{Rel: graph.Rel(match, RelHasInning, innings)},
			graph.PropertySet{Node: delivery, Props: deliveryAttributes(d)},
			graph.RelationshipUpsert{Rel: graph.Rel(innings, RelHasDelivery, delivery)},
			graph.RelationshipUpsert{Rel: graph.Rel(batter, RelBattedIn, delivery)},
			graph.RelationshipUpsert{Rel: graph.Rel(bowler, RelBowledIn, delivery)},
			graph.RelationshipUpsert{Rel: graph.Rel(nonStriker, RelNonStrikerIn, delivery)},
		},
	}
}

func deliveryAttributes(d model.Delivery) graph.Properties {
	return graph.Properties{
		"batter":       d.Batter,
		"bowler":       d.Bowler,
		"non_striker":  d.NonStriker,
		"extra_type":   nullable(d.ExtraType),
		"batsman_run":  d.BatsmanRun,
		"extras_run":   d.ExtrasRun,
		"total_run":    d.TotalRun,
		"non_boundary": d.NonBoundary,
		"batting_team": d.BattingTeam,
	}
}

// Wicket links a dismissal to its delivery and to the dismissed player. It
// returns an empty delta when the delivery is not a wicket.
func (m *Mapper) Wicket(d model.Delivery) graph.Delta {
	key := d.Key()
	out := graph.Delta{Kind: graph.KindWicket, Subject: deliverySubject(key)}
	if !d.IsWicket() {
		return out
	}
	delivery := DeliveryNode(key)
	wicket := m.WicketNode(d)
	dismissed := PlayerNode(d.PlayerOut)

	out.Requires = []graph.Requirement{graph.NodeRequirement{Node: delivery}}
	out.Ops = []graph.Op{
		graph.PropertySet{Node: wicket, Props: graph.Properties{
			"player_out":        d.PlayerOut,
			"type":              nullable(d.Kind),
			"fielders_involved": nullable(d.FieldersInvolved),
		}},
		graph.RelationshipUpsert{Rel: graph.Rel(delivery, RelResultedIn, wicket)},
		graph.RelationshipUpsert{Rel: graph.Rel(wicket, RelDismissed, dismissed)},
	}
	return out
}

// DeliveryWithWicket combines Delivery and Wicket into the single delta that
// is applied as one transaction. The wicket's own requirement on the Delivery
// node is dropped because the same delta creates it.
func (m *Mapper) DeliveryWithWicket(d model.Delivery) graph.Delta {
	out := m.Delivery(d)
	w := m.Wicket(d)
	w.Requires = nil
	return out.Merge(w)
}
