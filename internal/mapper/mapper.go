// Package mapper projects match and delivery records onto graph deltas. Every
// function here is pure: it reads one record and returns the nodes,
// relationships and property sets that must hold after it is applied.
package mapper

import (
	"fmt"

	"github.com/pable/cricket-graph/internal/graph"
	"github.com/pable/cricket-graph/internal/model"
)

// Node labels.
const (
	LabelSeason   = "Season"
	LabelVenue    = "Venue"
	LabelCity     = "City"
	LabelUmpire   = "Umpire"
	LabelMatch    = "Match"
	LabelTeam     = "Team"
	LabelPlayer   = "Player"
	LabelInnings  = "Innings"
	LabelDelivery = "Delivery"
	LabelWicket   = "Wicket"
)

// Relationship types.
const (
	RelLocatedIn     = "LOCATED_IN"
	RelHeldAt        = "HELD_AT"
	RelPartOfSeason  = "PART_OF_SEASON"
	RelUmpiredBy     = "UMPIRED_BY"
	RelInvolvesTeam  = "INVOLVES_TEAM"
	RelPlayedAgainst = "PLAYED_AGAINST"
	RelPlayedIn      = "PLAYED_IN"
	RelMemberOf      = "MEMBER_OF"
	RelPlayerOfMatch = "PLAYER_OF_MATCH"
	RelWon           = "WON"
	RelLost          = "LOST"
	RelHasInning     = "HAS_INNING"
	RelHasDelivery   = "HAS_DELIVERY"
	RelBattedIn      = "BATTED_IN"
	RelBowledIn      = "BOWLED_IN"
	RelNonStrikerIn  = "WAS_NON_STRIKER_IN"
	RelResultedIn    = "RESULTED_IN"
	RelDismissed     = "DISMISSED"
)

// UniqueKeys lists the labels identified by a single property, with that
// property. Backends that support it declare these as uniqueness constraints.
var UniqueKeys = map[string]string{
	LabelSeason: "year",
	LabelVenue:  "name",
	LabelCity:   "name",
	LabelUmpire: "name",
	LabelMatch:  "id",
	LabelTeam:   "name",
	LabelPlayer: "name",
}

// WicketKeying selects the identity of Wicket nodes.
type WicketKeying string

const (
	// WicketByDelivery keys a wicket by the delivery it fell on, so every
	// dismissal is its own node.
	WicketByDelivery WicketKeying = "delivery"
	// WicketByDismissal keys a wicket by (player_out, type). Two dismissals of
	// the same player in the same manner share one node.
	WicketByDismissal WicketKeying = "dismissal"
)

// ParseWicketKeying validates a keying mode name.
func ParseWicketKeying(s string) (WicketKeying, error) {
	switch WicketKeying(s) {
	case WicketByDelivery, WicketByDismissal:
		return WicketKeying(s), nil
	default:
		return "", fmt.Errorf("unknown wicket keying %q (want %q or %q)", s, WicketByDelivery, WicketByDismissal)
	}
}

// Mapper holds the few mapping choices that are configurable.
type Mapper struct {
	WicketKeying WicketKeying
}

// New returns a Mapper with default options.
func New() *Mapper {
	return &Mapper{WicketKeying: WicketByDelivery}
}

// ---- Node references ----

// MatchNode references the Match with the given id.
func MatchNode(id int64) graph.NodeRef {
	return graph.Node(LabelMatch, graph.P("id", id))
}

// TeamNode references a Team by name.
func TeamNode(name string) graph.NodeRef {
	return graph.Node(LabelTeam, graph.P("name", name))
}

// PlayerNode references a Player by name.
func PlayerNode(name string) graph.NodeRef {
	return graph.Node(LabelPlayer, graph.P("name", name))
}

// InningsNode references one innings of a match.
func InningsNode(matchID int64, number int) graph.NodeRef {
	return graph.Node(LabelInnings, graph.P("match_id", matchID), graph.P("number", number))
}

// DeliveryNode references the Delivery with key k.
func DeliveryNode(k model.DeliveryKey) graph.NodeRef {
	return graph.Node(LabelDelivery,
		graph.P("match_id", k.MatchID),
		graph.P("innings", k.Innings),
		graph.P("over", k.Over),
		graph.P("ball", k.Ball),
	)
}

// WicketNode returns the Wicket node for a dismissal under the configured keying.
func (m *Mapper) WicketNode(d model.Delivery) graph.NodeRef {
	if m.WicketKeying == WicketByDismissal {
		return graph.Node(LabelWicket, graph.P("player_out", d.PlayerOut), graph.P("type", d.Kind))
	}
	return graph.Node(LabelWicket,
		graph.P("match_id", d.MatchID),
		graph.P("innings", d.Innings),
		graph.P("over", d.Over),
		graph.P("ball", d.Ball),
	)
}

func matchSubject(id int64) string {
	return fmt.Sprintf("match %d", id)
}

func deliverySubject(k model.DeliveryKey) string {
	return "delivery " + k.String()
}
