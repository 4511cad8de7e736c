package mapper

import (
	"github.com/pable/cricket-graph/internal/graph"
	"github.com/pable/cricket-graph/internal/model"
)

// MatchNodes builds the Season, Venue, City, Umpire and Match nodes with their
// fixed relationships. Match attributes are set unconditionally, so a later
// ingestion of the same match id replaces earlier values.
func (m *Mapper) MatchNodes(rec model.Match) graph.Delta {
	match := MatchNode(rec.ID)
	season := graph.Node(LabelSeason, graph.P("year", rec.Season))
	venue := graph.Node(LabelVenue, graph.P("name", rec.Venue))

	ops := []graph.Op{
		graph.NodeUpsert{Node: season},
		graph.NodeUpsert{Node: venue},
	}
	if rec.City != "" {
		city := graph.Node(LabelCity, graph.P("name", rec.City))
		ops = append(ops,
			graph.NodeUpsert{Node: city},
			graph.RelationshipUpsert{Rel: graph.Rel(venue, RelLocatedIn, city)},
		)
	}

	ops = append(ops, graph.PropertySet{Node: match, Props: matchAttributes(rec)})
	ops = append(ops,
		graph.RelationshipUpsert{Rel: graph.Rel(match, RelHeldAt, venue)},
		graph.RelationshipUpsert{Rel: graph.Rel(match, RelPartOfSeason, season)},
	)
	for _, name := range []string{rec.Umpire1, rec.Umpire2} {
		if name == "" {
			continue
		}
		umpire := graph.Node(LabelUmpire, graph.P("name", name))
		ops = append(ops,
			graph.NodeUpsert{Node: umpire},
			graph.RelationshipUpsert{Rel: graph.Rel(match, RelUmpiredBy, umpire)},
		)
	}

	return graph.Delta{Kind: graph.KindMatchNodes, Subject: matchSubject(rec.ID), Ops: ops}
}

func matchAttributes(rec model.Match) graph.Properties {
	var margin any
	if rec.Margin != nil {
		margin = *rec.Margin
	}
	return graph.Properties{
		"date":          rec.Date,
		"match_number":  rec.MatchNumber,
		"toss_winner":   nullable(rec.TossWinner),
		"toss_decision": nullable(rec.TossDecision),
		"super_over":    rec.SuperOver,
		"won_by":        nullable(rec.WonBy),
		"margin":        margin,
	}
}

// TeamRelationships links both teams to an existing Match and records one
// PLAYED_AGAINST relationship tagged with the match id.
func (m *Mapper) TeamRelationships(rec model.Match) graph.Delta {
	match := MatchNode(rec.ID)
	team1 := TeamNode(rec.Team1)
	team2 := TeamNode(rec.Team2)

	return graph.Delta{
		Kind:     graph.KindTeams,
		Subject:  matchSubject(rec.ID),
		Requires: []graph.Requirement{graph.NodeRequirement{Node: match}},
		Ops: []graph.Op{
			graph.NodeUpsert{Node: team1},
			graph.NodeUpsert{Node: team2},
			graph.RelationshipUpsert{Rel: graph.Rel(match, RelInvolvesTeam, team1)},
			graph.RelationshipUpsert{Rel: graph.Rel(match, RelInvolvesTeam, team2)},
			graph.RelationshipUpsert{Rel: graph.Rel(team1, RelPlayedAgainst, team2, graph.P("match_id", rec.ID))},
		},
	}
}

// PlayerRelationships merges every listed player, links each to the match
// (tagged by match id) and to its team. Each side requires the Match->Team
// edge created by TeamRelationships.
func (m *Mapper) PlayerRelationships(rec model.Match) graph.Delta {
	match := MatchNode(rec.ID)
	d := graph.Delta{Kind: graph.KindPlayers, Subject: matchSubject(rec.ID)}

	sides := []struct {
		team    string
		players []string
	}{
		{rec.Team1, rec.Team1Players},
		{rec.Team2, rec.Team2Players},
	}
	for _, side := range sides {
		if len(side.players) == 0 {
			continue
		}
		team := TeamNode(side.team)
		d.Requires = append(d.Requires, graph.RelationshipRequirement{Rel: graph.Rel(match, RelInvolvesTeam, team)})
		for _, name := range side.players {
			player := PlayerNode(name)
			d.Ops = append(d.Ops,
				graph.NodeUpsert{Node: player},
				graph.RelationshipUpsert{Rel: graph.Rel(player, RelPlayedIn, match, graph.P("match_id", rec.ID))},
				graph.RelationshipUpsert{Rel: graph.Rel(player, RelMemberOf, team)},
			)
		}
	}

	if rec.PlayerOfMatch != "" {
		if len(d.Requires) == 0 {
			d.Requires = append(d.Requires, graph.NodeRequirement{Node: match})
		}
		player := PlayerNode(rec.PlayerOfMatch)
		d.Ops = append(d.Ops,
			graph.NodeUpsert{Node: player},
			graph.RelationshipUpsert{Rel: graph.Rel(player, RelPlayerOfMatch, match)},
		)
	}
	return d
}

// Outcome creates WON/LOST relationships when a winner is declared. A match
// without a winner yields an empty delta, which is a valid terminal state.
func (m *Mapper) Outcome(rec model.Match) graph.Delta {
	d := graph.Delta{Kind: graph.KindOutcome, Subject: matchSubject(rec.ID)}
	if !rec.HasWinner() {
		return d
	}
	match := MatchNode(rec.ID)
	winner := TeamNode(rec.WinningTeam)
	loser := TeamNode(rec.LosingTeam())

	d.Requires = []graph.Requirement{
		graph.NodeRequirement{Node: match},
		graph.NodeRequirement{Node: winner},
		graph.NodeRequirement{Node: loser},
	}
	d.Ops = []graph.Op{
		graph.RelationshipUpsert{Rel: graph.Rel(winner, RelWon, match)},
		graph.RelationshipUpsert{Rel: graph.Rel(loser, RelLost, match)},
	}
	return d
}

// MatchDeltas returns the four match-level deltas in application order.
func (m *Mapper) MatchDeltas(rec model.Match) []graph.Delta {
	return []graph.Delta{
		m.MatchNodes(rec),
		m.TeamRelationships(rec),
		m.PlayerRelationships(rec),
		m.Outcome(rec),
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
