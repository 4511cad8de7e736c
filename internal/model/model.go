package model

import "fmt"

// Extra types as they appear in the ball-by-ball data.
const (
	ExtraWides   = "wides"
	ExtraNoBalls = "noballs"
	ExtraLegByes = "legbyes"
	ExtraByes    = "byes"
	ExtraPenalty = "penalty"
)

// ---- Match-level record ----

// Match is one validated row of match metadata.
type Match struct {
	ID            int64
	City          string // "" if unknown
	Date          string
	Season        int
	MatchNumber   string
	Team1         string
	Team2         string
	Venue         string
	TossWinner    string
	TossDecision  string
	SuperOver     bool
	WinningTeam   string // "" for no result / tie without eliminator
	WonBy         string // "Runs", "Wickets", "SuperOver", ...
	Margin        *int
	PlayerOfMatch string
	Team1Players  []string
	Team2Players  []string
	Umpire1       string
	Umpire2       string
}

// HasWinner reports whether the match declares a winning team.
func (m Match) HasWinner() bool {
	return m.WinningTeam != ""
}

// LosingTeam returns the team that is not the declared winner. It returns ""
// when no winner is declared.
func (m Match) LosingTeam() string {
	if !m.HasWinner() {
		return ""
	}
	if m.WinningTeam == m.Team1 {
		return m.Team2
	}
	return m.Team1
}

// ---- Ball-by-ball record ----

// DeliveryKey identifies one delivery within the whole dataset.
type DeliveryKey struct {
	MatchID int64
	Innings int
	Over    int
	Ball    int
}

// String renders the key as "match.innings.over.ball".
func (k DeliveryKey) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", k.MatchID, k.Innings, k.Over, k.Ball)
}

// Less orders keys by match, innings, over, then ball.
func (k DeliveryKey) Less(o DeliveryKey) bool {
	if k.MatchID != o.MatchID {
		return k.MatchID < o.MatchID
	}
	if k.Innings != o.Innings {
		return k.Innings < o.Innings
	}
	if k.Over != o.Over {
		return k.Over < o.Over
	}
	return k.Ball < o.Ball
}

// Delivery is one validated ball-by-ball row.
type Delivery struct {
	MatchID          int64
	Innings          int
	Over             int
	Ball             int
	Batter           string
	Bowler           string
	NonStriker       string
	ExtraType        string // "" when the ball had no extras
	BatsmanRun       int
	ExtrasRun        int
	// BowlerExtrasRun is set by readers that itemize extras per kind, where
	// ExtraType may name several kinds at once. nil means ExtraType is a
	// single kind.
	BowlerExtrasRun  *int
	TotalRun         int
	NonBoundary      int
	WicketDelivery   bool
	PlayerOut        string
	Kind             string // dismissal kind, e.g. "caught"
	FieldersInvolved string
	BattingTeam      string
}

// Key returns the composite identity of the delivery.
func (d Delivery) Key() DeliveryKey {
	return DeliveryKey{MatchID: d.MatchID, Innings: d.Innings, Over: d.Over, Ball: d.Ball}
}

// IsWicket reports whether the delivery signals a dismissal that names a player.
func (d Delivery) IsWicket() bool {
	return d.WicketDelivery && d.PlayerOut != ""
}

// BowlerExtras returns the extras charged against the bowler (wides and no-balls).
func (d Delivery) BowlerExtras() int {
	if d.BowlerExtrasRun != nil {
		return *d.BowlerExtrasRun
	}
	switch d.ExtraType {
	case ExtraWides, ExtraNoBalls:
		return d.ExtrasRun
	default:
		return 0
	}
}
