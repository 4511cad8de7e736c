package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/pable/cricket-graph/internal/model"
)

// ReadCricsheet parses one match in cricsheet JSON format. Innings are
// numbered in file order starting at 1; balls are numbered from 1 within each
// over, counting extras.
func ReadCricsheet(r io.Reader, matchID int64) (model.Match, []model.Delivery, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.Match{}, nil, fmt.Errorf("read cricsheet: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return model.Match{}, nil, fmt.Errorf("cricsheet match %d: invalid JSON", matchID)
	}
	doc := gjson.ParseBytes(data)
	info := doc.Get("info")
	if !info.Exists() {
		return model.Match{}, nil, &FieldError{Field: "info", Err: ErrMissingField}
	}

	m, err := cricsheetMatch(info, matchID)
	if err != nil {
		return model.Match{}, nil, err
	}

	var deliveries []model.Delivery
	for i, inning := range doc.Get("innings").Array() {
		battingTeam := inning.Get("team").String()
		for _, over := range inning.Get("overs").Array() {
			overNumber := int(over.Get("over").Int())
			ball := 0
			for _, del := range over.Get("deliveries").Array() {
				ball++
				deliveries = append(deliveries, cricsheetDelivery(del, model.DeliveryKey{
					MatchID: matchID, Innings: i + 1, Over: overNumber, Ball: ball,
				}, battingTeam))
			}
		}
	}
	return m, deliveries, nil
}

// MatchIDFromPath derives a match id from a cricsheet file name such as
// "1082591.json" or "1082591.json.gz".
func MatchIDFromPath(path string) (int64, error) {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	id, err := strconv.ParseInt(base, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("match id from %q: %w", path, ErrTypeMismatch)
	}
	return id, nil
}

func cricsheetMatch(info gjson.Result, matchID int64) (model.Match, error) {
	teams := info.Get("teams").Array()
	if len(teams) != 2 {
		return model.Match{}, &FieldError{Field: "info.teams", Value: info.Get("teams").Raw, Err: ErrTypeMismatch}
	}
	date := info.Get("dates.0").String()
	if date == "" {
		return model.Match{}, &FieldError{Field: "info.dates", Err: ErrMissingField}
	}
	season, ok := ParseSeason(info.Get("season").String())
	if !ok {
		// Older files omit the season; fall back to the match year.
		season, ok = ParseSeason(date)
	}
	if !ok {
		return model.Match{}, &FieldError{Field: "info.season", Value: info.Get("season").String(), Err: ErrTypeMismatch}
	}

	m := model.Match{
		ID:           matchID,
		City:         info.Get("city").String(),
		Date:         date,
		Season:       season,
		MatchNumber:  info.Get("event.match_number").String(),
		Team1:        teams[0].String(),
		Team2:        teams[1].String(),
		Venue:        info.Get("venue").String(),
		TossWinner:   info.Get("toss.winner").String(),
		TossDecision: info.Get("toss.decision").String(),
		WinningTeam:  info.Get("outcome.winner").String(),
	}
	if m.MatchNumber == "" {
		m.MatchNumber = info.Get("event.stage").String()
	}

	// A tie decided by a super over names the winner as the eliminator.
	if e := info.Get("outcome.eliminator"); e.Exists() {
		m.SuperOver = true
		if m.WinningTeam == "" {
			m.WinningTeam = e.String()
		}
		m.WonBy = "SuperOver"
	}
	if info.Get("super_over").Bool() {
		m.SuperOver = true
	}
	if runs := info.Get("outcome.by.runs"); runs.Exists() {
		m.WonBy = "Runs"
		n := int(runs.Int())
		m.Margin = &n
	} else if wkts := info.Get("outcome.by.wickets"); wkts.Exists() {
		m.WonBy = "Wickets"
		n := int(wkts.Int())
		m.Margin = &n
	}

	// Only the first player of the match is kept.
	m.PlayerOfMatch = info.Get("player_of_match.0").String()

	info.Get("players").ForEach(func(team, players gjson.Result) bool {
		var names []string
		for _, p := range players.Array() {
			names = append(names, p.String())
		}
		switch team.String() {
		case m.Team1:
			m.Team1Players = names
		case m.Team2:
			m.Team2Players = names
		}
		return true
	})

	umpires := info.Get("officials.umpires").Array()
	if len(umpires) > 0 {
		m.Umpire1 = umpires[0].String()
	}
	if len(umpires) > 1 {
		m.Umpire2 = umpires[1].String()
	}

	if m.Venue == "" {
		return model.Match{}, &FieldError{Field: "info.venue", Err: ErrMissingField}
	}
	return m, nil
}

func cricsheetDelivery(del gjson.Result, key model.DeliveryKey, battingTeam string) model.Delivery {
	d := model.Delivery{
		MatchID:     key.MatchID,
		Innings:     key.Innings,
		Over:        key.Over,
		Ball:        key.Ball,
		Batter:      del.Get("batter").String(),
		Bowler:      del.Get("bowler").String(),
		NonStriker:  del.Get("non_striker").String(),
		BatsmanRun:  int(del.Get("runs.batter").Int()),
		TotalRun:    int(del.Get("runs.total").Int()),
		NonBoundary: int(del.Get("non_boundary").Int()),
		BattingTeam: battingTeam,
	}

	var extraTypes []string
	bowlerExtras := 0
	del.Get("extras").ForEach(func(kind, runs gjson.Result) bool {
		extraTypes = append(extraTypes, kind.String())
		d.ExtrasRun += int(runs.Int())
		switch kind.String() {
		case model.ExtraWides, model.ExtraNoBalls:
			bowlerExtras += int(runs.Int())
		}
		return true
	})
	d.ExtraType = strings.Join(extraTypes, ", ")
	d.BowlerExtrasRun = &bowlerExtras

	if w := del.Get("wickets.0"); w.Exists() {
		d.WicketDelivery = true
		d.PlayerOut = w.Get("player_out").String()
		d.Kind = w.Get("kind").String()
		var fielders []string
		for _, f := range w.Get("fielders").Array() {
			if name := f.Get("name").String(); name != "" {
				fielders = append(fielders, name)
			}
		}
		d.FieldersInvolved = strings.Join(fielders, ", ")
	}
	return d
}
