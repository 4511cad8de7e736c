// Package parser reads raw IPL match and ball-by-ball data into validated
// model records. Rows that fail validation are reported individually and
// skipped; only unreadable input or a missing required column is fatal.
package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pable/cricket-graph/internal/model"
)

var (
	// ErrMissingField reports a required field that is empty or "NA".
	ErrMissingField = errors.New("missing required field")
	// ErrTypeMismatch reports a field that cannot be converted to its type.
	ErrTypeMismatch = errors.New("type mismatch")
)

// FieldError describes one invalid field of one input row. Row is 1-based and
// counts the header line.
type FieldError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("row %d: %s: %v", e.Row, e.Field, e.Err)
	}
	return fmt.Sprintf("row %d: %s=%q: %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Column names of the match file.
const (
	colID            = "ID"
	colCity          = "City"
	colDate          = "Date"
	colSeason        = "Season"
	colMatchNumber   = "MatchNumber"
	colTeam1         = "Team1"
	colTeam2         = "Team2"
	colVenue         = "Venue"
	colTossWinner    = "TossWinner"
	colTossDecision  = "TossDecision"
	colSuperOver     = "SuperOver"
	colWinningTeam   = "WinningTeam"
	colWonBy         = "WonBy"
	colMargin        = "Margin"
	colPlayerOfMatch = "Player_of_Match"
	colTeam1Players  = "Team1Players"
	colTeam2Players  = "Team2Players"
	colUmpire1       = "Umpire1"
	colUmpire2       = "Umpire2"
)

// Column names of the ball-by-ball file.
const (
	colInnings          = "innings"
	colOvers            = "overs"
	colBallNumber       = "ballnumber"
	colBatter           = "batter"
	colBowler           = "bowler"
	colNonStriker       = "non-striker"
	colExtraType        = "extra_type"
	colBatsmanRun       = "batsman_run"
	colExtrasRun        = "extras_run"
	colTotalRun         = "total_run"
	colNonBoundary      = "non_boundary"
	colIsWicketDelivery = "isWicketDelivery"
	colPlayerOut        = "player_out"
	colKind             = "kind"
	colFieldersInvolved = "fielders_involved"
	colBattingTeam      = "BattingTeam"
)

// columnAliases maps alternative header spellings onto canonical names.
var columnAliases = map[string]string{
	"non_striker":  colNonStriker,
	"match_id":     colID,
	"batting_team": colBattingTeam,
}

var (
	matchRequired    = []string{colID, colDate, colSeason, colTeam1, colTeam2, colVenue}
	deliveryRequired = []string{
		colID, colInnings, colOvers, colBallNumber, colBatter, colBowler, colNonStriker,
		colBatsmanRun, colExtrasRun, colTotalRun, colIsWicketDelivery, colBattingTeam,
	}
)

// ReadMatchesCSV reads match metadata rows. It returns the valid records and
// one error per rejected row.
func ReadMatchesCSV(r io.Reader) ([]model.Match, []error, error) {
	var out []model.Match
	rowErrs, err := readCSV(r, matchRequired, func(row *row) {
		m := model.Match{
			ID:            row.num64(colID),
			City:          row.optional(colCity),
			Date:          row.required(colDate),
			Season:        row.season(colSeason),
			MatchNumber:   row.optional(colMatchNumber),
			Team1:         row.required(colTeam1),
			Team2:         row.required(colTeam2),
			Venue:         row.required(colVenue),
			TossWinner:    row.optional(colTossWinner),
			TossDecision:  row.optional(colTossDecision),
			SuperOver:     ParseFlag(row.optional(colSuperOver)),
			WinningTeam:   row.optional(colWinningTeam),
			WonBy:         row.optional(colWonBy),
			Margin:        ParseMargin(row.optional(colMargin)),
			PlayerOfMatch: row.optional(colPlayerOfMatch),
			Team1Players:  ParsePlayers(row.optional(colTeam1Players)),
			Team2Players:  ParsePlayers(row.optional(colTeam2Players)),
			Umpire1:       row.optional(colUmpire1),
			Umpire2:       row.optional(colUmpire2),
		}
		if row.err == nil {
			out = append(out, m)
		}
	})
	return out, rowErrs, err
}

// ReadDeliveriesCSV reads ball-by-ball rows. It returns the valid records and
// one error per rejected row.
func ReadDeliveriesCSV(r io.Reader) ([]model.Delivery, []error, error) {
	var out []model.Delivery
	rowErrs, err := readCSV(r, deliveryRequired, func(row *row) {
		d := model.Delivery{
			MatchID:          row.num64(colID),
			Innings:          row.num(colInnings),
			Over:             row.num(colOvers),
			Ball:             row.num(colBallNumber),
			Batter:           row.required(colBatter),
			Bowler:           row.required(colBowler),
			NonStriker:       row.required(colNonStriker),
			ExtraType:        row.optional(colExtraType),
			BatsmanRun:       row.num(colBatsmanRun),
			ExtrasRun:        row.num(colExtrasRun),
			TotalRun:         row.num(colTotalRun),
			NonBoundary:      row.optionalNum(colNonBoundary),
			WicketDelivery:   row.num(colIsWicketDelivery) != 0,
			PlayerOut:        row.optional(colPlayerOut),
			Kind:             row.optional(colKind),
			FieldersInvolved: row.optional(colFieldersInvolved),
			BattingTeam:      row.required(colBattingTeam),
		}
		if row.err == nil {
			out = append(out, d)
		}
	})
	return out, rowErrs, err
}

// readCSV validates the header against required and calls fn once per data
// row. fn records field errors on the row; a row with an error is reported.
func readCSV(r io.Reader, required []string, fn func(*row)) ([]error, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if canon, ok := columnAliases[name]; ok {
			name = canon
		}
		cols[name] = i
	}
	var missing []string
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}

	var rowErrs []error
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				rowErrs = append(rowErrs, err)
				continue
			}
			return rowErrs, fmt.Errorf("read: %w", err)
		}
		line, _ := cr.FieldPos(0)
		rw := &row{line: line, rec: rec, cols: cols}
		fn(rw)
		if rw.err != nil {
			rowErrs = append(rowErrs, rw.err)
		}
	}
	return rowErrs, nil
}

// ---- Row accessors ----

// row gives typed access to one CSV record and keeps the first field error.
type row struct {
	line int
	rec  []string
	cols map[string]int
	err  error
}

// raw returns the trimmed value of a column, or "" when the column is absent
// or holds a null marker.
func (r *row) raw(field string) string {
	i, ok := r.cols[field]
	if !ok || i >= len(r.rec) {
		return ""
	}
	v := strings.TrimSpace(r.rec[i])
	if isNull(v) {
		return ""
	}
	return v
}

func (r *row) fail(field, value string, err error) {
	if r.err == nil {
		r.err = &FieldError{Row: r.line, Field: field, Value: value, Err: err}
	}
}

func (r *row) optional(field string) string {
	return r.raw(field)
}

func (r *row) required(field string) string {
	v := r.raw(field)
	if v == "" {
		r.fail(field, "", ErrMissingField)
	}
	return v
}

func (r *row) num64(field string) int64 {
	v := r.required(field)
	if v == "" {
		return 0
	}
	n, err := parseWhole(v)
	if err != nil {
		r.fail(field, v, ErrTypeMismatch)
	}
	return n
}

func (r *row) num(field string) int {
	return int(r.num64(field))
}

func (r *row) optionalNum(field string) int {
	v := r.raw(field)
	if v == "" {
		return 0
	}
	n, err := parseWhole(v)
	if err != nil {
		r.fail(field, v, ErrTypeMismatch)
	}
	return int(n)
}

func (r *row) season(field string) int {
	v := r.required(field)
	if v == "" {
		return 0
	}
	year, ok := ParseSeason(v)
	if !ok {
		r.fail(field, v, ErrTypeMismatch)
	}
	return year
}

// ---- Field normalization ----

var yearPattern = regexp.MustCompile(`\d{4}`)

// ParseSeason returns the first four-digit year in s, so "2007/08" is 2007.
func ParseSeason(s string) (int, bool) {
	m := yearPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	year, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return year, true
}

// ParseMargin returns the margin when s consists only of digits. Anything else
// (empty, "NA", "1.5") means no margin.
func ParseMargin(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

// ParseFlag interprets Y/N style columns.
func ParseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true", "1":
		return true
	default:
		return false
	}
}

// ParsePlayers splits a player list written either as a Python-style list
// ("['A', 'B']") or as plain comma-separated names.
func ParsePlayers(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		name := strings.Trim(strings.TrimSpace(part), `'"`)
		name = strings.TrimSpace(name)
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

func isNull(v string) bool {
	switch v {
	case "", "NA", "nan", "NaN", "None", "null":
		return true
	}
	return false
}

// parseWhole accepts integers, including pandas-style "3.0".
func parseWhole(v string) (int64, error) {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, ErrTypeMismatch
	}
	return int64(f), nil
}
