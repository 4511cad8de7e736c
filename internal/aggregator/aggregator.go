// Package aggregator maintains the running per-player statistics derived from
// the ball-by-ball stream. Counters accumulate in the order deliveries are
// applied and are not idempotent: applying the same delivery twice counts it
// twice.
package aggregator

import (
	"context"
	"fmt"
	"sync"

	"github.com/pable/cricket-graph/internal/graph"
	"github.com/pable/cricket-graph/internal/mapper"
	"github.com/pable/cricket-graph/internal/model"
)

// Player node property names.
const (
	PropRunsScored   = "runs_scored"
	PropBallsFaced   = "balls_faced"
	PropStrikeRate   = "strike_rate"
	PropBallsBowled  = "balls_bowled"
	PropWickets      = "wickets"
	PropRunsConceded = "runs_conceded"
	PropEconomyRate  = "economy_rate"
)

// PlayerStats holds the accumulated counters for one player.
type PlayerStats struct {
	Name         string
	RunsScored   int
	BallsFaced   int
	BallsBowled  int
	Wickets      int
	RunsConceded int
}

// StrikeRate returns 100 × runs ÷ balls faced. ok is false when no ball has
// been faced.
func (s *PlayerStats) StrikeRate() (rate float64, ok bool) {
	if s.BallsFaced == 0 {
		return 0, false
	}
	return 100 * float64(s.RunsScored) / float64(s.BallsFaced), true
}

// EconomyRate returns runs conceded per six balls bowled. ok is false when no
// ball has been bowled.
func (s *PlayerStats) EconomyRate() (rate float64, ok bool) {
	if s.BallsBowled == 0 {
		return 0, false
	}
	return 6 * float64(s.RunsConceded) / float64(s.BallsBowled), true
}

// battingProps returns the batting counters and strike rate as node properties.
func (s *PlayerStats) battingProps() graph.Properties {
	props := graph.Properties{
		PropRunsScored: s.RunsScored,
		PropBallsFaced: s.BallsFaced,
	}
	if sr, ok := s.StrikeRate(); ok {
		props[PropStrikeRate] = sr
	}
	return props
}

// bowlingProps returns the bowling counters and economy rate as node properties.
func (s *PlayerStats) bowlingProps() graph.Properties {
	props := graph.Properties{
		PropBallsBowled:  s.BallsBowled,
		PropWickets:      s.Wickets,
		PropRunsConceded: s.RunsConceded,
	}
	if er, ok := s.EconomyRate(); ok {
		props[PropEconomyRate] = er
	}
	return props
}

// StatsFromProperties reads stored counters back from Player node properties.
// Missing properties count as zero.
func StatsFromProperties(name string, props graph.Properties) (PlayerStats, error) {
	s := PlayerStats{Name: name}
	fields := []struct {
		prop string
		dst  *int
	}{
		{PropRunsScored, &s.RunsScored},
		{PropBallsFaced, &s.BallsFaced},
		{PropBallsBowled, &s.BallsBowled},
		{PropWickets, &s.Wickets},
		{PropRunsConceded, &s.RunsConceded},
	}
	for _, f := range fields {
		v, ok := props[f.prop]
		if !ok || v == nil {
			continue
		}
		n, err := toInt(v)
		if err != nil {
			return s, fmt.Errorf("player %q property %s: %w", name, f.prop, err)
		}
		*f.dst = n
	}
	return s, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

// ---- Updater ----

// Options tune the statistics rule.
type Options struct {
	// TrackRunsConceded adds batsman runs plus wides/no-ball extras to the
	// bowler's runs_conceded. When false runs_conceded stays at zero and the
	// economy rate is always 0.
	TrackRunsConceded bool
}

// Updater is the single serialized writer of Player counters. It keeps an
// accumulator keyed by player name, seeded lazily from the store so that a
// run continues any totals already persisted.
type Updater struct {
	store graph.Store
	opts  Options

	mu      sync.Mutex
	players map[string]*PlayerStats
}

// NewUpdater returns an Updater writing through store.
func NewUpdater(store graph.Store, opts Options) *Updater {
	return &Updater{
		store:   store,
		opts:    opts,
		players: make(map[string]*PlayerStats),
	}
}

// Apply adjusts the batter and bowler counters for one delivery and writes
// both players in a single transaction. The in-memory accumulator only
// advances once the write has committed.
func (u *Updater) Apply(ctx context.Context, d model.Delivery) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	batter, err := u.load(ctx, d.Batter)
	if err != nil {
		return err
	}
	bowler, err := u.load(ctx, d.Bowler)
	if err != nil {
		return err
	}

	nextBatter, nextBowler := u.next(batter, bowler, d)
	delta := graph.Delta{
		Kind:    graph.KindStats,
		Subject: "delivery " + d.Key().String(),
		Ops: []graph.Op{
			graph.PropertySet{Node: mapper.PlayerNode(d.Batter), Props: nextBatter.battingProps()},
			graph.PropertySet{Node: mapper.PlayerNode(d.Bowler), Props: nextBowler.bowlingProps()},
		},
	}
	if err := u.store.Apply(ctx, delta); err != nil {
		return err
	}

	*batter = nextBatter
	*bowler = nextBowler
	return nil
}

// next computes the post-delivery counters on copies of the current values.
// When batter and bowler are the same player the bowling update sees the
// batting update.
func (u *Updater) next(batter, bowler *PlayerStats, d model.Delivery) (PlayerStats, PlayerStats) {
	nb := *batter
	nb.RunsScored += d.BatsmanRun
	nb.BallsFaced++

	nw := *bowler
	if batter == bowler {
		nw = nb
	}
	nw.BallsBowled++
	if d.WicketDelivery {
		nw.Wickets++
	}
	if u.opts.TrackRunsConceded {
		nw.RunsConceded += d.BatsmanRun + d.BowlerExtras()
	}
	if batter == bowler {
		nb = nw
	}
	return nb, nw
}

// Stats returns a copy of the accumulated counters for a player.
func (u *Updater) Stats(ctx context.Context, name string) (PlayerStats, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	s, err := u.load(ctx, name)
	if err != nil {
		return PlayerStats{}, err
	}
	return *s, nil
}

// load must be called with u.mu held.
func (u *Updater) load(ctx context.Context, name string) (*PlayerStats, error) {
	if s, ok := u.players[name]; ok {
		return s, nil
	}
	props, _, err := u.store.NodeProperties(ctx, mapper.PlayerNode(name))
	if err != nil {
		return nil, fmt.Errorf("load player %q: %w", name, err)
	}
	s, err := StatsFromProperties(name, props)
	if err != nil {
		return nil, err
	}
	u.players[name] = &s
	return &s, nil
}
