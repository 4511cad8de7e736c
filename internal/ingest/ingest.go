// Package ingest drives a full load: match records first, then deliveries in
// ball order. Each record is mapped to graph deltas and written through a
// graph.Store; a failing record is logged and skipped without stopping the
// run.
package ingest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pable/cricket-graph/internal/aggregator"
	"github.com/pable/cricket-graph/internal/graph"
	"github.com/pable/cricket-graph/internal/mapper"
	"github.com/pable/cricket-graph/internal/metrics"
	"github.com/pable/cricket-graph/internal/model"
)

// Record kinds, used in results, logs and metrics.
const (
	KindMatch    = "match"
	KindDelivery = "delivery"
)

// StepStats is the step name logged when the statistics update fails.
const StepStats = string(graph.KindStats)

// stepAtomic is the step name logged when an atomic match write fails.
const stepAtomic = "match_record"

// Options tune a Loader.
type Options struct {
	// Atomic writes the four match deltas of a record in one transaction
	// instead of four.
	Atomic             bool
	Workers            int
	ProgressMatches    int
	ProgressDeliveries int
	// Metrics may be nil.
	Metrics *metrics.Metrics
}

// DefaultOptions returns single-worker, separable-transaction defaults.
func DefaultOptions() Options {
	return Options{Workers: 1, ProgressMatches: 50, ProgressDeliveries: 200}
}

// Result summarizes one pass over a record stream.
type Result struct {
	Kind      string
	Total     int
	Succeeded int
	Failed    int
	Elapsed   time.Duration
}

// Rate returns records processed per second.
func (r Result) Rate() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Succeeded+r.Failed) / r.Elapsed.Seconds()
}

func (r Result) String() string {
	return fmt.Sprintf("%s: %d/%d succeeded, %d failed in %s (%.1f/s)",
		r.Kind, r.Succeeded, r.Total, r.Failed, r.Elapsed.Round(time.Millisecond), r.Rate())
}

// Loader applies records to a store.
type Loader struct {
	store  graph.Store
	mapper *mapper.Mapper
	stats  *aggregator.Updater
	opts   Options
	log    *zap.Logger
	runID  string
}

// NewLoader returns a Loader writing to store. Each Loader gets its own run
// id, attached to every log line.
func NewLoader(store graph.Store, m *mapper.Mapper, stats *aggregator.Updater, log *zap.Logger, opts Options) *Loader {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.ProgressMatches < 1 {
		opts.ProgressMatches = DefaultOptions().ProgressMatches
	}
	if opts.ProgressDeliveries < 1 {
		opts.ProgressDeliveries = DefaultOptions().ProgressDeliveries
	}
	id := uuid.NewString()
	return &Loader{
		store:  store,
		mapper: m,
		stats:  stats,
		opts:   opts,
		log:    log.With(zap.String("run_id", id)),
		runID:  id,
	}
}

// RunID returns the id attached to this loader's log lines.
func (l *Loader) RunID() string { return l.runID }

// Run loads all matches, then all deliveries. It only returns an error when
// ctx is cancelled.
func (l *Loader) Run(ctx context.Context, matches []model.Match, deliveries []model.Delivery) (Result, Result, error) {
	mr, err := l.LoadMatches(ctx, matches)
	if err != nil {
		return mr, Result{Kind: KindDelivery, Total: len(deliveries)}, err
	}
	dr, err := l.LoadDeliveries(ctx, deliveries)
	return mr, dr, err
}

// ---- Matches ----

// LoadMatches applies the match-level deltas of every record. With more than
// one worker, records are sharded by match id so one match is always handled
// by one worker.
func (l *Loader) LoadMatches(ctx context.Context, matches []model.Match) (Result, error) {
	p := l.newProgress(KindMatch, len(matches), l.opts.ProgressMatches)
	l.log.Info("Inserting matches", zap.Int("total", len(matches)), zap.Int("workers", l.opts.Workers))

	if l.opts.Workers == 1 {
		for _, m := range matches {
			if err := ctx.Err(); err != nil {
				return p.result(), err
			}
			p.record(l.loadMatch(ctx, m))
		}
		return p.finish(), nil
	}

	shards := make([][]model.Match, l.opts.Workers)
	for _, m := range matches {
		i := int(uint64(m.ID) % uint64(l.opts.Workers))
		shards[i] = append(shards[i], m)
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, shard := range shards {
		g.Go(func() error {
			for _, m := range shard {
				if err := gctx.Err(); err != nil {
					return err
				}
				p.record(l.loadMatch(gctx, m))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return p.result(), err
	}
	return p.finish(), nil
}

// loadMatch writes one match record. In separable mode each delta is its own
// transaction and the first failure stops the record; earlier steps stay
// committed.
func (l *Loader) loadMatch(ctx context.Context, m model.Match) bool {
	start := time.Now()
	defer func() { l.opts.Metrics.ObserveApply(KindMatch, time.Since(start)) }()

	deltas := l.mapper.MatchDeltas(m)
	if l.opts.Atomic {
		if err := l.store.Apply(ctx, deltas...); err != nil {
			l.matchFailed(m, stepAtomic, err)
			return false
		}
		return true
	}
	for _, d := range deltas {
		if d.Empty() {
			continue
		}
		if err := l.store.Apply(ctx, d); err != nil {
			l.matchFailed(m, string(d.Kind), err)
			return false
		}
	}
	return true
}

func (l *Loader) matchFailed(m model.Match, step string, err error) {
	l.opts.Metrics.RecordStepFailure(KindMatch, step)
	l.log.Error("Error inserting match",
		zap.Int64("match_id", m.ID),
		zap.String("step", step),
		zap.Error(err))
}

// ---- Deliveries ----

// SortDeliveries orders deliveries by match, innings, over and ball. Equal
// keys keep their input order.
func SortDeliveries(deliveries []model.Delivery) []model.Delivery {
	out := make([]model.Delivery, len(deliveries))
	copy(out, deliveries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Key().Less(out[j].Key())
	})
	return out
}

// LoadDeliveries applies every delivery in ball order: first the delivery
// and wicket structure, then the batter and bowler statistics. Deliveries are
// always processed by a single goroutine because statistics are cumulative.
func (l *Loader) LoadDeliveries(ctx context.Context, deliveries []model.Delivery) (Result, error) {
	sorted := SortDeliveries(deliveries)
	p := l.newProgress(KindDelivery, len(sorted), l.opts.ProgressDeliveries)
	l.log.Info("Inserting deliveries", zap.Int("total", len(sorted)))

	for _, d := range sorted {
		if err := ctx.Err(); err != nil {
			return p.result(), err
		}
		p.record(l.loadDelivery(ctx, d))
	}
	return p.finish(), nil
}

func (l *Loader) loadDelivery(ctx context.Context, d model.Delivery) bool {
	start := time.Now()
	defer func() { l.opts.Metrics.ObserveApply(KindDelivery, time.Since(start)) }()

	delta := l.mapper.DeliveryWithWicket(d)
	if err := l.store.Apply(ctx, delta); err != nil {
		l.deliveryFailed(d, string(delta.Kind), err)
		return false
	}
	if l.stats == nil {
		return true
	}
	if err := l.stats.Apply(ctx, d); err != nil {
		l.deliveryFailed(d, StepStats, err)
		return false
	}
	return true
}

func (l *Loader) deliveryFailed(d model.Delivery, step string, err error) {
	l.opts.Metrics.RecordStepFailure(KindDelivery, step)
	l.log.Error("Error inserting ball",
		zap.String("delivery", d.Key().String()),
		zap.String("step", step),
		zap.Error(err))
}

// ---- Progress ----

// progress counts outcomes and logs throughput every interval records. It is
// safe for concurrent use.
type progress struct {
	l        *Loader
	kind     string
	total    int
	interval int64
	start    time.Time

	processed atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	mu        sync.Mutex // serializes progress log lines
}

func (l *Loader) newProgress(kind string, total, interval int) *progress {
	return &progress{l: l, kind: kind, total: total, interval: int64(interval), start: time.Now()}
}

func (p *progress) record(ok bool) {
	p.l.opts.Metrics.RecordOutcome(p.kind, ok)
	if ok {
		p.succeeded.Add(1)
	} else {
		p.failed.Add(1)
	}
	done := p.processed.Add(1)
	if done%p.interval != 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	elapsed := time.Since(p.start)
	p.l.log.Info("Progress",
		zap.String("kind", p.kind),
		zap.Int64("processed", done),
		zap.Int("total", p.total),
		zap.Float64("rate", float64(done)/elapsed.Seconds()),
		zap.Duration("elapsed", elapsed))
}

func (p *progress) result() Result {
	return Result{
		Kind:      p.kind,
		Total:     p.total,
		Succeeded: int(p.succeeded.Load()),
		Failed:    int(p.failed.Load()),
		Elapsed:   time.Since(p.start),
	}
}

func (p *progress) finish() Result {
	r := p.result()
	p.l.log.Info("Finished",
		zap.String("kind", r.Kind),
		zap.Int("succeeded", r.Succeeded),
		zap.Int("failed", r.Failed),
		zap.Duration("elapsed", r.Elapsed),
		zap.Float64("rate", r.Rate()))
	return r
}
