// Package app contains the refresh engine: the loop that pulls quote data,
// reconciles it with the loaded record sets and emits one immutable
// snapshot per cycle.
package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ruanmelo/cambiovivo/internal/domain"
	"github.com/ruanmelo/cambiovivo/internal/services/filter"
	"github.com/ruanmelo/cambiovivo/internal/services/metrics"
)

const feedTimeout = 10 * time.Second

// QuoteFeed provides the latest bid and the bounded daily history.
type QuoteFeed interface {
	Current(ctx context.Context) (decimal.Decimal, error)
	History(ctx context.Context) (domain.Series, error)
}

// RecordLoader reads both seed collections in full.
type RecordLoader interface {
	Load(ctx context.Context) (*domain.RecordSet, error)
}

// Gate decides whether a refresh may run at a given instant.
type Gate interface {
	IsOpen(now time.Time) bool
}

// Params wires an Engine. Feed, Loader and Logger are required; a nil
// Gate disables business-hours gating; a nil Clock means wall time.
type Params struct {
	Feed            QuoteFeed
	Loader          RecordLoader
	Gate            Gate
	Logger          *zap.Logger
	Location        *time.Location
	RefreshInterval time.Duration
	IdleInterval    time.Duration
	ReloadRecords   bool
	Clock           func() time.Time
}

// Engine runs the sequential refresh loop. One goroutine owns the loop;
// the dashboard reads published snapshots through Latest and mutates the
// filter specification through SetFilters.
type Engine struct {
	feed     QuoteFeed
	loader   RecordLoader
	gate     Gate
	logger   *zap.Logger
	loc      *time.Location
	refresh  time.Duration
	idle     time.Duration
	reload   bool
	clock    func() time.Time
	records  *domain.RecordSet
	filters  atomic.Pointer[domain.FilterSpec]

	mu     sync.RWMutex
	latest domain.Snapshot
	seq    uint64
}

// NewEngine creates an engine from the given wiring.
func NewEngine(p Params) *Engine {
	e := &Engine{
		feed:    p.Feed,
		loader:  p.Loader,
		gate:    p.Gate,
		logger:  p.Logger,
		loc:     p.Location,
		refresh: p.RefreshInterval,
		idle:    p.IdleInterval,
		reload:  p.ReloadRecords,
		clock:   p.Clock,
	}
	if e.loc == nil {
		e.loc = time.Local
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if e.refresh <= 0 {
		e.refresh = time.Minute
	}
	if e.idle <= 0 {
		e.idle = time.Minute
	}
	return e
}

// Bootstrap loads the session record sets and installs the default filter
// specification (today's date, every observed value selected). It must
// succeed before Run: an unreachable store or an empty seed collection
// stops the process here, before the first cycle.
func (e *Engine) Bootstrap(ctx context.Context) error {
	set, err := e.loader.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load seed record sets")
	}
	e.records = set

	spec := set.Options.DefaultSpec(e.clock().In(e.loc))
	e.filters.Store(&spec)

	return nil
}

// Run executes the refresh loop until ctx is cancelled. Per-cycle faults
// degrade that cycle's snapshot and are logged; they never stop the loop.
func (e *Engine) Run(ctx context.Context) error {
	if e.records == nil {
		return errors.New("engine not bootstrapped")
	}

	for {
		if e.gate != nil && !e.gate.IsOpen(e.clock()) {
			e.logger.Info("outside business hours, refresh paused",
				zap.Duration("recheck_in", e.idle))
			if err := e.sleep(ctx, e.idle); err != nil {
				return err
			}
			continue
		}

		snapshot := e.RunCycle(ctx)
		e.publish(snapshot)

		if err := e.sleep(ctx, e.refresh); err != nil {
			return err
		}
	}
}

// RunCycle performs one full refresh and returns the resulting snapshot.
// The filter specification is read exactly once, before any I/O, so a
// concurrent SetFilters can never produce a mixed view.
func (e *Engine) RunCycle(ctx context.Context) domain.Snapshot {
	spec := *e.filters.Load()
	generatedAt := e.clock().In(e.loc)

	records := e.sessionRecords(ctx)

	snapshot := domain.Snapshot{
		GeneratedAt: generatedAt,
		Direction:   domain.DirectionUp,
	}

	var feedFault string

	bid, err := e.fetchCurrent(ctx)
	if err != nil {
		e.logger.Warn("failed to fetch current quote", zap.Error(err))
		feedFault = fmt.Sprintf("quote feed error: %v", err)
	} else {
		snapshot.Bid = decimal.NullDecimal{Decimal: bid, Valid: true}
	}

	history, err := e.fetchHistory(ctx)
	if err != nil {
		e.logger.Error("failed to fetch quote history", zap.Error(err))
		snapshot.Valid = false
		snapshot.Status = fmt.Sprintf("history feed error: %v", err)
		return snapshot
	}
	snapshot.History = history
	snapshot.Valid = true

	if variation, ok := metrics.Variation(history); ok {
		snapshot.Variation = decimal.NullDecimal{Decimal: variation, Valid: true}
		snapshot.Direction = domain.DirectionOf(variation)
	} else {
		e.logger.Warn("not enough history for variation",
			zap.Int("points", len(history)))
	}
	snapshot.Trend = metrics.Trend(history, metrics.TrendPeriod)

	snapshot.Sales = filter.Sales(records.Sales, spec)
	snapshot.Purchases = filter.Purchases(records.Purchases, spec)

	if feedFault != "" {
		snapshot.Status = feedFault
	} else {
		snapshot.Status = fmt.Sprintf("updated, next refresh in %s", e.refresh)
	}

	return snapshot
}

// sessionRecords returns the record sets for this cycle. With reload
// enabled the collections are re-queried; a failed reload falls back to
// the previous sets instead of failing the cycle.
func (e *Engine) sessionRecords(ctx context.Context) *domain.RecordSet {
	if !e.reload {
		return e.records
	}

	fresh, err := e.loader.Load(ctx)
	if err != nil {
		e.logger.Warn("failed to reload record sets, using previous ones", zap.Error(err))
		return e.records
	}

	// Options may be read concurrently by the dashboard.
	e.mu.Lock()
	e.records = fresh
	e.mu.Unlock()
	return fresh
}

func (e *Engine) fetchCurrent(ctx context.Context) (decimal.Decimal, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, feedTimeout)
	defer cancel()
	return e.feed.Current(fetchCtx)
}

func (e *Engine) fetchHistory(ctx context.Context) (domain.Series, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, feedTimeout)
	defer cancel()
	return e.feed.History(fetchCtx)
}

func (e *Engine) publish(snapshot domain.Snapshot) {
	e.mu.Lock()
	e.latest = snapshot
	e.seq++
	seq := e.seq
	e.mu.Unlock()

	e.logger.Info("snapshot published",
		zap.Uint64("seq", seq),
		zap.Bool("valid", snapshot.Valid),
		zap.Int("history_points", len(snapshot.History)),
		zap.Int("sales", len(snapshot.Sales)),
		zap.Int("purchases", len(snapshot.Purchases)))
}

// Latest returns the most recently published snapshot and its sequence
// number; zero means nothing has been published yet.
func (e *Engine) Latest() (domain.Snapshot, uint64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.latest, e.seq
}

// SetFilters installs a new filter specification. The running cycle keeps
// the spec it already read; the next cycle picks this one up whole.
func (e *Engine) SetFilters(spec domain.FilterSpec) {
	spec.Date = domain.DateOf(spec.Date)
	e.filters.Store(&spec)
}

// Filters returns the specification the next cycle will use.
func (e *Engine) Filters() domain.FilterSpec {
	return *e.filters.Load()
}

// Options returns the distinct filterable values observed in the loaded
// record sets.
func (e *Engine) Options() domain.FilterOptions {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.records == nil {
		return domain.FilterOptions{}
	}
	return e.records.Options
}

func (e *Engine) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
