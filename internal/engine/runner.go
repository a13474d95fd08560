package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"equity-orb-lab/internal/domain"
	"equity-orb-lab/internal/observability"
	"equity-orb-lab/internal/oms"
	"equity-orb-lab/internal/picker"
	"equity-orb-lab/internal/risk"
	"equity-orb-lab/internal/session"
	"equity-orb-lab/internal/stats"
	"equity-orb-lab/internal/storage"
)

// Options for creating a Runner.
type Options struct {
	Symbols  []string
	Mode     string
	Budget   float64 // session-wide, split evenly across symbols
	BarWidth int64

	Picker   picker.Config
	Schedule session.Schedule
	Clock    session.Clock

	// PrevDay holds per-symbol previous-day stats; symbols absent from
	// the map trade without prev-day context.
	PrevDay map[string]domain.DayStats

	Stats     stats.Provider
	Snapshots SnapshotSink

	// Optional persistence; nil stores disable the concern.
	TradeStore storage.TradeStore
	BarStore   storage.BarStore

	// TickPeriod is the quiet-market clock pulse interval.
	TickPeriod time.Duration

	Log zerolog.Logger
}

// Runner fans ticks out to per-symbol workers and owns the kill
// switch and background persistence.
type Runner struct {
	log     zerolog.Logger
	workers map[string]*worker
	sim     *oms.Simulator
	killed  atomic.Bool

	tradeStore storage.TradeStore
	barStore   storage.BarStore
	tradeCh    chan domain.TradeRecord
	barCh      chan domain.Bar

	wg sync.WaitGroup
}

// NewRunner builds one Manager and worker per configured symbol.
func NewRunner(opts Options) *Runner {
	clock := opts.Clock
	if clock == nil {
		clock = session.RealClock{}
	}

	r := &Runner{
		log:        opts.Log,
		workers:    make(map[string]*worker, len(opts.Symbols)),
		sim:        oms.New(),
		tradeStore: opts.TradeStore,
		barStore:   opts.BarStore,
		tradeCh:    make(chan domain.TradeRecord, 256),
		barCh:      make(chan domain.Bar, 1024),
	}

	perSymbol := risk.SplitBudget(opts.Budget, len(opts.Symbols))
	for _, symbol := range opts.Symbols {
		prev, havePrev := opts.PrevDay[symbol]
		m := NewManager(ManagerOptions{
			Symbol:      symbol,
			Mode:        opts.Mode,
			Budget:      perSymbol,
			BarWidth:    opts.BarWidth,
			Picker:      opts.Picker,
			Schedule:    opts.Schedule,
			PrevDay:     prev,
			HavePrevDay: havePrev,
			Stats:       opts.Stats,
			OMS:         r.sim,
			Snapshots:   opts.Snapshots,
			Trades:      r,
			Bars:        r,
			Log:         opts.Log,
		})
		r.workers[symbol] = newWorker(m, clock, opts.TickPeriod)
	}
	return r
}

// Run starts all workers and persistence loops and blocks until ctx is
// canceled.
func (r *Runner) Run(ctx context.Context) {
	for _, w := range r.workers {
		r.wg.Add(1)
		go func(w *worker) {
			defer r.wg.Done()
			w.run(ctx)
		}(w)
	}

	r.wg.Add(2)
	go func() {
		defer r.wg.Done()
		r.persistTrades(ctx)
	}()
	go func() {
		defer r.wg.Done()
		r.persistBars(ctx)
	}()

	r.wg.Wait()
}

// RunReplay consumes ticks synchronously, in channel order, without
// worker goroutines or clock pulses. Checkpoints fire only from tick
// timestamps, so a manager never sees a clock ahead of its queued
// ticks and identical inputs yield identical transitions. After the
// channel closes every manager gets one pulse at final to fire the
// remaining checkpoints, then queued records are flushed before
// returning.
func (r *Runner) RunReplay(ctx context.Context, ticks <-chan domain.Tick, final time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case tick, ok := <-ticks:
			if !ok {
				r.finishReplay(final)
				return
			}
			w, known := r.workers[tick.Symbol]
			if !known {
				observability.RecordTickDropped(tick.Symbol, "unknown_symbol")
				continue
			}
			w.manager.OnTick(tick)
		}
	}
}

func (r *Runner) finishReplay(final time.Time) {
	for _, w := range r.workers {
		w.manager.OnTime(final)
	}

	// Nothing produces records anymore; drain the sinks inline.
	for len(r.tradeCh) > 0 {
		r.insertTrade(<-r.tradeCh)
	}
	var batch []*domain.Bar
	for len(r.barCh) > 0 {
		b := <-r.barCh
		batch = append(batch, &b)
	}
	r.insertBars(batch)
}

// Dispatch routes a tick to its symbol's worker. Ticks for unknown
// symbols are dropped.
func (r *Runner) Dispatch(tick domain.Tick) {
	w, ok := r.workers[tick.Symbol]
	if !ok {
		observability.RecordTickDropped(tick.Symbol, "unknown_symbol")
		return
	}
	if !w.offer(tick) {
		observability.RecordTickDropped(tick.Symbol, "backpressure")
	}
}

// Kill engages the kill switch: every symbol force-exits its position
// or cancels its plan. Idempotent.
func (r *Runner) Kill() {
	if r.killed.Swap(true) {
		return
	}
	observability.SetKillSwitch(true)
	r.log.Warn().Msg("kill switch engaged")
	for _, w := range r.workers {
		w.signalKill()
	}
}

// Killed reports whether the kill switch has been engaged.
func (r *Runner) Killed() bool {
	return r.killed.Load()
}

// RecordTrade implements TradeSink. Never blocks the decision path.
func (r *Runner) RecordTrade(t domain.TradeRecord) {
	select {
	case r.tradeCh <- t:
	default:
		r.log.Error().Str("trade_id", t.TradeID).Msg("trade record dropped, buffer full")
	}
}

// RecordBar implements BarSink. Never blocks the decision path.
func (r *Runner) RecordBar(b domain.Bar) {
	select {
	case r.barCh <- b:
	default:
	}
}

func (r *Runner) persistTrades(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-r.tradeCh:
			r.insertTrade(t)
		}
	}
}

func (r *Runner) insertTrade(t domain.TradeRecord) {
	if r.tradeStore == nil {
		return
	}
	insertCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.tradeStore.Insert(insertCtx, &t); err != nil {
		r.log.Error().Err(err).Str("trade_id", t.TradeID).Msg("failed to persist trade record")
	}
}

func (r *Runner) insertBars(batch []*domain.Bar) {
	if len(batch) == 0 || r.barStore == nil {
		return
	}
	insertCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.barStore.InsertBulk(insertCtx, batch); err != nil {
		r.log.Error().Err(err).Int("bars", len(batch)).Msg("failed to persist bar batch")
	}
}

// persistBars batches closed bars to cut insert round-trips.
func (r *Runner) persistBars(ctx context.Context) {
	const flushEvery = 5 * time.Second
	ticker := time.NewTicker(flushEvery)
	defer ticker.Stop()

	var batch []*domain.Bar
	flush := func() {
		r.insertBars(batch)
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case b := <-r.barCh:
			bar := b
			batch = append(batch, &bar)
			if len(batch) >= 100 {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
