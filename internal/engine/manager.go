// Package engine drives the per-symbol intraday decision lifecycle:
// tag locking at wall-clock checkpoints, direction picking, ORB level
// construction, order placement and the plan status machine.
package engine

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"equity-orb-lab/internal/bars"
	"equity-orb-lab/internal/domain"
	"equity-orb-lab/internal/levels"
	"equity-orb-lab/internal/observability"
	"equity-orb-lab/internal/oms"
	"equity-orb-lab/internal/picker"
	"equity-orb-lab/internal/risk"
	"equity-orb-lab/internal/session"
	"equity-orb-lab/internal/stats"
	"equity-orb-lab/internal/tags"
)

// SnapshotSink receives the per-symbol snapshot after every manager
// step. Implementations must not block.
type SnapshotSink interface {
	Publish(domain.Snapshot)
}

// TradeSink receives terminal trade records. Implementations must not
// block.
type TradeSink interface {
	RecordTrade(domain.TradeRecord)
}

// BarSink receives closed bars. Implementations must not block.
type BarSink interface {
	RecordBar(domain.Bar)
}

// ManagerOptions configure one symbol's Manager.
type ManagerOptions struct {
	Symbol string
	Mode   string
	// Budget is this symbol's share of the session risk budget.
	Budget float64
	// BarWidth is the aggregation bucket width in seconds.
	BarWidth int64

	Picker   picker.Config
	Schedule session.Schedule

	// PrevDay carries yesterday's stats; HavePrevDay false means the
	// PDC tag locks with no value and prev-day stop tie-breaks are off.
	PrevDay     domain.DayStats
	HavePrevDay bool

	Stats     stats.Provider
	OMS       *oms.Simulator
	Snapshots SnapshotSink
	Trades    TradeSink
	Bars      BarSink
	Log       zerolog.Logger
}

// Manager owns one symbol's complete session state. All methods must
// be called from a single goroutine (the symbol's worker); the OMS is
// the only shared component and locks internally.
type Manager struct {
	symbol string
	mode   string
	budget float64
	log    zerolog.Logger

	pickerCfg picker.Config
	schedule  session.Schedule

	prev     domain.DayStats
	havePrev bool

	agg    *bars.Aggregator
	locker *tags.Locker
	stats  stats.Provider
	sim    *oms.Simulator

	snapshots SnapshotSink
	trades    TradeSink
	barSink   BarSink

	plan    domain.Plan
	opening []domain.Bar

	openPx   float64
	haveOpen bool

	ltp       float64
	haveLTP   bool
	lastEpoch int64

	entryPx     float64
	entryTime   int64
	hasPosition bool

	realizedPnl   float64
	unrealizedPnl float64

	fired    map[string]bool
	killed   bool
	recorded bool
}

// Checkpoint names, used for firing bookkeeping and metrics.
const (
	checkpointLockPrevDay = "lock_prev_day"
	checkpointLockOpen    = "lock_open"
	checkpointLockTrend   = "lock_trend"
	checkpointArm         = "arm"
	checkpointFlatten     = "flatten"
)

// NewManager creates a Manager for one symbol session.
func NewManager(opts ManagerOptions) *Manager {
	return &Manager{
		symbol:    opts.Symbol,
		mode:      opts.Mode,
		budget:    opts.Budget,
		log:       opts.Log.With().Str("symbol", opts.Symbol).Logger(),
		pickerCfg: opts.Picker,
		schedule:  opts.Schedule,
		prev:      opts.PrevDay,
		havePrev:  opts.HavePrevDay,
		agg:       bars.New(opts.Symbol, opts.BarWidth),
		locker:    tags.NewLocker(opts.PrevDay),
		stats:     opts.Stats,
		sim:       opts.OMS,
		snapshots: opts.Snapshots,
		trades:    opts.Trades,
		barSink:   opts.Bars,
		plan:      domain.NewPlan(opts.Mode),
		fired:     make(map[string]bool, 5),
	}
}

// OnTick processes one feed tick: bar aggregation, checkpoint logic
// evaluated at the tick's timestamp, trigger detection, order sync,
// PnL update and snapshot publication.
func (m *Manager) OnTick(tick domain.Tick) {
	if !tick.Valid() || tick.Symbol != m.symbol {
		observability.RecordTickDropped(m.symbol, "invalid")
		return
	}
	observability.RecordTick(m.symbol)

	m.ltp = tick.Price
	m.haveLTP = true
	m.lastEpoch = int64(tick.Timestamp)
	if !m.haveOpen {
		m.openPx = tick.Price
		m.haveOpen = true
	}

	if closed := m.agg.OnTick(tick.Timestamp, tick.Price, tick.Volume); closed != nil {
		m.onBarClosed(*closed)
	}

	m.applyCheckpoints(tick.Time())

	if !m.killed {
		m.step(tick)
	}

	m.updateUnrealized()
	m.publish()
}

// OnTime advances checkpoint logic on a quiet market. The worker calls
// it periodically with the session clock so locks, arming and the
// forced flatten fire even without ticks.
func (m *Manager) OnTime(now time.Time) {
	m.applyCheckpoints(now)
	m.updateUnrealized()
	m.publish()
}

// Kill force-exits any position and cancels any unfilled plan. The
// manager stops acting on ticks afterward; snapshots keep flowing.
func (m *Manager) Kill() {
	if m.killed {
		return
	}
	m.killed = true

	switch m.plan.Status {
	case domain.StatusLive:
		m.sim.ForceExit(m.symbol)
		m.exitPosition(m.ltp, domain.ExitReasonKillSwitch)
		observability.RecordForcedExit("kill_switch")
	case domain.StatusArmed, domain.StatusOrderSent, domain.StatusIdle:
		m.sim.ForceExit(m.symbol)
		m.transition(domain.StatusMissed)
		m.recordTrade(domain.ExitReasonKillSwitch)
		observability.RecordForcedExit("kill_switch")
	}
	m.publish()
}

// Plan returns a copy of the current plan.
func (m *Manager) Plan() domain.Plan {
	return m.plan
}

// step runs the ARMED trigger check and the OMS sync for the tick.
// The tick that places the order never also syncs it: a single print
// at the trigger must not both create and fill the order.
func (m *Manager) step(tick domain.Tick) {
	switch m.plan.Status {
	case domain.StatusArmed:
		if m.triggerCrossed(tick.Price) {
			m.sim.PlaceEntry(m.symbol, m.plan.Direction, m.plan.Trigger, m.plan.Qty)
			observability.DefaultMetrics.OrdersPlaced.Inc()
			m.transition(domain.StatusOrderSent)
		}

	case domain.StatusOrderSent, domain.StatusLive:
		update, ok := m.sim.Sync(m.symbol, tick.Price, m.plan.Trigger, m.plan.Stop, m.plan.T1, m.plan.T2)
		if !ok {
			return
		}
		m.applyUpdate(update, tick)
	}
}

func (m *Manager) applyUpdate(update oms.Update, tick domain.Tick) {
	switch update.Event {
	case oms.EventFill:
		m.entryPx = update.Price
		m.entryTime = int64(tick.Timestamp)
		m.hasPosition = true
		observability.DefaultMetrics.OrdersFilled.Inc()
		m.transition(domain.StatusLive)
		m.log.Info().Float64("price", update.Price).Int64("qty", m.plan.Qty).Msg("entry filled")

	case oms.EventStop:
		m.exitPosition(update.Price, domain.ExitReasonStop)

	case oms.EventT2:
		m.exitPosition(update.Price, domain.ExitReasonTarget2)

	case oms.EventT1:
		m.log.Info().Float64("price", update.Price).Msg("target 1 reached")
	}
}

// exitPosition books the realized PnL and retires the plan.
func (m *Manager) exitPosition(exitPx float64, reason string) {
	if m.hasPosition {
		m.realizedPnl += (exitPx - m.entryPx) * m.plan.Direction.Sign() * float64(m.plan.Qty)
		m.hasPosition = false
	}
	m.unrealizedPnl = 0
	m.transition(domain.StatusFlat)
	m.recordTradeAt(exitPx, reason)
	m.log.Info().Str("reason", reason).Float64("exit", exitPx).Float64("realized", m.realizedPnl).Msg("position closed")
}

func (m *Manager) triggerCrossed(last float64) bool {
	if m.plan.Direction == domain.DirectionBull {
		return last >= m.plan.Trigger
	}
	return last <= m.plan.Trigger
}

// applyCheckpoints fires, in session order, every checkpoint whose
// wall-clock time has been reached. Each fires exactly once per
// session; firing order is preserved even when a late start makes
// several due at once.
func (m *Manager) applyCheckpoints(now time.Time) {
	if m.due(now, m.schedule.LockPrevDay, checkpointLockPrevDay) {
		m.lockPrevDay()
	}
	if m.due(now, m.schedule.LockOpen, checkpointLockOpen) {
		m.lockOpen()
	}
	if m.due(now, m.schedule.LockTrend, checkpointLockTrend) {
		m.lockTrend()
	}
	if m.due(now, m.schedule.Arm, checkpointArm) {
		m.arm()
	}
	if m.due(now, m.schedule.Flatten, checkpointFlatten) {
		m.flatten()
	}
}

func (m *Manager) due(now, at time.Time, name string) bool {
	if m.fired[name] || now.Before(at) {
		return false
	}
	m.fired[name] = true
	observability.RecordCheckpoint(name)
	return true
}

func (m *Manager) lockPrevDay() {
	m.locker.LockPrevDayContext(m.havePrev)
	m.log.Debug().Msg("prev-day context locked")
}

func (m *Manager) lockOpen() {
	m.locker.LockOpenLocation(m.openPx, m.haveOpen && m.havePrev)
	m.log.Debug().Float64("open", m.openPx).Msg("open location locked")
}

// lockTrend commits the opening tag set and runs the picker. The plan
// keeps status IDLE until the arm checkpoint; only the direction,
// confidence and tier are decided here.
func (m *Manager) lockTrend() {
	m.locker.LockOpeningSet(m.openingBars())

	if m.plan.Status != domain.StatusIdle || m.killed {
		return
	}

	tagSet := m.locker.Tags()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	table, err := m.stats.Table(ctx, m.symbol, tagSet)
	if err != nil {
		m.log.Error().Err(err).Msg("frequency lookup failed, abstaining")
		observability.RecordAbstain("stats_unavailable")
		m.transition(domain.StatusAbstained)
		return
	}
	if err := table.Validate(); err != nil {
		m.log.Error().Err(err).Msg("invalid frequency table, abstaining")
		observability.RecordAbstain("stats_invalid")
		m.transition(domain.StatusAbstained)
		return
	}

	result := picker.Pick(table, tagSet.OT, m.pickerCfg)
	if result.Direction == domain.DirectionNone {
		observability.RecordAbstain("no_qualifying_tier")
		m.transition(domain.StatusAbstained)
		m.log.Info().Msg("picker abstained")
		return
	}

	m.plan.Direction = result.Direction
	m.plan.Confidence = result.Confidence
	m.plan.Level = result.Tier
	m.log.Info().
		Str("direction", string(result.Direction)).
		Int("confidence", result.Confidence).
		Str("tier", string(result.Tier)).
		Msg("direction picked")
}

// arm builds the ORB levels and sizes the position. Every failure path
// is a regular ABSTAINED outcome, never an error.
func (m *Manager) arm() {
	if m.plan.Status != domain.StatusIdle || m.killed {
		return
	}
	if m.plan.Direction == domain.DirectionNone {
		observability.RecordAbstain("no_direction")
		m.transition(domain.StatusAbstained)
		return
	}

	tagSet := m.locker.Tags()
	prev := m.prev
	if !m.havePrev {
		prev = domain.DayStats{}
	}

	lv, err := levels.Compute(m.openingBars(), m.plan.Direction, tagSet.OT, prev)
	if err != nil {
		m.log.Warn().Err(err).Msg("level construction failed, abstaining")
		observability.RecordAbstain("levels")
		m.transition(domain.StatusAbstained)
		return
	}

	qty := risk.SizeQty(m.budget, lv.RiskPerShare)
	if qty == 0 {
		m.log.Info().Float64("risk_per_share", lv.RiskPerShare).Msg("budget too small for one share, abstaining")
		observability.RecordAbstain("zero_qty")
		m.transition(domain.StatusAbstained)
		return
	}

	m.plan.EntryRef = lv.EntryRef
	m.plan.Trigger = lv.EntryRef
	m.plan.Stop = lv.Stop
	m.plan.T1 = lv.T1
	m.plan.T2 = lv.T2
	m.plan.Qty = qty
	m.transition(domain.StatusArmed)
	m.log.Info().
		Float64("trigger", m.plan.Trigger).
		Float64("stop", m.plan.Stop).
		Float64("t2", m.plan.T2).
		Int64("qty", qty).
		Msg("plan armed")
}

// flatten is the forced end-of-day exit. A live position exits at the
// last price; an unfilled plan is cancelled and marked MISSED.
func (m *Manager) flatten() {
	if closed := m.agg.Flush(); closed != nil {
		m.onBarClosed(*closed)
	}

	switch m.plan.Status {
	case domain.StatusLive:
		m.sim.ForceExit(m.symbol)
		m.exitPosition(m.ltp, domain.ExitReasonEndOfDay)
		observability.RecordForcedExit("eod")

	case domain.StatusArmed, domain.StatusOrderSent, domain.StatusIdle:
		m.sim.ForceExit(m.symbol)
		m.transition(domain.StatusMissed)
		m.recordTrade(domain.ExitReasonCancelled)
		m.log.Info().Msg("session over before fill, plan missed")
	}
}

func (m *Manager) onBarClosed(bar domain.Bar) {
	observability.RecordBarClosed(m.symbol)
	if len(m.opening) < levels.ORBBars {
		m.opening = append(m.opening, bar)
	}
	if m.barSink != nil {
		m.barSink.RecordBar(bar)
	}
}

// openingBars returns the closed opening bars, including the still-open
// bucket when fewer than five have closed by lock time.
func (m *Manager) openingBars() []domain.Bar {
	if len(m.opening) >= levels.ORBBars {
		return m.opening
	}
	out := make([]domain.Bar, len(m.opening), len(m.opening)+1)
	copy(out, m.opening)
	if cur := m.agg.Current(); cur != nil {
		out = append(out, *cur)
	}
	return out
}

func (m *Manager) transition(status domain.Status) {
	if m.plan.Status == status {
		return
	}
	m.plan.Status = status
	observability.RecordTransition(m.symbol, string(status))
}

func (m *Manager) updateUnrealized() {
	if m.hasPosition && m.haveLTP {
		m.unrealizedPnl = (m.ltp - m.entryPx) * m.plan.Direction.Sign() * float64(m.plan.Qty)
	} else {
		m.unrealizedPnl = 0
	}
}

func (m *Manager) recordTrade(reason string) {
	m.recordTradeAt(0, reason)
}

// recordTradeAt emits the terminal trade record once per session.
func (m *Manager) recordTradeAt(exitPx float64, reason string) {
	if m.recorded || m.trades == nil {
		return
	}
	m.recorded = true

	exitTime := m.lastEpoch
	if exitTime == 0 {
		exitTime = m.schedule.Flatten.Unix()
	}

	m.trades.RecordTrade(domain.TradeRecord{
		TradeID:     uuid.NewString(),
		Symbol:      m.symbol,
		Day:         m.schedule.DayString(),
		Mode:        m.mode,
		Direction:   m.plan.Direction,
		Level:       m.plan.Level,
		Confidence:  m.plan.Confidence,
		Qty:         m.plan.Qty,
		EntryTime:   m.entryTime,
		EntryPrice:  m.entryPx,
		ExitTime:    exitTime,
		ExitPrice:   exitPx,
		ExitReason:  reason,
		RealizedPnl: m.realizedPnl,
		Status:      m.plan.Status,
	})
}

// Snapshot assembles the wire-contract snapshot for the symbol.
func (m *Manager) Snapshot() domain.Snapshot {
	return domain.Snapshot{
		Symbol:        m.symbol,
		LTP:           m.ltp,
		Tags:          domain.SnapshotTags(m.locker.Tags()),
		Plan:          domain.SnapshotPlan(m.plan),
		UnrealizedPnl: round2(m.unrealizedPnl),
		RealizedPnl:   round2(m.realizedPnl),
		HasPosition:   m.hasPosition,
	}
}

func (m *Manager) publish() {
	if m.snapshots != nil {
		m.snapshots.Publish(m.Snapshot())
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
