package engine

import (
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"equity-orb-lab/internal/domain"
	"equity-orb-lab/internal/observability"
	"equity-orb-lab/internal/oms"
	"equity-orb-lab/internal/picker"
	"equity-orb-lab/internal/session"
	"equity-orb-lab/internal/stats"
)

type captureSnapshots struct {
	snaps []domain.Snapshot
}

func (c *captureSnapshots) Publish(s domain.Snapshot) { c.snaps = append(c.snaps, s) }

func (c *captureSnapshots) last(t *testing.T) domain.Snapshot {
	t.Helper()
	if len(c.snaps) == 0 {
		t.Fatal("no snapshots published")
	}
	return c.snaps[len(c.snaps)-1]
}

type captureTrades struct {
	trades []domain.TradeRecord
}

func (c *captureTrades) RecordTrade(r domain.TradeRecord) { c.trades = append(c.trades, r) }

// at builds a session-day instant (UTC, 2026-08-28).
func at(h, m, s int) time.Time {
	return time.Date(2026, 8, 28, h, m, s, 0, time.UTC)
}

func testSchedule() session.Schedule {
	return session.Schedule{
		Day:         at(0, 0, 0),
		LockPrevDay: at(9, 0, 0),
		LockOpen:    at(9, 15, 5),
		LockTrend:   at(9, 45, 0),
		Arm:         at(9, 50, 0),
		Flatten:     at(15, 15, 0),
	}
}

func testPickerConfig() picker.Config {
	return picker.Config{
		MinSamples: map[domain.Tier]uint{
			domain.TierL3: 8, domain.TierL2: 6, domain.TierL1: 4, domain.TierL0: 2,
		},
		MinConfidence:  55,
		RequireOTAlign: true,
	}
}

func bullFixture() *stats.FixtureProvider {
	return &stats.FixtureProvider{Fixed: domain.FrequencyTable{
		domain.TierL3: {Bull: 2, Bear: 1},
		domain.TierL2: {Bull: 9, Bear: 1},
		domain.TierL1: {},
		domain.TierL0: {},
	}}
}

func newTestManager(snaps *captureSnapshots, trades *captureTrades) *Manager {
	return NewManager(ManagerOptions{
		Symbol:      "RELIANCE",
		Mode:        "paper",
		Budget:      500,
		BarWidth:    60,
		Picker:      testPickerConfig(),
		Schedule:    testSchedule(),
		PrevDay:     domain.DayStats{Symbol: "RELIANCE", Day: "2026-08-27", Open: 98, High: 110, Low: 95, Close: 104},
		HavePrevDay: true,
		Stats:       bullFixture(),
		OMS:         oms.New(),
		Snapshots:   snaps,
		Trades:      trades,
		Log:         zerolog.Nop(),
	})
}

func tickAt(m *Manager, when time.Time, price float64) {
	m.OnTick(domain.Tick{Symbol: "RELIANCE", Timestamp: float64(when.Unix()), Price: price, Volume: 1})
}

// feedOpeningBars drives five one-minute bars whose extremes form an
// opening range of 100..105 with an upward drift.
func feedOpeningBars(m *Manager) {
	points := []struct {
		when  time.Time
		price float64
	}{
		{at(9, 15, 0), 100.0},
		{at(9, 15, 30), 101.0},
		{at(9, 16, 0), 103.0},
		{at(9, 16, 20), 105.0},
		{at(9, 16, 40), 104.0},
		{at(9, 17, 0), 104.0},
		{at(9, 17, 30), 104.5},
		{at(9, 18, 0), 104.0},
		{at(9, 18, 30), 104.2},
		{at(9, 19, 0), 104.5},
		{at(9, 19, 30), 104.8},
		{at(9, 20, 0), 104.8},
	}
	for _, p := range points {
		tickAt(m, p.when, p.price)
	}
}

func wantStatus(t *testing.T, m *Manager, want domain.Status) {
	t.Helper()
	if got := m.Plan().Status; got != want {
		t.Fatalf("plan status = %s, want %s", got, want)
	}
}

func TestManager_EndToEndBullStopOut(t *testing.T) {
	snaps := &captureSnapshots{}
	trades := &captureTrades{}
	m := newTestManager(snaps, trades)

	m.OnTime(at(9, 0, 0)) // prev-day context locks
	feedOpeningBars(m)
	wantStatus(t, m, domain.StatusIdle)

	m.OnTime(at(9, 45, 0)) // trend locks, picker runs
	plan := m.Plan()
	if plan.Direction != domain.DirectionBull || plan.Confidence != 90 || plan.Level != domain.TierL2 {
		t.Fatalf("pick = %s/%d/%s, want BULL/90/L2", plan.Direction, plan.Confidence, plan.Level)
	}
	wantStatus(t, m, domain.StatusIdle)

	m.OnTime(at(9, 50, 0)) // arm
	wantStatus(t, m, domain.StatusArmed)
	plan = m.Plan()
	if plan.Trigger != 105 || plan.Stop != 100 || plan.T1 != 110 || plan.T2 != 115 {
		t.Fatalf("levels = trigger %g stop %g t1 %g t2 %g, want 105/100/110/115", plan.Trigger, plan.Stop, plan.T1, plan.T2)
	}
	if plan.Qty != 100 {
		t.Fatalf("qty = %d, want 100", plan.Qty)
	}

	tickAt(m, at(9, 51, 0), 103) // below trigger
	wantStatus(t, m, domain.StatusArmed)

	tickAt(m, at(9, 52, 0), 105) // trigger cross places the order; no fill on the same tick
	wantStatus(t, m, domain.StatusOrderSent)
	if snaps.last(t).HasPosition {
		t.Error("position flagged before fill")
	}

	tickAt(m, at(9, 53, 0), 107) // fills at trigger price
	wantStatus(t, m, domain.StatusLive)
	snap := snaps.last(t)
	if !snap.HasPosition {
		t.Error("has_position false while LIVE")
	}
	if snap.UnrealizedPnl != 200 { // (107-105)*100
		t.Errorf("unrealized = %g, want 200", snap.UnrealizedPnl)
	}

	tickAt(m, at(9, 54, 0), 100) // stop
	wantStatus(t, m, domain.StatusFlat)

	snap = snaps.last(t)
	if snap.HasPosition {
		t.Error("has_position true after stop-out")
	}
	if snap.RealizedPnl != -500 { // (100-105)*100
		t.Errorf("realized = %g, want -500", snap.RealizedPnl)
	}
	if snap.UnrealizedPnl != 0 {
		t.Errorf("unrealized = %g after exit, want 0", snap.UnrealizedPnl)
	}

	if len(trades.trades) != 1 {
		t.Fatalf("got %d trade records, want 1", len(trades.trades))
	}
	rec := trades.trades[0]
	if rec.ExitReason != domain.ExitReasonStop || rec.Status != domain.StatusFlat {
		t.Errorf("trade record = %s/%s, want STOP_HIT/FLAT", rec.ExitReason, rec.Status)
	}
	if rec.EntryPrice != 105 || rec.ExitPrice != 100 || rec.Qty != 100 {
		t.Errorf("trade record prices = entry %g exit %g qty %d", rec.EntryPrice, rec.ExitPrice, rec.Qty)
	}
	if rec.RealizedPnl != -500 {
		t.Errorf("trade record pnl = %g, want -500", rec.RealizedPnl)
	}
}

func TestManager_QuietMarketCheckpointsFireOnClock(t *testing.T) {
	snaps := &captureSnapshots{}
	m := newTestManager(snaps, &captureTrades{})

	// No ticks at all: every checkpoint still fires off the clock.
	m.OnTime(at(9, 0, 0))
	m.OnTime(at(9, 15, 5))
	m.OnTime(at(9, 45, 0))

	snap := snaps.last(t)
	if snap.Tags.PDC == "" {
		t.Error("pdc not locked on a quiet market")
	}
	if snap.Tags.OL != "" || snap.Tags.OT != "" {
		t.Errorf("tags computed without data: ol=%q ot=%q", snap.Tags.OL, snap.Tags.OT)
	}

	// No opening trend means no aligned tier can qualify.
	wantStatus(t, m, domain.StatusAbstained)

	m.OnTime(at(9, 50, 0))
	m.OnTime(at(15, 15, 0))
	wantStatus(t, m, domain.StatusAbstained) // terminal, flatten leaves it alone
}

func TestManager_LateStartFiresMissedCheckpointsInOrder(t *testing.T) {
	snaps := &captureSnapshots{}
	m := newTestManager(snaps, &captureTrades{})

	feedOpeningBars(m)

	// First clock pulse arrives after the arm checkpoint: lock, pick
	// and arm must all fire, in session order, on this single pulse.
	m.OnTime(at(9, 55, 0))
	wantStatus(t, m, domain.StatusArmed)

	snap := snaps.last(t)
	if snap.Tags.OT != string(domain.OTBull) {
		t.Errorf("ot tag = %q, want BULL", snap.Tags.OT)
	}
}

func TestManager_FlattenExitsLivePosition(t *testing.T) {
	snaps := &captureSnapshots{}
	trades := &captureTrades{}
	m := newTestManager(snaps, trades)

	feedOpeningBars(m)
	m.OnTime(at(9, 45, 0))
	m.OnTime(at(9, 50, 0))
	tickAt(m, at(9, 52, 0), 105)
	tickAt(m, at(9, 53, 0), 108)
	wantStatus(t, m, domain.StatusLive)

	m.OnTime(at(15, 15, 0))
	wantStatus(t, m, domain.StatusFlat)

	if len(trades.trades) != 1 {
		t.Fatalf("got %d trade records, want 1", len(trades.trades))
	}
	rec := trades.trades[0]
	if rec.ExitReason != domain.ExitReasonEndOfDay {
		t.Errorf("exit reason = %s, want EOD_FLATTEN", rec.ExitReason)
	}
	if rec.RealizedPnl != 300 { // exit at last price 108
		t.Errorf("realized = %g, want 300", rec.RealizedPnl)
	}
}

func TestManager_FlattenCancelsUnfilledOrder(t *testing.T) {
	trades := &captureTrades{}
	m := newTestManager(&captureSnapshots{}, trades)

	feedOpeningBars(m)
	m.OnTime(at(9, 45, 0))
	m.OnTime(at(9, 50, 0))
	tickAt(m, at(9, 52, 0), 105)
	wantStatus(t, m, domain.StatusOrderSent)

	// Never fills: end of day cancels and marks the plan missed.
	m.OnTime(at(15, 15, 0))
	wantStatus(t, m, domain.StatusMissed)

	if len(trades.trades) != 1 {
		t.Fatalf("got %d trade records, want 1", len(trades.trades))
	}
	rec := trades.trades[0]
	if rec.ExitReason != domain.ExitReasonCancelled || rec.EntryTime != 0 {
		t.Errorf("record = %s entry_time %d, want CANCELLED with no entry", rec.ExitReason, rec.EntryTime)
	}
}

func TestManager_KillSwitchExitsPosition(t *testing.T) {
	trades := &captureTrades{}
	m := newTestManager(&captureSnapshots{}, trades)

	feedOpeningBars(m)
	m.OnTime(at(9, 45, 0))
	m.OnTime(at(9, 50, 0))
	tickAt(m, at(9, 52, 0), 105)
	tickAt(m, at(9, 53, 0), 106)
	wantStatus(t, m, domain.StatusLive)

	m.Kill()
	wantStatus(t, m, domain.StatusFlat)

	if len(trades.trades) != 1 || trades.trades[0].ExitReason != domain.ExitReasonKillSwitch {
		t.Fatalf("expected one KILL_SWITCH trade record, got %+v", trades.trades)
	}

	// Killed managers ignore further ticks.
	tickAt(m, at(9, 54, 0), 120)
	wantStatus(t, m, domain.StatusFlat)
}

func TestManager_KillSwitchCancelsArmedPlan(t *testing.T) {
	trades := &captureTrades{}
	m := newTestManager(&captureSnapshots{}, trades)

	feedOpeningBars(m)
	m.OnTime(at(9, 45, 0))
	m.OnTime(at(9, 50, 0))
	wantStatus(t, m, domain.StatusArmed)

	m.Kill()
	wantStatus(t, m, domain.StatusMissed)
}

func TestManager_KillOnTerminalPlanChangesNothing(t *testing.T) {
	trades := &captureTrades{}
	m := newTestManager(&captureSnapshots{}, trades)

	m.OnTime(at(15, 15, 0)) // quiet session: no bars, plan ends ABSTAINED
	wantStatus(t, m, domain.StatusAbstained)
	before := testutil.ToFloat64(observability.DefaultMetrics.ForcedExits.WithLabelValues("kill_switch"))

	m.Kill()
	wantStatus(t, m, domain.StatusAbstained)
	if len(trades.trades) != 0 {
		t.Errorf("got %d trade records from killing a terminal plan, want 0", len(trades.trades))
	}
	after := testutil.ToFloat64(observability.DefaultMetrics.ForcedExits.WithLabelValues("kill_switch"))
	if after != before {
		t.Errorf("forced-exit count moved from %g to %g with nothing to exit", before, after)
	}
}

func TestManager_InvalidTicksDropped(t *testing.T) {
	snaps := &captureSnapshots{}
	m := newTestManager(snaps, &captureTrades{})

	before := len(snaps.snaps)
	m.OnTick(domain.Tick{Symbol: "RELIANCE", Timestamp: float64(at(9, 16, 0).Unix()), Price: math.NaN()})
	m.OnTick(domain.Tick{Symbol: "RELIANCE", Timestamp: float64(at(9, 16, 0).Unix()), Price: math.Inf(1)})
	m.OnTick(domain.Tick{Symbol: "OTHER", Timestamp: float64(at(9, 16, 0).Unix()), Price: 100})
	m.OnTick(domain.Tick{Symbol: "RELIANCE", Timestamp: 0, Price: 100})

	if len(snaps.snaps) != before {
		t.Error("invalid ticks published snapshots")
	}
	if m.Plan().Status != domain.StatusIdle {
		t.Error("invalid ticks mutated plan state")
	}
}

func TestManager_ZeroQtyAbstains(t *testing.T) {
	snaps := &captureSnapshots{}
	m := NewManager(ManagerOptions{
		Symbol:      "RELIANCE",
		Mode:        "paper",
		Budget:      1, // risk per share is 5, budget buys zero shares
		BarWidth:    60,
		Picker:      testPickerConfig(),
		Schedule:    testSchedule(),
		PrevDay:     domain.DayStats{Symbol: "RELIANCE", Day: "2026-08-27", Open: 98, High: 110, Low: 95, Close: 104},
		HavePrevDay: true,
		Stats:       bullFixture(),
		OMS:         oms.New(),
		Snapshots:   snaps,
		Log:         zerolog.Nop(),
	})

	feedOpeningBars(m)
	m.OnTime(at(9, 45, 0))
	m.OnTime(at(9, 50, 0))
	wantStatus(t, m, domain.StatusAbstained)
	if m.Plan().Qty != 0 {
		t.Errorf("qty = %d, want 0", m.Plan().Qty)
	}
}
