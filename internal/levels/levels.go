// Package levels computes opening-range-breakout entry, stop and
// target levels.
package levels

import (
	"errors"
	"math"

	"equity-orb-lab/internal/domain"
)

// ORB model constants.
const (
	// ORBBars is the number of session-opening bars forming the range.
	ORBBars = 5

	// Tie-break thresholds: the entry boundary counts as "close" to the
	// prior day's same-side extreme when within the tighter of
	// 0.25% of entry_ref and 20% of the opening range.
	tieBreakEntryPct = 0.0025
	tieBreakRangePct = 0.20

	// rrFloor is the committed-plan risk:reward floor, |t2-entry| >=
	// rrFloor * risk_per_share.
	rrFloor = 2.0
)

// Level computation failures. All map to ABSTAINED at the caller,
// never to a crash.
var (
	ErrInsufficientBars = errors.New("levels: fewer than five opening bars")
	ErrNoDirection      = errors.New("levels: no trade direction")
	ErrZeroRisk         = errors.New("levels: zero risk per share")
	ErrRiskRewardFloor  = errors.New("levels: risk reward floor violated")
)

// Levels holds the computed plan prices.
type Levels struct {
	ORBHigh      float64
	ORBLow       float64
	ORBRange     float64
	EntryRef     float64
	Stop         float64
	T1           float64
	T2           float64
	RiskPerShare float64
}

// Compute derives entry/stop/targets from the first five session bars,
// the chosen direction, the locked opening trend and the previous
// day's extremes.
//
// Stop selection: when the direction matches the opening trend, the
// stop defaults to the opposite ORB boundary unless the entry boundary
// sits within the tie-break threshold of the previous day's same-side
// extreme, in which case the previous-day extreme is used. When the
// direction is counter to the trend (or the trend is TR), the stop uses
// the doubled-range boundary.
func Compute(opening []domain.Bar, dir domain.Direction, ot *domain.OpeningTrend, prev domain.DayStats) (Levels, error) {
	if dir != domain.DirectionBull && dir != domain.DirectionBear {
		return Levels{}, ErrNoDirection
	}
	if len(opening) < ORBBars {
		return Levels{}, ErrInsufficientBars
	}

	orbHigh := opening[0].High
	orbLow := opening[0].Low
	for _, b := range opening[1:ORBBars] {
		orbHigh = math.Max(orbHigh, b.High)
		orbLow = math.Min(orbLow, b.Low)
	}
	orbRange := orbHigh - orbLow

	lv := Levels{ORBHigh: orbHigh, ORBLow: orbLow, ORBRange: orbRange}
	if dir == domain.DirectionBull {
		lv.EntryRef = orbHigh
	} else {
		lv.EntryRef = orbLow
	}

	lv.Stop = selectStop(lv, dir, ot, prev)

	lv.RiskPerShare = math.Abs(lv.EntryRef - lv.Stop)
	if lv.RiskPerShare <= 0 || !isFinite(lv.RiskPerShare) {
		return Levels{}, ErrZeroRisk
	}

	sign := dir.Sign()
	lv.T1 = lv.EntryRef + sign*lv.RiskPerShare
	lv.T2 = lv.EntryRef + sign*rrFloor*lv.RiskPerShare

	// Holds by construction; a violation is a programming defect and
	// the attempt is abandoned rather than armed.
	if math.Abs(lv.T2-lv.EntryRef) < rrFloor*lv.RiskPerShare {
		return Levels{}, ErrRiskRewardFloor
	}

	return lv, nil
}

func selectStop(lv Levels, dir domain.Direction, ot *domain.OpeningTrend, prev domain.DayStats) float64 {
	if trendAligned(dir, ot) {
		if dir == domain.DirectionBull {
			if closeTo(lv.ORBHigh, prev.High, lv.EntryRef, lv.ORBRange) {
				return prev.High
			}
			return lv.ORBLow
		}
		if closeTo(lv.ORBLow, prev.Low, lv.EntryRef, lv.ORBRange) {
			return prev.Low
		}
		return lv.ORBHigh
	}

	// Counter-trend (or TR) entries carry the doubled-range stop.
	if dir == domain.DirectionBull {
		return lv.ORBLow - lv.ORBRange
	}
	return lv.ORBHigh + lv.ORBRange
}

// closeTo applies the tie-break: |boundary - extreme| within the
// tighter of the two thresholds. Non-finite inputs read as not-close.
func closeTo(boundary, extreme, entryRef, orbRange float64) bool {
	if !isFinite(boundary) || !isFinite(extreme) {
		return false
	}
	threshold := math.Min(tieBreakEntryPct*entryRef, tieBreakRangePct*orbRange)
	return math.Abs(boundary-extreme) <= threshold
}

func trendAligned(dir domain.Direction, ot *domain.OpeningTrend) bool {
	if ot == nil {
		return false
	}
	return (dir == domain.DirectionBull && *ot == domain.OTBull) ||
		(dir == domain.DirectionBear && *ot == domain.OTBear)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
