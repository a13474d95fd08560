// Package tags derives the day's categorical context tags from bar
// history and commits each one exactly once at its checkpoint.
package tags

import (
	"math"

	"equity-orb-lab/internal/domain"
)

// Classification thresholds. Fractions of the relevant range.
const (
	pdcUpperFrac   = 2.0 / 3.0 // close above this fraction of prev range: BULLISH
	pdcLowerFrac   = 1.0 / 3.0
	trendMoveFrac  = 0.30 // net move vs opening range below this: TR
	candleBodyFrac = 0.60 // body fraction below this: DOJI
	rangeNarrowPct = 0.15 // opening range vs prev day range
	rangeWidePct   = 0.30
)

// PrevDayContextOf classifies where the prior day closed in its range.
func PrevDayContextOf(prev domain.DayStats) domain.PrevDayContext {
	rng := prev.Range()
	if !isFinite(rng) || rng <= 0 {
		return domain.PDCNeutral
	}
	pos := (prev.Close - prev.Low) / rng
	switch {
	case pos >= pdcUpperFrac:
		return domain.PDCBullish
	case pos <= pdcLowerFrac:
		return domain.PDCBearish
	default:
		return domain.PDCNeutral
	}
}

// OpenLocationOf classifies today's opening price against the prior
// day's range.
func OpenLocationOf(open float64, prev domain.DayStats) domain.OpenLocation {
	mid := prev.Low + prev.Range()/2
	switch {
	case open > prev.High:
		return domain.OLAbovePrevHigh
	case open < prev.Low:
		return domain.OLBelowPrevLow
	case open >= mid:
		return domain.OLUpperHalf
	default:
		return domain.OLLowerHalf
	}
}

// OpeningTrendOf classifies the net drift of the opening bars relative
// to their own range. Fewer than two bars, or a degenerate range, reads
// as TR.
func OpeningTrendOf(opening []domain.Bar) domain.OpeningTrend {
	if len(opening) < 2 {
		return domain.OTRange
	}
	high := opening[0].High
	low := opening[0].Low
	for _, b := range opening[1:] {
		high = math.Max(high, b.High)
		low = math.Min(low, b.Low)
	}
	rng := high - low
	if rng <= 0 {
		return domain.OTRange
	}
	net := opening[len(opening)-1].Close - opening[0].Open
	switch {
	case net >= trendMoveFrac*rng:
		return domain.OTBull
	case net <= -trendMoveFrac*rng:
		return domain.OTBear
	default:
		return domain.OTRange
	}
}

// FirstCandleTypeOf classifies the session's first bar by body fraction.
func FirstCandleTypeOf(first domain.Bar) domain.FirstCandleType {
	rng := first.High - first.Low
	if rng <= 0 {
		return domain.FCTDoji
	}
	body := first.Close - first.Open
	if math.Abs(body) < candleBodyFrac*rng {
		return domain.FCTDoji
	}
	if body > 0 {
		return domain.FCTBull
	}
	return domain.FCTBear
}

// RangeStatusOf classifies the opening range width against the prior
// day's range.
func RangeStatusOf(opening []domain.Bar, prev domain.DayStats) domain.RangeStatus {
	if len(opening) == 0 {
		return domain.RSNormal
	}
	high := opening[0].High
	low := opening[0].Low
	for _, b := range opening[1:] {
		high = math.Max(high, b.High)
		low = math.Min(low, b.Low)
	}
	prevRng := prev.Range()
	if !isFinite(prevRng) || prevRng <= 0 {
		return domain.RSNormal
	}
	ratio := (high - low) / prevRng
	switch {
	case ratio < rangeNarrowPct:
		return domain.RSNarrow
	case ratio > rangeWidePct:
		return domain.RSWide
	default:
		return domain.RSNormal
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
