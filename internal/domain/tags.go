package domain

// Categorical context tags for a trading day. Each time-gated tag is
// computed from bar history and locked exactly once at its wall-clock
// checkpoint; locking, not computation timing, is the source of truth.

// PrevDayContext classifies where the prior day closed within its range.
type PrevDayContext string

// PrevDayContext values.
const (
	PDCBullish PrevDayContext = "BULLISH"
	PDCBearish PrevDayContext = "BEARISH"
	PDCNeutral PrevDayContext = "NEUTRAL"
)

// OpenLocation classifies today's open against the prior day's range.
type OpenLocation string

// OpenLocation values.
const (
	OLAbovePrevHigh OpenLocation = "ABOVE_PDH"
	OLUpperHalf     OpenLocation = "UPPER_HALF"
	OLLowerHalf     OpenLocation = "LOWER_HALF"
	OLBelowPrevLow  OpenLocation = "BELOW_PDL"
)

// OpeningTrend classifies the net drift of the first five bars.
type OpeningTrend string

// OpeningTrend values. TR marks a trading-range (directionless) open.
const (
	OTBull  OpeningTrend = "BULL"
	OTBear  OpeningTrend = "BEAR"
	OTRange OpeningTrend = "TR"
)

// FirstCandleType classifies the body of the session's first bar.
type FirstCandleType string

// FirstCandleType values.
const (
	FCTBull FirstCandleType = "BULL"
	FCTBear FirstCandleType = "BEAR"
	FCTDoji FirstCandleType = "DOJI"
)

// RangeStatus classifies the opening range width against the prior day.
type RangeStatus string

// RangeStatus values.
const (
	RSNarrow RangeStatus = "NARROW"
	RSNormal RangeStatus = "NORMAL"
	RSWide   RangeStatus = "WIDE"
)

// TagSet holds the five context tags plus a lock flag per time-gated
// field. A nil value means the tag could not be computed (e.g. no ticks
// before the checkpoint); the lock flag still flips so the decision
// input never changes retroactively.
type TagSet struct {
	PDC       *PrevDayContext
	PDCLocked bool

	OL       *OpenLocation
	OLLocked bool

	OT       *OpeningTrend
	OTLocked bool

	FirstCandle       *FirstCandleType
	FirstCandleLocked bool

	Range       *RangeStatus
	RangeLocked bool
}

// AllLocked reports whether every time-gated tag has been committed.
func (t TagSet) AllLocked() bool {
	return t.PDCLocked && t.OLLocked && t.OTLocked && t.FirstCandleLocked && t.RangeLocked
}
