package tags

import "equity-orb-lab/internal/domain"

// Locker owns one symbol's TagSet for a session. Each lock method
// commits its tag(s) on first call and is a no-op afterward, even when
// called again with different bar data: a plan built after the opening
// checkpoint never reflects data the live system would not have
// observed at lock time.
type Locker struct {
	prev domain.DayStats
	set  domain.TagSet
}

// NewLocker creates a Locker with the previous day's stats.
func NewLocker(prev domain.DayStats) *Locker {
	return &Locker{prev: prev}
}

// LockPrevDayContext commits the PDC tag. When no previous-day stats
// are available, have is false and the tag locks with no value.
// Idempotent.
func (l *Locker) LockPrevDayContext(have bool) {
	if l.set.PDCLocked {
		return
	}
	if have {
		pdc := PrevDayContextOf(l.prev)
		l.set.PDC = &pdc
	}
	l.set.PDCLocked = true
}

// LockOpenLocation commits the OL tag from the session's opening price.
// When no tick arrived before the checkpoint, haveOpen is false and the
// tag locks with no value. Idempotent.
func (l *Locker) LockOpenLocation(open float64, haveOpen bool) {
	if l.set.OLLocked {
		return
	}
	if haveOpen {
		ol := OpenLocationOf(open, l.prev)
		l.set.OL = &ol
	}
	l.set.OLLocked = true
}

// LockOpeningSet commits OT, FirstCandleType and RangeStatus together
// from the opening bars (up to the first five closed bars). Idempotent.
func (l *Locker) LockOpeningSet(opening []domain.Bar) {
	if l.set.OTLocked {
		return
	}
	if len(opening) > 0 {
		ot := OpeningTrendOf(opening)
		fct := FirstCandleTypeOf(opening[0])
		rs := RangeStatusOf(opening, l.prev)
		l.set.OT = &ot
		l.set.FirstCandle = &fct
		l.set.Range = &rs
	}
	l.set.OTLocked = true
	l.set.FirstCandleLocked = true
	l.set.RangeLocked = true
}

// Tags returns the current TagSet (locked fields are immutable).
func (l *Locker) Tags() domain.TagSet {
	return l.set
}
