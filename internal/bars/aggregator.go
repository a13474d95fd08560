// Package bars turns a tick stream into fixed-width OHLC bars.
package bars

import (
	"math"

	"equity-orb-lab/internal/domain"
)

// Aggregator buckets ticks into fixed-width bars for one symbol.
// Bucket start = floor(timestamp / width) * width. The algorithm is
// width-agnostic: production sessions use 300s, accelerated runs 10s.
type Aggregator struct {
	symbol string
	width  int64
	cur    *domain.Bar
}

// New creates an aggregator. Width must be positive (validated at
// config load).
func New(symbol string, width int64) *Aggregator {
	return &Aggregator{symbol: symbol, width: width}
}

// OnTick folds one tick into the current bar. Returns the previous bar
// when the tick opens a new bucket, nil otherwise. Non-finite inputs
// are ignored with no state change. Ticks older than the current bucket
// are dropped; same-bucket out-of-order ticks merge normally.
func (a *Aggregator) OnTick(timestamp, price float64, volume int64) *domain.Bar {
	if math.IsNaN(timestamp) || math.IsInf(timestamp, 0) ||
		math.IsNaN(price) || math.IsInf(price, 0) {
		return nil
	}
	if volume <= 0 {
		volume = 1
	}

	bucket := int64(math.Floor(timestamp/float64(a.width))) * a.width

	if a.cur == nil {
		a.cur = a.open(bucket, price, volume)
		return nil
	}

	switch {
	case bucket == a.cur.BucketStart:
		if price > a.cur.High {
			a.cur.High = price
		}
		if price < a.cur.Low {
			a.cur.Low = price
		}
		a.cur.Close = price
		a.cur.Volume += volume
		return nil

	case bucket > a.cur.BucketStart:
		closed := a.cur
		a.cur = a.open(bucket, price, volume)
		return closed

	default:
		// Out-of-order across buckets is undefined by the feed
		// contract; drop rather than corrupt a closed bar.
		return nil
	}
}

// Current returns a copy of the open bar, or nil before the first tick.
func (a *Aggregator) Current() *domain.Bar {
	if a.cur == nil {
		return nil
	}
	b := *a.cur
	return &b
}

// Flush closes and returns the open bar, if any. Used at session end.
func (a *Aggregator) Flush() *domain.Bar {
	closed := a.cur
	a.cur = nil
	return closed
}

func (a *Aggregator) open(bucket int64, price float64, volume int64) *domain.Bar {
	return &domain.Bar{
		Symbol:      a.symbol,
		BucketStart: bucket,
		Open:        price,
		High:        price,
		Low:         price,
		Close:       price,
		Volume:      volume,
	}
}
