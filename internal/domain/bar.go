package domain

// Bar is a fixed-width OHLC bar built from ticks.
// Immutable once closed; owned by the aggregator until emitted.
type Bar struct {
	Symbol      string  // ticker symbol
	BucketStart int64   // epoch seconds, floor(timestamp/width)*width
	Open        float64 // first tick price in bucket
	High        float64 // max tick price
	Low         float64 // min tick price
	Close       float64 // last tick price
	Volume      int64   // tick count (or summed volume when provided)
}

// DayStats holds the previous trading day's OHLC for a symbol.
// Input to tag derivation and the stop tie-break rule.
type DayStats struct {
	Symbol string
	Day    string // trading date, YYYY-MM-DD
	Open   float64
	High   float64
	Low    float64
	Close  float64
}

// Range returns high minus low.
func (d DayStats) Range() float64 {
	return d.High - d.Low
}
