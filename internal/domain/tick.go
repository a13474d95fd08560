package domain

import (
	"math"
	"time"
)

// Tick is a single trade print from the feed.
// Ticks are transient: they are not retained beyond bar construction.
type Tick struct {
	Symbol    string  `json:"symbol"`
	Timestamp float64 `json:"timestamp"` // epoch seconds
	Price     float64 `json:"price"`
	Volume    int64   `json:"volume,omitempty"`
}

// Valid reports whether the tick carries usable price and time fields.
// Invalid ticks are dropped silently, never fatal.
func (t Tick) Valid() bool {
	if t.Symbol == "" {
		return false
	}
	if math.IsNaN(t.Price) || math.IsInf(t.Price, 0) || t.Price <= 0 {
		return false
	}
	if math.IsNaN(t.Timestamp) || math.IsInf(t.Timestamp, 0) || t.Timestamp <= 0 {
		return false
	}
	return true
}

// Time converts the epoch-seconds timestamp to time.Time (UTC).
func (t Tick) Time() time.Time {
	sec := int64(t.Timestamp)
	nsec := int64((t.Timestamp - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}
