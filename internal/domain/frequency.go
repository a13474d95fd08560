package domain

import "fmt"

// TierCounts holds historical match counts for one tier signature.
type TierCounts struct {
	Bull uint
	Bear uint
}

// Total returns bull+bear.
func (c TierCounts) Total() uint {
	return c.Bull + c.Bear
}

// FrequencyTable maps each tier to its historical match counts for the
// current tag signature. Validated at the boundary where it is produced.
type FrequencyTable map[Tier]TierCounts

// Validate checks that only known pick tiers appear.
func (ft FrequencyTable) Validate() error {
	for tier := range ft {
		switch tier {
		case TierL3, TierL2, TierL1, TierL0:
		default:
			return fmt.Errorf("frequency table: unknown tier %q", tier)
		}
	}
	return nil
}

// FrequencyStat is a persisted per-signature count row.
type FrequencyStat struct {
	Signature string // tier-qualified tag signature, e.g. "L2:BULLISH|ABOVE_PDH|BULL"
	Tier      Tier
	Bull      uint
	Bear      uint
}
