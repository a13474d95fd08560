// Package picker selects a trade direction from per-tier historical
// frequency counts via a hierarchical fallback rule.
package picker

import (
	"fmt"
	"math"

	"equity-orb-lab/internal/domain"
)

// Config holds the picker gates.
type Config struct {
	// MinSamples is the minimum bull+bear count per tier, L3 first,
	// decreasing toward L0.
	MinSamples map[domain.Tier]uint
	// MinConfidence is the shared confidence floor, percent.
	MinConfidence int
	// RequireOTAlign skips tiers whose direction disagrees with the
	// locked OpeningTrend.
	RequireOTAlign bool
}

// Validate checks that every pick tier has a threshold and that the
// thresholds decrease with tier coarseness.
func (c Config) Validate() error {
	prev := uint(math.MaxUint32)
	for _, tier := range domain.PickTiers {
		min, ok := c.MinSamples[tier]
		if !ok {
			return fmt.Errorf("picker: missing min sample for tier %s", tier)
		}
		if min > prev {
			return fmt.Errorf("picker: min samples must decrease from L3 to L0, %s has %d", tier, min)
		}
		prev = min
	}
	if c.MinConfidence < 0 || c.MinConfidence > 100 {
		return fmt.Errorf("picker: min confidence %d out of [0,100]", c.MinConfidence)
	}
	return nil
}

// Result is the picker outcome. Direction NONE with tier NA means
// ABSTAIN; the caller must not treat it as an error.
type Result struct {
	Direction  domain.Direction
	Confidence int
	Tier       domain.Tier
}

// Abstain is the no-qualifying-tier result.
var Abstain = Result{Direction: domain.DirectionNone, Confidence: 0, Tier: domain.TierNA}

// Pick walks tiers from most specific (L3) to least specific (L0) and
// returns the first tier that passes the sample, alignment and
// confidence gates. No attempt is made to find a "better" tier after
// the first qualifying one.
func Pick(table domain.FrequencyTable, ot *domain.OpeningTrend, cfg Config) Result {
	for _, tier := range domain.PickTiers {
		counts := table[tier]
		total := counts.Total()
		if total < cfg.MinSamples[tier] {
			continue
		}

		dir := domain.DirectionBull
		winning := counts.Bull
		if counts.Bear > counts.Bull {
			dir = domain.DirectionBear
			winning = counts.Bear
		}
		confidence := int(math.Round(100 * float64(winning) / float64(total)))

		if cfg.RequireOTAlign && !aligned(dir, ot) {
			continue
		}
		if confidence < cfg.MinConfidence {
			continue
		}
		return Result{Direction: dir, Confidence: confidence, Tier: tier}
	}
	return Abstain
}

// aligned reports whether the direction matches the locked opening
// trend. A missing or range-bound (TR) trend never aligns.
func aligned(dir domain.Direction, ot *domain.OpeningTrend) bool {
	if ot == nil {
		return false
	}
	switch *ot {
	case domain.OTBull:
		return dir == domain.DirectionBull
	case domain.OTBear:
		return dir == domain.DirectionBear
	}
	return false
}
