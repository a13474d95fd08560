package picker

import (
	"testing"

	"equity-orb-lab/internal/domain"
)

func testConfig() Config {
	return Config{
		MinSamples: map[domain.Tier]uint{
			domain.TierL3: 8,
			domain.TierL2: 6,
			domain.TierL1: 4,
			domain.TierL0: 2,
		},
		MinConfidence:  55,
		RequireOTAlign: false,
	}
}

func otPtr(ot domain.OpeningTrend) *domain.OpeningTrend {
	return &ot
}

func TestPick_FallbackToCoarserTier(t *testing.T) {
	table := domain.FrequencyTable{
		domain.TierL3: {Bull: 2, Bear: 1}, // 3 < 8, skipped
		domain.TierL2: {Bull: 9, Bear: 1}, // 10 >= 6, confidence 90
	}

	got := Pick(table, nil, testConfig())
	want := Result{Direction: domain.DirectionBull, Confidence: 90, Tier: domain.TierL2}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestPick_FirstQualifyingTierWins(t *testing.T) {
	// L3 qualifies; a "better" L1 must not be considered.
	table := domain.FrequencyTable{
		domain.TierL3: {Bull: 6, Bear: 4},  // confidence 60
		domain.TierL1: {Bull: 99, Bear: 1}, // confidence 99, never reached
	}

	got := Pick(table, nil, testConfig())
	if got.Tier != domain.TierL3 || got.Confidence != 60 {
		t.Errorf("expected L3 to win first, got %+v", got)
	}
}

func TestPick_AbstainWhenAllBelowSample(t *testing.T) {
	table := domain.FrequencyTable{
		domain.TierL3: {Bull: 1, Bear: 1},
		domain.TierL2: {Bull: 2, Bear: 1},
		domain.TierL1: {Bull: 1, Bear: 1},
		domain.TierL0: {Bull: 1, Bear: 0},
	}

	if got := Pick(table, nil, testConfig()); got != Abstain {
		t.Errorf("expected abstain, got %+v", got)
	}
}

func TestPick_AbstainOnLowConfidence(t *testing.T) {
	table := domain.FrequencyTable{
		domain.TierL0: {Bull: 6, Bear: 5}, // 6/11 rounds to confidence 55
	}
	cfg := testConfig()
	cfg.MinConfidence = 60

	if got := Pick(table, nil, cfg); got != Abstain {
		t.Errorf("expected abstain below confidence floor, got %+v", got)
	}
}

func TestPick_TieBreaksBull(t *testing.T) {
	// bull >= bear chooses BULL.
	table := domain.FrequencyTable{
		domain.TierL0: {Bull: 5, Bear: 5},
	}
	cfg := testConfig()
	cfg.MinConfidence = 50

	got := Pick(table, nil, cfg)
	if got.Direction != domain.DirectionBull || got.Confidence != 50 {
		t.Errorf("tie should pick BULL at 50, got %+v", got)
	}
}

func TestPick_OTAlignmentSkipsTier(t *testing.T) {
	table := domain.FrequencyTable{
		domain.TierL2: {Bull: 9, Bear: 1}, // BULL, against OT
		domain.TierL0: {Bull: 1, Bear: 9}, // BEAR, aligned
	}
	cfg := testConfig()
	cfg.RequireOTAlign = true

	got := Pick(table, otPtr(domain.OTBear), cfg)
	if got.Tier != domain.TierL0 || got.Direction != domain.DirectionBear {
		t.Errorf("misaligned tier should be skipped, got %+v", got)
	}
}

func TestPick_OTRangeNeverAligns(t *testing.T) {
	table := domain.FrequencyTable{
		domain.TierL0: {Bull: 9, Bear: 1},
	}
	cfg := testConfig()
	cfg.RequireOTAlign = true

	if got := Pick(table, otPtr(domain.OTRange), cfg); got != Abstain {
		t.Errorf("TR opening trend should abstain under alignment, got %+v", got)
	}
	if got := Pick(table, nil, cfg); got != Abstain {
		t.Errorf("missing opening trend should abstain under alignment, got %+v", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := testConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	bad := testConfig()
	bad.MinSamples[domain.TierL0] = 100 // not decreasing
	if err := bad.Validate(); err == nil {
		t.Error("non-decreasing thresholds should fail validation")
	}

	missing := testConfig()
	delete(missing.MinSamples, domain.TierL1)
	if err := missing.Validate(); err == nil {
		t.Error("missing tier threshold should fail validation")
	}
}
