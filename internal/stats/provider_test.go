package stats

import (
	"context"
	"testing"

	"equity-orb-lab/internal/domain"
	"equity-orb-lab/internal/storage/memory"
)

func fullTags() domain.TagSet {
	pdc := domain.PDCBullish
	ol := domain.OLAbovePrevHigh
	ot := domain.OTBull
	fct := domain.FCTBull
	rs := domain.RSNormal
	return domain.TagSet{
		PDC: &pdc, PDCLocked: true,
		OL: &ol, OLLocked: true,
		OT: &ot, OTLocked: true,
		FirstCandle: &fct, FirstCandleLocked: true,
		Range: &rs, RangeLocked: true,
	}
}

func TestSignature(t *testing.T) {
	tags := fullTags()

	cases := []struct {
		tier domain.Tier
		want string
	}{
		{domain.TierL3, "L3:BULLISH|ABOVE_PDH|BULL|BULL|NORMAL"},
		{domain.TierL2, "L2:BULLISH|ABOVE_PDH|BULL"},
		{domain.TierL1, "L1:ABOVE_PDH|BULL"},
		{domain.TierL0, "L0:BULL"},
	}
	for _, tc := range cases {
		if got := Signature(tc.tier, tags); got != tc.want {
			t.Errorf("Signature(%s) = %q, want %q", tc.tier, got, tc.want)
		}
	}
}

func TestSignature_NilTagsRenderDash(t *testing.T) {
	tags := fullTags()
	tags.PDC = nil
	tags.Range = nil

	if got, want := Signature(domain.TierL3, tags), "L3:-|ABOVE_PDH|BULL|BULL|-"; got != want {
		t.Errorf("Signature = %q, want %q", got, want)
	}
	if got, want := Signature(domain.TierL2, tags), "L2:-|ABOVE_PDH|BULL"; got != want {
		t.Errorf("Signature = %q, want %q", got, want)
	}
}

func TestStoreProvider_Table(t *testing.T) {
	ctx := context.Background()
	store := memory.NewFrequencyStore()
	tags := fullTags()

	seed := []*domain.FrequencyStat{
		{Signature: Signature(domain.TierL2, tags), Tier: domain.TierL2, Bull: 9, Bear: 1},
		{Signature: Signature(domain.TierL0, tags), Tier: domain.TierL0, Bull: 60, Bear: 40},
	}
	for _, st := range seed {
		if err := store.Insert(ctx, st); err != nil {
			t.Fatalf("seed insert: %v", err)
		}
	}

	table, err := NewStoreProvider(store).Table(ctx, "RELIANCE", tags)
	if err != nil {
		t.Fatalf("Table: %v", err)
	}

	if got := table[domain.TierL2]; got.Bull != 9 || got.Bear != 1 {
		t.Errorf("L2 counts = %+v, want {9 1}", got)
	}
	if got := table[domain.TierL0]; got.Bull != 60 || got.Bear != 40 {
		t.Errorf("L0 counts = %+v, want {60 40}", got)
	}

	// Signatures with no history contribute zero counts, not errors.
	if got := table[domain.TierL3]; got.Total() != 0 {
		t.Errorf("L3 counts = %+v, want zero", got)
	}
	if got := table[domain.TierL1]; got.Total() != 0 {
		t.Errorf("L1 counts = %+v, want zero", got)
	}

	if err := table.Validate(); err != nil {
		t.Errorf("table invalid: %v", err)
	}
}

func TestFixtureProvider_ReturnsCopy(t *testing.T) {
	fixed := domain.FrequencyTable{
		domain.TierL0: {Bull: 5, Bear: 5},
	}
	p := &FixtureProvider{Fixed: fixed}

	table, err := p.Table(context.Background(), "TCS", domain.TagSet{})
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	table[domain.TierL0] = domain.TierCounts{Bull: 99}

	if fixed[domain.TierL0].Bull != 5 {
		t.Error("mutating the returned table leaked into the fixture")
	}
}
