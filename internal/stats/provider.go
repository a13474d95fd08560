// Package stats supplies per-tier historical frequency counts for a
// locked tag set. Providers build one signature per tier and look each
// one up; a missing signature contributes zero counts, which the
// picker's sample gate then skips.
package stats

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"equity-orb-lab/internal/domain"
	"equity-orb-lab/internal/storage"
)

// Provider resolves a tag set into a frequency table.
type Provider interface {
	Table(ctx context.Context, symbol string, tags domain.TagSet) (domain.FrequencyTable, error)
}

// Signature builds the tier-qualified signature for a tag set, e.g.
// "L2:BULLISH|ABOVE_PDH|BULL". A nil tag renders as "-" so partial
// signatures stay distinguishable.
func Signature(tier domain.Tier, tags domain.TagSet) string {
	var parts []string
	switch tier {
	case domain.TierL3:
		parts = []string{pdc(tags), ol(tags), ot(tags), fct(tags), rs(tags)}
	case domain.TierL2:
		parts = []string{pdc(tags), ol(tags), ot(tags)}
	case domain.TierL1:
		parts = []string{ol(tags), ot(tags)}
	case domain.TierL0:
		parts = []string{ot(tags)}
	default:
		parts = nil
	}
	return string(tier) + ":" + strings.Join(parts, "|")
}

func pdc(t domain.TagSet) string {
	if t.PDC == nil {
		return "-"
	}
	return string(*t.PDC)
}

func ol(t domain.TagSet) string {
	if t.OL == nil {
		return "-"
	}
	return string(*t.OL)
}

func ot(t domain.TagSet) string {
	if t.OT == nil {
		return "-"
	}
	return string(*t.OT)
}

func fct(t domain.TagSet) string {
	if t.FirstCandle == nil {
		return "-"
	}
	return string(*t.FirstCandle)
}

func rs(t domain.TagSet) string {
	if t.Range == nil {
		return "-"
	}
	return string(*t.Range)
}

// StoreProvider looks signatures up in a FrequencyStore. Counts are
// shared across symbols; the signature alone keys the history.
type StoreProvider struct {
	store storage.FrequencyStore
}

// NewStoreProvider creates a store-backed provider.
func NewStoreProvider(store storage.FrequencyStore) *StoreProvider {
	return &StoreProvider{store: store}
}

// Compile-time interface check.
var _ Provider = (*StoreProvider)(nil)

// Table looks up each tier's signature. A missing row yields zero
// counts for that tier; any other store error aborts the lookup.
func (p *StoreProvider) Table(ctx context.Context, _ string, tags domain.TagSet) (domain.FrequencyTable, error) {
	table := make(domain.FrequencyTable, len(domain.PickTiers))
	for _, tier := range domain.PickTiers {
		sig := Signature(tier, tags)
		stat, err := p.store.GetBySignature(ctx, sig)
		if errors.Is(err, storage.ErrNotFound) {
			table[tier] = domain.TierCounts{}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lookup signature %s: %w", sig, err)
		}
		table[tier] = domain.TierCounts{Bull: stat.Bull, Bear: stat.Bear}
	}
	return table, nil
}

// FixtureProvider serves a fixed table regardless of tags. Used by
// replay and sim runs that have no frequency history backend.
type FixtureProvider struct {
	Fixed domain.FrequencyTable
}

// Compile-time interface check.
var _ Provider = (*FixtureProvider)(nil)

// Table returns a copy of the fixed table.
func (p *FixtureProvider) Table(_ context.Context, _ string, _ domain.TagSet) (domain.FrequencyTable, error) {
	out := make(domain.FrequencyTable, len(p.Fixed))
	for tier, counts := range p.Fixed {
		out[tier] = counts
	}
	return out, nil
}
