package memory

import (
	"context"
	"errors"
	"testing"

	"equity-orb-lab/internal/domain"
	"equity-orb-lab/internal/storage"
)

func TestBarStore_InsertAndRange(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()

	bars := []*domain.Bar{
		{Symbol: "RELIANCE", BucketStart: 600, Open: 101, High: 102, Low: 100, Close: 101, Volume: 10},
		{Symbol: "RELIANCE", BucketStart: 300, Open: 100, High: 101, Low: 99, Close: 101, Volume: 12},
		{Symbol: "TCS", BucketStart: 300, Open: 50, High: 51, Low: 50, Close: 50, Volume: 3},
	}
	if err := store.InsertBulk(ctx, bars); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByTimeRange(ctx, "RELIANCE", 0, 900)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(got))
	}
	if got[0].BucketStart != 300 || got[1].BucketStart != 600 {
		t.Errorf("bars not sorted by bucket: %v %v", got[0].BucketStart, got[1].BucketStart)
	}
}

func TestBarStore_DuplicateFailsBatch(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()

	first := []*domain.Bar{{Symbol: "RELIANCE", BucketStart: 300, Open: 1, High: 1, Low: 1, Close: 1}}
	if err := store.InsertBulk(ctx, first); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	dup := []*domain.Bar{
		{Symbol: "RELIANCE", BucketStart: 600, Open: 1, High: 1, Low: 1, Close: 1},
		{Symbol: "RELIANCE", BucketStart: 300, Open: 2, High: 2, Low: 2, Close: 2},
	}
	if err := store.InsertBulk(ctx, dup); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	// The whole batch must have been rejected.
	got, _ := store.GetByTimeRange(ctx, "RELIANCE", 0, 900)
	if len(got) != 1 {
		t.Errorf("partial batch applied: %d bars", len(got))
	}
}

func TestTradeStore_InsertAndGet(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	trade := &domain.TradeRecord{
		TradeID:     "trade1",
		Symbol:      "RELIANCE",
		Day:         "2025-03-04",
		Direction:   domain.DirectionBull,
		Level:       domain.TierL2,
		Status:      domain.StatusFlat,
		ExitReason:  domain.ExitReasonStop,
		RealizedPnl: -500,
	}
	if err := store.Insert(ctx, trade); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "trade1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.RealizedPnl != -500 || got.ExitReason != domain.ExitReasonStop {
		t.Errorf("trade mismatch: %+v", got)
	}

	if err := store.Insert(ctx, trade); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}

	byDay, err := store.GetByDay(ctx, "2025-03-04")
	if err != nil || len(byDay) != 1 {
		t.Errorf("GetByDay: got %d trades, err %v", len(byDay), err)
	}
}

func TestTradeStore_NotFound(t *testing.T) {
	store := NewTradeStore()
	if _, err := store.GetByID(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFrequencyStore_InsertAndGet(t *testing.T) {
	store := NewFrequencyStore()
	ctx := context.Background()

	stat := &domain.FrequencyStat{
		Signature: "L2:BULLISH|ABOVE_PDH|BULL",
		Tier:      domain.TierL2,
		Bull:      9,
		Bear:      1,
	}
	if err := store.Insert(ctx, stat); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetBySignature(ctx, stat.Signature)
	if err != nil {
		t.Fatalf("GetBySignature failed: %v", err)
	}
	if got.Bull != 9 || got.Bear != 1 {
		t.Errorf("counts mismatch: %+v", got)
	}

	if _, err := store.GetBySignature(ctx, "L3:missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	byTier, err := store.GetByTier(ctx, domain.TierL2)
	if err != nil || len(byTier) != 1 {
		t.Errorf("GetByTier: got %d rows, err %v", len(byTier), err)
	}
}
