// Package storage defines the persistence interfaces consumed by the
// engine. Backends: memory (tests, replay), postgres (trade records,
// frequency stats), clickhouse (bar timeseries).
package storage

import (
	"context"

	"equity-orb-lab/internal/domain"
)

// BarStore provides access to closed-bar timeseries storage.
type BarStore interface {
	// InsertBulk adds closed bars. Fails the whole batch on a
	// duplicate (symbol, bucket_start).
	InsertBulk(ctx context.Context, bars []*domain.Bar) error

	// GetByTimeRange retrieves a symbol's bars with bucket_start within
	// [start, end] (inclusive), ordered by bucket_start ASC.
	GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.Bar, error)
}

// TradeStore provides access to trade_records storage.
type TradeStore interface {
	// Insert adds a terminal trade record. Returns ErrDuplicateKey if
	// trade_id exists.
	Insert(ctx context.Context, t *domain.TradeRecord) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not
	// exists.
	GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error)

	// GetBySymbol retrieves all trades for a symbol, ordered by
	// exit_time ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.TradeRecord, error)

	// GetByDay retrieves all trades for a trading date (YYYY-MM-DD).
	GetByDay(ctx context.Context, day string) ([]*domain.TradeRecord, error)
}

// FrequencyStore provides access to historical tag-signature counts.
type FrequencyStore interface {
	// Insert adds a signature row. Returns ErrDuplicateKey if the
	// signature exists.
	Insert(ctx context.Context, s *domain.FrequencyStat) error

	// GetBySignature retrieves one signature row. Returns ErrNotFound
	// if not exists.
	GetBySignature(ctx context.Context, signature string) (*domain.FrequencyStat, error)

	// GetByTier retrieves all rows for a tier.
	GetByTier(ctx context.Context, tier domain.Tier) ([]*domain.FrequencyStat, error)
}
