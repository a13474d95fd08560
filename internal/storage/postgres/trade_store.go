package postgres

import (
	"context"
	"fmt"

	"equity-orb-lab/internal/domain"
	"equity-orb-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const tradeColumns = `
	trade_id, symbol, day, mode, direction, level, confidence, qty,
	entry_time, entry_price, exit_time, exit_price, exit_reason,
	realized_pnl, status
`

// Insert adds a trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.TradeRecord) error {
	query := `
		INSERT INTO trade_records (` + tradeColumns + `) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13,
			$14, $15
		)
	`

	_, err := s.pool.Exec(ctx, query,
		t.TradeID, t.Symbol, t.Day, t.Mode, string(t.Direction), string(t.Level), t.Confidence, t.Qty,
		t.EntryTime, t.EntryPrice, t.ExitTime, t.ExitPrice, t.ExitReason,
		t.RealizedPnl, string(t.Status),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade record: %w", err)
	}
	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error) {
	query := `SELECT ` + tradeColumns + ` FROM trade_records WHERE trade_id = $1`

	t, err := scanTrade(s.pool.QueryRow(ctx, query, tradeID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade by id: %w", err)
	}
	return t, nil
}

// GetBySymbol retrieves all trades for a symbol, exit_time ASC.
func (s *TradeStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.TradeRecord, error) {
	query := `SELECT ` + tradeColumns + ` FROM trade_records WHERE symbol = $1 ORDER BY exit_time ASC, trade_id ASC`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get trades by symbol: %w", err)
	}
	defer rows.Close()

	return collectTrades(rows)
}

// GetByDay retrieves all trades for a trading date, exit_time ASC.
func (s *TradeStore) GetByDay(ctx context.Context, day string) ([]*domain.TradeRecord, error) {
	query := `SELECT ` + tradeColumns + ` FROM trade_records WHERE day = $1 ORDER BY exit_time ASC, trade_id ASC`

	rows, err := s.pool.Query(ctx, query, day)
	if err != nil {
		return nil, fmt.Errorf("get trades by day: %w", err)
	}
	defer rows.Close()

	return collectTrades(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (*domain.TradeRecord, error) {
	var t domain.TradeRecord
	var direction, level, status string
	err := row.Scan(
		&t.TradeID, &t.Symbol, &t.Day, &t.Mode, &direction, &level, &t.Confidence, &t.Qty,
		&t.EntryTime, &t.EntryPrice, &t.ExitTime, &t.ExitPrice, &t.ExitReason,
		&t.RealizedPnl, &status,
	)
	if err != nil {
		return nil, err
	}
	t.Direction = domain.Direction(direction)
	t.Level = domain.Tier(level)
	t.Status = domain.Status(status)
	return &t, nil
}

type pgxRows interface {
	rowScanner
	Next() bool
	Err() error
}

func collectTrades(rows pgxRows) ([]*domain.TradeRecord, error) {
	var out []*domain.TradeRecord
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return out, nil
}
