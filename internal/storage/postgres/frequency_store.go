package postgres

import (
	"context"
	"fmt"

	"equity-orb-lab/internal/domain"
	"equity-orb-lab/internal/storage"
)

// FrequencyStore implements storage.FrequencyStore using PostgreSQL.
type FrequencyStore struct {
	pool *Pool
}

// NewFrequencyStore creates a new FrequencyStore.
func NewFrequencyStore(pool *Pool) *FrequencyStore {
	return &FrequencyStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FrequencyStore = (*FrequencyStore)(nil)

// Insert adds a signature row. Returns ErrDuplicateKey if it exists.
func (s *FrequencyStore) Insert(ctx context.Context, st *domain.FrequencyStat) error {
	query := `
		INSERT INTO frequency_stats (signature, tier, bull, bear)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, st.Signature, string(st.Tier), int64(st.Bull), int64(st.Bear))
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert frequency stat: %w", err)
	}
	return nil
}

// GetBySignature retrieves one row. Returns ErrNotFound if not exists.
func (s *FrequencyStore) GetBySignature(ctx context.Context, signature string) (*domain.FrequencyStat, error) {
	query := `SELECT signature, tier, bull, bear FROM frequency_stats WHERE signature = $1`

	st, err := scanStat(s.pool.QueryRow(ctx, query, signature))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get frequency stat: %w", err)
	}
	return st, nil
}

// GetByTier retrieves all rows for a tier, signature ASC.
func (s *FrequencyStore) GetByTier(ctx context.Context, tier domain.Tier) ([]*domain.FrequencyStat, error) {
	query := `SELECT signature, tier, bull, bear FROM frequency_stats WHERE tier = $1 ORDER BY signature ASC`

	rows, err := s.pool.Query(ctx, query, string(tier))
	if err != nil {
		return nil, fmt.Errorf("get frequency stats by tier: %w", err)
	}
	defer rows.Close()

	var out []*domain.FrequencyStat
	for rows.Next() {
		st, err := scanStat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan frequency stat: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate frequency stats: %w", err)
	}
	return out, nil
}

func scanStat(row rowScanner) (*domain.FrequencyStat, error) {
	var st domain.FrequencyStat
	var tier string
	var bull, bear int64
	if err := row.Scan(&st.Signature, &tier, &bull, &bear); err != nil {
		return nil, err
	}
	st.Tier = domain.Tier(tier)
	st.Bull = uint(bull)
	st.Bear = uint(bear)
	return &st, nil
}
