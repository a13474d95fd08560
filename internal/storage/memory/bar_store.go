package memory

import (
	"context"
	"sort"
	"sync"

	"equity-orb-lab/internal/domain"
	"equity-orb-lab/internal/storage"
)

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.Bar // keyed by symbol, unsorted
	keys map[barKey]struct{}
}

type barKey struct {
	symbol string
	bucket int64
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{
		data: make(map[string][]*domain.Bar),
		keys: make(map[barKey]struct{}),
	}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// InsertBulk adds closed bars. Fails the whole batch on a duplicate.
func (s *BarStore) InsertBulk(_ context.Context, bars []*domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[barKey]struct{}, len(bars))
	for _, b := range bars {
		if b == nil || b.Symbol == "" {
			return storage.ErrInvalidInput
		}
		k := barKey{b.Symbol, b.BucketStart}
		if _, exists := s.keys[k]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[k]; exists {
			return storage.ErrDuplicateKey
		}
		batch[k] = struct{}{}
	}

	for _, b := range bars {
		copy := *b
		s.data[b.Symbol] = append(s.data[b.Symbol], &copy)
		s.keys[barKey{b.Symbol, b.BucketStart}] = struct{}{}
	}
	return nil
}

// GetByTimeRange retrieves bars within [start, end], bucket ASC.
func (s *BarStore) GetByTimeRange(_ context.Context, symbol string, start, end int64) ([]*domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Bar
	for _, b := range s.data[symbol] {
		if b.BucketStart >= start && b.BucketStart <= end {
			copy := *b
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].BucketStart < out[j].BucketStart
	})
	return out, nil
}
