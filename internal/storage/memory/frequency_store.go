package memory

import (
	"context"
	"sort"
	"sync"

	"equity-orb-lab/internal/domain"
	"equity-orb-lab/internal/storage"
)

// FrequencyStore is an in-memory implementation of storage.FrequencyStore.
type FrequencyStore struct {
	mu   sync.RWMutex
	data map[string]*domain.FrequencyStat // keyed by signature
}

// NewFrequencyStore creates a new in-memory frequency store.
func NewFrequencyStore() *FrequencyStore {
	return &FrequencyStore{data: make(map[string]*domain.FrequencyStat)}
}

// Compile-time interface check.
var _ storage.FrequencyStore = (*FrequencyStore)(nil)

// Insert adds a signature row. Returns ErrDuplicateKey if it exists.
func (s *FrequencyStore) Insert(_ context.Context, st *domain.FrequencyStat) error {
	if st == nil || st.Signature == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[st.Signature]; exists {
		return storage.ErrDuplicateKey
	}
	copy := *st
	s.data[st.Signature] = &copy
	return nil
}

// GetBySignature retrieves one row. Returns ErrNotFound if not exists.
func (s *FrequencyStore) GetBySignature(_ context.Context, signature string) (*domain.FrequencyStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, exists := s.data[signature]
	if !exists {
		return nil, storage.ErrNotFound
	}
	copy := *st
	return &copy, nil
}

// GetByTier retrieves all rows for a tier, signature ASC.
func (s *FrequencyStore) GetByTier(_ context.Context, tier domain.Tier) ([]*domain.FrequencyStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.FrequencyStat
	for _, st := range s.data {
		if st.Tier == tier {
			copy := *st
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Signature < out[j].Signature
	})
	return out, nil
}
