package memory

import (
	"context"
	"sort"
	"sync"

	"pumpwatch/internal/domain"
	"pumpwatch/internal/storage"
)

// PricePointStore is an in-memory implementation of storage.PricePointStore.
type PricePointStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.PricePoint // keyed by mint address
}

// NewPricePointStore creates a new in-memory price point store.
func NewPricePointStore() *PricePointStore {
	return &PricePointStore{
		data: make(map[string][]*domain.PricePoint),
	}
}

// InsertBulk adds multiple points. Fails entire batch on duplicate
// (mint, timestamp_ms).
func (s *PricePointStore) InsertBulk(_ context.Context, points []*domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	type key struct {
		mint        string
		timestampMs int64
	}

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[key]struct{}, len(points))
	for _, p := range points {
		if p == nil || p.MintAddress == "" {
			return storage.ErrInvalidInput
		}

		k := key{p.MintAddress, p.TimestampMs}
		if _, exists := batchKeys[k]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[k] = struct{}{}

		for _, existing := range s.data[p.MintAddress] {
			if existing.TimestampMs == p.TimestampMs {
				return storage.ErrDuplicateKey
			}
		}
	}

	// Second pass: insert all, keeping per-mint order by timestamp
	for _, p := range points {
		copy := *p
		s.data[p.MintAddress] = append(s.data[p.MintAddress], &copy)
	}
	for _, p := range points {
		series := s.data[p.MintAddress]
		sort.Slice(series, func(i, j int) bool {
			return series[i].TimestampMs < series[j].TimestampMs
		})
	}

	return nil
}

// GetByMint retrieves all points for a mint, ordered by timestamp ASC.
func (s *PricePointStore) GetByMint(_ context.Context, mint string) ([]*domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.data[mint]
	result := make([]*domain.PricePoint, 0, len(series))
	for _, p := range series {
		copy := *p
		result = append(result, &copy)
	}
	return result, nil
}

// GetByTimeRange retrieves points for a mint within [start, end] (inclusive).
func (s *PricePointStore) GetByTimeRange(_ context.Context, mint string, start, end int64) ([]*domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PricePoint
	for _, p := range s.data[mint] {
		if p.TimestampMs >= start && p.TimestampMs <= end {
			copy := *p
			result = append(result, &copy)
		}
	}
	return result, nil
}

var _ storage.PricePointStore = (*PricePointStore)(nil)
