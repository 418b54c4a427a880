package memory

import (
	"context"
	"sort"
	"sync"

	"pumpwatch/internal/domain"
	"pumpwatch/internal/storage"
)

// TradeRecordStore is an in-memory implementation of storage.TradeRecordStore.
type TradeRecordStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TradeRecord // keyed by trade_id
}

// NewTradeRecordStore creates a new in-memory trade record store.
func NewTradeRecordStore() *TradeRecordStore {
	return &TradeRecordStore{
		data: make(map[string]*domain.TradeRecord),
	}
}

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeRecordStore) Insert(_ context.Context, t *domain.TradeRecord) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.TradeID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *t
	s.data[t.TradeID] = &copy
	return nil
}

// SetStatus marks a buy record open or closed as sells consume it.
func (s *TradeRecordStore) SetStatus(_ context.Context, tradeID string, status domain.TradeStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.data[tradeID]
	if !exists {
		return storage.ErrNotFound
	}

	t.Status = status
	return nil
}

// SetRealized records a sell's realized PnL exactly once.
func (s *TradeRecordStore) SetRealized(_ context.Context, tradeID string, pnl, pnlPct, pnlUSD float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.data[tradeID]
	if !exists {
		return storage.ErrNotFound
	}
	if t.RealizedPnL != nil {
		return storage.ErrDuplicateKey
	}

	t.RealizedPnL = &pnl
	t.RealizedPnLPct = &pnlPct
	t.RealizedUSD = &pnlUSD
	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeRecordStore) GetByID(_ context.Context, tradeID string) (*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[tradeID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *t
	return &copy, nil
}

// GetByMint retrieves all trades for a mint, ordered by created_at ASC.
func (s *TradeRecordStore) GetByMint(_ context.Context, mint string) ([]*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeRecord
	for _, t := range s.data {
		if t.MintAddress == mint {
			copy := *t
			result = append(result, &copy)
		}
	}

	sortByCreatedAt(result)
	return result, nil
}

// GetAll retrieves all trades ordered by created_at ASC.
func (s *TradeRecordStore) GetAll(_ context.Context) ([]*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TradeRecord, 0, len(s.data))
	for _, t := range s.data {
		copy := *t
		result = append(result, &copy)
	}

	sortByCreatedAt(result)
	return result, nil
}

// sortByCreatedAt orders trades by creation time ASC, trade_id ASC for ties.
func sortByCreatedAt(trades []*domain.TradeRecord) {
	sort.Slice(trades, func(i, j int) bool {
		if !trades[i].CreatedAt.Equal(trades[j].CreatedAt) {
			return trades[i].CreatedAt.Before(trades[j].CreatedAt)
		}
		return trades[i].TradeID < trades[j].TradeID
	})
}

var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)
