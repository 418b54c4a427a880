package memory

import (
	"context"
	"sort"
	"sync"

	"pumpwatch/internal/domain"
	"pumpwatch/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Token // keyed by mint address
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		data: make(map[string]*domain.Token),
	}
}

// Upsert inserts a token or updates its mutable fields.
func (s *TokenStore) Upsert(_ context.Context, t *domain.Token) error {
	if t == nil || t.MintAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *t
	s.data[t.MintAddress] = &copy
	return nil
}

// GetByMint retrieves a token. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByMint(_ context.Context, mint string) (*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[mint]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *t
	return &copy, nil
}

// Recent retrieves the most recently created tokens, newest first.
func (s *TokenStore) Recent(_ context.Context, limit int) ([]*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Token, 0, len(s.data))
	for _, t := range s.data {
		copy := *t
		result = append(result, &copy)
	}

	sortNewestFirst(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Candidates retrieves unflagged tokens created at or after sinceMs with
// nonzero trade volume, newest first.
func (s *TokenStore) Candidates(_ context.Context, sinceMs int64, limit int) ([]*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Token
	for _, t := range s.data {
		if t.Flagged || t.TradeVolume <= 0 {
			continue
		}
		if t.CreatedAt.UnixMilli() < sinceMs {
			continue
		}
		copy := *t
		result = append(result, &copy)
	}

	sortNewestFirst(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// sortNewestFirst orders tokens by creation time DESC, mint ASC for ties.
func sortNewestFirst(tokens []*domain.Token) {
	sort.Slice(tokens, func(i, j int) bool {
		if !tokens[i].CreatedAt.Equal(tokens[j].CreatedAt) {
			return tokens[i].CreatedAt.After(tokens[j].CreatedAt)
		}
		return tokens[i].MintAddress < tokens[j].MintAddress
	})
}

var _ storage.TokenStore = (*TokenStore)(nil)
