package memory

import (
	"context"
	"sync"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
	"github.com/hudakjoseph28/fadeAi/internal/storage"
)

// TokenMetaStore is an in-memory implementation of storage.TokenMetaStore.
type TokenMetaStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TokenMeta // keyed by mint
}

// NewTokenMetaStore creates a new in-memory token metadata store.
func NewTokenMetaStore() *TokenMetaStore {
	return &TokenMetaStore{
		data: make(map[string]*domain.TokenMeta),
	}
}

// Upsert inserts or replaces metadata keyed by mint.
func (s *TokenMetaStore) Upsert(_ context.Context, m *domain.TokenMeta) error {
	if m == nil || m.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mCopy := *m
	s.data[m.Mint] = &mCopy
	return nil
}

// GetByMints retrieves metadata for the given mints. Missing mints are
// simply absent from the returned map.
func (s *TokenMetaStore) GetByMints(_ context.Context, mints []string) (map[string]*domain.TokenMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*domain.TokenMeta, len(mints))
	for _, mint := range mints {
		if m, exists := s.data[mint]; exists {
			mCopy := *m
			result[mint] = &mCopy
		}
	}
	return result, nil
}

var _ storage.TokenMetaStore = (*TokenMetaStore)(nil)
