package memory

import (
	"context"
	"sync"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
	"github.com/hudakjoseph28/fadeAi/internal/storage"
)

// SyncStateStore is an in-memory implementation of storage.SyncStateStore.
type SyncStateStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SyncState // keyed by wallet
}

// NewSyncStateStore creates a new in-memory sync state store.
func NewSyncStateStore() *SyncStateStore {
	return &SyncStateStore{
		data: make(map[string]*domain.SyncState),
	}
}

// Get retrieves sync state for a wallet. Returns ErrNotFound if absent.
func (s *SyncStateStore) Get(_ context.Context, wallet string) (*domain.SyncState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, exists := s.data[wallet]
	if !exists {
		return nil, storage.ErrNotFound
	}

	stCopy := *st
	return &stCopy, nil
}

// Upsert inserts or replaces sync state keyed by wallet.
func (s *SyncStateStore) Upsert(_ context.Context, st *domain.SyncState) error {
	if st == nil || st.Wallet == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stCopy := *st
	s.data[st.Wallet] = &stCopy
	return nil
}

var _ storage.SyncStateStore = (*SyncStateStore)(nil)
