package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
	"github.com/hudakjoseph28/fadeAi/internal/storage"
)

// ReconcileAuditStore is an in-memory implementation of storage.ReconcileAuditStore.
type ReconcileAuditStore struct {
	mu     sync.RWMutex
	nextID int64
	data   []*domain.ReconcileAudit
}

// NewReconcileAuditStore creates a new in-memory reconcile audit store.
func NewReconcileAuditStore() *ReconcileAuditStore {
	return &ReconcileAuditStore{nextID: 1}
}

// Insert appends a new audit row and fills its ID.
func (s *ReconcileAuditStore) Insert(_ context.Context, a *domain.ReconcileAudit) error {
	if a == nil || a.Wallet == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = s.nextID
	s.nextID++

	aCopy := *a
	s.data = append(s.data, &aCopy)
	return nil
}

// GetByWallet retrieves audit rows for a wallet, newest first.
func (s *ReconcileAuditStore) GetByWallet(_ context.Context, wallet string) ([]*domain.ReconcileAudit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ReconcileAudit
	for _, a := range s.data {
		if a.Wallet == wallet {
			aCopy := *a
			result = append(result, &aCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID > result[j].ID
	})

	return result, nil
}

var _ storage.ReconcileAuditStore = (*ReconcileAuditStore)(nil)
