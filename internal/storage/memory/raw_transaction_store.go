package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
	"github.com/hudakjoseph28/fadeAi/internal/storage"
)

// RawTransactionStore is an in-memory implementation of storage.RawTransactionStore.
type RawTransactionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RawTransaction // keyed by signature
}

// NewRawTransactionStore creates a new in-memory raw transaction store.
func NewRawTransactionStore() *RawTransactionStore {
	return &RawTransactionStore{
		data: make(map[string]*domain.RawTransaction),
	}
}

// Upsert inserts or replaces a transaction keyed by signature.
func (s *RawTransactionStore) Upsert(_ context.Context, tx *domain.RawTransaction) error {
	if tx == nil || tx.Signature == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	txCopy := *tx
	s.data[tx.Signature] = &txCopy
	return nil
}

// UpsertBulk inserts or replaces multiple transactions.
func (s *RawTransactionStore) UpsertBulk(_ context.Context, txs []*domain.RawTransaction) error {
	if len(txs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range txs {
		if tx == nil || tx.Signature == "" {
			return storage.ErrInvalidInput
		}
	}
	for _, tx := range txs {
		txCopy := *tx
		s.data[tx.Signature] = &txCopy
	}
	return nil
}

// Exists reports whether a signature is already stored.
func (s *RawTransactionStore) Exists(_ context.Context, signature string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.data[signature]
	return exists, nil
}

// GetBySignature retrieves a transaction. Returns ErrNotFound if absent.
func (s *RawTransactionStore) GetBySignature(_ context.Context, signature string) (*domain.RawTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, exists := s.data[signature]
	if !exists {
		return nil, storage.ErrNotFound
	}

	txCopy := *tx
	return &txCopy, nil
}

// GetSignaturesBySlotRange returns stored signatures for a wallet with
// slot in [fromSlot, toSlot], ordered by slot ASC, signature ASC.
func (s *RawTransactionStore) GetSignaturesBySlotRange(_ context.Context, wallet string, fromSlot, toSlot int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.RawTransaction
	for _, tx := range s.data {
		if tx.Wallet == wallet && tx.Slot >= fromSlot && tx.Slot <= toSlot {
			matched = append(matched, tx)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Slot != matched[j].Slot {
			return matched[i].Slot < matched[j].Slot
		}
		return matched[i].Signature < matched[j].Signature
	})

	sigs := make([]string, 0, len(matched))
	for _, tx := range matched {
		sigs = append(sigs, tx.Signature)
	}
	return sigs, nil
}

// CountByWallet returns the number of stored transactions for a wallet.
func (s *RawTransactionStore) CountByWallet(_ context.Context, wallet string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, tx := range s.data {
		if tx.Wallet == wallet {
			count++
		}
	}
	return count, nil
}

var _ storage.RawTransactionStore = (*RawTransactionStore)(nil)
