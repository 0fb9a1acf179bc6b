package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
	"github.com/hudakjoseph28/fadeAi/internal/storage"
)

// WalletEventStore is an in-memory implementation of storage.WalletEventStore.
type WalletEventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.WalletEvent // keyed by composite key
}

// NewWalletEventStore creates a new in-memory wallet event store.
func NewWalletEventStore() *WalletEventStore {
	return &WalletEventStore{
		data: make(map[string]*domain.WalletEvent),
	}
}

// eventKey generates a unique key for a wallet event.
func eventKey(wallet, signature string, index int) string {
	return fmt.Sprintf("%s|%s|%d", wallet, signature, index)
}

// UpsertBulk inserts or replaces events keyed by (wallet, signature, index).
func (s *WalletEventStore) UpsertBulk(_ context.Context, events []*domain.WalletEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ev := range events {
		if ev == nil || ev.Wallet == "" || ev.Signature == "" {
			return storage.ErrInvalidInput
		}
	}
	for _, ev := range events {
		evCopy := *ev
		s.data[eventKey(ev.Wallet, ev.Signature, ev.Index)] = &evCopy
	}
	return nil
}

// GetByWallet retrieves all events for a wallet, ordered by
// block_time ASC, signature ASC, event_index ASC.
func (s *WalletEventStore) GetByWallet(_ context.Context, wallet string) ([]*domain.WalletEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.WalletEvent
	for _, ev := range s.data {
		if ev.Wallet == wallet {
			evCopy := *ev
			result = append(result, &evCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].BlockTime != result[j].BlockTime {
			return result[i].BlockTime < result[j].BlockTime
		}
		if result[i].Signature != result[j].Signature {
			return result[i].Signature < result[j].Signature
		}
		return result[i].Index < result[j].Index
	})

	return result, nil
}

// CountBySlotRange counts events for a wallet with slot in [fromSlot, toSlot].
func (s *WalletEventStore) CountBySlotRange(_ context.Context, wallet string, fromSlot, toSlot int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, ev := range s.data {
		if ev.Wallet == wallet && ev.Slot >= fromSlot && ev.Slot <= toSlot {
			count++
		}
	}
	return count, nil
}

// CountByWallet returns the number of stored events for a wallet.
func (s *WalletEventStore) CountByWallet(_ context.Context, wallet string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, ev := range s.data {
		if ev.Wallet == wallet {
			count++
		}
	}
	return count, nil
}

var _ storage.WalletEventStore = (*WalletEventStore)(nil)
