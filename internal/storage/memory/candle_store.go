package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
	"github.com/hudakjoseph28/fadeAi/internal/storage"
)

// CandleStore is an in-memory implementation of storage.CandleStore.
type CandleStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Candle // keyed by composite key
}

// NewCandleStore creates a new in-memory candle store.
func NewCandleStore() *CandleStore {
	return &CandleStore{
		data: make(map[string]*domain.Candle),
	}
}

// candleKey generates a unique key for a candle.
func candleKey(mint, resolution string, t int64) string {
	return fmt.Sprintf("%s|%s|%d", mint, resolution, t)
}

// UpsertBulk inserts or replaces candles keyed by (mint, resolution, t).
func (s *CandleStore) UpsertBulk(_ context.Context, candles []*domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range candles {
		if c == nil || c.Mint == "" || c.Resolution == "" {
			return storage.ErrInvalidInput
		}
	}
	for _, c := range candles {
		cCopy := *c
		s.data[candleKey(c.Mint, c.Resolution, c.T)] = &cCopy
	}
	return nil
}

// GetRange retrieves candles for a mint and resolution with
// t in [start, end], ordered by t ASC.
func (s *CandleStore) GetRange(_ context.Context, mint, resolution string, start, end int64) ([]*domain.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Candle
	for _, c := range s.data {
		if c.Mint == mint && c.Resolution == resolution && c.T >= start && c.T <= end {
			cCopy := *c
			result = append(result, &cCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].T < result[j].T
	})

	return result, nil
}

var _ storage.CandleStore = (*CandleStore)(nil)
