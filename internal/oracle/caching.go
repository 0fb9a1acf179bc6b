package oracle

import (
	"context"
	"fmt"
	"log"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
	"github.com/hudakjoseph28/fadeAi/internal/observability"
	"github.com/hudakjoseph28/fadeAi/internal/storage"
)

// Trailing windows scanned by PriceAt before giving up on a timestamp.
const (
	priceAtFineWindow   = 3600  // 1m candles over the last hour
	priceAtCoarseWindow = 86400 // 1h candles over the last day
)

// CachingOracle serves candles from the durable store and fills misses
// from the upstream oracle. A window fully present in the store is
// never re-fetched; a partially cached window counts as a miss.
type CachingOracle struct {
	upstream Oracle
	store    storage.CandleStore
	logger   *log.Logger
}

// NewCachingOracle wraps an upstream oracle with a candle-store cache.
func NewCachingOracle(upstream Oracle, store storage.CandleStore, logger *log.Logger) *CachingOracle {
	if logger == nil {
		logger = log.Default()
	}
	return &CachingOracle{upstream: upstream, store: store, logger: logger}
}

// GetCandles returns cached candles for [start, end], fetching and
// persisting the window on a miss.
func (c *CachingOracle) GetCandles(ctx context.Context, mint string, start, end int64, resolution string) ([]*domain.Candle, error) {
	cached, err := c.store.GetRange(ctx, mint, resolution, start, end)
	if err != nil {
		return nil, fmt.Errorf("candle cache read: %w", err)
	}
	if coversWindow(cached, start, end, resolutionSeconds(resolution)) {
		observability.RecordCandleCache(true)
		return cached, nil
	}
	observability.RecordCandleCache(false)

	fetched, err := c.upstream.GetCandles(ctx, mint, start, end, resolution)
	if err != nil {
		return nil, err
	}
	if len(fetched) > 0 {
		if err := c.store.UpsertBulk(ctx, fetched); err != nil {
			// A failed cache write degrades to pass-through.
			c.logger.Printf("mint=%s candle cache write: %v", mint, err)
		}
	}
	return fetched, nil
}

// resolutionSeconds returns the candle step for a resolution, 0 when
// unknown.
func resolutionSeconds(resolution string) int64 {
	switch resolution {
	case domain.Resolution1m:
		return 60
	case domain.Resolution5m:
		return 300
	case domain.Resolution1h:
		return 3600
	case domain.Resolution1d:
		return 86400
	}
	return 0
}

// coversWindow reports whether cached candles reach both edges of
// [start, end] within one resolution step. A cached sub-window narrower
// than the request must not mask the uncached remainder.
func coversWindow(cached []*domain.Candle, start, end, step int64) bool {
	if len(cached) == 0 {
		return false
	}
	if step <= 0 {
		return true
	}
	minT, maxT := cached[0].T, cached[0].T
	for _, c := range cached[1:] {
		if c.T < minT {
			minT = c.T
		}
		if c.T > maxT {
			maxT = c.T
		}
	}
	return minT < start+step && maxT > end-step
}

// GetCurrentPriceUSD passes through to the upstream oracle.
func (c *CachingOracle) GetCurrentPriceUSD(ctx context.Context, mint string) (float64, error) {
	return c.upstream.GetCurrentPriceUSD(ctx, mint)
}

// PriceAt returns the USD price of a mint at ts, taken from the close of
// the latest candle at or before ts. It scans minute candles over the
// trailing hour first, then hour candles over the trailing day.
// Returns ErrPriceUnknown when neither window has data.
func (c *CachingOracle) PriceAt(ctx context.Context, mint string, ts int64) (float64, error) {
	windows := []struct {
		resolution string
		span       int64
	}{
		{domain.Resolution1m, priceAtFineWindow},
		{domain.Resolution1h, priceAtCoarseWindow},
	}

	for _, w := range windows {
		candles, err := c.GetCandles(ctx, mint, ts-w.span, ts, w.resolution)
		if err != nil {
			c.logger.Printf("mint=%s priceAt %s lookup: %v", mint, w.resolution, err)
			continue
		}
		for i := len(candles) - 1; i >= 0; i-- {
			if candles[i].T <= ts && candles[i].Close > 0 {
				return candles[i].Close, nil
			}
		}
	}
	return 0, fmt.Errorf("mint %s at %d: %w", mint, ts, ErrPriceUnknown)
}

var _ Oracle = (*CachingOracle)(nil)
