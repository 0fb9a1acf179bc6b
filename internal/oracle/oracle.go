// Package oracle answers historical and current USD price questions for
// token mints, backed by external market-data providers.
package oracle

import (
	"context"
	"errors"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
)

// Provider names accepted by configuration.
const (
	ProviderBirdeye = "birdeye"
	ProviderGecko   = "gecko"
)

// ErrPriceUnknown is returned when no provider can price a mint at the
// requested time.
var ErrPriceUnknown = errors.New("price unknown")

// Oracle is the upstream market-data contract.
type Oracle interface {
	// GetCandles returns OHLC candles with t in [start, end] Unix seconds
	// at the given resolution, ordered by t ASC.
	GetCandles(ctx context.Context, mint string, start, end int64, resolution string) ([]*domain.Candle, error)

	// GetCurrentPriceUSD returns the current USD price of a mint.
	// Returns ErrPriceUnknown when the provider has no quote.
	GetCurrentPriceUSD(ctx context.Context, mint string) (float64, error)
}
