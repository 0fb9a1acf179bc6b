package domain

// Candle resolutions accepted by the price oracle.
const (
	Resolution1m = "1m"
	Resolution5m = "5m"
	Resolution1h = "1h"
	Resolution1d = "1d"
)

// Candle is one OHLC point for a mint at a resolution.
// Cache-filled on demand; keyed by (mint, resolution, t).
type Candle struct {
	Mint       string  // mint address
	Resolution string  // 1m | 5m | 1h | 1d
	T          int64   // bucket start, Unix seconds
	Open       float64
	High       float64
	Low        float64
	Close      float64
}
