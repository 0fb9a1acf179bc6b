package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
	"github.com/hudakjoseph28/fadeAi/internal/observability"
)

// GeckoTerminal defaults.
const (
	GeckoBaseURL = "https://api.geckoterminal.com/api/v2"
	geckoNetwork = "solana"
	geckoTimeout = 20 * time.Second
)

// geckoTimeframe maps a canonical resolution to the GeckoTerminal
// timeframe path segment and aggregate parameter.
func geckoTimeframe(resolution string) (string, int, error) {
	switch resolution {
	case domain.Resolution1m:
		return "minute", 1, nil
	case domain.Resolution5m:
		return "minute", 5, nil
	case domain.Resolution1h:
		return "hour", 1, nil
	case domain.Resolution1d:
		return "day", 1, nil
	default:
		return "", 0, fmt.Errorf("unsupported resolution %q", resolution)
	}
}

// GeckoClient queries the GeckoTerminal public API. Candle lookups go
// through the mint's top pool, resolved once and cached per mint.
type GeckoClient struct {
	baseURL string
	client  *http.Client

	mu    sync.Mutex
	pools map[string]string // mint → pool address
}

// GeckoOption configures GeckoClient.
type GeckoOption func(*GeckoClient)

// WithGeckoBaseURL overrides the API base URL.
func WithGeckoBaseURL(u string) GeckoOption {
	return func(c *GeckoClient) {
		c.baseURL = u
	}
}

// WithGeckoHTTPClient sets a custom http.Client.
func WithGeckoHTTPClient(client *http.Client) GeckoOption {
	return func(c *GeckoClient) {
		c.client = client
	}
}

// NewGeckoClient creates a GeckoTerminal oracle client.
func NewGeckoClient(opts ...GeckoOption) *GeckoClient {
	c := &GeckoClient{
		baseURL: GeckoBaseURL,
		client:  &http.Client{Timeout: geckoTimeout},
		pools:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type geckoPoolsResponse struct {
	Data []struct {
		Attributes struct {
			Address string `json:"address"`
		} `json:"attributes"`
	} `json:"data"`
}

type geckoOHLCVResponse struct {
	Data struct {
		Attributes struct {
			// Each entry is [t, o, h, l, c, volume].
			OHLCVList [][]float64 `json:"ohlcv_list"`
		} `json:"attributes"`
	} `json:"data"`
}

type geckoPriceResponse struct {
	Data struct {
		Attributes struct {
			TokenPrices map[string]string `json:"token_prices"`
		} `json:"attributes"`
	} `json:"data"`
}

// GetCandles fetches pool OHLCV for [start, end].
func (c *GeckoClient) GetCandles(ctx context.Context, mint string, start, end int64, resolution string) ([]*domain.Candle, error) {
	timeframe, aggregate, err := geckoTimeframe(resolution)
	if err != nil {
		return nil, err
	}

	pool, err := c.topPool(ctx, mint)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("aggregate", strconv.Itoa(aggregate))
	q.Set("before_timestamp", strconv.FormatInt(end, 10))
	q.Set("limit", "1000")
	q.Set("currency", "usd")

	path := fmt.Sprintf("/networks/%s/pools/%s/ohlcv/%s", geckoNetwork, pool, timeframe)
	var resp geckoOHLCVResponse
	err = c.get(ctx, path, q, &resp)
	observability.RecordOracleCall(ProviderGecko, err)
	if err != nil {
		return nil, err
	}

	var candles []*domain.Candle
	for _, row := range resp.Data.Attributes.OHLCVList {
		if len(row) < 5 {
			continue
		}
		t := int64(row[0])
		if t < start || t > end {
			continue
		}
		candles = append(candles, &domain.Candle{
			Mint:       mint,
			Resolution: resolution,
			T:          t,
			Open:       row[1],
			High:       row[2],
			Low:        row[3],
			Close:      row[4],
		})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].T < candles[j].T })
	return candles, nil
}

// GetCurrentPriceUSD fetches the current token price.
func (c *GeckoClient) GetCurrentPriceUSD(ctx context.Context, mint string) (float64, error) {
	path := fmt.Sprintf("/simple/networks/%s/token_price/%s", geckoNetwork, mint)

	var resp geckoPriceResponse
	err := c.get(ctx, path, nil, &resp)
	observability.RecordOracleCall(ProviderGecko, err)
	if err != nil {
		return 0, err
	}

	for m, v := range resp.Data.Attributes.TokenPrices {
		if strings.EqualFold(m, mint) {
			price, err := strconv.ParseFloat(v, 64)
			if err != nil || price <= 0 {
				return 0, ErrPriceUnknown
			}
			return price, nil
		}
	}
	return 0, ErrPriceUnknown
}

// topPool resolves and caches the highest-liquidity pool for a mint.
func (c *GeckoClient) topPool(ctx context.Context, mint string) (string, error) {
	c.mu.Lock()
	pool, ok := c.pools[mint]
	c.mu.Unlock()
	if ok {
		return pool, nil
	}

	path := fmt.Sprintf("/networks/%s/tokens/%s/pools", geckoNetwork, mint)
	q := url.Values{}
	q.Set("page", "1")

	var resp geckoPoolsResponse
	if err := c.get(ctx, path, q, &resp); err != nil {
		return "", err
	}
	if len(resp.Data) == 0 {
		return "", fmt.Errorf("no pools for mint %s: %w", mint, ErrPriceUnknown)
	}
	pool = resp.Data[0].Attributes.Address

	c.mu.Lock()
	c.pools[mint] = pool
	c.mu.Unlock()
	return pool, nil
}

func (c *GeckoClient) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("geckoterminal request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geckoterminal %s: HTTP %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode geckoterminal response: %w", err)
	}
	return nil
}

var _ Oracle = (*GeckoClient)(nil)
