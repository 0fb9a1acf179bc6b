package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
	"github.com/hudakjoseph28/fadeAi/internal/observability"
)

// Birdeye defaults.
const (
	BirdeyeBaseURL = "https://public-api.birdeye.so"
	birdeyeTimeout = 20 * time.Second
)

// birdeyeResolutions maps canonical resolutions to Birdeye OHLCV types.
var birdeyeResolutions = map[string]string{
	domain.Resolution1m: "1m",
	domain.Resolution5m: "5m",
	domain.Resolution1h: "1H",
	domain.Resolution1d: "1D",
}

// BirdeyeClient queries the Birdeye public API.
type BirdeyeClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// BirdeyeOption configures BirdeyeClient.
type BirdeyeOption func(*BirdeyeClient)

// WithBirdeyeBaseURL overrides the API base URL.
func WithBirdeyeBaseURL(u string) BirdeyeOption {
	return func(c *BirdeyeClient) {
		c.baseURL = u
	}
}

// WithBirdeyeHTTPClient sets a custom http.Client.
func WithBirdeyeHTTPClient(client *http.Client) BirdeyeOption {
	return func(c *BirdeyeClient) {
		c.client = client
	}
}

// NewBirdeyeClient creates a Birdeye oracle client.
func NewBirdeyeClient(apiKey string, opts ...BirdeyeOption) *BirdeyeClient {
	c := &BirdeyeClient{
		baseURL: BirdeyeBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: birdeyeTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type birdeyeOHLCVResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Items []struct {
			UnixTime int64   `json:"unixTime"`
			Open     float64 `json:"o"`
			High     float64 `json:"h"`
			Low      float64 `json:"l"`
			Close    float64 `json:"c"`
		} `json:"items"`
	} `json:"data"`
}

type birdeyePriceResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Value float64 `json:"value"`
	} `json:"data"`
}

// GetCandles fetches OHLCV items for [start, end].
func (c *BirdeyeClient) GetCandles(ctx context.Context, mint string, start, end int64, resolution string) ([]*domain.Candle, error) {
	ohlcvType, ok := birdeyeResolutions[resolution]
	if !ok {
		return nil, fmt.Errorf("unsupported resolution %q", resolution)
	}

	q := url.Values{}
	q.Set("address", mint)
	q.Set("type", ohlcvType)
	q.Set("time_from", strconv.FormatInt(start, 10))
	q.Set("time_to", strconv.FormatInt(end, 10))

	var resp birdeyeOHLCVResponse
	err := c.get(ctx, "/defi/ohlcv", q, &resp)
	observability.RecordOracleCall(ProviderBirdeye, err)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("birdeye ohlcv for %s: unsuccessful response", mint)
	}

	candles := make([]*domain.Candle, 0, len(resp.Data.Items))
	for _, it := range resp.Data.Items {
		if it.UnixTime < start || it.UnixTime > end {
			continue
		}
		candles = append(candles, &domain.Candle{
			Mint:       mint,
			Resolution: resolution,
			T:          it.UnixTime,
			Open:       it.Open,
			High:       it.High,
			Low:        it.Low,
			Close:      it.Close,
		})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].T < candles[j].T })
	return candles, nil
}

// GetCurrentPriceUSD fetches the current spot price.
func (c *BirdeyeClient) GetCurrentPriceUSD(ctx context.Context, mint string) (float64, error) {
	q := url.Values{}
	q.Set("address", mint)

	var resp birdeyePriceResponse
	err := c.get(ctx, "/defi/price", q, &resp)
	observability.RecordOracleCall(ProviderBirdeye, err)
	if err != nil {
		return 0, err
	}
	if !resp.Success || resp.Data.Value <= 0 {
		return 0, ErrPriceUnknown
	}
	return resp.Data.Value, nil
}

func (c *BirdeyeClient) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	u := c.baseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("x-chain", "solana")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("birdeye request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("birdeye %s: HTTP %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode birdeye response: %w", err)
	}
	return nil
}

var _ Oracle = (*BirdeyeClient)(nil)
