package oracle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
)

const testMint = "Token1Mint111111111111111111111111111111111"

func TestBirdeyeClient_GetCandles(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/defi/ohlcv", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("X-API-KEY"))
		gotQuery = map[string]string{
			"address":   r.URL.Query().Get("address"),
			"type":      r.URL.Query().Get("type"),
			"time_from": r.URL.Query().Get("time_from"),
			"time_to":   r.URL.Query().Get("time_to"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"items":[
			{"unixTime":7200,"o":1.5,"h":3,"l":1,"c":2},
			{"unixTime":3600,"o":1,"h":2,"l":0.5,"c":1.5},
			{"unixTime":99999,"o":9,"h":9,"l":9,"c":9}
		]}}`))
	}))
	defer srv.Close()

	c := NewBirdeyeClient("test-key", WithBirdeyeBaseURL(srv.URL))
	candles, err := c.GetCandles(context.Background(), testMint, 3600, 7200, domain.Resolution1h)
	require.NoError(t, err)

	assert.Equal(t, "1H", gotQuery["type"])
	assert.Equal(t, testMint, gotQuery["address"])
	assert.Equal(t, "3600", gotQuery["time_from"])
	assert.Equal(t, "7200", gotQuery["time_to"])

	// Out-of-window item dropped, remainder sorted ascending.
	require.Len(t, candles, 2)
	assert.Equal(t, int64(3600), candles[0].T)
	assert.Equal(t, int64(7200), candles[1].T)
	assert.Equal(t, 3.0, candles[1].High)
	assert.Equal(t, domain.Resolution1h, candles[0].Resolution)
}

func TestBirdeyeClient_GetCandlesUnsupportedResolution(t *testing.T) {
	c := NewBirdeyeClient("k")
	_, err := c.GetCandles(context.Background(), testMint, 0, 100, "2w")
	assert.Error(t, err)
}

func TestBirdeyeClient_GetCurrentPriceUSD(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/defi/price", r.URL.Path)
		w.Write([]byte(`{"success":true,"data":{"value":1.23}}`))
	}))
	defer srv.Close()

	c := NewBirdeyeClient("k", WithBirdeyeBaseURL(srv.URL))
	price, err := c.GetCurrentPriceUSD(context.Background(), testMint)
	require.NoError(t, err)
	assert.Equal(t, 1.23, price)
}

func TestBirdeyeClient_PriceUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"value":0}}`))
	}))
	defer srv.Close()

	c := NewBirdeyeClient("k", WithBirdeyeBaseURL(srv.URL))
	_, err := c.GetCurrentPriceUSD(context.Background(), testMint)
	assert.ErrorIs(t, err, ErrPriceUnknown)
}

func TestBirdeyeClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewBirdeyeClient("k", WithBirdeyeBaseURL(srv.URL))
	_, err := c.GetCandles(context.Background(), testMint, 0, 100, domain.Resolution1m)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrPriceUnknown))
}
