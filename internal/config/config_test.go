package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HELIUS_API_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.HeliusAPIKey)
	assert.Equal(t, 20000, cfg.IndexerTimeoutMS)
	assert.Equal(t, 1000, cfg.IndexerPageLimit)
	assert.Equal(t, 1000, cfg.MaxPages)
	assert.Equal(t, "birdeye", cfg.PriceProvider)
	assert.Equal(t, 20*time.Second, cfg.Timeout())
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("HELIUS_API_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HELIUS_API_KEY", "secret")
	t.Setenv("INDEXER_TIMEOUT_MS", "5000")
	t.Setenv("PRICE_PROVIDER", "gecko")
	t.Setenv("DATABASE_URL", "postgres://localhost/fade")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.IndexerTimeoutMS)
	assert.Equal(t, "gecko", cfg.PriceProvider)
	assert.Equal(t, "postgres://localhost/fade", cfg.DatabaseURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout())
}

func TestLoad_InvalidProvider(t *testing.T) {
	t.Setenv("HELIUS_API_KEY", "secret")
	t.Setenv("PRICE_PROVIDER", "kraken")

	_, err := Load()
	assert.Error(t, err)
}
