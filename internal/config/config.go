// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/hudakjoseph28/fadeAi/internal/oracle"
)

// Config is the full environment configuration of the indexer.
type Config struct {
	// HeliusAPIKey authenticates enhanced-transaction and DAS calls.
	HeliusAPIKey string `envconfig:"HELIUS_API_KEY" required:"true"`

	// IndexerTimeoutMS bounds every upstream HTTP call.
	IndexerTimeoutMS int `envconfig:"INDEXER_TIMEOUT_MS" default:"20000"`

	// IndexerPageLimit is the requested items per provider page.
	IndexerPageLimit int `envconfig:"INDEXER_PAGE_LIMIT" default:"1000"`

	// MaxPages is the backfill safety cap.
	MaxPages int `envconfig:"MAX_PAGES" default:"1000"`

	// PriceProvider selects the candle/price backend: birdeye or gecko.
	PriceProvider string `envconfig:"PRICE_PROVIDER" default:"birdeye"`

	// BirdeyeAPIKey is required when PriceProvider is birdeye.
	BirdeyeAPIKey string `envconfig:"BIRDEYE_API_KEY"`

	// DatabaseURL enables the postgres store when set; the in-memory
	// store is used otherwise.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// ClickHouseURL enables the clickhouse candle store when set.
	ClickHouseURL string `envconfig:"CLICKHOUSE_URL"`

	// MetricsAddr serves /metrics when set, e.g. ":9091".
	MetricsAddr string `envconfig:"METRICS_ADDR"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.PriceProvider {
	case oracle.ProviderBirdeye, oracle.ProviderGecko:
	default:
		return fmt.Errorf("PRICE_PROVIDER must be %q or %q, got %q",
			oracle.ProviderBirdeye, oracle.ProviderGecko, c.PriceProvider)
	}
	if c.IndexerTimeoutMS <= 0 {
		return fmt.Errorf("INDEXER_TIMEOUT_MS must be positive, got %d", c.IndexerTimeoutMS)
	}
	if c.IndexerPageLimit <= 0 {
		return fmt.Errorf("INDEXER_PAGE_LIMIT must be positive, got %d", c.IndexerPageLimit)
	}
	return nil
}

// Timeout returns the per-call upstream timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.IndexerTimeoutMS) * time.Millisecond
}
