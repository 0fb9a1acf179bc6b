package tokenmeta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
)

// DexScreener defaults.
const (
	DexScreenerBaseURL = "https://api.dexscreener.com/latest/dex"
	dexScreenerTimeout = 10 * time.Second
	dexScreenerBatch   = 30 // API limit on comma-joined addresses
)

// DexScreenerSource resolves symbols from pair listings. The API carries
// no decimals, so entries assume the derived default.
type DexScreenerSource struct {
	baseURL string
	client  *http.Client
}

// NewDexScreenerSource creates a DexScreener metadata source.
func NewDexScreenerSource(baseURL string, client *http.Client) *DexScreenerSource {
	if baseURL == "" {
		baseURL = DexScreenerBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: dexScreenerTimeout}
	}
	return &DexScreenerSource{baseURL: baseURL, client: client}
}

// Name returns the source identifier.
func (s *DexScreenerSource) Name() string { return domain.MetaSourceDexScreener }

type dexScreenerResponse struct {
	Pairs []struct {
		BaseToken struct {
			Address string `json:"address"`
			Symbol  string `json:"symbol"`
			Name    string `json:"name"`
		} `json:"baseToken"`
	} `json:"pairs"`
}

// Resolve fetches pair listings in batches of mints.
func (s *DexScreenerSource) Resolve(ctx context.Context, mints []string) (map[string]*domain.TokenMeta, error) {
	result := make(map[string]*domain.TokenMeta, len(mints))
	now := time.Now().UnixMilli()

	for start := 0; start < len(mints); start += dexScreenerBatch {
		end := start + dexScreenerBatch
		if end > len(mints) {
			end = len(mints)
		}
		batch := mints[start:end]

		var resp dexScreenerResponse
		if err := s.get(ctx, strings.Join(batch, ","), &resp); err != nil {
			return result, err
		}

		for _, pair := range resp.Pairs {
			addr := pair.BaseToken.Address
			if addr == "" || pair.BaseToken.Symbol == "" {
				continue
			}
			if _, ok := result[addr]; ok {
				continue
			}
			result[addr] = &domain.TokenMeta{
				Mint:      addr,
				Symbol:    pair.BaseToken.Symbol,
				Name:      pair.BaseToken.Name,
				Decimals:  DerivedDecimals,
				Source:    domain.MetaSourceDexScreener,
				UpdatedAt: now,
			}
		}
	}
	return result, nil
}

func (s *DexScreenerSource) get(ctx context.Context, joined string, out *dexScreenerResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/tokens/"+joined, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("dexscreener request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dexscreener tokens: HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode dexscreener response: %w", err)
	}
	return nil
}

var _ Source = (*DexScreenerSource)(nil)
