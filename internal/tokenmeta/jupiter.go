package tokenmeta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
)

// Jupiter token list defaults.
const (
	JupiterBaseURL = "https://lite-api.jup.ag/tokens/v1"
	jupiterTimeout = 10 * time.Second
)

// JupiterSource resolves metadata from the Jupiter token API, one mint
// per request. Unknown mints return 404 and are skipped.
type JupiterSource struct {
	baseURL string
	client  *http.Client
}

// NewJupiterSource creates a Jupiter metadata source.
func NewJupiterSource(baseURL string, client *http.Client) *JupiterSource {
	if baseURL == "" {
		baseURL = JupiterBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: jupiterTimeout}
	}
	return &JupiterSource{baseURL: baseURL, client: client}
}

// Name returns the source identifier.
func (s *JupiterSource) Name() string { return domain.MetaSourceJupiter }

type jupiterToken struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
}

// Resolve fetches each mint individually; a mint the API does not list
// is absent from the result.
func (s *JupiterSource) Resolve(ctx context.Context, mints []string) (map[string]*domain.TokenMeta, error) {
	result := make(map[string]*domain.TokenMeta, len(mints))
	now := time.Now().UnixMilli()

	for _, mint := range mints {
		tok, err := s.fetch(ctx, mint)
		if err != nil {
			return result, err
		}
		if tok == nil || tok.Symbol == "" {
			continue
		}
		result[mint] = &domain.TokenMeta{
			Mint:      mint,
			Symbol:    tok.Symbol,
			Name:      tok.Name,
			Decimals:  tok.Decimals,
			Source:    domain.MetaSourceJupiter,
			UpdatedAt: now,
		}
	}
	return result, nil
}

func (s *JupiterSource) fetch(ctx context.Context, mint string) (*jupiterToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/token/"+mint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jupiter request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jupiter token %s: HTTP %d", mint, resp.StatusCode)
	}

	var tok jupiterToken
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decode jupiter response: %w", err)
	}
	return &tok, nil
}

var _ Source = (*JupiterSource)(nil)
