package tokenmeta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
)

// Helius DAS defaults.
const (
	HeliusRPCURL     = "https://mainnet.helius-rpc.com"
	heliusRPCTimeout = 20 * time.Second
)

// HeliusSource resolves metadata through the Helius DAS getAssetBatch
// RPC method.
type HeliusSource struct {
	rpcURL string
	apiKey string
	client *http.Client
}

// NewHeliusSource creates a Helius metadata source.
func NewHeliusSource(rpcURL, apiKey string, client *http.Client) *HeliusSource {
	if rpcURL == "" {
		rpcURL = HeliusRPCURL
	}
	if client == nil {
		client = &http.Client{Timeout: heliusRPCTimeout}
	}
	return &HeliusSource{rpcURL: rpcURL, apiKey: apiKey, client: client}
}

// Name returns the source identifier.
func (s *HeliusSource) Name() string { return domain.MetaSourceHelius }

type dasRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      int       `json:"id"`
	Method  string    `json:"method"`
	Params  dasParams `json:"params"`
}

type dasParams struct {
	IDs []string `json:"ids"`
}

type dasResponse struct {
	Result []*dasAsset `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type dasAsset struct {
	ID      string `json:"id"`
	Content struct {
		Metadata struct {
			Symbol string `json:"symbol"`
			Name   string `json:"name"`
		} `json:"metadata"`
	} `json:"content"`
	TokenInfo struct {
		Symbol   string `json:"symbol"`
		Decimals int    `json:"decimals"`
	} `json:"token_info"`
}

// Resolve fetches the whole batch in one getAssetBatch call.
func (s *HeliusSource) Resolve(ctx context.Context, mints []string) (map[string]*domain.TokenMeta, error) {
	body, err := json.Marshal(dasRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getAssetBatch",
		Params:  dasParams{IDs: mints},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.rpcURL+"/?api-key="+s.apiKey, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("helius das request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("helius das: HTTP %d", resp.StatusCode)
	}

	var rpcResp dasResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("decode das response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("helius das error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	result := make(map[string]*domain.TokenMeta, len(rpcResp.Result))
	now := time.Now().UnixMilli()
	for _, asset := range rpcResp.Result {
		if asset == nil {
			continue
		}
		symbol := asset.TokenInfo.Symbol
		if symbol == "" {
			symbol = asset.Content.Metadata.Symbol
		}
		if symbol == "" {
			continue
		}
		result[asset.ID] = &domain.TokenMeta{
			Mint:      asset.ID,
			Symbol:    symbol,
			Name:      asset.Content.Metadata.Name,
			Decimals:  asset.TokenInfo.Decimals,
			Source:    domain.MetaSourceHelius,
			UpdatedAt: now,
		}
	}
	return result, nil
}

var _ Source = (*HeliusSource)(nil)
