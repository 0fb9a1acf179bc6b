package postgres

import (
	"context"
	"fmt"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
	"github.com/hudakjoseph28/fadeAi/internal/storage"
)

// TokenMetaStore implements storage.TokenMetaStore using PostgreSQL.
type TokenMetaStore struct {
	pool *Pool
}

// NewTokenMetaStore creates a new TokenMetaStore.
func NewTokenMetaStore(pool *Pool) *TokenMetaStore {
	return &TokenMetaStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenMetaStore = (*TokenMetaStore)(nil)

// Upsert inserts or replaces metadata keyed by mint.
func (s *TokenMetaStore) Upsert(ctx context.Context, m *domain.TokenMeta) error {
	if m == nil || m.Mint == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO token_meta (mint, symbol, name, decimals, source, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (mint) DO UPDATE SET
			symbol     = EXCLUDED.symbol,
			name       = EXCLUDED.name,
			decimals   = EXCLUDED.decimals,
			source     = EXCLUDED.source,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		m.Mint,
		m.Symbol,
		m.Name,
		m.Decimals,
		m.Source,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert token meta: %w", err)
	}
	return nil
}

// GetByMints retrieves metadata for the given mints. Missing mints are
// simply absent from the returned map.
func (s *TokenMetaStore) GetByMints(ctx context.Context, mints []string) (map[string]*domain.TokenMeta, error) {
	result := make(map[string]*domain.TokenMeta)
	if len(mints) == 0 {
		return result, nil
	}

	query := `
		SELECT mint, symbol, name, decimals, source, updated_at
		FROM token_meta
		WHERE mint = ANY($1)
	`

	rows, err := s.pool.Query(ctx, query, mints)
	if err != nil {
		return nil, fmt.Errorf("get token meta by mints: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.TokenMeta
		err := rows.Scan(
			&m.Mint,
			&m.Symbol,
			&m.Name,
			&m.Decimals,
			&m.Source,
			&m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan token meta row: %w", err)
		}
		result[m.Mint] = &m
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token meta rows: %w", err)
	}
	return result, nil
}
