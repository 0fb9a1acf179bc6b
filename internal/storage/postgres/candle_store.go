package postgres

import (
	"context"
	"fmt"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
	"github.com/hudakjoseph28/fadeAi/internal/storage"
)

// CandleStore implements storage.CandleStore using PostgreSQL.
type CandleStore struct {
	pool *Pool
}

// NewCandleStore creates a new CandleStore.
func NewCandleStore(pool *Pool) *CandleStore {
	return &CandleStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

const upsertCandleQuery = `
	INSERT INTO candles (mint, resolution, t, open, high, low, close)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (mint, resolution, t) DO UPDATE SET
		open  = EXCLUDED.open,
		high  = EXCLUDED.high,
		low   = EXCLUDED.low,
		close = EXCLUDED.close
`

// UpsertBulk inserts or replaces candles keyed by (mint, resolution, t)
// atomically.
func (s *CandleStore) UpsertBulk(ctx context.Context, candles []*domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	for _, c := range candles {
		if c == nil || c.Mint == "" || c.Resolution == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, c := range candles {
		_, err := tx.Exec(ctx, upsertCandleQuery,
			c.Mint,
			c.Resolution,
			c.T,
			c.Open,
			c.High,
			c.Low,
			c.Close,
		)
		if err != nil {
			return fmt.Errorf("upsert candle in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetRange retrieves candles for a mint and resolution with
// t in [start, end], ordered by t ASC.
func (s *CandleStore) GetRange(ctx context.Context, mint, resolution string, start, end int64) ([]*domain.Candle, error) {
	query := `
		SELECT mint, resolution, t, open, high, low, close
		FROM candles
		WHERE mint = $1 AND resolution = $2 AND t >= $3 AND t <= $4
		ORDER BY t ASC
	`

	rows, err := s.pool.Query(ctx, query, mint, resolution, start, end)
	if err != nil {
		return nil, fmt.Errorf("get candle range: %w", err)
	}
	defer rows.Close()

	var candles []*domain.Candle
	for rows.Next() {
		var c domain.Candle
		err := rows.Scan(
			&c.Mint,
			&c.Resolution,
			&c.T,
			&c.Open,
			&c.High,
			&c.Low,
			&c.Close,
		)
		if err != nil {
			return nil, fmt.Errorf("scan candle row: %w", err)
		}
		candles = append(candles, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candle rows: %w", err)
	}
	return candles, nil
}
