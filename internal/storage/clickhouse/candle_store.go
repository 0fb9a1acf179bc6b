package clickhouse

import (
	"context"
	"fmt"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
	"github.com/hudakjoseph28/fadeAi/internal/storage"
)

// CandleStore implements storage.CandleStore using ClickHouse.
//
// Upsert semantics come from the ReplacingMergeTree engine: duplicate
// (mint, resolution, t) rows collapse to the newest insert, and reads
// use FINAL so callers never observe the duplicates.
type CandleStore struct {
	conn *Conn
}

// NewCandleStore creates a new CandleStore.
func NewCandleStore(conn *Conn) *CandleStore {
	return &CandleStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

// UpsertBulk inserts or replaces candles keyed by (mint, resolution, t).
func (s *CandleStore) UpsertBulk(ctx context.Context, candles []*domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	for _, c := range candles {
		if c == nil || c.Mint == "" || c.Resolution == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO candles (mint, resolution, t, open, high, low, close)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range candles {
		err = batch.Append(
			c.Mint, c.Resolution, c.T,
			c.Open, c.High, c.Low, c.Close,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetRange retrieves candles for a mint and resolution with
// t in [start, end], ordered by t ASC.
func (s *CandleStore) GetRange(ctx context.Context, mint, resolution string, start, end int64) ([]*domain.Candle, error) {
	query := `
		SELECT mint, resolution, t, open, high, low, close
		FROM candles FINAL
		WHERE mint = ? AND resolution = ? AND t >= ? AND t <= ?
		ORDER BY t ASC
	`

	rows, err := s.conn.Query(ctx, query, mint, resolution, start, end)
	if err != nil {
		return nil, fmt.Errorf("query candle range: %w", err)
	}
	defer rows.Close()

	return scanCandles(rows)
}

// chRows is the subset of driver.Rows the scanners use.
type chRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanCandles scans multiple rows.
func scanCandles(rows chRows) ([]*domain.Candle, error) {
	var candles []*domain.Candle

	for rows.Next() {
		var c domain.Candle

		err := rows.Scan(
			&c.Mint, &c.Resolution, &c.T,
			&c.Open, &c.High, &c.Low, &c.Close,
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
