package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
	"github.com/hudakjoseph28/fadeAi/internal/storage"
)

// RawTransactionStore implements storage.RawTransactionStore using PostgreSQL.
type RawTransactionStore struct {
	pool *Pool
}

// NewRawTransactionStore creates a new RawTransactionStore.
func NewRawTransactionStore(pool *Pool) *RawTransactionStore {
	return &RawTransactionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RawTransactionStore = (*RawTransactionStore)(nil)

const upsertRawTransactionQuery = `
	INSERT INTO raw_transactions (signature, wallet, slot, block_time, payload, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (signature) DO UPDATE SET
		wallet     = EXCLUDED.wallet,
		slot       = EXCLUDED.slot,
		block_time = EXCLUDED.block_time,
		payload    = EXCLUDED.payload
`

// Upsert inserts or replaces a transaction keyed by signature.
func (s *RawTransactionStore) Upsert(ctx context.Context, tx *domain.RawTransaction) error {
	if tx == nil || tx.Signature == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, upsertRawTransactionQuery,
		tx.Signature,
		tx.Wallet,
		tx.Slot,
		tx.BlockTime,
		tx.Payload,
		tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert raw transaction: %w", err)
	}
	return nil
}

// UpsertBulk inserts or replaces multiple transactions atomically.
func (s *RawTransactionStore) UpsertBulk(ctx context.Context, txs []*domain.RawTransaction) error {
	if len(txs) == 0 {
		return nil
	}
	for _, tx := range txs {
		if tx == nil || tx.Signature == "" {
			return storage.ErrInvalidInput
		}
	}

	dbTx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx)

	for _, tx := range txs {
		_, err := dbTx.Exec(ctx, upsertRawTransactionQuery,
			tx.Signature,
			tx.Wallet,
			tx.Slot,
			tx.BlockTime,
			tx.Payload,
			tx.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert raw transaction in bulk: %w", err)
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Exists reports whether a signature is already stored.
func (s *RawTransactionStore) Exists(ctx context.Context, signature string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM raw_transactions WHERE signature = $1)`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, signature).Scan(&exists); err != nil {
		return false, fmt.Errorf("check raw transaction exists: %w", err)
	}
	return exists, nil
}

// GetBySignature retrieves a transaction. Returns ErrNotFound if absent.
func (s *RawTransactionStore) GetBySignature(ctx context.Context, signature string) (*domain.RawTransaction, error) {
	query := `
		SELECT signature, wallet, slot, block_time, payload, created_at
		FROM raw_transactions
		WHERE signature = $1
	`

	var tx domain.RawTransaction
	err := s.pool.QueryRow(ctx, query, signature).Scan(
		&tx.Signature,
		&tx.Wallet,
		&tx.Slot,
		&tx.BlockTime,
		&tx.Payload,
		&tx.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get raw transaction: %w", err)
	}
	return &tx, nil
}

// GetSignaturesBySlotRange returns stored signatures for a wallet with
// slot in [fromSlot, toSlot], ordered by slot ASC, signature ASC.
func (s *RawTransactionStore) GetSignaturesBySlotRange(ctx context.Context, wallet string, fromSlot, toSlot int64) ([]string, error) {
	query := `
		SELECT signature
		FROM raw_transactions
		WHERE wallet = $1 AND slot >= $2 AND slot <= $3
		ORDER BY slot ASC, signature ASC
	`

	rows, err := s.pool.Query(ctx, query, wallet, fromSlot, toSlot)
	if err != nil {
		return nil, fmt.Errorf("get signatures by slot range: %w", err)
	}
	defer rows.Close()

	return scanSignatures(rows)
}

// CountByWallet returns the number of stored transactions for a wallet.
func (s *RawTransactionStore) CountByWallet(ctx context.Context, wallet string) (int, error) {
	query := `SELECT COUNT(*) FROM raw_transactions WHERE wallet = $1`

	var count int
	if err := s.pool.QueryRow(ctx, query, wallet).Scan(&count); err != nil {
		return 0, fmt.Errorf("count raw transactions: %w", err)
	}
	return count, nil
}

// scanSignatures scans single-column signature rows.
func scanSignatures(rows pgx.Rows) ([]string, error) {
	var sigs []string

	for rows.Next() {
		var sig string
		if err := rows.Scan(&sig); err != nil {
			return nil, fmt.Errorf("scan signature row: %w", err)
		}
		sigs = append(sigs, sig)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signature rows: %w", err)
	}
	return sigs, nil
}
