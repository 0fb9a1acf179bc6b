package postgres

import (
	"context"
	"fmt"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
	"github.com/hudakjoseph28/fadeAi/internal/storage"
)

// ReconcileAuditStore implements storage.ReconcileAuditStore using PostgreSQL.
type ReconcileAuditStore struct {
	pool *Pool
}

// NewReconcileAuditStore creates a new ReconcileAuditStore.
func NewReconcileAuditStore(pool *Pool) *ReconcileAuditStore {
	return &ReconcileAuditStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ReconcileAuditStore = (*ReconcileAuditStore)(nil)

// Insert appends a new audit row and fills its ID.
func (s *ReconcileAuditStore) Insert(ctx context.Context, a *domain.ReconcileAudit) error {
	if a == nil || a.Wallet == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO reconcile_audits (
			wallet, from_slot, to_slot, count_raw, count_wallet_tx, signature_set_hash, ok, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := s.pool.QueryRow(ctx, query,
		a.Wallet,
		a.FromSlot,
		a.ToSlot,
		a.CountRaw,
		a.CountWalletTx,
		a.SignatureSetHash,
		a.OK,
		a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("insert reconcile audit: %w", err)
	}
	return nil
}

// GetByWallet retrieves audit rows for a wallet, newest first.
func (s *ReconcileAuditStore) GetByWallet(ctx context.Context, wallet string) ([]*domain.ReconcileAudit, error) {
	query := `
		SELECT id, wallet, from_slot, to_slot, count_raw, count_wallet_tx, signature_set_hash, ok, created_at
		FROM reconcile_audits
		WHERE wallet = $1
		ORDER BY id DESC
	`

	rows, err := s.pool.Query(ctx, query, wallet)
	if err != nil {
		return nil, fmt.Errorf("get reconcile audits: %w", err)
	}
	defer rows.Close()

	var audits []*domain.ReconcileAudit
	for rows.Next() {
		var a domain.ReconcileAudit
		err := rows.Scan(
			&a.ID,
			&a.Wallet,
			&a.FromSlot,
			&a.ToSlot,
			&a.CountRaw,
			&a.CountWalletTx,
			&a.SignatureSetHash,
			&a.OK,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan reconcile audit row: %w", err)
		}
		audits = append(audits, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reconcile audit rows: %w", err)
	}
	return audits, nil
}
