package postgres

import (
	"context"
	"fmt"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
	"github.com/hudakjoseph28/fadeAi/internal/storage"
)

// SyncStateStore implements storage.SyncStateStore using PostgreSQL.
type SyncStateStore struct {
	pool *Pool
}

// NewSyncStateStore creates a new SyncStateStore.
func NewSyncStateStore(pool *Pool) *SyncStateStore {
	return &SyncStateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SyncStateStore = (*SyncStateStore)(nil)

// Get retrieves sync state for a wallet. Returns ErrNotFound if absent.
func (s *SyncStateStore) Get(ctx context.Context, wallet string) (*domain.SyncState, error) {
	query := `
		SELECT wallet, last_before, verified_slot, full_scan_at, created_at, updated_at
		FROM sync_state
		WHERE wallet = $1
	`

	var st domain.SyncState
	err := s.pool.QueryRow(ctx, query, wallet).Scan(
		&st.Wallet,
		&st.LastBefore,
		&st.VerifiedSlot,
		&st.FullScanAt,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get sync state: %w", err)
	}
	return &st, nil
}

// Upsert inserts or replaces sync state keyed by wallet.
func (s *SyncStateStore) Upsert(ctx context.Context, st *domain.SyncState) error {
	if st == nil || st.Wallet == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO sync_state (wallet, last_before, verified_slot, full_scan_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (wallet) DO UPDATE SET
			last_before   = EXCLUDED.last_before,
			verified_slot = EXCLUDED.verified_slot,
			full_scan_at  = EXCLUDED.full_scan_at,
			updated_at    = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		st.Wallet,
		st.LastBefore,
		st.VerifiedSlot,
		st.FullScanAt,
		st.CreatedAt,
		st.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert sync state: %w", err)
	}
	return nil
}
