package storage

import (
	"context"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
)

// All mutating operations are upserts keyed on the documented unique key,
// so re-ingesting the same page is a no-op on content.

// RawTransactionStore provides access to raw_transactions storage.
type RawTransactionStore interface {
	// Upsert inserts or replaces a transaction keyed by signature.
	Upsert(ctx context.Context, tx *domain.RawTransaction) error

	// UpsertBulk inserts or replaces multiple transactions.
	UpsertBulk(ctx context.Context, txs []*domain.RawTransaction) error

	// Exists reports whether a signature is already stored.
	Exists(ctx context.Context, signature string) (bool, error)

	// GetBySignature retrieves a transaction. Returns ErrNotFound if absent.
	GetBySignature(ctx context.Context, signature string) (*domain.RawTransaction, error)

	// GetSignaturesBySlotRange returns stored signatures for a wallet with
	// slot in [fromSlot, toSlot], ordered by slot ASC, signature ASC.
	GetSignaturesBySlotRange(ctx context.Context, wallet string, fromSlot, toSlot int64) ([]string, error)

	// CountByWallet returns the number of stored transactions for a wallet.
	CountByWallet(ctx context.Context, wallet string) (int, error)
}

// WalletEventStore provides access to wallet_events storage.
type WalletEventStore interface {
	// UpsertBulk inserts or replaces events keyed by (wallet, signature, index).
	UpsertBulk(ctx context.Context, events []*domain.WalletEvent) error

	// GetByWallet retrieves all events for a wallet, ordered by
	// block_time ASC, signature ASC, event_index ASC.
	GetByWallet(ctx context.Context, wallet string) ([]*domain.WalletEvent, error)

	// CountBySlotRange counts events for a wallet with slot in [fromSlot, toSlot].
	CountBySlotRange(ctx context.Context, wallet string, fromSlot, toSlot int64) (int, error)

	// CountByWallet returns the number of stored events for a wallet.
	CountByWallet(ctx context.Context, wallet string) (int, error)
}

// SyncStateStore provides access to sync_state storage.
type SyncStateStore interface {
	// Get retrieves sync state for a wallet. Returns ErrNotFound if absent.
	Get(ctx context.Context, wallet string) (*domain.SyncState, error)

	// Upsert inserts or replaces sync state keyed by wallet.
	Upsert(ctx context.Context, st *domain.SyncState) error
}

// ReconcileAuditStore provides access to reconcile_audits storage.
// Audit rows are append-only.
type ReconcileAuditStore interface {
	// Insert appends a new audit row and fills its ID.
	Insert(ctx context.Context, a *domain.ReconcileAudit) error

	// GetByWallet retrieves audit rows for a wallet, newest first.
	GetByWallet(ctx context.Context, wallet string) ([]*domain.ReconcileAudit, error)
}

// TokenMetaStore provides access to token_meta storage.
type TokenMetaStore interface {
	// Upsert inserts or replaces metadata keyed by mint.
	Upsert(ctx context.Context, m *domain.TokenMeta) error

	// GetByMints retrieves metadata for the given mints. Missing mints are
	// simply absent from the returned map.
	GetByMints(ctx context.Context, mints []string) (map[string]*domain.TokenMeta, error)
}

// CandleStore provides access to cached price candles.
type CandleStore interface {
	// UpsertBulk inserts or replaces candles keyed by (mint, resolution, t).
	UpsertBulk(ctx context.Context, candles []*domain.Candle) error

	// GetRange retrieves candles for a mint and resolution with
	// t in [start, end], ordered by t ASC.
	GetRange(ctx context.Context, mint, resolution string, start, end int64) ([]*domain.Candle, error)
}
