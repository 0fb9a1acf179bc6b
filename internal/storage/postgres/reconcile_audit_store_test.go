package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
)

func TestReconcileAuditStore_InsertFillsID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewReconcileAuditStore(pool)

	a := &domain.ReconcileAudit{
		Wallet:           testWallet,
		FromSlot:         1000,
		ToSlot:           2000,
		CountRaw:         10,
		CountWalletTx:    12,
		SignatureSetHash: "abc123",
		OK:               true,
		CreatedAt:        1700000000000,
	}
	require.NoError(t, store.Insert(ctx, a))
	assert.NotZero(t, a.ID)

	b := &domain.ReconcileAudit{
		Wallet:           testWallet,
		FromSlot:         2000,
		ToSlot:           3000,
		SignatureSetHash: "def456",
		OK:               false,
		CreatedAt:        1700000001000,
	}
	require.NoError(t, store.Insert(ctx, b))
	assert.Greater(t, b.ID, a.ID)
}

func TestReconcileAuditStore_GetByWalletNewestFirst(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewReconcileAuditStore(pool)

	for i := int64(0); i < 3; i++ {
		require.NoError(t, store.Insert(ctx, &domain.ReconcileAudit{
			Wallet:           testWallet,
			FromSlot:         1000 * i,
			ToSlot:           1000*i + 999,
			SignatureSetHash: "hash",
			OK:               true,
			CreatedAt:        1700000000000 + i,
		}))
	}
	require.NoError(t, store.Insert(ctx, &domain.ReconcileAudit{
		Wallet: "other", SignatureSetHash: "hash", OK: true, CreatedAt: 1,
	}))

	audits, err := store.GetByWallet(ctx, testWallet)
	require.NoError(t, err)
	require.Len(t, audits, 3)

	assert.Greater(t, audits[0].ID, audits[1].ID)
	assert.Greater(t, audits[1].ID, audits[2].ID)
	assert.Equal(t, int64(2000), audits[0].FromSlot)
}
