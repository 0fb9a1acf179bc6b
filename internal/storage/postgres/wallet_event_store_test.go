package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
)

func testEvent(sig string, index int, slot, blockTime int64) *domain.WalletEvent {
	return &domain.WalletEvent{
		Wallet:        testWallet,
		Signature:     sig,
		Index:         index,
		Slot:          slot,
		BlockTime:     blockTime,
		Program:       "spl-token",
		Side:          domain.SideBuy,
		Direction:     domain.DirectionIn,
		TokenMint:     "MintAddr1111111111111111111111111111111111",
		TokenSymbol:   "TEST",
		TokenDecimals: 6,
		AmountRaw:     "1000000",
		AmountUI:      1.0,
		CreatedAt:     1700000000000,
	}
}

func TestWalletEventStore_UpsertBulkAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewWalletEventStore(pool)

	ev := testEvent("sig1", 0, 1000, 1700000000)
	ev.AmountUSD = ptr(12.5)
	ev.PriceUSDAtTx = ptr(12.5)
	ev.LinkID = "link1"
	ev.FeeBaseUnits = 5000

	require.NoError(t, store.UpsertBulk(ctx, []*domain.WalletEvent{ev}))

	events, err := store.GetByWallet(ctx, testWallet)
	require.NoError(t, err)
	require.Len(t, events, 1)

	got := events[0]
	assert.Equal(t, ev.Signature, got.Signature)
	assert.Equal(t, ev.Index, got.Index)
	assert.Equal(t, ev.Side, got.Side)
	assert.Equal(t, ev.Direction, got.Direction)
	assert.Equal(t, ev.TokenMint, got.TokenMint)
	assert.Equal(t, ev.AmountRaw, got.AmountRaw)
	require.NotNil(t, got.AmountUSD)
	assert.InDelta(t, 12.5, *got.AmountUSD, 0.0001)
	require.NotNil(t, got.PriceUSDAtTx)
	assert.InDelta(t, 12.5, *got.PriceUSDAtTx, 0.0001)
	assert.Equal(t, "link1", got.LinkID)
	assert.Equal(t, int64(5000), got.FeeBaseUnits)
}

func TestWalletEventStore_NilPricesRoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewWalletEventStore(pool)

	require.NoError(t, store.UpsertBulk(ctx, []*domain.WalletEvent{testEvent("sig1", 0, 1000, 1700000000)}))

	events, err := store.GetByWallet(ctx, testWallet)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].AmountUSD)
	assert.Nil(t, events[0].PriceUSDAtTx)
}

func TestWalletEventStore_UpsertReplacesByKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewWalletEventStore(pool)

	ev := testEvent("sig1", 0, 1000, 1700000000)
	require.NoError(t, store.UpsertBulk(ctx, []*domain.WalletEvent{ev}))

	updated := testEvent("sig1", 0, 1000, 1700000000)
	updated.TokenSymbol = "RENAMED"
	require.NoError(t, store.UpsertBulk(ctx, []*domain.WalletEvent{updated}))

	events, err := store.GetByWallet(ctx, testWallet)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "RENAMED", events[0].TokenSymbol)
}

func TestWalletEventStore_GetByWalletOrdering(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewWalletEventStore(pool)

	events := []*domain.WalletEvent{
		testEvent("sigB", 1, 1002, 1700000200),
		testEvent("sigB", 0, 1002, 1700000200),
		testEvent("sigA", 0, 1001, 1700000100),
	}
	require.NoError(t, store.UpsertBulk(ctx, events))

	got, err := store.GetByWallet(ctx, testWallet)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// block_time ASC, signature ASC, event_index ASC
	assert.Equal(t, "sigA", got[0].Signature)
	assert.Equal(t, "sigB", got[1].Signature)
	assert.Equal(t, 0, got[1].Index)
	assert.Equal(t, "sigB", got[2].Signature)
	assert.Equal(t, 1, got[2].Index)
}

func TestWalletEventStore_CountBySlotRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewWalletEventStore(pool)

	events := []*domain.WalletEvent{
		testEvent("sigA", 0, 1001, 1700000100),
		testEvent("sigB", 0, 1002, 1700000200),
		testEvent("sigC", 0, 2000, 1700000300),
	}
	require.NoError(t, store.UpsertBulk(ctx, events))

	count, err := store.CountBySlotRange(ctx, testWallet, 1000, 1500)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	total, err := store.CountByWallet(ctx, testWallet)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}
