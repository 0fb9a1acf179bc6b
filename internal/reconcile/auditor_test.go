package reconcile

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
	"github.com/hudakjoseph28/fadeAi/internal/helius"
	"github.com/hudakjoseph28/fadeAi/internal/ingestion"
	"github.com/hudakjoseph28/fadeAi/internal/normalization"
	"github.com/hudakjoseph28/fadeAi/internal/storage/memory"
	"github.com/hudakjoseph28/fadeAi/internal/workqueue"
)

const testWallet = "WaLLetAddr111111111111111111111111111111111"

// pageProvider replays a fixed page sequence, restarting from the top
// whenever before is empty. Queued errors are served one per call before
// any page.
type pageProvider struct {
	pages []*helius.Page
	errs  []error
	calls int
	pos   int
}

func (p *pageProvider) GetTransactions(_ context.Context, _ string, before string, _ int) (*helius.Page, error) {
	p.calls++
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		return nil, err
	}
	if before == "" {
		p.pos = 0
	}
	if p.pos >= len(p.pages) {
		return &helius.Page{}, nil
	}
	page := p.pages[p.pos]
	p.pos++
	return page, nil
}

type derivedResolver struct{}

func (derivedResolver) Batch(_ context.Context, mints []string) map[string]*domain.TokenMeta {
	out := make(map[string]*domain.TokenMeta, len(mints))
	for _, m := range mints {
		out[m] = &domain.TokenMeta{Mint: m, Symbol: m[:4], Decimals: 9, Source: domain.MetaSourceDerived}
	}
	return out
}

func makeTx(sig string, slot int64, blockTime int64) *helius.EnhancedTransaction {
	return &helius.EnhancedTransaction{
		Signature: sig,
		Slot:      slot,
		Timestamp: &blockTime,
		TokenTransfers: []helius.TokenTransfer{
			{Mint: "mintAAAAAAAA", FromUserAccount: testWallet, ToUserAccount: "other", TokenAmount: 1},
		},
		Raw: []byte(fmt.Sprintf(`{"signature":%q,"slot":%d}`, sig, slot)),
	}
}

type auditorFixture struct {
	auditor    *Auditor
	provider   *pageProvider
	rawStore   *memory.RawTransactionStore
	eventStore *memory.WalletEventStore
	syncStore  *memory.SyncStateStore
	auditStore *memory.ReconcileAuditStore
}

func newAuditorFixture(t *testing.T, pages []*helius.Page) *auditorFixture {
	t.Helper()

	f := &auditorFixture{
		provider:   &pageProvider{pages: pages},
		rawStore:   memory.NewRawTransactionStore(),
		eventStore: memory.NewWalletEventStore(),
		syncStore:  memory.NewSyncStateStore(),
		auditStore: memory.NewReconcileAuditStore(),
	}
	f.auditor = NewAuditor(AuditorOptions{
		Provider:   f.provider,
		Queue:      workqueue.New(1, 1000),
		Normalizer: normalization.New(derivedResolver{}),
		RawStore:   f.rawStore,
		EventStore: f.eventStore,
		SyncStore:  f.syncStore,
		AuditStore: f.auditStore,
		ChunkPause: time.Millisecond,
		Retry:      &ingestion.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Factor: 2},
		Logger:     log.New(io.Discard, "", 0),
	})
	return f
}

func TestReconcileSlotRange_DetectsAndRepairs(t *testing.T) {
	ctx := context.Background()

	tx1 := makeTx("sig1", 1000, 100)
	tx2 := makeTx("sig2", 1001, 101)
	tx3 := makeTx("sig3", 1002, 102)
	f := newAuditorFixture(t, []*helius.Page{
		{Items: []*helius.EnhancedTransaction{tx3, tx2, tx1}, NextBefore: "sig1"},
	})

	// Store holds only two of the three.
	require.NoError(t, f.rawStore.UpsertBulk(ctx, []*domain.RawTransaction{
		{Signature: "sig1", Wallet: testWallet, Slot: 1000, Payload: tx1.Raw},
		{Signature: "sig2", Wallet: testWallet, Slot: 1001, Payload: tx2.Raw},
	}))

	res, err := f.auditor.ReconcileSlotRange(ctx, testWallet, 1000, 1002)
	require.NoError(t, err)

	assert.Equal(t, []string{"sig3"}, res.MissingSignatures)
	assert.Equal(t, 3, res.ProviderCount)
	assert.Equal(t, 3, res.StoredCount)
	assert.True(t, res.OK)

	// The missing transaction was ingested raw and normalized.
	exists, err := f.rawStore.Exists(ctx, "sig3")
	require.NoError(t, err)
	assert.True(t, exists)
	eventCount, err := f.eventStore.CountByWallet(ctx, testWallet)
	require.NoError(t, err)
	assert.Equal(t, 1, eventCount)

	audits, err := f.auditStore.GetByWallet(ctx, testWallet)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.True(t, audits[0].OK)
	assert.Equal(t, 3, audits[0].CountRaw)
	assert.Equal(t, res.SignatureSetHash, audits[0].SignatureSetHash)
}

func TestReconcileSlotRange_CleanWindow(t *testing.T) {
	ctx := context.Background()

	tx1 := makeTx("sig1", 1000, 100)
	f := newAuditorFixture(t, []*helius.Page{
		{Items: []*helius.EnhancedTransaction{tx1}, NextBefore: "sig1"},
	})
	require.NoError(t, f.rawStore.Upsert(ctx, &domain.RawTransaction{
		Signature: "sig1", Wallet: testWallet, Slot: 1000, Payload: tx1.Raw,
	}))

	res, err := f.auditor.ReconcileSlotRange(ctx, testWallet, 1000, 1002)
	require.NoError(t, err)

	assert.Empty(t, res.MissingSignatures)
	assert.True(t, res.OK)
	assert.Equal(t, 1, res.StoredCount)
}

func TestReconcileSlotRange_IdempotentHash(t *testing.T) {
	ctx := context.Background()

	tx1 := makeTx("sig1", 1000, 100)
	tx2 := makeTx("sig2", 1001, 101)
	f := newAuditorFixture(t, []*helius.Page{
		{Items: []*helius.EnhancedTransaction{tx2, tx1}, NextBefore: "sig1"},
	})

	res1, err := f.auditor.ReconcileSlotRange(ctx, testWallet, 1000, 1001)
	require.NoError(t, err)
	res2, err := f.auditor.ReconcileSlotRange(ctx, testWallet, 1000, 1001)
	require.NoError(t, err)

	assert.Equal(t, res1.SignatureSetHash, res2.SignatureSetHash)

	audits, err := f.auditStore.GetByWallet(ctx, testWallet)
	require.NoError(t, err)
	require.Len(t, audits, 2)
	assert.Equal(t, audits[0].SignatureSetHash, audits[1].SignatureSetHash)
}

func TestReconcileSlotRange_ExcludesOutOfWindowItems(t *testing.T) {
	ctx := context.Background()

	inWindow := makeTx("sig2", 1001, 101)
	tooNew := makeTx("sig9", 5000, 500)
	tooOld := makeTx("sig0", 500, 50)
	f := newAuditorFixture(t, []*helius.Page{
		{Items: []*helius.EnhancedTransaction{tooNew, inWindow, tooOld}, NextBefore: "sig0"},
	})

	res, err := f.auditor.ReconcileSlotRange(ctx, testWallet, 1000, 1002)
	require.NoError(t, err)

	assert.Equal(t, 1, res.ProviderCount)
	assert.Equal(t, []string{"sig2"}, res.MissingSignatures)
	assert.True(t, res.OK)
	// Paging stops once a page dips below the window floor.
	assert.Equal(t, 1, f.provider.calls)
}

func TestReconcileSlotRange_ProviderFailureStillAudited(t *testing.T) {
	ctx := context.Background()

	f := newAuditorFixture(t, []*helius.Page{})
	// Outlasts the retry budget of 3 attempts.
	f.provider.errs = []error{
		&helius.APIError{Status: 503},
		&helius.APIError{Status: 503},
		&helius.APIError{Status: 503},
	}

	res, err := f.auditor.ReconcileSlotRange(ctx, testWallet, 1000, 1002)
	require.Error(t, err)
	assert.ErrorContains(t, err, "retry budget exhausted")
	require.NotNil(t, res)
	assert.False(t, res.OK)

	// A failed window still lands an audit row, marked not ok.
	audits, err := f.auditStore.GetByWallet(ctx, testWallet)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.False(t, audits[0].OK)
	assert.Equal(t, int64(1000), audits[0].FromSlot)
	assert.Equal(t, int64(1002), audits[0].ToSlot)
}

func TestReconcileSlotRange_RetriesTransientProviderError(t *testing.T) {
	ctx := context.Background()

	tx1 := makeTx("sig1", 1000, 100)
	f := newAuditorFixture(t, []*helius.Page{
		{Items: []*helius.EnhancedTransaction{tx1}, NextBefore: "sig1"},
	})
	require.NoError(t, f.rawStore.Upsert(ctx, &domain.RawTransaction{
		Signature: "sig1", Wallet: testWallet, Slot: 1000, Payload: tx1.Raw,
	}))
	f.provider.errs = []error{&helius.APIError{Status: 502}}

	res, err := f.auditor.ReconcileSlotRange(ctx, testWallet, 1000, 1002)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, 1, res.ProviderCount)
	// First call failed, the retry and the next page succeeded.
	assert.GreaterOrEqual(t, f.provider.calls, 2)
}

func TestReconcileRecentSlots_ChunksWindow(t *testing.T) {
	ctx := context.Background()

	f := newAuditorFixture(t, []*helius.Page{})
	require.NoError(t, f.syncStore.Upsert(ctx, &domain.SyncState{
		Wallet: testWallet, VerifiedSlot: 5000,
	}))

	results, err := f.auditor.ReconcileRecentSlots(ctx, testWallet, 3000)
	require.NoError(t, err)

	// [2000,5000] in chunks of 1000: [2000,2999] [3000,3999] [4000,4999] [5000,5000]
	require.Len(t, results, 4)
	assert.Equal(t, int64(2000), results[0].FromSlot)
	assert.Equal(t, int64(2999), results[0].ToSlot)
	assert.Equal(t, int64(5000), results[3].FromSlot)
	assert.Equal(t, int64(5000), results[3].ToSlot)
	for _, res := range results {
		assert.True(t, res.OK)
	}
}

func TestReconcileRecentSlots_RequiresVerifiedSlot(t *testing.T) {
	f := newAuditorFixture(t, []*helius.Page{})

	_, err := f.auditor.ReconcileRecentSlots(context.Background(), testWallet, 0)
	assert.ErrorIs(t, err, ErrNoVerifiedSlot)
}
