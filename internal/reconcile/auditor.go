// Package reconcile verifies that the store holds every signature the
// provider reports in a slot window, repairs gaps, and records audits.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
	"github.com/hudakjoseph28/fadeAi/internal/helius"
	"github.com/hudakjoseph28/fadeAi/internal/idhash"
	"github.com/hudakjoseph28/fadeAi/internal/ingestion"
	"github.com/hudakjoseph28/fadeAi/internal/normalization"
	"github.com/hudakjoseph28/fadeAi/internal/observability"
	"github.com/hudakjoseph28/fadeAi/internal/storage"
	"github.com/hudakjoseph28/fadeAi/internal/workqueue"
)

// Defaults for windowed reconciliation.
const (
	DefaultWindowSize = 10_000
	DefaultChunkSize  = 1_000
	DefaultChunkPause = 500 * time.Millisecond
)

// ErrNoVerifiedSlot is returned when a wallet has no tail-sync watermark
// to anchor the recent window on.
var ErrNoVerifiedSlot = errors.New("no verified slot: run tail sync first")

// Result summarizes one slot-window reconciliation.
type Result struct {
	Wallet            string
	FromSlot          int64
	ToSlot            int64
	ProviderCount     int
	StoredCount       int
	EventCount        int
	MissingSignatures []string
	SignatureSetHash  string
	OK                bool
}

// Auditor re-fetches slot windows from the provider and diffs them
// against the store.
type Auditor struct {
	provider   ingestion.Provider
	queue      *workqueue.Queue
	normalizer *normalization.Normalizer
	rawStore   storage.RawTransactionStore
	eventStore storage.WalletEventStore
	syncStore  storage.SyncStateStore
	auditStore storage.ReconcileAuditStore
	pageLimit  int
	chunkPause time.Duration
	retry      ingestion.RetryPolicy
	logger     *log.Logger
}

// AuditorOptions contains configuration for creating an Auditor.
type AuditorOptions struct {
	Provider   ingestion.Provider
	Queue      *workqueue.Queue
	Normalizer *normalization.Normalizer
	RawStore   storage.RawTransactionStore
	EventStore storage.WalletEventStore
	SyncStore  storage.SyncStateStore
	AuditStore storage.ReconcileAuditStore
	PageLimit  int
	ChunkPause time.Duration
	Retry      *ingestion.RetryPolicy
	Logger     *log.Logger
}

// NewAuditor creates a reconciliation auditor.
func NewAuditor(opts AuditorOptions) *Auditor {
	pageLimit := opts.PageLimit
	if pageLimit <= 0 {
		pageLimit = helius.DefaultPageLimit
	}
	chunkPause := opts.ChunkPause
	if chunkPause <= 0 {
		chunkPause = DefaultChunkPause
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	queue := opts.Queue
	if queue == nil {
		queue = workqueue.New(workqueue.DefaultConcurrency, workqueue.DefaultPerSecond)
	}
	retry := ingestion.DefaultRetryPolicy()
	if opts.Retry != nil {
		retry = *opts.Retry
	}

	return &Auditor{
		provider:   opts.Provider,
		queue:      queue,
		normalizer: opts.Normalizer,
		rawStore:   opts.RawStore,
		eventStore: opts.EventStore,
		syncStore:  opts.SyncStore,
		auditStore: opts.AuditStore,
		pageLimit:  pageLimit,
		chunkPause: chunkPause,
		retry:      retry,
		logger:     logger,
	}
}

// ReconcileSlotRange re-fetches [fromSlot, toSlot] from the provider,
// repairs any signatures missing from the store, and appends an audit
// row. The audit row is written even when the window does not verify.
func (a *Auditor) ReconcileSlotRange(ctx context.Context, walletAddr string, fromSlot, toSlot int64) (*Result, error) {
	res := &Result{Wallet: walletAddr, FromSlot: fromSlot, ToSlot: toSlot}

	window, err := a.fetchWindow(ctx, walletAddr, fromSlot, toSlot)
	if err != nil {
		return res, a.failAudit(ctx, res, err)
	}
	res.ProviderCount = len(window)

	providerSigs := make([]string, 0, len(window))
	byProviderSig := make(map[string]*helius.EnhancedTransaction, len(window))
	for _, tx := range window {
		providerSigs = append(providerSigs, tx.Signature)
		byProviderSig[tx.Signature] = tx
	}

	stored, err := a.rawStore.GetSignaturesBySlotRange(ctx, walletAddr, fromSlot, toSlot)
	if err != nil {
		return res, a.failAudit(ctx, res, fmt.Errorf("query stored signatures: %w", err))
	}
	storedSet := make(map[string]struct{}, len(stored))
	for _, s := range stored {
		storedSet[s] = struct{}{}
	}

	for _, sig := range providerSigs {
		if _, ok := storedSet[sig]; !ok {
			res.MissingSignatures = append(res.MissingSignatures, sig)
		}
	}

	if len(res.MissingSignatures) > 0 {
		a.logger.Printf("wallet=%s slots=[%d,%d] repairing %d missing signatures",
			walletAddr, fromSlot, toSlot, len(res.MissingSignatures))
		missing := make([]*helius.EnhancedTransaction, 0, len(res.MissingSignatures))
		for _, sig := range res.MissingSignatures {
			missing = append(missing, byProviderSig[sig])
		}
		if err := a.repair(ctx, walletAddr, missing); err != nil {
			return res, a.failAudit(ctx, res, err)
		}
		observability.RecordReconcileRepaired(len(missing))

		stored, err = a.rawStore.GetSignaturesBySlotRange(ctx, walletAddr, fromSlot, toSlot)
		if err != nil {
			return res, a.failAudit(ctx, res, fmt.Errorf("re-query stored signatures: %w", err))
		}
	}
	res.StoredCount = len(stored)

	res.EventCount, err = a.eventStore.CountBySlotRange(ctx, walletAddr, fromSlot, toSlot)
	if err != nil {
		return res, a.failAudit(ctx, res, fmt.Errorf("count wallet events: %w", err))
	}

	res.SignatureSetHash = idhash.SignatureSetHash(stored)
	res.OK = res.SignatureSetHash == idhash.SignatureSetHash(providerSigs)
	observability.RecordReconcileRun(res.OK)

	if err := a.appendAudit(ctx, res); err != nil {
		return res, err
	}
	return res, nil
}

// ReconcileRecentSlots verifies the trailing window below the wallet's
// verified slot, one chunk at a time.
func (a *Auditor) ReconcileRecentSlots(ctx context.Context, walletAddr string, windowSize int64) ([]*Result, error) {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}

	st, err := a.syncStore.Get(ctx, walletAddr)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoVerifiedSlot
		}
		return nil, fmt.Errorf("load sync state: %w", err)
	}
	if st.VerifiedSlot <= 0 {
		return nil, ErrNoVerifiedSlot
	}

	from := st.VerifiedSlot - windowSize
	if from < 0 {
		from = 0
	}

	var results []*Result
	for lo := from; lo <= st.VerifiedSlot; lo += DefaultChunkSize {
		hi := lo + DefaultChunkSize - 1
		if hi > st.VerifiedSlot {
			hi = st.VerifiedSlot
		}

		res, err := a.ReconcileSlotRange(ctx, walletAddr, lo, hi)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			return results, err
		}

		if hi < st.VerifiedSlot {
			// Pause between chunks so the window scan does not starve
			// other consumers of provider budget.
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			case <-time.After(a.chunkPause):
			}
		}
	}
	return results, nil
}

// fetchWindow pages backward from the tip until a page's minimum slot
// falls below fromSlot, keeping only items inside [fromSlot, toSlot].
func (a *Auditor) fetchWindow(ctx context.Context, walletAddr string, fromSlot, toSlot int64) ([]*helius.EnhancedTransaction, error) {
	var window []*helius.EnhancedTransaction
	before := ""

	for {
		page, err := a.fetchPage(ctx, walletAddr, before)
		if err != nil {
			return nil, fmt.Errorf("fetch window page: %w", err)
		}
		if len(page.Items) == 0 {
			break
		}

		minSlot := page.Items[0].Slot
		for _, tx := range page.Items {
			if tx.Slot < minSlot {
				minSlot = tx.Slot
			}
			if tx.Slot >= fromSlot && tx.Slot <= toSlot {
				window = append(window, tx)
			}
		}

		if minSlot < fromSlot || page.NextBefore == "" {
			break
		}
		before = page.NextBefore
	}
	return window, nil
}

// fetchPage calls the provider through the work queue, retrying transient
// failures with backoff. Each attempt competes for a fresh queue slot.
func (a *Auditor) fetchPage(ctx context.Context, walletAddr, before string) (*helius.Page, error) {
	var page *helius.Page
	var lastErr error

	for attempt := 1; attempt <= a.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			observability.RecordProviderRetry()
			if err := a.retry.Sleep(ctx, attempt-1); err != nil {
				return nil, err
			}
		}

		callStart := time.Now()
		err := a.queue.Do(ctx, func(ctx context.Context) error {
			var err error
			page, err = a.provider.GetTransactions(ctx, walletAddr, before, a.pageLimit)
			return err
		})
		observability.RecordProviderCall(time.Since(callStart).Seconds(), err)
		if err == nil {
			return page, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return nil, err
		}
		if !helius.IsTemporary(err) {
			return nil, err
		}
		a.logger.Printf("wallet=%s window page attempt %d failed: %v", walletAddr, attempt, err)
	}

	return nil, fmt.Errorf("retry budget exhausted: %w", lastErr)
}

// repair re-ingests provider transactions that the store is missing.
func (a *Auditor) repair(ctx context.Context, walletAddr string, items []*helius.EnhancedTransaction) error {
	now := time.Now().UnixMilli()

	raws := make([]*domain.RawTransaction, 0, len(items))
	for _, tx := range items {
		raws = append(raws, &domain.RawTransaction{
			Signature: tx.Signature,
			Wallet:    walletAddr,
			Slot:      tx.Slot,
			BlockTime: tx.BlockTime(),
			Payload:   tx.Raw,
			CreatedAt: now,
		})
	}
	if err := a.rawStore.UpsertBulk(ctx, raws); err != nil {
		return fmt.Errorf("repair raw transactions: %w", err)
	}

	events := a.normalizer.NormalizeBatch(ctx, walletAddr, items)
	if err := a.eventStore.UpsertBulk(ctx, events); err != nil {
		return fmt.Errorf("repair wallet events: %w", err)
	}
	return nil
}

// appendAudit writes the audit row for a finished window. Repairs always
// land before the audit row.
func (a *Auditor) appendAudit(ctx context.Context, res *Result) error {
	audit := &domain.ReconcileAudit{
		Wallet:           res.Wallet,
		FromSlot:         res.FromSlot,
		ToSlot:           res.ToSlot,
		CountRaw:         res.StoredCount,
		CountWalletTx:    res.EventCount,
		SignatureSetHash: res.SignatureSetHash,
		OK:               res.OK,
		CreatedAt:        time.Now().UnixMilli(),
	}
	if err := a.auditStore.Insert(ctx, audit); err != nil {
		return fmt.Errorf("append audit row: %w", err)
	}
	return nil
}

// failAudit records a failed window before surfacing the error. A failed
// audit write is logged but does not mask the original error.
func (a *Auditor) failAudit(ctx context.Context, res *Result, cause error) error {
	res.OK = false
	observability.RecordReconcileRun(false)
	if err := a.appendAudit(ctx, res); err != nil {
		a.logger.Printf("wallet=%s audit write after failure: %v", res.Wallet, err)
	}
	return cause
}
