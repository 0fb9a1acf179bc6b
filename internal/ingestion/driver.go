// Package ingestion drives backfill and tail sync of a wallet's
// transaction history from the upstream provider into the store.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
	"github.com/hudakjoseph28/fadeAi/internal/helius"
	"github.com/hudakjoseph28/fadeAi/internal/normalization"
	"github.com/hudakjoseph28/fadeAi/internal/observability"
	"github.com/hudakjoseph28/fadeAi/internal/storage"
	"github.com/hudakjoseph28/fadeAi/internal/workqueue"
)

// DefaultMaxPages is the backfill safety cap.
const DefaultMaxPages = 1000

// ErrNoSyncState is returned by SyncTail for a wallet that was never
// backfilled.
var ErrNoSyncState = errors.New("no sync state: run backfill first")

// Provider is the upstream enhanced-transactions source.
type Provider interface {
	GetTransactions(ctx context.Context, wallet, before string, limit int) (*helius.Page, error)
}

// Driver ingests one wallet at a time. It is single-threaded per wallet;
// callers must not run two drivers for the same wallet concurrently.
type Driver struct {
	provider   Provider
	queue      *workqueue.Queue
	normalizer *normalization.Normalizer
	rawStore   storage.RawTransactionStore
	eventStore storage.WalletEventStore
	syncStore  storage.SyncStateStore
	pageLimit  int
	maxPages   int
	retry      RetryPolicy
	logger     *log.Logger
}

// DriverOptions contains configuration for creating a Driver.
type DriverOptions struct {
	Provider   Provider
	Queue      *workqueue.Queue
	Normalizer *normalization.Normalizer
	RawStore   storage.RawTransactionStore
	EventStore storage.WalletEventStore
	SyncStore  storage.SyncStateStore
	PageLimit  int
	MaxPages   int
	Retry      *RetryPolicy
	Logger     *log.Logger
}

// NewDriver creates an ingestion driver.
func NewDriver(opts DriverOptions) *Driver {
	pageLimit := opts.PageLimit
	if pageLimit <= 0 {
		pageLimit = helius.DefaultPageLimit
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	retry := DefaultRetryPolicy()
	if opts.Retry != nil {
		retry = *opts.Retry
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	queue := opts.Queue
	if queue == nil {
		queue = workqueue.New(workqueue.DefaultConcurrency, workqueue.DefaultPerSecond)
	}

	return &Driver{
		provider:   opts.Provider,
		queue:      queue,
		normalizer: opts.Normalizer,
		rawStore:   opts.RawStore,
		eventStore: opts.EventStore,
		syncStore:  opts.SyncStore,
		pageLimit:  pageLimit,
		maxPages:   maxPages,
		retry:      retry,
		logger:     logger,
	}
}

// Stats summarizes one ingestion run.
type Stats struct {
	PagesFetched  int
	RawTxCount    int
	WalletTxCount int
	FirstSlot     int64 // highest slot seen
	LastSlot      int64 // lowest slot seen, 0 when nothing ingested
	Retries       int
	Duration      time.Duration
}

// Backfill walks historical pages for a wallet until exhaustion or the
// page cap. Persistence is idempotent, so a failed run resumes from the
// stored cursor.
func (d *Driver) Backfill(ctx context.Context, walletAddr string, maxPages int) (*Stats, error) {
	start := time.Now()
	stats := &Stats{}
	if maxPages <= 0 {
		maxPages = d.maxPages
	}

	st, err := d.loadOrCreateSyncState(ctx, walletAddr)
	if err != nil {
		return stats, err
	}
	before := st.LastBefore
	cursorReset := false
	completed := false

	for stats.PagesFetched < maxPages {
		page, err := d.fetchPage(ctx, walletAddr, before, stats)
		if err != nil {
			if errors.Is(err, helius.ErrCursorInvalid) && !cursorReset {
				// Self-heal exactly once per run: drop the poisoned
				// cursor and retry the same page from the top.
				d.logger.Printf("wallet=%s cursor rejected, resetting and retrying", walletAddr)
				cursorReset = true
				before = ""
				st.LastBefore = ""
				if serr := d.saveSyncState(ctx, st); serr != nil {
					return stats, serr
				}
				continue
			}
			stats.Duration = time.Since(start)
			return stats, err
		}

		// Empty page terminates without counting as a fetched page.
		if len(page.Items) == 0 {
			completed = true
			break
		}
		stats.PagesFetched++
		observability.RecordPageFetched()

		if err := d.persistPage(ctx, walletAddr, page.Items, stats); err != nil {
			stats.Duration = time.Since(start)
			return stats, err
		}

		if page.NextBefore == "" {
			completed = true
			break
		}
		before = page.NextBefore
		st.LastBefore = before
		if err := d.saveSyncState(ctx, st); err != nil {
			stats.Duration = time.Since(start)
			return stats, err
		}
	}

	// Exhaustion clears the cursor and stamps the scan. Stopping at the
	// page cap keeps the cursor so the next run resumes.
	if completed {
		st.LastBefore = ""
		st.FullScanAt = time.Now().UnixMilli()
		if err := d.saveSyncState(ctx, st); err != nil {
			stats.Duration = time.Since(start)
			return stats, err
		}
	}

	stats.Duration = time.Since(start)
	d.logger.Printf("wallet=%s backfill done: pages=%d raw=%d events=%d slots=[%d,%d] retries=%d in %v",
		walletAddr, stats.PagesFetched, stats.RawTxCount, stats.WalletTxCount,
		stats.LastSlot, stats.FirstSlot, stats.Retries, stats.Duration)
	return stats, nil
}

// SyncTail fetches the newest page and ingests items until the first
// already-known signature.
func (d *Driver) SyncTail(ctx context.Context, walletAddr string) (*Stats, error) {
	start := time.Now()
	stats := &Stats{}

	st, err := d.syncStore.Get(ctx, walletAddr)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return stats, ErrNoSyncState
		}
		return stats, fmt.Errorf("load sync state: %w", err)
	}

	page, err := d.fetchPage(ctx, walletAddr, "", stats)
	if err != nil {
		stats.Duration = time.Since(start)
		return stats, err
	}
	stats.PagesFetched = 1
	observability.RecordPageFetched()

	// Keep the prefix of unseen items; the provider returns newest first.
	var fresh []*helius.EnhancedTransaction
	for _, tx := range page.Items {
		exists, err := d.rawStore.Exists(ctx, tx.Signature)
		if err != nil {
			stats.Duration = time.Since(start)
			return stats, fmt.Errorf("check signature %s: %w", tx.Signature, err)
		}
		if exists {
			break
		}
		fresh = append(fresh, tx)
	}

	if len(fresh) > 0 {
		if err := d.persistPage(ctx, walletAddr, fresh, stats); err != nil {
			stats.Duration = time.Since(start)
			return stats, err
		}
		if stats.FirstSlot > st.VerifiedSlot {
			st.VerifiedSlot = stats.FirstSlot
		}
		if err := d.saveSyncState(ctx, st); err != nil {
			stats.Duration = time.Since(start)
			return stats, err
		}
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// fetchPage calls the provider through the work queue, retrying transient
// failures with backoff. Each attempt competes for a fresh queue slot.
func (d *Driver) fetchPage(ctx context.Context, walletAddr, before string, stats *Stats) (*helius.Page, error) {
	var page *helius.Page
	var lastErr error

	for attempt := 1; attempt <= d.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			stats.Retries++
			observability.RecordProviderRetry()
			if err := d.retry.Sleep(ctx, attempt-1); err != nil {
				return nil, err
			}
		}

		callStart := time.Now()
		err := d.queue.Do(ctx, func(ctx context.Context) error {
			var err error
			page, err = d.provider.GetTransactions(ctx, walletAddr, before, d.pageLimit)
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
		d.logger.Printf("wallet=%s page fetch attempt %d failed: %v", walletAddr, attempt, err)
	}

	return nil, fmt.Errorf("retry budget exhausted: %w", lastErr)
}

// persistPage upserts raw rows, normalizes, upserts events, and folds the
// page into stats.
func (d *Driver) persistPage(ctx context.Context, walletAddr string, items []*helius.EnhancedTransaction, stats *Stats) error {
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
	if err := d.rawStore.UpsertBulk(ctx, raws); err != nil {
		return fmt.Errorf("persist raw transactions: %w", err)
	}
	stats.RawTxCount += len(raws)
	observability.RecordRawStored(len(raws))

	events := d.normalizer.NormalizeBatch(ctx, walletAddr, items)
	if err := d.eventStore.UpsertBulk(ctx, events); err != nil {
		return fmt.Errorf("persist wallet events: %w", err)
	}
	stats.WalletTxCount += len(events)
	observability.RecordEventsStored(len(events))

	for _, tx := range items {
		if tx.Slot > stats.FirstSlot {
			stats.FirstSlot = tx.Slot
		}
		if stats.LastSlot == 0 || tx.Slot < stats.LastSlot {
			stats.LastSlot = tx.Slot
		}
	}
	return nil
}

func (d *Driver) loadOrCreateSyncState(ctx context.Context, walletAddr string) (*domain.SyncState, error) {
	st, err := d.syncStore.Get(ctx, walletAddr)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load sync state: %w", err)
	}

	now := time.Now().UnixMilli()
	st = &domain.SyncState{Wallet: walletAddr, CreatedAt: now, UpdatedAt: now}
	if err := d.syncStore.Upsert(ctx, st); err != nil {
		return nil, fmt.Errorf("create sync state: %w", err)
	}
	return st, nil
}

func (d *Driver) saveSyncState(ctx context.Context, st *domain.SyncState) error {
	st.UpdatedAt = time.Now().UnixMilli()
	if err := d.syncStore.Upsert(ctx, st); err != nil {
		return fmt.Errorf("save sync state: %w", err)
	}
	return nil
}
