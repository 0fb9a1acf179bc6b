package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hudakjoseph28/fadeAi/internal/config"
	"github.com/hudakjoseph28/fadeAi/internal/helius"
	"github.com/hudakjoseph28/fadeAi/internal/ingestion"
	"github.com/hudakjoseph28/fadeAi/internal/normalization"
	"github.com/hudakjoseph28/fadeAi/internal/observability"
	"github.com/hudakjoseph28/fadeAi/internal/reconcile"
	"github.com/hudakjoseph28/fadeAi/internal/solana"
	"github.com/hudakjoseph28/fadeAi/internal/storage"
	chstore "github.com/hudakjoseph28/fadeAi/internal/storage/clickhouse"
	"github.com/hudakjoseph28/fadeAi/internal/storage/memory"
	"github.com/hudakjoseph28/fadeAi/internal/storage/migrations"
	pgstore "github.com/hudakjoseph28/fadeAi/internal/storage/postgres"
	"github.com/hudakjoseph28/fadeAi/internal/tokenmeta"
	"github.com/hudakjoseph28/fadeAi/internal/wallet"
	"github.com/hudakjoseph28/fadeAi/internal/workqueue"
)

const defaultWSEndpoint = "wss://mainnet.helius-rpc.com/"

func main() {
	mode := flag.String("mode", "backfill", "Mode: backfill, tail, watch, status, or reconcile")
	walletAddr := flag.String("wallet", "", "Wallet address to index")
	maxPages := flag.Int("max-pages", 0, "Backfill page cap (0 uses MAX_PAGES)")
	fromSlot := flag.Int64("from-slot", 0, "Reconcile window start slot")
	toSlot := flag.Int64("to-slot", 0, "Reconcile window end slot")
	window := flag.Int64("window", 10000, "Reconcile trailing window size in slots")
	wsEndpoint := flag.String("ws-endpoint", "", "Websocket endpoint for watch mode (defaults to Helius mainnet)")
	tailInterval := flag.Duration("tail-interval", 30*time.Second, "Fallback tail-sync interval in watch mode")
	reconcileEvery := flag.Int("reconcile-every", 20, "Reconcile the trailing window after this many tail syncs in watch mode (0 disables)")

	flag.Parse()

	logger := log.New(os.Stdout, "[indexer] ", log.LstdFlags)

	if *walletAddr == "" {
		logger.Fatal("--wallet is required")
	}
	if err := wallet.Validate(*walletAddr); err != nil {
		logger.Fatalf("invalid wallet address: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(logger, cfg.MetricsAddr)
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing exit", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("storage: %v", err)
	}
	defer st.close()

	switch *mode {
	case "backfill":
		err = runBackfill(ctx, logger, cfg, st, *walletAddr, *maxPages)
	case "tail":
		err = runTail(ctx, logger, cfg, st, *walletAddr)
	case "watch":
		err = runWatch(ctx, logger, cfg, st, *walletAddr, *wsEndpoint, *tailInterval, *reconcileEvery, *window)
	case "status":
		err = runStatus(ctx, st, *walletAddr)
	case "reconcile":
		err = runReconcile(ctx, logger, cfg, st, *walletAddr, *fromSlot, *toSlot, *window)
	default:
		logger.Fatalf("Unknown mode: %s", *mode)
	}

	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Error: %v", err)
	}
	logger.Println("Done")
}

// serveMetrics exposes /metrics and /health.
func serveMetrics(logger *log.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	logger.Printf("Starting metrics server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Printf("Metrics server error: %v", err)
	}
}

// stores bundles the storage backends selected by configuration.
type stores struct {
	raw     storage.RawTransactionStore
	events  storage.WalletEventStore
	sync    storage.SyncStateStore
	audits  storage.ReconcileAuditStore
	meta    storage.TokenMetaStore
	candles storage.CandleStore
	close   func()
}

// openStores selects backends: postgres when DATABASE_URL is set, with
// the candle cache optionally moved to clickhouse by CLICKHOUSE_URL.
// Without DATABASE_URL everything runs in memory. Migrations are applied
// on startup.
func openStores(ctx context.Context, cfg *config.Config, logger *log.Logger) (*stores, error) {
	st := &stores{
		raw:     memory.NewRawTransactionStore(),
		events:  memory.NewWalletEventStore(),
		sync:    memory.NewSyncStateStore(),
		audits:  memory.NewReconcileAuditStore(),
		meta:    memory.NewTokenMetaStore(),
		candles: memory.NewCandleStore(),
		close:   func() {},
	}

	var closers []func()

	if cfg.DatabaseURL != "" {
		pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		logger.Println("Postgres migrations applied")

		st.raw = pgstore.NewRawTransactionStore(pool)
		st.events = pgstore.NewWalletEventStore(pool)
		st.sync = pgstore.NewSyncStateStore(pool)
		st.audits = pgstore.NewReconcileAuditStore(pool)
		st.meta = pgstore.NewTokenMetaStore(pool)
		st.candles = pgstore.NewCandleStore(pool)
	}

	if cfg.ClickHouseURL != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseURL)
		if err != nil {
			for _, c := range closers {
				c()
			}
			return nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		closers = append(closers, func() { conn.Close() })
		logger.Println("Clickhouse migrations applied")

		st.candles = chstore.NewCandleStore(conn)
	}

	st.close = func() {
		for _, c := range closers {
			c()
		}
	}
	return st, nil
}

// buildNormalizer wires the metadata resolver chain behind the normalizer.
func buildNormalizer(cfg *config.Config, st *stores, queue *workqueue.Queue, logger *log.Logger) *normalization.Normalizer {
	resolver := tokenmeta.NewResolver(tokenmeta.ResolverOptions{
		Store: st.meta,
		Sources: []tokenmeta.Source{
			tokenmeta.NewJupiterSource("", nil),
			tokenmeta.NewHeliusSource("", cfg.HeliusAPIKey, nil),
			tokenmeta.NewDexScreenerSource("", nil),
		},
		Queue:  queue,
		Logger: logger,
	})
	return normalization.New(resolver)
}

func buildDriver(cfg *config.Config, st *stores, queue *workqueue.Queue, logger *log.Logger) *ingestion.Driver {
	provider := helius.NewClient(cfg.HeliusAPIKey,
		helius.WithTimeout(cfg.Timeout()),
		helius.WithLogger(logger),
	)
	return ingestion.NewDriver(ingestion.DriverOptions{
		Provider:   provider,
		Queue:      queue,
		Normalizer: buildNormalizer(cfg, st, queue, logger),
		RawStore:   st.raw,
		EventStore: st.events,
		SyncStore:  st.sync,
		PageLimit:  cfg.IndexerPageLimit,
		MaxPages:   cfg.MaxPages,
		Logger:     logger,
	})
}

func buildAuditor(cfg *config.Config, st *stores, queue *workqueue.Queue, logger *log.Logger) *reconcile.Auditor {
	provider := helius.NewClient(cfg.HeliusAPIKey,
		helius.WithTimeout(cfg.Timeout()),
		helius.WithLogger(logger),
	)
	return reconcile.NewAuditor(reconcile.AuditorOptions{
		Provider:   provider,
		Queue:      queue,
		Normalizer: buildNormalizer(cfg, st, queue, logger),
		RawStore:   st.raw,
		EventStore: st.events,
		SyncStore:  st.sync,
		AuditStore: st.audits,
		PageLimit:  cfg.IndexerPageLimit,
		Logger:     logger,
	})
}

// runBackfill walks the wallet's history until exhaustion or the page cap.
func runBackfill(ctx context.Context, logger *log.Logger, cfg *config.Config, st *stores, walletAddr string, maxPages int) error {
	queue := workqueue.New(workqueue.DefaultConcurrency, workqueue.DefaultPerSecond)
	driver := buildDriver(cfg, st, queue, logger)

	stats, err := driver.Backfill(ctx, walletAddr, maxPages)
	if stats != nil {
		logger.Printf("Backfill: pages=%d raw=%d events=%d retries=%d in %v",
			stats.PagesFetched, stats.RawTxCount, stats.WalletTxCount, stats.Retries, stats.Duration)
	}
	return err
}

// runTail ingests transactions newer than the stored history.
func runTail(ctx context.Context, logger *log.Logger, cfg *config.Config, st *stores, walletAddr string) error {
	queue := workqueue.New(workqueue.DefaultConcurrency, workqueue.DefaultPerSecond)
	driver := buildDriver(cfg, st, queue, logger)

	stats, err := driver.SyncTail(ctx, walletAddr)
	if stats != nil {
		logger.Printf("Tail sync: raw=%d events=%d in %v",
			stats.RawTxCount, stats.WalletTxCount, stats.Duration)
	}
	return err
}

// runWatch keeps the wallet current: a websocket notifier triggers a tail
// sync on every mention, a fallback ticker covers missed notifications,
// and the trailing slot window is reconciled after every N tail syncs.
func runWatch(ctx context.Context, logger *log.Logger, cfg *config.Config, st *stores, walletAddr, wsEndpoint string, tailInterval time.Duration, reconcileEvery int, window int64) error {
	queue := workqueue.New(workqueue.DefaultConcurrency, workqueue.DefaultPerSecond)
	driver := buildDriver(cfg, st, queue, logger)
	auditor := buildAuditor(cfg, st, queue, logger)

	if wsEndpoint == "" {
		wsEndpoint = defaultWSEndpoint + "?api-key=" + cfg.HeliusAPIKey
	}

	notifier, err := solana.NewNotifier(ctx, wsEndpoint, walletAddr, &solana.NotifierConfig{Logger: logger})
	if err != nil {
		return fmt.Errorf("start notifier: %w", err)
	}
	defer notifier.Close()

	// Serialized through this channel so mention-triggered and periodic
	// syncs never run concurrently for the wallet.
	kicks := make(chan string, 1)
	kick := func(reason string) {
		select {
		case kicks <- reason:
		default:
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case m, ok := <-notifier.Mentions():
				if !ok {
					return fmt.Errorf("notifier closed")
				}
				if m.Failed {
					continue
				}
				logger.Printf("Mention %s at slot %d", m.Signature, m.Slot)
				kick("mention")
			}
		}
	})

	g.Go(func() error {
		ticker := time.NewTicker(tailInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				kick("interval")
			}
		}
	})

	g.Go(func() error {
		tails := 0
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case reason := <-kicks:
				stats, err := driver.SyncTail(gctx, walletAddr)
				if err != nil {
					if errors.Is(err, ingestion.ErrNoSyncState) {
						return err
					}
					logger.Printf("Tail sync (%s) failed: %v", reason, err)
					continue
				}
				if stats.RawTxCount > 0 {
					logger.Printf("Tail sync (%s): raw=%d events=%d", reason, stats.RawTxCount, stats.WalletTxCount)
				}
				tails++
				if reconcileEvery > 0 && tails%reconcileEvery == 0 {
					results, err := auditor.ReconcileRecentSlots(gctx, walletAddr, window)
					if err != nil {
						logger.Printf("Reconcile failed: %v", err)
						continue
					}
					for _, r := range results {
						if !r.OK {
							logger.Printf("Reconcile window [%d,%d] repaired %d signatures",
								r.FromSlot, r.ToSlot, len(r.MissingSignatures))
						}
					}
				}
			}
		}
	})

	logger.Printf("Watching wallet %s", wallet.Short(walletAddr))
	return g.Wait()
}

// runStatus prints the wallet's sync state and row counts.
func runStatus(ctx context.Context, st *stores, walletAddr string) error {
	rawCount, err := st.raw.CountByWallet(ctx, walletAddr)
	if err != nil {
		return fmt.Errorf("count raw transactions: %w", err)
	}
	eventCount, err := st.events.CountByWallet(ctx, walletAddr)
	if err != nil {
		return fmt.Errorf("count wallet events: %w", err)
	}

	fmt.Printf("Wallet:          %s\n", walletAddr)
	fmt.Printf("Raw txs:         %d\n", rawCount)
	fmt.Printf("Wallet events:   %d\n", eventCount)

	state, err := st.sync.Get(ctx, walletAddr)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Println("Sync state:      none (never backfilled)")
			return nil
		}
		return fmt.Errorf("load sync state: %w", err)
	}

	fmt.Printf("Cursor:          %s\n", orNone(state.LastBefore))
	fmt.Printf("Verified slot:   %d\n", state.VerifiedSlot)
	if state.FullScanAt > 0 {
		fmt.Printf("Full scan at:    %s\n", time.UnixMilli(state.FullScanAt).UTC().Format(time.RFC3339))
	} else {
		fmt.Println("Full scan at:    never")
	}

	audits, err := st.audits.GetByWallet(ctx, walletAddr)
	if err != nil {
		return fmt.Errorf("load audits: %w", err)
	}
	if len(audits) > 0 {
		a := audits[0]
		fmt.Printf("Last audit:      [%d,%d] ok=%v at %s\n",
			a.FromSlot, a.ToSlot, a.OK, time.UnixMilli(a.CreatedAt).UTC().Format(time.RFC3339))
	}

	return nil
}

// runReconcile verifies an explicit slot window, or the trailing window
// below the verified slot when no explicit window is given.
func runReconcile(ctx context.Context, logger *log.Logger, cfg *config.Config, st *stores, walletAddr string, fromSlot, toSlot, window int64) error {
	queue := workqueue.New(workqueue.DefaultConcurrency, workqueue.DefaultPerSecond)
	auditor := buildAuditor(cfg, st, queue, logger)

	var results []*reconcile.Result
	if fromSlot > 0 || toSlot > 0 {
		if fromSlot > toSlot {
			return fmt.Errorf("--from-slot must not exceed --to-slot")
		}
		res, err := auditor.ReconcileSlotRange(ctx, walletAddr, fromSlot, toSlot)
		if err != nil {
			return err
		}
		results = []*reconcile.Result{res}
	} else {
		var err error
		results, err = auditor.ReconcileRecentSlots(ctx, walletAddr, window)
		if err != nil {
			return err
		}
	}

	failed := 0
	for _, r := range results {
		status := "ok"
		if !r.OK {
			status = "MISMATCH"
			failed++
		}
		logger.Printf("Window [%d,%d]: %s provider=%d stored=%d events=%d repaired=%d",
			r.FromSlot, r.ToSlot, status, r.ProviderCount, r.StoredCount, r.EventCount, len(r.MissingSignatures))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d windows did not verify", failed, len(results))
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
