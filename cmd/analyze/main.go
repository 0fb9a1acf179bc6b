package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hudakjoseph28/fadeAi/internal/config"
	"github.com/hudakjoseph28/fadeAi/internal/domain"
	"github.com/hudakjoseph28/fadeAi/internal/oracle"
	"github.com/hudakjoseph28/fadeAi/internal/position"
	"github.com/hudakjoseph28/fadeAi/internal/storage"
	chstore "github.com/hudakjoseph28/fadeAi/internal/storage/clickhouse"
	"github.com/hudakjoseph28/fadeAi/internal/storage/memory"
	pgstore "github.com/hudakjoseph28/fadeAi/internal/storage/postgres"
	"github.com/hudakjoseph28/fadeAi/internal/wallet"
)

func main() {
	walletAddr := flag.String("wallet", "", "Wallet address to analyze")
	flag.Parse()

	logger := log.New(os.Stderr, "[analyze] ", log.LstdFlags)

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

	ctx := context.Background()

	eventStore, candleStore, cleanup, err := openStores(ctx, cfg)
	if err != nil {
		logger.Fatalf("storage: %v", err)
	}
	defer cleanup()

	prices := oracle.NewCachingOracle(buildOracle(cfg), candleStore, logger)

	reconstructor := position.NewReconstructor(position.ReconstructorOptions{
		EventStore: eventStore,
		Prices:     prices,
		Logger:     logger,
	})

	currentPrices := fetchCurrentPrices(ctx, logger, prices, eventStore, *walletAddr)

	summary, err := reconstructor.Reconstruct(ctx, *walletAddr, currentPrices)
	if err != nil {
		logger.Fatalf("reconstruct: %v", err)
	}

	printSummary(summary)
}

// buildOracle selects the upstream candle/price provider.
func buildOracle(cfg *config.Config) oracle.Oracle {
	if cfg.PriceProvider == oracle.ProviderGecko {
		return oracle.NewGeckoClient()
	}
	return oracle.NewBirdeyeClient(cfg.BirdeyeAPIKey)
}

// openStores returns the event and candle backends selected by
// configuration, defaulting to memory.
func openStores(ctx context.Context, cfg *config.Config) (storage.WalletEventStore, storage.CandleStore, func(), error) {
	var eventStore storage.WalletEventStore = memory.NewWalletEventStore()
	var candleStore storage.CandleStore = memory.NewCandleStore()
	cleanup := func() {}

	var closers []func()

	if cfg.DatabaseURL != "" {
		pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		eventStore = pgstore.NewWalletEventStore(pool)
		candleStore = pgstore.NewCandleStore(pool)
	}

	if cfg.ClickHouseURL != "" {
		conn, err := chstore.NewConn(ctx, cfg.ClickHouseURL)
		if err != nil {
			for _, c := range closers {
				c()
			}
			return nil, nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		closers = append(closers, func() { conn.Close() })
		candleStore = chstore.NewCandleStore(conn)
	}

	cleanup = func() {
		for _, c := range closers {
			c()
		}
	}
	return eventStore, candleStore, cleanup, nil
}

// fetchCurrentPrices looks up a spot price for every mint the wallet has
// touched. Unknown prices are simply absent; open positions without a
// spot price are valued at zero.
func fetchCurrentPrices(ctx context.Context, logger *log.Logger, prices oracle.Oracle, eventStore storage.WalletEventStore, walletAddr string) map[string]float64 {
	events, err := eventStore.GetByWallet(ctx, walletAddr)
	if err != nil {
		logger.Printf("load events for pricing: %v", err)
		return nil
	}

	mints := make(map[string]struct{})
	for _, ev := range events {
		if ev.TokenMint != "" && (ev.Side == domain.SideBuy || ev.Side == domain.SideSell) {
			mints[ev.TokenMint] = struct{}{}
		}
	}

	current := make(map[string]float64, len(mints))
	for mint := range mints {
		price, err := prices.GetCurrentPriceUSD(ctx, mint)
		if err != nil {
			if !errors.Is(err, oracle.ErrPriceUnknown) {
				logger.Printf("spot price %s: %v", wallet.Short(mint), err)
			}
			continue
		}
		current[mint] = price
	}
	return current
}

func printSummary(s *domain.PositionSummary) {
	fmt.Printf("Wallet %s\n", s.Wallet)
	fmt.Printf("Events processed: %d", s.EventsProcessed)
	if s.DroppedSells > 0 {
		fmt.Printf("  (dropped sells: %d)", s.DroppedSells)
	}
	fmt.Println()
	fmt.Println()

	if len(s.Tokens) == 0 {
		fmt.Println("No token positions.")
		return
	}

	fmt.Printf("%-12s %14s %14s %14s %14s %14s\n",
		"TOKEN", "REALIZED", "PEAK", "REGRET", "REMAINING", "OPEN USD")
	for _, tp := range s.Tokens {
		name := tp.TokenSymbol
		if name == "" {
			name = wallet.Short(tp.TokenMint)
		}
		fmt.Printf("%-12s %14.2f %14.2f %14.2f %14.6f %14.2f\n",
			name, tp.RealizedUSD, tp.PeakPotentialUSD, tp.RegretGapUSD,
			tp.RemainingQty, tp.RemainingUSD)
	}

	fmt.Println()
	fmt.Printf("Realized PnL:     %14.2f USD\n", s.RealizedUSD)
	fmt.Printf("Peak potential:   %14.2f USD\n", s.PeakPotentialUSD)
	fmt.Printf("Regret gap:       %14.2f USD\n", s.RegretGapUSD)
	fmt.Printf("Open positions:   %14.2f USD\n", s.OpenPositionsUSD)
}
