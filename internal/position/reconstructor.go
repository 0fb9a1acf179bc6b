// Package position rebuilds per-token FIFO lots from a wallet's event
// ledger and annotates them with peak-potential and regret-gap metrics.
package position

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
	"github.com/hudakjoseph28/fadeAi/internal/idhash"
	"github.com/hudakjoseph28/fadeAi/internal/observability"
	"github.com/hudakjoseph28/fadeAi/internal/storage"
)

// Epsilon is the quantity tolerance for closing lots. A lot whose
// remaining quantity falls below it is considered fully consumed.
const Epsilon = 1e-6

// Window span above which peak detection drops from hourly to daily candles.
const hourlyWindowLimit = 60 * 24 * time.Hour

// PriceSource answers historical and windowed price questions. A lookup
// failure never aborts a reconstruction run.
type PriceSource interface {
	// PriceAt returns the USD price of a mint at a point in time.
	PriceAt(ctx context.Context, mint string, ts int64) (float64, error)

	// GetCandles returns OHLC candles for [start, end] at the given
	// resolution, ordered by t ASC.
	GetCandles(ctx context.Context, mint string, start, end int64, resolution string) ([]*domain.Candle, error)
}

// Reconstructor computes FIFO positions for one wallet at a time.
type Reconstructor struct {
	eventStore storage.WalletEventStore
	prices     PriceSource
	logger     *log.Logger
	now        func() int64
}

// ReconstructorOptions contains configuration for creating a Reconstructor.
type ReconstructorOptions struct {
	EventStore storage.WalletEventStore
	Prices     PriceSource
	Logger     *log.Logger
	Now        func() int64 // Unix seconds, defaults to wall clock
}

// NewReconstructor creates a position reconstructor.
func NewReconstructor(opts ReconstructorOptions) *Reconstructor {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	now := opts.Now
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	return &Reconstructor{
		eventStore: opts.EventStore,
		prices:     opts.Prices,
		logger:     logger,
		now:        now,
	}
}

// tokenState accumulates lots for one mint during a run.
type tokenState struct {
	symbol   string
	openLots []*domain.Lot
	allLots  []*domain.Lot
}

// Reconstruct replays the wallet's ordered ledger into FIFO lots and
// aggregates them. currentPrices values open remainders; a missing entry
// values the remainder at zero.
func (r *Reconstructor) Reconstruct(ctx context.Context, walletAddr string, currentPrices map[string]float64) (*domain.PositionSummary, error) {
	start := time.Now()

	events, err := r.eventStore.GetByWallet(ctx, walletAddr)
	if err != nil {
		return nil, fmt.Errorf("load wallet events: %w", err)
	}

	summary := &domain.PositionSummary{Wallet: walletAddr}
	tokens := make(map[string]*tokenState)

	for _, ev := range events {
		summary.EventsProcessed++

		switch ev.Side {
		case domain.SideBuy:
			r.applyBuy(ctx, tokens, ev)
		case domain.SideSell:
			if dropped := r.applySell(ctx, tokens, ev); dropped {
				summary.DroppedSells++
			}
		}
	}

	realized := decimal.Zero
	peakPotential := decimal.Zero
	regretGap := decimal.Zero
	openValue := decimal.Zero

	for mint, ts := range tokens {
		pos := &domain.TokenPosition{TokenMint: mint, TokenSymbol: ts.symbol, Lots: ts.allLots}

		tokenRealized := decimal.Zero
		tokenPeak := decimal.Zero
		tokenRegret := decimal.Zero
		tokenRemaining := 0.0

		for _, lot := range ts.allLots {
			r.finalizeLot(ctx, lot, currentPrices[mint])
			tokenRealized = tokenRealized.Add(lot.RealizedUSD)
			tokenPeak = tokenPeak.Add(lot.PeakPotentialUSD)
			tokenRegret = tokenRegret.Add(lot.RegretGapUSD)
			if lot.RemainingQty > Epsilon {
				tokenRemaining += lot.RemainingQty
			}
		}

		remainingUSD := decimal.NewFromFloat(tokenRemaining).
			Mul(decimal.NewFromFloat(currentPrices[mint]))

		pos.RealizedUSD = tokenRealized.InexactFloat64()
		pos.PeakPotentialUSD = tokenPeak.InexactFloat64()
		pos.RegretGapUSD = tokenRegret.InexactFloat64()
		pos.RemainingQty = tokenRemaining
		pos.RemainingUSD = remainingUSD.InexactFloat64()
		summary.Tokens = append(summary.Tokens, pos)

		realized = realized.Add(tokenRealized)
		peakPotential = peakPotential.Add(tokenPeak)
		regretGap = regretGap.Add(tokenRegret)
		openValue = openValue.Add(remainingUSD)
	}

	summary.RealizedUSD = realized.InexactFloat64()
	summary.PeakPotentialUSD = peakPotential.InexactFloat64()
	summary.RegretGapUSD = regretGap.InexactFloat64()
	summary.OpenPositionsUSD = openValue.InexactFloat64()

	observability.RecordReconstruction(time.Since(start).Seconds())
	return summary, nil
}

// applyBuy opens a new lot at the back of the token's FIFO queue.
func (r *Reconstructor) applyBuy(ctx context.Context, tokens map[string]*tokenState, ev *domain.WalletEvent) {
	ts := r.tokenState(tokens, ev)
	qty := math.Abs(ev.AmountUI)
	if qty <= Epsilon {
		return
	}

	lot := &domain.Lot{
		ID:           idhash.ComputeLotID(ev.Signature, ev.BlockTime),
		TokenMint:    ev.TokenMint,
		BuyTime:      ev.BlockTime,
		BuyQty:       qty,
		RemainingQty: qty,
		RealizedUSD:  decimal.Zero,
	}
	if price, err := r.prices.PriceAt(ctx, ev.TokenMint, ev.BlockTime); err == nil {
		cost := decimal.NewFromFloat(qty).Mul(decimal.NewFromFloat(price))
		lot.BuyCostUSD = &cost
	}

	ts.openLots = append(ts.openLots, lot)
	ts.allLots = append(ts.allLots, lot)
}

// applySell matches a SELL against open lots front to back. Returns true
// when part of the sell had no lot to match, which happens on incomplete
// history.
func (r *Reconstructor) applySell(ctx context.Context, tokens map[string]*tokenState, ev *domain.WalletEvent) bool {
	ts := r.tokenState(tokens, ev)
	need := math.Abs(ev.AmountUI)
	if need <= Epsilon {
		return false
	}

	sellPrice := 0.0
	if p, err := r.prices.PriceAt(ctx, ev.TokenMint, ev.BlockTime); err == nil {
		sellPrice = p
	}
	feeUSD := r.feeUSD(ctx, ev)

	for need > Epsilon && len(ts.openLots) > 0 {
		lot := ts.openLots[0]
		take := math.Min(need, lot.RemainingQty)

		proceeds := decimal.NewFromFloat(take).
			Mul(decimal.NewFromFloat(sellPrice)).
			Sub(feeUSD)
		// The event fee is charged to the first matched slice only.
		feeUSD = decimal.Zero

		lot.MatchedSells = append(lot.MatchedSells, domain.MatchedSell{
			Time:        ev.BlockTime,
			Qty:         take,
			ProceedsUSD: proceeds,
		})
		lot.RemainingQty -= take
		need -= take

		if lot.RemainingQty <= Epsilon {
			lot.RemainingQty = 0
			ts.openLots = ts.openLots[1:]
		}
	}

	return need > Epsilon
}

// finalizeLot computes realized, peak, and regret amounts for one lot.
func (r *Reconstructor) finalizeLot(ctx context.Context, lot *domain.Lot, currentPrice float64) {
	realized := decimal.Zero
	for _, ms := range lot.MatchedSells {
		realized = realized.Add(ms.ProceedsUSD)
	}
	lot.RealizedUSD = realized

	endTime := r.now()
	if len(lot.MatchedSells) > 0 {
		endTime = lot.MatchedSells[len(lot.MatchedSells)-1].Time
	}

	resolution := domain.Resolution1h
	if time.Duration(endTime-lot.BuyTime)*time.Second > hourlyWindowLimit {
		resolution = domain.Resolution1d
	}

	candles, err := r.prices.GetCandles(ctx, lot.TokenMint, lot.BuyTime, endTime, resolution)
	if err != nil {
		// Oracle failure degrades the lot's metrics instead of failing
		// the whole run.
		r.logger.Printf("mint=%s lot=%s candle lookup: %v", lot.TokenMint, lot.ID, err)
		lot.PeakPotentialUSD = realized
		lot.RegretGapUSD = decimal.Zero
		return
	}

	if len(candles) == 0 {
		lot.PeakPotentialUSD = realized
	} else {
		peak := candles[0]
		for _, c := range candles[1:] {
			if c.High > peak.High {
				peak = c
			}
		}
		peakT := peak.T
		peakPrice := peak.High
		lot.PeakTimestamp = &peakT
		lot.PeakPriceUSD = &peakPrice
		lot.PeakPotentialUSD = decimal.NewFromFloat(lot.BuyQty).
			Mul(decimal.NewFromFloat(peakPrice))
	}

	captured := realized
	if lot.RemainingQty > Epsilon {
		currentValue := decimal.NewFromFloat(lot.RemainingQty).
			Mul(decimal.NewFromFloat(currentPrice))
		captured = captured.Add(currentValue)
	}
	gap := lot.PeakPotentialUSD.Sub(captured)
	if gap.IsNegative() {
		gap = decimal.Zero
	}
	lot.RegretGapUSD = gap
}

// feeUSD converts the event's native-unit fee to USD at the event time.
func (r *Reconstructor) feeUSD(ctx context.Context, ev *domain.WalletEvent) decimal.Decimal {
	if ev.FeeBaseUnits <= 0 {
		return decimal.Zero
	}
	nativePrice, err := r.prices.PriceAt(ctx, domain.NativeMint, ev.BlockTime)
	if err != nil {
		return decimal.Zero
	}
	return decimal.NewFromInt(ev.FeeBaseUnits).
		Shift(-domain.NativeDecimals).
		Mul(decimal.NewFromFloat(nativePrice))
}

func (r *Reconstructor) tokenState(tokens map[string]*tokenState, ev *domain.WalletEvent) *tokenState {
	ts, ok := tokens[ev.TokenMint]
	if !ok {
		ts = &tokenState{symbol: ev.TokenSymbol}
		tokens[ev.TokenMint] = ts
	}
	if ts.symbol == "" {
		ts.symbol = ev.TokenSymbol
	}
	return ts
}
