// Package normalization converts provider transactions into the
// canonical wallet-event ledger.
package normalization

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
	"github.com/hudakjoseph28/fadeAi/internal/helius"
	"github.com/hudakjoseph28/fadeAi/internal/wallet"
)

// MetadataResolver resolves token metadata for a set of mints.
// Implementations never fail: every input mint receives an entry,
// falling back to a derived one.
type MetadataResolver interface {
	Batch(ctx context.Context, mints []string) map[string]*domain.TokenMeta
}

// Normalizer derives wallet events from enhanced transactions.
type Normalizer struct {
	resolver    MetadataResolver
	ammPrograms map[string]struct{}
}

// Option configures Normalizer.
type Option func(*Normalizer)

// WithAMMPrograms replaces the swap-classification allow-list.
func WithAMMPrograms(programs map[string]struct{}) Option {
	return func(n *Normalizer) {
		n.ammPrograms = programs
	}
}

// New creates a Normalizer.
func New(resolver MetadataResolver, opts ...Option) *Normalizer {
	n := &Normalizer{
		resolver:    resolver,
		ammPrograms: DefaultAMMPrograms(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NormalizeBatch normalizes a set of transactions for one wallet.
// Metadata for every referenced mint is resolved once up front.
func (n *Normalizer) NormalizeBatch(ctx context.Context, walletAddr string, txs []*helius.EnhancedTransaction) []*domain.WalletEvent {
	meta := n.resolver.Batch(ctx, collectMints(txs))

	var events []*domain.WalletEvent
	for _, tx := range txs {
		events = append(events, n.NormalizeTx(walletAddr, tx, meta)...)
	}
	return events
}

// NormalizeTx converts one transaction into zero or more wallet events.
// The output is deterministic in the provider payload alone: indices are
// dense ascending from 0 in emission order.
func (n *Normalizer) NormalizeTx(walletAddr string, tx *helius.EnhancedTransaction, meta map[string]*domain.TokenMeta) []*domain.WalletEvent {
	now := time.Now().UnixMilli()
	blockTime := tx.BlockTime()
	program := n.matchAMMProgram(tx)

	var events []*domain.WalletEvent

	emit := func(side, direction, mint string, amountUI float64, decimals int, symbol string) {
		events = append(events, &domain.WalletEvent{
			Wallet:        walletAddr,
			Signature:     tx.Signature,
			Index:         len(events),
			Slot:          tx.Slot,
			BlockTime:     blockTime,
			Program:       program,
			Side:          side,
			Direction:     direction,
			TokenMint:     mint,
			TokenSymbol:   symbol,
			TokenDecimals: decimals,
			AmountRaw:     rawFromUI(amountUI, decimals),
			AmountUI:      amountUI,
			CreatedAt:     now,
		})
	}

	// SPL token transfers.
	for _, tr := range tx.TokenTransfers {
		if tr.Mint == "" {
			continue
		}
		decimals, symbol := lookupMeta(meta, tr.Mint)
		switch {
		case tr.FromUserAccount == walletAddr && tr.ToUserAccount != walletAddr:
			emit(domain.SideSell, domain.DirectionOut, tr.Mint, -tr.TokenAmount, decimals, symbol)
		case tr.ToUserAccount == walletAddr && tr.FromUserAccount != walletAddr:
			emit(domain.SideBuy, domain.DirectionIn, tr.Mint, tr.TokenAmount, decimals, symbol)
		}
	}

	// Native transfers, expressed against the WSOL pseudo-mint.
	for _, tr := range tx.NativeTransfers {
		ui := float64(tr.Amount) / 1e9
		switch {
		case tr.FromUserAccount == walletAddr && tr.ToUserAccount != walletAddr:
			emit(domain.SideSell, domain.DirectionOut, domain.NativeMint, -ui, domain.NativeDecimals, "SOL")
		case tr.ToUserAccount == walletAddr && tr.FromUserAccount != walletAddr:
			emit(domain.SideBuy, domain.DirectionIn, domain.NativeMint, ui, domain.NativeDecimals, "SOL")
		}
	}

	// Swap classification links the last two legs as one atomic exchange.
	if len(events) >= 2 && n.isSwap(tx) {
		linkID := "swap:" + tx.Signature
		events[len(events)-1].LinkID = linkID
		events[len(events)-2].LinkID = linkID
	}

	// Fee attribution: full fee on the first SELL, else the first event.
	if tx.Fee > 0 && len(events) > 0 {
		target := events[0]
		for _, ev := range events {
			if ev.Side == domain.SideSell {
				target = ev
				break
			}
		}
		target.FeeBaseUnits += tx.Fee
	}

	return events
}

// isSwap classifies a transaction as a swap.
func (n *Normalizer) isSwap(tx *helius.EnhancedTransaction) bool {
	if tx.HasSwapEvent() {
		return true
	}
	if n.matchAMMProgram(tx) != "" {
		return true
	}
	// Shape heuristic: two or more transfers over two or more mints.
	if len(tx.TokenTransfers) >= 2 {
		mints := make(map[string]struct{})
		for _, tr := range tx.TokenTransfers {
			if tr.Mint != "" {
				mints[tr.Mint] = struct{}{}
			}
		}
		if len(mints) >= 2 {
			return true
		}
	}
	return false
}

// matchAMMProgram returns the first allow-listed program ID in the
// transaction's top-level instructions, "" if none.
func (n *Normalizer) matchAMMProgram(tx *helius.EnhancedTransaction) string {
	for _, ins := range tx.Instructions {
		if _, ok := n.ammPrograms[ins.ProgramID]; ok {
			return ins.ProgramID
		}
	}
	return ""
}

// lookupMeta returns decimals and symbol for a mint, with the resolver's
// derived fallback applied when the mint is somehow absent.
func lookupMeta(meta map[string]*domain.TokenMeta, mint string) (int, string) {
	if m, ok := meta[mint]; ok {
		return m.Decimals, m.Symbol
	}
	return 9, wallet.Short(mint)
}

// rawFromUI derives the signed base-units string from a decimals-adjusted
// amount. Decimal arithmetic avoids float artifacts in the scaled value.
func rawFromUI(ui float64, decimals int) string {
	return decimal.NewFromFloat(ui).Shift(int32(decimals)).Round(0).String()
}

// collectMints gathers every SPL mint referenced in the input set, plus
// the native pseudo-mint when native transfers are present.
func collectMints(txs []*helius.EnhancedTransaction) []string {
	seen := make(map[string]struct{})
	var mints []string
	add := func(mint string) {
		if mint == "" {
			return
		}
		if _, ok := seen[mint]; ok {
			return
		}
		seen[mint] = struct{}{}
		mints = append(mints, mint)
	}

	for _, tx := range txs {
		for _, tr := range tx.TokenTransfers {
			add(tr.Mint)
		}
		if len(tx.NativeTransfers) > 0 {
			add(domain.NativeMint)
		}
	}
	return mints
}
