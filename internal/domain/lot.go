package domain

import "github.com/shopspring/decimal"

// MatchedSell is one SELL portion matched against a lot in FIFO order.
type MatchedSell struct {
	Time        int64           // sell block time, Unix seconds
	Qty         float64         // matched quantity
	ProceedsUSD decimal.Decimal // qty * sell price - attributed fee
}

// Lot is a single BUY whose unconsumed quantity is matched against later
// SELLs. Lots live only inside a reconstruction run and are never persisted.
type Lot struct {
	ID           string           // deterministic id per (signature, buyTime)
	TokenMint    string           // mint address
	BuyTime      int64            // Unix seconds
	BuyQty       float64          // bought quantity
	BuyCostUSD   *decimal.Decimal // buyQty * price at buy, nil if oracle unknown
	RemainingQty float64          // unmatched quantity
	MatchedSells []MatchedSell

	RealizedUSD      decimal.Decimal // sum of matched sell proceeds
	PeakTimestamp    *int64          // candle time of the window high, nil if no candles
	PeakPriceUSD     *float64        // window high price, nil if no candles
	PeakPotentialUSD decimal.Decimal // buyQty * peak price, realized when no candles
	RegretGapUSD     decimal.Decimal // max(0, peak potential - (realized + remaining value))
}

// TokenPosition aggregates lots for one token.
type TokenPosition struct {
	TokenMint        string
	TokenSymbol      string
	Lots             []*Lot
	RealizedUSD      float64
	PeakPotentialUSD float64
	RegretGapUSD     float64
	RemainingQty     float64
	RemainingUSD     float64
}

// PositionSummary is the result of one reconstruction run for a wallet.
type PositionSummary struct {
	Wallet           string
	Tokens           []*TokenPosition
	RealizedUSD      float64
	PeakPotentialUSD float64
	RegretGapUSD     float64
	OpenPositionsUSD float64
	EventsProcessed  int
	DroppedSells     int
}
