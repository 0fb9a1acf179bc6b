package domain

// Native SOL pseudo-mint and decimals used for native transfers.
const (
	NativeMint     = "So11111111111111111111111111111111111111112"
	NativeDecimals = 9
)

// Event side constants.
const (
	SideBuy      = "BUY"
	SideSell     = "SELL"
	SideSwap     = "SWAP"
	SideTransfer = "TRANSFER"
	SideMint     = "MINT"
	SideBurn     = "BURN"
	SideWrap     = "WRAP"
	SideUnwrap   = "UNWRAP"
	SideUnknown  = "UNKNOWN"
)

// Event direction constants.
const (
	DirectionIn   = "IN"
	DirectionOut  = "OUT"
	DirectionSelf = "SELF"
	DirectionNone = "N/A"
)

// WalletEvent is one canonical ledger entry derived from a transaction
// for one wallet. Deduplicated by (wallet, signature, index).
// Corresponds to wallet_events table in PostgreSQL.
type WalletEvent struct {
	Wallet        string   // owning wallet address
	Signature     string   // source transaction signature
	Index         int      // dense emission index within (wallet, signature)
	Slot          int64    // Solana slot number
	BlockTime     int64    // Unix timestamp in seconds
	Program       string   // program identifier when known
	Side          string   // BUY | SELL | SWAP | TRANSFER | MINT | BURN | WRAP | UNWRAP | UNKNOWN
	Direction     string   // IN | OUT | SELF | N/A
	TokenMint     string   // mint address
	TokenSymbol   string   // resolved symbol
	TokenDecimals int      // resolved decimals
	AmountRaw     string   // base-units amount, signed decimal string
	AmountUI      float64  // decimals-adjusted amount, negative for OUT
	AmountUSD     *float64 // USD value at tx time, nil if unknown
	PriceUSDAtTx  *float64 // token USD price at tx time, nil if unknown
	LinkID        string   // groups legs of one atomic exchange, "" if none
	FeeBaseUnits  int64    // attributed transaction fee in native base units
	Metadata      string   // free-form serialized metadata
	CreatedAt     int64    // record creation timestamp (ms)
}
