package domain

// Token metadata source constants, in resolution priority order.
const (
	MetaSourceLocal       = "local"
	MetaSourceJupiter     = "jupiter"
	MetaSourceHelius      = "helius"
	MetaSourceDexScreener = "dexscreener"
	MetaSourceDerived     = "derived"
)

// TokenMeta is resolved token metadata.
// Corresponds to token_meta table in PostgreSQL.
type TokenMeta struct {
	Mint      string // mint address, primary key
	Symbol    string // token symbol
	Name      string // token name, "" if unknown
	Decimals  int    // token decimals
	Source    string // local | jupiter | helius | dexscreener | derived
	UpdatedAt int64  // last update timestamp (ms)
}
