package domain

// RawTransaction is an as-received provider transaction.
// Corresponds to raw_transactions table in PostgreSQL.
type RawTransaction struct {
	Signature string // unique transaction signature
	Wallet    string // address whose ingestion stored this row
	Slot      int64  // Solana slot number
	BlockTime int64  // Unix timestamp in seconds, 0 if unknown
	Payload   []byte // opaque serialized provider payload
	CreatedAt int64  // record creation timestamp (ms)
}
