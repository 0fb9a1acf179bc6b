package domain

// SyncState tracks per-wallet ingestion progress.
// Corresponds to sync_state table in PostgreSQL.
type SyncState struct {
	Wallet       string // wallet address, primary key
	LastBefore   string // opaque backfill cursor, "" when none
	VerifiedSlot int64  // highest slot fully ingested by tail sync, 0 when none
	FullScanAt   int64  // Unix ms of last completed backfill, 0 when never
	CreatedAt    int64  // record creation timestamp (ms)
	UpdatedAt    int64  // last update timestamp (ms)
}
