package domain

// ReconcileAudit records one slot-window reconciliation outcome.
// Append-only; corresponds to reconcile_audits table in PostgreSQL.
type ReconcileAudit struct {
	ID               int64  // BIGSERIAL primary key
	Wallet           string // audited wallet
	FromSlot         int64  // window start (inclusive)
	ToSlot           int64  // window end (inclusive)
	CountRaw         int    // raw transactions in store after repair
	CountWalletTx    int    // wallet events in store after repair
	SignatureSetHash string // sha256 over the sorted stored signature set
	OK               bool   // store agrees with provider view
	CreatedAt        int64  // record creation timestamp (ms)
}
