package helius

import "encoding/json"

// TokenTransfer is one SPL token movement inside a transaction.
type TokenTransfer struct {
	Mint            string  `json:"mint"`
	FromUserAccount string  `json:"fromUserAccount"`
	ToUserAccount   string  `json:"toUserAccount"`
	TokenAmount     float64 `json:"tokenAmount"`
}

// NativeTransfer is one SOL movement inside a transaction.
// Amount is in lamports.
type NativeTransfer struct {
	FromUserAccount string `json:"fromUserAccount"`
	ToUserAccount   string `json:"toUserAccount"`
	Amount          int64  `json:"amount"`
}

// Instruction carries the program identifier of a top-level instruction.
type Instruction struct {
	ProgramID string `json:"programId"`
}

// TxEvents holds provider-parsed event payloads. Swap is kept opaque;
// its presence alone classifies the transaction.
type TxEvents struct {
	Swap json.RawMessage `json:"swap,omitempty"`
}

// EnhancedTransaction is one parsed transaction from the enhanced
// transactions endpoint. Raw preserves the full provider payload,
// unknown fields included, for opaque persistence.
type EnhancedTransaction struct {
	Signature       string           `json:"signature"`
	Slot            int64            `json:"slot"`
	Timestamp       *int64           `json:"timestamp"`
	Fee             int64            `json:"fee"`
	TokenTransfers  []TokenTransfer  `json:"tokenTransfers"`
	NativeTransfers []NativeTransfer `json:"nativeTransfers"`
	Instructions    []Instruction    `json:"instructions"`
	Events          *TxEvents        `json:"events,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// BlockTime returns the transaction timestamp in Unix seconds, 0 if the
// provider did not supply one.
func (t *EnhancedTransaction) BlockTime() int64 {
	if t.Timestamp == nil {
		return 0
	}
	return *t.Timestamp
}

// HasSwapEvent reports whether the provider supplied a structured swap payload.
func (t *EnhancedTransaction) HasSwapEvent() bool {
	return t.Events != nil && len(t.Events.Swap) > 0 && string(t.Events.Swap) != "null"
}

// Page is one backward-pagination page of transactions, newest first.
// NextBefore is derived client-side as the signature of the last item;
// empty when the page is empty.
type Page struct {
	Items      []*EnhancedTransaction
	NextBefore string
}
