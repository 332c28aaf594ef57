package domain

// BaselineTx is a transaction obtained through generic chain RPC.
// AccountKeys is nil until the transaction body has been fetched.
type BaselineTx struct {
	Signature   string
	BlockTime   *int64 // Unix timestamp (seconds), from the signature listing
	AccountKeys []string
}

// Fetched reports whether the transaction body was retrieved.
func (t BaselineTx) Fetched() bool {
	return t.AccountKeys != nil
}

// EnhancedTx is a pre-decoded transaction record from the enhanced provider.
type EnhancedTx struct {
	Signature       string
	Timestamp       *int64 // Unix timestamp (seconds)
	Slot            int64
	Type            string // provider classification, e.g. "SWAP"
	Description     string
	Source          string // protocol or venue label
	Fee             uint64
	FeePayer        string
	Signers         []string
	NativeTransfers []NativeTransfer
}

// NativeTransfer is a movement of native currency inside a transaction.
type NativeTransfer struct {
	From   string
	To     string
	Amount int64 // lamports
}

// TxSummary is a human-readable digest of one enhanced transaction.
type TxSummary struct {
	Signature    string `json:"signature"`
	Timestamp    *int64 `json:"timestamp"`
	TimestampISO string `json:"timestamp_iso"`
	Slot         int64  `json:"slot"`
	Type         string `json:"type"`
	Source       string `json:"source"`
	Description  string `json:"description"`
	Fee          uint64 `json:"fee"`
}
