package helius

import (
	"encoding/json"
	"math"
	"strconv"

	"stake-wallet-profiler/internal/domain"
)

// Per-call caps enforced by the provider.
const (
	MaxSignaturesLimit = 1000
	MaxParseBatch      = 100
)

// HistoryOpts configures getTransactionsForAddress.
type HistoryOpts struct {
	Limit         int
	TokenAccounts domain.TokenAccountsFilter // empty means provider default
	// BlockTimeGTE filters to transactions at or after this unix time. Zero disables it.
	BlockTimeGTE int64
}

// enhancedTransaction is the wire shape returned by POST /v0/transactions.
type enhancedTransaction struct {
	Signature       string           `json:"signature"`
	Timestamp       *int64           `json:"timestamp"`
	Slot            int64            `json:"slot"`
	Type            string           `json:"type"`
	Description     string           `json:"description"`
	Source          string           `json:"source"`
	Fee             uint64           `json:"fee"`
	FeePayer        string           `json:"feePayer"`
	Signers         []string         `json:"signers"`
	NativeTransfers []nativeTransfer `json:"nativeTransfers"`
}

type nativeTransfer struct {
	FromUserAccount string   `json:"fromUserAccount"`
	ToUserAccount   string   `json:"toUserAccount"`
	Amount          lamports `json:"amount"`
}

// lamports decodes a transfer amount without failing the enclosing batch.
// Integers and integer strings are taken as is, fractional numbers are
// truncated, and anything else decodes as 0 so the transfer is ignored.
type lamports int64

func (l *lamports) UnmarshalJSON(b []byte) error {
	*l = 0
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			*l = lamports(n)
		}
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil || n == "" {
		return nil
	}
	if i, err := n.Int64(); err == nil {
		*l = lamports(i)
		return nil
	}
	if f, err := n.Float64(); err == nil && !math.IsNaN(f) && math.Abs(f) < math.MaxInt64 {
		*l = lamports(int64(f))
	}
	return nil
}

func (t enhancedTransaction) toDomain() domain.EnhancedTx {
	tx := domain.EnhancedTx{
		Signature:   t.Signature,
		Timestamp:   t.Timestamp,
		Slot:        t.Slot,
		Type:        t.Type,
		Description: t.Description,
		Source:      t.Source,
		Fee:         t.Fee,
		FeePayer:    t.FeePayer,
		Signers:     t.Signers,
	}
	if len(t.NativeTransfers) > 0 {
		tx.NativeTransfers = make([]domain.NativeTransfer, len(t.NativeTransfers))
		for i, nt := range t.NativeTransfers {
			tx.NativeTransfers[i] = domain.NativeTransfer{
				From:   nt.FromUserAccount,
				To:     nt.ToUserAccount,
				Amount: int64(nt.Amount),
			}
		}
	}
	return tx
}

// historyPage is the result object of getTransactionsForAddress.
type historyPage[T any] struct {
	Data            []T    `json:"data"`
	PaginationToken string `json:"paginationToken"`
}

type signatureItem struct {
	Signature string      `json:"signature"`
	Slot      int64       `json:"slot"`
	BlockTime *int64      `json:"blockTime"`
	Err       interface{} `json:"err"`
}
