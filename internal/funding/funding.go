// Package funding aggregates native-currency flows into and out of a wallet.
package funding

import (
	"sort"

	"stake-wallet-profiler/internal/domain"
)

// DefaultTopN is the number of counterparties kept per direction.
const DefaultTopN = 12

// Flows is the native transfer total per direction and per counterparty, in lamports.
type Flows struct {
	InLamports  uint64
	OutLamports uint64
	In          map[string]uint64 // source -> lamports received from it
	Out         map[string]uint64 // destination -> lamports sent to it
}

// Aggregate sums positive native transfers between wallet and other,
// non-empty addresses across txs. Self-transfers count in neither direction.
func Aggregate(txs []domain.EnhancedTx, wallet string) Flows {
	f := Flows{
		In:  make(map[string]uint64),
		Out: make(map[string]uint64),
	}
	if wallet == "" {
		return f
	}

	for _, tx := range txs {
		for _, tr := range tx.NativeTransfers {
			if tr.Amount <= 0 {
				continue
			}
			amount := uint64(tr.Amount)

			if tr.To == wallet && tr.From != "" && tr.From != wallet {
				f.InLamports += amount
				f.In[tr.From] += amount
			}
			if tr.From == wallet && tr.To != "" && tr.To != wallet {
				f.OutLamports += amount
				f.Out[tr.To] += amount
			}
		}
	}
	return f
}

// Top returns the n largest counterparties, amount descending, ties by address.
func Top(m map[string]uint64, n int) []domain.Counterparty {
	out := make([]domain.Counterparty, 0, len(m))
	for addr, lamports := range m {
		out = append(out, domain.Counterparty{
			Address:  addr,
			Lamports: lamports,
			SOL:      domain.LamportsToSOL(lamports),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Lamports != out[j].Lamports {
			return out[i].Lamports > out[j].Lamports
		}
		return out[i].Address < out[j].Address
	})

	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
