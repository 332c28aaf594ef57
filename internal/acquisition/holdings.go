package acquisition

import (
	"sort"
	"strconv"
	"strings"

	"stake-wallet-profiler/internal/domain"
	"stake-wallet-profiler/internal/solana"
)

// maxTopMints is how many mints TopMints reports.
const maxTopMints = 6

// Holdings keeps token accounts with a positive UI amount, largest first.
// A missing uiAmount falls back to uiAmountString; unparsable amounts are zero.
func Holdings(accounts []solana.TokenAccount) []domain.TokenHolding {
	holdings := make([]domain.TokenHolding, 0, len(accounts))
	for _, acc := range accounts {
		amount := uiAmount(acc)
		if amount <= 0 {
			continue
		}
		holdings = append(holdings, domain.TokenHolding{
			TokenAccount:   acc.Pubkey,
			Mint:           acc.Mint,
			AmountUI:       amount,
			AmountUIString: acc.UIAmountString,
			Decimals:       acc.Decimals,
		})
	}

	sort.SliceStable(holdings, func(i, j int) bool {
		return holdings[i].AmountUI > holdings[j].AmountUI
	})
	return holdings
}

func uiAmount(acc solana.TokenAccount) float64 {
	if acc.UIAmount != nil {
		return *acc.UIAmount
	}
	if acc.UIAmountString == "" {
		return 0
	}
	v, err := strconv.ParseFloat(acc.UIAmountString, 64)
	if err != nil {
		return 0
	}
	return v
}

// TopMints joins the mints of the first six holdings, skipping empty mints.
func TopMints(holdings []domain.TokenHolding) string {
	n := len(holdings)
	if n > maxTopMints {
		n = maxTopMints
	}
	mints := make([]string, 0, n)
	for _, h := range holdings[:n] {
		if h.Mint != "" {
			mints = append(mints, h.Mint)
		}
	}
	return strings.Join(mints, ",")
}

// WalletSigned keeps transactions the wallet paid for or signed.
func WalletSigned(txs []domain.EnhancedTx, wallet string) []domain.EnhancedTx {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return nil
	}

	var signed []domain.EnhancedTx
	for _, tx := range txs {
		if tx.FeePayer == wallet || contains(tx.Signers, wallet) {
			signed = append(signed, tx)
		}
	}
	return signed
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
