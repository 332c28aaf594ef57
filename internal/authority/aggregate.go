// Package authority folds stake delegation rows into per-wallet totals and
// selects the wallets to profile.
package authority

import (
	"sort"

	"stake-wallet-profiler/internal/domain"
)

// unknownWallet collects rows whose authority is missing. It is dropped before returning.
const unknownWallet = "UNKNOWN"

// Aggregate sums delegated stake and stake-account counts per authority.
// With ModeBoth a row whose staker and withdrawer are the same wallet counts twice.
func Aggregate(rows []domain.StakeRow, mode domain.AggregationMode) map[string]*domain.AuthorityTotals {
	totals := make(map[string]*domain.AuthorityTotals)

	add := func(wallet string, lamports uint64) {
		if wallet == "" {
			wallet = unknownWallet
		}
		t, ok := totals[wallet]
		if !ok {
			t = &domain.AuthorityTotals{Wallet: wallet}
			totals[wallet] = t
		}
		t.DelegatedLamports += lamports
		t.StakeAccounts++
	}

	for _, row := range rows {
		if mode.CountsStaker() {
			add(row.StakerAuthority, row.DelegatedLamports)
		}
		if mode.CountsWithdrawer() {
			add(row.WithdrawAuthority, row.DelegatedLamports)
		}
	}

	delete(totals, unknownWallet)
	return totals
}

// Select ranks wallets by delegated stake, then stake-account count, both
// descending, with the wallet address as a final ascending tiebreak.
// n <= 0 returns every wallet.
func Select(totals map[string]*domain.AuthorityTotals, n int) []domain.AuthorityTotals {
	ranked := make([]domain.AuthorityTotals, 0, len(totals))
	for _, t := range totals {
		ranked = append(ranked, *t)
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.DelegatedLamports != b.DelegatedLamports {
			return a.DelegatedLamports > b.DelegatedLamports
		}
		if a.StakeAccounts != b.StakeAccounts {
			return a.StakeAccounts > b.StakeAccounts
		}
		return a.Wallet < b.Wallet
	})

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
