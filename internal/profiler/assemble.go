// Package profiler builds wallet profiles and drives a resumable profiling run.
package profiler

import (
	"time"

	"stake-wallet-profiler/internal/acquisition"
	"stake-wallet-profiler/internal/classify"
	"stake-wallet-profiler/internal/domain"
	"stake-wallet-profiler/internal/funding"
	"stake-wallet-profiler/internal/solana"
)

// Assemble combines stake totals and acquired data into a profile.
// programs maps swap program ids to labels; it only matters for baseline data.
func Assemble(totals domain.AuthorityTotals, mode domain.AggregationMode, data *acquisition.WalletData, programs map[string]string, now time.Time) *domain.WalletProfile {
	wallet := totals.Wallet
	if data == nil {
		data = &acquisition.WalletData{}
	}

	tokens := data.Holdings
	if tokens == nil {
		tokens = []domain.TokenHolding{}
	}

	res := classify.Classify(data.TxSet(programs))

	p := &domain.WalletProfile{
		Wallet:       wallet,
		Mode:         mode,
		EnhancedUsed: data.EnhancedUsed,
		CachedAt:     domain.NewUnixTime(now),
		OnCurve:      solana.IsOnCurve(wallet),

		DelegatedLamports: totals.DelegatedLamports,
		DelegatedSOL:      domain.LamportsToSOL(totals.DelegatedLamports),
		StakeAccounts:     totals.StakeAccounts,

		BalanceLamports:      data.BalanceLamports,
		BalanceSOL:           domain.LamportsToSOL(data.BalanceLamports),
		TokenAccountsNonzero: len(tokens),
		Tokens:               tokens,
		TopTokenMints:        acquisition.TopMints(tokens),

		RecentSignatures: res.Stats.RecentSignatures,
		RecentSwaps:      res.Stats.RecentSwaps,
		LookbackDays:     res.Stats.LookbackDays,
		SwapsPerDay:      res.Stats.SwapsPerDay,
		LastSwapTime:     res.Stats.LastSwapTime,
		LastSwapTimeISO:  domain.ISOTime(res.Stats.LastSwapTime),

		TxTypeCounts:           map[string]int{},
		TxSourceCounts:         map[string]int{},
		RecentTxSummaries:      []domain.TxSummary{},
		FundingSourcesTop:      []domain.Counterparty{},
		FundingDestinationsTop: []domain.Counterparty{},
	}

	if !data.EnhancedUsed {
		p.SwapProgramsUsed = classify.SummarizePrograms(res.Matches, programs)
		return p
	}

	p.SwapProgramsUsed = classify.SummarizeSources(res.Matches)

	h := classify.Summarize(data.Signed, classify.MaxRecentSummaries)
	p.TxTypeCounts = h.Types
	p.TxSourceCounts = h.Sources
	p.RecentTxSummaries = h.Recent

	flows := funding.Aggregate(data.Enhanced, wallet)
	p.FundingInLamports = flows.InLamports
	p.FundingInSOL = domain.LamportsToSOL(flows.InLamports)
	p.FundingOutLamports = flows.OutLamports
	p.FundingOutSOL = domain.LamportsToSOL(flows.OutLamports)
	p.FundingSourcesTop = funding.Top(flows.In, funding.DefaultTopN)
	p.FundingDestinationsTop = funding.Top(flows.Out, funding.DefaultTopN)

	return p
}
