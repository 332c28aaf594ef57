package graph

import (
	"context"
	"fmt"

	"stake-wallet-profiler/internal/domain"
	"stake-wallet-profiler/internal/storage"
)

// upsertWalletCypher merges the profiled wallet and its ranked funding edges.
// Edge amounts are replaced, not summed, so re-profiling is idempotent.
const upsertWalletCypher = `
MERGE (w:Wallet {address: $wallet})
SET w.delegated_lamports = $delegated,
    w.stake_accounts = $stakeAccounts,
    w.recent_swaps = $recentSwaps,
    w.on_curve = $onCurve,
    w.profiled_at = $cachedAt
FOREACH (src IN $sources |
    MERGE (s:Wallet {address: src.address})
    MERGE (s)-[f:FUNDED]->(w)
    SET f.lamports = src.lamports)
FOREACH (dst IN $destinations |
    MERGE (d:Wallet {address: dst.address})
    MERGE (w)-[f:FUNDED]->(d)
    SET f.lamports = dst.lamports)
`

// FundingSink writes each profile's top funding counterparties as
// (:Wallet)-[:FUNDED {lamports}]->(:Wallet) edges.
type FundingSink struct {
	client Client
}

// NewFundingSink creates a sink on client.
func NewFundingSink(client Client) *FundingSink {
	return &FundingSink{client: client}
}

var _ storage.ProfileSink = (*FundingSink)(nil)

// Name implements storage.ProfileSink.
func (s *FundingSink) Name() string {
	return "neo4j"
}

// Write upserts one wallet per query. It stops at the first failure.
func (s *FundingSink) Write(ctx context.Context, profiles []*domain.WalletProfile) error {
	for _, p := range profiles {
		if p == nil {
			continue
		}
		if _, err := s.client.ExecuteWrite(ctx, upsertWalletCypher, walletParams(p)); err != nil {
			return fmt.Errorf("upsert wallet %s: %w", p.Wallet, err)
		}
	}
	return nil
}

func walletParams(p *domain.WalletProfile) map[string]any {
	return map[string]any{
		"wallet":        p.Wallet,
		"delegated":     int64(p.DelegatedLamports),
		"stakeAccounts": int64(p.StakeAccounts),
		"recentSwaps":   int64(p.RecentSwaps),
		"onCurve":       p.OnCurve,
		"cachedAt":      float64(p.CachedAt),
		"sources":       counterpartyParams(p.FundingSourcesTop),
		"destinations":  counterpartyParams(p.FundingDestinationsTop),
	}
}

func counterpartyParams(cps []domain.Counterparty) []map[string]any {
	out := make([]map[string]any, 0, len(cps))
	for _, c := range cps {
		out = append(out, map[string]any{
			"address":  c.Address,
			"lamports": int64(c.Lamports),
		})
	}
	return out
}
