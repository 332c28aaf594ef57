package clickhouse

import (
	"context"
	"fmt"

	"stake-wallet-profiler/internal/domain"
	"stake-wallet-profiler/internal/storage"
)

// ProfileSink writes profiles to the wallet_profiles table in one batch.
// The table is a ReplacingMergeTree keyed by wallet, so re-profiled wallets
// collapse to their newest row.
type ProfileSink struct {
	conn  *Conn
	runID string
}

// NewProfileSink creates a sink that tags rows with runID.
func NewProfileSink(conn *Conn, runID string) *ProfileSink {
	return &ProfileSink{conn: conn, runID: runID}
}

// Compile-time interface check.
var _ storage.ProfileSink = (*ProfileSink)(nil)

// Name implements storage.ProfileSink.
func (s *ProfileSink) Name() string {
	return "clickhouse"
}

// Write inserts all profiles in a single batch.
func (s *ProfileSink) Write(ctx context.Context, profiles []*domain.WalletProfile) error {
	if len(profiles) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO wallet_profiles (
			wallet, run_id, mode, enhanced_used, on_curve, cached_at,
			delegated_lamports, stake_accounts, balance_lamports, token_accounts_nonzero, top_token_mints,
			recent_signatures, recent_swaps, lookback_days, swaps_per_day, last_swap_time, swap_programs_used,
			funding_in_lamports, funding_out_lamports
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range profiles {
		if p == nil {
			continue
		}
		err := batch.Append(
			p.Wallet, s.runID, string(p.Mode), boolToUInt8(p.EnhancedUsed), boolToUInt8(p.OnCurve), float64(p.CachedAt),
			p.DelegatedLamports, p.StakeAccounts, p.BalanceLamports, uint32(p.TokenAccountsNonzero), p.TopTokenMints,
			uint32(p.RecentSignatures), uint32(p.RecentSwaps), p.LookbackDays, p.SwapsPerDay, p.LastSwapTime, p.SwapProgramsUsed,
			p.FundingInLamports, p.FundingOutLamports,
		)
		if err != nil {
			batch.Abort()
			return fmt.Errorf("append profile %s: %w", p.Wallet, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// CountByRun returns the number of rows written for runID.
func (s *ProfileSink) CountByRun(ctx context.Context, runID string) (uint64, error) {
	var n uint64
	err := s.conn.QueryRow(ctx, `SELECT count() FROM wallet_profiles WHERE run_id = ?`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return n, nil
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
