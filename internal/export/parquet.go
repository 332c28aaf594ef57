package export

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"stake-wallet-profiler/internal/domain"
)

// parquetRow is the flat columnar shape of a profile. Nested collections
// other than token mints are left to the JSON exports.
type parquetRow struct {
	Wallet               string  `parquet:"wallet"`
	Mode                 string  `parquet:"mode"`
	EnhancedUsed         bool    `parquet:"helius_used"`
	OnCurve              bool    `parquet:"on_curve"`
	CachedAt             float64 `parquet:"cached_at"`
	DelegatedLamports    uint64  `parquet:"delegated_lamports"`
	StakeAccounts        uint64  `parquet:"stake_accounts"`
	BalanceLamports      uint64  `parquet:"balance_lamports"`
	TokenAccountsNonzero int32   `parquet:"token_accounts_nonzero"`
	TopTokenMints        string  `parquet:"top_token_mints"`
	RecentSignatures     int32   `parquet:"recent_signatures"`
	RecentSwaps          int32   `parquet:"recent_swaps_detected"`
	LookbackDays         float64 `parquet:"lookback_days"`
	SwapsPerDay          float64 `parquet:"swaps_per_day"`
	LastSwapTime         *int64  `parquet:"last_swap_time,optional"`
	SwapProgramsUsed     string  `parquet:"swap_programs_used"`
	FundingInLamports    uint64  `parquet:"funding_in_lamports"`
	FundingOutLamports   uint64  `parquet:"funding_out_lamports"`
}

func toParquetRow(p *domain.WalletProfile) parquetRow {
	return parquetRow{
		Wallet:               p.Wallet,
		Mode:                 string(p.Mode),
		EnhancedUsed:         p.EnhancedUsed,
		OnCurve:              p.OnCurve,
		CachedAt:             float64(p.CachedAt),
		DelegatedLamports:    p.DelegatedLamports,
		StakeAccounts:        p.StakeAccounts,
		BalanceLamports:      p.BalanceLamports,
		TokenAccountsNonzero: int32(p.TokenAccountsNonzero),
		TopTokenMints:        p.TopTokenMints,
		RecentSignatures:     int32(p.RecentSignatures),
		RecentSwaps:          int32(p.RecentSwaps),
		LookbackDays:         p.LookbackDays,
		SwapsPerDay:          p.SwapsPerDay,
		LastSwapTime:         p.LastSwapTime,
		SwapProgramsUsed:     p.SwapProgramsUsed,
		FundingInLamports:    p.FundingInLamports,
		FundingOutLamports:   p.FundingOutLamports,
	}
}

// EncodeParquet writes profiles as a zstd-compressed parquet file.
func EncodeParquet(w *bytes.Buffer, profiles []*domain.WalletProfile) error {
	rows := make([]parquetRow, 0, len(profiles))
	for _, p := range profiles {
		if p != nil {
			rows = append(rows, toParquetRow(p))
		}
	}

	pw := parquet.NewGenericWriter[parquetRow](w, parquet.Compression(&parquet.Zstd))
	if _, err := pw.Write(rows); err != nil {
		pw.Close()
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
