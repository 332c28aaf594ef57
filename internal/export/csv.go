package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"

	"stake-wallet-profiler/internal/domain"
)

// CSVColumns is the fixed column order of the CSV export.
var CSVColumns = []string{
	"wallet",
	"mode",
	"helius_used",
	"delegated_lamports",
	"delegated_sol",
	"stake_accounts",
	"balance_lamports",
	"balance_sol",
	"token_accounts_nonzero",
	"recent_signatures",
	"recent_swaps_detected",
	"lookback_days",
	"swaps_per_day",
	"last_swap_time",
	"last_swap_time_iso",
	"swap_programs_used",
	"top_token_mints",
	"tx_type_counts_json",
	"tx_source_counts_json",
	"recent_tx_summaries_json",
	"funding_in_lamports",
	"funding_in_sol",
	"funding_out_lamports",
	"funding_out_sol",
	"funding_sources_top_json",
	"funding_destinations_top_json",
}

// EncodeCSV writes one row per profile in CSVColumns order. Nested fields are
// embedded as JSON; SOL amounts are exact decimal renderings of the lamports.
func EncodeCSV(w *bytes.Buffer, profiles []*domain.WalletProfile) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVColumns); err != nil {
		return err
	}
	for _, p := range profiles {
		if p == nil {
			continue
		}
		row, err := csvRow(p)
		if err != nil {
			return err
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(p *domain.WalletProfile) ([]string, error) {
	typeCounts, err := jsonOr(p.TxTypeCounts, "{}")
	if err != nil {
		return nil, err
	}
	sourceCounts, err := jsonOr(p.TxSourceCounts, "{}")
	if err != nil {
		return nil, err
	}
	summaries, err := jsonOr(p.RecentTxSummaries, "[]")
	if err != nil {
		return nil, err
	}
	sources, err := jsonOr(p.FundingSourcesTop, "[]")
	if err != nil {
		return nil, err
	}
	destinations, err := jsonOr(p.FundingDestinationsTop, "[]")
	if err != nil {
		return nil, err
	}

	lastSwap, lastSwapISO := "", ""
	if p.LastSwapTime != nil {
		lastSwap = strconv.FormatInt(*p.LastSwapTime, 10)
	}
	if p.LastSwapTimeISO != nil {
		lastSwapISO = *p.LastSwapTimeISO
	}

	return []string{
		p.Wallet,
		string(p.Mode),
		strconv.FormatBool(p.EnhancedUsed),
		strconv.FormatUint(p.DelegatedLamports, 10),
		lamportsToSOL(p.DelegatedLamports),
		strconv.FormatUint(p.StakeAccounts, 10),
		strconv.FormatUint(p.BalanceLamports, 10),
		lamportsToSOL(p.BalanceLamports),
		strconv.Itoa(p.TokenAccountsNonzero),
		strconv.Itoa(p.RecentSignatures),
		strconv.Itoa(p.RecentSwaps),
		formatFloat(p.LookbackDays),
		formatFloat(p.SwapsPerDay),
		lastSwap,
		lastSwapISO,
		p.SwapProgramsUsed,
		p.TopTokenMints,
		typeCounts,
		sourceCounts,
		summaries,
		strconv.FormatUint(p.FundingInLamports, 10),
		lamportsToSOL(p.FundingInLamports),
		strconv.FormatUint(p.FundingOutLamports, 10),
		lamportsToSOL(p.FundingOutLamports),
		sources,
		destinations,
	}, nil
}

// lamportsToSOL renders lamports as SOL without float rounding.
func lamportsToSOL(lamports uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -9).String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// jsonOr marshals v, substituting empty when v is a nil map or slice.
func jsonOr(v interface{}, empty string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return empty, nil
	}
	return string(b), nil
}
