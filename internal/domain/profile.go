package domain

// WalletProfile is the unit of work and the unit of caching.
// A profile is never mutated after it is written; re-profiling replaces it.
type WalletProfile struct {
	Wallet       string          `json:"wallet"`
	Mode         AggregationMode `json:"mode"`
	EnhancedUsed bool            `json:"helius_used"`
	CachedAt     UnixTime        `json:"cached_at"`
	OnCurve      bool            `json:"on_curve"`

	DelegatedLamports uint64  `json:"delegated_lamports"`
	DelegatedSOL      float64 `json:"delegated_sol"`
	StakeAccounts     uint64  `json:"stake_accounts"`

	BalanceLamports      uint64         `json:"balance_lamports"`
	BalanceSOL           float64        `json:"balance_sol"`
	TokenAccountsNonzero int            `json:"token_accounts_nonzero"`
	Tokens               []TokenHolding `json:"tokens"`
	TopTokenMints        string         `json:"top_token_mints"`

	RecentSignatures int     `json:"recent_signatures"`
	RecentSwaps      int     `json:"recent_swaps_detected"`
	LookbackDays     float64 `json:"lookback_days"`
	SwapsPerDay      float64 `json:"swaps_per_day"`
	LastSwapTime     *int64  `json:"last_swap_time"`
	LastSwapTimeISO  *string `json:"last_swap_time_iso"`
	SwapProgramsUsed string  `json:"swap_programs_used"`

	TxTypeCounts      map[string]int `json:"tx_type_counts"`
	TxSourceCounts    map[string]int `json:"tx_source_counts"`
	RecentTxSummaries []TxSummary    `json:"recent_tx_summaries"`

	FundingInLamports      uint64         `json:"funding_in_lamports"`
	FundingInSOL           float64        `json:"funding_in_sol"`
	FundingOutLamports     uint64         `json:"funding_out_lamports"`
	FundingOutSOL          float64        `json:"funding_out_sol"`
	FundingSourcesTop      []Counterparty `json:"funding_sources_top"`
	FundingDestinationsTop []Counterparty `json:"funding_destinations_top"`
}

// Counterparty is a ranked native-currency flow partner.
type Counterparty struct {
	Address  string  `json:"address"`
	Lamports uint64  `json:"lamports"`
	SOL      float64 `json:"sol"`
}
