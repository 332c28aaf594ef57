package domain

// TokenHolding is a non-zero token account owned by a wallet.
type TokenHolding struct {
	TokenAccount   string  `json:"token_account"`
	Mint           string  `json:"mint"`
	AmountUI       float64 `json:"amount_ui"`
	AmountUIString string  `json:"amount_ui_str"`
	Decimals       int     `json:"decimals"`
}
