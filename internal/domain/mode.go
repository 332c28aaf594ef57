package domain

import "fmt"

// AggregationMode selects which stake authority a delegation row is attributed to.
type AggregationMode string

const (
	ModeStaker     AggregationMode = "staker"
	ModeWithdrawer AggregationMode = "withdrawer"
	ModeBoth       AggregationMode = "both"
)

// String returns the string representation of AggregationMode.
func (m AggregationMode) String() string {
	return string(m)
}

// IsValid checks if the mode is a valid value.
func (m AggregationMode) IsValid() bool {
	return m == ModeStaker || m == ModeWithdrawer || m == ModeBoth
}

// CountsStaker reports whether rows contribute to the staker authority.
func (m AggregationMode) CountsStaker() bool {
	return m == ModeStaker || m == ModeBoth
}

// CountsWithdrawer reports whether rows contribute to the withdraw authority.
func (m AggregationMode) CountsWithdrawer() bool {
	return m == ModeWithdrawer || m == ModeBoth
}

// ParseAggregationMode parses a mode name.
func ParseAggregationMode(s string) (AggregationMode, error) {
	m := AggregationMode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("invalid aggregation mode %q (want staker, withdrawer or both)", s)
	}
	return m, nil
}

// TokenAccountsFilter is the enhanced provider's token-account touch policy.
type TokenAccountsFilter string

const (
	TokenAccountsNone           TokenAccountsFilter = "none"
	TokenAccountsBalanceChanged TokenAccountsFilter = "balanceChanged"
	TokenAccountsAll            TokenAccountsFilter = "all"
)

// IsValid checks if the filter is a valid value.
func (f TokenAccountsFilter) IsValid() bool {
	return f == TokenAccountsNone || f == TokenAccountsBalanceChanged || f == TokenAccountsAll
}
