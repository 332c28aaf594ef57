// Package classify detects swap activity in a wallet's sampled transactions
// and derives frequency statistics from it.
package classify

import (
	"math"
	"strings"

	"stake-wallet-profiler/internal/domain"
)

// TxSet is a wallet's transaction sample in one of the two acquisition shapes.
// Implementations are BaselineSet and EnhancedSet.
type TxSet interface {
	isTxSet()
}

// BaselineSet is transactions gathered through generic chain RPC.
// Txs holds every listed signature; only a prefix may have been fetched.
type BaselineSet struct {
	Txs      []domain.BaselineTx
	Programs map[string]string // known swap program id -> label
}

// EnhancedSet is pre-decoded transactions from the enhanced provider.
type EnhancedSet struct {
	Txs []domain.EnhancedTx
}

func (BaselineSet) isTxSet() {}
func (EnhancedSet) isTxSet() {}

// Result is the classifier output. Matches holds matched program ids for
// baseline sets and the swap source labels for enhanced sets.
type Result struct {
	Stats   domain.SwapStats
	Matches []string
}

// Classify counts swaps in set and computes the shared rate statistics.
func Classify(set TxSet) Result {
	switch s := set.(type) {
	case BaselineSet:
		return classifyBaseline(s)
	case *BaselineSet:
		return classifyBaseline(*s)
	case EnhancedSet:
		return classifyEnhanced(s)
	case *EnhancedSet:
		return classifyEnhanced(*s)
	default:
		return Result{}
	}
}

func classifyBaseline(s BaselineSet) Result {
	if len(s.Txs) == 0 {
		return Result{}
	}

	times := make([]int64, 0, len(s.Txs))
	for _, tx := range s.Txs {
		if tx.BlockTime != nil {
			times = append(times, *tx.BlockTime)
		}
	}

	var (
		swaps   int
		last    *int64
		matches []string
	)
	for _, tx := range s.Txs {
		if !tx.Fetched() {
			continue
		}
		matched := MatchPrograms(tx.AccountKeys, s.Programs)
		if len(matched) == 0 {
			continue
		}
		swaps++
		matches = append(matches, matched...)
		last = maxTime(last, tx.BlockTime)
	}

	return Result{
		Stats:   stats(len(s.Txs), swaps, times, last),
		Matches: matches,
	}
}

func classifyEnhanced(s EnhancedSet) Result {
	if len(s.Txs) == 0 {
		return Result{}
	}

	times := make([]int64, 0, len(s.Txs))
	for _, tx := range s.Txs {
		if tx.Timestamp != nil {
			times = append(times, *tx.Timestamp)
		}
	}

	var (
		swaps   int
		last    *int64
		sources []string
	)
	for _, tx := range s.Txs {
		if !IsSwap(tx) {
			continue
		}
		swaps++
		last = maxTime(last, tx.Timestamp)
		if tx.Source != "" {
			sources = append(sources, tx.Source)
		}
	}

	return Result{
		Stats:   stats(len(s.Txs), swaps, times, last),
		Matches: sources,
	}
}

func stats(signatures, swaps int, times []int64, last *int64) domain.SwapStats {
	days := LookbackDays(times)
	return domain.SwapStats{
		RecentSignatures: signatures,
		RecentSwaps:      swaps,
		LookbackDays:     days,
		SwapsPerDay:      SwapsPerDay(swaps, days),
		LastSwapTime:     last,
	}
}

// MatchPrograms returns the account keys present in programs, in key order.
// A key listed twice is reported twice.
func MatchPrograms(accountKeys []string, programs map[string]string) []string {
	var matched []string
	for _, key := range accountKeys {
		if _, ok := programs[key]; ok {
			matched = append(matched, key)
		}
	}
	return matched
}

// IsSwap applies the type/description heuristic to an enhanced transaction.
func IsSwap(tx domain.EnhancedTx) bool {
	if strings.EqualFold(tx.Type, "SWAP") {
		return true
	}
	return strings.Contains(" "+strings.ToLower(tx.Description)+" ", " swap ")
}

// LookbackDays returns the span of times in days, floored at one hour.
// Zero when times is empty.
func LookbackDays(times []int64) float64 {
	if len(times) == 0 {
		return 0
	}
	lo, hi := times[0], times[0]
	for _, t := range times[1:] {
		if t < lo {
			lo = t
		}
		if t > hi {
			hi = t
		}
	}
	return math.Max(float64(hi-lo)/86400, domain.MinLookbackDays)
}

// SwapsPerDay returns swaps/days, or 0 when days is not positive.
func SwapsPerDay(swaps int, days float64) float64 {
	if days <= 0 {
		return 0
	}
	return float64(swaps) / days
}

func maxTime(cur, t *int64) *int64 {
	if t == nil {
		return cur
	}
	if cur == nil || *t > *cur {
		v := *t
		return &v
	}
	return cur
}
