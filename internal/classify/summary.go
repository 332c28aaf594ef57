package classify

import (
	"fmt"
	"sort"
	"strings"

	"stake-wallet-profiler/internal/domain"
)

// Summary limits.
const (
	MaxRecentSummaries = 25
	MaxSwapSources     = 8
	unknownLabel       = "UNKNOWN"
	defaultProgramName = "program"
)

// SummarizePrograms renders matched program ids as "label:id | ..." with
// each id once, sorted by id. Unlabelled ids use "program".
func SummarizePrograms(matches []string, labels map[string]string) string {
	if len(matches) == 0 {
		return ""
	}
	unique := make(map[string]struct{}, len(matches))
	for _, id := range matches {
		unique[id] = struct{}{}
	}
	ids := make([]string, 0, len(unique))
	for id := range unique {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	parts := make([]string, len(ids))
	for i, id := range ids {
		label := labels[id]
		if label == "" {
			label = defaultProgramName
		}
		parts[i] = label + ":" + id
	}
	return strings.Join(parts, " | ")
}

// SummarizeSources renders the most frequent swap sources as "src:count | ...".
// Equal counts keep first-seen order.
func SummarizeSources(sources []string) string {
	if len(sources) == 0 {
		return ""
	}

	counts := make(map[string]int)
	var order []string
	for _, s := range sources {
		if _, ok := counts[s]; !ok {
			order = append(order, s)
		}
		counts[s]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > MaxSwapSources {
		order = order[:MaxSwapSources]
	}

	parts := make([]string, len(order))
	for i, s := range order {
		parts[i] = fmt.Sprintf("%s:%d", s, counts[s])
	}
	return strings.Join(parts, " | ")
}

// Histograms is the type and source breakdown of an enhanced transaction set.
type Histograms struct {
	Types   map[string]int
	Sources map[string]int
	Recent  []domain.TxSummary
}

// Summarize counts transactions by type and source and returns up to limit
// summaries, newest first. Transactions without a timestamp sort last.
func Summarize(txs []domain.EnhancedTx, limit int) Histograms {
	h := Histograms{
		Types:   make(map[string]int),
		Sources: make(map[string]int),
		Recent:  []domain.TxSummary{},
	}

	sorted := make([]domain.EnhancedTx, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return timestampOrZero(sorted[i].Timestamp) > timestampOrZero(sorted[j].Timestamp)
	})

	for _, tx := range sorted {
		txType := orUnknown(tx.Type)
		source := orUnknown(tx.Source)
		h.Types[txType]++
		h.Sources[source]++

		if len(h.Recent) >= limit {
			continue
		}

		iso := ""
		if s := domain.ISOTime(tx.Timestamp); s != nil {
			iso = *s
		}
		h.Recent = append(h.Recent, domain.TxSummary{
			Signature:    tx.Signature,
			Timestamp:    tx.Timestamp,
			TimestampISO: iso,
			Slot:         tx.Slot,
			Type:         txType,
			Source:       source,
			Description:  tx.Description,
			Fee:          tx.Fee,
		})
	}
	return h
}

func orUnknown(s string) string {
	if s == "" {
		return unknownLabel
	}
	return s
}

func timestampOrZero(ts *int64) int64 {
	if ts == nil {
		return 0
	}
	return *ts
}
