package domain

// MinLookbackDays is the smallest lookback window (one hour) used for rate math.
const MinLookbackDays = 1.0 / 24.0

// SwapStats summarises swap frequency over a sampled transaction set.
type SwapStats struct {
	RecentSignatures int
	RecentSwaps      int
	LookbackDays     float64
	SwapsPerDay      float64
	LastSwapTime     *int64 // Unix seconds of the newest matched swap
}
