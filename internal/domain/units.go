package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// LamportsToSOL converts lamports to SOL.
func LamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / LamportsPerSOL
}

// UnixTime is seconds since the Unix epoch with sub-second precision.
// Zero means unknown.
type UnixTime float64

// NewUnixTime converts t to UnixTime.
func NewUnixTime(t time.Time) UnixTime {
	return UnixTime(float64(t.UnixNano()) / 1e9)
}

// Time returns the corresponding time.Time. The zero UnixTime maps to the zero time.
func (t UnixTime) Time() time.Time {
	if t == 0 {
		return time.Time{}
	}
	sec, frac := math.Modf(float64(t))
	return time.Unix(int64(sec), int64(frac*1e9))
}

// UnmarshalJSON accepts numbers and numeric strings. Anything else decodes as zero
// instead of failing, so a damaged timestamp never makes a cache entry unreadable.
func (t *UnixTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*t = 0
			return nil
		}
		b = []byte(s)
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*t = 0
		return nil
	}
	*t = UnixTime(v)
	return nil
}

// ISOTime formats a unix-seconds timestamp as RFC3339 in UTC, or nil when absent.
func ISOTime(ts *int64) *string {
	if ts == nil {
		return nil
	}
	s := time.Unix(*ts, 0).UTC().Format(time.RFC3339)
	return &s
}
