package domain

import "time"

// Manifest records which wallets have up-to-date profiles and when each was cached.
type Manifest struct {
	ProcessedWallets map[string]UnixTime `json:"processed_wallets"`
	UpdatedAt        UnixTime            `json:"updated_at"`
	RunID            string              `json:"run_id,omitempty"`
}

// NewManifest returns an empty manifest stamped with now.
func NewManifest(now time.Time) *Manifest {
	return &Manifest{
		ProcessedWallets: make(map[string]UnixTime),
		UpdatedAt:        NewUnixTime(now),
	}
}

// Clone returns a deep copy of m.
func (m *Manifest) Clone() *Manifest {
	if m == nil {
		return nil
	}
	c := &Manifest{
		ProcessedWallets: make(map[string]UnixTime, len(m.ProcessedWallets)),
		UpdatedAt:        m.UpdatedAt,
		RunID:            m.RunID,
	}
	for w, t := range m.ProcessedWallets {
		c.ProcessedWallets[w] = t
	}
	return c
}
