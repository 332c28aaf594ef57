package memory

import (
	"context"
	"encoding/json"
	"sync"

	"stake-wallet-profiler/internal/domain"
	"stake-wallet-profiler/internal/storage"
)

// ProfileCache is an in-memory implementation of storage.ProfileCache.
type ProfileCache struct {
	mu   sync.RWMutex
	data map[string][]byte // keyed by wallet, JSON encoded
}

// NewProfileCache creates a new in-memory profile cache.
func NewProfileCache() *ProfileCache {
	return &ProfileCache{
		data: make(map[string][]byte),
	}
}

var _ storage.ProfileCache = (*ProfileCache)(nil)

// Get returns a copy of the cached profile. Returns ErrNotFound if absent.
func (c *ProfileCache) Get(_ context.Context, wallet string) (*domain.WalletProfile, error) {
	if err := storage.ValidateWallet(wallet); err != nil {
		return nil, err
	}

	c.mu.RLock()
	raw, exists := c.data[wallet]
	c.mu.RUnlock()
	if !exists {
		return nil, storage.ErrNotFound
	}

	var p domain.WalletProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, storage.ErrCorrupt
	}
	return &p, nil
}

// Put replaces the cached profile. The profile is stored encoded so later
// mutation by the caller cannot leak into the cache.
func (c *ProfileCache) Put(_ context.Context, p *domain.WalletProfile) error {
	if p == nil {
		return storage.ErrInvalidInput
	}
	if err := storage.ValidateWallet(p.Wallet); err != nil {
		return err
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[p.Wallet] = raw
	return nil
}

// Len returns the number of cached wallets.
func (c *ProfileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
