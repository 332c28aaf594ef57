package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"stake-wallet-profiler/internal/domain"
	"stake-wallet-profiler/internal/storage"
)

// ProfileCache stores profiles as JSON strings under <prefix>profile:<wallet>.
// It does not judge freshness; callers compare cached_at against their own TTL.
type ProfileCache struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
}

// NewProfileCache creates a Redis-backed cache. Keys expire retention after
// each Put; zero keeps them until overwritten.
func NewProfileCache(client redis.UniversalClient, prefix string, retention time.Duration) *ProfileCache {
	if retention < 0 {
		retention = 0
	}
	return &ProfileCache{
		client:    client,
		prefix:    prefixOrDefault(prefix),
		retention: retention,
	}
}

var _ storage.ProfileCache = (*ProfileCache)(nil)

func (c *ProfileCache) key(wallet string) string {
	return c.prefix + profileKeyPrefix + wallet
}

// Get returns the cached profile, or ErrNotFound if the key is absent.
func (c *ProfileCache) Get(ctx context.Context, wallet string) (*domain.WalletProfile, error) {
	if err := storage.ValidateWallet(wallet); err != nil {
		return nil, err
	}

	data, err := c.client.Get(ctx, c.key(wallet)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("redis get profile: %w", err)
	}

	var p domain.WalletProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: wallet %s: %v", storage.ErrCorrupt, wallet, err)
	}
	return &p, nil
}

// Put stores p, replacing any previous profile for the wallet.
func (c *ProfileCache) Put(ctx context.Context, p *domain.WalletProfile) error {
	if p == nil {
		return storage.ErrInvalidInput
	}
	if err := storage.ValidateWallet(p.Wallet); err != nil {
		return err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := c.client.Set(ctx, c.key(p.Wallet), data, c.retention).Err(); err != nil {
		return fmt.Errorf("redis set profile: %w", err)
	}
	return nil
}
