package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stake-wallet-profiler/internal/domain"
	"stake-wallet-profiler/internal/storage"
)

// ProfileCache is a PostgreSQL implementation of storage.ProfileCache.
// Profiles live in wallet_profiles as JSONB keyed by wallet.
type ProfileCache struct {
	pool *Pool
}

// NewProfileCache creates a new PostgreSQL profile cache.
func NewProfileCache(pool *Pool) *ProfileCache {
	return &ProfileCache{pool: pool}
}

var _ storage.ProfileCache = (*ProfileCache)(nil)

// Get returns the cached profile. Returns ErrNotFound if absent.
func (c *ProfileCache) Get(ctx context.Context, wallet string) (_ *domain.WalletProfile, err error) {
	defer observe("profile_get", time.Now(), &err)
	if err := storage.ValidateWallet(wallet); err != nil {
		return nil, err
	}

	var raw []byte
	err = c.pool.QueryRow(ctx, `
		SELECT profile
		FROM wallet_profiles
		WHERE wallet = $1
	`, wallet).Scan(&raw)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("query wallet profile: %w", err)
	}

	var p domain.WalletProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: wallet %s: %v", storage.ErrCorrupt, wallet, err)
	}
	return &p, nil
}

// Put upserts the profile, replacing any earlier version.
func (c *ProfileCache) Put(ctx context.Context, p *domain.WalletProfile) (err error) {
	defer observe("profile_put", time.Now(), &err)
	if p == nil {
		return storage.ErrInvalidInput
	}
	if err := storage.ValidateWallet(p.Wallet); err != nil {
		return err
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal wallet profile: %w", err)
	}

	_, err = c.pool.Exec(ctx, `
		INSERT INTO wallet_profiles (wallet, mode, enhanced_used, cached_at, delegated_lamports, profile, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (wallet) DO UPDATE
		SET mode = EXCLUDED.mode,
		    enhanced_used = EXCLUDED.enhanced_used,
		    cached_at = EXCLUDED.cached_at,
		    delegated_lamports = EXCLUDED.delegated_lamports,
		    profile = EXCLUDED.profile,
		    updated_at = NOW()
	`, p.Wallet, string(p.Mode), p.EnhancedUsed, float64(p.CachedAt), int64(p.DelegatedLamports), raw)
	if err != nil {
		return fmt.Errorf("upsert wallet profile: %w", err)
	}
	return nil
}

// Count returns the number of cached profiles.
func (c *ProfileCache) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.pool.QueryRow(ctx, `SELECT COUNT(*) FROM wallet_profiles`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
