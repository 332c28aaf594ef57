package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"stake-wallet-profiler/internal/domain"
	"stake-wallet-profiler/internal/storage"
)

// ProfileCache stores profiles as <dir>/<wallet>.json.
type ProfileCache struct {
	dir string
}

// NewProfileCache creates the cache directory under outDir.
func NewProfileCache(outDir string) (*ProfileCache, error) {
	dir := filepath.Join(outDir, CacheDirName)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &ProfileCache{dir: dir}, nil
}

// Compile-time interface check.
var _ storage.ProfileCache = (*ProfileCache)(nil)

// Dir returns the cache directory.
func (c *ProfileCache) Dir() string {
	return c.dir
}

func (c *ProfileCache) path(wallet string) string {
	return filepath.Join(c.dir, wallet+".json")
}

// Get reads the cached profile for wallet.
func (c *ProfileCache) Get(_ context.Context, wallet string) (*domain.WalletProfile, error) {
	if err := storage.ValidateWallet(wallet); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(c.path(wallet))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("read cached profile: %w", err)
	}

	var p domain.WalletProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", storage.ErrCorrupt, filepath.Base(c.path(wallet)), err)
	}
	return &p, nil
}

// Put atomically replaces the cached profile.
func (c *ProfileCache) Put(_ context.Context, p *domain.WalletProfile) error {
	if p == nil {
		return storage.ErrInvalidInput
	}
	if err := storage.ValidateWallet(p.Wallet); err != nil {
		return err
	}
	return writeJSONAtomic(c.path(p.Wallet), p)
}
