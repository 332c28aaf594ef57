package storage

import (
	"context"
	"strings"

	"stake-wallet-profiler/internal/domain"
)

// ProfileCache stores the latest profile per wallet.
type ProfileCache interface {
	// Get returns the cached profile. Returns ErrNotFound if absent and
	// ErrCorrupt if the entry cannot be decoded.
	Get(ctx context.Context, wallet string) (*domain.WalletProfile, error)

	// Put replaces the cached profile for p.Wallet.
	Put(ctx context.Context, p *domain.WalletProfile) error
}

// ManifestStore persists the run manifest.
type ManifestStore interface {
	// Load returns the stored manifest. Returns ErrNotFound if none was saved
	// and ErrCorrupt if it cannot be decoded.
	Load(ctx context.Context) (*domain.Manifest, error)

	// Save replaces the stored manifest.
	Save(ctx context.Context, m *domain.Manifest) error
}

// ProfileLog is an append-only record of freshly built profiles.
type ProfileLog interface {
	// Append adds one profile. Earlier entries are never rewritten.
	Append(ctx context.Context, p *domain.WalletProfile) error

	// Close flushes and releases the log.
	Close() error
}

// ProfileSink receives the profiles built during a run, after the run loop.
type ProfileSink interface {
	Name() string
	Write(ctx context.Context, profiles []*domain.WalletProfile) error
}

// ValidateWallet rejects wallet keys that cannot be used as a storage key.
func ValidateWallet(wallet string) error {
	if wallet == "" || strings.ContainsAny(wallet, `/\`) || wallet == "." || wallet == ".." {
		return ErrInvalidInput
	}
	return nil
}
