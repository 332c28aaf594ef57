// Package checkpoint decides cache reuse and keeps the run manifest.
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"stake-wallet-profiler/internal/domain"
	"stake-wallet-profiler/internal/observability"
	"stake-wallet-profiler/internal/storage"
)

// ErrConflictingModes is returned when force-refresh and cache-only are combined.
var ErrConflictingModes = errors.New("force-refresh and cache-only are mutually exclusive")

// Mode controls how cached profiles are used.
type Mode string

const (
	// ModeNormal reuses fresh cached profiles and fetches the rest.
	ModeNormal Mode = "normal"
	// ModeForceRefresh ignores the cache and fetches every wallet.
	ModeForceRefresh Mode = "force-refresh"
	// ModeCacheOnly never fetches; wallets without a fresh profile are skipped.
	ModeCacheOnly Mode = "cache-only"
)

// ModeFromFlags maps the two command-line switches to a Mode.
func ModeFromFlags(forceRefresh, cacheOnly bool) (Mode, error) {
	switch {
	case forceRefresh && cacheOnly:
		return "", ErrConflictingModes
	case forceRefresh:
		return ModeForceRefresh, nil
	case cacheOnly:
		return ModeCacheOnly, nil
	default:
		return ModeNormal, nil
	}
}

// IsFresh reports whether a profile cached at cachedAt is still within ttlHours at now.
// A missing or non-positive timestamp is never fresh. The boundary age counts as fresh.
func IsFresh(cachedAt domain.UnixTime, ttlHours float64, now time.Time) bool {
	if cachedAt <= 0 {
		return false
	}
	age := float64(domain.NewUnixTime(now)) - float64(cachedAt)
	if age < 0 {
		age = 0
	}
	return age <= ttlHours*3600
}

// Options configures a Run.
type Options struct {
	Cache      storage.ProfileCache
	Manifest   storage.ManifestStore
	Mode       Mode
	TTLHours   float64
	FlushEvery int // 0 disables periodic flushes; the final flush always happens
	RunID      string
	Logger     logrus.FieldLogger
	Now        func() time.Time
}

// Run owns the manifest and cache decisions for one profiling run.
// It is not safe for concurrent use.
type Run struct {
	cache      storage.ProfileCache
	store      storage.ManifestStore
	mode       Mode
	ttlHours   float64
	flushEvery int
	runID      string
	logger     logrus.FieldLogger
	now        func() time.Time

	manifest *domain.Manifest
}

// NewRun creates a Run. Call Load before use.
func NewRun(opts Options) *Run {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Mode == "" {
		opts.Mode = ModeNormal
	}
	return &Run{
		cache:      opts.Cache,
		store:      opts.Manifest,
		mode:       opts.Mode,
		ttlHours:   opts.TTLHours,
		flushEvery: opts.FlushEvery,
		runID:      opts.RunID,
		logger:     opts.Logger.WithField("component", "checkpoint"),
		now:        opts.Now,
	}
}

// Mode returns the cache mode of the run.
func (r *Run) Mode() Mode {
	return r.mode
}

// Load reads the stored manifest. A missing or unreadable manifest starts
// the run with an empty one.
func (r *Run) Load(ctx context.Context) {
	m, err := r.store.Load(ctx)
	switch {
	case err == nil:
		r.logger.WithField("wallets", len(m.ProcessedWallets)).Info("resuming from manifest")
	case errors.Is(err, storage.ErrNotFound):
		m = nil
	default:
		r.logger.WithError(err).Warn("manifest unreadable, starting fresh")
		observability.RecordStorageError("manifest", "load")
		m = nil
	}

	if m == nil {
		m = domain.NewManifest(r.now())
	}
	if m.ProcessedWallets == nil {
		m.ProcessedWallets = make(map[string]domain.UnixTime)
	}
	m.RunID = r.runID
	r.manifest = m
}

// Manifest returns a copy of the in-memory manifest.
func (r *Run) Manifest() *domain.Manifest {
	return r.manifest.Clone()
}

// Lookup returns a fresh cached profile for wallet. Force-refresh runs always miss.
// Cache read failures are logged and treated as misses.
func (r *Run) Lookup(ctx context.Context, wallet string) (*domain.WalletProfile, bool) {
	if r.mode == ModeForceRefresh {
		return nil, false
	}

	p, err := r.cache.Get(ctx, wallet)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case errors.Is(err, storage.ErrCorrupt):
			r.logger.WithError(err).WithField("wallet", wallet).Warn("ignoring corrupt cache entry")
		default:
			r.logger.WithError(err).WithField("wallet", wallet).Warn("cache read failed")
			observability.RecordStorageError("cache", "get")
		}
		return nil, false
	}

	if !IsFresh(p.CachedAt, r.ttlHours, r.now()) {
		return nil, false
	}
	return p, true
}

// Store writes p to the cache. Failures are logged, never returned.
func (r *Run) Store(ctx context.Context, p *domain.WalletProfile) {
	if err := r.cache.Put(ctx, p); err != nil {
		r.logger.WithError(err).WithField("wallet", p.Wallet).Warn("cache write failed")
		observability.RecordStorageError("cache", "put")
	}
}

// Record marks wallet as processed with the given cache timestamp.
func (r *Run) Record(wallet string, cachedAt domain.UnixTime) {
	if cachedAt <= 0 {
		cachedAt = domain.NewUnixTime(r.now())
	}
	r.manifest.ProcessedWallets[wallet] = cachedAt
	r.manifest.UpdatedAt = domain.NewUnixTime(r.now())
}

// MaybeFlush flushes when i (1-based) is a multiple of the flush interval.
func (r *Run) MaybeFlush(ctx context.Context, i int) {
	if r.flushEvery > 0 && i%r.flushEvery == 0 {
		_ = r.Flush(ctx)
	}
}

// Flush persists the manifest. The error is logged and also returned.
func (r *Run) Flush(ctx context.Context) error {
	err := r.store.Save(ctx, r.manifest.Clone())
	observability.RecordManifestFlush(len(r.manifest.ProcessedWallets), err)
	if err != nil {
		r.logger.WithError(err).Warn("manifest flush failed")
		return fmt.Errorf("flush manifest: %w", err)
	}
	return nil
}
