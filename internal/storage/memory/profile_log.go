package memory

import (
	"context"
	"sync"

	"stake-wallet-profiler/internal/domain"
	"stake-wallet-profiler/internal/storage"
)

// ProfileLog is an in-memory implementation of storage.ProfileLog.
type ProfileLog struct {
	mu      sync.RWMutex
	entries []domain.WalletProfile
	closed  bool
}

// NewProfileLog creates an empty in-memory log.
func NewProfileLog() *ProfileLog {
	return &ProfileLog{}
}

var _ storage.ProfileLog = (*ProfileLog)(nil)

// Append records a shallow copy of p.
func (l *ProfileLog) Append(_ context.Context, p *domain.WalletProfile) error {
	if p == nil {
		return storage.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return storage.ErrClosed
	}
	l.entries = append(l.entries, *p)
	return nil
}

// Close marks the log closed.
func (l *ProfileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

// Wallets returns logged wallets in append order.
func (l *ProfileLog) Wallets() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]string, len(l.entries))
	for i := range l.entries {
		out[i] = l.entries[i].Wallet
	}
	return out
}
