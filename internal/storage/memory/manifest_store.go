package memory

import (
	"context"
	"sync"

	"stake-wallet-profiler/internal/domain"
	"stake-wallet-profiler/internal/storage"
)

// ManifestStore is an in-memory implementation of storage.ManifestStore.
type ManifestStore struct {
	mu       sync.RWMutex
	manifest *domain.Manifest
	saves    int
}

// NewManifestStore creates an empty in-memory manifest store.
func NewManifestStore() *ManifestStore {
	return &ManifestStore{}
}

var _ storage.ManifestStore = (*ManifestStore)(nil)

// Load returns a copy of the saved manifest. Returns ErrNotFound if nothing was saved.
func (s *ManifestStore) Load(_ context.Context) (*domain.Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.manifest == nil {
		return nil, storage.ErrNotFound
	}
	return s.manifest.Clone(), nil
}

// Save stores a copy of m.
func (s *ManifestStore) Save(_ context.Context, m *domain.Manifest) error {
	if m == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.manifest = m.Clone()
	s.saves++
	return nil
}

// Saves returns how many times Save succeeded.
func (s *ManifestStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
