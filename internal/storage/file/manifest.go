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

// ManifestStore keeps the manifest in a single JSON file.
type ManifestStore struct {
	path string
}

// NewManifestStore stores the manifest as outDir/checkpoint_manifest.json.
func NewManifestStore(outDir string) (*ManifestStore, error) {
	if err := os.MkdirAll(outDir, dirPermissions); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &ManifestStore{path: filepath.Join(outDir, ManifestName)}, nil
}

// Compile-time interface check.
var _ storage.ManifestStore = (*ManifestStore)(nil)

// Path returns the manifest file path.
func (s *ManifestStore) Path() string {
	return s.path
}

// Load reads the manifest file.
func (s *ManifestStore) Load(_ context.Context) (*domain.Manifest, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m domain.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: manifest: %v", storage.ErrCorrupt, err)
	}
	if m.ProcessedWallets == nil {
		m.ProcessedWallets = make(map[string]domain.UnixTime)
	}
	return &m, nil
}

// Save atomically replaces the manifest file.
func (s *ManifestStore) Save(_ context.Context, m *domain.Manifest) error {
	if m == nil {
		return storage.ErrInvalidInput
	}
	return writeJSONAtomic(s.path, m)
}
