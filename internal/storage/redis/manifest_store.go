package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"stake-wallet-profiler/internal/domain"
	"stake-wallet-profiler/internal/storage"
)

// ManifestStore keeps processed wallets in a hash (wallet -> cached_at) and
// the header fields in a second hash.
type ManifestStore struct {
	client redis.UniversalClient
	prefix string
}

// NewManifestStore creates a Redis-backed manifest store.
func NewManifestStore(client redis.UniversalClient, prefix string) *ManifestStore {
	return &ManifestStore{client: client, prefix: prefixOrDefault(prefix)}
}

var _ storage.ManifestStore = (*ManifestStore)(nil)

// Load reads the manifest. Returns ErrNotFound if the header is absent.
func (s *ManifestStore) Load(ctx context.Context) (*domain.Manifest, error) {
	header, err := s.client.HGetAll(ctx, s.prefix+manifestHeaderKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis load manifest header: %w", err)
	}
	if len(header) == 0 {
		return nil, storage.ErrNotFound
	}

	updatedAt, err := strconv.ParseFloat(header["updated_at"], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: manifest updated_at %q", storage.ErrCorrupt, header["updated_at"])
	}

	wallets, err := s.client.HGetAll(ctx, s.prefix+manifestWalletKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis load manifest wallets: %w", err)
	}

	m := &domain.Manifest{
		ProcessedWallets: make(map[string]domain.UnixTime, len(wallets)),
		UpdatedAt:        domain.UnixTime(updatedAt),
		RunID:            header["run_id"],
	}
	for wallet, raw := range wallets {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			v = 0
		}
		m.ProcessedWallets[wallet] = domain.UnixTime(v)
	}
	return m, nil
}

// Save replaces the manifest atomically with MULTI/EXEC.
func (s *ManifestStore) Save(ctx context.Context, m *domain.Manifest) error {
	if m == nil {
		return storage.ErrInvalidInput
	}

	walletKey := s.prefix + manifestWalletKey
	headerKey := s.prefix + manifestHeaderKey

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, walletKey)
		if len(m.ProcessedWallets) > 0 {
			fields := make(map[string]interface{}, len(m.ProcessedWallets))
			for wallet, cachedAt := range m.ProcessedWallets {
				fields[wallet] = formatUnix(cachedAt)
			}
			pipe.HSet(ctx, walletKey, fields)
		}
		pipe.HSet(ctx, headerKey, map[string]interface{}{
			"updated_at": formatUnix(m.UpdatedAt),
			"run_id":     m.RunID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save manifest: %w", err)
	}
	return nil
}

func formatUnix(t domain.UnixTime) string {
	return strconv.FormatFloat(float64(t), 'f', -1, 64)
}
