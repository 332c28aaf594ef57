package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"stake-wallet-profiler/internal/domain"
	"stake-wallet-profiler/internal/storage"
)

// ManifestStore is a PostgreSQL implementation of storage.ManifestStore.
// Uses two tables:
//   - profile_manifest: one row per processed wallet
//   - profile_manifest_header: single row with updated_at and run_id
type ManifestStore struct {
	pool *Pool
}

// NewManifestStore creates a new PostgreSQL manifest store.
func NewManifestStore(pool *Pool) *ManifestStore {
	return &ManifestStore{pool: pool}
}

var _ storage.ManifestStore = (*ManifestStore)(nil)

// Load reads the manifest. Returns ErrNotFound if it was never saved.
func (s *ManifestStore) Load(ctx context.Context) (_ *domain.Manifest, err error) {
	defer observe("manifest_load", time.Now(), &err)
	m := &domain.Manifest{ProcessedWallets: make(map[string]domain.UnixTime)}

	var updatedAt float64
	err = s.pool.QueryRow(ctx, `
		SELECT updated_at, run_id
		FROM profile_manifest_header
		WHERE id = 1
	`).Scan(&updatedAt, &m.RunID)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("query manifest header: %w", err)
	}
	m.UpdatedAt = domain.UnixTime(updatedAt)

	rows, err := s.pool.Query(ctx, `SELECT wallet, cached_at FROM profile_manifest`)
	if err != nil {
		return nil, fmt.Errorf("query manifest wallets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var wallet string
		var cachedAt float64
		if err := rows.Scan(&wallet, &cachedAt); err != nil {
			return nil, fmt.Errorf("scan manifest wallet: %w", err)
		}
		m.ProcessedWallets[wallet] = domain.UnixTime(cachedAt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate manifest wallets: %w", err)
	}

	return m, nil
}

// Save replaces the stored manifest in one transaction.
func (s *ManifestStore) Save(ctx context.Context, m *domain.Manifest) (err error) {
	defer observe("manifest_save", time.Now(), &err)
	if m == nil {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin manifest tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM profile_manifest`); err != nil {
		return fmt.Errorf("clear manifest: %w", err)
	}

	rows := make([][]interface{}, 0, len(m.ProcessedWallets))
	for wallet, cachedAt := range m.ProcessedWallets {
		rows = append(rows, []interface{}{wallet, float64(cachedAt)})
	}
	if len(rows) > 0 {
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"profile_manifest"},
			[]string{"wallet", "cached_at"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("copy manifest wallets: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO profile_manifest_header (id, updated_at, run_id)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE
		SET updated_at = EXCLUDED.updated_at,
		    run_id = EXCLUDED.run_id
	`, float64(m.UpdatedAt), m.RunID)
	if err != nil {
		return fmt.Errorf("upsert manifest header: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit manifest: %w", err)
	}
	return nil
}
