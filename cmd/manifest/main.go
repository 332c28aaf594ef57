// Package main prints the checkpoint manifest of the profiler: every processed
// wallet, when its profile was cached and whether it is still fresh.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"stake-wallet-profiler/internal/checkpoint"
	"stake-wallet-profiler/internal/config"
	"stake-wallet-profiler/internal/domain"
	"stake-wallet-profiler/internal/storage"
	"stake-wallet-profiler/internal/storage/file"
	pgstore "stake-wallet-profiler/internal/storage/postgres"
	redisstore "stake-wallet-profiler/internal/storage/redis"
)

// entry is one manifest row as printed.
type entry struct {
	Wallet   string  `json:"wallet"`
	CachedAt float64 `json:"cached_at"`
	Cached   string  `json:"cached_at_iso"`
	AgeHours float64 `json:"age_hours"`
	Fresh    bool    `json:"fresh"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("manifest", flag.ContinueOnError)
	configPath := fs.String("config", "", "Optional YAML config file")
	outDir := fs.String("out-dir", "", "Profiler output directory (overrides config)")
	postgresDSN := fs.String("postgres-dsn", "", "Read the manifest from PostgreSQL")
	redisAddr := fs.String("redis-addr", "", "Read the manifest from Redis")
	ttlHours := fs.Float64("cache-ttl-hours", -1, "Freshness TTL in hours (default from config)")
	staleOnly := fs.Bool("stale", false, "Only list wallets whose profile is stale")
	asJSON := fs.Bool("json", false, "Print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *outDir != "" {
		cfg.OutDir = *outDir
	}
	if *postgresDSN != "" {
		cfg.Storage.PostgresDSN = *postgresDSN
	}
	if *redisAddr != "" {
		cfg.Storage.RedisAddr = *redisAddr
	}
	if *ttlHours >= 0 {
		cfg.Cache.TTLHours = *ttlHours
	}

	ctx := context.Background()
	store, closeStore, err := openManifestStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeStore()

	m, err := store.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintln(os.Stderr, "No manifest found.")
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	entries := buildEntries(m, cfg.Cache.TTLHours, time.Now(), *staleOnly)
	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	printTable(out, m, entries, cfg.Cache.TTLHours)
	return 0
}

func openManifestStore(ctx context.Context, cfg *config.Config) (storage.ManifestStore, func(), error) {
	switch {
	case cfg.Storage.PostgresDSN != "":
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return pgstore.NewManifestStore(pool), pool.Close, nil

	case cfg.Storage.RedisAddr != "":
		client, err := redisstore.NewClient(ctx, redisstore.Options{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return redisstore.NewManifestStore(client, cfg.Storage.RedisPrefix), func() { _ = client.Close() }, nil

	default:
		store, err := file.NewManifestStore(cfg.OutDir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

// buildEntries lists manifest wallets, most recently cached first.
func buildEntries(m *domain.Manifest, ttlHours float64, now time.Time, staleOnly bool) []entry {
	entries := make([]entry, 0, len(m.ProcessedWallets))
	for wallet, cachedAt := range m.ProcessedWallets {
		fresh := checkpoint.IsFresh(cachedAt, ttlHours, now)
		if staleOnly && fresh {
			continue
		}
		e := entry{
			Wallet:   wallet,
			CachedAt: float64(cachedAt),
			Fresh:    fresh,
		}
		if cachedAt > 0 {
			e.Cached = cachedAt.Time().UTC().Format(time.RFC3339)
			e.AgeHours = now.Sub(cachedAt.Time()).Hours()
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CachedAt != entries[j].CachedAt {
			return entries[i].CachedAt > entries[j].CachedAt
		}
		return entries[i].Wallet < entries[j].Wallet
	})
	return entries
}

func printTable(out io.Writer, m *domain.Manifest, entries []entry, ttlHours float64) {
	fresh := 0
	for _, e := range entries {
		if e.Fresh {
			fresh++
		}
	}

	fmt.Fprintf(out, "Manifest updated %s", m.UpdatedAt.Time().UTC().Format(time.RFC3339))
	if m.RunID != "" {
		fmt.Fprintf(out, " (run %s)", m.RunID)
	}
	fmt.Fprintf(out, "\n%d wallets listed, %d fresh under a %.1fh TTL\n\n", len(entries), fresh, ttlHours)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WALLET\tCACHED AT\tAGE (h)\tFRESH")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%t\n", e.Wallet, e.Cached, e.AgeHours, e.Fresh)
	}
	w.Flush()
}
