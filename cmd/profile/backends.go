package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"stake-wallet-profiler/internal/config"
	"stake-wallet-profiler/internal/graph"
	"stake-wallet-profiler/internal/storage"
	chstore "stake-wallet-profiler/internal/storage/clickhouse"
	"stake-wallet-profiler/internal/storage/file"
	"stake-wallet-profiler/internal/storage/migrations"
	pgstore "stake-wallet-profiler/internal/storage/postgres"
	redisstore "stake-wallet-profiler/internal/storage/redis"
)

// backends holds the storage selected for a run and the closers for it.
type backends struct {
	cache    storage.ProfileCache
	manifest storage.ManifestStore
	log      storage.ProfileLog
	sinks    []storage.ProfileSink
	closers  []func()
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackends selects the cache and manifest store (PostgreSQL, then Redis,
// then files), opens the JSONL log and connects the optional sinks.
// Sink connection failures disable the sink; they are not fatal.
func openBackends(ctx context.Context, cfg *config.Config, runID string, logger logrus.FieldLogger) (*backends, error) {
	b := &backends{}

	switch {
	case cfg.Storage.PostgresDSN != "":
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			b.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		b.cache = pgstore.NewProfileCache(pool)
		b.manifest = pgstore.NewManifestStore(pool)
		logger.Info("profile cache: postgres")

	case cfg.Storage.RedisAddr != "":
		client, err := redisstore.NewClient(ctx, redisstore.Options{
			Addr:      cfg.Storage.RedisAddr,
			Password:  cfg.Storage.RedisPassword,
			DB:        cfg.Storage.RedisDB,
			KeyPrefix: cfg.Storage.RedisPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		b.closers = append(b.closers, func() { _ = client.Close() })
		b.cache = redisstore.NewProfileCache(client, cfg.Storage.RedisPrefix, cfg.RedisRetention())
		b.manifest = redisstore.NewManifestStore(client, cfg.Storage.RedisPrefix)
		logger.Info("profile cache: redis")

	default:
		cache, err := file.NewProfileCache(cfg.OutDir)
		if err != nil {
			return nil, err
		}
		manifest, err := file.NewManifestStore(cfg.OutDir)
		if err != nil {
			return nil, err
		}
		b.cache = cache
		b.manifest = manifest
		logger.WithField("dir", cache.Dir()).Info("profile cache: files")
	}

	log, err := file.OpenProfileLog(cfg.OutDir)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.log = log
	b.closers = append(b.closers, func() {
		if err := log.Close(); err != nil {
			logger.WithError(err).Warn("close profile log")
		}
	})

	if dsn := cfg.Storage.ClickHouseDSN; dsn != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
		if err != nil {
			logger.WithError(err).Warn("clickhouse sink disabled")
		} else {
			b.closers = append(b.closers, func() { _ = conn.Close() })
			b.sinks = append(b.sinks, chstore.NewProfileSink(conn, runID))
		}
	}

	if uri := cfg.Storage.Neo4jURI; uri != "" {
		client, err := graph.NewNeo4jClient(ctx, graph.Options{
			URI:      uri,
			Database: cfg.Storage.Neo4jDatabase,
			Username: cfg.Storage.Neo4jUsername,
			Password: cfg.Storage.Neo4jPassword,
		})
		if err != nil {
			logger.WithError(err).Warn("neo4j sink disabled")
		} else {
			b.closers = append(b.closers, func() { _ = client.Close(context.Background()) })
			b.sinks = append(b.sinks, graph.NewFundingSink(client))
		}
	}

	return b, nil
}
