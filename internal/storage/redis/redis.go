// Package redis implements the profile cache and manifest on Redis.
// Profiles expire with the cache TTL, so a present key is always fresh.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key layout.
const (
	DefaultKeyPrefix  = "swp:"
	profileKeyPrefix  = "profile:"
	manifestWalletKey = "manifest:wallets"
	manifestHeaderKey = "manifest:header"
)

// Options configures the Redis connection.
type Options struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, opts Options) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:                  opts.Addr,
		Password:              opts.Password,
		DB:                    opts.DB,
		DialTimeout:           5 * time.Second,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ContextTimeoutEnabled: true,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return client, nil
}

func prefixOrDefault(prefix string) string {
	if prefix == "" {
		return DefaultKeyPrefix
	}
	return prefix
}
