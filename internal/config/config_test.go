package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.EnhancedEnabled())
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL())
	assert.Equal(t, 25, cfg.Cache.ManifestEvery)
	assert.Equal(t, 150*time.Millisecond, cfg.Delay)
}

func TestValidate_ConflictingModes(t *testing.T) {
	cfg := Default()
	cfg.Cache.ForceRefresh = true
	cfg.Cache.CacheOnly = true
	assert.True(t, errors.Is(cfg.Validate(), ErrConflictingModes))
}

func TestValidate_Errors(t *testing.T) {
	cfg := Default()
	cfg.Mode = "delegator"
	cfg.Helius.TokenAccounts = "some"
	cfg.RPC.SignaturesLimit = 0
	cfg.Storage.RedisRetentionHours = -1

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "invalid aggregation mode")
	assert.Contains(t, msg, "token_accounts")
	assert.Contains(t, msg, "signatures_limit")
	assert.Contains(t, msg, "redis_retention_hours")
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiler.yaml")
	yaml := `
mode: both
top_n: 10
delay: 50ms
cache:
  ttl_hours: 6
  manifest_every: 5
helius:
  api_key: ${TEST_PROFILER_KEY}
  token_accounts: all
storage:
  redis_addr: localhost:6379
  redis_retention_hours: 168
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("TEST_PROFILER_KEY", "https://mainnet.helius-rpc.com/?api-key=abc123")
	t.Setenv("PROFILER_CACHE_TTL_HOURS", "12")
	t.Setenv("PROFILER_REDIS_ADDR", "redis:6380")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "both", cfg.Mode)
	assert.Equal(t, 10, cfg.TopN)
	assert.Equal(t, 50*time.Millisecond, cfg.Delay)
	assert.Equal(t, 5, cfg.Cache.ManifestEvery)
	assert.Equal(t, 12.0, cfg.Cache.TTLHours, "environment overrides file")
	assert.Equal(t, "redis:6380", cfg.Storage.RedisAddr)
	assert.Equal(t, 168*time.Hour, cfg.RedisRetention(), "retention is independent of the cache TTL")
	assert.Equal(t, 12*time.Hour, cfg.CacheTTL())
	assert.Equal(t, "all", cfg.Helius.TokenAccounts)
	assert.True(t, cfg.EnhancedEnabled())
	// Unset fields keep defaults.
	assert.Equal(t, 200, cfg.RPC.SignaturesLimit)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("PROFILER_CACHE_TTL_HOURS", "soon")
	_, err := Load("")
	require.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TEST_DOTENV_VALUE=from-file\n"), 0o644))
	t.Setenv("TEST_DOTENV_VALUE", "")
	os.Unsetenv("TEST_DOTENV_VALUE")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("TEST_DOTENV_VALUE"))
}

func TestExportBucketURL(t *testing.T) {
	cfg := Default()
	cfg.OutDir = filepath.Join(t.TempDir(), "out")

	url, err := cfg.ExportBucketURL()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "file://"))

	cfg.Output.BucketURL = "s3://bucket"
	url, err = cfg.ExportBucketURL()
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket", url)
}
