// Package config loads profiler settings from defaults, an optional YAML
// file, the environment and finally command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"stake-wallet-profiler/internal/checkpoint"
	"stake-wallet-profiler/internal/domain"
	"stake-wallet-profiler/internal/helius"
	"stake-wallet-profiler/internal/labels"
	"stake-wallet-profiler/internal/logging"
	"stake-wallet-profiler/internal/solana"
)

// ErrConflictingModes is returned when force-refresh and cache-only are both set.
var ErrConflictingModes = checkpoint.ErrConflictingModes

// Config aggregates all profiler settings.
type Config struct {
	InputDir    string         `yaml:"input_dir"`
	OutDir      string         `yaml:"out_dir"`
	Mode        string         `yaml:"mode"`
	TopN        int            `yaml:"top_n"`
	AllWallets  bool           `yaml:"all_wallets"`
	Delay       time.Duration  `yaml:"delay"`
	MetricsAddr string         `yaml:"metrics_addr"`
	Cache       CacheConfig    `yaml:"cache"`
	RPC         RPCConfig      `yaml:"rpc"`
	Helius      HeliusConfig   `yaml:"helius"`
	Labels      LabelsConfig   `yaml:"labels"`
	Output      OutputConfig   `yaml:"output"`
	Storage     StorageConfig  `yaml:"storage"`
	Logging     logging.Config `yaml:"logging"`
}

// CacheConfig controls profile reuse and checkpointing.
type CacheConfig struct {
	TTLHours      float64 `yaml:"ttl_hours"`
	ForceRefresh  bool    `yaml:"force_refresh"`
	CacheOnly     bool    `yaml:"cache_only"`
	ManifestEvery int     `yaml:"manifest_every"`
}

// RPCConfig configures the baseline JSON-RPC provider.
type RPCConfig struct {
	URL             string        `yaml:"url"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxRetries      int           `yaml:"max_retries"`
	SignaturesLimit int           `yaml:"signatures_limit"`
	TxFetchLimit    int           `yaml:"tx_fetch_limit"`
}

// HeliusConfig configures the enhanced provider. An empty APIKey selects the baseline provider.
type HeliusConfig struct {
	APIKey         string        `yaml:"api_key"`
	RPCBase        string        `yaml:"rpc_base"`
	ParseURL       string        `yaml:"parse_url"`
	Timeout        time.Duration `yaml:"timeout"`
	TxLimit        int           `yaml:"tx_limit"`
	LookbackDays   int           `yaml:"lookback_days"`
	StrictLastN    bool          `yaml:"strict_last_n"`
	TokenAccounts  string        `yaml:"token_accounts"`
	ParseCacheSize int           `yaml:"parse_cache_size"`
}

// LabelsConfig configures the swap program label service.
type LabelsConfig struct {
	JupiterURL string        `yaml:"jupiter_url"`
	Timeout    time.Duration `yaml:"timeout"`
	Disabled   bool          `yaml:"disabled"`
}

// OutputConfig controls bulk exports written after the run.
type OutputConfig struct {
	Materialize bool   `yaml:"materialize"`
	Formats     string `yaml:"formats"`
	BucketURL   string `yaml:"bucket_url"` // defaults to file://<out_dir>
	Prefix      string `yaml:"prefix"`
}

// StorageConfig selects optional storage backends. Empty values disable them.
type StorageConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`
	// RedisRetentionHours bounds how long Redis keeps a profile. Zero keeps it
	// until overwritten. Freshness is still decided by cache.ttl_hours.
	RedisRetentionHours float64 `yaml:"redis_retention_hours"`
	ClickHouseDSN string `yaml:"clickhouse_dsn"`
	Neo4jURI      string `yaml:"neo4j_uri"`
	Neo4jDatabase string `yaml:"neo4j_database"`
	Neo4jUsername string `yaml:"neo4j_username"`
	Neo4jPassword string `yaml:"neo4j_password"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		InputDir: "output/stake",
		OutDir:   "output/profiles",
		Mode:     string(domain.ModeStaker),
		TopN:     25,
		Delay:    150 * time.Millisecond,
		Cache: CacheConfig{
			TTLHours:      24,
			ManifestEvery: 25,
		},
		RPC: RPCConfig{
			URL:             solana.MainnetEndpoint,
			Timeout:         solana.DefaultTimeout,
			SignaturesLimit: 200,
			TxFetchLimit:    80,
		},
		Helius: HeliusConfig{
			RPCBase:        helius.DefaultRPCBase,
			ParseURL:       helius.DefaultParseURL,
			Timeout:        helius.DefaultTimeout,
			TxLimit:        100,
			LookbackDays:   30,
			TokenAccounts:  string(domain.TokenAccountsBalanceChanged),
			ParseCacheSize: helius.DefaultParseCacheSize,
		},
		Labels: LabelsConfig{
			JupiterURL: labels.DefaultJupiterURL,
			Timeout:    labels.DefaultTimeout,
		},
		Output: OutputConfig{
			Materialize: true,
			Formats:     "json,csv",
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load returns Default overlaid with the YAML file at path (if any) and the
// environment. ${VAR} references in the file are expanded first.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv() error {
	setString(&c.Helius.APIKey, "HELIUS_API_KEY")
	setString(&c.RPC.URL, "SOLANA_RPC_URL")
	setString(&c.InputDir, "PROFILER_INPUT_DIR")
	setString(&c.OutDir, "PROFILER_OUT_DIR")
	setString(&c.Storage.PostgresDSN, "PROFILER_POSTGRES_DSN")
	setString(&c.Storage.RedisAddr, "PROFILER_REDIS_ADDR")
	setString(&c.Storage.RedisPassword, "PROFILER_REDIS_PASSWORD")
	setString(&c.Storage.ClickHouseDSN, "PROFILER_CLICKHOUSE_DSN")
	setString(&c.Storage.Neo4jURI, "PROFILER_NEO4J_URI")
	setString(&c.Storage.Neo4jUsername, "PROFILER_NEO4J_USERNAME")
	setString(&c.Storage.Neo4jPassword, "PROFILER_NEO4J_PASSWORD")
	setString(&c.Output.BucketURL, "PROFILER_EXPORT_BUCKET")
	setString(&c.MetricsAddr, "PROFILER_METRICS_ADDR")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")

	if v := os.Getenv("PROFILER_CACHE_TTL_HOURS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("PROFILER_CACHE_TTL_HOURS: %w", err)
		}
		c.Cache.TTLHours = f
	}
	if v := os.Getenv("PROFILER_REDIS_RETENTION_HOURS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("PROFILER_REDIS_RETENTION_HOURS: %w", err)
		}
		c.Storage.RedisRetentionHours = f
	}
	if v := os.Getenv("PROFILER_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PROFILER_REDIS_DB: %w", err)
		}
		c.Storage.RedisDB = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks option ranges and combinations.
func (c *Config) Validate() error {
	var errs []string

	if _, err := domain.ParseAggregationMode(c.Mode); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Cache.ForceRefresh && c.Cache.CacheOnly {
		return ErrConflictingModes
	}
	if c.InputDir == "" {
		errs = append(errs, "input_dir is required")
	}
	if c.OutDir == "" {
		errs = append(errs, "out_dir is required")
	}
	if c.Cache.ManifestEvery < 0 {
		errs = append(errs, "cache.manifest_every must be >= 0")
	}
	if c.Delay < 0 {
		errs = append(errs, "delay must be >= 0")
	}
	if c.RPC.SignaturesLimit <= 0 || c.RPC.SignaturesLimit > 1000 {
		errs = append(errs, "rpc.signatures_limit must be in 1..1000")
	}
	if c.RPC.TxFetchLimit < 0 {
		errs = append(errs, "rpc.tx_fetch_limit must be >= 0")
	}
	if c.Helius.TxLimit <= 0 {
		errs = append(errs, "helius.tx_limit must be > 0")
	}
	if !domain.TokenAccountsFilter(c.Helius.TokenAccounts).IsValid() {
		errs = append(errs, fmt.Sprintf("helius.token_accounts %q must be none, balanceChanged or all", c.Helius.TokenAccounts))
	}
	if c.Storage.RedisRetentionHours < 0 {
		errs = append(errs, "storage.redis_retention_hours must be >= 0")
	}
	if c.Output.Materialize && c.Output.Formats == "" {
		errs = append(errs, "output.formats is required when materializing")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// AggregationMode returns the parsed mode. Call after Validate.
func (c *Config) AggregationMode() domain.AggregationMode {
	return domain.AggregationMode(c.Mode)
}

// CacheMode returns the checkpoint mode selected by the cache switches.
func (c *Config) CacheMode() (checkpoint.Mode, error) {
	return checkpoint.ModeFromFlags(c.Cache.ForceRefresh, c.Cache.CacheOnly)
}

// EnhancedEnabled reports whether a Helius API key is configured.
func (c *Config) EnhancedEnabled() bool {
	return helius.ParseAPIKey(c.Helius.APIKey) != ""
}

// CacheTTL returns the cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLHours * float64(time.Hour))
}

// RedisRetention returns how long Redis keeps a cached profile. Zero means no expiry.
func (c *Config) RedisRetention() time.Duration {
	return time.Duration(c.Storage.RedisRetentionHours * float64(time.Hour))
}

// ExportBucketURL returns the configured bucket or a file:// URL for OutDir.
func (c *Config) ExportBucketURL() (string, error) {
	if c.Output.BucketURL != "" {
		return c.Output.BucketURL, nil
	}
	if err := os.MkdirAll(c.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("create out dir: %w", err)
	}
	abs, err := filepath.Abs(c.OutDir)
	if err != nil {
		return "", fmt.Errorf("resolve out dir: %w", err)
	}
	return "file://" + filepath.ToSlash(abs), nil
}
