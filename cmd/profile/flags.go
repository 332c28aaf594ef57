package main

import (
	"flag"
	"strconv"

	"stake-wallet-profiler/internal/config"
)

// invertedBool is a boolean flag that stores the negation of its value.
type invertedBool struct{ p *bool }

func (b invertedBool) String() string {
	if b.p == nil {
		return "false"
	}
	return strconv.FormatBool(!*b.p)
}

func (b invertedBool) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*b.p = !v
	return nil
}

func (b invertedBool) IsBoolFlag() bool { return true }

// bindFlags registers every config override on fs, bound to cfg.
func bindFlags(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.InputDir, "input-dir", cfg.InputDir, "Directory with *.stake_accounts.csv files")
	fs.StringVar(&cfg.OutDir, "out-dir", cfg.OutDir, "Output directory for cache, manifest, log and exports")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "Authorities to aggregate: staker, withdrawer or both")
	fs.IntVar(&cfg.TopN, "top-n", cfg.TopN, "Number of wallets to profile, ranked by delegated stake")
	fs.BoolVar(&cfg.AllWallets, "all-wallets", cfg.AllWallets, "Profile every wallet instead of the top N")
	fs.DurationVar(&cfg.Delay, "delay", cfg.Delay, "Pause after each wallet that hits the network")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Prometheus metrics HTTP address (empty to disable)")

	fs.Float64Var(&cfg.Cache.TTLHours, "cache-ttl-hours", cfg.Cache.TTLHours, "Reuse cached profiles newer than this many hours")
	fs.BoolVar(&cfg.Cache.ForceRefresh, "force-refresh", cfg.Cache.ForceRefresh, "Ignore the cache and re-profile every wallet")
	fs.BoolVar(&cfg.Cache.CacheOnly, "cache-only", cfg.Cache.CacheOnly, "Never call the network; skip wallets without a fresh cache entry")
	fs.IntVar(&cfg.Cache.ManifestEvery, "manifest-every", cfg.Cache.ManifestEvery, "Write the checkpoint manifest every N wallets")

	fs.StringVar(&cfg.RPC.URL, "rpc-url", cfg.RPC.URL, "Solana JSON-RPC endpoint for the baseline provider")
	fs.IntVar(&cfg.RPC.SignaturesLimit, "signatures-limit", cfg.RPC.SignaturesLimit, "Signatures listed per wallet (baseline)")
	fs.IntVar(&cfg.RPC.TxFetchLimit, "tx-fetch-limit", cfg.RPC.TxFetchLimit, "Transactions fetched per wallet (baseline)")

	fs.StringVar(&cfg.Helius.APIKey, "helius-api-key", cfg.Helius.APIKey, "Helius API key or URL containing api-key=")
	fs.IntVar(&cfg.Helius.TxLimit, "helius-tx-limit", cfg.Helius.TxLimit, "Transactions parsed per wallet (max 100)")
	fs.IntVar(&cfg.Helius.LookbackDays, "helius-lookback-days", cfg.Helius.LookbackDays, "History window in days (0 disables)")
	fs.BoolVar(&cfg.Helius.StrictLastN, "helius-strict-last-n", cfg.Helius.StrictLastN, "Take the newest N transactions regardless of age")
	fs.StringVar(&cfg.Helius.TokenAccounts, "helius-token-accounts", cfg.Helius.TokenAccounts, "Token account filter: none, balanceChanged or all")

	fs.BoolVar(&cfg.Labels.Disabled, "no-labels", cfg.Labels.Disabled, "Skip the Jupiter label lookup")

	fs.Var(invertedBool{&cfg.Output.Materialize}, "no-materialize-output", "Skip writing the bulk exports")
	fs.StringVar(&cfg.Output.Formats, "formats", cfg.Output.Formats, "Export formats: json, json.zst, csv, parquet")
	fs.StringVar(&cfg.Output.BucketURL, "export-bucket", cfg.Output.BucketURL, "Export destination bucket URL (default file://<out-dir>)")
	fs.StringVar(&cfg.Output.Prefix, "export-prefix", cfg.Output.Prefix, "Key prefix inside the export bucket")

	fs.StringVar(&cfg.Storage.PostgresDSN, "postgres-dsn", cfg.Storage.PostgresDSN, "PostgreSQL DSN for the profile cache and manifest")
	fs.StringVar(&cfg.Storage.RedisAddr, "redis-addr", cfg.Storage.RedisAddr, "Redis address for the profile cache and manifest")
	fs.Float64Var(&cfg.Storage.RedisRetentionHours, "redis-retention-hours", cfg.Storage.RedisRetentionHours, "Expire Redis profile keys after this many hours (0 keeps them)")
	fs.StringVar(&cfg.Storage.ClickHouseDSN, "clickhouse-dsn", cfg.Storage.ClickHouseDSN, "ClickHouse DSN for the profile sink")
	fs.StringVar(&cfg.Storage.Neo4jURI, "neo4j-uri", cfg.Storage.Neo4jURI, "Neo4j URI for the funding graph sink")

	fs.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.Logging.Format, "log-format", cfg.Logging.Format, "Log format: text or json")
}

// applyFlags copies the flags explicitly set on parsed onto cfg.
func applyFlags(parsed *flag.FlagSet, cfg *config.Config) error {
	target := flag.NewFlagSet(parsed.Name(), flag.ContinueOnError)
	bindFlags(target, cfg)

	var err error
	parsed.Visit(func(f *flag.Flag) {
		if err != nil || target.Lookup(f.Name) == nil {
			return
		}
		err = target.Set(f.Name, f.Value.String())
	})
	return err
}
