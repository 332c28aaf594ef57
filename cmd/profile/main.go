// Package main profiles the wallets that control the most delegated stake.
//
// Wallets are selected from stake account CSVs, enriched with balance, token,
// swap and funding data, cached per wallet and exported in bulk.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"stake-wallet-profiler/internal/acquisition"
	"stake-wallet-profiler/internal/authority"
	"stake-wallet-profiler/internal/checkpoint"
	"stake-wallet-profiler/internal/config"
	"stake-wallet-profiler/internal/domain"
	"stake-wallet-profiler/internal/export"
	"stake-wallet-profiler/internal/labels"
	"stake-wallet-profiler/internal/logging"
	"stake-wallet-profiler/internal/observability"
	"stake-wallet-profiler/internal/profiler"
)

const (
	exitOK          = 0
	exitError       = 1
	exitUsage       = 2
	exitInterrupted = 130
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	configPath := fs.String("config", "", "Optional YAML config file")
	envFile := fs.String("env-file", ".env", "Optional dotenv file")
	bindFlags(fs, config.Default())
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	if err := applyFlags(fs, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}

	logger := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, logger)
	}

	start := time.Now()
	code := profile(ctx, cfg, logger)

	status := "success"
	switch code {
	case exitInterrupted:
		status = "interrupted"
	case exitOK:
	default:
		status = "error"
	}
	observability.RecordRun(status, time.Since(start).Seconds(), float64(time.Now().Unix()))
	return code
}

func profile(ctx context.Context, cfg *config.Config, logger *logrus.Logger) int {
	mode := cfg.AggregationMode()
	cacheMode, err := cfg.CacheMode()
	if err != nil {
		logger.WithError(err).Error("invalid cache mode")
		return exitUsage
	}

	rows, err := authority.LoadDir(cfg.InputDir)
	if err != nil {
		logger.WithError(err).Error("cannot load stake data")
		return exitError
	}
	n := cfg.TopN
	if cfg.AllWallets {
		n = 0
	}
	selected := authority.Select(authority.Aggregate(rows, mode), n)

	var programs map[string]string
	if cfg.Labels.Disabled {
		programs = labels.Static()
	} else {
		programs = labels.Load(ctx, labels.NewJupiterSource(cfg.Labels.JupiterURL, cfg.Labels.Timeout), logger)
	}
	observability.SetSwapLabels(len(programs))

	strategy, err := acquisition.NewStrategy(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("cannot create acquisition strategy")
		return exitError
	}

	runID := uuid.NewString()
	logger.WithFields(logrus.Fields{
		"run_id":         runID,
		"stake_rows":     len(rows),
		"wallets":        len(selected),
		"swap_programs":  len(programs),
		"jupiter_loaded": len(programs) > len(labels.Static()),
		"source":         strategy.Name(),
		"cache_mode":     cacheMode,
		"cache_ttl":      cfg.CacheTTL(),
	}).Info("starting profiling run")

	b, err := openBackends(ctx, cfg, runID, logger)
	if err != nil {
		logger.WithError(err).Error("cannot open storage")
		return exitError
	}
	defer b.Close()

	cp := checkpoint.NewRun(checkpoint.Options{
		Cache:      b.cache,
		Manifest:   b.manifest,
		Mode:       cacheMode,
		TTLHours:   cfg.Cache.TTLHours,
		FlushEvery: cfg.Cache.ManifestEvery,
		RunID:      runID,
		Logger:     logger,
	})
	cp.Load(ctx)

	delay := cfg.Delay
	if delay == 0 {
		delay = -1
	}
	runner := profiler.NewRunner(profiler.RunnerOptions{
		Strategy:   strategy,
		Checkpoint: cp,
		ProfileLog: b.log,
		Sinks:      b.sinks,
		Programs:   programs,
		Mode:       mode,
		Delay:      delay,
		Logger:     logger,
	})

	res, runErr := runner.Run(ctx, selected)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.WithError(runErr).Error("run aborted")
	}

	if cfg.Output.Materialize {
		if err := materialize(context.WithoutCancel(ctx), cfg, res.Profiles, logger); err != nil {
			logger.WithError(err).Error("export failed")
			return exitError
		}
	} else {
		logger.Info("skipped bulk exports")
	}

	logger.WithFields(logrus.Fields{
		"profiles":   len(res.Profiles),
		"cache_hits": res.CacheHits,
		"fetched":    res.Fetched,
		"skipped":    res.Skipped,
		"failed":     res.Failed,
	}).Info("done")

	if res.Interrupted {
		return exitInterrupted
	}
	return exitOK
}

func materialize(ctx context.Context, cfg *config.Config, profiles []*domain.WalletProfile, logger logrus.FieldLogger) error {
	formats, err := export.ParseFormats(cfg.Output.Formats)
	if err != nil {
		return err
	}
	bucketURL, err := cfg.ExportBucketURL()
	if err != nil {
		return err
	}

	exp, err := export.Open(ctx, bucketURL, cfg.Output.Prefix, logger)
	if err != nil {
		return err
	}
	defer exp.Close()

	keys, err := exp.Export(ctx, profiles, formats)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"bucket": bucketURL,
		"keys":   keys,
	}).Info("wrote exports")
	return nil
}

func serveMetrics(addr string, logger logrus.FieldLogger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	logger.WithField("addr", addr).Info("metrics server listening")
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Error("metrics server failed")
	}
}
