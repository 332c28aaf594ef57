package profiler

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"stake-wallet-profiler/internal/acquisition"
	"stake-wallet-profiler/internal/checkpoint"
	"stake-wallet-profiler/internal/domain"
	"stake-wallet-profiler/internal/observability"
	"stake-wallet-profiler/internal/storage"
)

// DefaultDelay is the pause after every wallet that hit the network.
const DefaultDelay = 150 * time.Millisecond

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Strategy   acquisition.Strategy
	Checkpoint *checkpoint.Run       // must already be loaded
	ProfileLog storage.ProfileLog    // optional
	Sinks      []storage.ProfileSink // receive fresh profiles after the loop
	Programs   map[string]string     // swap program id -> label
	Mode       domain.AggregationMode
	Delay      time.Duration // negative disables the pause
	Logger     logrus.FieldLogger
	Now        func() time.Time
}

// Runner profiles wallets one at a time, reusing fresh cache entries and
// checkpointing progress so an interrupted run can resume.
type Runner struct {
	strategy acquisition.Strategy
	cp       *checkpoint.Run
	log      storage.ProfileLog
	sinks    []storage.ProfileSink
	programs map[string]string
	mode     domain.AggregationMode
	delay    time.Duration
	logger   logrus.FieldLogger
	now      func() time.Time
}

// RunResult summarises a run.
type RunResult struct {
	Profiles    []*domain.WalletProfile // cache hits and fresh profiles, in wallet order
	Fresh       []*domain.WalletProfile // profiles built during this run
	CacheHits   int
	Fetched     int
	Skipped     int
	Failed      int
	Interrupted bool
}

// NewRunner creates a new profiling runner.
func NewRunner(opts RunnerOptions) *Runner {
	delay := opts.Delay
	if delay == 0 {
		delay = DefaultDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	mode := opts.Mode
	if mode == "" {
		mode = domain.ModeStaker
	}

	return &Runner{
		strategy: opts.Strategy,
		cp:       opts.Checkpoint,
		log:      opts.ProfileLog,
		sinks:    opts.Sinks,
		programs: opts.Programs,
		mode:     mode,
		delay:    delay,
		logger:   logger.WithField("component", "profiler"),
		now:      now,
	}
}

// Run profiles wallets in order. Per-wallet failures are logged and counted.
// The manifest is flushed at the end even when ctx is cancelled, in which
// case the partial result is returned together with ctx.Err().
func (r *Runner) Run(ctx context.Context, wallets []domain.AuthorityTotals) (*RunResult, error) {
	res := &RunResult{}
	total := len(wallets)
	observability.SetWalletsSelected(total)

	for i, w := range wallets {
		idx := i + 1
		if ctx.Err() != nil {
			res.Interrupted = true
			break
		}
		logger := r.logger.WithFields(logrus.Fields{
			"wallet":   w.Wallet,
			"progress": progress(idx, total),
		})

		if cached, ok := r.cp.Lookup(ctx, w.Wallet); ok {
			res.CacheHits++
			res.Profiles = append(res.Profiles, cached)
			r.cp.Record(w.Wallet, cached.CachedAt)
			r.cp.MaybeFlush(ctx, idx)
			observability.RecordWallet(observability.OutcomeCacheHit)
			logger.Info("using cache")
			continue
		}

		if r.cp.Mode() == checkpoint.ModeCacheOnly {
			res.Skipped++
			observability.RecordWallet(observability.OutcomeSkipped)
			logger.Info("cache miss, skipping in cache-only mode")
			continue
		}

		logger.WithField("delegated_sol", domain.LamportsToSOL(w.DelegatedLamports)).Info("profiling")
		p, err := r.profile(ctx, w)
		if err != nil {
			res.Failed++
			observability.RecordWallet(observability.OutcomeFailed)
			logger.WithError(err).Error("profiling failed")
		} else {
			res.Fetched++
			res.Profiles = append(res.Profiles, p)
			res.Fresh = append(res.Fresh, p)
			observability.RecordWallet(observability.OutcomeFetched)
			r.persist(ctx, p)
		}
		r.cp.MaybeFlush(ctx, idx)

		if idx < total && !r.sleep(ctx) {
			res.Interrupted = true
			break
		}
	}

	// Finish bookkeeping even after an interrupt.
	final := context.WithoutCancel(ctx)
	_ = r.cp.Flush(final)
	r.writeSinks(final, res.Fresh)

	r.logger.WithFields(logrus.Fields{
		"cache_hits": res.CacheHits,
		"fetched":    res.Fetched,
		"skipped":    res.Skipped,
		"failed":     res.Failed,
	}).Info("run finished")

	if res.Interrupted {
		return res, ctx.Err()
	}
	return res, nil
}

func (r *Runner) profile(ctx context.Context, w domain.AuthorityTotals) (*domain.WalletProfile, error) {
	start := time.Now()
	data, err := r.strategy.Acquire(ctx, w.Wallet)
	if err != nil {
		return nil, err
	}
	observability.RecordProfileDuration(r.strategy.Name(), time.Since(start).Seconds())
	return Assemble(w, r.mode, data, r.programs, r.now()), nil
}

// persist writes a fresh profile to the cache, the manifest and the log.
func (r *Runner) persist(ctx context.Context, p *domain.WalletProfile) {
	r.cp.Store(ctx, p)
	r.cp.Record(p.Wallet, p.CachedAt)
	if r.log == nil {
		return
	}
	if err := r.log.Append(ctx, p); err != nil {
		r.logger.WithError(err).WithField("wallet", p.Wallet).Warn("profile log append failed")
		observability.RecordStorageError("log", "append")
	}
}

func (r *Runner) writeSinks(ctx context.Context, profiles []*domain.WalletProfile) {
	if len(profiles) == 0 {
		return
	}
	for _, sink := range r.sinks {
		err := sink.Write(ctx, profiles)
		observability.RecordSinkWrite(sink.Name(), err)
		if err != nil {
			r.logger.WithError(err).WithField("sink", sink.Name()).Warn("sink write failed")
			continue
		}
		r.logger.WithFields(logrus.Fields{
			"sink":     sink.Name(),
			"profiles": len(profiles),
		}).Info("sink written")
	}
}

// sleep waits for the configured delay. It returns false if ctx ends first.
func (r *Runner) sleep(ctx context.Context) bool {
	if r.delay <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(r.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func progress(i, n int) string {
	return fmt.Sprintf("%d/%d", i, n)
}
