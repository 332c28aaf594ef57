package profiler

import (
	"context"
	"errors"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stake-wallet-profiler/internal/acquisition"
	"stake-wallet-profiler/internal/checkpoint"
	"stake-wallet-profiler/internal/domain"
	"stake-wallet-profiler/internal/solana"
	"stake-wallet-profiler/internal/storage"
	"stake-wallet-profiler/internal/storage/memory"
)

const orca = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"

var testNow = time.Unix(1_700_000_000, 0)

func i64(v int64) *int64 { return &v }

func TestAssemble_Baseline(t *testing.T) {
	totals := domain.AuthorityTotals{Wallet: "W1", DelegatedLamports: 3_000_000_000, StakeAccounts: 2}
	data := &acquisition.WalletData{
		BalanceLamports: 500_000_000,
		Holdings:        []domain.TokenHolding{{Mint: "m1", AmountUI: 5}, {Mint: "m2", AmountUI: 1}},
		Baseline: []domain.BaselineTx{
			{Signature: "s1", BlockTime: i64(1_000_000), AccountKeys: []string{"W1", orca}},
			{Signature: "s2", BlockTime: i64(1_000_000 - 86400)},
		},
	}

	p := Assemble(totals, domain.ModeStaker, data, map[string]string{orca: "Orca"}, testNow)

	assert.Equal(t, "W1", p.Wallet)
	assert.Equal(t, domain.ModeStaker, p.Mode)
	assert.False(t, p.EnhancedUsed)
	assert.Equal(t, domain.NewUnixTime(testNow), p.CachedAt)
	assert.Equal(t, solana.IsOnCurve("W1"), p.OnCurve)
	assert.Equal(t, 3.0, p.DelegatedSOL)
	assert.Equal(t, uint64(2), p.StakeAccounts)
	assert.Equal(t, 0.5, p.BalanceSOL)
	assert.Equal(t, 2, p.TokenAccountsNonzero)
	assert.Equal(t, "m1,m2", p.TopTokenMints)

	assert.Equal(t, 2, p.RecentSignatures)
	assert.Equal(t, 1, p.RecentSwaps)
	assert.InDelta(t, 1.0, p.LookbackDays, 1e-9)
	assert.InDelta(t, 1.0, p.SwapsPerDay, 1e-9)
	require.NotNil(t, p.LastSwapTimeISO)
	assert.Equal(t, "1970-01-12T13:46:40Z", *p.LastSwapTimeISO)
	assert.Equal(t, "Orca:"+orca, p.SwapProgramsUsed)

	// Enhanced-only fields are present but empty.
	assert.NotNil(t, p.TxTypeCounts)
	assert.Empty(t, p.TxTypeCounts)
	assert.NotNil(t, p.RecentTxSummaries)
	assert.NotNil(t, p.FundingSourcesTop)
	assert.Zero(t, p.FundingInLamports)
}

func TestAssemble_Enhanced(t *testing.T) {
	swap := domain.EnhancedTx{Signature: "a", Type: "SWAP", Source: "JUPITER", FeePayer: "W1", Timestamp: i64(2000)}
	funded := domain.EnhancedTx{
		Signature: "b",
		Type:      "TRANSFER",
		FeePayer:  "F1",
		Timestamp: i64(1000),
		NativeTransfers: []domain.NativeTransfer{
			{From: "F1", To: "W1", Amount: 2_000_000_000},
		},
	}
	sent := domain.EnhancedTx{
		Signature: "c",
		Type:      "TRANSFER",
		FeePayer:  "W1",
		Timestamp: i64(1500),
		NativeTransfers: []domain.NativeTransfer{
			{From: "W1", To: "D1", Amount: 1_000_000_000},
		},
	}
	data := &acquisition.WalletData{
		EnhancedUsed: true,
		Enhanced:     []domain.EnhancedTx{swap, funded, sent},
		Signed:       []domain.EnhancedTx{swap, sent},
	}

	p := Assemble(domain.AuthorityTotals{Wallet: "W1"}, domain.ModeBoth, data, nil, testNow)

	assert.True(t, p.EnhancedUsed)
	assert.Equal(t, 2, p.RecentSignatures)
	assert.Equal(t, 1, p.RecentSwaps)
	assert.Equal(t, "JUPITER:1", p.SwapProgramsUsed)
	assert.Equal(t, map[string]int{"SWAP": 1, "TRANSFER": 1}, p.TxTypeCounts)
	require.Len(t, p.RecentTxSummaries, 2)
	assert.Equal(t, "a", p.RecentTxSummaries[0].Signature)

	// Funding sees the transaction the wallet did not sign.
	assert.Equal(t, uint64(2_000_000_000), p.FundingInLamports)
	assert.Equal(t, 2.0, p.FundingInSOL)
	assert.Equal(t, uint64(1_000_000_000), p.FundingOutLamports)
	require.Len(t, p.FundingSourcesTop, 1)
	assert.Equal(t, "F1", p.FundingSourcesTop[0].Address)
	require.Len(t, p.FundingDestinationsTop, 1)
	assert.Equal(t, "D1", p.FundingDestinationsTop[0].Address)
}

// fakeStrategy returns canned data per wallet.
type fakeStrategy struct {
	data   map[string]*acquisition.WalletData
	errs   map[string]error
	calls  []string
	onCall func(wallet string)
}

func (f *fakeStrategy) Name() string   { return "fake" }
func (f *fakeStrategy) Enhanced() bool { return false }

func (f *fakeStrategy) Acquire(_ context.Context, wallet string) (*acquisition.WalletData, error) {
	f.calls = append(f.calls, wallet)
	if f.onCall != nil {
		f.onCall(wallet)
	}
	if err := f.errs[wallet]; err != nil {
		return nil, err
	}
	if d, ok := f.data[wallet]; ok {
		return d, nil
	}
	return &acquisition.WalletData{}, nil
}

type recordingSink struct {
	name    string
	err     error
	written []string
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Write(_ context.Context, profiles []*domain.WalletProfile) error {
	for _, p := range profiles {
		s.written = append(s.written, p.Wallet)
	}
	return s.err
}

type fixture struct {
	cache    *memory.ProfileCache
	manifest *memory.ManifestStore
	log      *memory.ProfileLog
	strategy *fakeStrategy
}

func newFixture() *fixture {
	return &fixture{
		cache:    memory.NewProfileCache(),
		manifest: memory.NewManifestStore(),
		log:      memory.NewProfileLog(),
		strategy: &fakeStrategy{
			data: map[string]*acquisition.WalletData{},
			errs: map[string]error{},
		},
	}
}

func (f *fixture) runner(t *testing.T, mode checkpoint.Mode, flushEvery int, sinks ...*recordingSink) *Runner {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	clock := func() time.Time { return testNow }

	cp := checkpoint.NewRun(checkpoint.Options{
		Cache:      f.cache,
		Manifest:   f.manifest,
		Mode:       mode,
		TTLHours:   24,
		FlushEvery: flushEvery,
		RunID:      "run-1",
		Logger:     logger,
		Now:        clock,
	})
	cp.Load(context.Background())

	var ss []storage.ProfileSink
	for _, s := range sinks {
		ss = append(ss, s)
	}
	return NewRunner(RunnerOptions{
		Strategy:   f.strategy,
		Checkpoint: cp,
		ProfileLog: f.log,
		Sinks:      ss,
		Mode:       domain.ModeStaker,
		Delay:      -1,
		Logger:     logger,
		Now:        clock,
	})
}

func wallets(names ...string) []domain.AuthorityTotals {
	out := make([]domain.AuthorityTotals, len(names))
	for i, n := range names {
		out[i] = domain.AuthorityTotals{Wallet: n, DelegatedLamports: uint64(100 - i), StakeAccounts: 1}
	}
	return out
}

func cachedProfile(wallet string, age time.Duration) *domain.WalletProfile {
	return &domain.WalletProfile{Wallet: wallet, CachedAt: domain.NewUnixTime(testNow.Add(-age))}
}

func TestRunner_MixedOutcomes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.cache.Put(ctx, cachedProfile("A", time.Hour)))
	require.NoError(t, f.cache.Put(ctx, cachedProfile("B", 48*time.Hour)))
	f.strategy.errs["C"] = errors.New("rpc timeout")

	sink := &recordingSink{name: "rec"}
	res, err := f.runner(t, checkpoint.ModeNormal, 2, sink).Run(ctx, wallets("A", "B", "C", "D"))
	require.NoError(t, err)

	assert.Equal(t, 1, res.CacheHits)
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 1, res.Failed)
	assert.Zero(t, res.Skipped)
	assert.False(t, res.Interrupted)

	assert.Equal(t, []string{"B", "C", "D"}, f.strategy.calls)
	require.Len(t, res.Profiles, 3)
	assert.Equal(t, "A", res.Profiles[0].Wallet)
	assert.Equal(t, "B", res.Profiles[1].Wallet)
	assert.Equal(t, "D", res.Profiles[2].Wallet)
	require.Len(t, res.Fresh, 2)

	// The log and the sinks only see fresh profiles.
	assert.Equal(t, []string{"B", "D"}, f.log.Wallets())
	assert.Equal(t, []string{"B", "D"}, sink.written)

	m, err := f.manifest.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, m.ProcessedWallets, 3)
	assert.NotContains(t, m.ProcessedWallets, "C")
	assert.Equal(t, domain.NewUnixTime(testNow.Add(-time.Hour)), m.ProcessedWallets["A"])
	assert.Equal(t, "run-1", m.RunID)

	// Flushes at 2 and 4, then the final flush.
	assert.Equal(t, 3, f.manifest.Saves())

	fresh, err := f.cache.Get(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, domain.NewUnixTime(testNow), fresh.CachedAt)
}

func TestRunner_Resume(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.runner(t, checkpoint.ModeNormal, 25).Run(ctx, wallets("A", "B"))
	require.NoError(t, err)
	require.Len(t, f.strategy.calls, 2)

	f.strategy.calls = nil
	res, err := f.runner(t, checkpoint.ModeNormal, 25).Run(ctx, wallets("A", "B", "C"))
	require.NoError(t, err)

	assert.Equal(t, []string{"C"}, f.strategy.calls)
	assert.Equal(t, 2, res.CacheHits)
	assert.Equal(t, 1, res.Fetched)
	assert.Len(t, res.Profiles, 3)
}

func TestRunner_ForceRefresh(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.cache.Put(ctx, cachedProfile("A", time.Minute)))

	res, err := f.runner(t, checkpoint.ModeForceRefresh, 0).Run(ctx, wallets("A"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, f.strategy.calls)
	assert.Zero(t, res.CacheHits)
	assert.Equal(t, 1, res.Fetched)
}

func TestRunner_CacheOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.cache.Put(ctx, cachedProfile("A", time.Hour)))
	require.NoError(t, f.cache.Put(ctx, cachedProfile("B", 72*time.Hour)))

	res, err := f.runner(t, checkpoint.ModeCacheOnly, 0).Run(ctx, wallets("A", "B", "C"))
	require.NoError(t, err)

	assert.Empty(t, f.strategy.calls)
	assert.Equal(t, 1, res.CacheHits)
	assert.Equal(t, 2, res.Skipped)
	assert.Empty(t, f.log.Wallets())

	m, err := f.manifest.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, keys(m.ProcessedWallets))
}

func TestRunner_InterruptFlushesManifest(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.strategy.onCall = func(wallet string) {
		if wallet == "B" {
			cancel()
		}
	}

	res, err := f.runner(t, checkpoint.ModeNormal, 0).Run(ctx, wallets("A", "B", "C"))
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, res.Interrupted)
	assert.Equal(t, []string{"A", "B"}, f.strategy.calls)

	m, err := f.manifest.Load(context.Background())
	require.NoError(t, err)
	assert.Contains(t, m.ProcessedWallets, "A")
	assert.NotContains(t, m.ProcessedWallets, "C")
	assert.Equal(t, 1, f.manifest.Saves())
}

func TestRunner_SinkFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	bad := &recordingSink{name: "bad", err: errors.New("down")}
	good := &recordingSink{name: "good"}

	res, err := f.runner(t, checkpoint.ModeNormal, 0, bad, good).Run(context.Background(), wallets("A"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Fetched)
	assert.Equal(t, []string{"A"}, good.written)
}

func TestRunner_DelayHonoursContext(t *testing.T) {
	f := newFixture()
	logger, _ := logtest.NewNullLogger()
	cp := checkpoint.NewRun(checkpoint.Options{
		Cache:    f.cache,
		Manifest: f.manifest,
		TTLHours: 24,
		Logger:   logger,
	})
	cp.Load(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	r := NewRunner(RunnerOptions{
		Strategy:   f.strategy,
		Checkpoint: cp,
		Delay:      time.Hour,
		Logger:     logger.WithField("test", true),
	})

	start := time.Now()
	res, err := r.Run(ctx, wallets("A", "B"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Equal(t, 1, res.Fetched)
	assert.True(t, res.Interrupted)
}

func keys(m map[string]domain.UnixTime) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
