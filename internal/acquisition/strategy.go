// Package acquisition gathers the on-chain facts a wallet profile is built from.
// Two strategies exist: Baseline reads everything through generic JSON-RPC,
// Enhanced uses the Helius history and parse APIs for transactions.
package acquisition

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"stake-wallet-profiler/internal/classify"
	"stake-wallet-profiler/internal/config"
	"stake-wallet-profiler/internal/domain"
	"stake-wallet-profiler/internal/helius"
	"stake-wallet-profiler/internal/solana"
)

// Strategy acquires the raw data for one wallet.
// Implementations return errors and never panic.
type Strategy interface {
	Name() string
	Enhanced() bool
	Acquire(ctx context.Context, wallet string) (*WalletData, error)
}

// WalletData is everything a strategy learned about a wallet.
type WalletData struct {
	EnhancedUsed    bool
	BalanceLamports uint64
	Holdings        []domain.TokenHolding // non-zero, largest first

	// Baseline holds one entry per listed signature. Only a prefix is fetched.
	Baseline []domain.BaselineTx

	// Enhanced holds every parsed transaction in the window.
	Enhanced []domain.EnhancedTx
	// Signed is the wallet-initiated subset of Enhanced.
	Signed []domain.EnhancedTx
}

// TxSet returns the classifier input for d. programs is only used for
// baseline data.
func (d *WalletData) TxSet(programs map[string]string) classify.TxSet {
	if d.EnhancedUsed {
		return classify.EnhancedSet{Txs: d.Signed}
	}
	return classify.BaselineSet{Txs: d.Baseline, Programs: programs}
}

// NewStrategy picks the strategy for a run: Enhanced when a Helius key is
// configured, Baseline otherwise.
func NewStrategy(cfg *config.Config, logger logrus.FieldLogger) (Strategy, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	if key := helius.ParseAPIKey(cfg.Helius.APIKey); key != "" {
		opts := []helius.Option{
			helius.WithParseCacheSize(cfg.Helius.ParseCacheSize),
			helius.WithLogger(logger),
		}
		if cfg.Helius.RPCBase != "" {
			opts = append(opts, helius.WithRPCBase(cfg.Helius.RPCBase))
		}
		if cfg.Helius.ParseURL != "" {
			opts = append(opts, helius.WithParseURL(cfg.Helius.ParseURL))
		}
		if cfg.Helius.Timeout > 0 {
			opts = append(opts, helius.WithTimeout(cfg.Helius.Timeout))
		}
		client, err := helius.NewClient(key, opts...)
		if err != nil {
			return nil, fmt.Errorf("create helius client: %w", err)
		}
		return NewEnhanced(client, client.RPC(), EnhancedOptions{
			TxLimit:       cfg.Helius.TxLimit,
			LookbackDays:  cfg.Helius.LookbackDays,
			StrictLastN:   cfg.Helius.StrictLastN,
			TokenAccounts: domain.TokenAccountsFilter(cfg.Helius.TokenAccounts),
			Logger:        logger,
		}), nil
	}

	endpoint := cfg.RPC.URL
	if endpoint == "" {
		endpoint = solana.MainnetEndpoint
	}
	timeout := cfg.RPC.Timeout
	if timeout <= 0 {
		timeout = solana.DefaultTimeout
	}
	rpc := solana.NewHTTPClient(endpoint,
		solana.WithTimeout(timeout),
		solana.WithMaxRetries(cfg.RPC.MaxRetries),
	)
	logger.WithField("endpoint", rpc.Endpoint()).Info("no helius key configured; using baseline strategy")
	return NewBaseline(rpc, BaselineOptions{
		SignaturesLimit: cfg.RPC.SignaturesLimit,
		TxFetchLimit:    cfg.RPC.TxFetchLimit,
		Logger:          logger,
	}), nil
}

// readAccount fetches the native balance and non-zero token holdings
// across both token programs.
func readAccount(ctx context.Context, rpc solana.RPCClient, wallet string) (uint64, []domain.TokenHolding, error) {
	balance, err := rpc.GetBalance(ctx, wallet)
	if err != nil {
		return 0, nil, fmt.Errorf("get balance: %w", err)
	}

	var accounts []solana.TokenAccount
	for _, program := range solana.TokenPrograms {
		accs, err := rpc.GetTokenAccountsByOwner(ctx, wallet, program)
		if err != nil {
			return 0, nil, fmt.Errorf("get token accounts (%s): %w", program, err)
		}
		accounts = append(accounts, accs...)
	}

	return balance, Holdings(accounts), nil
}

func elapsed(start time.Time) float64 {
	return time.Since(start).Seconds()
}
