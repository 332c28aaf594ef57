package acquisition

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"stake-wallet-profiler/internal/domain"
	"stake-wallet-profiler/internal/solana"
)

// Baseline defaults.
const (
	DefaultSignaturesLimit = 200
	DefaultTxFetchLimit    = 80
)

// BaselineOptions configures Baseline.
type BaselineOptions struct {
	SignaturesLimit int // signatures listed per wallet
	TxFetchLimit    int // leading signatures whose bodies are fetched
	Logger          logrus.FieldLogger
}

// Baseline acquires wallet data through generic chain JSON-RPC.
type Baseline struct {
	rpc             solana.RPCClient
	signaturesLimit int
	txFetchLimit    int
	logger          logrus.FieldLogger
}

// NewBaseline creates a Baseline strategy backed by rpc.
func NewBaseline(rpc solana.RPCClient, opts BaselineOptions) *Baseline {
	if opts.SignaturesLimit <= 0 {
		opts.SignaturesLimit = DefaultSignaturesLimit
	}
	if opts.TxFetchLimit < 0 {
		opts.TxFetchLimit = 0
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Baseline{
		rpc:             rpc,
		signaturesLimit: opts.SignaturesLimit,
		txFetchLimit:    opts.TxFetchLimit,
		logger:          opts.Logger.WithField("strategy", "baseline"),
	}
}

// Name implements Strategy.
func (b *Baseline) Name() string { return "baseline" }

// Enhanced implements Strategy.
func (b *Baseline) Enhanced() bool { return false }

// Acquire reads balance, holdings and the recent signature list, then fetches
// the bodies of the first TxFetchLimit signatures one at a time.
func (b *Baseline) Acquire(ctx context.Context, wallet string) (*WalletData, error) {
	start := time.Now()

	balance, holdings, err := readAccount(ctx, b.rpc, wallet)
	if err != nil {
		return nil, err
	}

	sigs, err := b.rpc.GetSignaturesForAddress(ctx, wallet, &solana.SignaturesOpts{Limit: b.signaturesLimit})
	if err != nil {
		return nil, fmt.Errorf("get signatures: %w", err)
	}

	txs := make([]domain.BaselineTx, 0, len(sigs))
	for i, sig := range sigs {
		tx := domain.BaselineTx{Signature: sig.Signature, BlockTime: sig.BlockTime}
		if i < b.txFetchLimit && sig.Signature != "" {
			tx.AccountKeys = b.fetchAccountKeys(ctx, sig.Signature)
		}
		txs = append(txs, tx)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.logger.WithFields(logrus.Fields{
		"wallet":     wallet,
		"signatures": len(sigs),
		"elapsed_s":  elapsed(start),
	}).Debug("acquired")

	return &WalletData{
		BalanceLamports: balance,
		Holdings:        holdings,
		Baseline:        txs,
	}, nil
}

// fetchAccountKeys returns nil when the body is unavailable.
// A failed fetch is treated as missing data.
func (b *Baseline) fetchAccountKeys(ctx context.Context, signature string) []string {
	tx, err := b.rpc.GetTransaction(ctx, signature)
	if err != nil {
		b.logger.WithError(err).WithField("signature", signature).Debug("transaction fetch failed")
		return nil
	}
	if tx == nil {
		return nil
	}
	if tx.Message == nil || tx.Message.AccountKeys == nil {
		return []string{}
	}
	return tx.Message.AccountKeys
}

var _ Strategy = (*Baseline)(nil)
