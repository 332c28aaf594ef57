package acquisition

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"stake-wallet-profiler/internal/domain"
	"stake-wallet-profiler/internal/helius"
	"stake-wallet-profiler/internal/solana"
)

// Enhanced defaults.
const (
	DefaultTxLimit      = 100
	DefaultLookbackDays = 30
)

const secondsPerDay = 86400

// HistoryClient is the part of the Helius client Enhanced needs.
type HistoryClient interface {
	GetSignaturesForAddress(ctx context.Context, wallet string, opts helius.HistoryOpts) ([]solana.SignatureInfo, error)
	ParseTransactions(ctx context.Context, signatures []string) ([]domain.EnhancedTx, error)
}

// EnhancedOptions configures Enhanced.
type EnhancedOptions struct {
	TxLimit       int // capped at helius.MaxParseBatch
	LookbackDays  int // <= 0 disables the time window
	StrictLastN   bool
	TokenAccounts domain.TokenAccountsFilter
	Logger        logrus.FieldLogger
	Now           func() time.Time
}

// Enhanced acquires wallet data through the Helius enhanced APIs.
// Balance and holdings still use standard JSON-RPC reads.
type Enhanced struct {
	history HistoryClient
	rpc     solana.RPCClient
	opts    EnhancedOptions
	logger  logrus.FieldLogger
}

// NewEnhanced creates an Enhanced strategy.
func NewEnhanced(history HistoryClient, rpc solana.RPCClient, opts EnhancedOptions) *Enhanced {
	if opts.TxLimit <= 0 || opts.TxLimit > helius.MaxParseBatch {
		opts.TxLimit = helius.MaxParseBatch
	}
	if opts.TokenAccounts == "" {
		opts.TokenAccounts = domain.TokenAccountsBalanceChanged
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Enhanced{
		history: history,
		rpc:     rpc,
		opts:    opts,
		logger:  opts.Logger.WithField("strategy", "enhanced"),
	}
}

// Name implements Strategy.
func (e *Enhanced) Name() string { return "enhanced" }

// Enhanced implements Strategy.
func (e *Enhanced) Enhanced() bool { return true }

// Acquire lists recent succeeded signatures, parses them and splits out
// the wallet-initiated subset.
func (e *Enhanced) Acquire(ctx context.Context, wallet string) (*WalletData, error) {
	start := time.Now()

	balance, holdings, err := readAccount(ctx, e.rpc, wallet)
	if err != nil {
		return nil, err
	}

	infos, err := e.history.GetSignaturesForAddress(ctx, wallet, e.HistoryOpts())
	if err != nil {
		return nil, fmt.Errorf("get signatures: %w", err)
	}

	sigs := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.Signature != "" {
			sigs = append(sigs, info.Signature)
		}
	}
	if len(sigs) > helius.MaxParseBatch {
		sigs = sigs[:helius.MaxParseBatch]
	}

	parsed, err := e.history.ParseTransactions(ctx, sigs)
	if err != nil {
		return nil, fmt.Errorf("parse transactions: %w", err)
	}
	signed := WalletSigned(parsed, wallet)

	e.logger.WithFields(logrus.Fields{
		"wallet":    wallet,
		"parsed":    len(parsed),
		"signed":    len(signed),
		"elapsed_s": elapsed(start),
	}).Debug("acquired")

	return &WalletData{
		EnhancedUsed:    true,
		BalanceLamports: balance,
		Holdings:        holdings,
		Enhanced:        parsed,
		Signed:          signed,
	}, nil
}

// HistoryOpts returns the history query for the current time.
// The blockTime window is omitted in strict last-N mode or without a lookback.
func (e *Enhanced) HistoryOpts() helius.HistoryOpts {
	opts := helius.HistoryOpts{
		Limit:         e.opts.TxLimit,
		TokenAccounts: e.opts.TokenAccounts,
	}
	if !e.opts.StrictLastN && e.opts.LookbackDays > 0 {
		gte := e.opts.Now().Unix() - int64(e.opts.LookbackDays)*secondsPerDay
		if gte < 0 {
			gte = 0
		}
		opts.BlockTimeGTE = gte
	}
	return opts
}

var (
	_ Strategy      = (*Enhanced)(nil)
	_ HistoryClient = (*helius.Client)(nil)
)
