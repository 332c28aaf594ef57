// Package helius is a client for the Helius enhanced Solana APIs:
// the getTransactionsForAddress RPC extension and the transaction parse endpoint.
package helius

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"stake-wallet-profiler/internal/domain"
	"stake-wallet-profiler/internal/observability"
	"stake-wallet-profiler/internal/solana"
)

// Default endpoints and limits.
const (
	DefaultRPCBase          = "https://mainnet.helius-rpc.com/"
	DefaultParseURL         = "https://api-mainnet.helius-rpc.com/v0/transactions/"
	DefaultTimeout          = 90 * time.Second
	DefaultParseCacheSize   = 20_000
	maxErrorBodyLen         = 200
	parseTransactionsMethod = "parseTransactions"
)

// ErrMissingAPIKey is returned by NewClient without a key.
var ErrMissingAPIKey = errors.New("helius api key is required")

// Client talks to Helius. Standard JSON-RPC reads go through a
// solana.HTTPClient pointed at the Helius RPC endpoint.
type Client struct {
	rpc *solana.HTTPClient

	apiKey     string
	rpcBase    string
	parseURL   string
	timeout    time.Duration
	httpClient *http.Client
	cacheSize  int
	cache      *lru.Cache[string, domain.EnhancedTx]
	logger     logrus.FieldLogger
}

// Option configures Client.
type Option func(*Client)

// WithRPCBase overrides the JSON-RPC endpoint (without api-key).
func WithRPCBase(base string) Option {
	return func(c *Client) {
		c.rpcBase = base
	}
}

// WithParseURL overrides the parse endpoint (without api-key).
func WithParseURL(u string) Option {
	return func(c *Client) {
		c.parseURL = u
	}
}

// WithTimeout sets the per-call timeout for every Helius request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithParseCacheSize sets how many parsed transactions are memoised. Zero disables caching.
func WithParseCacheSize(n int) Option {
	return func(c *Client) {
		c.cacheSize = n
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a Helius client for apiKey.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	c := &Client{
		apiKey:    apiKey,
		rpcBase:   DefaultRPCBase,
		parseURL:  DefaultParseURL,
		timeout:   DefaultTimeout,
		cacheSize: DefaultParseCacheSize,
		logger:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.httpClient = &http.Client{Timeout: c.timeout}
	c.rpc = solana.NewHTTPClient(withAPIKey(c.rpcBase, apiKey),
		solana.WithHTTPClient(&http.Client{Timeout: c.timeout}),
	)

	if c.cacheSize > 0 {
		cache, err := lru.New[string, domain.EnhancedTx](c.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create parse cache: %w", err)
		}
		c.cache = cache
	}

	c.logger = c.logger.WithField("component", "helius")
	return c, nil
}

// RPC returns the standard JSON-RPC client bound to the Helius endpoint.
func (c *Client) RPC() *solana.HTTPClient {
	return c.rpc
}

// GetSignaturesForAddress lists a wallet's succeeded transaction signatures,
// newest first, using getTransactionsForAddress in signatures mode.
func (c *Client) GetSignaturesForAddress(ctx context.Context, wallet string, opts HistoryOpts) ([]solana.SignatureInfo, error) {
	var page historyPage[signatureItem]
	if err := c.rpc.Call(ctx, "getTransactionsForAddress", c.historyParams(wallet, opts), &page); err != nil {
		return nil, err
	}

	sigs := make([]solana.SignatureInfo, 0, len(page.Data))
	for _, item := range page.Data {
		if item.Signature == "" {
			continue
		}
		sigs = append(sigs, solana.SignatureInfo{
			Signature: item.Signature,
			Slot:      item.Slot,
			BlockTime: item.BlockTime,
			Err:       item.Err,
		})
	}
	return sigs, nil
}

func (c *Client) historyParams(wallet string, opts HistoryOpts) []interface{} {
	limit := opts.Limit
	if limit <= 0 || limit > MaxSignaturesLimit {
		limit = MaxSignaturesLimit
	}

	filters := map[string]interface{}{"status": "succeeded"}
	if opts.TokenAccounts != "" {
		filters["tokenAccounts"] = string(opts.TokenAccounts)
	}
	if opts.BlockTimeGTE > 0 {
		filters["blockTime"] = map[string]interface{}{"gte": opts.BlockTimeGTE}
	}

	config := map[string]interface{}{
		"transactionDetails": "signatures",
		"sortOrder":          "desc",
		"limit":              limit,
		"commitment":         solana.DefaultCommitment,
		"filters":            filters,
	}

	return []interface{}{wallet, config}
}

// ParseTransactions decodes signatures into enhanced transaction records.
// Results keep the order of signatures; signatures the provider does not
// return are omitted. Previously parsed signatures are served from memory.
func (c *Client) ParseTransactions(ctx context.Context, signatures []string) ([]domain.EnhancedTx, error) {
	if len(signatures) == 0 {
		return nil, nil
	}

	parsed := make(map[string]domain.EnhancedTx, len(signatures))
	var missing []string
	for _, sig := range signatures {
		if c.cache != nil {
			if tx, ok := c.cache.Get(sig); ok {
				parsed[sig] = tx
				continue
			}
		}
		missing = append(missing, sig)
	}

	for start := 0; start < len(missing); start += MaxParseBatch {
		end := start + MaxParseBatch
		if end > len(missing) {
			end = len(missing)
		}
		batch, err := c.parseBatch(ctx, missing[start:end])
		if err != nil {
			return nil, err
		}
		for _, tx := range batch {
			if tx.Signature == "" {
				continue
			}
			parsed[tx.Signature] = tx
			if c.cache != nil {
				c.cache.Add(tx.Signature, tx)
			}
		}
	}

	c.logger.WithFields(logrus.Fields{
		"requested": len(signatures),
		"cached":    len(signatures) - len(missing),
	}).Debug("parsed transactions")

	out := make([]domain.EnhancedTx, 0, len(parsed))
	seen := make(map[string]bool, len(signatures))
	for _, sig := range signatures {
		tx, ok := parsed[sig]
		if !ok || seen[sig] {
			continue
		}
		seen[sig] = true
		out = append(out, tx)
	}
	return out, nil
}

func (c *Client) parseBatch(ctx context.Context, signatures []string) ([]domain.EnhancedTx, error) {
	start := time.Now()
	defer func() {
		observability.RecordRPCLatency(parseTransactionsMethod, time.Since(start).Seconds())
	}()

	body, err := json.Marshal(map[string]interface{}{"transactions": signatures})
	if err != nil {
		return nil, fmt.Errorf("marshal parse request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, withAPIKey(c.parseURL, c.apiKey), bytes.NewReader(body))
	if err != nil {
		return nil, &APIError{Op: parseTransactionsMethod, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Op: parseTransactionsMethod, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Op: parseTransactionsMethod, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			Op:         parseTransactionsMethod,
			StatusCode: resp.StatusCode,
			Body:       truncate(respBody, maxErrorBodyLen),
		}
	}

	var wire []enhancedTransaction
	if err := json.Unmarshal(respBody, &wire); err != nil {
		return nil, &APIError{Op: parseTransactionsMethod, Err: fmt.Errorf("decode response: %w", err)}
	}

	txs := make([]domain.EnhancedTx, len(wire))
	for i, w := range wire {
		txs[i] = w.toDomain()
	}
	return txs, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
