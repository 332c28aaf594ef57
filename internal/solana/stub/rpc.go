package stub

import (
	"context"
	"sync"

	"stake-wallet-profiler/internal/solana"
)

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	mu sync.Mutex

	Balances      map[string]uint64
	TokenAccounts map[string][]solana.TokenAccount // keyed by owner + "/" + programID
	Transactions  map[string]*solana.Transaction
	Signatures    map[string][]solana.SignatureInfo

	// Errors forces a method to fail. Keys are RPC method names.
	Errors map[string]error

	// Calls counts invocations per RPC method name.
	Calls map[string]int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Balances:      make(map[string]uint64),
		TokenAccounts: make(map[string][]solana.TokenAccount),
		Transactions:  make(map[string]*solana.Transaction),
		Signatures:    make(map[string][]solana.SignatureInfo),
		Errors:        make(map[string]error),
		Calls:         make(map[string]int),
	}
}

// TokenAccountsKey builds the TokenAccounts map key.
func TokenAccountsKey(owner, programID string) string {
	return owner + "/" + programID
}

func (c *RPCClient) record(method string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls[method]++
	return c.Errors[method]
}

// CallCount returns how many times method was called.
func (c *RPCClient) CallCount(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Calls[method]
}

// GetBalance returns the stored balance, 0 if absent.
func (c *RPCClient) GetBalance(_ context.Context, address string) (uint64, error) {
	if err := c.record("getBalance"); err != nil {
		return 0, err
	}
	return c.Balances[address], nil
}

// GetTokenAccountsByOwner returns stored token accounts for owner and program.
func (c *RPCClient) GetTokenAccountsByOwner(_ context.Context, owner, programID string) ([]solana.TokenAccount, error) {
	if err := c.record("getTokenAccountsByOwner"); err != nil {
		return nil, err
	}
	return c.TokenAccounts[TokenAccountsKey(owner, programID)], nil
}

// GetTransaction retrieves a transaction by signature from the stub store.
// Unknown signatures return nil, nil like a node that has pruned them.
func (c *RPCClient) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	if err := c.record("getTransaction"); err != nil {
		return nil, err
	}
	return c.Transactions[signature], nil
}

// GetSignaturesForAddress retrieves signatures for an address from the stub store.
func (c *RPCClient) GetSignaturesForAddress(_ context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	if err := c.record("getSignaturesForAddress"); err != nil {
		return nil, err
	}
	sigs, ok := c.Signatures[address]
	if !ok {
		return nil, nil
	}

	// Apply limit if specified
	if opts != nil && opts.Limit > 0 && opts.Limit < len(sigs) {
		return sigs[:opts.Limit], nil
	}

	return sigs, nil
}

var _ solana.RPCClient = (*RPCClient)(nil)
