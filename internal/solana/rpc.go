package solana

import "context"

// RPCClient defines the Solana JSON-RPC calls used for wallet profiling.
type RPCClient interface {
	// GetBalance returns the native balance of an address in lamports.
	GetBalance(ctx context.Context, address string) (uint64, error)

	// GetTokenAccountsByOwner returns the token accounts an owner holds under one token program.
	GetTokenAccountsByOwner(ctx context.Context, owner, programID string) ([]TokenAccount, error)

	// GetSignaturesForAddress retrieves signatures for an address, newest first.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetTransaction retrieves a transaction by signature. Returns nil, nil if not found.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)
}

// Transaction represents a Solana transaction.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime *int64 // Unix timestamp (seconds)
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta contains transaction metadata.
type TransactionMeta struct {
	Err interface{}
	Fee uint64
}

// TransactionMessage contains parsed transaction message.
type TransactionMessage struct {
	AccountKeys []string
	Signers     []string
}
