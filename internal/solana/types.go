package solana

// Token program IDs.
const (
	TokenProgramID     = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	Token2022ProgramID = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
)

// TokenPrograms lists the token program variants in use on mainnet.
var TokenPrograms = []string{TokenProgramID, Token2022ProgramID}

// SignatureInfo from getSignaturesForAddress.
type SignatureInfo struct {
	Signature string
	Slot      int64
	BlockTime *int64
	Err       interface{}
}

// SignaturesOpts defines optional pagination parameters for getSignaturesForAddress.
type SignaturesOpts struct {
	Before string // Start searching backwards from this signature
	Until  string // Search until this signature
	Limit  int    // Maximum number of signatures to return
}

// TokenAccount is a jsonParsed token account owned by a wallet.
type TokenAccount struct {
	Pubkey         string
	Mint           string
	UIAmount       *float64 // nil when the node omits it
	UIAmountString string
	Decimals       int
}
