package domain

// StakeRow is one delegation row produced by stake-account discovery.
// Only the authority and amount columns drive aggregation.
type StakeRow struct {
	ValidatorIdentity string
	VoteAccount       string
	StakeAccount      string
	StakerAuthority   string // empty when missing
	WithdrawAuthority string // empty when missing
	DelegatedLamports uint64
}

// AuthorityTotals is the stake delegated under one wallet's authority.
type AuthorityTotals struct {
	Wallet            string
	DelegatedLamports uint64 // sum of delegated stake, lamports
	StakeAccounts     uint64 // number of contributing rows
}
