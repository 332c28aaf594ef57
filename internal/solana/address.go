package solana

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ErrInvalidAddress is returned for strings that are not 32-byte base58 public keys.
var ErrInvalidAddress = errors.New("invalid solana address")

// ValidateAddress checks that s decodes to a 32-byte public key.
func ValidateAddress(s string) error {
	if s == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	decoded, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidAddress, s, err)
	}
	if len(decoded) != 32 {
		return fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidAddress, s, len(decoded))
	}
	return nil
}

// IsOnCurve reports whether the address is a point on the ed25519 curve.
// Keypair wallets are on the curve, program-derived addresses are not.
func IsOnCurve(address string) bool {
	point, err := base58.Decode(address)
	if err != nil || len(point) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(point)
	return err == nil
}
