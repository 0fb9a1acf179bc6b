// Package wallet validates Solana wallet addresses.
package wallet

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ErrInvalidAddress is returned when an address fails base58 or
// curve-point checks. Never retried; no store mutation happens.
var ErrInvalidAddress = errors.New("invalid wallet address")

// Validate checks that addr is a base58-encoded 32-byte ed25519 curve
// point. Program-derived addresses are off-curve and rejected: the
// indexer only reconstructs positions for signing wallets.
func Validate(addr string) error {
	if len(addr) < 32 || len(addr) > 44 {
		return fmt.Errorf("%w: bad length %d", ErrInvalidAddress, len(addr))
	}

	decoded, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(decoded) != 32 {
		return fmt.Errorf("%w: decoded to %d bytes", ErrInvalidAddress, len(decoded))
	}

	if _, err := new(edwards25519.Point).SetBytes(decoded); err != nil {
		return fmt.Errorf("%w: not on curve", ErrInvalidAddress)
	}

	return nil
}

// Short returns a shortened form of a mint or wallet address for display
// and for derived token symbols, e.g. "EPjF..Dt1v".
func Short(addr string) string {
	if len(addr) <= 8 {
		return addr
	}
	return addr[:4] + ".." + addr[len(addr)-4:]
}
