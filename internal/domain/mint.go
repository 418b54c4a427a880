package domain

import (
	"errors"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Mint address validation errors.
var (
	ErrInvalidMintEncoding = errors.New("mint address is not valid base58")
	ErrInvalidMintLength   = errors.New("mint address must decode to 32 bytes")
	ErrMintNotOnCurve      = errors.New("mint address is not a valid ed25519 point")
)

// ValidateMint checks that a mint address is a well-formed Solana pubkey:
// base58-encoded, 32 bytes, and a valid point on the ed25519 curve.
func ValidateMint(mint string) error {
	raw, err := base58.Decode(mint)
	if err != nil {
		return ErrInvalidMintEncoding
	}
	if len(raw) != 32 {
		return ErrInvalidMintLength
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return ErrMintNotOnCurve
	}
	return nil
}
