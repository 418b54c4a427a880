package ledger

import (
	"errors"
	"fmt"
)

// Ledger errors.
var (
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrInvalidPrice        = errors.New("price must be positive")
	ErrInsufficientHolding = errors.New("insufficient holding")
	ErrInstrumentUnknown   = errors.New("instrument unknown")
)

// InsufficientHoldingError reports a rejected oversell. The ledger state is
// untouched when this is returned.
type InsufficientHoldingError struct {
	MintAddress string
	Requested   float64
	Holding     float64
}

func (e *InsufficientHoldingError) Error() string {
	return fmt.Sprintf("insufficient holding for %s: requested %f, holding %f",
		e.MintAddress, e.Requested, e.Holding)
}

func (e *InsufficientHoldingError) Unwrap() error {
	return ErrInsufficientHolding
}
