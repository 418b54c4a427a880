package oracle

import (
	"context"
	"sync"
)

// StaticOracle serves fixed quotes from memory. Used in tests and manual
// simulation runs.
type StaticOracle struct {
	mu     sync.RWMutex
	quotes map[string]Quote
}

// NewStaticOracle creates an empty static oracle.
func NewStaticOracle() *StaticOracle {
	return &StaticOracle{quotes: make(map[string]Quote)}
}

// Set fixes the quote for a mint.
func (o *StaticOracle) Set(mint string, quote Quote) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.quotes[mint] = quote
}

// Quote returns the fixed quote, or ErrPriceUnavailable for unknown mints.
func (o *StaticOracle) Quote(_ context.Context, mint string) (*Quote, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	quote, exists := o.quotes[mint]
	if !exists {
		return nil, ErrPriceUnavailable
	}
	c := quote
	return &c, nil
}

var _ Oracle = (*StaticOracle)(nil)
