// Package oracle supplies live prices for mints, with a last-known cache
// so short indexer outages degrade to stale quotes instead of hard
// failures.
package oracle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pumpwatch/internal/marketdata"
)

// ErrPriceUnavailable is returned when no usable price exists for a mint.
var ErrPriceUnavailable = errors.New("price unavailable")

// DefaultMaxStale bounds how old a cached quote may be before it stops
// substituting for a failed fetch.
const DefaultMaxStale = 5 * time.Minute

// Quote is a point-in-time price for a mint.
type Quote struct {
	Price      float64 // SOL per unit
	PriceUSD   float64 // USD per unit, 0 when conversion unavailable
	ObservedAt time.Time
}

// Oracle resolves a mint to its current price.
type Oracle interface {
	Quote(ctx context.Context, mint string) (*Quote, error)
}

// MarketOracle fetches prices from the indexer API and caches the last
// good quote per mint.
type MarketOracle struct {
	client   marketdata.Client
	maxStale time.Duration
	log      zerolog.Logger
	now      func() time.Time

	mu    sync.RWMutex
	cache map[string]*Quote
}

// Options configures a MarketOracle.
type Options struct {
	// MaxStale bounds cache fallback age. 0 means DefaultMaxStale.
	MaxStale time.Duration
	Logger   zerolog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// NewMarketOracle creates an oracle backed by the indexer API.
func NewMarketOracle(client marketdata.Client, opts Options) *MarketOracle {
	maxStale := opts.MaxStale
	if maxStale == 0 {
		maxStale = DefaultMaxStale
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &MarketOracle{
		client:   client,
		maxStale: maxStale,
		log:      opts.Logger,
		now:      now,
		cache:    make(map[string]*Quote),
	}
}

// Quote returns the current price for a mint. On fetch failure a cached
// quote within the staleness bound is served instead; past that the error
// wraps ErrPriceUnavailable.
func (o *MarketOracle) Quote(ctx context.Context, mint string) (*Quote, error) {
	raw, err := o.client.TokenPrice(ctx, mint)
	if err != nil {
		if cached := o.cached(mint); cached != nil {
			o.log.Warn().Err(err).Str("mint", mint).Msg("price fetch failed, serving cached quote")
			return cached, nil
		}
		return nil, errors.Join(ErrPriceUnavailable, err)
	}
	if raw.Price <= 0 {
		if cached := o.cached(mint); cached != nil {
			return cached, nil
		}
		return nil, ErrPriceUnavailable
	}

	quote := &Quote{
		Price:      raw.Price,
		PriceUSD:   raw.PriceUSD,
		ObservedAt: raw.ObservedAt,
	}
	if quote.ObservedAt.IsZero() {
		quote.ObservedAt = o.now()
	}

	o.mu.Lock()
	o.cache[mint] = quote
	o.mu.Unlock()

	c := *quote
	return &c, nil
}

// cached returns a copy of the cached quote if it is fresh enough.
func (o *MarketOracle) cached(mint string) *Quote {
	o.mu.RLock()
	quote, exists := o.cache[mint]
	o.mu.RUnlock()

	if !exists || o.now().Sub(quote.ObservedAt) > o.maxStale {
		return nil
	}
	c := *quote
	return &c
}

var _ Oracle = (*MarketOracle)(nil)
