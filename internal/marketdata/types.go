package marketdata

import (
	"context"
	"time"

	"pumpwatch/internal/domain"
)

// Client fetches token market data from the indexer API.
type Client interface {
	// RecentTokens lists the most recently created tokens.
	RecentTokens(ctx context.Context, limit int) ([]*domain.Token, error)

	// TokenStats aggregates trade activity for a mint since the given time.
	TokenStats(ctx context.Context, mint string, since time.Time) (*domain.MarketStats, error)

	// TokenPrice returns the latest observed trade price for a mint.
	TokenPrice(ctx context.Context, mint string) (*PriceQuote, error)

	// PriceHistory returns the most recent trade prices for a mint in
	// chronological order.
	PriceHistory(ctx context.Context, mint string, limit int) ([]*domain.PricePoint, error)
}

// PriceQuote is a single observed price for a mint.
type PriceQuote struct {
	Price      float64 // SOL per unit
	PriceUSD   float64 // USD per unit, 0 when conversion unavailable
	ObservedAt time.Time
}
