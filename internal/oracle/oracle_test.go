package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"pumpwatch/internal/domain"
	"pumpwatch/internal/marketdata"
)

// fakeMarket serves scripted price responses.
type fakeMarket struct {
	quote *marketdata.PriceQuote
	err   error
}

func (f *fakeMarket) TokenPrice(_ context.Context, _ string) (*marketdata.PriceQuote, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := *f.quote
	return &c, nil
}

func (f *fakeMarket) RecentTokens(_ context.Context, _ int) ([]*domain.Token, error) {
	return nil, nil
}

func (f *fakeMarket) TokenStats(_ context.Context, _ string, _ time.Time) (*domain.MarketStats, error) {
	return nil, nil
}

func (f *fakeMarket) PriceHistory(_ context.Context, _ string, _ int) ([]*domain.PricePoint, error) {
	return nil, nil
}

func TestMarketOracle_Quote(t *testing.T) {
	observedAt := time.Unix(1_700_000_000, 0)
	market := &fakeMarket{quote: &marketdata.PriceQuote{
		Price: 0.01, PriceUSD: 1.5, ObservedAt: observedAt,
	}}
	oracle := NewMarketOracle(market, Options{})

	quote, err := oracle.Quote(context.Background(), "mint1")
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}
	if quote.Price != 0.01 || quote.PriceUSD != 1.5 {
		t.Errorf("Quote values: %+v", quote)
	}
	if !quote.ObservedAt.Equal(observedAt) {
		t.Errorf("ObservedAt: %v", quote.ObservedAt)
	}
}

func TestMarketOracle_ServesCachedOnFailure(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	market := &fakeMarket{quote: &marketdata.PriceQuote{
		Price: 0.01, ObservedAt: now,
	}}
	oracle := NewMarketOracle(market, Options{
		MaxStale: time.Minute,
		Now:      func() time.Time { return now },
	})
	ctx := context.Background()

	if _, err := oracle.Quote(ctx, "mint1"); err != nil {
		t.Fatalf("Priming quote failed: %v", err)
	}

	market.err = errors.New("indexer down")

	quote, err := oracle.Quote(ctx, "mint1")
	if err != nil {
		t.Fatalf("Expected cached quote, got error: %v", err)
	}
	if quote.Price != 0.01 {
		t.Errorf("Cached price: got %f", quote.Price)
	}
}

func TestMarketOracle_StaleCacheRejected(t *testing.T) {
	observedAt := time.Unix(1_700_000_000, 0)
	now := observedAt
	market := &fakeMarket{quote: &marketdata.PriceQuote{
		Price: 0.01, ObservedAt: observedAt,
	}}
	oracle := NewMarketOracle(market, Options{
		MaxStale: time.Minute,
		Now:      func() time.Time { return now },
	})
	ctx := context.Background()

	if _, err := oracle.Quote(ctx, "mint1"); err != nil {
		t.Fatalf("Priming quote failed: %v", err)
	}

	market.err = errors.New("indexer down")
	now = observedAt.Add(2 * time.Minute)

	_, err := oracle.Quote(ctx, "mint1")
	if !errors.Is(err, ErrPriceUnavailable) {
		t.Errorf("Expected ErrPriceUnavailable for stale cache, got %v", err)
	}
}

func TestMarketOracle_ZeroPriceUnavailable(t *testing.T) {
	market := &fakeMarket{quote: &marketdata.PriceQuote{Price: 0}}
	oracle := NewMarketOracle(market, Options{})

	_, err := oracle.Quote(context.Background(), "never-traded")
	if !errors.Is(err, ErrPriceUnavailable) {
		t.Errorf("Expected ErrPriceUnavailable, got %v", err)
	}
}

func TestStaticOracle(t *testing.T) {
	oracle := NewStaticOracle()
	oracle.Set("mint1", Quote{Price: 0.5, PriceUSD: 75})
	ctx := context.Background()

	quote, err := oracle.Quote(ctx, "mint1")
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}
	if quote.Price != 0.5 {
		t.Errorf("Price: got %f", quote.Price)
	}

	_, err = oracle.Quote(ctx, "unknown")
	if !errors.Is(err, ErrPriceUnavailable) {
		t.Errorf("Expected ErrPriceUnavailable, got %v", err)
	}
}
