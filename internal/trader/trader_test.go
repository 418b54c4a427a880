package trader

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"pumpwatch/internal/domain"
	"pumpwatch/internal/ledger"
	"pumpwatch/internal/notify"
	"pumpwatch/internal/oracle"
	"pumpwatch/internal/strategy"
)

type fakeCandidates struct {
	analyses []*domain.TokenAnalysis
	err      error
}

func (f *fakeCandidates) Candidates(_ context.Context) ([]*domain.TokenAnalysis, error) {
	return f.analyses, f.err
}

type capturePublisher struct {
	events []notify.EventType
}

func (p *capturePublisher) Publish(eventType notify.EventType, _ interface{}) {
	p.events = append(p.events, eventType)
}

func analysis(mint string, score, price float64) *domain.TokenAnalysis {
	return &domain.TokenAnalysis{
		Token: &domain.Token{
			MintAddress:  mint,
			LastPrice:    price,
			LastPriceUSD: price * 150,
		},
		Score:          &domain.ScoreBreakdown{Total: score},
		Classification: domain.ClassBuyCandidate,
	}
}

func newTrader(candidates CandidateSource, pub Publisher) (*Trader, *ledger.Ledger, *oracle.StaticOracle) {
	book := ledger.New(ledger.Options{})
	quotes := oracle.NewStaticOracle()
	t := New(Options{
		Ledger:          book,
		Oracle:          quotes,
		Candidates:      candidates,
		EntryStrategies: []strategy.Strategy{strategy.NewEarlyEntryStrategy(70, 1.0, 10)},
		ExitStrategies: []strategy.Strategy{
			strategy.NewTakeProfitStrategy(30),
			strategy.NewStopLossStrategy(-15),
		},
		Publisher: pub,
		Logger:    zerolog.Nop(),
	})
	return t, book, quotes
}

func TestTrader_BuyCycleRecordsQualifyingCandidates(t *testing.T) {
	pub := &capturePublisher{}
	trader, book, _ := newTrader(&fakeCandidates{analyses: []*domain.TokenAnalysis{
		analysis("strong", 80, 0.01),
		analysis("weak", 40, 0.01),
	}}, pub)

	if err := trader.RunBuyCycle(context.Background()); err != nil {
		t.Fatalf("RunBuyCycle failed: %v", err)
	}

	if got := book.CurrentHolding("strong"); got != 80 {
		t.Errorf("strong holding: got %f, want 80", got)
	}
	if got := book.CurrentHolding("weak"); got != 0 {
		t.Errorf("weak should not be bought, holding %f", got)
	}

	var sawBuy, sawRun bool
	for _, e := range pub.events {
		if e == notify.EventTradeBuy {
			sawBuy = true
		}
		if e == notify.EventStrategyRun {
			sawRun = true
		}
	}
	if !sawBuy || !sawRun {
		t.Errorf("events: %v", pub.events)
	}
}

func TestTrader_SellCycleExitsOnTarget(t *testing.T) {
	pub := &capturePublisher{}
	trader, book, quotes := newTrader(&fakeCandidates{}, pub)
	ctx := context.Background()

	if _, err := book.RecordBuy(ctx, ledger.BuyOrder{
		MintAddress: "winner", Quantity: 100, Price: 0.01, Strategy: "early-entry",
	}); err != nil {
		t.Fatalf("seed buy failed: %v", err)
	}
	// +50% unrealized, above the take-profit target
	quotes.Set("winner", oracle.Quote{Price: 0.015, PriceUSD: 2.25})

	if err := trader.RunSellCycle(ctx); err != nil {
		t.Fatalf("RunSellCycle failed: %v", err)
	}

	if got := book.CurrentHolding("winner"); got != 0 {
		t.Errorf("winner should be fully exited, holding %f", got)
	}

	history := book.TradeHistory("winner")
	if len(history) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(history))
	}
	sell := history[1]
	if sell.Strategy != strategy.NameTakeProfit {
		t.Errorf("sell strategy: got %s", sell.Strategy)
	}
	if sell.RealizedPnL == nil || *sell.RealizedPnL <= 0 {
		t.Errorf("realized pnl: %v", sell.RealizedPnL)
	}
}

func TestTrader_SellCycleSkipsUnpricedPositions(t *testing.T) {
	trader, book, _ := newTrader(&fakeCandidates{}, nil)
	ctx := context.Background()

	if _, err := book.RecordBuy(ctx, ledger.BuyOrder{
		MintAddress: "dark", Quantity: 50, Price: 0.01, Strategy: "early-entry",
	}); err != nil {
		t.Fatalf("seed buy failed: %v", err)
	}
	// No quote registered for "dark"

	if err := trader.RunSellCycle(ctx); err != nil {
		t.Fatalf("RunSellCycle failed: %v", err)
	}
	if got := book.CurrentHolding("dark"); got != 50 {
		t.Errorf("unpriced position must not be sold, holding %f", got)
	}
}

func TestTrader_BuyCycleFailsOnCandidateFetchError(t *testing.T) {
	trader, _, _ := newTrader(&fakeCandidates{err: errors.New("indexer down")}, nil)

	if err := trader.RunBuyCycle(context.Background()); err == nil {
		t.Fatal("expected error when candidate fetch fails")
	}
}

type failingStrategy struct{}

func (failingStrategy) Name() string { return "failing" }
func (failingStrategy) Evaluate(context.Context, *strategy.Input) ([]*strategy.Intent, error) {
	return nil, errors.New("boom")
}

func TestTrader_StrategyFailureIsolated(t *testing.T) {
	book := ledger.New(ledger.Options{})
	quotes := oracle.NewStaticOracle()
	trader := New(Options{
		Ledger:     book,
		Oracle:     quotes,
		Candidates: &fakeCandidates{analyses: []*domain.TokenAnalysis{analysis("strong", 90, 0.01)}},
		EntryStrategies: []strategy.Strategy{
			failingStrategy{},
			strategy.NewEarlyEntryStrategy(70, 1.0, 10),
		},
		Logger: zerolog.Nop(),
	})

	err := trader.RunBuyCycle(context.Background())
	if err == nil {
		t.Fatal("expected joined error from failing strategy")
	}
	// The healthy strategy still traded
	if got := book.CurrentHolding("strong"); got == 0 {
		t.Error("healthy strategy blocked by failing one")
	}
}
