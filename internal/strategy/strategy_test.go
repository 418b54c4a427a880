package strategy

import (
	"context"
	"errors"
	"math"
	"testing"

	"pumpwatch/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func candidate(mint string, score, price float64) *domain.TokenAnalysis {
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

func position(mint string, holding, pnlPct, price float64) *domain.Position {
	return &domain.Position{
		MintAddress:     mint,
		Holding:         holding,
		PnLPercent:      ptr(pnlPct),
		CurrentPrice:    ptr(price),
		CurrentPriceUSD: ptr(price * 150),
	}
}

func TestEarlyEntry_BuysAboveThreshold(t *testing.T) {
	s := NewEarlyEntryStrategy(70, 1.0, 10)

	input := &Input{
		Candidates: []*domain.TokenAnalysis{
			candidate("strong", 80, 0.01),
			candidate("weak", 50, 0.01),
			candidate("exact", 70, 0.02),
		},
	}

	intents, err := s.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(intents) != 2 {
		t.Fatalf("Expected 2 intents, got %d", len(intents))
	}

	first := intents[0]
	if first.MintAddress != "strong" || first.Side != domain.SideBuy {
		t.Errorf("Wrong intent: %+v", first)
	}
	// quantity = (80/100) * 1.0 / 0.01 = 80
	if !approxEqual(first.Quantity, 80) {
		t.Errorf("Quantity: got %f, want 80", first.Quantity)
	}
	if first.Strategy != NameEarlyEntry {
		t.Errorf("Strategy: got %s", first.Strategy)
	}
	if first.Score != 80 {
		t.Errorf("Score not carried: %f", first.Score)
	}

	// Threshold is inclusive: quantity = (70/100) * 1.0 / 0.02 = 35
	second := intents[1]
	if second.MintAddress != "exact" || !approxEqual(second.Quantity, 35) {
		t.Errorf("Exact-threshold intent: %+v", second)
	}
}

func TestEarlyEntry_SkipsHeldAndUnpriced(t *testing.T) {
	s := NewEarlyEntryStrategy(70, 1.0, 10)

	unpriced := candidate("unpriced", 90, 0)
	input := &Input{
		Candidates: []*domain.TokenAnalysis{
			candidate("held", 90, 0.01),
			unpriced,
			candidate("fresh", 85, 0.01),
		},
		Positions: []*domain.Position{
			position("held", 10, 5, 0.01),
		},
	}

	intents, err := s.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(intents) != 1 || intents[0].MintAddress != "fresh" {
		t.Errorf("Expected only fresh, got %+v", intents)
	}
}

func TestEarlyEntry_RespectsPositionCap(t *testing.T) {
	s := NewEarlyEntryStrategy(70, 1.0, 3)

	input := &Input{
		Candidates: []*domain.TokenAnalysis{
			candidate("c1", 90, 0.01),
			candidate("c2", 90, 0.01),
			candidate("c3", 90, 0.01),
		},
		Positions: []*domain.Position{
			position("p1", 10, 0, 0.01),
			position("p2", 10, 0, 0.01),
		},
	}

	intents, err := s.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(intents) != 1 {
		t.Errorf("Expected 1 intent under cap, got %d", len(intents))
	}
}

func TestTakeProfit_ExitsFullHolding(t *testing.T) {
	s := NewTakeProfitStrategy(30)

	input := &Input{
		Positions: []*domain.Position{
			position("winner", 100, 45, 0.02),
			position("grinder", 50, 10, 0.02),
			position("exact", 20, 30, 0.02),
		},
	}

	intents, err := s.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(intents) != 2 {
		t.Fatalf("Expected 2 intents, got %d", len(intents))
	}

	first := intents[0]
	if first.MintAddress != "winner" || first.Side != domain.SideSell {
		t.Errorf("Wrong intent: %+v", first)
	}
	if !approxEqual(first.Quantity, 100) {
		t.Errorf("Expected full holding, got %f", first.Quantity)
	}
	if intents[1].MintAddress != "exact" {
		t.Errorf("Threshold should be inclusive: %+v", intents[1])
	}
}

func TestTakeProfit_SkipsUnpricedPositions(t *testing.T) {
	s := NewTakeProfitStrategy(30)

	input := &Input{
		Positions: []*domain.Position{
			{MintAddress: "degraded", Holding: 100}, // no live price
		},
	}

	intents, err := s.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(intents) != 0 {
		t.Errorf("Unpriced position must not be sold: %+v", intents)
	}
}

func TestStopLoss_ExitsFullHolding(t *testing.T) {
	s := NewStopLossStrategy(-15)

	input := &Input{
		Positions: []*domain.Position{
			position("loser", 100, -20, 0.005),
			position("dip", 50, -5, 0.005),
			position("exact", 20, -15, 0.005),
		},
	}

	intents, err := s.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(intents) != 2 {
		t.Fatalf("Expected 2 intents, got %d", len(intents))
	}
	if intents[0].MintAddress != "loser" || intents[0].Side != domain.SideSell {
		t.Errorf("Wrong intent: %+v", intents[0])
	}
	if !approxEqual(intents[0].Quantity, 100) {
		t.Errorf("Expected full holding, got %f", intents[0].Quantity)
	}
	if intents[1].MintAddress != "exact" {
		t.Errorf("Limit should be inclusive: %+v", intents[1])
	}
}

func TestStrategies_NilInput(t *testing.T) {
	strategies := []Strategy{
		NewEarlyEntryStrategy(0, 0, 0),
		NewTakeProfitStrategy(0),
		NewStopLossStrategy(0),
	}
	for _, s := range strategies {
		if _, err := s.Evaluate(context.Background(), nil); !errors.Is(err, ErrNilInput) {
			t.Errorf("%s: expected ErrNilInput, got %v", s.Name(), err)
		}
	}
}

func TestDefaults(t *testing.T) {
	entry := NewEarlyEntryStrategy(0, 0, 0)
	if entry.MinScore != DefaultMinScore || entry.BudgetSOL != DefaultBudgetSOL || entry.MaxOpenPositions != DefaultMaxOpenPositions {
		t.Errorf("Entry defaults: %+v", entry)
	}
	if NewTakeProfitStrategy(0).TargetPct != DefaultTakeProfitPct {
		t.Error("Take-profit default not applied")
	}
	if NewStopLossStrategy(0).LimitPct != DefaultStopLossPct {
		t.Error("Stop-loss default not applied")
	}
}
