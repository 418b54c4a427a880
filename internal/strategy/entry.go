package strategy

import (
	"context"
	"fmt"

	"pumpwatch/internal/domain"
)

// EarlyEntry defaults.
const (
	DefaultMinScore         = 70.0
	DefaultBudgetSOL        = 1.0
	DefaultMaxOpenPositions = 10
)

// EarlyEntryStrategy buys candidates whose score clears the threshold.
// Order size scales with conviction: quantity = (score/100) * budget / price.
type EarlyEntryStrategy struct {
	MinScore         float64
	BudgetSOL        float64
	MaxOpenPositions int
}

// NewEarlyEntryStrategy creates an entry strategy. Zero values fall back
// to the defaults.
func NewEarlyEntryStrategy(minScore, budgetSOL float64, maxOpenPositions int) *EarlyEntryStrategy {
	s := &EarlyEntryStrategy{
		MinScore:         minScore,
		BudgetSOL:        budgetSOL,
		MaxOpenPositions: maxOpenPositions,
	}
	if s.MinScore == 0 {
		s.MinScore = DefaultMinScore
	}
	if s.BudgetSOL == 0 {
		s.BudgetSOL = DefaultBudgetSOL
	}
	if s.MaxOpenPositions == 0 {
		s.MaxOpenPositions = DefaultMaxOpenPositions
	}
	return s
}

// Name returns the strategy identifier.
func (s *EarlyEntryStrategy) Name() string {
	return NameEarlyEntry
}

// Evaluate proposes a buy for each qualifying candidate not already held,
// until the open-position cap is reached.
func (s *EarlyEntryStrategy) Evaluate(_ context.Context, input *Input) ([]*Intent, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	held := make(map[string]bool, len(input.Positions))
	openCount := 0
	for _, pos := range input.Positions {
		held[pos.MintAddress] = true
		openCount++
	}

	var intents []*Intent
	for _, candidate := range input.Candidates {
		if openCount+len(intents) >= s.MaxOpenPositions {
			break
		}
		if candidate.Score == nil || candidate.Score.Total < s.MinScore {
			continue
		}
		if candidate.Token == nil || held[candidate.Token.MintAddress] {
			continue
		}
		price := candidate.Token.LastPrice
		if price <= 0 {
			continue
		}

		score := candidate.Score.Total
		quantity := (score / 100) * s.BudgetSOL / price
		intents = append(intents, &Intent{
			MintAddress: candidate.Token.MintAddress,
			Side:        domain.SideBuy,
			Quantity:    quantity,
			Price:       price,
			PriceUSD:    candidate.Token.LastPriceUSD,
			Reason:      fmt.Sprintf("score %.1f cleared entry threshold %.0f", score, s.MinScore),
			Score:       score,
			Strategy:    s.Name(),
		})
	}
	return intents, nil
}

var _ Strategy = (*EarlyEntryStrategy)(nil)
