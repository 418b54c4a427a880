package strategy

import (
	"context"
	"fmt"

	"pumpwatch/internal/domain"
)

// DefaultTakeProfitPct is the unrealized gain that triggers a full exit.
const DefaultTakeProfitPct = 30.0

// TakeProfitStrategy fully exits positions whose PnL percentage reaches
// the profit target. Positions without a live price are skipped.
type TakeProfitStrategy struct {
	TargetPct float64
}

// NewTakeProfitStrategy creates a take-profit strategy. Zero target falls
// back to DefaultTakeProfitPct.
func NewTakeProfitStrategy(targetPct float64) *TakeProfitStrategy {
	s := &TakeProfitStrategy{TargetPct: targetPct}
	if s.TargetPct == 0 {
		s.TargetPct = DefaultTakeProfitPct
	}
	return s
}

// Name returns the strategy identifier.
func (s *TakeProfitStrategy) Name() string {
	return NameTakeProfit
}

// Evaluate proposes a full-holding sell for each position at or above the
// profit target.
func (s *TakeProfitStrategy) Evaluate(_ context.Context, input *Input) ([]*Intent, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	var intents []*Intent
	for _, pos := range input.Positions {
		if pos.PnLPercent == nil || pos.CurrentPrice == nil {
			continue
		}
		if *pos.PnLPercent < s.TargetPct {
			continue
		}

		var priceUSD float64
		if pos.CurrentPriceUSD != nil {
			priceUSD = *pos.CurrentPriceUSD
		}
		intents = append(intents, &Intent{
			MintAddress: pos.MintAddress,
			Side:        domain.SideSell,
			Quantity:    pos.Holding,
			Price:       *pos.CurrentPrice,
			PriceUSD:    priceUSD,
			Reason:      fmt.Sprintf("pnl %.1f%% reached profit target %.0f%%", *pos.PnLPercent, s.TargetPct),
			Strategy:    s.Name(),
		})
	}
	return intents, nil
}

var _ Strategy = (*TakeProfitStrategy)(nil)
