package strategy

import (
	"context"
	"fmt"

	"pumpwatch/internal/domain"
)

// DefaultStopLossPct is the unrealized loss that triggers a full exit.
const DefaultStopLossPct = -15.0

// StopLossStrategy fully exits positions whose PnL percentage falls to
// the loss limit. Positions without a live price are skipped.
type StopLossStrategy struct {
	LimitPct float64 // negative
}

// NewStopLossStrategy creates a stop-loss strategy. Zero limit falls back
// to DefaultStopLossPct.
func NewStopLossStrategy(limitPct float64) *StopLossStrategy {
	s := &StopLossStrategy{LimitPct: limitPct}
	if s.LimitPct == 0 {
		s.LimitPct = DefaultStopLossPct
	}
	return s
}

// Name returns the strategy identifier.
func (s *StopLossStrategy) Name() string {
	return NameStopLoss
}

// Evaluate proposes a full-holding sell for each position at or below the
// loss limit.
func (s *StopLossStrategy) Evaluate(_ context.Context, input *Input) ([]*Intent, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	var intents []*Intent
	for _, pos := range input.Positions {
		if pos.PnLPercent == nil || pos.CurrentPrice == nil {
			continue
		}
		if *pos.PnLPercent > s.LimitPct {
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
			Reason:      fmt.Sprintf("pnl %.1f%% hit stop loss %.0f%%", *pos.PnLPercent, s.LimitPct),
			Strategy:    s.Name(),
		})
	}
	return intents, nil
}

var _ Strategy = (*StopLossStrategy)(nil)
