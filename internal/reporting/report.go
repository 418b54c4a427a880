package reporting

import (
	"time"

	"pumpwatch/internal/domain"
)

// HoldingsReport is a point-in-time summary of all open positions.
type HoldingsReport struct {
	GeneratedAt time.Time

	Positions []*domain.Position

	// Aggregates over the positions above. Value figures only cover the
	// positions the oracle could price.
	OpenPositions   int
	PricedPositions int
	TotalCostBasis  float64
	TotalValue      float64
	UnrealizedPnL   float64
	RealizedPnL     float64
}

// PerformanceReport is the per-strategy rollup of closed sells.
type PerformanceReport struct {
	GeneratedAt time.Time

	Strategies []*domain.StrategyPerformance

	TotalTrades int
	TotalPnL    float64
}
