package domain

import "time"

// Position is the per-instrument aggregate derived from trade records and
// a live price. It is recomputed on demand and never stored.
//
// Price-dependent fields are pointers: when the oracle cannot supply a
// price they stay nil and the position degrades to a partial result.
type Position struct {
	MintAddress string
	Symbol      string
	Name        string

	TotalBought float64
	TotalSold   float64
	Holding     float64 // TotalBought - TotalSold
	CostBasis   float64 // cost of open lots, in SOL
	AverageCost float64 // CostBasis / Holding

	CurrentPrice    *float64
	CurrentPriceUSD *float64
	PriceObservedAt *time.Time
	CurrentValue    *float64
	UnrealizedPnL   *float64

	RealizedPnL float64 // sum over closed sells, in SOL
	TotalPnL    *float64
	PnLPercent  *float64 // TotalPnL / CostBasis * 100
}

// StrategyPerformance is the per-strategy rollup of closed sells.
type StrategyPerformance struct {
	Strategy         string
	TotalTrades      int
	ProfitableTrades int
	LossTrades       int
	WinRate          float64 // ProfitableTrades / TotalTrades * 100
	TotalPnL         float64
	AvgPnLPercent    float64
	MaxProfitPercent float64
	MaxLossPercent   float64
}
