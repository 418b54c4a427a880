// Package reporting summarizes the ledger on a schedule: the holdings
// report covers open positions and their live value, the performance
// report rolls up closed sells per strategy. Reports are logged through
// zerolog and renderable as Markdown or CSV.
package reporting

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"pumpwatch/internal/ledger"
	"pumpwatch/internal/observability"
	"pumpwatch/internal/oracle"
)

// Generator produces reports from the ledger.
type Generator struct {
	ledger *ledger.Ledger
	oracle oracle.Oracle
	now    func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(led *ledger.Ledger, orc oracle.Oracle) *Generator {
	return &Generator{
		ledger: led,
		oracle: orc,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Holdings builds the open-position summary. Positions the oracle cannot
// price stay in the report with nil price fields and are excluded from the
// value aggregates.
func (g *Generator) Holdings(ctx context.Context) *HoldingsReport {
	positions := g.ledger.AllOpenPositions(ctx, func(ctx context.Context, mint string) (float64, float64, time.Time, error) {
		quote, err := g.oracle.Quote(ctx, mint)
		if err != nil {
			return 0, 0, time.Time{}, err
		}
		return quote.Price, quote.PriceUSD, quote.ObservedAt, nil
	})

	report := &HoldingsReport{
		GeneratedAt:   g.now(),
		Positions:     positions,
		OpenPositions: len(positions),
	}
	for _, p := range positions {
		report.TotalCostBasis += p.CostBasis
		report.RealizedPnL += p.RealizedPnL
		if p.CurrentValue != nil {
			report.PricedPositions++
			report.TotalValue += *p.CurrentValue
		}
		if p.UnrealizedPnL != nil {
			report.UnrealizedPnL += *p.UnrealizedPnL
		}
	}

	observability.UpdateOpenPositions(report.OpenPositions)
	observability.UpdateRealizedPnL(report.RealizedPnL)
	return report
}

// Performance builds the per-strategy rollup.
func (g *Generator) Performance() *PerformanceReport {
	strategies := g.ledger.StrategyPerformance()

	report := &PerformanceReport{
		GeneratedAt: g.now(),
		Strategies:  strategies,
	}
	for _, s := range strategies {
		report.TotalTrades += s.TotalTrades
		report.TotalPnL += s.TotalPnL
	}
	return report
}

// LogHoldings writes the holdings summary to the log, one line per
// position plus a totals line. This is the scheduled report task.
func (g *Generator) LogHoldings(ctx context.Context, log zerolog.Logger) {
	report := g.Holdings(ctx)

	for _, p := range report.Positions {
		event := log.Info().
			Str("mint", p.MintAddress).
			Float64("holding", p.Holding).
			Float64("cost_basis", p.CostBasis).
			Float64("avg_cost", p.AverageCost)
		if p.CurrentPrice != nil {
			event = event.Float64("price", *p.CurrentPrice)
		}
		if p.UnrealizedPnL != nil {
			event = event.Float64("unrealized_pnl", *p.UnrealizedPnL)
		}
		if p.PnLPercent != nil {
			event = event.Float64("pnl_pct", *p.PnLPercent)
		}
		event.Msg("holding")
	}

	log.Info().
		Int("open_positions", report.OpenPositions).
		Int("priced_positions", report.PricedPositions).
		Float64("total_cost_basis", report.TotalCostBasis).
		Float64("total_value", report.TotalValue).
		Float64("unrealized_pnl", report.UnrealizedPnL).
		Float64("realized_pnl", report.RealizedPnL).
		Msg("holdings summary")
}

// LogPerformance writes the per-strategy rollup to the log.
func (g *Generator) LogPerformance(log zerolog.Logger) {
	report := g.Performance()

	for _, s := range report.Strategies {
		log.Info().
			Str("strategy", s.Strategy).
			Int("trades", s.TotalTrades).
			Int("wins", s.ProfitableTrades).
			Int("losses", s.LossTrades).
			Float64("win_rate", s.WinRate).
			Float64("total_pnl", s.TotalPnL).
			Float64("avg_pnl_pct", s.AvgPnLPercent).
			Float64("max_profit_pct", s.MaxProfitPercent).
			Float64("max_loss_pct", s.MaxLossPercent).
			Msg("strategy performance")
	}

	log.Info().
		Int("strategies", len(report.Strategies)).
		Int("total_trades", report.TotalTrades).
		Float64("total_pnl", report.TotalPnL).
		Msg("performance summary")
}
