package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the holdings and performance reports as a single
// Markdown document.
func RenderMarkdown(holdings *HoldingsReport, performance *PerformanceReport) string {
	var sb strings.Builder

	sb.WriteString("# Ledger Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", holdings.GeneratedAt.Format(time.RFC3339)))

	sb.WriteString("## Holdings\n\n")
	if len(holdings.Positions) > 0 {
		sb.WriteString("| Mint | Holding | Cost Basis | Avg Cost | Price | Unrealized | PnL % |\n")
		sb.WriteString("|------|---------|------------|----------|-------|------------|-------|\n")
		for _, p := range holdings.Positions {
			sb.WriteString(fmt.Sprintf("| %s | %.4f | %.6f | %.8f | %s | %s | %s |\n",
				p.MintAddress, p.Holding, p.CostBasis, p.AverageCost,
				fmtPtr(p.CurrentPrice, "%.8f"),
				fmtPtr(p.UnrealizedPnL, "%.6f"),
				fmtPtr(p.PnLPercent, "%.2f")))
		}
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("Open: %d | Priced: %d | Cost basis: %.6f | Value: %.6f | Unrealized: %.6f | Realized: %.6f\n\n",
			holdings.OpenPositions, holdings.PricedPositions,
			holdings.TotalCostBasis, holdings.TotalValue,
			holdings.UnrealizedPnL, holdings.RealizedPnL))
	} else {
		sb.WriteString("No open positions.\n\n")
	}

	sb.WriteString("## Strategy Performance\n\n")
	if len(performance.Strategies) > 0 {
		sb.WriteString("| Strategy | Trades | Wins | Losses | WinRate | TotalPnL | AvgPnL% | MaxProfit% | MaxLoss% |\n")
		sb.WriteString("|----------|--------|------|--------|---------|----------|---------|------------|----------|\n")
		for _, s := range performance.Strategies {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %.2f | %.6f | %.2f | %.2f | %.2f |\n",
				s.Strategy, s.TotalTrades, s.ProfitableTrades, s.LossTrades,
				s.WinRate, s.TotalPnL, s.AvgPnLPercent, s.MaxProfitPercent, s.MaxLossPercent))
		}
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("Strategies: %d | Trades: %d | Total PnL: %.6f\n",
			len(performance.Strategies), performance.TotalTrades, performance.TotalPnL))
	} else {
		sb.WriteString("No closed trades yet.\n")
	}

	return sb.String()
}

func fmtPtr(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}
