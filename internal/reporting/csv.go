package reporting

import (
	"fmt"
	"strings"

	"pumpwatch/internal/domain"
)

// RenderPerformanceCSV renders the per-strategy rollup as a CSV string.
func RenderPerformanceCSV(strategies []*domain.StrategyPerformance) string {
	var sb strings.Builder

	// Header
	sb.WriteString("strategy,total_trades,profitable_trades,loss_trades,win_rate,")
	sb.WriteString("total_pnl,avg_pnl_percent,max_profit_percent,max_loss_percent\n")

	// Rows
	for _, s := range strategies {
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%d,%.6f,%.6f,%.6f,%.6f,%.6f\n",
			s.Strategy,
			s.TotalTrades,
			s.ProfitableTrades,
			s.LossTrades,
			s.WinRate,
			s.TotalPnL,
			s.AvgPnLPercent,
			s.MaxProfitPercent,
			s.MaxLossPercent,
		))
	}

	return sb.String()
}
