package domain

import "time"

// Side distinguishes buy and sell trades.
type Side string

// Trade sides.
const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// TradeStatus tracks whether a buy still has unconsumed quantity.
// Sells are always closed; a buy is closed once later sells have
// consumed its full quantity.
type TradeStatus string

// Trade statuses.
const (
	TradeStatusOpen   TradeStatus = "open"
	TradeStatusClosed TradeStatus = "closed"
)

// TradeRecord is the append-only record of a simulated trade.
// It is immutable once created except for Status (buys flip to closed as
// sells consume them) and the realized-PnL fields, which are set exactly
// once when the sell is recorded.
type TradeRecord struct {
	TradeID     string // deterministic hash
	MintAddress string
	Side        Side
	Quantity    float64
	Price       float64 // unit price in SOL
	PriceUSD    float64 // unit price in USD, captured at trade time
	TotalValue  float64 // Quantity * Price
	TotalUSD    float64 // Quantity * PriceUSD
	Reason      string
	Score       float64 // heuristic score at decision time (buys only)
	Strategy    string
	Status      TradeStatus
	CreatedAt   time.Time

	// Set once at sell time from the cost basis of the lots consumed.
	RealizedPnL    *float64 // in SOL
	RealizedPnLPct *float64
	RealizedUSD    *float64 // quote-currency PnL, lot-time conversion for cost
}

// Realized returns the realized PnL, or 0 for buys.
func (t *TradeRecord) Realized() float64 {
	if t.RealizedPnL == nil {
		return 0
	}
	return *t.RealizedPnL
}
