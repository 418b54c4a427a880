package domain

import "time"

// Token represents a tracked token on the DEX.
// Discovery and refresh keep LastPrice and the activity counters current;
// the ledger and strategies only ever read this data.
type Token struct {
	MintAddress string
	Name        string
	Symbol      string
	Decimals    int
	URI         string
	Creator     string
	CreatedAt   time.Time // on-chain creation time

	// Market snapshot, updated by the refresh task.
	LastPrice    float64 // in SOL
	LastPriceUSD float64
	TradeVolume  float64 // cumulative traded volume in USD
	BuyCount     int
	SellCount    int
	HolderCount  int

	// BondingCurveProgress is marketCap / graduation threshold.
	// >= 1 means the token is eligible to graduate to an external DEX.
	BondingCurveProgress float64

	Flagged   bool // excluded from entry strategies
	UpdatedAt time.Time
}

// AboutToGraduate reports whether the token is close to bonding-curve
// graduation (progress >= 0.9).
func (t *Token) AboutToGraduate() bool {
	return t.BondingCurveProgress >= 0.9
}
