package domain

// MarketStats holds the raw market signals the scoring engine consumes.
// Optional signals are pointers; nil means the provider had no data, which
// is distinct from a zero value.
type MarketStats struct {
	MintAddress     string
	BuyCount        int
	SellCount       int
	DistinctBuyers  int
	DistinctSellers int
	BuyVolumeUSD    float64
	SellVolumeUSD   float64

	// TopHolderConcentration is the percentage of supply held by the
	// ten largest holders.
	TopHolderConcentration *float64

	// PoolBalance is the token balance across liquidity pools.
	PoolBalance *float64

	// BondingCurveProgress is marketCap / graduation threshold.
	BondingCurveProgress *float64

	// RecentPrices are chronological closes used for momentum.
	RecentPrices []float64
}

// ScoreBreakdown carries each sub-score on its 0-100 band plus the
// weighted total. A nil sub-score means the signal was absent and its
// weight was redistributed over the present signals.
type ScoreBreakdown struct {
	Activity     *float64
	Momentum     *float64
	Holders      *float64
	Liquidity    *float64
	BondingCurve *float64
	Total        float64 // always within [0, 100]
}

// Classification is the three-way outcome of scoring an instrument.
type Classification string

// Classifications.
const (
	ClassBuyCandidate  Classification = "buy"
	ClassSellCandidate Classification = "sell"
	ClassNeutral       Classification = "neutral"
)

// TokenAnalysis pairs a token with its score and classification, as served
// by the analysis endpoint and consumed by entry strategies.
type TokenAnalysis struct {
	Token          *Token
	Stats          *MarketStats
	Score          *ScoreBreakdown
	Classification Classification
	Reason         string
}
