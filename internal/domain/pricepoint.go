package domain

// PricePoint is one observed price for a mint, appended by the refresh
// task and read back for momentum scoring.
type PricePoint struct {
	MintAddress string
	TimestampMs int64 // observation time, Unix milliseconds
	Price       float64
	PriceUSD    float64
}
