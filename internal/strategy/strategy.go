// Package strategy defines the trading strategies that turn scored
// candidates and open positions into trade intents. Strategies are pure:
// they never touch the ledger, they only propose.
package strategy

import (
	"context"
	"errors"

	"pumpwatch/internal/domain"
)

// Strategy names.
const (
	NameEarlyEntry = "early-entry"
	NameTakeProfit = "take-profit"
	NameStopLoss   = "stop-loss"
)

// ErrNilInput is returned when Evaluate receives no input.
var ErrNilInput = errors.New("strategy input is nil")

// Strategy produces trade intents from a market snapshot.
type Strategy interface {
	// Name returns the strategy identifier recorded on resulting trades.
	Name() string

	// Evaluate inspects the input and returns zero or more intents.
	// Implementations must not mutate the input.
	Evaluate(ctx context.Context, input *Input) ([]*Intent, error)
}

// Input is the market snapshot a strategy evaluates against.
type Input struct {
	// Candidates are the scored tokens under watch, for entry decisions.
	Candidates []*domain.TokenAnalysis

	// Positions are the open positions with live prices attached where
	// available, for exit decisions.
	Positions []*domain.Position
}

// Intent is a proposed trade. The trader validates and submits it to the
// ledger; an intent carries no authority by itself.
type Intent struct {
	MintAddress string
	Side        domain.Side
	Quantity    float64
	Price       float64 // SOL per unit
	PriceUSD    float64 // USD per unit, 0 when unavailable
	Reason      string
	Score       float64 // buys only
	Strategy    string
}
