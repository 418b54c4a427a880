// Package trader executes the strategy set against the ledger. Each cycle
// gathers a market snapshot, lets every strategy propose intents, and
// submits them. Strategies are isolated: one failing never blocks the
// others, and a rejected intent never aborts the cycle.
package trader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"pumpwatch/internal/domain"
	"pumpwatch/internal/ledger"
	"pumpwatch/internal/notify"
	"pumpwatch/internal/observability"
	"pumpwatch/internal/oracle"
	"pumpwatch/internal/strategy"
)

// CandidateSource supplies scored tokens for entry decisions.
type CandidateSource interface {
	Candidates(ctx context.Context) ([]*domain.TokenAnalysis, error)
}

// Publisher pushes trade events to subscribers. notify.Hub implements it.
type Publisher interface {
	Publish(eventType notify.EventType, payload interface{})
}

// Options configures a Trader.
type Options struct {
	Ledger     *ledger.Ledger
	Oracle     oracle.Oracle
	Candidates CandidateSource

	// EntryStrategies run on the buy cycle, ExitStrategies on the sell
	// cycle.
	EntryStrategies []strategy.Strategy
	ExitStrategies  []strategy.Strategy

	// Publisher is optional; nil disables notifications.
	Publisher Publisher
	Logger    zerolog.Logger
}

// Trader runs strategy cycles. Safe for concurrent use; the ledger
// serializes the actual mutations.
type Trader struct {
	ledger     *ledger.Ledger
	oracle     oracle.Oracle
	candidates CandidateSource
	entries    []strategy.Strategy
	exits      []strategy.Strategy
	publisher  Publisher
	log        zerolog.Logger
}

// New creates a trader.
func New(opts Options) *Trader {
	return &Trader{
		ledger:     opts.Ledger,
		oracle:     opts.Oracle,
		candidates: opts.Candidates,
		entries:    opts.EntryStrategies,
		exits:      opts.ExitStrategies,
		publisher:  opts.Publisher,
		log:        opts.Logger,
	}
}

// RunBuyCycle evaluates entry strategies against the current candidates
// and submits the resulting buys.
func (t *Trader) RunBuyCycle(ctx context.Context) error {
	candidates, err := t.candidates.Candidates(ctx)
	if err != nil {
		return fmt.Errorf("fetch candidates: %w", err)
	}

	input := &strategy.Input{
		Candidates: candidates,
		Positions:  t.pricedPositions(ctx),
	}
	return t.runStrategies(ctx, t.entries, input)
}

// RunSellCycle evaluates exit strategies against the open positions and
// submits the resulting sells.
func (t *Trader) RunSellCycle(ctx context.Context) error {
	input := &strategy.Input{
		Positions: t.pricedPositions(ctx),
	}
	return t.runStrategies(ctx, t.exits, input)
}

// pricedPositions snapshots open positions with live prices attached
// where the oracle can supply them.
func (t *Trader) pricedPositions(ctx context.Context) []*domain.Position {
	return t.ledger.AllOpenPositions(ctx, func(ctx context.Context, mint string) (float64, float64, time.Time, error) {
		quote, err := t.oracle.Quote(ctx, mint)
		if err != nil {
			observability.RecordOracleError()
			return 0, 0, time.Time{}, err
		}
		return quote.Price, quote.PriceUSD, quote.ObservedAt, nil
	})
}

// runStrategies evaluates each strategy and submits its intents. Strategy
// failures are collected, not fatal to the rest of the set.
func (t *Trader) runStrategies(ctx context.Context, strategies []strategy.Strategy, input *strategy.Input) error {
	var errs []error
	for _, s := range strategies {
		startedAt := time.Now()
		intents, err := s.Evaluate(ctx, input)
		elapsed := time.Since(startedAt).Seconds()
		if err != nil {
			observability.RecordStrategyRun(s.Name(), "error", elapsed)
			t.log.Error().Err(err).Str("strategy", s.Name()).Msg("strategy evaluation failed")
			errs = append(errs, fmt.Errorf("strategy %s: %w", s.Name(), err))
			continue
		}
		observability.RecordStrategyRun(s.Name(), "ok", elapsed)

		for _, intent := range intents {
			t.submit(ctx, intent)
		}
		t.publish(notify.EventStrategyRun, map[string]interface{}{
			"strategy": s.Name(),
			"intents":  len(intents),
		})
	}
	return errors.Join(errs...)
}

// submit records one intent on the ledger. Rejections are logged and
// counted, never propagated.
func (t *Trader) submit(ctx context.Context, intent *strategy.Intent) {
	observability.RecordIntent(intent.Strategy, string(intent.Side))

	var rec *domain.TradeRecord
	var err error
	switch intent.Side {
	case domain.SideBuy:
		rec, err = t.ledger.RecordBuy(ctx, ledger.BuyOrder{
			MintAddress: intent.MintAddress,
			Quantity:    intent.Quantity,
			Price:       intent.Price,
			PriceUSD:    intent.PriceUSD,
			Reason:      intent.Reason,
			Score:       intent.Score,
			Strategy:    intent.Strategy,
		})
	case domain.SideSell:
		rec, err = t.ledger.RecordSell(ctx, ledger.SellOrder{
			MintAddress: intent.MintAddress,
			Quantity:    intent.Quantity,
			Price:       intent.Price,
			PriceUSD:    intent.PriceUSD,
			Reason:      intent.Reason,
			Strategy:    intent.Strategy,
		})
	default:
		t.log.Error().Str("side", string(intent.Side)).Msg("intent with unknown side dropped")
		return
	}

	if err != nil {
		observability.RecordTradeRejected(string(intent.Side), rejectionReason(err))
		t.log.Warn().Err(err).
			Str("mint", intent.MintAddress).
			Str("side", string(intent.Side)).
			Str("strategy", intent.Strategy).
			Float64("quantity", intent.Quantity).
			Msg("trade rejected")
		return
	}

	observability.RecordTrade(string(rec.Side), rec.Strategy)
	t.log.Info().
		Str("trade_id", rec.TradeID).
		Str("mint", rec.MintAddress).
		Str("side", string(rec.Side)).
		Str("strategy", rec.Strategy).
		Float64("quantity", rec.Quantity).
		Float64("price", rec.Price).
		Msg("trade recorded")

	eventType := notify.EventTradeBuy
	if rec.Side == domain.SideSell {
		eventType = notify.EventTradeSell
	}
	t.publish(eventType, rec)
}

func (t *Trader) publish(eventType notify.EventType, payload interface{}) {
	if t.publisher == nil {
		return
	}
	t.publisher.Publish(eventType, payload)
}

// rejectionReason maps ledger errors to a bounded metric label.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInsufficientHolding):
		return "insufficient_holding"
	case errors.Is(err, ledger.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, ledger.ErrInvalidPrice):
		return "invalid_price"
	case errors.Is(err, ledger.ErrInstrumentUnknown):
		return "instrument_unknown"
	default:
		return "other"
	}
}
