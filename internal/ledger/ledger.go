// Package ledger implements the simulated position ledger: FIFO cost-basis
// accounting over append-only trade records, with per-strategy performance
// rollups. The in-memory state is authoritative; an optional journal store
// receives every accepted trade for durability and restart replay.
package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pumpwatch/internal/domain"
	"pumpwatch/internal/idhash"
	"pumpwatch/internal/storage"
)

// Quantities below this are treated as zero when consuming lots.
const quantityEpsilon = 1e-9

// PriceFunc supplies a live price for a mint. Returning an error degrades
// the position to cost-basis-only fields.
type PriceFunc func(ctx context.Context, mint string) (price, priceUSD float64, observedAt time.Time, err error)

// lot is an open slice of a buy: the portion of its quantity not yet
// consumed by later sells, priced at the buy's unit cost.
type lot struct {
	tradeID     string
	remaining   float64
	unitCost    float64 // SOL per unit at buy time
	unitCostUSD float64 // USD per unit at buy time
}

// book is the per-mint accounting state.
type book struct {
	lots        []*lot // FIFO, oldest first
	totalBought float64
	totalSold   float64
	realized    float64 // SOL
}

// BuyOrder describes an accepted buy decision.
type BuyOrder struct {
	MintAddress string
	Quantity    float64
	Price       float64 // SOL per unit
	PriceUSD    float64 // USD per unit, 0 when conversion unavailable
	Reason      string
	Score       float64
	Strategy    string
}

// SellOrder describes an accepted sell decision.
type SellOrder struct {
	MintAddress string
	Quantity    float64
	Price       float64
	PriceUSD    float64
	Reason      string
	Strategy    string
}

// Options configures a Ledger.
type Options struct {
	// Journal receives every accepted trade. Journal failures are logged
	// and do not fail the trade; memory stays authoritative. Nil disables
	// journaling.
	Journal storage.TradeRecordStore

	Logger zerolog.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Ledger is the simulated position ledger. All methods are safe for
// concurrent use.
type Ledger struct {
	mu      sync.Mutex
	books   map[string]*book
	records []*domain.TradeRecord // insertion order
	byID    map[string]*domain.TradeRecord
	seq     uint64

	journal storage.TradeRecordStore
	log     zerolog.Logger
	now     func() time.Time
}

// New creates an empty ledger.
func New(opts Options) *Ledger {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Ledger{
		books:   make(map[string]*book),
		byID:    make(map[string]*domain.TradeRecord),
		journal: opts.Journal,
		log:     opts.Logger,
		now:     now,
	}
}

// RecordBuy appends a buy, opening a new lot at the tail of the mint's
// FIFO queue. Returns a copy of the created record.
func (l *Ledger) RecordBuy(ctx context.Context, order BuyOrder) (*domain.TradeRecord, error) {
	if order.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if order.Price <= 0 {
		return nil, ErrInvalidPrice
	}

	l.mu.Lock()
	l.seq++
	createdAt := l.now()
	rec := &domain.TradeRecord{
		TradeID:     idhash.ComputeTradeID(order.MintAddress, string(domain.SideBuy), order.Strategy, createdAt.UnixNano(), l.seq),
		MintAddress: order.MintAddress,
		Side:        domain.SideBuy,
		Quantity:    order.Quantity,
		Price:       order.Price,
		PriceUSD:    order.PriceUSD,
		TotalValue:  order.Quantity * order.Price,
		TotalUSD:    order.Quantity * order.PriceUSD,
		Reason:      order.Reason,
		Score:       order.Score,
		Strategy:    order.Strategy,
		Status:      domain.TradeStatusOpen,
		CreatedAt:   createdAt,
	}
	l.applyBuy(rec)
	out := *rec
	l.mu.Unlock()

	l.journalInsert(ctx, &out)
	return &out, nil
}

// RecordSell consumes open lots oldest-first and appends a closed sell
// carrying the realized PnL against the consumed lots' cost basis. An
// oversell is rejected atomically with an InsufficientHoldingError.
func (l *Ledger) RecordSell(ctx context.Context, order SellOrder) (*domain.TradeRecord, error) {
	if order.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if order.Price <= 0 {
		return nil, ErrInvalidPrice
	}

	l.mu.Lock()
	b, exists := l.books[order.MintAddress]
	if !exists {
		l.mu.Unlock()
		return nil, ErrInstrumentUnknown
	}

	holding := b.totalBought - b.totalSold
	if order.Quantity > holding+quantityEpsilon {
		l.mu.Unlock()
		return nil, &InsufficientHoldingError{
			MintAddress: order.MintAddress,
			Requested:   order.Quantity,
			Holding:     holding,
		}
	}

	costConsumed, costConsumedUSD, closedBuys := b.consume(order.Quantity)
	for _, id := range closedBuys {
		if buy, ok := l.byID[id]; ok {
			buy.Status = domain.TradeStatusClosed
		}
	}

	realized := order.Quantity*order.Price - costConsumed
	realizedUSD := order.Quantity*order.PriceUSD - costConsumedUSD
	var realizedPct float64
	if costConsumed > 0 {
		realizedPct = realized / costConsumed * 100
	}

	l.seq++
	createdAt := l.now()
	rec := &domain.TradeRecord{
		TradeID:        idhash.ComputeTradeID(order.MintAddress, string(domain.SideSell), order.Strategy, createdAt.UnixNano(), l.seq),
		MintAddress:    order.MintAddress,
		Side:           domain.SideSell,
		Quantity:       order.Quantity,
		Price:          order.Price,
		PriceUSD:       order.PriceUSD,
		TotalValue:     order.Quantity * order.Price,
		TotalUSD:       order.Quantity * order.PriceUSD,
		Reason:         order.Reason,
		Strategy:       order.Strategy,
		Status:         domain.TradeStatusClosed,
		CreatedAt:      createdAt,
		RealizedPnL:    &realized,
		RealizedPnLPct: &realizedPct,
		RealizedUSD:    &realizedUSD,
	}
	l.records = append(l.records, rec)
	l.byID[rec.TradeID] = rec
	b.totalSold += order.Quantity
	b.realized += realized
	out := *rec
	l.mu.Unlock()

	l.journalInsert(ctx, &out)
	for _, id := range closedBuys {
		l.journalSetStatus(ctx, id, domain.TradeStatusClosed)
	}
	return &out, nil
}

// applyBuy mutates state under the lock.
func (l *Ledger) applyBuy(rec *domain.TradeRecord) {
	b := l.books[rec.MintAddress]
	if b == nil {
		b = &book{}
		l.books[rec.MintAddress] = b
	}
	b.lots = append(b.lots, &lot{
		tradeID:     rec.TradeID,
		remaining:   rec.Quantity,
		unitCost:    rec.Price,
		unitCostUSD: rec.PriceUSD,
	})
	b.totalBought += rec.Quantity
	l.records = append(l.records, rec)
	l.byID[rec.TradeID] = rec
}

// consume walks open lots oldest-first, reducing them by qty. Returns the
// SOL and USD cost of the consumed quantity and the trade IDs of buys
// whose lots were fully drained. Caller guarantees qty <= holding.
func (b *book) consume(qty float64) (cost, costUSD float64, closedBuys []string) {
	remaining := qty
	drained := 0
	for _, lt := range b.lots {
		if remaining <= quantityEpsilon {
			break
		}
		take := lt.remaining
		if take > remaining {
			take = remaining
		}
		cost += take * lt.unitCost
		costUSD += take * lt.unitCostUSD
		lt.remaining -= take
		remaining -= take
		if lt.remaining <= quantityEpsilon {
			closedBuys = append(closedBuys, lt.tradeID)
			drained++
		}
	}
	b.lots = b.lots[drained:]
	return cost, costUSD, closedBuys
}

// CurrentHolding returns the open quantity for a mint, 0 if never traded.
func (l *Ledger) CurrentHolding(mint string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.books[mint]
	if !exists {
		return 0
	}
	return b.totalBought - b.totalSold
}

// OpenMints returns the mints with a nonzero holding, sorted.
func (l *Ledger) OpenMints() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var mints []string
	for mint, b := range l.books {
		if b.totalBought-b.totalSold > quantityEpsilon {
			mints = append(mints, mint)
		}
	}
	sort.Strings(mints)
	return mints
}

// Snapshot returns the cost-basis position for a mint. Price-dependent
// fields are left nil; callers attach a live price via AllOpenPositions
// or by filling them from an oracle quote.
func (l *Ledger) Snapshot(mint string) (*domain.Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.books[mint]
	if !exists {
		return nil, ErrInstrumentUnknown
	}
	return b.position(mint), nil
}

// position builds a price-less snapshot. Caller holds the lock.
func (b *book) position(mint string) *domain.Position {
	var costBasis float64
	for _, lt := range b.lots {
		costBasis += lt.remaining * lt.unitCost
	}
	holding := b.totalBought - b.totalSold
	pos := &domain.Position{
		MintAddress: mint,
		TotalBought: b.totalBought,
		TotalSold:   b.totalSold,
		Holding:     holding,
		CostBasis:   costBasis,
		RealizedPnL: b.realized,
	}
	if holding > quantityEpsilon {
		pos.AverageCost = costBasis / holding
	}
	return pos
}

// AllOpenPositions snapshots every open position, then prices each one via
// priceFn outside the ledger lock. Positions whose price lookup fails keep
// nil price fields.
func (l *Ledger) AllOpenPositions(ctx context.Context, priceFn PriceFunc) []*domain.Position {
	l.mu.Lock()
	var positions []*domain.Position
	for mint, b := range l.books {
		if b.totalBought-b.totalSold <= quantityEpsilon {
			continue
		}
		positions = append(positions, b.position(mint))
	}
	l.mu.Unlock()

	sort.Slice(positions, func(i, j int) bool {
		return positions[i].MintAddress < positions[j].MintAddress
	})

	if priceFn == nil {
		return positions
	}
	for _, pos := range positions {
		price, priceUSD, observedAt, err := priceFn(ctx, pos.MintAddress)
		if err != nil {
			l.log.Warn().Err(err).Str("mint", pos.MintAddress).Msg("price unavailable, returning partial position")
			continue
		}
		ApplyPrice(pos, price, priceUSD, observedAt)
	}
	return positions
}

// ApplyPrice fills the price-dependent fields of a position from a quote.
func ApplyPrice(pos *domain.Position, price, priceUSD float64, observedAt time.Time) {
	value := pos.Holding * price
	unrealized := value - pos.CostBasis
	total := pos.RealizedPnL + unrealized

	pos.CurrentPrice = &price
	pos.CurrentPriceUSD = &priceUSD
	pos.PriceObservedAt = &observedAt
	pos.CurrentValue = &value
	pos.UnrealizedPnL = &unrealized
	pos.TotalPnL = &total
	if pos.CostBasis > 0 {
		pct := total / pos.CostBasis * 100
		pos.PnLPercent = &pct
	}
}

// TradeHistory returns trade records in chronological order. An empty mint
// returns the full history. Records are copies.
func (l *Ledger) TradeHistory(mint string) []*domain.TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*domain.TradeRecord
	for _, rec := range l.records {
		if mint != "" && rec.MintAddress != mint {
			continue
		}
		c := *rec
		out = append(out, &c)
	}
	return out
}

// StrategyPerformance rolls up closed sells per strategy, sorted by
// strategy name.
func (l *Ledger) StrategyPerformance() []*domain.StrategyPerformance {
	l.mu.Lock()
	defer l.mu.Unlock()

	byStrategy := make(map[string]*domain.StrategyPerformance)
	pctSums := make(map[string]float64)
	for _, rec := range l.records {
		if rec.Side != domain.SideSell || rec.RealizedPnL == nil {
			continue
		}
		perf := byStrategy[rec.Strategy]
		if perf == nil {
			perf = &domain.StrategyPerformance{Strategy: rec.Strategy}
			byStrategy[rec.Strategy] = perf
		}
		pnl := *rec.RealizedPnL
		pct := 0.0
		if rec.RealizedPnLPct != nil {
			pct = *rec.RealizedPnLPct
		}

		perf.TotalTrades++
		perf.TotalPnL += pnl
		pctSums[rec.Strategy] += pct
		if pnl > 0 {
			perf.ProfitableTrades++
		} else if pnl < 0 {
			perf.LossTrades++
		}
		if perf.TotalTrades == 1 || pct > perf.MaxProfitPercent {
			perf.MaxProfitPercent = pct
		}
		if perf.TotalTrades == 1 || pct < perf.MaxLossPercent {
			perf.MaxLossPercent = pct
		}
	}

	out := make([]*domain.StrategyPerformance, 0, len(byStrategy))
	for name, perf := range byStrategy {
		perf.WinRate = float64(perf.ProfitableTrades) / float64(perf.TotalTrades) * 100
		perf.AvgPnLPercent = pctSums[name] / float64(perf.TotalTrades)
		out = append(out, perf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Strategy < out[j].Strategy })
	return out
}

// Restore replays journaled records into an empty ledger, oldest first.
// Replay recomputes lot state from the buys and sells themselves; the
// records' stored status and realized fields are kept as-is. Records are
// not re-journaled.
func (l *Ledger) Restore(records []*domain.TradeRecord) error {
	sorted := make([]*domain.TradeRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].TradeID < sorted[j].TradeID
	})

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, rec := range sorted {
		c := *rec
		switch c.Side {
		case domain.SideBuy:
			l.applyBuy(&c)
		case domain.SideSell:
			b := l.books[c.MintAddress]
			if b == nil {
				return &InsufficientHoldingError{MintAddress: c.MintAddress, Requested: c.Quantity}
			}
			holding := b.totalBought - b.totalSold
			if c.Quantity > holding+quantityEpsilon {
				return &InsufficientHoldingError{MintAddress: c.MintAddress, Requested: c.Quantity, Holding: holding}
			}
			b.consume(c.Quantity)
			b.totalSold += c.Quantity
			b.realized += c.Realized()
			l.records = append(l.records, &c)
			l.byID[c.TradeID] = &c
		default:
			return storage.ErrInvalidInput
		}
	}
	l.seq = uint64(len(l.records))
	return nil
}

func (l *Ledger) journalInsert(ctx context.Context, rec *domain.TradeRecord) {
	if l.journal == nil {
		return
	}
	if err := l.journal.Insert(ctx, rec); err != nil {
		l.log.Error().Err(err).Str("trade_id", rec.TradeID).Msg("journal insert failed")
	}
}

func (l *Ledger) journalSetStatus(ctx context.Context, tradeID string, status domain.TradeStatus) {
	if l.journal == nil {
		return
	}
	if err := l.journal.SetStatus(ctx, tradeID, status); err != nil {
		l.log.Error().Err(err).Str("trade_id", tradeID).Msg("journal status update failed")
	}
}
