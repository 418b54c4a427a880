package storage

import (
	"context"

	"pumpwatch/internal/domain"
)

// TradeRecordStore is the durable journal of simulated trades. Records are
// append-only; the realized-PnL fields and open/closed status are written
// with the record itself (sells) or finalized by later sells (buys).
type TradeRecordStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.TradeRecord) error

	// SetStatus marks a buy record open or closed as sells consume it.
	SetStatus(ctx context.Context, tradeID string, status domain.TradeStatus) error

	// SetRealized records a sell's realized PnL exactly once.
	SetRealized(ctx context.Context, tradeID string, pnl, pnlPct, pnlUSD float64) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error)

	// GetByMint retrieves all trades for a mint, ordered by created_at ASC.
	GetByMint(ctx context.Context, mint string) ([]*domain.TradeRecord, error)

	// GetAll retrieves all trades ordered by created_at ASC. The ledger
	// replays this sequence at startup.
	GetAll(ctx context.Context) ([]*domain.TradeRecord, error)
}

// TokenStore holds the registry of discovered tokens.
type TokenStore interface {
	// Upsert inserts a token or updates its mutable fields.
	Upsert(ctx context.Context, t *domain.Token) error

	// GetByMint retrieves a token. Returns ErrNotFound if not exists.
	GetByMint(ctx context.Context, mint string) (*domain.Token, error)

	// Recent retrieves the most recently created tokens, newest first.
	Recent(ctx context.Context, limit int) ([]*domain.Token, error)

	// Candidates retrieves unflagged tokens created at or after sinceMs
	// with nonzero trade volume, newest first.
	Candidates(ctx context.Context, sinceMs int64, limit int) ([]*domain.Token, error)
}

// PricePointStore holds observed prices per mint, appended by the
// refresh task and read back as the momentum series.
type PricePointStore interface {
	// InsertBulk adds multiple points. Fails entire batch on duplicate
	// (mint, timestamp_ms).
	InsertBulk(ctx context.Context, points []*domain.PricePoint) error

	// GetByMint retrieves all points for a mint, ordered by timestamp ASC.
	GetByMint(ctx context.Context, mint string) ([]*domain.PricePoint, error)

	// GetByTimeRange retrieves points for a mint within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, mint string, start, end int64) ([]*domain.PricePoint, error)
}
