package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pumpwatch/internal/domain"
	"pumpwatch/internal/storage"
)

// TradeRecordStore implements storage.TradeRecordStore using PostgreSQL.
// It is the durable journal behind the in-memory ledger.
type TradeRecordStore struct {
	pool *Pool
}

// NewTradeRecordStore creates a new TradeRecordStore.
func NewTradeRecordStore(pool *Pool) *TradeRecordStore {
	return &TradeRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)

const tradeRecordColumns = `
	trade_id, mint_address, side, quantity, price, price_usd,
	total_value, total_usd, reason, score, strategy, status, created_at,
	realized_pnl, realized_pnl_pct, realized_usd
`

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeRecordStore) Insert(ctx context.Context, t *domain.TradeRecord) error {
	query := `
		INSERT INTO trade_records (` + tradeRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := s.pool.Exec(ctx, query,
		t.TradeID, t.MintAddress, string(t.Side), t.Quantity, t.Price, t.PriceUSD,
		t.TotalValue, t.TotalUSD, t.Reason, t.Score, t.Strategy, string(t.Status), t.CreatedAt,
		t.RealizedPnL, t.RealizedPnLPct, t.RealizedUSD,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade record: %w", err)
	}
	return nil
}

// SetStatus updates a trade's status. Returns ErrNotFound if not exists.
func (s *TradeRecordStore) SetStatus(ctx context.Context, tradeID string, status domain.TradeStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE trade_records SET status = $2 WHERE trade_id = $1`,
		tradeID, string(status),
	)
	if err != nil {
		return fmt.Errorf("set trade status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SetRealized writes the realized PnL fields exactly once. Returns
// ErrDuplicateKey if they were already set, ErrNotFound if the trade does
// not exist.
func (s *TradeRecordStore) SetRealized(ctx context.Context, tradeID string, pnl, pnlPct, usd float64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE trade_records
		SET realized_pnl = $2, realized_pnl_pct = $3, realized_usd = $4
		WHERE trade_id = $1 AND realized_pnl IS NULL
	`, tradeID, pnl, pnlPct, usd)
	if err != nil {
		return fmt.Errorf("set realized pnl: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetByID(ctx, tradeID); err != nil {
			return err
		}
		return storage.ErrDuplicateKey
	}
	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeRecordStore) GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error) {
	query := `SELECT ` + tradeRecordColumns + ` FROM trade_records WHERE trade_id = $1`

	row := s.pool.QueryRow(ctx, query, tradeID)
	t, err := scanTradeRecord(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade record by id: %w", err)
	}
	return t, nil
}

// GetByMint retrieves all trades for a mint in chronological order.
func (s *TradeRecordStore) GetByMint(ctx context.Context, mint string) ([]*domain.TradeRecord, error) {
	query := `
		SELECT ` + tradeRecordColumns + `
		FROM trade_records
		WHERE mint_address = $1
		ORDER BY created_at ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("get trade records by mint: %w", err)
	}
	defer rows.Close()

	return scanTradeRecords(rows)
}

// GetAll retrieves all trades in chronological order.
func (s *TradeRecordStore) GetAll(ctx context.Context) ([]*domain.TradeRecord, error) {
	query := `
		SELECT ` + tradeRecordColumns + `
		FROM trade_records
		ORDER BY created_at ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all trade records: %w", err)
	}
	defer rows.Close()

	return scanTradeRecords(rows)
}

// scanTradeRecord scans a single row into a TradeRecord.
func scanTradeRecord(row pgx.Row) (*domain.TradeRecord, error) {
	var t domain.TradeRecord
	var side, status string

	err := row.Scan(
		&t.TradeID, &t.MintAddress, &side, &t.Quantity, &t.Price, &t.PriceUSD,
		&t.TotalValue, &t.TotalUSD, &t.Reason, &t.Score, &t.Strategy, &status, &t.CreatedAt,
		&t.RealizedPnL, &t.RealizedPnLPct, &t.RealizedUSD,
	)
	if err != nil {
		return nil, err
	}

	t.Side = domain.Side(side)
	t.Status = domain.TradeStatus(status)
	return &t, nil
}

// scanTradeRecords scans multiple rows into a slice of TradeRecord.
func scanTradeRecords(rows pgx.Rows) ([]*domain.TradeRecord, error) {
	var trades []*domain.TradeRecord

	for rows.Next() {
		t, err := scanTradeRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade record row: %w", err)
		}
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade record rows: %w", err)
	}

	return trades, nil
}
