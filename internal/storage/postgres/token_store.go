package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pumpwatch/internal/domain"
	"pumpwatch/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

const tokenColumns = `
	mint_address, name, symbol, decimals, uri, creator, created_at,
	last_price, last_price_usd, trade_volume, buy_count, sell_count,
	holder_count, bonding_curve_progress, flagged, updated_at
`

// Upsert inserts a token or updates its mutable fields.
func (s *TokenStore) Upsert(ctx context.Context, t *domain.Token) error {
	if t == nil || t.MintAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO tokens (` + tokenColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (mint_address) DO UPDATE SET
			name = EXCLUDED.name,
			symbol = EXCLUDED.symbol,
			uri = EXCLUDED.uri,
			last_price = EXCLUDED.last_price,
			last_price_usd = EXCLUDED.last_price_usd,
			trade_volume = EXCLUDED.trade_volume,
			buy_count = EXCLUDED.buy_count,
			sell_count = EXCLUDED.sell_count,
			holder_count = EXCLUDED.holder_count,
			bonding_curve_progress = EXCLUDED.bonding_curve_progress,
			flagged = EXCLUDED.flagged,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		t.MintAddress, t.Name, t.Symbol, t.Decimals, t.URI, t.Creator, t.CreatedAt,
		t.LastPrice, t.LastPriceUSD, t.TradeVolume, t.BuyCount, t.SellCount,
		t.HolderCount, t.BondingCurveProgress, t.Flagged, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

// GetByMint retrieves a token. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByMint(ctx context.Context, mint string) (*domain.Token, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE mint_address = $1`

	row := s.pool.QueryRow(ctx, query, mint)
	t, err := scanToken(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token by mint: %w", err)
	}
	return t, nil
}

// Recent retrieves the most recently created tokens, newest first.
func (s *TokenStore) Recent(ctx context.Context, limit int) ([]*domain.Token, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		ORDER BY created_at DESC, mint_address ASC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent tokens: %w", err)
	}
	defer rows.Close()

	return scanTokens(rows)
}

// Candidates retrieves unflagged tokens created at or after sinceMs with
// nonzero trade volume, newest first.
func (s *TokenStore) Candidates(ctx context.Context, sinceMs int64, limit int) ([]*domain.Token, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		WHERE flagged = FALSE
		  AND trade_volume > 0
		  AND created_at >= to_timestamp($1::double precision / 1000)
		ORDER BY created_at DESC, mint_address ASC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, sinceMs, limit)
	if err != nil {
		return nil, fmt.Errorf("get candidate tokens: %w", err)
	}
	defer rows.Close()

	return scanTokens(rows)
}

// scanToken scans a single row into a Token.
func scanToken(row pgx.Row) (*domain.Token, error) {
	var t domain.Token

	err := row.Scan(
		&t.MintAddress, &t.Name, &t.Symbol, &t.Decimals, &t.URI, &t.Creator, &t.CreatedAt,
		&t.LastPrice, &t.LastPriceUSD, &t.TradeVolume, &t.BuyCount, &t.SellCount,
		&t.HolderCount, &t.BondingCurveProgress, &t.Flagged, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// scanTokens scans multiple rows into a slice of Token.
func scanTokens(rows pgx.Rows) ([]*domain.Token, error) {
	var tokens []*domain.Token

	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token row: %w", err)
		}
		tokens = append(tokens, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token rows: %w", err)
	}

	return tokens, nil
}
