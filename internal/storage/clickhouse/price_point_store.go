package clickhouse

import (
	"context"
	"fmt"

	"pumpwatch/internal/domain"
	"pumpwatch/internal/storage"
)

// PricePointStore implements storage.PricePointStore using ClickHouse.
type PricePointStore struct {
	conn *Conn
}

// NewPricePointStore creates a new PricePointStore.
func NewPricePointStore(conn *Conn) *PricePointStore {
	return &PricePointStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PricePointStore = (*PricePointStore)(nil)

// InsertBulk adds multiple points. Fails entire batch on duplicate (mint_address, timestamp_ms).
func (s *PricePointStore) InsertBulk(ctx context.Context, points []*domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		mintAddress string
		timestampMs int64
	}
	seen := make(map[key]struct{})
	for _, p := range points {
		k := key{p.MintAddress, p.TimestampMs}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows. MergeTree does not
	// enforce uniqueness at insert time.
	for _, p := range points {
		exists, err := s.exists(ctx, p.MintAddress, p.TimestampMs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_points (
			mint_address, timestamp_ms, price, price_usd
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			p.MintAddress, uint64(p.TimestampMs), p.Price, p.PriceUSD,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByMint retrieves all points for a mint, ordered by timestamp ASC.
func (s *PricePointStore) GetByMint(ctx context.Context, mint string) ([]*domain.PricePoint, error) {
	query := `
		SELECT mint_address, timestamp_ms, price, price_usd
		FROM price_points
		WHERE mint_address = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("query by mint: %w", err)
	}
	defer rows.Close()

	return scanPricePoints(rows)
}

// GetByTimeRange retrieves points for a mint within [start, end] (inclusive).
func (s *PricePointStore) GetByTimeRange(ctx context.Context, mint string, start, end int64) ([]*domain.PricePoint, error) {
	query := `
		SELECT mint_address, timestamp_ms, price, price_usd
		FROM price_points
		WHERE mint_address = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, mint, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanPricePoints(rows)
}

// exists checks if a point with the given key exists.
func (s *PricePointStore) exists(ctx context.Context, mint string, timestampMs int64) (bool, error) {
	query := `
		SELECT count(*) FROM price_points
		WHERE mint_address = ? AND timestamp_ms = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, mint, uint64(timestampMs)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanPricePoints scans multiple rows into a slice.
func scanPricePoints(rows chRows) ([]*domain.PricePoint, error) {
	var points []*domain.PricePoint

	for rows.Next() {
		var p domain.PricePoint
		var timestampMs uint64

		err := rows.Scan(&p.MintAddress, &timestampMs, &p.Price, &p.PriceUSD)
		if err != nil {
			return nil, fmt.Errorf("scan price point row: %w", err)
		}

		p.TimestampMs = int64(timestampMs)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price point rows: %w", err)
	}

	return points, nil
}
