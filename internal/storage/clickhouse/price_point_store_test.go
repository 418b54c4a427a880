package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pumpwatch/internal/domain"
	"pumpwatch/internal/storage"
)

func point(mint string, ts int64, price float64) *domain.PricePoint {
	return &domain.PricePoint{
		MintAddress: mint,
		TimestampMs: ts,
		Price:       price,
		PriceUSD:    price * 150,
	}
}

func TestPricePointStore_InsertBulkAndGetByMint(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPricePointStore(conn)
	ctx := context.Background()

	points := []*domain.PricePoint{
		point("mint-a", 2000, 0.012),
		point("mint-a", 1000, 0.010),
		point("mint-b", 1500, 0.020),
	}
	require.NoError(t, store.InsertBulk(ctx, points))

	got, err := store.GetByMint(ctx, "mint-a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1000), got[0].TimestampMs)
	assert.Equal(t, int64(2000), got[1].TimestampMs)
	assert.Equal(t, 0.010, got[0].Price)
	assert.Equal(t, 1.5, got[0].PriceUSD)
}

func TestPricePointStore_InsertBulkEmpty(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPricePointStore(conn)
	require.NoError(t, store.InsertBulk(context.Background(), nil))
}

func TestPricePointStore_InsertBulkIntraBatchDuplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPricePointStore(conn)
	ctx := context.Background()

	points := []*domain.PricePoint{
		point("mint-a", 1000, 0.010),
		point("mint-a", 1000, 0.011),
	}
	err := store.InsertBulk(ctx, points)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Nothing from the failed batch was written
	got, err := store.GetByMint(ctx, "mint-a")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPricePointStore_InsertBulkExistingDuplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPricePointStore(conn)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []*domain.PricePoint{point("mint-a", 1000, 0.010)}))

	err := store.InsertBulk(ctx, []*domain.PricePoint{
		point("mint-a", 2000, 0.012),
		point("mint-a", 1000, 0.010),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByMint(ctx, "mint-a")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestPricePointStore_GetByTimeRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPricePointStore(conn)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []*domain.PricePoint{
		point("mint-a", 1000, 0.010),
		point("mint-a", 2000, 0.011),
		point("mint-a", 3000, 0.012),
		point("mint-a", 4000, 0.013),
	}))

	// Bounds are inclusive
	got, err := store.GetByTimeRange(ctx, "mint-a", 2000, 3000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2000), got[0].TimestampMs)
	assert.Equal(t, int64(3000), got[1].TimestampMs)

	got, err = store.GetByTimeRange(ctx, "mint-a", 5000, 6000)
	require.NoError(t, err)
	assert.Empty(t, got)
}
