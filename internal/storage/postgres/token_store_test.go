package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pumpwatch/internal/domain"
	"pumpwatch/internal/storage"
	"pumpwatch/internal/storage/postgres"
)

func testToken(mint string, createdAt time.Time) *domain.Token {
	return &domain.Token{
		MintAddress:          mint,
		Name:                 "Test Token",
		Symbol:               "TST",
		Decimals:             6,
		URI:                  "https://example.com/meta.json",
		Creator:              "creator-1",
		CreatedAt:            createdAt,
		LastPrice:            0.01,
		LastPriceUSD:         1.5,
		TradeVolume:          1000,
		BuyCount:             10,
		SellCount:            5,
		HolderCount:          42,
		BondingCurveProgress: 0.5,
		UpdatedAt:            createdAt,
	}
}

func TestTokenStore_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewTokenStore(pool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	tok := testToken("mint-a", now)
	require.NoError(t, store.Upsert(ctx, tok))

	got, err := store.GetByMint(ctx, "mint-a")
	require.NoError(t, err)
	assert.Equal(t, "Test Token", got.Name)
	assert.Equal(t, 6, got.Decimals)
	assert.Equal(t, 0.5, got.BondingCurveProgress)
	assert.False(t, got.Flagged)

	// Upsert updates mutable fields in place
	tok.LastPrice = 0.02
	tok.Flagged = true
	tok.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, store.Upsert(ctx, tok))

	got, err = store.GetByMint(ctx, "mint-a")
	require.NoError(t, err)
	assert.Equal(t, 0.02, got.LastPrice)
	assert.True(t, got.Flagged)
}

func TestTokenStore_UpsertInvalid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewTokenStore(pool)
	ctx := context.Background()

	assert.ErrorIs(t, store.Upsert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Upsert(ctx, &domain.Token{}), storage.ErrInvalidInput)
}

func TestTokenStore_GetByMintNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewTokenStore(pool)

	_, err := store.GetByMint(context.Background(), "no-such-mint")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTokenStore_Recent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewTokenStore(pool)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, store.Upsert(ctx, testToken("mint-old", base.Add(-2*time.Hour))))
	require.NoError(t, store.Upsert(ctx, testToken("mint-new", base)))
	require.NoError(t, store.Upsert(ctx, testToken("mint-mid", base.Add(-time.Hour))))

	tokens, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "mint-new", tokens[0].MintAddress)
	assert.Equal(t, "mint-mid", tokens[1].MintAddress)
}

func TestTokenStore_Candidates(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewTokenStore(pool)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	fresh := testToken("mint-fresh", base.Add(-time.Hour))
	require.NoError(t, store.Upsert(ctx, fresh))

	stale := testToken("mint-stale", base.Add(-48*time.Hour))
	require.NoError(t, store.Upsert(ctx, stale))

	flagged := testToken("mint-flagged", base.Add(-time.Hour))
	flagged.Flagged = true
	require.NoError(t, store.Upsert(ctx, flagged))

	inactive := testToken("mint-inactive", base.Add(-time.Hour))
	inactive.TradeVolume = 0
	require.NoError(t, store.Upsert(ctx, inactive))

	since := base.Add(-24 * time.Hour).UnixMilli()
	candidates, err := store.Candidates(ctx, since, 10)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "mint-fresh", candidates[0].MintAddress)
}
