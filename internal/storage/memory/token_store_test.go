package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"pumpwatch/internal/domain"
	"pumpwatch/internal/storage"
)

func makeToken(mint string, createdAt time.Time, volume float64, flagged bool) *domain.Token {
	return &domain.Token{
		MintAddress: mint,
		Name:        "Token " + mint,
		Symbol:      "TK",
		CreatedAt:   createdAt,
		TradeVolume: volume,
		Flagged:     flagged,
	}
}

func TestTokenStore_UpsertAndGet(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	tok := makeToken("mint1", time.Unix(1000, 0), 100, false)
	if err := store.Upsert(ctx, tok); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := store.GetByMint(ctx, "mint1")
	if err != nil {
		t.Fatalf("GetByMint failed: %v", err)
	}
	if got.TradeVolume != 100 {
		t.Errorf("TradeVolume mismatch: got %f", got.TradeVolume)
	}

	// Upsert updates in place
	tok.TradeVolume = 250
	if err := store.Upsert(ctx, tok); err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}
	got, _ = store.GetByMint(ctx, "mint1")
	if got.TradeVolume != 250 {
		t.Errorf("Upsert did not update: got %f", got.TradeVolume)
	}
}

func TestTokenStore_NotFound(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	_, err := store.GetByMint(ctx, "nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestTokenStore_RecentNewestFirst(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	for _, tok := range []*domain.Token{
		makeToken("old", time.Unix(1000, 0), 10, false),
		makeToken("new", time.Unix(3000, 0), 10, false),
		makeToken("mid", time.Unix(2000, 0), 10, false),
	} {
		if err := store.Upsert(ctx, tok); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	result, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 tokens, got %d", len(result))
	}
	if result[0].MintAddress != "new" || result[1].MintAddress != "mid" {
		t.Errorf("Wrong order: %s, %s", result[0].MintAddress, result[1].MintAddress)
	}
}

func TestTokenStore_CandidatesFilters(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	for _, tok := range []*domain.Token{
		makeToken("active", time.Unix(5000, 0), 100, false),
		makeToken("flagged", time.Unix(5000, 0), 100, true),
		makeToken("no-volume", time.Unix(5000, 0), 0, false),
		makeToken("too-old", time.Unix(1000, 0), 100, false),
	} {
		if err := store.Upsert(ctx, tok); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	result, err := store.Candidates(ctx, time.Unix(2000, 0).UnixMilli(), 10)
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(result))
	}
	if result[0].MintAddress != "active" {
		t.Errorf("Wrong candidate: %s", result[0].MintAddress)
	}
}
