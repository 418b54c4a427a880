package marketdata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPClient_RecentTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("expected bearer auth, got %q", got)
		}

		var req graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Variables["limit"] != float64(2) {
			t.Errorf("expected limit 2, got %v", req.Variables["limit"])
		}

		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"tokens": []map[string]interface{}{
					{
						"mintAddress":          "mintA",
						"name":                 "Token A",
						"symbol":               "TKA",
						"decimals":             6,
						"createdAt":            int64(1700000000000),
						"lastPriceSol":         0.005,
						"lastPriceUsd":         0.75,
						"tradeVolumeSol":       120.5,
						"buyCount":             40,
						"sellCount":            10,
						"holderCount":          25,
						"bondingCurveProgress": 0.35,
					},
					{
						"mintAddress": "mintB",
						"name":        "Token B",
						"symbol":      "TKB",
						"createdAt":   int64(1700000100000),
					},
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-key")
	ctx := context.Background()

	tokens, err := client.RecentTokens(ctx, 2)
	if err != nil {
		t.Fatalf("RecentTokens: %v", err)
	}

	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(tokens))
	}

	first := tokens[0]
	if first.MintAddress != "mintA" {
		t.Errorf("expected mintA, got %s", first.MintAddress)
	}
	if first.LastPrice != 0.005 {
		t.Errorf("expected last price 0.005, got %f", first.LastPrice)
	}
	if first.BuyCount != 40 || first.SellCount != 10 {
		t.Errorf("expected counts 40/10, got %d/%d", first.BuyCount, first.SellCount)
	}
	if !first.CreatedAt.Equal(time.UnixMilli(1700000000000).UTC()) {
		t.Errorf("unexpected createdAt: %v", first.CreatedAt)
	}
}

func TestHTTPClient_TokenStats_OptionalSignals(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"tokenStats": map[string]interface{}{
					"buyCount":               100,
					"sellCount":              60,
					"distinctBuyers":         45,
					"distinctSellers":        30,
					"buyVolumeUsd":           5000.0,
					"sellVolumeUsd":          2000.0,
					"topHolderConcentration": nil,
					"poolBalanceSol":         42.5,
					"bondingCurveProgress":   nil,
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "")
	ctx := context.Background()

	stats, err := client.TokenStats(ctx, "mintA", time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("TokenStats: %v", err)
	}

	if stats.MintAddress != "mintA" {
		t.Errorf("expected mintA, got %s", stats.MintAddress)
	}
	if stats.BuyCount != 100 || stats.SellCount != 60 {
		t.Errorf("expected counts 100/60, got %d/%d", stats.BuyCount, stats.SellCount)
	}
	if stats.TopHolderConcentration != nil {
		t.Errorf("expected nil concentration, got %v", *stats.TopHolderConcentration)
	}
	if stats.PoolBalance == nil || *stats.PoolBalance != 42.5 {
		t.Errorf("expected pool balance 42.5, got %v", stats.PoolBalance)
	}
	if stats.BondingCurveProgress != nil {
		t.Errorf("expected nil progress, got %v", *stats.BondingCurveProgress)
	}
}

func TestHTTPClient_TokenPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"tokenPrice": map[string]interface{}{
					"priceSol":   0.0025,
					"priceUsd":   0.375,
					"observedAt": int64(1700000050000),
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "")
	ctx := context.Background()

	quote, err := client.TokenPrice(ctx, "mintA")
	if err != nil {
		t.Fatalf("TokenPrice: %v", err)
	}

	if quote.Price != 0.0025 {
		t.Errorf("expected price 0.0025, got %f", quote.Price)
	}
	if quote.PriceUSD != 0.375 {
		t.Errorf("expected USD price 0.375, got %f", quote.PriceUSD)
	}
	if !quote.ObservedAt.Equal(time.UnixMilli(1700000050000).UTC()) {
		t.Errorf("unexpected observedAt: %v", quote.ObservedAt)
	}
}

func TestHTTPClient_PriceHistory_ChronologicalOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Newest first, as the API delivers
		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"priceHistory": []map[string]interface{}{
					{"timestampMs": int64(3000), "priceSol": 0.3},
					{"timestampMs": int64(2000), "priceSol": 0.2},
					{"timestampMs": int64(1000), "priceSol": 0.1},
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "")
	ctx := context.Background()

	points, err := client.PriceHistory(ctx, "mintA", 3)
	if err != nil {
		t.Fatalf("PriceHistory: %v", err)
	}

	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	for i, wantTs := range []int64{1000, 2000, 3000} {
		if points[i].TimestampMs != wantTs {
			t.Errorf("point %d: got ts %d, want %d", i, points[i].TimestampMs, wantTs)
		}
		if points[i].MintAddress != "mintA" {
			t.Errorf("point %d: mint not set", i)
		}
	}
}

func TestHTTPClient_GraphQLErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		resp := map[string]interface{}{
			"errors": []map[string]interface{}{
				{"message": "unknown mint"},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", WithRetryDelay(time.Millisecond))
	ctx := context.Background()

	_, err := client.TokenPrice(ctx, "bad-mint")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if calls.Load() != 1 {
		t.Errorf("graphql error should not retry, got %d calls", calls.Load())
	}
}

func TestHTTPClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"tokenPrice": map[string]interface{}{
					"priceSol": 0.01,
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", WithRetryDelay(time.Millisecond))
	ctx := context.Background()

	quote, err := client.TokenPrice(ctx, "mintA")
	if err != nil {
		t.Fatalf("TokenPrice after retries: %v", err)
	}
	if quote.Price != 0.01 {
		t.Errorf("expected price 0.01, got %f", quote.Price)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}
