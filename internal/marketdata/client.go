// Package marketdata implements the GraphQL client for the token indexer
// API. All reads the monitor needs (new tokens, trade stats, prices) come
// through here.
package marketdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"pumpwatch/internal/domain"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPClient implements Client over GraphQL HTTP POST.
type HTTPClient struct {
	endpoint    string
	apiKey      string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new indexer API client. The API key is sent as a
// Bearer token; pass empty for unauthenticated endpoints.
func NewHTTPClient(endpoint, apiKey string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		apiKey:      apiKey,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// graphqlRequest is the GraphQL HTTP request body.
type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// graphqlResponse is the GraphQL HTTP response envelope.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors []graphqlError  `json:"errors,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

func (e *graphqlError) Error() string {
	return fmt.Sprintf("graphql error: %s", e.Message)
}

// query performs a GraphQL call with retries and exponential backoff.
func (c *HTTPClient) query(ctx context.Context, document string, variables map[string]interface{}, result interface{}) error {
	body, err := json.Marshal(graphqlRequest{Query: document, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var gqlResp graphqlResponse
		if err := json.Unmarshal(respBody, &gqlResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if len(gqlResp.Errors) > 0 {
			// GraphQL errors are not retried
			return &gqlResp.Errors[0]
		}

		if result != nil && gqlResp.Data != nil {
			if err := json.Unmarshal(gqlResp.Data, result); err != nil {
				return fmt.Errorf("unmarshal data: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// RecentTokens lists the most recently created tokens, newest first.
func (c *HTTPClient) RecentTokens(ctx context.Context, limit int) ([]*domain.Token, error) {
	var result recentTokensResult
	vars := map[string]interface{}{"limit": limit}
	if err := c.query(ctx, recentTokensQuery, vars, &result); err != nil {
		return nil, err
	}

	tokens := make([]*domain.Token, 0, len(result.Tokens))
	for _, raw := range result.Tokens {
		tokens = append(tokens, &domain.Token{
			MintAddress:          raw.MintAddress,
			Name:                 raw.Name,
			Symbol:               raw.Symbol,
			Decimals:             raw.Decimals,
			URI:                  raw.URI,
			Creator:              raw.Creator,
			CreatedAt:            time.UnixMilli(raw.CreatedAt).UTC(),
			LastPrice:            raw.LastPriceSol,
			LastPriceUSD:         raw.LastPriceUsd,
			TradeVolume:          raw.TradeVolumeSol,
			BuyCount:             raw.BuyCount,
			SellCount:            raw.SellCount,
			HolderCount:          raw.HolderCount,
			BondingCurveProgress: raw.BondingCurveProgress,
		})
	}
	return tokens, nil
}

type recentTokensResult struct {
	Tokens []rawToken `json:"tokens"`
}

type rawToken struct {
	MintAddress          string  `json:"mintAddress"`
	Name                 string  `json:"name"`
	Symbol               string  `json:"symbol"`
	Decimals             int     `json:"decimals"`
	URI                  string  `json:"uri"`
	Creator              string  `json:"creator"`
	CreatedAt            int64   `json:"createdAt"` // unix millis
	LastPriceSol         float64 `json:"lastPriceSol"`
	LastPriceUsd         float64 `json:"lastPriceUsd"`
	TradeVolumeSol       float64 `json:"tradeVolumeSol"`
	BuyCount             int     `json:"buyCount"`
	SellCount            int     `json:"sellCount"`
	HolderCount          int     `json:"holderCount"`
	BondingCurveProgress float64 `json:"bondingCurveProgress"`
}

// TokenStats aggregates trade activity for a mint since the given time.
// Optional signals the indexer cannot supply come back nil.
func (c *HTTPClient) TokenStats(ctx context.Context, mint string, since time.Time) (*domain.MarketStats, error) {
	var result tokenStatsResult
	vars := map[string]interface{}{
		"mint":  mint,
		"since": since.UTC().Format(time.RFC3339),
	}
	if err := c.query(ctx, tokenStatsQuery, vars, &result); err != nil {
		return nil, err
	}

	raw := result.TokenStats
	return &domain.MarketStats{
		MintAddress:            mint,
		BuyCount:               raw.BuyCount,
		SellCount:              raw.SellCount,
		DistinctBuyers:         raw.DistinctBuyers,
		DistinctSellers:        raw.DistinctSellers,
		BuyVolumeUSD:           raw.BuyVolumeUsd,
		SellVolumeUSD:          raw.SellVolumeUsd,
		TopHolderConcentration: raw.TopHolderConcentration,
		PoolBalance:            raw.PoolBalanceSol,
		BondingCurveProgress:   raw.BondingCurveProgress,
	}, nil
}

type tokenStatsResult struct {
	TokenStats rawTokenStats `json:"tokenStats"`
}

type rawTokenStats struct {
	BuyCount               int      `json:"buyCount"`
	SellCount              int      `json:"sellCount"`
	DistinctBuyers         int      `json:"distinctBuyers"`
	DistinctSellers        int      `json:"distinctSellers"`
	BuyVolumeUsd           float64  `json:"buyVolumeUsd"`
	SellVolumeUsd          float64  `json:"sellVolumeUsd"`
	TopHolderConcentration *float64 `json:"topHolderConcentration"`
	PoolBalanceSol         *float64 `json:"poolBalanceSol"`
	BondingCurveProgress   *float64 `json:"bondingCurveProgress"`
}

// TokenPrice returns the latest observed trade price for a mint. A mint
// with no trades yet returns a zero-price quote and no error.
func (c *HTTPClient) TokenPrice(ctx context.Context, mint string) (*PriceQuote, error) {
	var result tokenPriceResult
	vars := map[string]interface{}{"mint": mint}
	if err := c.query(ctx, tokenPriceQuery, vars, &result); err != nil {
		return nil, err
	}

	raw := result.TokenPrice
	quote := &PriceQuote{
		Price:    raw.PriceSol,
		PriceUSD: raw.PriceUsd,
	}
	if raw.ObservedAt > 0 {
		quote.ObservedAt = time.UnixMilli(raw.ObservedAt).UTC()
	}
	return quote, nil
}

type tokenPriceResult struct {
	TokenPrice rawTokenPrice `json:"tokenPrice"`
}

type rawTokenPrice struct {
	PriceSol   float64 `json:"priceSol"`
	PriceUsd   float64 `json:"priceUsd"`
	ObservedAt int64   `json:"observedAt"` // unix millis
}

// PriceHistory returns the most recent trade prices for a mint in
// chronological order.
func (c *HTTPClient) PriceHistory(ctx context.Context, mint string, limit int) ([]*domain.PricePoint, error) {
	var result priceHistoryResult
	vars := map[string]interface{}{"mint": mint, "limit": limit}
	if err := c.query(ctx, priceHistoryQuery, vars, &result); err != nil {
		return nil, err
	}

	points := make([]*domain.PricePoint, 0, len(result.PriceHistory))
	for _, raw := range result.PriceHistory {
		points = append(points, &domain.PricePoint{
			MintAddress: mint,
			TimestampMs: raw.TimestampMs,
			Price:       raw.PriceSol,
			PriceUSD:    raw.PriceUsd,
		})
	}
	// The API returns newest first
	sort.Slice(points, func(i, j int) bool {
		return points[i].TimestampMs < points[j].TimestampMs
	})
	return points, nil
}

type priceHistoryResult struct {
	PriceHistory []rawPricePoint `json:"priceHistory"`
}

type rawPricePoint struct {
	TimestampMs int64   `json:"timestampMs"`
	PriceSol    float64 `json:"priceSol"`
	PriceUsd    float64 `json:"priceUsd"`
}

var _ Client = (*HTTPClient)(nil)
