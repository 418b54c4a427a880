// Package watch maintains the token registry: it pulls fresh tokens and
// prices from the indexer, keeps them in the token store, and serves
// scored candidates to the trading side.
package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"pumpwatch/internal/domain"
	"pumpwatch/internal/marketdata"
	"pumpwatch/internal/notify"
	"pumpwatch/internal/observability"
	"pumpwatch/internal/scoring"
	"pumpwatch/internal/storage"
)

// Defaults.
const (
	DefaultRefreshLimit      = 50
	DefaultCandidateWindow   = 24 * time.Hour
	DefaultCandidateLimit    = 25
	DefaultPriceHistoryDepth = 30
)

// ErrUnknownToken is returned when a mint is not in the registry.
var ErrUnknownToken = errors.New("unknown token")

// Publisher pushes discovery events. notify.Hub implements it.
type Publisher interface {
	Publish(eventType notify.EventType, payload interface{})
}

// Options configures a Service.
type Options struct {
	Market marketdata.Client
	Tokens storage.TokenStore
	Prices storage.PricePointStore
	Engine *scoring.Engine

	// RefreshLimit caps tokens pulled per refresh. 0 means default.
	RefreshLimit int
	// CandidateWindow bounds candidate age. 0 means default.
	CandidateWindow time.Duration
	// CandidateLimit caps candidates per cycle. 0 means default.
	CandidateLimit int
	// PriceHistoryDepth is the number of recent prices fed to momentum
	// scoring. 0 means default.
	PriceHistoryDepth int

	// Publisher is optional; nil disables discovery notifications.
	Publisher Publisher
	Logger    zerolog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Service is the token registry. Safe for concurrent use; state lives in
// the stores.
type Service struct {
	market    marketdata.Client
	tokens    storage.TokenStore
	prices    storage.PricePointStore
	engine    *scoring.Engine
	publisher Publisher
	log       zerolog.Logger
	now       func() time.Time

	refreshLimit      int
	candidateWindow   time.Duration
	candidateLimit    int
	priceHistoryDepth int
}

// NewService creates a watch service.
func NewService(opts Options) *Service {
	s := &Service{
		market:            opts.Market,
		tokens:            opts.Tokens,
		prices:            opts.Prices,
		engine:            opts.Engine,
		publisher:         opts.Publisher,
		log:               opts.Logger,
		now:               opts.Now,
		refreshLimit:      opts.RefreshLimit,
		candidateWindow:   opts.CandidateWindow,
		candidateLimit:    opts.CandidateLimit,
		priceHistoryDepth: opts.PriceHistoryDepth,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.refreshLimit == 0 {
		s.refreshLimit = DefaultRefreshLimit
	}
	if s.candidateWindow == 0 {
		s.candidateWindow = DefaultCandidateWindow
	}
	if s.candidateLimit == 0 {
		s.candidateLimit = DefaultCandidateLimit
	}
	if s.priceHistoryDepth == 0 {
		s.priceHistoryDepth = DefaultPriceHistoryDepth
	}
	return s
}

// Refresh pulls recent tokens and their price history from the indexer
// into the registry. Tokens with invalid mint addresses are flagged and
// never traded.
func (s *Service) Refresh(ctx context.Context) error {
	fetched, err := s.market.RecentTokens(ctx, s.refreshLimit)
	if err != nil {
		observability.RecordIndexerError("recent_tokens")
		return fmt.Errorf("fetch recent tokens: %w", err)
	}

	var discovered int
	for _, token := range fetched {
		_, lookupErr := s.tokens.GetByMint(ctx, token.MintAddress)
		isNew := errors.Is(lookupErr, storage.ErrNotFound)

		if err := domain.ValidateMint(token.MintAddress); err != nil {
			token.Flagged = true
			s.log.Warn().Err(err).Str("mint", token.MintAddress).Msg("flagging token with invalid mint")
		}
		token.UpdatedAt = s.now()

		if err := s.tokens.Upsert(ctx, token); err != nil {
			s.log.Error().Err(err).Str("mint", token.MintAddress).Msg("token upsert failed")
			continue
		}

		if isNew && !token.Flagged {
			discovered++
			observability.DefaultMetrics.TokensDiscovered.Inc()
			s.publish(notify.EventTokenDiscovered, token)
		}
		if token.AboutToGraduate() {
			s.log.Info().Str("mint", token.MintAddress).
				Float64("progress", token.BondingCurveProgress).
				Msg("token about to graduate")
		}

		s.storePriceHistory(ctx, token.MintAddress)
	}

	observability.DefaultMetrics.LastSuccessfulRefresh.Set(float64(s.now().Unix()))
	s.log.Info().Int("fetched", len(fetched)).Int("discovered", discovered).Msg("registry refreshed")
	return nil
}

// storePriceHistory appends the latest indexer prices for a mint.
// Duplicate points are expected between refreshes and skipped quietly.
func (s *Service) storePriceHistory(ctx context.Context, mint string) {
	points, err := s.market.PriceHistory(ctx, mint, s.priceHistoryDepth)
	if err != nil {
		observability.RecordIndexerError("price_history")
		s.log.Warn().Err(err).Str("mint", mint).Msg("price history fetch failed")
		return
	}
	for _, point := range points {
		err := s.prices.InsertBulk(ctx, []*domain.PricePoint{point})
		if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			s.log.Error().Err(err).Str("mint", mint).Msg("price point insert failed")
			return
		}
	}
}

// Candidates returns the scored analyses for tradable registry tokens
// inside the candidate window. Tokens whose stats cannot be fetched are
// skipped, not fatal.
func (s *Service) Candidates(ctx context.Context) ([]*domain.TokenAnalysis, error) {
	since := s.now().Add(-s.candidateWindow)
	tokens, err := s.tokens.Candidates(ctx, since.UnixMilli(), s.candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	analyses := make([]*domain.TokenAnalysis, 0, len(tokens))
	for _, token := range tokens {
		analysis, err := s.analyze(ctx, token, since)
		if err != nil {
			s.log.Warn().Err(err).Str("mint", token.MintAddress).Msg("candidate analysis failed, skipping")
			continue
		}
		analyses = append(analyses, analysis)
	}
	return analyses, nil
}

// Analysis scores a single registry token.
func (s *Service) Analysis(ctx context.Context, mint string) (*domain.TokenAnalysis, error) {
	token, err := s.tokens.GetByMint(ctx, mint)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUnknownToken
		}
		return nil, err
	}
	return s.analyze(ctx, token, s.now().Add(-s.candidateWindow))
}

// analyze fetches stats, attaches stored price history, and scores.
func (s *Service) analyze(ctx context.Context, token *domain.Token, since time.Time) (*domain.TokenAnalysis, error) {
	stats, err := s.market.TokenStats(ctx, token.MintAddress, since)
	if err != nil {
		observability.RecordIndexerError("token_stats")
		return nil, fmt.Errorf("fetch stats: %w", err)
	}

	points, err := s.prices.GetByMint(ctx, token.MintAddress)
	if err == nil && len(points) > 0 {
		start := 0
		if len(points) > s.priceHistoryDepth {
			start = len(points) - s.priceHistoryDepth
		}
		for _, point := range points[start:] {
			stats.RecentPrices = append(stats.RecentPrices, point.Price)
		}
	}

	breakdown := s.engine.Score(stats)
	class := s.engine.Classify(breakdown.Total)
	return &domain.TokenAnalysis{
		Token:          token,
		Stats:          stats,
		Score:          breakdown,
		Classification: class,
		Reason:         s.engine.Reason(breakdown, class),
	}, nil
}

func (s *Service) publish(eventType notify.EventType, payload interface{}) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(eventType, payload)
}
