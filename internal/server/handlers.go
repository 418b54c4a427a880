package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"pumpwatch/internal/domain"
	"pumpwatch/internal/ledger"
	"pumpwatch/internal/notify"
	"pumpwatch/internal/oracle"
	"pumpwatch/internal/watch"
)

const defaultTokenLimit = 50

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "pumpwatch",
	})
}

// handleHoldings returns all open positions with live prices where the
// oracle can supply them.
func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	positions := s.ledger.AllOpenPositions(r.Context(), s.priceFn)

	out := make([]*positionResponse, 0, len(positions))
	for _, p := range positions {
		out = append(out, toPositionResponse(p))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleTrades returns trade history, optionally filtered by ?mint=.
func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	trades := s.ledger.TradeHistory(r.URL.Query().Get("mint"))

	out := make([]*tradeResponse, 0, len(trades))
	for _, t := range trades {
		out = append(out, toTradeResponse(t))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handlePerformance returns the per-strategy rollup of closed sells.
func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	perf := s.ledger.StrategyPerformance()

	out := make([]*performanceResponse, 0, len(perf))
	for _, p := range perf {
		out = append(out, toPerformanceResponse(p))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleTokens returns the most recently discovered tokens.
func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	limit := defaultTokenLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	tokens, err := s.tokens.Recent(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("list tokens failed")
		s.writeError(w, http.StatusInternalServerError, "failed to list tokens")
		return
	}

	out := make([]*tokenResponse, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, toTokenResponse(t))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleTokenAnalysis scores a single token on demand.
func (s *Server) handleTokenAnalysis(w http.ResponseWriter, r *http.Request) {
	mint := chi.URLParam(r, "mint")

	analysis, err := s.watch.Analysis(r.Context(), mint)
	if err != nil {
		if errors.Is(err, watch.ErrUnknownToken) {
			s.writeError(w, http.StatusNotFound, "unknown token")
			return
		}
		s.log.Error().Err(err).Str("mint", mint).Msg("token analysis failed")
		s.writeError(w, http.StatusBadGateway, "analysis unavailable")
		return
	}

	s.writeJSON(w, http.StatusOK, toAnalysisResponse(analysis))
}

// handleSchedulerStatus returns the supervisor view of the task set.
func (s *Server) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.schedulerStatus())
}

// handleSchedulerStart starts (or restarts) the scheduled task set.
func (s *Server) handleSchedulerStart(w http.ResponseWriter, r *http.Request) {
	if err := s.sched.Start(s.baseCtx, s.tasks); err != nil {
		s.log.Error().Err(err).Msg("scheduler start failed")
		s.writeError(w, http.StatusInternalServerError, "failed to start scheduler")
		return
	}
	s.state.MarkSchedulerStarted(time.Now())
	s.publish(notify.EventSchedulerStatus, map[string]interface{}{"running": true})

	s.writeJSON(w, http.StatusOK, s.schedulerStatus())
}

// handleSchedulerStop stops the task set, waiting for in-flight runs.
func (s *Server) handleSchedulerStop(w http.ResponseWriter, r *http.Request) {
	s.sched.Stop()
	s.state.MarkSchedulerStopped()
	s.publish(notify.EventSchedulerStatus, map[string]interface{}{"running": false})

	s.writeJSON(w, http.StatusOK, s.schedulerStatus())
}

// tradeRequest is the body for manual simulation orders.
type tradeRequest struct {
	MintAddress string  `json:"mint_address"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	Reason      string  `json:"reason"`
}

// handleSimulationBuy records a manual buy. Price falls back to the oracle
// when omitted.
func (s *Server) handleSimulationBuy(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeTradeRequest(w, r)
	if !ok {
		return
	}
	if req.Quantity <= 0 {
		s.writeError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	price, priceUSD, ok := s.resolvePrice(w, r, req)
	if !ok {
		return
	}

	rec, err := s.ledger.RecordBuy(r.Context(), ledger.BuyOrder{
		MintAddress: req.MintAddress,
		Quantity:    req.Quantity,
		Price:       price,
		PriceUSD:    priceUSD,
		Reason:      manualReason(req.Reason),
		Strategy:    "manual",
	})
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}

	s.publish(notify.EventTradeBuy, rec)
	s.writeJSON(w, http.StatusCreated, toTradeResponse(rec))
}

// handleSimulationSell records a manual sell. Quantity omitted or zero
// sells the full holding.
func (s *Server) handleSimulationSell(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeTradeRequest(w, r)
	if !ok {
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = s.ledger.CurrentHolding(req.MintAddress)
	}

	price, priceUSD, ok := s.resolvePrice(w, r, req)
	if !ok {
		return
	}

	rec, err := s.ledger.RecordSell(r.Context(), ledger.SellOrder{
		MintAddress: req.MintAddress,
		Quantity:    req.Quantity,
		Price:       price,
		PriceUSD:    priceUSD,
		Reason:      manualReason(req.Reason),
		Strategy:    "manual",
	})
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}

	s.publish(notify.EventTradeSell, rec)
	s.writeJSON(w, http.StatusCreated, toTradeResponse(rec))
}

func (s *Server) decodeTradeRequest(w http.ResponseWriter, r *http.Request) (*tradeRequest, bool) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}
	if req.MintAddress == "" {
		s.writeError(w, http.StatusBadRequest, "mint_address is required")
		return nil, false
	}
	return &req, true
}

// resolvePrice uses the request price when given, the oracle otherwise.
func (s *Server) resolvePrice(w http.ResponseWriter, r *http.Request, req *tradeRequest) (price, priceUSD float64, ok bool) {
	if req.Price > 0 {
		return req.Price, 0, true
	}

	quote, err := s.oracle.Quote(r.Context(), req.MintAddress)
	if err != nil {
		if errors.Is(err, oracle.ErrPriceUnavailable) {
			s.writeError(w, http.StatusBadGateway, "no price available for mint")
			return 0, 0, false
		}
		s.log.Error().Err(err).Str("mint", req.MintAddress).Msg("price lookup failed")
		s.writeError(w, http.StatusBadGateway, "price lookup failed")
		return 0, 0, false
	}
	return quote.Price, quote.PriceUSD, true
}

// writeLedgerError maps ledger rejections to HTTP statuses.
func (s *Server) writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInsufficientHolding):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrInstrumentUnknown):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrInvalidQuantity), errors.Is(err, ledger.ErrInvalidPrice):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error().Err(err).Msg("trade failed")
		s.writeError(w, http.StatusInternalServerError, "trade failed")
	}
}

// priceFn adapts the oracle to the ledger's price callback.
func (s *Server) priceFn(ctx context.Context, mint string) (float64, float64, time.Time, error) {
	quote, err := s.oracle.Quote(ctx, mint)
	if err != nil {
		return 0, 0, time.Time{}, err
	}
	return quote.Price, quote.PriceUSD, quote.ObservedAt, nil
}

func (s *Server) schedulerStatus() map[string]interface{} {
	startedAt, schedStartedAt := s.state.Snapshot()
	return map[string]interface{}{
		"running":              s.sched.Running(),
		"started_at":           startedAt,
		"scheduler_started_at": schedStartedAt,
		"tasks":                s.sched.Status(),
	}
}

func (s *Server) publish(eventType notify.EventType, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(eventType, payload)
}

func manualReason(reason string) string {
	if reason == "" {
		return "manual order"
	}
	return reason
}

// Response shapes. Domain types carry no JSON tags; the wire format is
// pinned here instead.

type positionResponse struct {
	MintAddress string `json:"mint_address"`
	Symbol      string `json:"symbol,omitempty"`
	Name        string `json:"name,omitempty"`

	TotalBought float64 `json:"total_bought"`
	TotalSold   float64 `json:"total_sold"`
	Holding     float64 `json:"holding"`
	CostBasis   float64 `json:"cost_basis"`
	AverageCost float64 `json:"average_cost"`

	CurrentPrice    *float64   `json:"current_price"`
	CurrentPriceUSD *float64   `json:"current_price_usd"`
	PriceObservedAt *time.Time `json:"price_observed_at"`
	CurrentValue    *float64   `json:"current_value"`
	UnrealizedPnL   *float64   `json:"unrealized_pnl"`

	RealizedPnL float64  `json:"realized_pnl"`
	TotalPnL    *float64 `json:"total_pnl"`
	PnLPercent  *float64 `json:"pnl_percent"`
}

func toPositionResponse(p *domain.Position) *positionResponse {
	return &positionResponse{
		MintAddress:     p.MintAddress,
		Symbol:          p.Symbol,
		Name:            p.Name,
		TotalBought:     p.TotalBought,
		TotalSold:       p.TotalSold,
		Holding:         p.Holding,
		CostBasis:       p.CostBasis,
		AverageCost:     p.AverageCost,
		CurrentPrice:    p.CurrentPrice,
		CurrentPriceUSD: p.CurrentPriceUSD,
		PriceObservedAt: p.PriceObservedAt,
		CurrentValue:    p.CurrentValue,
		UnrealizedPnL:   p.UnrealizedPnL,
		RealizedPnL:     p.RealizedPnL,
		TotalPnL:        p.TotalPnL,
		PnLPercent:      p.PnLPercent,
	}
}

type tradeResponse struct {
	TradeID     string    `json:"trade_id"`
	MintAddress string    `json:"mint_address"`
	Side        string    `json:"side"`
	Quantity    float64   `json:"quantity"`
	Price       float64   `json:"price"`
	PriceUSD    float64   `json:"price_usd"`
	TotalValue  float64   `json:"total_value"`
	TotalUSD    float64   `json:"total_usd"`
	Reason      string    `json:"reason,omitempty"`
	Score       float64   `json:"score,omitempty"`
	Strategy    string    `json:"strategy,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`

	RealizedPnL    *float64 `json:"realized_pnl"`
	RealizedPnLPct *float64 `json:"realized_pnl_pct"`
	RealizedUSD    *float64 `json:"realized_usd"`
}

func toTradeResponse(t *domain.TradeRecord) *tradeResponse {
	return &tradeResponse{
		TradeID:        t.TradeID,
		MintAddress:    t.MintAddress,
		Side:           string(t.Side),
		Quantity:       t.Quantity,
		Price:          t.Price,
		PriceUSD:       t.PriceUSD,
		TotalValue:     t.TotalValue,
		TotalUSD:       t.TotalUSD,
		Reason:         t.Reason,
		Score:          t.Score,
		Strategy:       t.Strategy,
		Status:         string(t.Status),
		CreatedAt:      t.CreatedAt,
		RealizedPnL:    t.RealizedPnL,
		RealizedPnLPct: t.RealizedPnLPct,
		RealizedUSD:    t.RealizedUSD,
	}
}

type performanceResponse struct {
	Strategy         string  `json:"strategy"`
	TotalTrades      int     `json:"total_trades"`
	ProfitableTrades int     `json:"profitable_trades"`
	LossTrades       int     `json:"loss_trades"`
	WinRate          float64 `json:"win_rate"`
	TotalPnL         float64 `json:"total_pnl"`
	AvgPnLPercent    float64 `json:"avg_pnl_percent"`
	MaxProfitPercent float64 `json:"max_profit_percent"`
	MaxLossPercent   float64 `json:"max_loss_percent"`
}

func toPerformanceResponse(p *domain.StrategyPerformance) *performanceResponse {
	return &performanceResponse{
		Strategy:         p.Strategy,
		TotalTrades:      p.TotalTrades,
		ProfitableTrades: p.ProfitableTrades,
		LossTrades:       p.LossTrades,
		WinRate:          p.WinRate,
		TotalPnL:         p.TotalPnL,
		AvgPnLPercent:    p.AvgPnLPercent,
		MaxProfitPercent: p.MaxProfitPercent,
		MaxLossPercent:   p.MaxLossPercent,
	}
}

type tokenResponse struct {
	MintAddress          string    `json:"mint_address"`
	Name                 string    `json:"name"`
	Symbol               string    `json:"symbol"`
	Decimals             int       `json:"decimals"`
	URI                  string    `json:"uri,omitempty"`
	Creator              string    `json:"creator,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	LastPrice            float64   `json:"last_price"`
	LastPriceUSD         float64   `json:"last_price_usd"`
	TradeVolume          float64   `json:"trade_volume"`
	BuyCount             int       `json:"buy_count"`
	SellCount            int       `json:"sell_count"`
	HolderCount          int       `json:"holder_count"`
	BondingCurveProgress float64   `json:"bonding_curve_progress"`
	AboutToGraduate      bool      `json:"about_to_graduate"`
	Flagged              bool      `json:"flagged"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func toTokenResponse(t *domain.Token) *tokenResponse {
	return &tokenResponse{
		MintAddress:          t.MintAddress,
		Name:                 t.Name,
		Symbol:               t.Symbol,
		Decimals:             t.Decimals,
		URI:                  t.URI,
		Creator:              t.Creator,
		CreatedAt:            t.CreatedAt,
		LastPrice:            t.LastPrice,
		LastPriceUSD:         t.LastPriceUSD,
		TradeVolume:          t.TradeVolume,
		BuyCount:             t.BuyCount,
		SellCount:            t.SellCount,
		HolderCount:          t.HolderCount,
		BondingCurveProgress: t.BondingCurveProgress,
		AboutToGraduate:      t.AboutToGraduate(),
		Flagged:              t.Flagged,
		UpdatedAt:            t.UpdatedAt,
	}
}

type scoreResponse struct {
	Activity     *float64 `json:"activity"`
	Momentum     *float64 `json:"momentum"`
	Holders      *float64 `json:"holders"`
	Liquidity    *float64 `json:"liquidity"`
	BondingCurve *float64 `json:"bonding_curve"`
	Total        float64  `json:"total"`
}

type analysisResponse struct {
	Token          *tokenResponse `json:"token"`
	Score          *scoreResponse `json:"score"`
	Classification string         `json:"classification"`
	Reason         string         `json:"reason"`
}

func toAnalysisResponse(a *domain.TokenAnalysis) *analysisResponse {
	resp := &analysisResponse{
		Classification: string(a.Classification),
		Reason:         a.Reason,
	}
	if a.Token != nil {
		resp.Token = toTokenResponse(a.Token)
	}
	if a.Score != nil {
		resp.Score = &scoreResponse{
			Activity:     a.Score.Activity,
			Momentum:     a.Score.Momentum,
			Holders:      a.Score.Holders,
			Liquidity:    a.Score.Liquidity,
			BondingCurve: a.Score.BondingCurve,
			Total:        a.Score.Total,
		}
	}
	return resp
}
