// Package server provides the HTTP API: holdings, trade history, token
// analysis, scheduler control, manual simulation orders, the websocket
// notification stream, and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"pumpwatch/internal/ledger"
	"pumpwatch/internal/notify"
	"pumpwatch/internal/observability"
	"pumpwatch/internal/oracle"
	"pumpwatch/internal/scheduler"
	"pumpwatch/internal/storage"
	"pumpwatch/internal/watch"
)

// Options configures the HTTP server.
type Options struct {
	Log     zerolog.Logger
	Port    int
	DevMode bool

	Ledger    *ledger.Ledger
	Oracle    oracle.Oracle
	Watch     *watch.Service
	Tokens    storage.TokenStore
	Scheduler *scheduler.Scheduler
	Hub       *notify.Hub

	// Tasks is the task set handed to the scheduler on POST /api/scheduler/start.
	Tasks []scheduler.Task

	// BaseContext bounds scheduled task runs started through the API.
	// Defaults to context.Background().
	BaseContext context.Context
}

// Server is the HTTP server.
type Server struct {
	router  *chi.Mux
	server  *http.Server
	log     zerolog.Logger
	ledger  *ledger.Ledger
	oracle  oracle.Oracle
	watch   *watch.Service
	tokens  storage.TokenStore
	sched   *scheduler.Scheduler
	hub     *notify.Hub
	tasks   []scheduler.Task
	baseCtx context.Context
	state   *SystemState
}

// New creates the HTTP server and wires up all routes.
func New(opts Options) *Server {
	baseCtx := opts.BaseContext
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	s := &Server{
		router:  chi.NewRouter(),
		log:     opts.Log.With().Str("component", "server").Logger(),
		ledger:  opts.Ledger,
		oracle:  opts.Oracle,
		watch:   opts.Watch,
		tokens:  opts.Tokens,
		sched:   opts.Scheduler,
		hub:     opts.Hub,
		tasks:   opts.Tasks,
		baseCtx: baseCtx,
		state:   NewSystemState(time.Now()),
	}

	s.setupMiddleware(opts.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", observability.Handler())
	s.router.Get("/ws", s.hub.ServeWS)

	s.router.Route("/api", func(r chi.Router) {
		// Websocket upgrades bypass the timeout; everything under /api
		// is a request/response call.
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/holdings", s.handleHoldings)
		r.Get("/trades", s.handleTrades)
		r.Get("/performance", s.handlePerformance)
		r.Get("/tokens", s.handleTokens)
		r.Get("/tokens/{mint}/analysis", s.handleTokenAnalysis)

		r.Get("/scheduler/status", s.handleSchedulerStatus)
		r.Post("/scheduler/start", s.handleSchedulerStart)
		r.Post("/scheduler/stop", s.handleSchedulerStop)

		r.Post("/simulation/buy", s.handleSimulationBuy)
		r.Post("/simulation/sell", s.handleSimulationSell)
	})
}

// Start starts the HTTP server. Blocks until shutdown.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}
