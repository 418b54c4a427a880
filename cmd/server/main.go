// Package main runs the token monitor: the watch service keeps the token
// registry fresh, the scheduler drives strategy cycles against the
// simulated ledger, and the HTTP server exposes holdings, analysis,
// scheduler control, and the websocket notification stream.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"pumpwatch/internal/config"
	"pumpwatch/internal/ledger"
	"pumpwatch/internal/marketdata"
	"pumpwatch/internal/notify"
	"pumpwatch/internal/oracle"
	"pumpwatch/internal/reporting"
	"pumpwatch/internal/scheduler"
	"pumpwatch/internal/scoring"
	"pumpwatch/internal/server"
	"pumpwatch/internal/storage"
	chstore "pumpwatch/internal/storage/clickhouse"
	"pumpwatch/internal/storage/memory"
	"pumpwatch/internal/storage/migrations"
	pgstore "pumpwatch/internal/storage/postgres"
	"pumpwatch/internal/strategy"
	"pumpwatch/internal/trader"
	"pumpwatch/internal/watch"
	"pumpwatch/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	logger.SetGlobalLogger(log)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage: durable when DSNs are configured, in-memory otherwise.
	stores, cleanup, err := createStores(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("create stores: %w", err)
	}
	defer cleanup()

	// Ledger, restored from the journal.
	led := ledger.New(ledger.Options{
		Journal: stores.trades,
		Logger:  log,
	})
	records, err := stores.trades.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load trade journal: %w", err)
	}
	if err := led.Restore(records); err != nil {
		return fmt.Errorf("restore ledger: %w", err)
	}
	log.Info().Int("records", len(records)).Msg("ledger restored from journal")

	// Market data and pricing.
	market := marketdata.NewHTTPClient(cfg.IndexerURL, cfg.IndexerAPIKey)
	orc := oracle.NewMarketOracle(market, oracle.Options{Logger: log})

	// Notifications.
	hub := notify.NewHub(log)
	go hub.Run(ctx)

	// Token registry and scoring.
	engine := scoring.NewEngine(scoring.Options{
		BuyThreshold:  cfg.BuyThreshold,
		SellThreshold: cfg.SellThreshold,
	})
	watchSvc := watch.NewService(watch.Options{
		Market:          market,
		Tokens:          stores.tokens,
		Prices:          stores.prices,
		Engine:          engine,
		RefreshLimit:    cfg.RefreshLimit,
		CandidateWindow: time.Duration(cfg.CandidateWindowHours) * time.Hour,
		Publisher:       hub,
		Logger:          log,
	})

	// Strategy set.
	trd := trader.New(trader.Options{
		Ledger:     led,
		Oracle:     orc,
		Candidates: watchSvc,
		EntryStrategies: []strategy.Strategy{
			strategy.NewEarlyEntryStrategy(cfg.EntryMinScore, cfg.EntryBudgetSOL, cfg.MaxOpenPositions),
		},
		ExitStrategies: []strategy.Strategy{
			strategy.NewTakeProfitStrategy(cfg.TakeProfitPct),
			strategy.NewStopLossStrategy(cfg.StopLossPct),
		},
		Publisher: hub,
		Logger:    log,
	})

	reports := reporting.NewGenerator(led, orc)

	// Scheduled task set.
	tasks := []scheduler.Task{
		{Name: "refresh-registry", Spec: cfg.RefreshCron, Run: watchSvc.Refresh},
		{Name: "evaluate-buys", Spec: cfg.BuyCron, Run: trd.RunBuyCycle},
		{Name: "evaluate-sells", Spec: cfg.SellCron, Run: trd.RunSellCycle},
		{Name: "holdings-report", Spec: cfg.ReportCron, Run: func(ctx context.Context) error {
			reports.LogHoldings(ctx, log)
			return nil
		}},
		{Name: "performance-report", Spec: cfg.PerfCron, Run: func(ctx context.Context) error {
			reports.LogPerformance(log)
			return nil
		}},
	}

	sched := scheduler.New(log)
	if err := sched.Start(ctx, tasks); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	srv := server.New(server.Options{
		Log:         log,
		Port:        cfg.Port,
		DevMode:     cfg.DevMode,
		Ledger:      led,
		Oracle:      orc,
		Watch:       watchSvc,
		Tokens:      stores.tokens,
		Scheduler:   sched,
		Hub:         hub,
		Tasks:       tasks,
		BaseContext: ctx,
	})

	// Graceful shutdown on SIGINT/SIGTERM.
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	log.Info().Msg("shutdown complete")
	return nil
}

// appStores holds the storage implementations behind the service.
type appStores struct {
	trades storage.TradeRecordStore
	tokens storage.TokenStore
	prices storage.PricePointStore
}

// createStores wires durable stores when Postgres/ClickHouse are
// configured and falls back to memory otherwise. Migrations run on every
// start; they are idempotent.
func createStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*appStores, func(), error) {
	stores := &appStores{
		trades: memory.NewTradeRecordStore(),
		tokens: memory.NewTokenStore(),
		prices: memory.NewPricePointStore(),
	}
	cleanup := func() {}

	if cfg.PostgresURL != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		stores.trades = pgstore.NewTradeRecordStore(pool)
		stores.tokens = pgstore.NewTokenStore(pool)
		prev := cleanup
		cleanup = func() { pool.Close(); prev() }
		log.Info().Msg("postgres stores enabled")
	} else {
		log.Warn().Msg("POSTGRES_URL not set, trades and tokens held in memory only")
	}

	if cfg.ClickHouseAddr != "" {
		dsn := clickhouseDSN(cfg)
		conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		stores.prices = chstore.NewPricePointStore(conn)
		prev := cleanup
		cleanup = func() { _ = conn.Close(); prev() }
		log.Info().Msg("clickhouse price store enabled")
	} else {
		log.Warn().Msg("CLICKHOUSE_ADDR not set, price history held in memory only")
	}

	return stores, cleanup, nil
}

// clickhouseDSN builds a native-protocol DSN from the config fields.
func clickhouseDSN(cfg *config.Config) string {
	if cfg.ClickHousePassword != "" {
		return fmt.Sprintf("clickhouse://%s:%s@%s/%s",
			cfg.ClickHouseUser, cfg.ClickHousePassword, cfg.ClickHouseAddr, cfg.ClickHouseDatabase)
	}
	return fmt.Sprintf("clickhouse://%s@%s/%s",
		cfg.ClickHouseUser, cfg.ClickHouseAddr, cfg.ClickHouseDatabase)
}
