package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port     int
	LogLevel string
	DevMode  bool

	// Indexer API
	IndexerURL    string
	IndexerAPIKey string

	// Storage
	PostgresURL        string
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string

	// Cron schedules (standard 5-field specs)
	BuyCron     string
	SellCron    string
	RefreshCron string
	ReportCron  string
	PerfCron    string

	// Strategy parameters
	EntryMinScore    float64
	EntryBudgetSOL   float64
	MaxOpenPositions int
	TakeProfitPct    float64
	StopLossPct      float64

	// Scoring thresholds
	BuyThreshold  float64
	SellThreshold float64

	// Watch registry
	RefreshLimit         int
	CandidateWindowHours int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnvAsInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),

		IndexerURL:    getEnv("INDEXER_URL", "http://localhost:4000/graphql"),
		IndexerAPIKey: getEnv("INDEXER_API_KEY", ""),

		PostgresURL:        getEnv("POSTGRES_URL", ""),
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "pumpwatch"),
		ClickHouseUser:     getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		BuyCron:     getEnv("BUY_CRON", "*/2 * * * *"),
		SellCron:    getEnv("SELL_CRON", "* * * * *"),
		RefreshCron: getEnv("REFRESH_CRON", "*/5 * * * *"),
		ReportCron:  getEnv("REPORT_CRON", "0 * * * *"),
		PerfCron:    getEnv("PERF_CRON", "*/15 * * * *"),

		EntryMinScore:    getEnvAsFloat("ENTRY_MIN_SCORE", 70),
		EntryBudgetSOL:   getEnvAsFloat("ENTRY_BUDGET_SOL", 1.0),
		MaxOpenPositions: getEnvAsInt("MAX_OPEN_POSITIONS", 10),
		TakeProfitPct:    getEnvAsFloat("TAKE_PROFIT_PCT", 30),
		StopLossPct:      getEnvAsFloat("STOP_LOSS_PCT", -15),

		BuyThreshold:  getEnvAsFloat("SCORE_BUY_THRESHOLD", 70),
		SellThreshold: getEnvAsFloat("SCORE_SELL_THRESHOLD", 30),

		RefreshLimit:         getEnvAsInt("REFRESH_LIMIT", 50),
		CandidateWindowHours: getEnvAsInt("CANDIDATE_WINDOW_HOURS", 24),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.IndexerURL == "" {
		return fmt.Errorf("INDEXER_URL is required")
	}
	if c.TakeProfitPct <= 0 {
		return fmt.Errorf("TAKE_PROFIT_PCT must be positive")
	}
	if c.StopLossPct >= 0 {
		return fmt.Errorf("STOP_LOSS_PCT must be negative")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
