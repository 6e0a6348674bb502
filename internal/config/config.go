package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DatabaseURL            string
	IndexerURL             string
	CoinGeckoURL           string
	RedisURL               string
	LpTokenAddress         string
	Timezone               string
	IndexerRetryMax        int
	IndexerRetryBaseDelay  time.Duration
	CoinGeckoDelay         time.Duration
	CoinGeckoRetryMax      int
	ResponseCacheTTL       time.Duration
	QuoteWorkerInterval    time.Duration
	SnapshotWorkerInterval time.Duration
	HTTPPort               string
	AdminAPIKey            string
	SheetsSpreadsheetID    string
	SheetsCredentialsJSON  string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		DatabaseURL:            envOrDefaultWarn("DATABASE_URL", ""),
		IndexerURL:             envOrDefaultWarn("INDEXER_URL", ""),
		CoinGeckoURL:           envOrDefault("COINGECKO_URL", "https://api.coingecko.com/api/v3"),
		RedisURL:               envOrDefault("REDIS_URL", ""),
		LpTokenAddress:         envOrDefaultWarn("LP_TOKEN_ADDRESS", ""),
		Timezone:               envOrDefault("DASHBOARD_TIMEZONE", "UTC"),
		IndexerRetryMax:        envOrDefaultInt("INDEXER_RETRY_MAX", 5),
		IndexerRetryBaseDelay:  envOrDefaultDuration("INDEXER_RETRY_BASE_DELAY", 2*time.Second),
		CoinGeckoDelay:         envOrDefaultDuration("COINGECKO_DELAY", 6*time.Second),
		CoinGeckoRetryMax:      envOrDefaultInt("COINGECKO_RETRY_MAX", 5),
		ResponseCacheTTL:       envOrDefaultDuration("RESPONSE_CACHE_TTL", time.Minute),
		QuoteWorkerInterval:    envOrDefaultDuration("QUOTE_WORKER_INTERVAL", 1*time.Hour),
		SnapshotWorkerInterval: envOrDefaultDuration("SNAPSHOT_WORKER_INTERVAL", 24*time.Hour),
		HTTPPort:               envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey:            envOrDefault("ADMIN_API_KEY", ""),
		SheetsSpreadsheetID:    envOrDefault("SHEETS_SPREADSHEET_ID", ""),
		SheetsCredentialsJSON:  envOrDefault("SHEETS_CREDENTIALS_JSON", ""),
	}
}

// Location resolves the configured timezone, falling back to UTC when the
// name is unknown.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		slog.Warn("invalid timezone, using UTC", "value", c.Timezone)
		return time.UTC
	}
	return loc
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("required env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}
