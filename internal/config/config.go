// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/ingest.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Upstream fantasy API
	ESPNBaseURL       string
	ESPNHistoryURL    string
	ESPNCutoverSeason int
	ESPNSWID          string
	ESPNS2            string

	// Provider rate limiting
	RateLimitPerSecond float64
	RateLimitBurst     int
	RateLimitCooldown  time.Duration
	RetryBaseDelay     time.Duration
	RetryMaxDelay      time.Duration
	RetryAttempts      int

	// Ingestion defaults
	IngestBatchSize    int
	IngestBatchPause   time.Duration
	IngestValidateData bool
	IngestSkipExisting bool
	TargetLeagues      []int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", envOr("NEON_DATABASE_URL", ""))
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or NEON_DATABASE_URL must be set")
	}

	return &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		ESPNBaseURL:       envOr("ESPN_BASE_URL", "https://fantasy.espn.com/apis/v3/games/ffl"),
		ESPNHistoryURL:    envOr("ESPN_HISTORY_URL", "https://fantasy.espn.com/apis/v3/games/ffl/leagueHistory"),
		ESPNCutoverSeason: envInt("ESPN_CUTOVER_SEASON", 2018),
		ESPNSWID:          envOr("ESPN_SWID", ""),
		ESPNS2:            envOr("ESPN_S2", ""),

		RateLimitPerSecond: envFloat("ESPN_RATE_LIMIT_PER_SECOND", 1),
		RateLimitBurst:     envInt("ESPN_RATE_LIMIT_BURST", 10),
		RateLimitCooldown:  time.Duration(envInt("ESPN_RATE_LIMIT_COOLDOWN_SECONDS", 60)) * time.Second,
		RetryBaseDelay:     time.Duration(envInt("ESPN_RETRY_BASE_DELAY_MS", 1000)) * time.Millisecond,
		RetryMaxDelay:      time.Duration(envInt("ESPN_RETRY_MAX_DELAY_MS", 30000)) * time.Millisecond,
		RetryAttempts:      envInt("ESPN_RETRY_ATTEMPTS", 3),

		IngestBatchSize:    envInt("INGEST_BATCH_SIZE", 5),
		IngestBatchPause:   time.Duration(envInt("INGEST_BATCH_PAUSE_MS", 2000)) * time.Millisecond,
		IngestValidateData: envBool("INGEST_VALIDATE_DATA", true),
		IngestSkipExisting: envBool("INGEST_SKIP_EXISTING", true),
		TargetLeagues:      envIntList("INGEST_TARGET_LEAGUES", nil),
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Credentials returns the configured provider cookie pair.
func (c *Config) Credentials() (swid, espnS2 string) {
	return c.ESPNSWID, c.ESPNS2
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

func envIntList(key string, fallback []int) []int {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]int, 0, len(parts))
		for _, p := range parts {
			if n, err := strconv.Atoi(strings.TrimSpace(p)); err == nil {
				result = append(result, n)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
