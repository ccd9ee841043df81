// Command api is the RFFL Codex Data API server.
//
// Usage:
//
//	codex-api
//	API_PORT=8080 codex-api
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/rffl/codex-data/internal/api"
	"github.com/rffl/codex-data/internal/config"
	"github.com/rffl/codex-data/internal/db"
	"github.com/rffl/codex-data/internal/espn"
	"github.com/rffl/codex-data/internal/ingest"
	"github.com/rffl/codex-data/internal/ratelimit"
	"github.com/rffl/codex-data/internal/store"
	"github.com/rffl/codex-data/internal/validate"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// ESPN client stack
	limiter := ratelimit.New(ratelimit.Config{
		RequestsPerSecond: cfg.RateLimitPerSecond,
		BurstCapacity:     cfg.RateLimitBurst,
		CooldownPeriod:    cfg.RateLimitCooldown,
		BaseDelay:         cfg.RetryBaseDelay,
		MaxDelay:          cfg.RetryMaxDelay,
	}, logger)
	auth := espn.NewAuth(cfg.Credentials, cfg.ESPNBaseURL, logger)
	client := espn.NewClient(espn.ClientConfig{
		BaseURL:       cfg.ESPNBaseURL,
		HistoryURL:    cfg.ESPNHistoryURL,
		CutoverSeason: cfg.ESPNCutoverSeason,
	}, auth, limiter, validate.SchemaValidator{}, logger)

	// Ingestion pipeline
	st := store.New(pool.Pool)
	pipeline := validate.NewPipeline(logger)
	orch := ingest.NewOrchestrator(client, st, pipeline, logger,
		ingest.WithBatchPause(cfg.IngestBatchPause))

	// Create router
	router := api.NewRouter(pool.Pool, orch, st, pipeline, cfg, logger)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting RFFL Codex Data API",
			"addr", addr,
			"environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
