// Command ingest is the RFFL Codex data ingestion CLI.
//
// Usage:
//
//	codex-ingest history --leagues 123456,789012 --start 2018 --end 2024
//	codex-ingest league --id 123456 --start 2020 --end 2024
//	codex-ingest season --id 123456 --year 2023
//	codex-ingest validate --type player_stats --file stats.json
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rffl/codex-data/internal/config"
	"github.com/rffl/codex-data/internal/db"
	"github.com/rffl/codex-data/internal/espn"
	"github.com/rffl/codex-data/internal/ingest"
	"github.com/rffl/codex-data/internal/ratelimit"
	"github.com/rffl/codex-data/internal/store"
	"github.com/rffl/codex-data/internal/validate"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "codex-ingest",
		Short: "RFFL Codex data ingestion CLI",
	}

	root.AddCommand(historyCmd())
	root.AddCommand(leagueCmd())
	root.AddCommand(seasonCmd())
	root.AddCommand(validateCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// history command
// --------------------------------------------------------------------------

func historyCmd() *cobra.Command {
	var (
		leagues    []int
		startYear  int
		endYear    int
		batchSize  int
		parallel   int
		noValidate bool
		noSkip     bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Ingest full league history for the configured leagues",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(func(ctx context.Context, cfg *config.Config, orch *ingest.Orchestrator) error {
				icfg := buildIngestConfig(cfg, leagues, startYear, endYear, batchSize, noValidate, noSkip)
				icfg.ParallelJobs = parallel
				start := time.Now()
				results, err := orch.IngestLeagueHistory(ctx, icfg)
				if err != nil {
					return err
				}
				logResults(results, time.Since(start))
				return nil
			})
		},
	}
	cmd.Flags().IntSliceVar(&leagues, "leagues", nil, "League IDs (default: INGEST_TARGET_LEAGUES)")
	cmd.Flags().IntVar(&startYear, "start", 0, "First season year (default: ESPN_CUTOVER_SEASON)")
	cmd.Flags().IntVar(&endYear, "end", 0, "Last season year (default: current year)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Leagues per concurrent batch")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "Max leagues in flight per batch (0 = batch size)")
	cmd.Flags().BoolVar(&noValidate, "no-validate", false, "Skip the validation pipeline")
	cmd.Flags().BoolVar(&noSkip, "no-skip-existing", false, "Re-ingest seasons already stored")
	return cmd
}

// --------------------------------------------------------------------------
// league command
// --------------------------------------------------------------------------

func leagueCmd() *cobra.Command {
	var (
		leagueID   int
		startYear  int
		endYear    int
		noValidate bool
		noSkip     bool
	)
	cmd := &cobra.Command{
		Use:   "league",
		Short: "Ingest all seasons for a single league",
		RunE: func(cmd *cobra.Command, args []string) error {
			if leagueID == 0 {
				return fmt.Errorf("--id is required")
			}
			return runIngest(func(ctx context.Context, cfg *config.Config, orch *ingest.Orchestrator) error {
				icfg := buildIngestConfig(cfg, []int{leagueID}, startYear, endYear, 0, noValidate, noSkip)
				start := time.Now()
				result := orch.IngestSingleLeague(ctx, leagueID, icfg)
				logResults([]ingest.IngestionResult{result}, time.Since(start))
				if !result.Success {
					return fmt.Errorf("league %d ingestion failed", leagueID)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&leagueID, "id", 0, "League ID to ingest")
	cmd.Flags().IntVar(&startYear, "start", 0, "First season year (default: ESPN_CUTOVER_SEASON)")
	cmd.Flags().IntVar(&endYear, "end", 0, "Last season year (default: current year)")
	cmd.Flags().BoolVar(&noValidate, "no-validate", false, "Skip the validation pipeline")
	cmd.Flags().BoolVar(&noSkip, "no-skip-existing", false, "Re-ingest seasons already stored")
	return cmd
}

// --------------------------------------------------------------------------
// season command
// --------------------------------------------------------------------------

func seasonCmd() *cobra.Command {
	var (
		leagueID   int
		year       int
		noValidate bool
	)
	cmd := &cobra.Command{
		Use:   "season",
		Short: "Ingest one season of one league",
		RunE: func(cmd *cobra.Command, args []string) error {
			if leagueID == 0 || year == 0 {
				return fmt.Errorf("--id and --year are required")
			}
			return runIngest(func(ctx context.Context, cfg *config.Config, orch *ingest.Orchestrator) error {
				icfg := buildIngestConfig(cfg, []int{leagueID}, year, year, 0, noValidate, true)
				start := time.Now()
				result := orch.IngestLeagueSeason(ctx, leagueID, year, icfg)
				logResults([]ingest.IngestionResult{result}, time.Since(start))
				if !result.Success {
					return fmt.Errorf("season %d of league %d failed", year, leagueID)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&leagueID, "id", 0, "League ID to ingest")
	cmd.Flags().IntVar(&year, "year", 0, "Season year to ingest")
	cmd.Flags().BoolVar(&noValidate, "no-validate", false, "Skip the validation pipeline")
	return cmd
}

// --------------------------------------------------------------------------
// validate command
// --------------------------------------------------------------------------

func validateCmd() *cobra.Command {
	var (
		dataType string
		file     string
		position string
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run the validation pipeline over a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			payload, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}

			pipeline := validate.NewPipeline(logger)
			result := pipeline.Validate(dataType, json.RawMessage(payload), validate.Context{Position: position})

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			logger.Info("validation finished",
				"type", dataType, "passed", result.Passed,
				"quality_score", validate.QualityScore(result))
			if !result.Passed {
				return fmt.Errorf("validation failed: %s", result.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dataType, "type", "league", "Data type (league, player_stats, league_config, matchup)")
	cmd.Flags().StringVar(&file, "file", "", "Path to the JSON payload")
	cmd.Flags().StringVar(&position, "position", "", "Player position for statistical checks")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

func buildIngestConfig(cfg *config.Config, leagues []int, startYear, endYear, batchSize int, noValidate, noSkip bool) ingest.Config {
	icfg := ingest.Config{
		StartYear:     startYear,
		EndYear:       endYear,
		TargetLeagues: leagues,
		BatchSize:     batchSize,
		RetryAttempts: cfg.RetryAttempts,
		ValidateData:  !noValidate,
		SkipExisting:  !noSkip,
	}
	if icfg.StartYear == 0 {
		icfg.StartYear = cfg.ESPNCutoverSeason
	}
	if icfg.EndYear == 0 {
		icfg.EndYear = time.Now().Year()
	}
	if len(icfg.TargetLeagues) == 0 {
		icfg.TargetLeagues = cfg.TargetLeagues
	}
	if icfg.BatchSize == 0 {
		icfg.BatchSize = cfg.IngestBatchSize
	}
	return icfg
}

func logResults(results []ingest.IngestionResult, elapsed time.Duration) {
	var records, failures int
	for _, r := range results {
		records += r.RecordsIngested
		if !r.Success {
			failures++
		}
		logger.Info("league result",
			"league_id", r.LeagueID, "success", r.Success,
			"records", r.RecordsIngested, "validation_score", r.ValidationScore,
			"errors", len(r.Errors))
		for _, e := range r.Errors {
			logger.Error("ingestion error",
				"type", e.Type, "league_id", e.LeagueID, "season", e.SeasonYear,
				"recoverable", e.Recoverable, "message", e.Message)
		}
	}
	logger.Info("ingestion finished",
		"leagues", len(results), "failed", failures,
		"records", records, "duration", elapsed.Round(time.Second))
}

// runIngest handles config loading, DB connection, client wiring, and
// context cancellation.
func runIngest(fn func(ctx context.Context, cfg *config.Config, orch *ingest.Orchestrator) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

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

	st := store.New(pool.Pool)
	pipeline := validate.NewPipeline(logger)
	orch := ingest.NewOrchestrator(client, st, pipeline, logger,
		ingest.WithBatchPause(cfg.IngestBatchPause))

	return fn(ctx, cfg, orch)
}
