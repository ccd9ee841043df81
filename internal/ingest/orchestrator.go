// Package ingest orchestrates the full pipeline from the upstream API to
// the store: fetch, validate, transform, upsert, with job bookkeeping.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rffl/codex-data/internal/espn"
	"github.com/rffl/codex-data/internal/model"
	"github.com/rffl/codex-data/internal/transform"
	"github.com/rffl/codex-data/internal/validate"
)

// seasonViews is the view set requested for a full season ingestion.
var seasonViews = []string{"mTeam", "mRoster", "mMatchup", "mSettings", "mStandings"}

const (
	maxSeasonWeeks    = 18
	defaultBatchPause = 2 * time.Second
)

// Orchestrator drives ingestion runs. The rate limiter lives inside the
// client and is shared by all concurrent league tasks; the orchestrator
// only adds the courtesy pause between batches.
type Orchestrator struct {
	client   Client
	store    Store
	pipeline *validate.Pipeline
	logger   *slog.Logger

	batchPause time.Duration
	now        func() time.Time
}

type Option func(*Orchestrator)

// WithBatchPause overrides the pause between league batches.
func WithBatchPause(d time.Duration) Option {
	return func(o *Orchestrator) { o.batchPause = d }
}

// WithClock overrides the time source used for week computation.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func NewOrchestrator(client Client, store Store, pipeline *validate.Pipeline, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		client:     client,
		store:      store,
		pipeline:   pipeline,
		logger:     logger,
		batchPause: defaultBatchPause,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// IngestLeagueHistory runs the configured leagues in sequential batches,
// leagues within a batch concurrently. Every league settles to a result;
// only job-bookkeeping failures propagate as errors.
func (o *Orchestrator) IngestLeagueHistory(ctx context.Context, cfg Config) ([]IngestionResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	job := &model.IngestionJob{
		ID:        uuid.NewString(),
		JobType:   "league_history",
		Status:    model.JobRunning,
		StartedAt: o.now(),
		Metadata: map[string]any{
			"startYear":     cfg.StartYear,
			"endYear":       cfg.EndYear,
			"targetLeagues": cfg.TargetLeagues,
			"batchSize":     cfg.BatchSize,
		},
	}
	if err := o.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create ingestion job: %w", err)
	}

	o.logger.Info("starting league history ingestion",
		"job_id", job.ID, "leagues", len(cfg.TargetLeagues),
		"start_year", cfg.StartYear, "end_year", cfg.EndYear)

	results, err := o.runBatches(ctx, cfg)
	if err != nil {
		o.failJob(ctx, job, err)
		return nil, err
	}

	o.completeJob(ctx, job, results)
	o.logger.Info("league history ingestion complete",
		"job_id", job.ID, "succeeded", countSuccessful(results), "total", len(results))
	return results, nil
}

// StartLeagueHistory creates the job record, then runs the ingestion in a
// background goroutine detached from the caller's request context. The
// returned job ID can be polled through the store.
func (o *Orchestrator) StartLeagueHistory(ctx context.Context, cfg Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	job := &model.IngestionJob{
		ID:        uuid.NewString(),
		JobType:   "league_history",
		Status:    model.JobRunning,
		StartedAt: o.now(),
		Metadata: map[string]any{
			"startYear":     cfg.StartYear,
			"endYear":       cfg.EndYear,
			"targetLeagues": cfg.TargetLeagues,
			"batchSize":     cfg.BatchSize,
		},
	}
	if err := o.store.CreateJob(ctx, job); err != nil {
		return "", fmt.Errorf("create ingestion job: %w", err)
	}

	go func() {
		bgCtx := context.Background()
		results, err := o.runBatches(bgCtx, cfg)
		if err != nil {
			o.failJob(bgCtx, job, err)
			return
		}
		o.completeJob(bgCtx, job, results)
		o.logger.Info("background ingestion complete",
			"job_id", job.ID, "succeeded", countSuccessful(results), "total", len(results))
	}()

	return job.ID, nil
}

func (o *Orchestrator) runBatches(ctx context.Context, cfg Config) ([]IngestionResult, error) {
	batches := makeBatches(cfg.TargetLeagues, cfg.BatchSize)
	results := make([]IngestionResult, 0, len(cfg.TargetLeagues))

	for i, batch := range batches {
		o.logger.Info("processing league batch", "batch", i+1, "of", len(batches), "size", len(batch))

		batchResults := make([]IngestionResult, len(batch))
		sem := make(chan struct{}, batchConcurrency(cfg))
		var wg sync.WaitGroup
		for j, leagueID := range batch {
			wg.Add(1)
			go func(j, leagueID int) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				batchResults[j] = o.IngestSingleLeague(ctx, leagueID, cfg)
			}(j, leagueID)
		}
		wg.Wait()

		results = append(results, batchResults...)

		if i < len(batches)-1 {
			select {
			case <-time.After(o.batchPause):
			case <-ctx.Done():
				return results, ctx.Err()
			}
		}
	}
	return results, nil
}

// IngestSingleLeague runs every configured season for one league,
// sequentially in ascending year order. One bad season does not abort
// the league.
func (o *Orchestrator) IngestSingleLeague(ctx context.Context, leagueID int, cfg Config) IngestionResult {
	start := o.now()
	result := IngestionResult{
		LeagueID:        leagueID,
		ValidationScore: 100,
		Performance:     Performance{StartTime: start},
	}

	if err := o.ensureLeagueExists(ctx, leagueID); err != nil {
		result.Errors = append(result.Errors, IngestionError{
			Type:        ErrTypeDatabase,
			Message:     fmt.Sprintf("ensure league exists: %v", err),
			LeagueID:    leagueID,
			Recoverable: false,
		})
		result.Success = false
		finishPerformance(&result.Performance, 0, o.now())
		return result
	}

	for year := cfg.StartYear; year <= cfg.EndYear; year++ {
		seasonResult := o.IngestLeagueSeason(ctx, leagueID, year, cfg)

		result.RecordsIngested += seasonResult.RecordsIngested
		result.Performance.APIRequestCount += seasonResult.Performance.APIRequestCount
		result.Errors = append(result.Errors, seasonResult.Errors...)
		if seasonResult.ValidationScore < result.ValidationScore {
			result.ValidationScore = seasonResult.ValidationScore
		}
	}

	result.Success = result.nonRecoverableCount() == 0
	finishPerformance(&result.Performance, result.RecordsIngested, o.now())
	return result
}

// IngestLeagueSeason ingests one league season. It always returns a
// settled result; a non-recoverable failure aborts the season and is
// recorded on the result rather than raised.
func (o *Orchestrator) IngestLeagueSeason(ctx context.Context, leagueID, year int, cfg Config) IngestionResult {
	start := o.now()
	result := IngestionResult{
		LeagueID:        leagueID,
		SeasonYear:      year,
		ValidationScore: 100,
		Performance:     Performance{StartTime: start},
	}

	fail := func(errType, msg string) IngestionResult {
		result.Errors = append(result.Errors, IngestionError{
			Type:        errType,
			Message:     msg,
			LeagueID:    leagueID,
			SeasonYear:  year,
			Recoverable: false,
		})
		result.Success = false
		result.ValidationScore = 0
		finishPerformance(&result.Performance, result.RecordsIngested, o.now())
		return result
	}

	if cfg.SkipExisting {
		exists, err := o.store.SettingsExist(ctx, leagueID, year)
		if err != nil {
			return fail(ErrTypeDatabase, fmt.Sprintf("check season existence: %v", err))
		}
		if exists {
			o.logger.Debug("season already ingested, skipping", "league_id", leagueID, "season", year)
			result.Success = true
			finishPerformance(&result.Performance, 0, o.now())
			return result
		}
	}

	resp, err := o.client.GetLeague(ctx, leagueID, year, espn.LeagueOptions{Views: seasonViews})
	result.Performance.APIRequestCount++
	if err != nil {
		return fail(ErrTypeAPI, fmt.Sprintf("fetch league: %v", err))
	}

	if cfg.ValidateData {
		vr := o.pipeline.Validate("league", resp, validate.Context{Season: year})
		result.ValidationScore = validate.QualityScore(vr)
		if !vr.Passed {
			result.Errors = append(result.Errors, IngestionError{
				Type:        ErrTypeValidation,
				Message:     vr.Message,
				LeagueID:    leagueID,
				SeasonYear:  year,
				Recoverable: false,
			})
			if vr.Severity == validate.SeverityCritical {
				return fail(ErrTypeIngestion, "critical validation failure, aborting season")
			}
		}
	}

	league, settings, err := transform.League(resp)
	if err != nil {
		return fail(ErrTypeTransformation, err.Error())
	}
	league.CreatedYear = year

	if cfg.ValidateData {
		vr := o.pipeline.Validate("league_config", settings, validate.Context{Season: year})
		if score := validate.QualityScore(vr); score < result.ValidationScore {
			result.ValidationScore = score
		}
		if !vr.Passed && vr.Severity == validate.SeverityCritical {
			result.Errors = append(result.Errors, IngestionError{
				Type:        ErrTypeValidation,
				Message:     vr.Message,
				LeagueID:    leagueID,
				SeasonYear:  year,
				Recoverable: false,
			})
			return fail(ErrTypeIngestion, "critical validation failure, aborting season")
		}
	}
	if err := o.store.UpsertLeague(ctx, league); err != nil {
		return fail(ErrTypeDatabase, fmt.Sprintf("upsert league: %v", err))
	}
	if err := o.store.UpsertLeagueSettings(ctx, settings); err != nil {
		return fail(ErrTypeDatabase, fmt.Sprintf("upsert league settings: %v", err))
	}
	result.RecordsIngested++

	for _, rawTeam := range resp.Teams {
		team, err := transform.Team(rawTeam, leagueID)
		if err != nil {
			result.Errors = append(result.Errors, IngestionError{
				Type:        ErrTypeTransformation,
				Message:     err.Error(),
				LeagueID:    leagueID,
				SeasonYear:  year,
				Recoverable: true,
			})
			continue
		}
		if err := o.store.UpsertTeam(ctx, team); err != nil {
			return fail(ErrTypeDatabase, fmt.Sprintf("upsert team %d: %v", team.ESPNTeamID, err))
		}
		if err := o.store.UpsertTeamRecord(ctx, transform.TeamRecord(rawTeam, leagueID, year)); err != nil {
			return fail(ErrTypeDatabase, fmt.Sprintf("upsert team record %d: %v", team.ESPNTeamID, err))
		}
		result.RecordsIngested++
	}

	for _, entry := range resp.Schedule {
		matchup, err := transform.Matchup(entry, leagueID, year)
		if err != nil {
			result.Errors = append(result.Errors, IngestionError{
				Type:        ErrTypeTransformation,
				Message:     err.Error(),
				LeagueID:    leagueID,
				SeasonYear:  year,
				Recoverable: true,
			})
			continue
		}
		if err := o.store.UpsertMatchup(ctx, matchup); err != nil {
			return fail(ErrTypeDatabase, fmt.Sprintf("upsert matchup week %d: %v", matchup.Week, err))
		}
		result.RecordsIngested++
	}

	statRecords, statCalls := o.ingestPlayerStats(ctx, leagueID, year, cfg, &result)
	result.RecordsIngested += statRecords
	result.Performance.APIRequestCount += statCalls

	o.ingestTransactions(ctx, leagueID, year, &result)

	result.Success = result.nonRecoverableCount() == 0
	finishPerformance(&result.Performance, result.RecordsIngested, o.now())
	o.logger.Info("season ingestion finished",
		"league_id", leagueID, "season", year,
		"records", result.RecordsIngested, "errors", len(result.Errors),
		"duration", result.Performance.Duration)
	return result
}

// ingestPlayerStats walks the season week by week, tolerating per-week
// failures.
func (o *Orchestrator) ingestPlayerStats(ctx context.Context, leagueID, year int, cfg Config, result *IngestionResult) (records, apiCalls int) {
	weeks := o.weeksForSeason(year)

	for week := 1; week <= weeks; week++ {
		resp, err := o.client.GetPlayers(ctx, year, espn.PlayersOptions{ScoringPeriod: week})
		apiCalls++
		if err != nil {
			result.Errors = append(result.Errors, IngestionError{
				Type:        ErrTypeAPI,
				Message:     fmt.Sprintf("fetch week %d players: %v", week, err),
				LeagueID:    leagueID,
				SeasonYear:  year,
				Week:        week,
				Recoverable: true,
			})
			continue
		}

		for _, entry := range resp.Players {
			player, err := transform.Player(entry)
			if err != nil {
				result.Errors = append(result.Errors, IngestionError{
					Type:        ErrTypeTransformation,
					Message:     err.Error(),
					LeagueID:    leagueID,
					SeasonYear:  year,
					Week:        week,
					Recoverable: true,
				})
				continue
			}
			if err := o.store.UpsertPlayer(ctx, player); err != nil {
				result.Errors = append(result.Errors, IngestionError{
					Type:        ErrTypeDatabase,
					Message:     fmt.Sprintf("upsert player %d: %v", player.ESPNPlayerID, err),
					LeagueID:    leagueID,
					SeasonYear:  year,
					Week:        week,
					Recoverable: true,
				})
				continue
			}

			for _, line := range entry.Player.Stats {
				if line.ScoringPeriodID != week || line.StatSourceID != 0 {
					continue
				}
				stats := transform.PlayerWeekStats(player.ESPNPlayerID, year, line)

				if cfg.ValidateData {
					vr := o.pipeline.Validate("player_stats", stats, validate.Context{
						Position: player.Position,
						Season:   year,
						Week:     week,
					})
					if score := validate.QualityScore(vr); score < result.ValidationScore {
						result.ValidationScore = score
					}
					if !vr.Passed && vr.Severity == validate.SeverityCritical {
						result.Errors = append(result.Errors, IngestionError{
							Type:        ErrTypeValidation,
							Message:     fmt.Sprintf("player %d week %d: %s", player.ESPNPlayerID, week, vr.Message),
							LeagueID:    leagueID,
							SeasonYear:  year,
							Week:        week,
							Recoverable: true,
						})
						continue
					}
				}

				if err := o.store.UpsertPlayerWeekStats(ctx, stats); err != nil {
					result.Errors = append(result.Errors, IngestionError{
						Type:        ErrTypeDatabase,
						Message:     fmt.Sprintf("upsert stats player %d week %d: %v", player.ESPNPlayerID, week, err),
						LeagueID:    leagueID,
						SeasonYear:  year,
						Week:        week,
						Recoverable: true,
					})
					continue
				}
				records++
			}
		}
	}
	return records, apiCalls
}

// ingestTransactions is best-effort: older seasons commonly have none.
func (o *Orchestrator) ingestTransactions(ctx context.Context, leagueID, year int, result *IngestionResult) {
	resp, err := o.client.GetTransactions(ctx, leagueID, year)
	result.Performance.APIRequestCount++
	if err != nil {
		o.logger.Warn("transaction fetch failed",
			"league_id", leagueID, "season", year, "error", err)
		result.Errors = append(result.Errors, IngestionError{
			Type:        ErrTypeAPI,
			Message:     fmt.Sprintf("transaction fetch failed: %v", err),
			LeagueID:    leagueID,
			SeasonYear:  year,
			Recoverable: true,
		})
		return
	}

	for _, entry := range resp.Transactions {
		txn := transform.Transaction(entry, leagueID, year)
		if err := o.store.UpsertTransaction(ctx, txn); err != nil {
			result.Errors = append(result.Errors, IngestionError{
				Type:        ErrTypeDatabase,
				Message:     fmt.Sprintf("upsert transaction %d: %v", txn.ESPNTransactionID, err),
				LeagueID:    leagueID,
				SeasonYear:  year,
				Recoverable: true,
			})
			continue
		}
		result.RecordsIngested++
	}
}

// weeksForSeason returns how many weeks of the season to walk. A season
// still in progress only has weeks elapsed since September 1; completed
// seasons get the full slate.
func (o *Orchestrator) weeksForSeason(year int) int {
	now := o.now()
	if now.Year() != year {
		return maxSeasonWeeks
	}
	anchor := time.Date(year, time.September, 1, 0, 0, 0, 0, time.UTC)
	if now.Before(anchor) {
		return maxSeasonWeeks
	}
	weeks := int(now.Sub(anchor)/(7*24*time.Hour)) + 1
	if weeks > maxSeasonWeeks {
		weeks = maxSeasonWeeks
	}
	return weeks
}

func (o *Orchestrator) ensureLeagueExists(ctx context.Context, leagueID int) error {
	exists, err := o.store.LeagueExists(ctx, leagueID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	// Placeholder updated once the first season is ingested.
	return o.store.CreateLeague(ctx, model.League{
		ESPNLeagueID: leagueID,
		Name:         fmt.Sprintf("League %d", leagueID),
		CreatedYear:  o.now().Year(),
		LeagueType:   "standard",
		Visibility:   "private",
	})
}

func (o *Orchestrator) completeJob(ctx context.Context, job *model.IngestionJob, results []IngestionResult) {
	var totalRecords, totalErrors int
	var scoreSum float64
	for _, r := range results {
		totalRecords += r.RecordsIngested
		totalErrors += len(r.Errors)
		scoreSum += r.ValidationScore
	}

	job.Status = model.JobCompleted
	job.CompletedAt = o.now()
	job.RecordsProcessed = totalRecords
	job.ErrorsCount = totalErrors
	if len(results) > 0 {
		job.SuccessRate = float64(countSuccessful(results)) / float64(len(results))
		job.QualityScore = scoreSum / float64(len(results))
	}
	if err := o.store.UpdateJob(ctx, job); err != nil {
		o.logger.Error("failed to mark job completed", "job_id", job.ID, "error", err)
	}
}

func (o *Orchestrator) failJob(ctx context.Context, job *model.IngestionJob, cause error) {
	job.Status = model.JobFailed
	job.CompletedAt = o.now()
	job.ErrorMessages = append(job.ErrorMessages, cause.Error())
	if err := o.store.UpdateJob(ctx, job); err != nil {
		o.logger.Error("failed to mark job failed", "job_id", job.ID, "error", err)
	}
}

// batchConcurrency caps leagues in flight within one batch. A ParallelJobs
// of zero or above the batch size leaves the batch fully concurrent.
func batchConcurrency(cfg Config) int {
	if cfg.ParallelJobs > 0 && cfg.ParallelJobs < cfg.BatchSize {
		return cfg.ParallelJobs
	}
	if cfg.BatchSize < 1 {
		return 1
	}
	return cfg.BatchSize
}

func makeBatches(items []int, size int) [][]int {
	if size < 1 {
		size = 1
	}
	var batches [][]int
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}
	return batches
}

func countSuccessful(results []IngestionResult) int {
	n := 0
	for _, r := range results {
		if r.Success {
			n++
		}
	}
	return n
}
