// Package store persists normalized entities to Postgres. Every write is
// a single-row upsert keyed on the entity's natural key, so re-running an
// ingestion is idempotent at the row level.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rffl/codex-data/internal/model"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) LeagueExists(ctx context.Context, leagueID int) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx, "league_exists", leagueID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check league %d: %w", leagueID, err)
	}
	return true, nil
}

func (s *Store) CreateLeague(ctx context.Context, league model.League) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO leagues (
			espn_league_id, name, created_year, league_type,
			visibility, data_quality_score
		) VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (espn_league_id) DO NOTHING`,
		league.ESPNLeagueID, league.Name, league.CreatedYear,
		league.LeagueType, league.Visibility, league.DataQualityScore,
	)
	if err != nil {
		return fmt.Errorf("create league %d: %w", league.ESPNLeagueID, err)
	}
	return nil
}

func (s *Store) UpsertLeague(ctx context.Context, league model.League) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO leagues (
			espn_league_id, name, created_year, league_type,
			visibility, data_quality_score
		) VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (espn_league_id) DO UPDATE SET
			name = EXCLUDED.name,
			league_type = EXCLUDED.league_type,
			visibility = EXCLUDED.visibility,
			data_quality_score = EXCLUDED.data_quality_score,
			updated_at = NOW()`,
		league.ESPNLeagueID, league.Name, league.CreatedYear,
		league.LeagueType, league.Visibility, league.DataQualityScore,
	)
	if err != nil {
		return fmt.Errorf("upsert league %d: %w", league.ESPNLeagueID, err)
	}
	return nil
}

func (s *Store) SettingsExist(ctx context.Context, leagueID, season int) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx, "settings_exist", leagueID, season).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check settings league %d season %d: %w", leagueID, season, err)
	}
	return true, nil
}

func (s *Store) UpsertLeagueSettings(ctx context.Context, settings model.LeagueSeasonSettings) error {
	scoring, err := json.Marshal(settings.ScoringSettings)
	if err != nil {
		return fmt.Errorf("encode scoring settings: %w", err)
	}
	roster, err := json.Marshal(settings.RosterPositions)
	if err != nil {
		return fmt.Errorf("encode roster positions: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO league_settings (
			espn_league_id, season_year, team_count, playoff_teams,
			regular_season_weeks, playoff_weeks, scoring_type,
			scoring_settings, roster_positions, bench_spots, ir_spots,
			waiver_type, waiver_period_days, trade_deadline_week,
			acquisition_budget, draft_type, is_active, is_complete,
			current_week, final_week
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
		ON CONFLICT (espn_league_id, season_year) DO UPDATE SET
			team_count = EXCLUDED.team_count,
			playoff_teams = EXCLUDED.playoff_teams,
			regular_season_weeks = EXCLUDED.regular_season_weeks,
			playoff_weeks = EXCLUDED.playoff_weeks,
			scoring_type = EXCLUDED.scoring_type,
			scoring_settings = EXCLUDED.scoring_settings,
			roster_positions = EXCLUDED.roster_positions,
			bench_spots = EXCLUDED.bench_spots,
			ir_spots = EXCLUDED.ir_spots,
			waiver_type = EXCLUDED.waiver_type,
			waiver_period_days = EXCLUDED.waiver_period_days,
			trade_deadline_week = EXCLUDED.trade_deadline_week,
			acquisition_budget = EXCLUDED.acquisition_budget,
			draft_type = EXCLUDED.draft_type,
			is_active = EXCLUDED.is_active,
			is_complete = EXCLUDED.is_complete,
			current_week = EXCLUDED.current_week,
			final_week = EXCLUDED.final_week,
			updated_at = NOW()`,
		settings.ESPNLeagueID, settings.SeasonYear, settings.TeamCount,
		settings.PlayoffTeams, settings.RegularSeasonWeeks, settings.PlayoffWeeks,
		settings.ScoringType, scoring, roster, settings.BenchSpots, settings.IRSpots,
		settings.WaiverType, settings.WaiverPeriodDays, settings.TradeDeadlineWeek,
		settings.AcquisitionBudget, settings.DraftType, settings.IsActive,
		settings.IsComplete, settings.CurrentWeek, settings.FinalWeek,
	)
	if err != nil {
		return fmt.Errorf("upsert settings league %d season %d: %w",
			settings.ESPNLeagueID, settings.SeasonYear, err)
	}
	return nil
}

func (s *Store) UpsertTeam(ctx context.Context, team model.Team) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO teams (
			espn_team_id, espn_league_id, name, abbreviation,
			logo_url, owner_name, co_owner_names
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (espn_league_id, espn_team_id) DO UPDATE SET
			name = EXCLUDED.name,
			abbreviation = EXCLUDED.abbreviation,
			logo_url = EXCLUDED.logo_url,
			owner_name = EXCLUDED.owner_name,
			co_owner_names = EXCLUDED.co_owner_names,
			updated_at = NOW()`,
		team.ESPNTeamID, team.ESPNLeagueID, team.Name, team.Abbreviation,
		team.LogoURL, team.OwnerName, team.CoOwnerNames,
	)
	if err != nil {
		return fmt.Errorf("upsert team %d: %w", team.ESPNTeamID, err)
	}
	return nil
}

func (s *Store) UpsertTeamRecord(ctx context.Context, record model.TeamSeasonRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO team_seasons (
			espn_team_id, espn_league_id, season_year, final_standing,
			wins, losses, ties, points_for, points_against,
			waiver_rank, streak_type, streak_length
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (espn_league_id, espn_team_id, season_year) DO UPDATE SET
			final_standing = EXCLUDED.final_standing,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			ties = EXCLUDED.ties,
			points_for = EXCLUDED.points_for,
			points_against = EXCLUDED.points_against,
			waiver_rank = EXCLUDED.waiver_rank,
			streak_type = EXCLUDED.streak_type,
			streak_length = EXCLUDED.streak_length,
			updated_at = NOW()`,
		record.ESPNTeamID, record.ESPNLeagueID, record.SeasonYear,
		record.FinalStanding, record.Wins, record.Losses, record.Ties,
		record.PointsFor, record.PointsAgainst, record.WaiverRank,
		record.StreakType, record.StreakLength,
	)
	if err != nil {
		return fmt.Errorf("upsert team record %d season %d: %w",
			record.ESPNTeamID, record.SeasonYear, err)
	}
	return nil
}

func (s *Store) UpsertPlayer(ctx context.Context, player model.Player) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO players (
			espn_player_id, name, first_name, last_name, position,
			eligible_positions, pro_team, jersey_number,
			percent_owned, percent_started, average_draft_position
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (espn_player_id) DO UPDATE SET
			name = EXCLUDED.name,
			position = EXCLUDED.position,
			eligible_positions = EXCLUDED.eligible_positions,
			pro_team = EXCLUDED.pro_team,
			jersey_number = EXCLUDED.jersey_number,
			percent_owned = EXCLUDED.percent_owned,
			percent_started = EXCLUDED.percent_started,
			average_draft_position = EXCLUDED.average_draft_position,
			updated_at = NOW()`,
		player.ESPNPlayerID, player.Name, player.FirstName, player.LastName,
		player.Position, player.EligiblePositions, player.ProTeam,
		player.JerseyNumber, player.PercentOwned, player.PercentStarted,
		player.AverageDraftPosition,
	)
	if err != nil {
		return fmt.Errorf("upsert player %d: %w", player.ESPNPlayerID, err)
	}
	return nil
}

func (s *Store) UpsertPlayerWeekStats(ctx context.Context, stats model.PlayerWeekStats) error {
	passing, _ := json.Marshal(stats.Passing)
	rushing, _ := json.Marshal(stats.Rushing)
	receiving, _ := json.Marshal(stats.Receiving)
	kicking, _ := json.Marshal(stats.Kicking)
	defense, _ := json.Marshal(stats.Defense)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO player_week_stats (
			espn_player_id, season_year, week, opponent, fantasy_points,
			passing, rushing, receiving, kicking, defense,
			data_source, confidence_score, anomaly_flags
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (espn_player_id, season_year, week) DO UPDATE SET
			opponent = EXCLUDED.opponent,
			fantasy_points = EXCLUDED.fantasy_points,
			passing = EXCLUDED.passing,
			rushing = EXCLUDED.rushing,
			receiving = EXCLUDED.receiving,
			kicking = EXCLUDED.kicking,
			defense = EXCLUDED.defense,
			data_source = EXCLUDED.data_source,
			confidence_score = EXCLUDED.confidence_score,
			anomaly_flags = EXCLUDED.anomaly_flags,
			updated_at = NOW()`,
		stats.ESPNPlayerID, stats.SeasonYear, stats.Week, stats.Opponent,
		stats.FantasyPoints, passing, rushing, receiving, kicking, defense,
		stats.DataSource, stats.ConfidenceScore, stats.AnomalyFlags,
	)
	if err != nil {
		return fmt.Errorf("upsert stats player %d season %d week %d: %w",
			stats.ESPNPlayerID, stats.SeasonYear, stats.Week, err)
	}
	return nil
}

func (s *Store) UpsertMatchup(ctx context.Context, matchup model.Matchup) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO matchups (
			espn_league_id, season_year, week, home_team_id, away_team_id,
			home_score, away_score, matchup_type, is_complete, is_tied,
			winner_team_id, home_bench_points, away_bench_points,
			home_projected_score, away_projected_score
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (espn_league_id, season_year, week, home_team_id, away_team_id) DO UPDATE SET
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			matchup_type = EXCLUDED.matchup_type,
			is_complete = EXCLUDED.is_complete,
			is_tied = EXCLUDED.is_tied,
			winner_team_id = EXCLUDED.winner_team_id,
			home_bench_points = EXCLUDED.home_bench_points,
			away_bench_points = EXCLUDED.away_bench_points,
			home_projected_score = EXCLUDED.home_projected_score,
			away_projected_score = EXCLUDED.away_projected_score,
			updated_at = NOW()`,
		matchup.ESPNLeagueID, matchup.SeasonYear, matchup.Week,
		matchup.HomeTeamID, matchup.AwayTeamID, matchup.HomeScore,
		matchup.AwayScore, matchup.MatchupType, matchup.IsComplete,
		matchup.IsTied, matchup.WinnerTeamID, matchup.HomeBenchPoints,
		matchup.AwayBenchPoints, matchup.HomeProjectedScore,
		matchup.AwayProjectedScore,
	)
	if err != nil {
		return fmt.Errorf("upsert matchup league %d week %d: %w",
			matchup.ESPNLeagueID, matchup.Week, err)
	}
	return nil
}

func (s *Store) UpsertTransaction(ctx context.Context, txn model.Transaction) error {
	players, err := json.Marshal(txn.Players)
	if err != nil {
		return fmt.Errorf("encode transaction players: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO transactions (
			espn_transaction_id, espn_league_id, season_year, week,
			type, status, transaction_date, proposing_team_id,
			accepting_team_id, bid_amount, players
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (espn_league_id, espn_transaction_id) DO UPDATE SET
			status = EXCLUDED.status,
			players = EXCLUDED.players,
			updated_at = NOW()`,
		txn.ESPNTransactionID, txn.ESPNLeagueID, txn.SeasonYear, txn.Week,
		txn.Type, txn.Status, txn.Date, txn.ProposingTeamID,
		txn.AcceptingTeamID, txn.BidAmount, players,
	)
	if err != nil {
		return fmt.Errorf("upsert transaction %d: %w", txn.ESPNTransactionID, err)
	}
	return nil
}

func (s *Store) CreateJob(ctx context.Context, job *model.IngestionJob) error {
	metadata, err := json.Marshal(job.Metadata)
	if err != nil {
		return fmt.Errorf("encode job metadata: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO ingestion_jobs (
			id, job_type, status, started_at, metadata
		) VALUES ($1,$2,$3,$4,$5)`,
		job.ID, job.JobType, job.Status, job.StartedAt, metadata,
	)
	if err != nil {
		return fmt.Errorf("create job %s: %w", job.ID, err)
	}
	return nil
}

func (s *Store) UpdateJob(ctx context.Context, job *model.IngestionJob) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE ingestion_jobs SET
			status = $2,
			completed_at = $3,
			records_processed = $4,
			errors_count = $5,
			success_rate = $6,
			quality_score = $7,
			error_messages = $8
		WHERE id = $1`,
		job.ID, job.Status, job.CompletedAt, job.RecordsProcessed,
		job.ErrorsCount, job.SuccessRate, job.QualityScore, job.ErrorMessages,
	)
	if err != nil {
		return fmt.Errorf("update job %s: %w", job.ID, err)
	}
	return nil
}

func (s *Store) GetJob(ctx context.Context, jobID string) (*model.IngestionJob, error) {
	var job model.IngestionJob
	var metadata []byte
	var completedAt *time.Time
	err := s.pool.QueryRow(ctx, "job_by_id", jobID).Scan(
		&job.ID, &job.JobType, &job.Status, &job.StartedAt, &completedAt,
		&job.RecordsProcessed, &job.ErrorsCount, &job.SuccessRate,
		&job.QualityScore, &metadata, &job.ErrorMessages,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}
	if completedAt != nil {
		job.CompletedAt = *completedAt
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &job.Metadata); err != nil {
			return nil, fmt.Errorf("decode job metadata: %w", err)
		}
	}
	return &job, nil
}
