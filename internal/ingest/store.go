package ingest

import (
	"context"

	"github.com/rffl/codex-data/internal/espn"
	"github.com/rffl/codex-data/internal/model"
)

// Store is the persistence boundary the orchestrator writes through.
// Upserts are atomic per row; the orchestrator never wraps multi-entity
// writes in a transaction, so re-running a season is idempotent at the
// row level.
type Store interface {
	LeagueExists(ctx context.Context, leagueID int) (bool, error)
	CreateLeague(ctx context.Context, league model.League) error
	UpsertLeague(ctx context.Context, league model.League) error

	SettingsExist(ctx context.Context, leagueID, season int) (bool, error)
	UpsertLeagueSettings(ctx context.Context, settings model.LeagueSeasonSettings) error

	UpsertTeam(ctx context.Context, team model.Team) error
	UpsertTeamRecord(ctx context.Context, record model.TeamSeasonRecord) error

	UpsertPlayer(ctx context.Context, player model.Player) error
	UpsertPlayerWeekStats(ctx context.Context, stats model.PlayerWeekStats) error

	UpsertMatchup(ctx context.Context, matchup model.Matchup) error
	UpsertTransaction(ctx context.Context, txn model.Transaction) error

	CreateJob(ctx context.Context, job *model.IngestionJob) error
	UpdateJob(ctx context.Context, job *model.IngestionJob) error
	GetJob(ctx context.Context, jobID string) (*model.IngestionJob, error)
}

// Client is the upstream fetch surface the orchestrator consumes.
type Client interface {
	GetLeague(ctx context.Context, leagueID, season int, opts espn.LeagueOptions) (*espn.LeagueResponse, error)
	GetPlayers(ctx context.Context, season int, opts espn.PlayersOptions) (*espn.PlayerResponse, error)
	GetTransactions(ctx context.Context, leagueID, season int) (*espn.TransactionsResponse, error)
}
