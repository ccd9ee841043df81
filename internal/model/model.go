// Package model defines the normalized internal entities the ingestion
// pipeline produces. Shapes match the relational schema: a League owns its
// per-season settings and teams, a Team owns its per-season records, a
// Player owns its per-week stat lines.
package model

import "time"

// --------------------------------------------------------------------------
// League
// --------------------------------------------------------------------------

type League struct {
	ESPNLeagueID     int     `json:"espnLeagueId"`
	Name             string  `json:"name"`
	CreatedYear      int     `json:"createdYear"`
	LeagueType       string  `json:"leagueType"` // standard, keeper, dynasty
	Visibility       string  `json:"visibility"` // public, private
	DataQualityScore float64 `json:"dataQualityScore"`
}

// LeagueSeasonSettings is one year's configuration of a league.
type LeagueSeasonSettings struct {
	ESPNLeagueID int `json:"espnLeagueId"`
	SeasonYear   int `json:"seasonYear"`

	TeamCount          int `json:"teamCount"`
	PlayoffTeams       int `json:"playoffTeams"`
	RegularSeasonWeeks int `json:"regularSeasonWeeks"`
	PlayoffWeeks       int `json:"playoffWeeks"`

	ScoringType     string          `json:"scoringType"`
	ScoringSettings ScoringSettings `json:"scoringSettings"`

	RosterPositions map[int]int `json:"rosterPositions"`
	BenchSpots      int         `json:"benchSpots"`
	IRSpots         int         `json:"irSpots"`

	WaiverType        string `json:"waiverType"`
	WaiverPeriodDays  int    `json:"waiverPeriodDays"`
	TradeDeadlineWeek int    `json:"tradeDeadlineWeek"`
	AcquisitionBudget int    `json:"acquisitionBudget"`
	DraftType         string `json:"draftType"`

	IsActive    bool `json:"isActive"`
	IsComplete  bool `json:"isComplete"`
	CurrentWeek int  `json:"currentWeek"`
	FinalWeek   int  `json:"finalWeek"`
}

// ScoringSettings is the per-statistic point-value table governing fantasy
// point computation. Zero values are meaningful (e.g. non-PPR receptions),
// so construction always starts from the league defaults.
type ScoringSettings struct {
	PassingYards         float64 `json:"passingYards"`
	PassingTouchdowns    float64 `json:"passingTouchdowns"`
	PassingInterceptions float64 `json:"passingInterceptions"`
	RushingYards         float64 `json:"rushingYards"`
	RushingTouchdowns    float64 `json:"rushingTouchdowns"`
	ReceivingYards       float64 `json:"receivingYards"`
	ReceivingTouchdowns  float64 `json:"receivingTouchdowns"`
	Receptions           float64 `json:"receptions"`
	FumblesLost          float64 `json:"fumblesLost"`

	FieldGoals0to19  float64 `json:"fieldGoals0to19"`
	FieldGoals20to29 float64 `json:"fieldGoals20to29"`
	FieldGoals30to39 float64 `json:"fieldGoals30to39"`
	FieldGoals40to49 float64 `json:"fieldGoals40to49"`
	FieldGoals50plus float64 `json:"fieldGoals50plus"`
	ExtraPoints      float64 `json:"extraPoints"`

	DefensiveTouchdowns float64 `json:"defensiveTouchdowns"`
	Interceptions       float64 `json:"interceptions"`
	FumbleRecoveries    float64 `json:"fumbleRecoveries"`
	Sacks               float64 `json:"sacks"`
	Safeties            float64 `json:"safeties"`
	BlockedKicks        float64 `json:"blockedKicks"`
}

// --------------------------------------------------------------------------
// Team
// --------------------------------------------------------------------------

type Team struct {
	ESPNTeamID   int      `json:"espnTeamId"`
	ESPNLeagueID int      `json:"espnLeagueId"`
	Name         string   `json:"name"`
	Abbreviation string   `json:"abbreviation"`
	LogoURL      string   `json:"logoUrl"`
	OwnerName    string   `json:"ownerName"`
	CoOwnerNames []string `json:"coOwnerNames"`
}

// TeamSeasonRecord is one year's final record for a team.
type TeamSeasonRecord struct {
	ESPNTeamID   int `json:"espnTeamId"`
	ESPNLeagueID int `json:"espnLeagueId"`
	SeasonYear   int `json:"seasonYear"`

	FinalStanding int     `json:"finalStanding"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Ties          int     `json:"ties"`
	PointsFor     float64 `json:"pointsFor"`
	PointsAgainst float64 `json:"pointsAgainst"`

	WaiverRank   int    `json:"waiverRank"`
	StreakType   string `json:"streakType"`
	StreakLength int    `json:"streakLength"`
}

// WinPercentage returns wins / games played, or 0 before any games.
func (r TeamSeasonRecord) WinPercentage() float64 {
	games := r.Wins + r.Losses + r.Ties
	if games == 0 {
		return 0
	}
	return float64(r.Wins) / float64(games)
}

// --------------------------------------------------------------------------
// Player
// --------------------------------------------------------------------------

type Player struct {
	ESPNPlayerID      int      `json:"espnPlayerId"`
	Name              string   `json:"name"`
	FirstName         string   `json:"firstName"`
	LastName          string   `json:"lastName"`
	Position          string   `json:"position"`
	EligiblePositions []string `json:"eligiblePositions"`
	ProTeam           string   `json:"proTeam"`
	JerseyNumber      int      `json:"jerseyNumber"`

	PercentOwned         float64 `json:"percentOwned"`
	PercentStarted       float64 `json:"percentStarted"`
	AverageDraftPosition float64 `json:"averageDraftPosition"`
}

// PlayerWeekStats is one player's stat line for one week of one season.
type PlayerWeekStats struct {
	ESPNPlayerID int `json:"espnPlayerId"`
	SeasonYear   int `json:"seasonYear"`
	Week         int `json:"week"`

	Opponent      string  `json:"opponent"`
	FantasyPoints float64 `json:"fantasyPoints"`

	Passing   PassingStats   `json:"passing"`
	Rushing   RushingStats   `json:"rushing"`
	Receiving ReceivingStats `json:"receiving"`
	Kicking   KickingStats   `json:"kicking"`
	Defense   DefenseStats   `json:"defense"`

	DataSource      string   `json:"dataSource"`
	ConfidenceScore float64  `json:"confidenceScore"`
	AnomalyFlags    []string `json:"anomalyFlags"`
}

type PassingStats struct {
	Attempts            float64 `json:"attempts"`
	Completions         float64 `json:"completions"`
	Yards               float64 `json:"yards"`
	Touchdowns          float64 `json:"touchdowns"`
	Interceptions       float64 `json:"interceptions"`
	TwoPointConversions float64 `json:"twoPointConversions"`
}

type RushingStats struct {
	Attempts            float64 `json:"attempts"`
	Yards               float64 `json:"yards"`
	Touchdowns          float64 `json:"touchdowns"`
	TwoPointConversions float64 `json:"twoPointConversions"`
	FumblesLost         float64 `json:"fumblesLost"`
}

type ReceivingStats struct {
	Targets             float64 `json:"targets"`
	Receptions          float64 `json:"receptions"`
	Yards               float64 `json:"yards"`
	Touchdowns          float64 `json:"touchdowns"`
	TwoPointConversions float64 `json:"twoPointConversions"`
}

type KickingStats struct {
	FieldGoals0to19   float64 `json:"fieldGoals0to19"`
	FieldGoals20to29  float64 `json:"fieldGoals20to29"`
	FieldGoals30to39  float64 `json:"fieldGoals30to39"`
	FieldGoals40to49  float64 `json:"fieldGoals40to49"`
	FieldGoals50plus  float64 `json:"fieldGoals50plus"`
	ExtraPointsMade   float64 `json:"extraPointsMade"`
	ExtraPointsMissed float64 `json:"extraPointsMissed"`
}

type DefenseStats struct {
	Sacks            float64 `json:"sacks"`
	Interceptions    float64 `json:"interceptions"`
	FumbleRecoveries float64 `json:"fumbleRecoveries"`
	BlockedKicks     float64 `json:"blockedKicks"`
	Safeties         float64 `json:"safeties"`
	Touchdowns       float64 `json:"touchdowns"`
	PointsAllowed    float64 `json:"pointsAllowed"`
}

// --------------------------------------------------------------------------
// Matchup
// --------------------------------------------------------------------------

type Matchup struct {
	ESPNLeagueID int `json:"espnLeagueId"`
	SeasonYear   int `json:"seasonYear"`
	Week         int `json:"week"`

	HomeTeamID int     `json:"homeTeamId"`
	AwayTeamID int     `json:"awayTeamId"`
	HomeScore  float64 `json:"homeScore"`
	AwayScore  float64 `json:"awayScore"`

	MatchupType  string `json:"matchupType"` // regular, playoff, consolation, championship
	IsComplete   bool   `json:"isComplete"`
	IsTied       bool   `json:"isTied"`
	WinnerTeamID int    `json:"winnerTeamId"` // 0 when incomplete or tied

	HomeBenchPoints    float64 `json:"homeBenchPoints"`
	AwayBenchPoints    float64 `json:"awayBenchPoints"`
	HomeProjectedScore float64 `json:"homeProjectedScore"`
	AwayProjectedScore float64 `json:"awayProjectedScore"`
}

// --------------------------------------------------------------------------
// Transaction
// --------------------------------------------------------------------------

type Transaction struct {
	ESPNTransactionID int `json:"espnTransactionId"`
	ESPNLeagueID      int `json:"espnLeagueId"`
	SeasonYear        int `json:"seasonYear"`
	Week              int `json:"week"`

	Type   string    `json:"type"`   // trade, waiver, free_agent, drop
	Status string    `json:"status"` // pending, failed, completed
	Date   time.Time `json:"date"`

	ProposingTeamID int     `json:"proposingTeamId"`
	AcceptingTeamID int     `json:"acceptingTeamId"`
	BidAmount       float64 `json:"bidAmount"`

	Players []PlayerMovement `json:"players"`
}

// PlayerMovement is one player's role in a transaction.
type PlayerMovement struct {
	ESPNPlayerID int    `json:"espnPlayerId"`
	FromTeamID   int    `json:"fromTeamId"`
	ToTeamID     int    `json:"toTeamId"`
	MovementType string `json:"movementType"` // acquired, dropped, traded_for, traded_away, unknown
}

// --------------------------------------------------------------------------
// IngestionJob
// --------------------------------------------------------------------------

const (
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// IngestionJob is the audit record for one orchestration run. It references
// domain entities by count only and is mutated exactly twice: once at
// creation and once on completion or failure.
type IngestionJob struct {
	ID          string    `json:"id"`
	JobType     string    `json:"jobType"`
	Status      string    `json:"status"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt,omitempty"`

	RecordsProcessed int     `json:"recordsProcessed"`
	ErrorsCount      int     `json:"errorsCount"`
	SuccessRate      float64 `json:"successRate"`
	QualityScore     float64 `json:"qualityScore"`

	Metadata      map[string]any `json:"metadata,omitempty"`
	ErrorMessages []string       `json:"errorMessages,omitempty"`
}
