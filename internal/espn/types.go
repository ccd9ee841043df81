package espn

// Raw payload shapes for the upstream fantasy API. Field names mirror the
// provider's JSON; the transform package maps them onto internal entities.

// LeagueResponse is the league endpoint payload. The requested views decide
// which sections are populated.
type LeagueResponse struct {
	GameID          int                `json:"gameId"`
	ID              int                `json:"id"`
	ScoringPeriodID int                `json:"scoringPeriodId"`
	SeasonID        int                `json:"seasonId"`
	SegmentID       int                `json:"segmentId"`
	Settings        LeagueSettings     `json:"settings"`
	Status          LeagueStatus       `json:"status"`
	Teams           []TeamResponse     `json:"teams"`
	Members         []Member           `json:"members,omitempty"`
	Schedule        []MatchupEntry     `json:"schedule,omitempty"`
	Transactions    []TransactionEntry `json:"transactions,omitempty"`
}

type LeagueSettings struct {
	Name                string              `json:"name"`
	Size                int                 `json:"size"`
	IsPublic            bool                `json:"isPublic"`
	RestrictionType     string              `json:"restrictionType"`
	AcquisitionSettings AcquisitionSettings `json:"acquisitionSettings"`
	DraftSettings       DraftSettings       `json:"draftSettings"`
	RosterSettings      RosterSettings      `json:"rosterSettings"`
	ScheduleSettings    ScheduleSettings    `json:"scheduleSettings"`
	ScoringSettings     ScoringSettings     `json:"scoringSettings"`
	TradeSettings       TradeSettings       `json:"tradeSettings"`
}

type AcquisitionSettings struct {
	AcquisitionBudget int    `json:"acquisitionBudget"`
	AcquisitionLimit  int    `json:"acquisitionLimit"`
	AcquisitionType   string `json:"acquisitionType"`
	WaiverHours       int    `json:"waiverHours"`
}

type DraftSettings struct {
	AuctionBudget int    `json:"auctionBudget"`
	KeeperCount   int    `json:"keeperCount"`
	LeagueSubType string `json:"leagueSubType"`
	Type          string `json:"type"`
}

type RosterSettings struct {
	LineupSlotCounts map[string]int `json:"lineupSlotCounts"`
	MoveLimit        int            `json:"moveLimit"`
}

type ScheduleSettings struct {
	MatchupPeriodCount  int `json:"matchupPeriodCount"`
	MatchupPeriodLength int `json:"matchupPeriodLength"`
	PlayoffTeamCount    int `json:"playoffTeamCount"`
}

type ScoringSettings struct {
	ScoringItems []ScoringItem `json:"scoringItems"`
	ScoringType  int           `json:"scoringType"`
}

type ScoringItem struct {
	IsReverseItem bool    `json:"isReverseItem"`
	Points        float64 `json:"points"`
	StatID        int     `json:"statId"`
}

type TradeSettings struct {
	DeadlineDate int64  `json:"deadlineDate"` // epoch millis
	Max          int    `json:"max"`
	ReviewPeriod int    `json:"reviewPeriod"`
	Veto         string `json:"veto"`
}

type LeagueStatus struct {
	CurrentMatchupPeriod int  `json:"currentMatchupPeriod"`
	FinalScoringPeriod   int  `json:"finalScoringPeriod"`
	FirstScoringPeriod   int  `json:"firstScoringPeriod"`
	IsActive             bool `json:"isActive"`
	IsExpired            bool `json:"isExpired"`
	LatestScoringPeriod  int  `json:"latestScoringPeriod"`
}

type TeamResponse struct {
	ID            int         `json:"id"`
	Abbrev        string      `json:"abbrev"`
	Location      string      `json:"location"`
	Nickname      string      `json:"nickname"`
	Owners        []string    `json:"owners"`
	PlayoffSeed   int         `json:"playoffSeed"`
	PointsFor     float64     `json:"pointsFor"`
	PointsAgainst float64     `json:"pointsAgainst"`
	Logo          string      `json:"logo"`
	Record        *TeamRecord `json:"record,omitempty"`
	WaiverRank    int         `json:"waiverRank"`
}

type TeamRecord struct {
	Overall RecordDetails `json:"overall"`
}

type RecordDetails struct {
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Ties          int     `json:"ties"`
	Percentage    float64 `json:"percentage"`
	PointsFor     float64 `json:"pointsFor"`
	PointsAgainst float64 `json:"pointsAgainst"`
	StreakType    string  `json:"streakType"`
	StreakLength  int     `json:"streakLength"`
}

type Member struct {
	DisplayName string `json:"displayName"`
	ID          string `json:"id"`
}

type MatchupEntry struct {
	ID              int          `json:"id"`
	MatchupPeriodID int          `json:"matchupPeriodId"`
	PlayoffTierType string       `json:"playoffTierType"`
	Tied            bool         `json:"tied"`
	Winner          string       `json:"winner"` // HOME, AWAY, UNDECIDED
	Home            *MatchupSide `json:"home,omitempty"`
	Away            *MatchupSide `json:"away,omitempty"`
}

type MatchupSide struct {
	TeamID          int     `json:"teamId"`
	TotalPoints     float64 `json:"totalPoints"`
	TotalPointsLive float64 `json:"totalPointsLive"`
	PointsFor       float64 `json:"pointsFor"`
	PointsBench     float64 `json:"pointsBench"`
}

// PlayerResponse is the players endpoint payload.
type PlayerResponse struct {
	Players []PlayerPoolEntry `json:"players"`
}

type PlayerPoolEntry struct {
	ID       int          `json:"id"`
	OnTeamID int          `json:"onTeamId"`
	Player   PlayerDetail `json:"player"`
}

type PlayerDetail struct {
	ID                int        `json:"id"`
	FullName          string     `json:"fullName"`
	FirstName         string     `json:"firstName"`
	LastName          string     `json:"lastName"`
	DefaultPositionID int        `json:"defaultPositionId"`
	EligibleSlots     []int      `json:"eligibleSlots"`
	Jersey            string     `json:"jersey"`
	ProTeamID         int        `json:"proTeamId"`
	Ownership         *Ownership `json:"ownership,omitempty"`
	Stats             []StatLine `json:"stats,omitempty"`
}

type Ownership struct {
	PercentOwned         float64 `json:"percentOwned"`
	PercentStarted       float64 `json:"percentStarted"`
	AverageDraftPosition float64 `json:"averageDraftPosition"`
}

// StatLine is one scoring period's raw stat map for a player. Stats is
// keyed by the provider's numeric stat codes, serialized as strings.
type StatLine struct {
	AppliedTotal    float64            `json:"appliedTotal"`
	ProTeamID       int                `json:"proTeamId"`
	ScoringPeriodID int                `json:"scoringPeriodId"`
	SeasonID        int                `json:"seasonId"`
	StatSourceID    int                `json:"statSourceId"`
	Stats           map[string]float64 `json:"stats"`
}

// MatchupResponse is the schedule view payload.
type MatchupResponse struct {
	Schedule []MatchupEntry `json:"schedule"`
}

// TransactionsResponse is the transactions view payload.
type TransactionsResponse struct {
	Transactions []TransactionEntry `json:"transactions"`
}

type TransactionEntry struct {
	ID              int               `json:"id"`
	Type            string            `json:"type"` // TRADE, WAIVER, FREEAGENT, DROP
	ScoringPeriodID int               `json:"scoringPeriodId"`
	ProcessDate     int64             `json:"processDate"` // epoch millis
	ProposingTeamID int               `json:"proposingTeamId"`
	AcceptingTeamID int               `json:"acceptingTeamId"`
	BidAmount       float64           `json:"bidAmount"`
	IsPending       bool              `json:"isPending"`
	IsSuccessful    *bool             `json:"isSuccessful,omitempty"`
	Items           []TransactionItem `json:"items"`
}

type TransactionItem struct {
	PlayerID   int    `json:"playerId"`
	FromTeamID int    `json:"fromTeamId"`
	ToTeamID   int    `json:"toTeamId"`
	Type       string `json:"type"` // ADD, DROP, TRADE_FOR, TRADE_AWAY
}
