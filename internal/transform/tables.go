package transform

import "github.com/rffl/codex-data/internal/model"

// Provider lookup tables. IDs come from the upstream fantasy API and are
// stable across seasons.

// Numeric stat codes used in stat-line maps.
const (
	statPassingYards      = "0"
	statPassingTD         = "1"
	statPassingINT        = "2"
	statPassing2Pt        = "3"
	statRushingYards      = "20"
	statRushingTD         = "21"
	statRushing2Pt        = "22"
	statRushingAttempts   = "23"
	statReceivingYards    = "42"
	statReceivingTD       = "43"
	statReceptions        = "44"
	statReceiving2Pt      = "45"
	statPassingAttempts   = "53"
	statReceivingTargets  = "53" // shares a code with passing attempts upstream
	statPassingCompletion = "54"
	statFumblesLost       = "72"
	statFG0to19           = "74"
	statFG20to29          = "77"
	statFG30to39          = "78"
	statFG40to49          = "79"
	statFG50Plus          = "80"
	statXPMade            = "85"
	statXPMissed          = "86"
	statDefTD             = "95"
	statDefINT            = "96"
	statDefFumbleRec      = "97"
	statDefBlockedKick    = "98"
	statDefSafety         = "99"
	statDefSack           = "100"
	statDefPointsAllowed  = "120"
)

// statNameByCode maps a provider scoring-item stat ID to the scoring
// category it configures. IDs outside this table are dropped.
var statNameByCode = map[int]string{
	0:   "passing_yards",
	1:   "passing_touchdowns",
	2:   "passing_interceptions",
	3:   "passing_2pt_conversions",
	20:  "rushing_yards",
	21:  "rushing_touchdowns",
	22:  "rushing_2pt_conversions",
	23:  "rushing_attempts",
	42:  "receiving_yards",
	43:  "receiving_touchdowns",
	44:  "receptions",
	45:  "receiving_2pt_conversions",
	53:  "receiving_targets",
	72:  "fumbles_lost",
	74:  "fg_made_0_19",
	77:  "fg_made_20_29",
	78:  "fg_made_30_39",
	79:  "fg_made_40_49",
	80:  "fg_made_50_plus",
	85:  "extra_points_made",
	86:  "extra_points_missed",
	95:  "def_touchdown",
	96:  "def_interceptions",
	97:  "def_fumble_recoveries",
	98:  "def_blocked_kicks",
	99:  "def_safeties",
	100: "def_sacks",
}

var positionByID = map[int]string{
	0:  "QB",
	1:  "QB",
	2:  "RB",
	3:  "RB",
	4:  "WR",
	5:  "WR",
	6:  "TE",
	16: "D/ST",
	17: "K",
	20: "FLEX",
	21: "BENCH",
	23: "FLEX",
	24: "SUPER_FLEX",
}

var proTeamByID = map[int]string{
	1: "ATL", 2: "BUF", 3: "CHI", 4: "CIN", 5: "CLE", 6: "DAL",
	7: "DEN", 8: "DET", 9: "GB", 10: "TEN", 11: "IND", 12: "KC",
	13: "LV", 14: "LAR", 15: "MIA", 16: "MIN", 17: "NE", 18: "NO",
	19: "NYG", 20: "NYJ", 21: "PHI", 22: "ARI", 23: "PIT", 24: "LAC",
	25: "SF", 26: "SEA", 27: "TB", 28: "WAS", 29: "CAR", 30: "JAX",
	33: "BAL", 34: "HOU",
}

// defaultScoring fills in the point values a league left unconfigured.
// Values follow the provider's standard scoring.
var defaultScoring = model.ScoringSettings{
	PassingYards:         0.04,
	PassingTouchdowns:    4,
	PassingInterceptions: -2,
	RushingYards:         0.1,
	RushingTouchdowns:    6,
	ReceivingYards:       0.1,
	ReceivingTouchdowns:  6,
	Receptions:           0,
	FumblesLost:          -2,

	FieldGoals0to19:  3,
	FieldGoals20to29: 3,
	FieldGoals30to39: 3,
	FieldGoals40to49: 4,
	FieldGoals50plus: 5,
	ExtraPoints:      1,

	DefensiveTouchdowns: 6,
	Interceptions:       2,
	FumbleRecoveries:    2,
	Sacks:               1,
	Safeties:            2,
	BlockedKicks:        2,
}

var leagueTypeBySubType = map[string]string{
	"STANDARD": "standard",
	"KEEPER":   "keeper",
	"DYNASTY":  "dynasty",
}

var waiverTypeByAcquisition = map[string]string{
	"WAIVERS_TRADITIONAL":    "rolling",
	"WAIVERS_CONTINUOUS":     "continuous",
	"FREE_AGENT_ACQUISITION": "free_agent",
}

var draftTypeByProvider = map[string]string{
	"SNAKE":   "snake",
	"LINEAR":  "linear",
	"AUCTION": "auction",
}

var transactionTypeByProvider = map[string]string{
	"TRADE":     "trade",
	"WAIVER":    "waiver",
	"FREEAGENT": "free_agent",
	"DROP":      "drop",
}

var movementTypeByItem = map[string]string{
	"ADD":        "acquired",
	"DROP":       "dropped",
	"TRADE_FOR":  "traded_for",
	"TRADE_AWAY": "traded_away",
}

func mapOrDefault(m map[string]string, key, fallback string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}

// ProTeamName maps a provider pro-team ID to its NFL abbreviation, empty
// when unknown.
func ProTeamName(id int) string {
	return proTeamByID[id]
}

// PositionName maps a provider position slot ID to its short name.
func PositionName(id int) string {
	if p, ok := positionByID[id]; ok {
		return p
	}
	return "UNKNOWN"
}
