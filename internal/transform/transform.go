// Package transform maps raw provider payloads onto the normalized
// internal entities. Every mapper is a pure function: missing optional
// fields default to zero values, and only a truly malformed required
// field produces an error.
package transform

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rffl/codex-data/internal/espn"
	"github.com/rffl/codex-data/internal/model"
)

// Error reports a payload that could not be mapped, naming the source
// entity so the orchestrator can log and skip it.
type Error struct {
	Entity string
	ID     int
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("transform %s %d: %s", e.Entity, e.ID, e.Reason)
}

// playoffWeekCount is the assumed length of a playoff bracket. The
// provider does not expose an explicit playoff-weeks field.
const playoffWeekCount = 3

// League maps a raw league payload onto the league identity and its
// per-season settings.
func League(resp *espn.LeagueResponse) (model.League, model.LeagueSeasonSettings, error) {
	if resp == nil || resp.ID == 0 {
		return model.League{}, model.LeagueSeasonSettings{}, &Error{Entity: "league", Reason: "missing league id"}
	}
	if resp.Settings.Name == "" {
		return model.League{}, model.LeagueSeasonSettings{}, &Error{Entity: "league", ID: resp.ID, Reason: "missing league name"}
	}

	visibility := "private"
	if resp.Settings.IsPublic {
		visibility = "public"
	}

	league := model.League{
		ESPNLeagueID:     resp.ID,
		Name:             resp.Settings.Name,
		LeagueType:       mapOrDefault(leagueTypeBySubType, resp.Settings.DraftSettings.LeagueSubType, "standard"),
		Visibility:       visibility,
		DataQualityScore: 100,
	}

	sched := resp.Settings.ScheduleSettings
	regularWeeks := sched.MatchupPeriodCount
	playoffWeeks := 0
	if sched.PlayoffTeamCount > 0 {
		regularWeeks -= playoffWeekCount
		playoffWeeks = playoffWeekCount
	}

	settings := model.LeagueSeasonSettings{
		ESPNLeagueID: resp.ID,
		SeasonYear:   resp.SeasonID,

		TeamCount:          resp.Settings.Size,
		PlayoffTeams:       sched.PlayoffTeamCount,
		RegularSeasonWeeks: regularWeeks,
		PlayoffWeeks:       playoffWeeks,

		ScoringType:     "standard",
		ScoringSettings: Scoring(resp.Settings.ScoringSettings.ScoringItems),

		RosterPositions: rosterPositions(resp.Settings.RosterSettings.LineupSlotCounts),
		BenchSpots:      slotCount(resp.Settings.RosterSettings.LineupSlotCounts, 20, 6),
		IRSpots:         slotCount(resp.Settings.RosterSettings.LineupSlotCounts, 21, 0),

		WaiverType:        mapOrDefault(waiverTypeByAcquisition, resp.Settings.AcquisitionSettings.AcquisitionType, "rolling"),
		WaiverPeriodDays:  (resp.Settings.AcquisitionSettings.WaiverHours + 23) / 24,
		TradeDeadlineWeek: deadlineWeek(resp.Settings.TradeSettings.DeadlineDate),
		AcquisitionBudget: resp.Settings.AcquisitionSettings.AcquisitionBudget,
		DraftType:         mapOrDefault(draftTypeByProvider, resp.Settings.DraftSettings.Type, "snake"),

		IsActive:    resp.Status.IsActive,
		IsComplete:  resp.Status.IsExpired,
		CurrentWeek: resp.Status.CurrentMatchupPeriod,
		FinalWeek:   resp.Status.FinalScoringPeriod,
	}

	return league, settings, nil
}

// Scoring builds the point-value table from the league's sparse scoring
// items, falling back to standard values for unconfigured categories.
// Items with unknown stat IDs are dropped.
func Scoring(items []espn.ScoringItem) model.ScoringSettings {
	configured := make(map[string]float64, len(items))
	for _, item := range items {
		name, ok := statNameByCode[item.StatID]
		if !ok {
			continue
		}
		points := item.Points
		if item.IsReverseItem {
			points = -points
		}
		configured[name] = points
	}

	pick := func(name string, fallback float64) float64 {
		if v, ok := configured[name]; ok {
			return v
		}
		return fallback
	}

	return model.ScoringSettings{
		PassingYards:         pick("passing_yards", defaultScoring.PassingYards),
		PassingTouchdowns:    pick("passing_touchdowns", defaultScoring.PassingTouchdowns),
		PassingInterceptions: pick("passing_interceptions", defaultScoring.PassingInterceptions),
		RushingYards:         pick("rushing_yards", defaultScoring.RushingYards),
		RushingTouchdowns:    pick("rushing_touchdowns", defaultScoring.RushingTouchdowns),
		ReceivingYards:       pick("receiving_yards", defaultScoring.ReceivingYards),
		ReceivingTouchdowns:  pick("receiving_touchdowns", defaultScoring.ReceivingTouchdowns),
		Receptions:           pick("receptions", defaultScoring.Receptions),
		FumblesLost:          pick("fumbles_lost", defaultScoring.FumblesLost),

		FieldGoals0to19:  pick("fg_made_0_19", defaultScoring.FieldGoals0to19),
		FieldGoals20to29: pick("fg_made_20_29", defaultScoring.FieldGoals20to29),
		FieldGoals30to39: pick("fg_made_30_39", defaultScoring.FieldGoals30to39),
		FieldGoals40to49: pick("fg_made_40_49", defaultScoring.FieldGoals40to49),
		FieldGoals50plus: pick("fg_made_50_plus", defaultScoring.FieldGoals50plus),
		ExtraPoints:      pick("extra_points_made", defaultScoring.ExtraPoints),

		DefensiveTouchdowns: pick("def_touchdown", defaultScoring.DefensiveTouchdowns),
		Interceptions:       pick("def_interceptions", defaultScoring.Interceptions),
		FumbleRecoveries:    pick("def_fumble_recoveries", defaultScoring.FumbleRecoveries),
		Sacks:               pick("def_sacks", defaultScoring.Sacks),
		Safeties:            pick("def_safeties", defaultScoring.Safeties),
		BlockedKicks:        pick("def_blocked_kicks", defaultScoring.BlockedKicks),
	}
}

// Team maps a raw team onto its identity. The display name joins location
// and nickname; the first owner ID becomes the owner, the rest co-owners.
func Team(t espn.TeamResponse, leagueID int) (model.Team, error) {
	if t.ID == 0 {
		return model.Team{}, &Error{Entity: "team", ID: t.ID, Reason: "missing team id"}
	}

	var owner string
	var coOwners []string
	if len(t.Owners) > 0 {
		owner = t.Owners[0]
		coOwners = t.Owners[1:]
	}

	return model.Team{
		ESPNTeamID:   t.ID,
		ESPNLeagueID: leagueID,
		Name:         strings.TrimSpace(t.Location + " " + t.Nickname),
		Abbreviation: t.Abbrev,
		LogoURL:      t.Logo,
		OwnerName:    owner,
		CoOwnerNames: coOwners,
	}, nil
}

// TeamRecord maps a team's season performance. Teams without a record
// block fall back to the top-level points totals.
func TeamRecord(t espn.TeamResponse, leagueID, season int) model.TeamSeasonRecord {
	rec := model.TeamSeasonRecord{
		ESPNTeamID:    t.ID,
		ESPNLeagueID:  leagueID,
		SeasonYear:    season,
		FinalStanding: t.PlayoffSeed,
		PointsFor:     t.PointsFor,
		PointsAgainst: t.PointsAgainst,
		WaiverRank:    t.WaiverRank,
	}
	if t.Record != nil {
		o := t.Record.Overall
		rec.Wins = o.Wins
		rec.Losses = o.Losses
		rec.Ties = o.Ties
		rec.StreakType = o.StreakType
		rec.StreakLength = o.StreakLength
		if o.PointsFor != 0 {
			rec.PointsFor = o.PointsFor
		}
		if o.PointsAgainst != 0 {
			rec.PointsAgainst = o.PointsAgainst
		}
	}
	return rec
}

// Player maps a player pool entry onto the player identity.
func Player(entry espn.PlayerPoolEntry) (model.Player, error) {
	d := entry.Player
	if d.ID == 0 {
		return model.Player{}, &Error{Entity: "player", ID: entry.ID, Reason: "missing player id"}
	}

	eligible := make([]string, 0, len(d.EligibleSlots))
	for _, slot := range d.EligibleSlots {
		if name, ok := positionByID[slot]; ok {
			eligible = append(eligible, name)
		}
	}

	jersey := 0
	if d.Jersey != "" {
		if n, err := strconv.Atoi(d.Jersey); err == nil {
			jersey = n
		}
	}

	p := model.Player{
		ESPNPlayerID:      d.ID,
		Name:              d.FullName,
		FirstName:         d.FirstName,
		LastName:          d.LastName,
		Position:          PositionName(d.DefaultPositionID),
		EligiblePositions: eligible,
		ProTeam:           ProTeamName(d.ProTeamID),
		JerseyNumber:      jersey,
	}
	if d.Ownership != nil {
		p.PercentOwned = d.Ownership.PercentOwned
		p.PercentStarted = d.Ownership.PercentStarted
		p.AverageDraftPosition = d.Ownership.AverageDraftPosition
	}
	return p, nil
}

// PlayerWeekStats maps one raw stat line onto a weekly stat row. Stat
// codes absent from the map read as zero.
func PlayerWeekStats(playerID, season int, line espn.StatLine) model.PlayerWeekStats {
	stats := line.Stats
	get := func(code string) float64 { return stats[code] }

	return model.PlayerWeekStats{
		ESPNPlayerID: playerID,
		SeasonYear:   season,
		Week:         line.ScoringPeriodID,

		Opponent:      ProTeamName(line.ProTeamID),
		FantasyPoints: line.AppliedTotal,

		Passing: model.PassingStats{
			Attempts:            get(statPassingAttempts),
			Completions:         get(statPassingCompletion),
			Yards:               get(statPassingYards),
			Touchdowns:          get(statPassingTD),
			Interceptions:       get(statPassingINT),
			TwoPointConversions: get(statPassing2Pt),
		},
		Rushing: model.RushingStats{
			Attempts:            get(statRushingAttempts),
			Yards:               get(statRushingYards),
			Touchdowns:          get(statRushingTD),
			TwoPointConversions: get(statRushing2Pt),
			FumblesLost:         get(statFumblesLost),
		},
		Receiving: model.ReceivingStats{
			Targets:             get(statReceivingTargets),
			Receptions:          get(statReceptions),
			Yards:               get(statReceivingYards),
			Touchdowns:          get(statReceivingTD),
			TwoPointConversions: get(statReceiving2Pt),
		},
		Kicking: model.KickingStats{
			FieldGoals0to19:   get(statFG0to19),
			FieldGoals20to29:  get(statFG20to29),
			FieldGoals30to39:  get(statFG30to39),
			FieldGoals40to49:  get(statFG40to49),
			FieldGoals50plus:  get(statFG50Plus),
			ExtraPointsMade:   get(statXPMade),
			ExtraPointsMissed: get(statXPMissed),
		},
		Defense: model.DefenseStats{
			Sacks:            get(statDefSack),
			Interceptions:    get(statDefINT),
			FumbleRecoveries: get(statDefFumbleRec),
			BlockedKicks:     get(statDefBlockedKick),
			Safeties:         get(statDefSafety),
			Touchdowns:       get(statDefTD),
			PointsAllowed:    get(statDefPointsAllowed),
		},

		DataSource:      "espn",
		ConfidenceScore: 100,
	}
}

// Matchup maps a schedule entry onto a matchup row. Entries with neither
// side populated are malformed.
func Matchup(entry espn.MatchupEntry, leagueID, season int) (model.Matchup, error) {
	if entry.Home == nil && entry.Away == nil {
		return model.Matchup{}, &Error{Entity: "matchup", ID: entry.ID, Reason: "no teams present"}
	}

	m := model.Matchup{
		ESPNLeagueID: leagueID,
		SeasonYear:   season,
		Week:         entry.MatchupPeriodID,
		MatchupType:  matchupType(entry.PlayoffTierType),
		IsTied:       entry.Tied,
	}
	if entry.Home != nil {
		m.HomeTeamID = entry.Home.TeamID
		m.HomeScore = sideScore(entry.Home)
		m.HomeBenchPoints = entry.Home.PointsBench
		m.HomeProjectedScore = entry.Home.TotalPointsLive
	}
	if entry.Away != nil {
		m.AwayTeamID = entry.Away.TeamID
		m.AwayScore = sideScore(entry.Away)
		m.AwayBenchPoints = entry.Away.PointsBench
		m.AwayProjectedScore = entry.Away.TotalPointsLive
	}

	switch entry.Winner {
	case "HOME":
		m.WinnerTeamID = m.HomeTeamID
		m.IsComplete = true
	case "AWAY":
		m.WinnerTeamID = m.AwayTeamID
		m.IsComplete = true
	default:
		m.IsComplete = entry.Tied || m.HomeScore > 0 || m.AwayScore > 0
		if m.IsComplete && !entry.Tied && m.HomeScore != m.AwayScore {
			if m.HomeScore > m.AwayScore {
				m.WinnerTeamID = m.HomeTeamID
			} else {
				m.WinnerTeamID = m.AwayTeamID
			}
		}
	}

	return m, nil
}

// Transaction maps a raw transaction and its player items.
func Transaction(entry espn.TransactionEntry, leagueID, season int) model.Transaction {
	t := model.Transaction{
		ESPNTransactionID: entry.ID,
		ESPNLeagueID:      leagueID,
		SeasonYear:        season,
		Week:              entry.ScoringPeriodID,

		Type:   mapOrDefault(transactionTypeByProvider, entry.Type, "unknown"),
		Status: transactionStatus(entry),

		ProposingTeamID: entry.ProposingTeamID,
		AcceptingTeamID: entry.AcceptingTeamID,
		BidAmount:       entry.BidAmount,
	}
	if entry.ProcessDate > 0 {
		t.Date = time.UnixMilli(entry.ProcessDate).UTC()
	}
	for _, item := range entry.Items {
		t.Players = append(t.Players, model.PlayerMovement{
			ESPNPlayerID: item.PlayerID,
			FromTeamID:   item.FromTeamID,
			ToTeamID:     item.ToTeamID,
			MovementType: mapOrDefault(movementTypeByItem, item.Type, "unknown"),
		})
	}
	return t
}

func transactionStatus(entry espn.TransactionEntry) string {
	if entry.IsPending {
		return "pending"
	}
	if entry.IsSuccessful != nil && !*entry.IsSuccessful {
		return "failed"
	}
	return "completed"
}

func matchupType(tier string) string {
	switch tier {
	case "WINNERS_BRACKET":
		return "playoff"
	case "LOSERS_CONSOLATION_LADDER":
		return "consolation"
	default:
		return "regular"
	}
}

func sideScore(s *espn.MatchupSide) float64 {
	if s.TotalPoints != 0 {
		return s.TotalPoints
	}
	return s.PointsFor
}

// deadlineWeek converts a trade deadline timestamp into a week number
// anchored at September 1 of the deadline's year.
func deadlineWeek(deadlineMillis int64) int {
	if deadlineMillis <= 0 {
		return 0
	}
	deadline := time.UnixMilli(deadlineMillis).UTC()
	seasonStart := time.Date(deadline.Year(), time.September, 1, 0, 0, 0, 0, time.UTC)
	weeks := int(deadline.Sub(seasonStart) / (7 * 24 * time.Hour))
	if weeks < 1 {
		return 1
	}
	return weeks
}

func rosterPositions(slots map[string]int) map[int]int {
	if len(slots) == 0 {
		return nil
	}
	out := make(map[int]int, len(slots))
	for k, v := range slots {
		if id, err := strconv.Atoi(k); err == nil {
			out[id] = v
		}
	}
	return out
}

func slotCount(slots map[string]int, id, fallback int) int {
	if v, ok := slots[strconv.Itoa(id)]; ok {
		return v
	}
	return fallback
}
