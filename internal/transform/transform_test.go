package transform

import (
	"testing"
	"time"

	"github.com/rffl/codex-data/internal/espn"
)

func leagueResponse() *espn.LeagueResponse {
	return &espn.LeagueResponse{
		ID:       123456,
		SeasonID: 2023,
		Settings: espn.LeagueSettings{
			Name:     "The League",
			Size:     10,
			IsPublic: false,
			ScheduleSettings: espn.ScheduleSettings{
				MatchupPeriodCount: 17,
				PlayoffTeamCount:   6,
			},
			AcquisitionSettings: espn.AcquisitionSettings{
				AcquisitionType:   "WAIVERS_TRADITIONAL",
				WaiverHours:       48,
				AcquisitionBudget: 100,
			},
			DraftSettings: espn.DraftSettings{Type: "SNAKE"},
			RosterSettings: espn.RosterSettings{
				LineupSlotCounts: map[string]int{"0": 1, "2": 2, "20": 7, "21": 2},
			},
		},
		Status: espn.LeagueStatus{
			IsActive:             true,
			CurrentMatchupPeriod: 10,
			FinalScoringPeriod:   17,
		},
	}
}

func TestLeague_WeeksDerivation(t *testing.T) {
	_, settings, err := League(leagueResponse())
	if err != nil {
		t.Fatalf("League: %v", err)
	}
	if settings.RegularSeasonWeeks != 14 {
		t.Fatalf("regular weeks=%d want=14", settings.RegularSeasonWeeks)
	}
	if settings.PlayoffWeeks != 3 {
		t.Fatalf("playoff weeks=%d want=3", settings.PlayoffWeeks)
	}

	// No playoffs: every matchup period is regular season.
	resp := leagueResponse()
	resp.Settings.ScheduleSettings.PlayoffTeamCount = 0
	_, settings, err = League(resp)
	if err != nil {
		t.Fatalf("League: %v", err)
	}
	if settings.RegularSeasonWeeks != 17 || settings.PlayoffWeeks != 0 {
		t.Fatalf("weeks=%d/%d want=17/0", settings.RegularSeasonWeeks, settings.PlayoffWeeks)
	}
}

func TestLeague_SettingsMapping(t *testing.T) {
	league, settings, err := League(leagueResponse())
	if err != nil {
		t.Fatalf("League: %v", err)
	}
	if league.Visibility != "private" {
		t.Fatalf("visibility=%s want=private", league.Visibility)
	}
	if league.LeagueType != "standard" {
		t.Fatalf("league type=%s want=standard", league.LeagueType)
	}
	if settings.WaiverType != "rolling" {
		t.Fatalf("waiver type=%s want=rolling", settings.WaiverType)
	}
	if settings.WaiverPeriodDays != 2 {
		t.Fatalf("waiver days=%d want=2", settings.WaiverPeriodDays)
	}
	if settings.BenchSpots != 7 || settings.IRSpots != 2 {
		t.Fatalf("bench/ir=%d/%d want=7/2", settings.BenchSpots, settings.IRSpots)
	}
	if settings.DraftType != "snake" {
		t.Fatalf("draft type=%s want=snake", settings.DraftType)
	}
	if settings.RosterPositions[0] != 1 || settings.RosterPositions[2] != 2 {
		t.Fatalf("roster positions=%v", settings.RosterPositions)
	}
}

func TestLeague_MissingIdentity(t *testing.T) {
	if _, _, err := League(nil); err == nil {
		t.Fatal("expected error for nil response")
	}
	resp := leagueResponse()
	resp.Settings.Name = ""
	if _, _, err := League(resp); err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestScoring_DefaultsFillUnconfigured(t *testing.T) {
	// Only passing yards configured; everything else falls back.
	s := Scoring([]espn.ScoringItem{
		{StatID: 0, Points: 0.05},
		{StatID: 9999, Points: 42}, // unknown code, dropped
	})
	if s.PassingYards != 0.05 {
		t.Fatalf("passing yards=%v want=0.05", s.PassingYards)
	}
	if s.PassingTouchdowns != 4 {
		t.Fatalf("passing TDs=%v want default 4", s.PassingTouchdowns)
	}
	if s.PassingInterceptions != -2 {
		t.Fatalf("interceptions=%v want default -2", s.PassingInterceptions)
	}
	if s.RushingYards != 0.1 {
		t.Fatalf("rushing yards=%v want default 0.1", s.RushingYards)
	}
}

func TestScoring_ReverseItemNegatesPoints(t *testing.T) {
	s := Scoring([]espn.ScoringItem{{StatID: 2, Points: 2, IsReverseItem: true}})
	if s.PassingInterceptions != -2 {
		t.Fatalf("interceptions=%v want=-2", s.PassingInterceptions)
	}
}

func TestTeam_NameAndOwners(t *testing.T) {
	team, err := Team(espn.TeamResponse{
		ID:       4,
		Location: "Flaming",
		Nickname: "Moes",
		Abbrev:   "FM",
		Owners:   []string{"{OWNER-1}", "{OWNER-2}"},
	}, 123456)
	if err != nil {
		t.Fatalf("Team: %v", err)
	}
	if team.Name != "Flaming Moes" {
		t.Fatalf("name=%q", team.Name)
	}
	if team.OwnerName != "{OWNER-1}" || len(team.CoOwnerNames) != 1 {
		t.Fatalf("owners=%q/%v", team.OwnerName, team.CoOwnerNames)
	}

	if _, err := Team(espn.TeamResponse{}, 123456); err == nil {
		t.Fatal("expected error for missing team id")
	}
}

func TestTeamRecord_PrefersRecordBlock(t *testing.T) {
	rec := TeamRecord(espn.TeamResponse{
		ID:        4,
		PointsFor: 100,
		Record: &espn.TeamRecord{Overall: espn.RecordDetails{
			Wins: 9, Losses: 4, PointsFor: 1450.5, StreakType: "WIN", StreakLength: 3,
		}},
	}, 123456, 2023)
	if rec.Wins != 9 || rec.PointsFor != 1450.5 {
		t.Fatalf("rec=%+v", rec)
	}
	if pct := rec.WinPercentage(); pct < 0.69 || pct > 0.70 {
		t.Fatalf("win pct=%v", pct)
	}
}

func TestPlayerWeekStats_StatCodeMapping(t *testing.T) {
	line := espn.StatLine{
		ScoringPeriodID: 3,
		ProTeamID:       12,
		AppliedTotal:    24.7,
		Stats: map[string]float64{
			"0":  320, // passing yards
			"1":  3,   // passing TDs
			"53": 38,  // attempts (shared with targets)
			"54": 25,  // completions
			"20": 15,  // rushing yards
			"42": 0,   // receiving yards
		},
	}
	stats := PlayerWeekStats(3139477, 2023, line)
	if stats.Week != 3 || stats.FantasyPoints != 24.7 {
		t.Fatalf("stats=%+v", stats)
	}
	if stats.Passing.Yards != 320 || stats.Passing.Touchdowns != 3 {
		t.Fatalf("passing=%+v", stats.Passing)
	}
	if stats.Passing.Attempts != 38 || stats.Passing.Completions != 25 {
		t.Fatalf("passing=%+v", stats.Passing)
	}
	if stats.Rushing.Yards != 15 {
		t.Fatalf("rushing=%+v", stats.Rushing)
	}
	if stats.Opponent != "KC" {
		t.Fatalf("opponent=%q want=KC", stats.Opponent)
	}
	if stats.DataSource != "espn" {
		t.Fatalf("source=%q", stats.DataSource)
	}
}

func TestMatchup_WinnerResolution(t *testing.T) {
	entry := espn.MatchupEntry{
		ID:              1,
		MatchupPeriodID: 7,
		Winner:          "HOME",
		Home:            &espn.MatchupSide{TeamID: 3, TotalPoints: 112.5},
		Away:            &espn.MatchupSide{TeamID: 8, TotalPoints: 99.1},
	}
	m, err := Matchup(entry, 123456, 2023)
	if err != nil {
		t.Fatalf("Matchup: %v", err)
	}
	if m.WinnerTeamID != 3 || !m.IsComplete {
		t.Fatalf("m=%+v", m)
	}
	if m.HomeScore != 112.5 || m.AwayScore != 99.1 {
		t.Fatalf("scores=%v/%v", m.HomeScore, m.AwayScore)
	}

	// No explicit winner: the higher score decides.
	entry.Winner = "UNDECIDED"
	entry.Home.TotalPoints = 101.4
	entry.Away.TotalPoints = 88.0
	m, _ = Matchup(entry, 123456, 2023)
	if !m.IsComplete || m.WinnerTeamID != 3 {
		t.Fatalf("m=%+v want complete with winner 3", m)
	}

	entry.Home.TotalPoints = 88.0
	entry.Away.TotalPoints = 101.4
	m, _ = Matchup(entry, 123456, 2023)
	if !m.IsComplete || m.WinnerTeamID != 8 {
		t.Fatalf("m=%+v want complete with winner 8", m)
	}

	// Tied game: complete but no winner.
	entry.Tied = true
	entry.Home.TotalPoints = 95.0
	entry.Away.TotalPoints = 95.0
	m, _ = Matchup(entry, 123456, 2023)
	if !m.IsComplete || m.WinnerTeamID != 0 || !m.IsTied {
		t.Fatalf("m=%+v want complete tie", m)
	}
	entry.Tied = false

	// Undecided with zero scores: incomplete.
	entry.Home.TotalPoints = 0
	entry.Away.TotalPoints = 0
	m, _ = Matchup(entry, 123456, 2023)
	if m.IsComplete || m.WinnerTeamID != 0 {
		t.Fatalf("m=%+v want incomplete", m)
	}

	if _, err := Matchup(espn.MatchupEntry{}, 123456, 2023); err == nil {
		t.Fatal("expected error with no sides")
	}
}

func TestMatchup_Types(t *testing.T) {
	entry := espn.MatchupEntry{
		Home:            &espn.MatchupSide{TeamID: 1},
		PlayoffTierType: "WINNERS_BRACKET",
	}
	m, _ := Matchup(entry, 1, 2023)
	if m.MatchupType != "playoff" {
		t.Fatalf("type=%s want=playoff", m.MatchupType)
	}

	entry.PlayoffTierType = "LOSERS_CONSOLATION_LADDER"
	m, _ = Matchup(entry, 1, 2023)
	if m.MatchupType != "consolation" {
		t.Fatalf("type=%s want=consolation", m.MatchupType)
	}
}

func TestTransaction_Mapping(t *testing.T) {
	failed := false
	entry := espn.TransactionEntry{
		ID:              99,
		Type:            "WAIVER",
		ScoringPeriodID: 4,
		ProcessDate:     time.Date(2023, 10, 4, 12, 0, 0, 0, time.UTC).UnixMilli(),
		ProposingTeamID: 2,
		BidAmount:       17,
		IsSuccessful:    &failed,
		Items: []espn.TransactionItem{
			{PlayerID: 101, ToTeamID: 2, Type: "ADD"},
			{PlayerID: 102, FromTeamID: 2, Type: "DROP"},
			{PlayerID: 103, Type: "RELOCATE"},
		},
	}
	tx := Transaction(entry, 123456, 2023)
	if tx.Type != "waiver" || tx.Status != "failed" {
		t.Fatalf("tx=%+v", tx)
	}
	if tx.Date.Year() != 2023 || tx.Date.Month() != time.October {
		t.Fatalf("date=%v", tx.Date)
	}
	if len(tx.Players) != 3 {
		t.Fatalf("players=%d", len(tx.Players))
	}
	if tx.Players[0].MovementType != "acquired" || tx.Players[1].MovementType != "dropped" {
		t.Fatalf("movements=%+v", tx.Players)
	}
	if tx.Players[2].MovementType != "unknown" {
		t.Fatalf("unmapped movement=%q want=unknown", tx.Players[2].MovementType)
	}
}

func TestDeadlineWeek(t *testing.T) {
	if got := deadlineWeek(0); got != 0 {
		t.Fatalf("no deadline week=%d want=0", got)
	}
	// Ten weeks after the September 1 anchor.
	deadline := time.Date(2023, time.September, 1, 0, 0, 0, 0, time.UTC).
		Add(10*7*24*time.Hour + time.Hour)
	if got := deadlineWeek(deadline.UnixMilli()); got != 10 {
		t.Fatalf("week=%d want=10", got)
	}
	// Deadline before the anchor clamps to week 1.
	early := time.Date(2023, time.August, 1, 0, 0, 0, 0, time.UTC)
	if got := deadlineWeek(early.UnixMilli()); got != 1 {
		t.Fatalf("week=%d want=1", got)
	}
}

func TestPositionAndTeamNames(t *testing.T) {
	if got := PositionName(1); got != "QB" {
		t.Fatalf("position=%q want=QB", got)
	}
	if got := PositionName(999); got != "UNKNOWN" {
		t.Fatalf("position=%q want=UNKNOWN", got)
	}
	if got := ProTeamName(12); got != "KC" {
		t.Fatalf("team=%q want=KC", got)
	}
}
