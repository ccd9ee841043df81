package validate

import (
	"fmt"

	"github.com/rffl/codex-data/internal/model"
)

// Business rules catch payloads that are structurally fine but
// implausible as football. Each rule is independent and produces at most
// one violation.

func businessRules(dataType string, payload any) ([]RuleViolation, bool) {
	switch dataType {
	case "player_stats":
		s, ok := asPlayerStats(payload)
		if !ok {
			return nil, false
		}
		return playerStatsRules(s), true
	case "league_config":
		cfg, ok := asLeagueConfig(payload)
		if !ok {
			return nil, false
		}
		return leagueConfigRules(cfg), true
	case "matchup":
		m, ok := asMatchup(payload)
		if !ok {
			return nil, false
		}
		return matchupRules(m), true
	default:
		return nil, false
	}
}

func asPlayerStats(payload any) (model.PlayerWeekStats, bool) {
	switch v := payload.(type) {
	case model.PlayerWeekStats:
		return v, true
	case *model.PlayerWeekStats:
		if v != nil {
			return *v, true
		}
	}
	return model.PlayerWeekStats{}, false
}

func asLeagueConfig(payload any) (model.LeagueSeasonSettings, bool) {
	switch v := payload.(type) {
	case model.LeagueSeasonSettings:
		return v, true
	case *model.LeagueSeasonSettings:
		if v != nil {
			return *v, true
		}
	}
	return model.LeagueSeasonSettings{}, false
}

func asMatchup(payload any) (model.Matchup, bool) {
	switch v := payload.(type) {
	case model.Matchup:
		return v, true
	case *model.Matchup:
		if v != nil {
			return *v, true
		}
	}
	return model.Matchup{}, false
}

func playerStatsRules(s model.PlayerWeekStats) []RuleViolation {
	var out []RuleViolation

	if s.FantasyPoints < -20 || s.FantasyPoints > 150 {
		out = append(out, RuleViolation{
			Rule:        "fantasy_points_range",
			Description: fmt.Sprintf("fantasy points %.2f far outside plausible range", s.FantasyPoints),
			Severity:    SeverityCritical,
			Value:       s.FantasyPoints,
		})
	} else if s.FantasyPoints < -10 || s.FantasyPoints > 100 {
		out = append(out, RuleViolation{
			Rule:        "fantasy_points_range",
			Description: fmt.Sprintf("fantasy points %.2f outside expected range", s.FantasyPoints),
			Severity:    SeverityWarning,
			Value:       s.FantasyPoints,
		})
	}

	if s.Passing.Completions > s.Passing.Attempts {
		out = append(out, RuleViolation{
			Rule:        "passing_completions_vs_attempts",
			Description: fmt.Sprintf("%.0f completions exceed %.0f attempts", s.Passing.Completions, s.Passing.Attempts),
			Severity:    SeverityCritical,
			Value:       s.Passing.Completions,
		})
	}
	if s.Passing.Attempts > 70 {
		out = append(out, RuleViolation{
			Rule:        "passing_attempts_high",
			Description: fmt.Sprintf("%.0f pass attempts in a single week", s.Passing.Attempts),
			Severity:    SeverityWarning,
			Value:       s.Passing.Attempts,
		})
	}
	if s.Passing.Yards < -100 || s.Passing.Yards > 700 {
		out = append(out, RuleViolation{
			Rule:        "passing_yards_range",
			Description: fmt.Sprintf("passing yards %.0f far outside plausible range", s.Passing.Yards),
			Severity:    SeverityCritical,
			Value:       s.Passing.Yards,
		})
	} else if s.Passing.Yards < -50 || s.Passing.Yards > 600 {
		out = append(out, RuleViolation{
			Rule:        "passing_yards_range",
			Description: fmt.Sprintf("passing yards %.0f outside expected range", s.Passing.Yards),
			Severity:    SeverityWarning,
			Value:       s.Passing.Yards,
		})
	}

	if s.Rushing.Attempts > 40 {
		out = append(out, RuleViolation{
			Rule:        "rushing_attempts_high",
			Description: fmt.Sprintf("%.0f rushing attempts in a single week", s.Rushing.Attempts),
			Severity:    SeverityWarning,
			Value:       s.Rushing.Attempts,
		})
	}
	if s.Rushing.Yards < -50 || s.Rushing.Yards > 400 {
		out = append(out, RuleViolation{
			Rule:        "rushing_yards_range",
			Description: fmt.Sprintf("rushing yards %.0f far outside plausible range", s.Rushing.Yards),
			Severity:    SeverityCritical,
			Value:       s.Rushing.Yards,
		})
	} else if s.Rushing.Yards < -20 || s.Rushing.Yards > 300 {
		out = append(out, RuleViolation{
			Rule:        "rushing_yards_range",
			Description: fmt.Sprintf("rushing yards %.0f outside expected range", s.Rushing.Yards),
			Severity:    SeverityWarning,
			Value:       s.Rushing.Yards,
		})
	}

	if s.Receiving.Receptions > s.Receiving.Targets {
		out = append(out, RuleViolation{
			Rule:        "receiving_receptions_vs_targets",
			Description: fmt.Sprintf("%.0f receptions exceed %.0f targets", s.Receiving.Receptions, s.Receiving.Targets),
			Severity:    SeverityCritical,
			Value:       s.Receiving.Receptions,
		})
	}
	if s.Receiving.Targets > 25 {
		out = append(out, RuleViolation{
			Rule:        "receiving_targets_high",
			Description: fmt.Sprintf("%.0f targets in a single week", s.Receiving.Targets),
			Severity:    SeverityWarning,
			Value:       s.Receiving.Targets,
		})
	}

	return out
}

func leagueConfigRules(cfg model.LeagueSeasonSettings) []RuleViolation {
	var out []RuleViolation

	if cfg.TeamCount < 2 || cfg.TeamCount > 20 {
		out = append(out, RuleViolation{
			Rule:        "team_count_range",
			Description: fmt.Sprintf("league has %d teams", cfg.TeamCount),
			Severity:    SeverityCritical,
			Value:       cfg.TeamCount,
		})
	}
	if cfg.PlayoffTeams > cfg.TeamCount {
		out = append(out, RuleViolation{
			Rule:        "playoff_team_count",
			Description: fmt.Sprintf("%d playoff teams exceed %d league teams", cfg.PlayoffTeams, cfg.TeamCount),
			Severity:    SeverityCritical,
			Value:       cfg.PlayoffTeams,
		})
	}
	total := cfg.RegularSeasonWeeks + cfg.PlayoffWeeks
	if total < 1 || total > 18 {
		out = append(out, RuleViolation{
			Rule:        "season_length",
			Description: fmt.Sprintf("season spans %d weeks", total),
			Severity:    SeverityWarning,
			Value:       total,
		})
	}

	return out
}

func matchupRules(m model.Matchup) []RuleViolation {
	var out []RuleViolation

	if m.HomeScore < 0 || m.AwayScore < 0 {
		out = append(out, RuleViolation{
			Rule:        "negative_score",
			Description: fmt.Sprintf("negative matchup score: home %.2f, away %.2f", m.HomeScore, m.AwayScore),
			Severity:    SeverityCritical,
			Value:       m.HomeScore,
		})
	}
	if m.HomeScore > 250 || m.AwayScore > 250 {
		high := m.HomeScore
		if m.AwayScore > high {
			high = m.AwayScore
		}
		out = append(out, RuleViolation{
			Rule:        "score_high",
			Description: fmt.Sprintf("matchup score %.2f is unusually high", high),
			Severity:    SeverityWarning,
			Value:       high,
		})
	}

	return out
}
