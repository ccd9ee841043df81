package validate

import "fmt"

// Outlier detection is purely threshold-based. There is no historical
// baseline to compare against, so the flags are conservative and carry a
// confidence score rather than a verdict.

func detectOutliers(dataType string, payload any, position string) ([]Outlier, bool) {
	if dataType != "player_stats" {
		return nil, false
	}
	s, ok := asPlayerStats(payload)
	if !ok {
		return nil, false
	}

	var out []Outlier

	if s.FantasyPoints > 60 {
		out = append(out, Outlier{
			Type:       "performance",
			Metric:     "fantasy_points",
			Value:      s.FantasyPoints,
			Severity:   SeverityCritical,
			Confidence: 0.9,
			PotentialCauses: []string{
				"record-setting performance",
				"scoring settings misconfigured",
				"duplicate stat ingestion",
			},
		})
	} else if s.FantasyPoints > 50 {
		out = append(out, Outlier{
			Type:       "performance",
			Metric:     "fantasy_points",
			Value:      s.FantasyPoints,
			Severity:   SeverityWarning,
			Confidence: 0.7,
			PotentialCauses: []string{
				"exceptional performance",
				"scoring settings misconfigured",
			},
		})
	}

	if position == "QB" && s.Passing.Attempts > 0 {
		pct := s.Passing.Completions / s.Passing.Attempts
		if pct < 0.2 || pct > 0.98 {
			out = append(out, Outlier{
				Type:       "efficiency",
				Metric:     "completion_percentage",
				Value:      pct,
				Severity:   SeverityCritical,
				Confidence: 0.85,
				PotentialCauses: []string{
					"stat entry error",
					"partial game data",
				},
			})
		} else if pct < 0.3 || pct > 0.95 {
			out = append(out, Outlier{
				Type:       "efficiency",
				Metric:     "completion_percentage",
				Value:      pct,
				Severity:   SeverityWarning,
				Confidence: 0.6,
				PotentialCauses: []string{
					fmt.Sprintf("completion percentage %.2f outside typical range", pct),
					"small sample of attempts",
				},
			})
		}

		ypa := s.Passing.Yards / s.Passing.Attempts
		if ypa < 3.0 || ypa > 15.0 {
			out = append(out, Outlier{
				Type:       "efficiency",
				Metric:     "yards_per_attempt",
				Value:      ypa,
				Severity:   SeverityWarning,
				Confidence: 0.6,
				PotentialCauses: []string{
					"unusual game script",
					"stat entry error",
				},
			})
		}
	}

	return out, true
}
