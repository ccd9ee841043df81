package validate

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/rffl/codex-data/internal/model"
)

func validPlayerStats() model.PlayerWeekStats {
	return model.PlayerWeekStats{
		ESPNPlayerID:  3139477,
		SeasonYear:    2023,
		Week:          5,
		FantasyPoints: 22.4,
		Passing:       model.PassingStats{Attempts: 35, Completions: 24, Yards: 310, Touchdowns: 2},
	}
}

func TestValidate_CleanPlayerStatsPasses(t *testing.T) {
	p := NewPipeline(nil)
	result := p.Validate("player_stats", validPlayerStats(), Context{Position: "QB"})
	if !result.Passed {
		t.Fatalf("expected pass, got %+v", result)
	}
	if QualityScore(result) != 100 {
		t.Fatalf("quality=%v want=100", QualityScore(result))
	}
}

func TestValidate_CompletionsExceedAttempts(t *testing.T) {
	stats := validPlayerStats()
	stats.Passing.Attempts = 15
	stats.Passing.Completions = 20

	p := NewPipeline(nil)
	result := p.Validate("player_stats", stats, Context{})
	if result.Passed {
		t.Fatal("expected failure")
	}
	if result.Severity != SeverityCritical {
		t.Fatalf("severity=%s want=critical", result.Severity)
	}
	found := false
	for _, v := range result.Violations {
		if v.Rule == "passing_completions_vs_attempts" {
			found = true
		}
	}
	if !found {
		t.Fatalf("violations=%+v want passing_completions_vs_attempts", result.Violations)
	}
}

func TestValidate_SchemaFailureShortCircuits(t *testing.T) {
	p := NewPipeline(nil)

	// Instrument the downstream stages to count invocations.
	laterCalls := 0
	for i := range p.stages {
		if p.stages[i].name == "schema" {
			continue
		}
		run := p.stages[i].run
		p.stages[i].run = func(dataType string, payload any, vctx Context) stageResult {
			laterCalls++
			return run(dataType, payload, vctx)
		}
	}

	// Missing id, name, and teams.
	payload := json.RawMessage(`{"seasonId": 2023, "scoringPeriodId": 1, "settings": {"size": 10}, "status": {}}`)
	result := p.Validate("league", payload, Context{})

	if result.Passed {
		t.Fatal("expected schema failure")
	}
	if result.Severity != SeverityCritical {
		t.Fatalf("severity=%s want=critical", result.Severity)
	}
	if laterCalls != 0 {
		t.Fatalf("downstream stages ran %d times, want 0", laterCalls)
	}
	if !strings.Contains(result.Message, "schema") {
		t.Fatalf("message=%q should name the failed stage", result.Message)
	}
}

func TestValidate_StagePanicIsRecovered(t *testing.T) {
	p := NewPipeline(nil)
	p.stages[1].run = func(string, any, Context) stageResult {
		panic("boom")
	}
	laterCalls := 0
	for i := 2; i < len(p.stages); i++ {
		p.stages[i].run = func(string, any, Context) stageResult {
			laterCalls++
			return stageResult{passed: true, severity: SeverityInfo}
		}
	}

	result := p.Validate("player_stats", validPlayerStats(), Context{})
	if result.Passed {
		t.Fatal("expected failure after stage panic")
	}
	if result.Severity != SeverityCritical {
		t.Fatalf("severity=%s want=critical", result.Severity)
	}
	if laterCalls != 0 {
		t.Fatalf("stages after the panic ran %d times, want 0", laterCalls)
	}
	found := false
	for _, e := range result.Errors {
		if e.Code == "stage_2_error" {
			found = true
		}
	}
	if !found {
		t.Fatalf("errors=%+v want stage_2_error", result.Errors)
	}
}

func TestValidate_UnknownDataTypePassesAllStages(t *testing.T) {
	p := NewPipeline(nil)
	result := p.Validate("roster", json.RawMessage(`{"anything": true}`), Context{})
	if !result.Passed {
		t.Fatalf("unknown type should pass with skipped stages, got %+v", result)
	}
}

func TestDetectOutliers_QBFantasyPoints(t *testing.T) {
	stats := validPlayerStats()
	stats.FantasyPoints = 55 // warning band
	p := NewPipeline(nil)
	result := p.Validate("player_stats", stats, Context{Position: "QB"})
	if result.Passed {
		t.Fatal("expected statistical stage failure")
	}
	if result.Severity != SeverityWarning {
		t.Fatalf("severity=%s want=warning", result.Severity)
	}

	stats.FantasyPoints = 75 // critical band
	result = p.Validate("player_stats", stats, Context{Position: "QB"})
	if result.Severity != SeverityCritical {
		t.Fatalf("severity=%s want=critical", result.Severity)
	}
}

func TestQualityScore_Weights(t *testing.T) {
	r := Result{
		Passed: false,
		Errors: []FieldError{{Field: "id"}, {Field: "seasonId"}},
		Violations: []RuleViolation{
			{Rule: "a", Severity: SeverityCritical},
			{Rule: "b", Severity: SeverityWarning},
		},
		Outliers: []Outlier{{Metric: "fantasy_points", Severity: SeverityWarning}},
	}
	// 100 - 2*10 - 15 - 5 - 3 = 57
	if got := QualityScore(r); got != 57 {
		t.Fatalf("score=%v want=57", got)
	}
}

func TestQualityScore_ClampedAtZero(t *testing.T) {
	r := Result{Passed: false}
	for i := 0; i < 20; i++ {
		r.Errors = append(r.Errors, FieldError{Field: "x"})
	}
	if got := QualityScore(r); got != 0 {
		t.Fatalf("score=%v want=0", got)
	}
}

func TestSchemaValidator_CheckLeaguePayload(t *testing.T) {
	good := []byte(`{
		"id": 123, "seasonId": 2023, "scoringPeriodId": 1,
		"settings": {"name": "League", "size": 10},
		"status": {"currentMatchupPeriod": 1},
		"teams": [{}, {}]
	}`)
	if err := (SchemaValidator{}).CheckLeaguePayload(good); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}

	bad := []byte(`{"id": 123}`)
	err := (SchemaValidator{}).CheckLeaguePayload(bad)
	if err == nil {
		t.Fatal("expected rejection")
	}
	if !strings.Contains(err.Error(), "seasonId") {
		t.Fatalf("err=%v should name the missing field", err)
	}
}

func TestSchemaValidator_HistoricalArrayShape(t *testing.T) {
	payload := []byte(`[{
		"id": 123, "seasonId": 2016, "scoringPeriodId": 1,
		"settings": {"name": "Old League", "size": 8},
		"status": {"currentMatchupPeriod": 1},
		"teams": [{}, {}]
	}]`)
	if err := (SchemaValidator{}).CheckLeaguePayload(payload); err != nil {
		t.Fatalf("historical array payload rejected: %v", err)
	}
}
