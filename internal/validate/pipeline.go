package validate

import (
	"fmt"
	"log/slog"
)

// Context carries side-channel facts a stage may need that the payload
// itself does not state, such as the player's position for efficiency
// checks.
type Context struct {
	Position string
	Season   int
	Week     int
}

// stageResult is the partial outcome of a single pipeline stage. Skipped
// stages count as passed with info severity.
type stageResult struct {
	passed     bool
	skipped    bool
	severity   Severity
	message    string
	errors     []FieldError
	violations []RuleViolation
	outliers   []Outlier
}

type stageFunc func(dataType string, payload any, vctx Context) stageResult

// Pipeline runs the ordered validation stages and aggregates their
// results. A critical schema failure short-circuits the rest; a stage
// panic is converted into a critical stage error and also short-circuits.
type Pipeline struct {
	logger *slog.Logger
	stages []namedStage
}

type namedStage struct {
	name string
	run  stageFunc
}

func NewPipeline(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger: logger,
		stages: []namedStage{
			{name: "schema", run: schemaStage},
			{name: "business_rules", run: businessStage},
			{name: "statistical", run: statisticalStage},
			{name: "cross_reference", run: crossReferenceStage},
		},
	}
}

// Validate checks payload through every stage in order and returns the
// aggregated result.
func (p *Pipeline) Validate(dataType string, payload any, vctx Context) Result {
	agg := Result{
		Passed:   true,
		Severity: SeverityInfo,
		Stage:    "pipeline",
	}
	var failedStages []string

	for i, stage := range p.stages {
		sr, erred := p.runStage(i, stage, dataType, payload, vctx)

		agg.Errors = append(agg.Errors, sr.errors...)
		agg.Violations = append(agg.Violations, sr.violations...)
		agg.Outliers = append(agg.Outliers, sr.outliers...)
		agg.Severity = agg.Severity.Max(sr.severity)

		if sr.skipped {
			continue
		}
		if !sr.passed {
			agg.Passed = false
			failedStages = append(failedStages, stage.name)
		}

		if erred {
			break
		}
		if stage.name == "schema" && !sr.passed && sr.severity == SeverityCritical {
			p.logger.Warn("schema validation failed, skipping remaining stages",
				"dataType", dataType, "errors", len(sr.errors))
			break
		}
	}

	if agg.Passed {
		agg.Message = fmt.Sprintf("%s payload passed validation", dataType)
	} else {
		agg.Message = fmt.Sprintf("%s payload failed validation at: %v", dataType, failedStages)
	}
	return agg
}

func (p *Pipeline) runStage(index int, stage namedStage, dataType string, payload any, vctx Context) (sr stageResult, erred bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("validation stage panicked",
				"stage", stage.name, "dataType", dataType, "panic", r)
			erred = true
			sr = stageResult{
				passed:   false,
				severity: SeverityCritical,
				message:  fmt.Sprintf("stage_%d_error", index+1),
				errors: []FieldError{{
					Field:   stage.name,
					Message: fmt.Sprintf("stage failed unexpectedly: %v", r),
					Code:    fmt.Sprintf("stage_%d_error", index+1),
				}},
			}
		}
	}()
	return stage.run(dataType, payload, vctx), false
}

func schemaStage(dataType string, payload any, _ Context) stageResult {
	errs, applied := checkSchema(dataType, payload)
	if !applied {
		return stageResult{passed: true, skipped: true, severity: SeverityInfo}
	}
	if len(errs) == 0 {
		return stageResult{passed: true, severity: SeverityInfo}
	}
	return stageResult{
		passed:   false,
		severity: SeverityCritical,
		errors:   errs,
	}
}

func businessStage(dataType string, payload any, _ Context) stageResult {
	violations, applied := businessRules(dataType, payload)
	if !applied {
		return stageResult{passed: true, skipped: true, severity: SeverityInfo}
	}
	if len(violations) == 0 {
		return stageResult{passed: true, severity: SeverityInfo}
	}
	sev := SeverityWarning
	for _, v := range violations {
		sev = sev.Max(v.Severity)
	}
	return stageResult{
		passed:     false,
		severity:   sev,
		violations: violations,
	}
}

func statisticalStage(dataType string, payload any, vctx Context) stageResult {
	outliers, applied := detectOutliers(dataType, payload, vctx.Position)
	if !applied {
		return stageResult{passed: true, skipped: true, severity: SeverityInfo}
	}
	if len(outliers) == 0 {
		return stageResult{passed: true, severity: SeverityInfo}
	}
	sev := SeverityWarning
	for _, o := range outliers {
		sev = sev.Max(o.Severity)
	}
	return stageResult{
		passed:   false,
		severity: sev,
		outliers: outliers,
	}
}

// crossReferenceStage is an extension point. Roster consistency and
// bye-week checks would live here once reference data is available.
func crossReferenceStage(string, any, Context) stageResult {
	return stageResult{
		passed:   true,
		severity: SeverityInfo,
		message:  "cross-reference checks not configured",
	}
}
