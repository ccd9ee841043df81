// Package validate implements the layered validation pipeline for ingested
// data: structural schema checks, domain business rules, statistical
// outlier detection, and a cross-reference extension point, composed into
// one ordered, short-circuiting pipeline.
package validate

// Severity orders validation findings: info < warning < critical.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

func (s Severity) weight() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityWarning:
		return 2
	default:
		return 1
	}
}

// Max returns the higher of two severities.
func (s Severity) Max(other Severity) Severity {
	if other.weight() > s.weight() {
		return other
	}
	return s
}

// FieldError is one structural problem found by schema validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// RuleViolation is one business-rule finding.
type RuleViolation struct {
	Rule        string   `json:"rule"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Value       any      `json:"value"`
}

// Outlier is one statistical anomaly flag. PotentialCauses are free-text
// hints for human review, never used programmatically.
type Outlier struct {
	Type            string   `json:"type"`
	Metric          string   `json:"metric"`
	Value           float64  `json:"value"`
	Severity        Severity `json:"severity"`
	Confidence      float64  `json:"confidence"`
	PotentialCauses []string `json:"potentialCauses"`
}

// Result is the outcome of one validation stage, or of the whole pipeline
// when Stage is "comprehensive". Results are transient: the orchestrator
// consumes them immediately to decide abort/continue and to score quality.
type Result struct {
	Passed   bool     `json:"passed"`
	Severity Severity `json:"severity"`
	Stage    string   `json:"stage"`
	Message  string   `json:"message"`

	Errors     []FieldError    `json:"errors,omitempty"`
	Violations []RuleViolation `json:"violations,omitempty"`
	Outliers   []Outlier       `json:"outliers,omitempty"`
}

func (r Result) countViolations(sev Severity) int {
	n := 0
	for _, v := range r.Violations {
		if v.Severity == sev {
			n++
		}
	}
	return n
}

func (r Result) countOutliers(sev Severity) int {
	n := 0
	for _, o := range r.Outliers {
		if o.Severity == sev {
			n++
		}
	}
	return n
}

// QualityScore derives a 0-100 trustworthiness score from a pipeline
// result. Schema errors weigh heaviest, then critical rule violations,
// then outliers.
func QualityScore(r Result) float64 {
	if r.Passed {
		return 100
	}

	score := 100.0
	score -= float64(len(r.Errors)) * 10
	score -= float64(r.countViolations(SeverityCritical)) * 15
	score -= float64(r.countViolations(SeverityWarning)) * 5
	score -= float64(r.countOutliers(SeverityCritical)) * 10
	score -= float64(r.countOutliers(SeverityWarning)) * 3

	if score < 0 {
		return 0
	}
	return score
}
