package validate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Structural validation is declarative: each payload kind has a table of
// field rules checked by a generic walker that reports every violation,
// never just the first. A malformed payload invalidates all downstream
// checks, so this is the cheapest and first pipeline stage.

type fieldKind int

const (
	kindNumber fieldKind = iota
	kindString
	kindBool
	kindArray
	kindObject
)

func (k fieldKind) String() string {
	switch k {
	case kindNumber:
		return "number"
	case kindString:
		return "string"
	case kindBool:
		return "boolean"
	case kindArray:
		return "array"
	default:
		return "object"
	}
}

// fieldRule describes one field of an expected payload shape. Paths are
// dotted from the payload root.
type fieldRule struct {
	path     string
	kind     fieldKind
	required bool
	min      *float64
	max      *float64
	minLen   int
	minItems int
}

type schema struct {
	name  string
	rules []fieldRule
}

func fp(v float64) *float64 { return &v }

// Expected shapes per data type. Bounds follow what the provider actually
// serves; drift shows up here before it corrupts the store.
var schemas = map[string]schema{
	"league": {
		name: "league",
		rules: []fieldRule{
			{path: "id", kind: kindNumber, required: true, min: fp(1)},
			{path: "seasonId", kind: kindNumber, required: true, min: fp(2005), max: fp(2100)},
			{path: "scoringPeriodId", kind: kindNumber, required: true, min: fp(0), max: fp(18)},
			{path: "settings", kind: kindObject, required: true},
			{path: "settings.name", kind: kindString, required: true, minLen: 1},
			{path: "settings.size", kind: kindNumber, required: true, min: fp(2), max: fp(20)},
			{path: "settings.scheduleSettings.matchupPeriodCount", kind: kindNumber, min: fp(1), max: fp(18)},
			{path: "settings.scheduleSettings.playoffTeamCount", kind: kindNumber, min: fp(0), max: fp(16)},
			{path: "status", kind: kindObject, required: true},
			{path: "status.currentMatchupPeriod", kind: kindNumber, min: fp(1), max: fp(18)},
			{path: "teams", kind: kindArray, required: true, minItems: 2},
		},
	},
	"player_stats": {
		name: "player_stats",
		rules: []fieldRule{
			{path: "espnPlayerId", kind: kindNumber, required: true, min: fp(1)},
			{path: "seasonYear", kind: kindNumber, required: true, min: fp(2005), max: fp(2100)},
			{path: "week", kind: kindNumber, required: true, min: fp(1), max: fp(18)},
			{path: "fantasyPoints", kind: kindNumber, required: true},
			{path: "passing", kind: kindObject, required: true},
			{path: "rushing", kind: kindObject, required: true},
			{path: "receiving", kind: kindObject, required: true},
		},
	},
	"league_config": {
		name: "league_config",
		rules: []fieldRule{
			{path: "teamCount", kind: kindNumber, required: true, min: fp(2), max: fp(20)},
			{path: "playoffTeams", kind: kindNumber, required: true, min: fp(0), max: fp(16)},
			{path: "regularSeasonWeeks", kind: kindNumber, required: true, min: fp(1), max: fp(16)},
			{path: "playoffWeeks", kind: kindNumber, required: true, min: fp(0), max: fp(4)},
		},
	},
}

// checkSchema validates payload against the named schema. Data types with
// no registered schema return (nil, false): the stage counts as skipped.
func checkSchema(dataType string, payload any) ([]FieldError, bool) {
	s, ok := schemas[dataType]
	if !ok {
		return nil, false
	}

	root, err := toMap(payload)
	if err != nil {
		return []FieldError{{Field: "", Message: err.Error(), Code: "invalid_payload"}}, true
	}

	var errs []FieldError
	for _, rule := range s.rules {
		errs = append(errs, checkField(root, rule)...)
	}
	return errs, true
}

func checkField(root map[string]any, rule fieldRule) []FieldError {
	value, found := lookupPath(root, rule.path)
	if !found || value == nil {
		if rule.required {
			return []FieldError{{Field: rule.path, Message: "required field missing", Code: "required"}}
		}
		return nil
	}

	switch rule.kind {
	case kindNumber:
		n, ok := value.(float64)
		if !ok {
			return typeError(rule, value)
		}
		var errs []FieldError
		if rule.min != nil && n < *rule.min {
			errs = append(errs, FieldError{
				Field:   rule.path,
				Message: fmt.Sprintf("value %v below minimum %v", n, *rule.min),
				Code:    "too_small",
			})
		}
		if rule.max != nil && n > *rule.max {
			errs = append(errs, FieldError{
				Field:   rule.path,
				Message: fmt.Sprintf("value %v above maximum %v", n, *rule.max),
				Code:    "too_big",
			})
		}
		return errs
	case kindString:
		s, ok := value.(string)
		if !ok {
			return typeError(rule, value)
		}
		if len(s) < rule.minLen {
			return []FieldError{{
				Field:   rule.path,
				Message: fmt.Sprintf("string shorter than %d characters", rule.minLen),
				Code:    "too_small",
			}}
		}
	case kindBool:
		if _, ok := value.(bool); !ok {
			return typeError(rule, value)
		}
	case kindArray:
		items, ok := value.([]any)
		if !ok {
			return typeError(rule, value)
		}
		if len(items) < rule.minItems {
			return []FieldError{{
				Field:   rule.path,
				Message: fmt.Sprintf("array has %d items, minimum %d", len(items), rule.minItems),
				Code:    "too_small",
			}}
		}
	case kindObject:
		if _, ok := value.(map[string]any); !ok {
			return typeError(rule, value)
		}
	}
	return nil
}

func typeError(rule fieldRule, value any) []FieldError {
	return []FieldError{{
		Field:   rule.path,
		Message: fmt.Sprintf("expected %s, got %T", rule.kind, value),
		Code:    "invalid_type",
	}}
}

func lookupPath(root map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var current any = root
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// toMap normalizes any payload into a JSON object map. The historical
// league endpoint wraps its payload in a single-element array, which is
// unwrapped here.
func toMap(payload any) (map[string]any, error) {
	var raw []byte
	switch v := payload.(type) {
	case []byte:
		raw = v
	case json.RawMessage:
		raw = v
	case map[string]any:
		return v, nil
	default:
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		raw = encoded
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err == nil {
		return m, nil
	}
	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0], nil
	}
	return nil, fmt.Errorf("payload is not a JSON object")
}

// SchemaValidator is the standalone structural checker the API client uses
// to fail fast on provider shape drift.
type SchemaValidator struct{}

// CheckLeaguePayload validates a raw league response body.
func (SchemaValidator) CheckLeaguePayload(body []byte) error {
	errs, _ := checkSchema("league", body)
	if len(errs) == 0 {
		return nil
	}
	fields := make([]string, len(errs))
	for i, e := range errs {
		fields[i] = e.Field
	}
	return fmt.Errorf("schema validation failed on %d fields: %s", len(errs), strings.Join(fields, ", "))
}
