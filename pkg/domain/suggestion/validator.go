package suggestion

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// payloadSchemaJSON is the single gate on an inference payload: it must be an
// object with a non-null priority_score. Everything else is coerced into
// bounds after the gate passes.
const payloadSchemaJSON = `{
  "type": "object",
  "required": ["priority_score"],
  "properties": {
    "priority_score": { "not": { "type": "null" } }
  }
}`

var payloadSchemaLoader = gojsonschema.NewStringLoader(payloadSchemaJSON)

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
}

// Validator turns raw inference output into a bounded Suggestion.
type Validator struct {
	Now func() time.Time
}

// NewValidator returns a validator bound to the wall clock.
func NewValidator() *Validator {
	return &Validator{Now: time.Now}
}

func (v *Validator) now() time.Time {
	if v == nil || v.Now == nil {
		return time.Now()
	}
	return v.Now()
}

// ParseResponse extracts the JSON object from model output and validates it.
func (v *Validator) ParseResponse(text string) (Suggestion, error) {
	payload := extractJSONObject(text)
	if payload == "" {
		return Suggestion{}, &PayloadError{Reason: "no JSON object found"}
	}

	var raw map[string]any
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return Suggestion{}, &PayloadError{Reason: "malformed JSON", Err: err}
	}
	if dec.More() {
		return Suggestion{}, &PayloadError{Reason: "malformed JSON: trailing data after object"}
	}
	return v.Validate(raw)
}

// Validate coerces a decoded payload into a Suggestion. Only a payload failing
// the schema gate is rejected; every other defect is corrected.
func (v *Validator) Validate(raw map[string]any) (Suggestion, error) {
	if err := checkSchema(raw); err != nil {
		return Suggestion{}, err
	}

	s := Suggestion{
		PriorityScore:       coercePriority(raw["priority_score"]),
		SuggestedDeadline:   v.coerceDeadline(raw["suggested_deadline"]),
		EnhancedDescription: coerceText(raw["enhanced_description"]),
		SuggestedCategory:   coerceText(raw["suggested_category"]),
		Tags:                coerceList(raw["ai_suggested_tags"]),
		Reasoning:           coerceText(raw["reasoning"]),
		EstimatedDuration:   coerceText(raw["estimated_duration"]),
		ContextInsights:     coerceList(raw["context_insights"]),
	}
	return s.Normalize(), nil
}

func checkSchema(raw map[string]any) error {
	if raw == nil {
		return &PayloadError{Reason: "payload is not an object"}
	}
	result, err := gojsonschema.Validate(payloadSchemaLoader, gojsonschema.NewGoLoader(raw))
	if err != nil {
		return &PayloadError{Reason: "malformed payload", Err: err}
	}
	if result.Valid() {
		return nil
	}
	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return &PayloadError{Reason: strings.Join(issues, "; ")}
}

func coercePriority(value any) int {
	switch p := value.(type) {
	case json.Number:
		if n, err := p.Int64(); err == nil {
			return clampInt64(n)
		}
		if f, err := p.Float64(); err == nil {
			return clampFloat(f)
		}
	case float64:
		return clampFloat(p)
	case int:
		return ClampPriority(p)
	case int64:
		return clampInt64(p)
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64); err == nil {
			return clampInt64(n)
		}
	case bool:
		if p {
			return ClampPriority(1)
		}
		return ClampPriority(0)
	}
	return DefaultPriority
}

func clampInt64(n int64) int {
	if n < MinPriority {
		return MinPriority
	}
	if n > MaxPriority {
		return MaxPriority
	}
	return int(n)
}

func clampFloat(f float64) int {
	if math.IsNaN(f) {
		return DefaultPriority
	}
	f = math.Trunc(f)
	if f < MinPriority {
		return MinPriority
	}
	if f > MaxPriority {
		return MaxPriority
	}
	return int(f)
}

// coerceDeadline accepts ISO datetimes and bare dates (taken at noon). Naive
// values are read in the validator clock's location. Anything unparseable or
// not strictly in the future is dropped.
func (v *Validator) coerceDeadline(value any) *time.Time {
	s, ok := value.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "null", "none":
		return nil
	}

	now := v.now()
	if !strings.Contains(s, "T") {
		s += "T12:00:00"
	}
	deadline, ok := parseISO(s, now.Location())
	if !ok || !deadline.After(now) {
		return nil
	}
	return &deadline
}

func parseISO(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func coerceText(value any) string {
	switch t := value.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool, float64, int, int64:
		return fmt.Sprint(t)
	default:
		return stringify(t)
	}
}

func coerceList(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, min(len(items), MaxTags))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
			continue
		}
		out = append(out, stringify(item))
	}
	return out
}

func stringify(value any) string {
	if n, ok := value.(json.Number); ok {
		return n.String()
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(data)
}

// extractJSONObject strips markdown fences and returns the span between the
// first '{' and the last '}', or "" when there is none.
func extractJSONObject(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}
