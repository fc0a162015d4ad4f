// Package suggestion models AI task suggestions and the deterministic rules
// around them: text analysis, the keyword heuristic and payload validation.
package suggestion

import (
	"strings"
	"time"
)

// Field bounds every Suggestion satisfies regardless of which path built it.
const (
	MinPriority     = 1
	MaxPriority     = 10
	DefaultPriority = 5

	MaxDescriptionLen = 1000
	MaxCategoryLen    = 100
	MaxReasoningLen   = 500
	MaxDurationLen    = 100
	MaxTags           = 5
	MaxTagLen         = 50
	MaxInsights       = 5
	MaxInsightLen     = 200

	// MaxContextSnippets and MaxSnippetLen bound the context digest in prompts.
	MaxContextSnippets = 5
	MaxSnippetLen      = 200
)

// Source identifies which path of the pipeline produced a suggestion.
type Source string

const (
	SourcePrimary   Source = "primary"
	SourceFallback  Source = "fallback"
	SourceHeuristic Source = "heuristic"
)

// ContextSnippet is a piece of free text the user supplied alongside a task.
type ContextSnippet struct {
	SourceType string `json:"source_type"`
	Content    string `json:"content"`
}

// Request is the input to suggestion generation.
type Request struct {
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Category        string           `json:"category"`
	Context         []ContextSnippet `json:"context_data"`
	UserPreferences map[string]any   `json:"user_preferences"`
	CurrentWorkload int              `json:"current_workload"`
}

// Validate checks the request carries the fields generation depends on.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrTitleRequired
	}
	return nil
}

// Workload returns the pending task count, never negative.
func (r Request) Workload() int {
	if r.CurrentWorkload < 0 {
		return 0
	}
	return r.CurrentWorkload
}

// Suggestion is the canonical output shape shared by all generation paths.
type Suggestion struct {
	PriorityScore       int        `json:"priority_score"`
	SuggestedDeadline   *time.Time `json:"suggested_deadline"`
	EnhancedDescription string     `json:"enhanced_description"`
	SuggestedCategory   string     `json:"suggested_category"`
	Tags                []string   `json:"ai_suggested_tags"`
	Reasoning           string     `json:"reasoning"`
	EstimatedDuration   string     `json:"estimated_duration"`
	ContextInsights     []string   `json:"context_insights"`
}

// Normalize enforces the field bounds in place and returns the result.
// Lists are never left nil so they serialize as empty arrays.
func (s Suggestion) Normalize() Suggestion {
	s.PriorityScore = ClampPriority(s.PriorityScore)
	s.EnhancedDescription = Truncate(s.EnhancedDescription, MaxDescriptionLen)
	s.SuggestedCategory = Truncate(s.SuggestedCategory, MaxCategoryLen)
	s.Reasoning = Truncate(s.Reasoning, MaxReasoningLen)
	s.EstimatedDuration = Truncate(s.EstimatedDuration, MaxDurationLen)
	s.Tags = boundList(s.Tags, MaxTags, MaxTagLen)
	s.ContextInsights = boundList(s.ContextInsights, MaxInsights, MaxInsightLen)
	return s
}

// ClampPriority pins a score into [MinPriority, MaxPriority].
func ClampPriority(p int) int {
	if p < MinPriority {
		return MinPriority
	}
	if p > MaxPriority {
		return MaxPriority
	}
	return p
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func boundList(items []string, maxItems, maxLen int) []string {
	out := make([]string, 0, min(len(items), maxItems))
	for _, item := range items {
		if len(out) == maxItems {
			break
		}
		out = append(out, Truncate(item, maxLen))
	}
	return out
}
