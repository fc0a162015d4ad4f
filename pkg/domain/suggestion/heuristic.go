package suggestion

import (
	"strings"
	"time"
)

// HeuristicReasoning marks suggestions produced without an inference backend.
const HeuristicReasoning = "Fallback suggestion using keyword analysis (AI service unavailable)"

const maxHeuristicTags = 3
const maxHeuristicInsights = 3
const longTaskWords = 20

var (
	urgentKeywords   = []string{"urgent", "asap", "emergency", "critical", "deadline", "immediately", "now"}
	highKeywords     = []string{"important", "priority", "soon", "meeting", "presentation", "interview"}
	workKeywords     = []string{"work", "office", "client", "boss", "manager", "project"}
	personalKeywords = []string{"personal", "family", "health", "doctor", "appointment"}
)

type durationRule struct {
	keywords []string
	estimate string
}

var durationLadder = []durationRule{
	{[]string{"quick", "brief", "short", "simple"}, "15-30 minutes"},
	{[]string{"meeting", "call", "review"}, "30-60 minutes"},
	{[]string{"project", "research", "analysis", "write", "create"}, "2-4 hours"},
	{[]string{"complex", "detailed", "comprehensive"}, "4-8 hours"},
}

const defaultDuration = "1-2 hours"

// Heuristic builds suggestions from keyword matching alone. It never fails and
// is deterministic for a fixed clock.
type Heuristic struct {
	Now func() time.Time
}

// NewHeuristic returns a heuristic bound to the wall clock.
func NewHeuristic() *Heuristic {
	return &Heuristic{Now: time.Now}
}

func (h *Heuristic) now() time.Time {
	if h == nil || h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// Generate produces a suggestion for req from keyword rules.
func (h *Heuristic) Generate(req Request) Suggestion {
	text := strings.ToLower(req.Title) + " " + strings.ToLower(req.Description)

	priority := heuristicPriority(text)
	deadline := h.now().Add(deadlineOffset(priority))

	tags := []string{"general"}
	if containsAny(text, workKeywords...) {
		tags = append(tags, "work")
	}
	if containsAny(text, personalKeywords...) {
		tags = append(tags, "personal")
	}
	if containsAny(text, urgentKeywords...) {
		tags = append(tags, "urgent")
	}
	if len(tags) > maxHeuristicTags {
		tags = tags[:maxHeuristicTags]
	}

	description := req.Description
	if description == "" {
		description = "Complete the task: " + req.Title
	}
	category := req.Category
	if category == "" {
		category = "General"
	}

	return Suggestion{
		PriorityScore:       priority,
		SuggestedDeadline:   &deadline,
		EnhancedDescription: description,
		SuggestedCategory:   category,
		Tags:                tags,
		Reasoning:           HeuristicReasoning,
		EstimatedDuration:   estimateDuration(text),
		ContextInsights:     heuristicInsights(text),
	}.Normalize()
}

func heuristicPriority(text string) int {
	switch {
	case containsAny(text, urgentKeywords...):
		return 9
	case containsAny(text, highKeywords...):
		return 7
	case containsAny(text, workKeywords...):
		return 6
	case containsAny(text, personalKeywords...):
		return 5
	default:
		return DefaultPriority
	}
}

func deadlineOffset(priority int) time.Duration {
	switch {
	case priority >= 9:
		return 6 * time.Hour
	case priority >= 7:
		return 24 * time.Hour
	case priority >= 6:
		return 3 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

func estimateDuration(text string) string {
	for _, rule := range durationLadder {
		if containsAny(text, rule.keywords...) {
			return rule.estimate
		}
	}
	return defaultDuration
}

func heuristicInsights(text string) []string {
	var insights []string
	if len(strings.Fields(text)) > longTaskWords {
		insights = append(insights, "Consider breaking this into smaller subtasks")
	}
	if containsAny(text, "meeting", "call", "discussion") {
		insights = append(insights, "Prepare agenda or talking points in advance")
	}
	if containsAny(text, "deadline", "urgent", "asap") {
		insights = append(insights, "Time-sensitive task - prioritize accordingly")
	}
	if len(insights) == 0 {
		insights = append(insights, "Set clear success criteria for this task")
	}
	if len(insights) > maxHeuristicInsights {
		insights = insights[:maxHeuristicInsights]
	}
	return insights
}
