package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/smarttodo/pkg/application"
	"github.com/felixgeelhaar/smarttodo/pkg/domain/suggestion"
	"github.com/felixgeelhaar/smarttodo/pkg/domain/task"
)

func TestRenderSuggestion(t *testing.T) {
	deadline := time.Date(2025, 6, 2, 17, 0, 0, 0, time.UTC)
	out := renderSuggestion("Ship release", application.SuggestionResult{
		Suggestion: suggestion.Suggestion{
			PriorityScore:       8,
			SuggestedDeadline:   &deadline,
			EnhancedDescription: "Cut the release branch and publish notes",
			SuggestedCategory:   "Work",
			Tags:                []string{"release", "urgent"},
			Reasoning:           "Customers are waiting",
			EstimatedDuration:   "2-4 hours",
			ContextInsights:     []string{"Deadline mentioned in email"},
		},
		Source:   suggestion.SourceFallback,
		Attempts: make([]application.Attempt, 2),
	})

	for _, want := range []string{"Ship release", "8/10", "Work", "release, urgent", "Customers are waiting", "Deadline mentioned in email", "fallback model", "attempts: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSuggestion_EmptyFields(t *testing.T) {
	out := renderSuggestion("Idle", application.SuggestionResult{Source: suggestion.SourceHeuristic})
	if !strings.Contains(out, "none") {
		t.Errorf("expected placeholder for missing deadline and insights:\n%s", out)
	}
	if !strings.Contains(out, "keyword heuristic") {
		t.Errorf("expected heuristic source label:\n%s", out)
	}
}

func TestRenderAnalysis(t *testing.T) {
	out := renderAnalysis(suggestion.Analysis{
		Keywords:       []string{"deadline", "report"},
		RelevanceScore: 0.37,
		Sentiment:      suggestion.SentimentNegative,
		Insights:       []string{"Contains time-sensitive information"},
	})
	for _, want := range []string{"0.37", "negative", "deadline, report", "time-sensitive"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPriorityStyle(t *testing.T) {
	if priorityStyle(9).GetForeground() != highPriority.GetForeground() {
		t.Error("9 should use the high priority style")
	}
	if priorityStyle(5).GetForeground() != mediumPriority.GetForeground() {
		t.Error("5 should use the medium priority style")
	}
	if priorityStyle(2).GetForeground() != lowPriority.GetForeground() {
		t.Error("2 should use the low priority style")
	}
}

func TestRenderTaskTable(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	out := renderTaskTable([]task.Task{
		{Title: "Overdue report", PriorityScore: 9, Status: task.StatusPending, Deadline: &past},
		{Title: "Tidy desk", PriorityScore: 2, Status: task.StatusCompleted},
	}, now)
	for _, want := range []string{"Overdue report", "Tidy desk", "completed", "pending"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if got := renderTaskTable(nil, now); !strings.Contains(got, "No tasks") {
		t.Errorf("expected empty message, got %q", got)
	}
}

func TestRenderStatistics(t *testing.T) {
	out := renderStatistics(task.Statistics{Total: 3, Pending: 2, Completed: 1, AveragePriority: 6.33, Categories: []string{"Home", "Work"}})
	for _, want := range []string{"Total", "6.33", "Home, Work"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
