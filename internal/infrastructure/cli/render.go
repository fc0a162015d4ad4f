package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/smarttodo/pkg/application"
	"github.com/felixgeelhaar/smarttodo/pkg/domain/suggestion"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(1).
			PaddingRight(1)

	labelStyle = lipgloss.NewStyle().Bold(true).Width(14)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	highPriority   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	mediumPriority = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	lowPriority    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

var sourceLabels = map[suggestion.Source]string{
	suggestion.SourcePrimary:   "primary model",
	suggestion.SourceFallback:  "fallback model",
	suggestion.SourceHeuristic: "keyword heuristic",
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func priorityStyle(p int) lipgloss.Style {
	switch {
	case p >= 8:
		return highPriority
	case p >= 5:
		return mediumPriority
	default:
		return lowPriority
	}
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

func bullets(items []string) string {
	if len(items) == 0 {
		return mutedStyle.Render("none")
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "• " + item
	}
	return strings.Join(lines, "\n")
}

// renderSuggestion formats a pipeline result for the terminal.
func renderSuggestion(title string, result application.SuggestionResult) string {
	s := result.Suggestion

	deadline := mutedStyle.Render("none")
	if s.SuggestedDeadline != nil {
		deadline = s.SuggestedDeadline.Local().Format(time.RFC1123)
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		row("Priority", priorityStyle(s.PriorityScore).Render(fmt.Sprintf("%d/10", s.PriorityScore))),
		row("Deadline", deadline),
		row("Category", s.SuggestedCategory),
		row("Duration", s.EstimatedDuration),
		row("Tags", strings.Join(s.Tags, ", ")),
		"",
		labelStyle.Render("Description"),
		s.EnhancedDescription,
		"",
		labelStyle.Render("Reasoning"),
		s.Reasoning,
		"",
		labelStyle.Render("Insights"),
		bullets(s.ContextInsights),
	)

	footer := mutedStyle.Render(fmt.Sprintf("source: %s, attempts: %d", sourceLabels[result.Source], len(result.Attempts)))
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), boxStyle.Render(body), footer)
}

// renderAnalysis formats analyzer output for the terminal.
func renderAnalysis(a suggestion.Analysis) string {
	keywords := mutedStyle.Render("none")
	if len(a.Keywords) > 0 {
		keywords = strings.Join(a.Keywords, ", ")
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		row("Relevance", fmt.Sprintf("%.2f", a.RelevanceScore)),
		row("Sentiment", string(a.Sentiment)),
		row("Keywords", keywords),
		"",
		labelStyle.Render("Insights"),
		bullets(a.Insights),
	)
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Context analysis"), boxStyle.Render(body))
}
