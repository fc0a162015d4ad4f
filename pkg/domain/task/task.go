// Package task holds the records of the task store: tasks, categories and
// context entries, together with their filters and repository contracts.
package task

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxTitleLen    = 200
	MaxCategoryLen = 100

	DefaultPriority = 5
	MinPriority     = 1
	MaxPriority     = 10

	// HighPriority is the lowest score counted as high priority.
	HighPriority = 7
)

// Task is a unit of work tracked by the store.
type Task struct {
	ID                    string     `json:"id"`
	Title                 string     `json:"title"`
	Description           string     `json:"description"`
	Category              string     `json:"category"`
	PriorityScore         int        `json:"priority_score"`
	Deadline              *time.Time `json:"deadline"`
	Status                Status     `json:"status"`
	AIEnhancedDescription string     `json:"ai_enhanced_description"`
	AISuggestedTags       []string   `json:"ai_suggested_tags"`
	ContextReferences     []string   `json:"context_references"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// Validate checks field bounds.
func (t *Task) Validate() error {
	title := strings.TrimSpace(t.Title)
	if title == "" {
		return &ValidationError{Field: "title", Message: "is required"}
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return &ValidationError{Field: "title", Message: "must be at most 200 characters"}
	}
	if utf8.RuneCountInString(t.Category) > MaxCategoryLen {
		return &ValidationError{Field: "category", Message: "must be at most 100 characters"}
	}
	if t.PriorityScore < MinPriority || t.PriorityScore > MaxPriority {
		return &ValidationError{Field: "priority_score", Message: "must be between 1 and 10"}
	}
	if _, err := ParseStatus(string(t.Status)); err != nil {
		return err
	}
	return nil
}

// IsOverdue reports whether an open task's deadline has passed.
func (t Task) IsOverdue(now time.Time) bool {
	return t.Deadline != nil && t.Status.IsOpen() && now.After(*t.Deadline)
}

var priorityLabels = map[int]string{
	1: "Very Low", 2: "Low", 3: "Medium-Low", 4: "Medium", 5: "Medium-High",
	6: "High", 7: "Very High", 8: "Critical", 9: "Urgent", 10: "Emergency",
}

// PriorityLabel returns a human-readable name for the priority score.
func (t Task) PriorityLabel() string {
	if label, ok := priorityLabels[t.PriorityScore]; ok {
		return label
	}
	return "Unknown"
}

// TaskView is the API representation of a task with derived fields.
type TaskView struct {
	Task
	IsOverdue     bool   `json:"is_overdue"`
	PriorityLabel string `json:"priority_label"`
}

// View derives the computed fields at now.
func (t Task) View(now time.Time) TaskView {
	return TaskView{Task: t, IsOverdue: t.IsOverdue(now), PriorityLabel: t.PriorityLabel()}
}

// Statistics summarizes the task store.
type Statistics struct {
	Total           int      `json:"total_tasks"`
	Pending         int      `json:"pending_tasks"`
	InProgress      int      `json:"in_progress_tasks"`
	Completed       int      `json:"completed_tasks"`
	Overdue         int      `json:"overdue_tasks"`
	HighPriority    int      `json:"high_priority_tasks"`
	Categories      []string `json:"categories"`
	AveragePriority float64  `json:"average_priority"`
}
