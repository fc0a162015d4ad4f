package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/smarttodo/pkg/domain/suggestion"
	"github.com/felixgeelhaar/smarttodo/pkg/domain/task"
)

// suggestionContextEntries is how many recent context entries feed a
// suggestion request that carries none of its own.
const suggestionContextEntries = 5

// Suggester produces suggestions. SuggestionService implements it, as does
// the reloadable wrapper used by the server.
type Suggester interface {
	Generate(ctx context.Context, req suggestion.Request) SuggestionResult
}

// TaskInput holds the fields of a new task.
type TaskInput struct {
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	Category          string      `json:"category"`
	PriorityScore     int         `json:"priority_score"`
	Deadline          *time.Time  `json:"deadline"`
	Status            task.Status `json:"status"`
	ContextReferences []string    `json:"context_references"`
}

// TaskUpdate is a partial update. Nil fields are left unchanged.
type TaskUpdate struct {
	Title                 *string      `json:"title"`
	Description           *string      `json:"description"`
	Category              *string      `json:"category"`
	PriorityScore         *int         `json:"priority_score"`
	Deadline              *time.Time   `json:"deadline"`
	Status                *task.Status `json:"status"`
	AIEnhancedDescription *string      `json:"ai_enhanced_description"`
	AISuggestedTags       []string     `json:"ai_suggested_tags"`
	ContextReferences     []string     `json:"context_references"`
}

// TaskService manages tasks and asks the suggester for help with them.
type TaskService struct {
	repo      task.Repository
	suggester Suggester
	now       func() time.Time
	logger    *slog.Logger
}

// NewTaskService creates a TaskService. A nil logger uses slog.Default().
func NewTaskService(repo task.Repository, suggester Suggester, logger *slog.Logger) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{repo: repo, suggester: suggester, now: time.Now, logger: logger}
}

// SetClock replaces the time source. Used by tests.
func (s *TaskService) SetClock(now func() time.Time) {
	s.now = now
}

// Create validates and stores a new task, counting it against its category.
func (s *TaskService) Create(ctx context.Context, in TaskInput) (*task.Task, error) {
	status, err := task.ParseStatus(string(in.Status))
	if err != nil {
		return nil, err
	}
	priority := in.PriorityScore
	if priority == 0 {
		priority = task.DefaultPriority
	}

	now := s.now()
	t := &task.Task{
		ID:                uuid.NewString(),
		Title:             strings.TrimSpace(in.Title),
		Description:       in.Description,
		Category:          strings.TrimSpace(in.Category),
		PriorityScore:     priority,
		Deadline:          in.Deadline,
		Status:            status,
		AISuggestedTags:   []string{},
		ContextReferences: nonNil(in.ContextReferences),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.SaveTask(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}
	s.adjustCategoryUsage(ctx, t.Category, 1)

	s.logger.Info("task created", "task_id", t.ID, "category", t.Category)
	return t, nil
}

// Get returns a task by ID.
func (s *TaskService) Get(ctx context.Context, id string) (*task.Task, error) {
	return s.repo.GetTask(ctx, id)
}

// List returns tasks matching the filter.
func (s *TaskService) List(ctx context.Context, filter task.TaskFilter) ([]task.Task, error) {
	return s.repo.ListTasks(ctx, filter)
}

// Update applies a partial update. Status changes must follow the task
// lifecycle.
func (s *TaskService) Update(ctx context.Context, id string, upd TaskUpdate) (*task.Task, error) {
	t, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	oldCategory := t.Category

	if upd.Title != nil {
		t.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.Category != nil {
		t.Category = strings.TrimSpace(*upd.Category)
	}
	if upd.PriorityScore != nil {
		t.PriorityScore = *upd.PriorityScore
	}
	if upd.Deadline != nil {
		t.Deadline = upd.Deadline
	}
	if upd.AIEnhancedDescription != nil {
		t.AIEnhancedDescription = *upd.AIEnhancedDescription
	}
	if upd.AISuggestedTags != nil {
		t.AISuggestedTags = upd.AISuggestedTags
	}
	if upd.ContextReferences != nil {
		t.ContextReferences = upd.ContextReferences
	}
	if upd.Status != nil {
		target, err := task.ParseStatus(string(*upd.Status))
		if err != nil {
			return nil, err
		}
		machine, err := task.NewStatusMachine(t.ID, t.Status)
		if err != nil {
			return nil, err
		}
		if err := machine.MoveTo(target); err != nil {
			return nil, err
		}
		t.Status = machine.Current()
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	t.UpdatedAt = s.now()
	if err := s.repo.SaveTask(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}

	if t.Category != oldCategory {
		s.adjustCategoryUsage(ctx, oldCategory, -1)
		s.adjustCategoryUsage(ctx, t.Category, 1)
	}
	return t, nil
}

// Delete removes a task and releases its category usage.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	t, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.adjustCategoryUsage(ctx, t.Category, -1)
	return nil
}

// Statistics summarizes all stored tasks.
func (s *TaskService) Statistics(ctx context.Context) (task.Statistics, error) {
	tasks, err := s.repo.ListTasks(ctx, task.TaskFilter{Page: task.Page{All: true}})
	if err != nil {
		return task.Statistics{}, err
	}

	now := s.now()
	stats := task.Statistics{Total: len(tasks), Categories: []string{}}
	seen := make(map[string]bool)
	prioritySum := 0
	for _, t := range tasks {
		switch t.Status {
		case task.StatusPending:
			stats.Pending++
		case task.StatusInProgress:
			stats.InProgress++
		case task.StatusCompleted:
			stats.Completed++
		}
		if t.IsOverdue(now) {
			stats.Overdue++
		}
		if t.PriorityScore >= task.HighPriority {
			stats.HighPriority++
		}
		if t.Category != "" && !seen[t.Category] {
			seen[t.Category] = true
			stats.Categories = append(stats.Categories, t.Category)
		}
		prioritySum += t.PriorityScore
	}
	sort.Strings(stats.Categories)
	if len(tasks) > 0 {
		stats.AveragePriority = math.Round(float64(prioritySum)/float64(len(tasks))*100) / 100
	}
	return stats, nil
}

// Suggest runs the suggestion pipeline. When the request carries no context
// the most recent context entries are used, and a zero workload is replaced
// by the number of open tasks.
func (s *TaskService) Suggest(ctx context.Context, req suggestion.Request) (SuggestionResult, error) {
	if err := req.Validate(); err != nil {
		return SuggestionResult{}, &task.ValidationError{Field: "title", Message: "is required"}
	}

	if len(req.Context) == 0 {
		entries, err := s.repo.ListContextEntries(ctx, task.ContextFilter{
			Page: task.Page{Limit: suggestionContextEntries},
		})
		if err != nil {
			s.logger.Warn("context lookup failed, suggesting without context", "error", err)
		}
		for _, e := range entries {
			req.Context = append(req.Context, suggestion.ContextSnippet{SourceType: e.SourceType, Content: e.Content})
		}
	}

	if req.CurrentWorkload == 0 {
		workload, err := s.openTaskCount(ctx)
		if err != nil {
			s.logger.Warn("workload lookup failed", "error", err)
		}
		req.CurrentWorkload = workload
	}

	return s.suggester.Generate(ctx, req), nil
}

// ApplySuggestion asks for a suggestion about an existing task and stores it:
// priority, enhanced description and tags always, deadline and category only
// when the task has none.
func (s *TaskService) ApplySuggestion(ctx context.Context, id string) (*task.Task, SuggestionResult, error) {
	t, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return nil, SuggestionResult{}, err
	}

	result, err := s.Suggest(ctx, suggestion.Request{
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
	})
	if err != nil {
		return nil, SuggestionResult{}, err
	}

	sg := result.Suggestion
	t.PriorityScore = sg.PriorityScore
	t.AIEnhancedDescription = sg.EnhancedDescription
	t.AISuggestedTags = sg.Tags
	if t.Deadline == nil {
		t.Deadline = sg.SuggestedDeadline
	}
	oldCategory := t.Category
	if t.Category == "" && sg.SuggestedCategory != "" {
		t.Category = suggestion.Truncate(sg.SuggestedCategory, task.MaxCategoryLen)
	}
	t.UpdatedAt = s.now()

	if err := s.repo.SaveTask(ctx, t); err != nil {
		return nil, SuggestionResult{}, fmt.Errorf("failed to save task: %w", err)
	}
	if t.Category != oldCategory {
		s.adjustCategoryUsage(ctx, t.Category, 1)
	}

	s.logger.Info("suggestion applied", "task_id", t.ID, "source", result.Source)
	return t, result, nil
}

func (s *TaskService) openTaskCount(ctx context.Context) (int, error) {
	count := 0
	for _, status := range []task.Status{task.StatusPending, task.StatusInProgress} {
		tasks, err := s.repo.ListTasks(ctx, task.TaskFilter{Status: status, Page: task.Page{All: true}})
		if err != nil {
			return 0, err
		}
		count += len(tasks)
	}
	return count, nil
}

// adjustCategoryUsage updates the usage counter of a named category. Missing
// categories are ignored; tasks may name categories that were never created.
func (s *TaskService) adjustCategoryUsage(ctx context.Context, name string, delta int) {
	if name == "" {
		return
	}
	err := s.repo.AdjustCategoryUsage(ctx, name, delta, s.now())
	if err != nil && !errors.Is(err, task.ErrNotFound) {
		s.logger.Warn("failed to update category usage", "category", name, "error", err)
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
