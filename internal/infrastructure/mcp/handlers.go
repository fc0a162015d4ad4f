package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/smarttodo/pkg/application"
	"github.com/felixgeelhaar/smarttodo/pkg/domain/suggestion"
	"github.com/felixgeelhaar/smarttodo/pkg/domain/task"
)

type SuggestArgs struct {
	Title           string           `json:"title" jsonschema:"description=Task title"`
	Description     string           `json:"description,omitempty" jsonschema:"description=Task description"`
	Category        string           `json:"category,omitempty" jsonschema:"description=Category the task belongs to"`
	Context         []ContextSnippet `json:"context,omitempty" jsonschema:"description=Context snippets (the five latest stored entries are used when omitted)"`
	UserPreferences map[string]any   `json:"user_preferences,omitempty" jsonschema:"description=Free-form preferences such as working hours"`
	CurrentWorkload int              `json:"current_workload,omitempty" jsonschema:"description=Open task count (counted from the store when zero)"`
}

type ContextSnippet struct {
	SourceType string `json:"source_type" jsonschema:"description=email / whatsapp / notes / other"`
	Content    string `json:"content" jsonschema:"description=Snippet text"`
}

type SuggestResult struct {
	Suggestion suggestion.Suggestion `json:"suggestion"`
	Source     suggestion.Source     `json:"source"`
}

type AnalyzeContextArgs struct {
	Content    string `json:"content" jsonschema:"description=Text to analyze"`
	SourceType string `json:"source_type,omitempty" jsonschema:"description=email / whatsapp / notes / other"`
}

type AddContextArgs struct {
	Content    string `json:"content" jsonschema:"description=Context text"`
	SourceType string `json:"source_type" jsonschema:"description=email / whatsapp / notes / other"`
}

type ListContextArgs struct {
	SourceType string `json:"source_type,omitempty" jsonschema:"description=Only entries from this source"`
	Limit      int    `json:"limit,omitempty" jsonschema:"description=Maximum entries to return"`
}

type CreateTaskArgs struct {
	Title         string `json:"title" jsonschema:"description=Task title"`
	Description   string `json:"description,omitempty" jsonschema:"description=Task description"`
	Category      string `json:"category,omitempty" jsonschema:"description=Category name"`
	PriorityScore int    `json:"priority_score,omitempty" jsonschema:"description=Priority from 1 to 10 (default 5)"`
	Deadline      string `json:"deadline,omitempty" jsonschema:"description=Deadline in RFC 3339 format"`
}

type ListTasksArgs struct {
	Status   string `json:"status,omitempty" jsonschema:"description=pending / in_progress / completed"`
	Category string `json:"category,omitempty" jsonschema:"description=Only tasks in this category"`
	Search   string `json:"search,omitempty" jsonschema:"description=Text to find in title or description"`
	Limit    int    `json:"limit,omitempty" jsonschema:"description=Maximum tasks to return"`
}

type TransitionTaskArgs struct {
	TaskID string `json:"task_id" jsonschema:"description=Task ID"`
	Status string `json:"status" jsonschema:"description=pending / in_progress / completed"`
}

type TaskIDArgs struct {
	TaskID string `json:"task_id" jsonschema:"description=Task ID"`
}

type ApplySuggestionResult struct {
	Task       *task.Task            `json:"task"`
	Suggestion suggestion.Suggestion `json:"suggestion"`
	Source     suggestion.Source     `json:"source"`
}

type PopularCategoriesArgs struct {
	Limit int `json:"limit,omitempty" jsonschema:"description=Maximum categories to return (default 10)"`
}

const defaultPopularLimit = 10

// friendlyError keeps validation and lookup messages, which help the
// client fix its call, and hides everything else behind fallback.
func friendlyError(err error, fallback string) error {
	var validationErr *task.ValidationError
	var transitionErr *task.TransitionError
	switch {
	case errors.As(err, &validationErr):
		return mcpErr(fmt.Sprintf("Invalid %s: %s", validationErr.Field, validationErr.Message))
	case errors.As(err, &transitionErr):
		return mcpErr(transitionErr.Error())
	case errors.Is(err, task.ErrNotFound):
		return mcpErr("Not found. List the records first to get a valid ID.")
	}
	return mcpErr(fallback)
}

func (s *Server) handleSuggest(ctx context.Context, args SuggestArgs) (any, error) {
	snippets := make([]suggestion.ContextSnippet, 0, len(args.Context))
	for _, c := range args.Context {
		snippets = append(snippets, suggestion.ContextSnippet{SourceType: c.SourceType, Content: c.Content})
	}
	result, err := s.taskSvc.Suggest(ctx, suggestion.Request{
		Title:           args.Title,
		Description:     args.Description,
		Category:        args.Category,
		Context:         snippets,
		UserPreferences: args.UserPreferences,
		CurrentWorkload: args.CurrentWorkload,
	})
	if err != nil {
		return nil, friendlyError(err, "Failed to generate a suggestion.")
	}
	return SuggestResult{Suggestion: result.Suggestion, Source: result.Source}, nil
}

func (s *Server) handleAnalyzeContext(ctx context.Context, args AnalyzeContextArgs) (any, error) {
	analysis, err := s.contextSvc.Analyze(application.AnalyzeInput{
		Content:         args.Content,
		SourceType:      args.SourceType,
		AnalysisOptions: suggestion.AllAnalysis,
	})
	if err != nil {
		return nil, friendlyError(err, "Failed to analyze context.")
	}
	return analysis, nil
}

func (s *Server) handleAddContext(ctx context.Context, args AddContextArgs) (any, error) {
	entry, err := s.contextSvc.Create(ctx, application.ContextInput{Content: args.Content, SourceType: args.SourceType})
	if err != nil {
		return nil, friendlyError(err, "Failed to store context entry.")
	}
	return entry.View(), nil
}

func (s *Server) handleListContext(ctx context.Context, args ListContextArgs) (any, error) {
	entries, err := s.contextSvc.List(ctx, task.ContextFilter{
		SourceType: args.SourceType,
		Page:       task.Page{Limit: args.Limit},
	})
	if err != nil {
		return nil, mcpErr("Failed to list context entries.")
	}
	views := make([]task.ContextEntryView, len(entries))
	for i, e := range entries {
		views[i] = e.View()
	}
	return views, nil
}

func (s *Server) handleCreateTask(ctx context.Context, args CreateTaskArgs) (any, error) {
	in := application.TaskInput{
		Title:         args.Title,
		Description:   args.Description,
		Category:      args.Category,
		PriorityScore: args.PriorityScore,
	}
	if args.Deadline != "" {
		deadline, err := time.Parse(time.RFC3339, args.Deadline)
		if err != nil {
			return nil, mcpErr("Invalid deadline. Use RFC 3339, e.g. 2025-06-30T17:00:00Z.")
		}
		in.Deadline = &deadline
	}
	t, err := s.taskSvc.Create(ctx, in)
	if err != nil {
		return nil, friendlyError(err, "Failed to create task.")
	}
	return t, nil
}

func (s *Server) handleListTasks(ctx context.Context, args ListTasksArgs) (any, error) {
	status, err := task.ParseStatus(strings.TrimSpace(args.Status))
	if err != nil {
		return nil, friendlyError(err, "Invalid status.")
	}
	filter := task.TaskFilter{Category: args.Category, Search: args.Search, Page: task.Page{Limit: args.Limit}}
	if args.Status != "" {
		filter.Status = status
	}
	tasks, err := s.taskSvc.List(ctx, filter)
	if err != nil {
		return nil, mcpErr("Failed to list tasks.")
	}
	now := time.Now()
	views := make([]task.TaskView, len(tasks))
	for i, t := range tasks {
		views[i] = t.View(now)
	}
	return views, nil
}

func (s *Server) handleTransitionTask(ctx context.Context, args TransitionTaskArgs) (string, error) {
	status, err := task.ParseStatus(args.Status)
	if err != nil || args.Status == "" {
		return "", mcpErr("Invalid status. Use pending, in_progress or completed.")
	}
	t, err := s.taskSvc.Update(ctx, args.TaskID, application.TaskUpdate{Status: &status})
	if err != nil {
		return "", friendlyError(err, "Failed to update task status.")
	}
	return fmt.Sprintf("Task %s is now %s", t.ID, t.Status), nil
}

func (s *Server) handleApplySuggestion(ctx context.Context, args TaskIDArgs) (any, error) {
	t, result, err := s.taskSvc.ApplySuggestion(ctx, args.TaskID)
	if err != nil {
		return nil, friendlyError(err, "Failed to apply suggestion.")
	}
	return ApplySuggestionResult{Task: t, Suggestion: result.Suggestion, Source: result.Source}, nil
}

func (s *Server) handleTaskStatistics(ctx context.Context, args struct{}) (any, error) {
	stats, err := s.taskSvc.Statistics(ctx)
	if err != nil {
		return nil, mcpErr("Failed to compute task statistics.")
	}
	return stats, nil
}

func (s *Server) handlePopularCategories(ctx context.Context, args PopularCategoriesArgs) (any, error) {
	limit := args.Limit
	if limit <= 0 {
		limit = defaultPopularLimit
	}
	categories, err := s.categorySvc.Popular(ctx, limit)
	if err != nil {
		return nil, mcpErr("Failed to list popular categories.")
	}
	return categories, nil
}
