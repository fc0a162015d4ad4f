package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/felixgeelhaar/smarttodo/pkg/application"
	"github.com/felixgeelhaar/smarttodo/pkg/domain/suggestion"
	"github.com/felixgeelhaar/smarttodo/pkg/domain/task"
)

// SuggestionSourceHeader reports which pipeline stage produced a suggestion.
const SuggestionSourceHeader = "X-Suggestion-Source"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// --- tasks ---

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := parsePage(q.Get("skip"), q.Get("limit"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	priority, err := parseInt(q.Get("priority"), "priority")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var status task.Status
	if raw := q.Get("status"); raw != "" {
		if status, err = task.ParseStatus(raw); err != nil {
			s.writeError(w, err)
			return
		}
	}

	tasks, err := s.services.Tasks.List(r.Context(), task.TaskFilter{
		Status:   status,
		Category: q.Get("category"),
		Priority: priority,
		Search:   q.Get("search"),
		Page:     page,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	now := s.now()
	views := make([]task.TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, t.View(now))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in application.TaskInput
	if err := decodeBody(w, r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	t, err := s.services.Tasks.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t.View(s.now()))
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.services.Tasks.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t.View(s.now()))
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var upd application.TaskUpdate
	if err := decodeBody(w, r, &upd); err != nil {
		s.writeError(w, err)
		return
	}
	t, err := s.services.Tasks.Update(r.Context(), r.PathValue("id"), upd)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t.View(s.now()))
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Tasks.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}

func (s *Server) handleTaskStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.services.Tasks.Statistics(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestion.Request
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	result, err := s.services.Tasks.Suggest(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set(SuggestionSourceHeader, string(result.Source))
	writeJSON(w, http.StatusOK, result.Suggestion)
}

// appliedSuggestion is the body returned by apply-suggestion.
type appliedSuggestion struct {
	Task       task.TaskView         `json:"task"`
	Suggestion suggestion.Suggestion `json:"suggestion"`
	Source     suggestion.Source     `json:"source"`
}

func (s *Server) handleApplySuggestion(w http.ResponseWriter, r *http.Request) {
	t, result, err := s.services.Tasks.ApplySuggestion(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set(SuggestionSourceHeader, string(result.Source))
	writeJSON(w, http.StatusOK, appliedSuggestion{
		Task:       t.View(s.now()),
		Suggestion: result.Suggestion,
		Source:     result.Source,
	})
}

// --- categories ---

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := parsePage(q.Get("skip"), q.Get("limit"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	minUsage, err := parseInt(q.Get("min_usage"), "min_usage")
	if err != nil {
		s.writeError(w, err)
		return
	}
	active, err := parseBool(q.Get("is_active"), "is_active")
	if err != nil {
		s.writeError(w, err)
		return
	}

	categories, err := s.services.Categories.List(r.Context(), task.CategoryFilter{
		IsActive: active,
		MinUsage: minUsage,
		Search:   q.Get("search"),
		Page:     page,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in application.CategoryInput
	if err := decodeBody(w, r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	c, err := s.services.Categories.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := s.services.Categories.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var upd application.CategoryUpdate
	if err := decodeBody(w, r, &upd); err != nil {
		s.writeError(w, err)
		return
	}
	c, err := s.services.Categories.Update(r.Context(), r.PathValue("id"), upd)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Categories.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Category deleted successfully"})
}

func (s *Server) handlePopularCategories(w http.ResponseWriter, r *http.Request) {
	limit, err := parseInt(r.URL.Query().Get("limit"), "limit")
	if err != nil {
		s.writeError(w, err)
		return
	}
	if limit == 0 {
		limit = 10
	}
	categories, err := s.services.Categories.Popular(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCategoryStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.services.Categories.Statistics(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// --- context entries ---

func (s *Server) handleListContextEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := parsePage(q.Get("skip"), q.Get("limit"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	processed, err := parseBool(q.Get("is_processed"), "is_processed")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var minRelevance float64
	if raw := q.Get("min_relevance"); raw != "" {
		if minRelevance, err = strconv.ParseFloat(raw, 64); err != nil {
			s.writeError(w, &task.ValidationError{Field: "min_relevance", Message: "must be a number"})
			return
		}
	}

	entries, err := s.services.Contexts.List(r.Context(), task.ContextFilter{
		SourceType:   q.Get("source_type"),
		IsProcessed:  processed,
		MinRelevance: minRelevance,
		Page:         page,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	views := make([]task.ContextEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, e.View())
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateContextEntry(w http.ResponseWriter, r *http.Request) {
	var in application.ContextInput
	if err := decodeBody(w, r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	e, err := s.services.Contexts.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e.View())
}

func (s *Server) handleGetContextEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.services.Contexts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e.View())
}

func (s *Server) handleUpdateContextEntry(w http.ResponseWriter, r *http.Request) {
	var upd application.ContextUpdate
	if err := decodeBody(w, r, &upd); err != nil {
		s.writeError(w, err)
		return
	}
	e, err := s.services.Contexts.Update(r.Context(), r.PathValue("id"), upd)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e.View())
}

func (s *Server) handleDeleteContextEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Contexts.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Context entry deleted successfully"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	in := application.AnalyzeInput{AnalysisOptions: suggestion.AllAnalysis}
	if err := decodeBody(w, r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	analysis, err := s.services.Contexts.Analyze(in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, task.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, task.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, task.ErrInvalid), errors.Is(err, task.ErrInvalidTransition):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return &task.ValidationError{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return nil
}

func parsePage(skip, limit string) (task.Page, error) {
	var p task.Page
	var err error
	if p.Skip, err = parseInt(skip, "skip"); err != nil {
		return p, err
	}
	if p.Limit, err = parseInt(limit, "limit"); err != nil {
		return p, err
	}
	if p.Skip < 0 {
		return p, &task.ValidationError{Field: "skip", Message: "must not be negative"}
	}
	if p.Limit < 0 || p.Limit > task.MaxLimit {
		return p, &task.ValidationError{Field: "limit", Message: fmt.Sprintf("must be between 1 and %d", task.MaxLimit)}
	}
	return p, nil
}

func parseInt(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &task.ValidationError{Field: field, Message: "must be an integer"}
	}
	return n, nil
}

func parseBool(raw, field string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, &task.ValidationError{Field: field, Message: "must be true or false"}
	}
	return &b, nil
}
