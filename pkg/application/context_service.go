package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/smarttodo/pkg/domain/suggestion"
	"github.com/felixgeelhaar/smarttodo/pkg/domain/task"
)

// ContextInput holds the fields of a new context entry.
type ContextInput struct {
	Content    string         `json:"content"`
	SourceType string         `json:"source_type"`
	Metadata   map[string]any `json:"meta_data"`
}

// ContextUpdate is a partial update. Nil fields are left unchanged.
type ContextUpdate struct {
	Content    *string        `json:"content"`
	SourceType *string        `json:"source_type"`
	Metadata   map[string]any `json:"meta_data"`
}

// AnalyzeInput selects the text and analysis parts for Analyze.
type AnalyzeInput struct {
	Content    string `json:"content"`
	SourceType string `json:"source_type"`
	suggestion.AnalysisOptions
}

// ContextService stores context entries and keeps their analysis current.
type ContextService struct {
	repo   task.ContextRepository
	now    func() time.Time
	logger *slog.Logger
}

// NewContextService creates a ContextService. A nil logger uses slog.Default().
func NewContextService(repo task.ContextRepository, logger *slog.Logger) *ContextService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContextService{repo: repo, now: time.Now, logger: logger}
}

// Create analyzes and stores a new context entry.
func (s *ContextService) Create(ctx context.Context, in ContextInput) (*task.ContextEntry, error) {
	e := &task.ContextEntry{
		ID:         uuid.NewString(),
		Content:    in.Content,
		SourceType: strings.TrimSpace(in.SourceType),
		Metadata:   in.Metadata,
		CreatedAt:  s.now(),
	}
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	process(e)

	if err := s.repo.SaveContextEntry(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to save context entry: %w", err)
	}
	s.logger.Info("context entry stored", "entry_id", e.ID, "source_type", e.SourceType, "relevance", e.RelevanceScore)
	return e, nil
}

// Get returns a context entry by ID.
func (s *ContextService) Get(ctx context.Context, id string) (*task.ContextEntry, error) {
	return s.repo.GetContextEntry(ctx, id)
}

// List returns context entries matching the filter.
func (s *ContextService) List(ctx context.Context, filter task.ContextFilter) ([]task.ContextEntry, error) {
	return s.repo.ListContextEntries(ctx, filter)
}

// Update applies a partial update and re-analyzes when the content or
// source type changed.
func (s *ContextService) Update(ctx context.Context, id string, upd ContextUpdate) (*task.ContextEntry, error) {
	e, err := s.repo.GetContextEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := false
	if upd.Content != nil && *upd.Content != e.Content {
		e.Content = *upd.Content
		changed = true
	}
	if upd.SourceType != nil && strings.TrimSpace(*upd.SourceType) != e.SourceType {
		e.SourceType = strings.TrimSpace(*upd.SourceType)
		changed = true
	}
	if upd.Metadata != nil {
		e.Metadata = upd.Metadata
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if changed {
		process(e)
	}

	if err := s.repo.SaveContextEntry(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to save context entry: %w", err)
	}
	return e, nil
}

// Delete removes a context entry.
func (s *ContextService) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteContextEntry(ctx, id)
}

// Analyze runs the analyzer without storing anything.
func (s *ContextService) Analyze(in AnalyzeInput) (suggestion.Analysis, error) {
	if strings.TrimSpace(in.Content) == "" {
		return suggestion.Analysis{}, &task.ValidationError{Field: "content", Message: "is required"}
	}
	return suggestion.Analyze(in.Content, in.SourceType, in.AnalysisOptions), nil
}

func process(e *task.ContextEntry) {
	a := suggestion.Analyze(e.Content, e.SourceType, suggestion.AllAnalysis)
	e.ExtractedKeywords = a.Keywords
	e.RelevanceScore = a.RelevanceScore
	e.ProcessedInsights = task.Insights{Sentiment: string(a.Sentiment), Insights: a.Insights}
	e.IsProcessed = true
}
