package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/smarttodo/pkg/domain/task"
)

// MaxPopularCategories bounds Popular.
const MaxPopularCategories = 50

// CategoryInput holds the fields of a new category.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	IsActive    *bool  `json:"is_active"`
}

// CategoryUpdate is a partial update. Nil fields are left unchanged.
type CategoryUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	IsActive    *bool   `json:"is_active"`
}

// CategoryService manages task categories.
type CategoryService struct {
	repo   task.CategoryRepository
	now    func() time.Time
	logger *slog.Logger
}

// NewCategoryService creates a CategoryService. A nil logger uses slog.Default().
func NewCategoryService(repo task.CategoryRepository, logger *slog.Logger) *CategoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoryService{repo: repo, now: time.Now, logger: logger}
}

// Create stores a new category. Names are unique.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*task.Category, error) {
	now := s.now()
	c := &task.Category{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Color:       in.Color,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if c.Color == "" {
		c.Color = task.DefaultColor
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, c.Name, ""); err != nil {
		return nil, err
	}
	if err := s.repo.SaveCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save category: %w", err)
	}
	s.logger.Info("category created", "category_id", c.ID, "name", c.Name)
	return c, nil
}

// Get returns a category by ID.
func (s *CategoryService) Get(ctx context.Context, id string) (*task.Category, error) {
	return s.repo.GetCategory(ctx, id)
}

// List returns categories matching the filter.
func (s *CategoryService) List(ctx context.Context, filter task.CategoryFilter) ([]task.Category, error) {
	return s.repo.ListCategories(ctx, filter)
}

// Update applies a partial update.
func (s *CategoryService) Update(ctx context.Context, id string, upd CategoryUpdate) (*task.Category, error) {
	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if !strings.EqualFold(name, c.Name) {
			if err := s.ensureUniqueName(ctx, name, c.ID); err != nil {
				return nil, err
			}
		}
		c.Name = name
	}
	if upd.Description != nil {
		c.Description = *upd.Description
	}
	if upd.Color != nil {
		c.Color = *upd.Color
	}
	if upd.IsActive != nil {
		c.IsActive = *upd.IsActive
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.UpdatedAt = s.now()
	if err := s.repo.SaveCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save category: %w", err)
	}
	return c, nil
}

// Delete removes a category. Tasks keep the category name they were filed under.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteCategory(ctx, id)
}

// Popular returns the most used active categories.
func (s *CategoryService) Popular(ctx context.Context, limit int) ([]task.Category, error) {
	if limit <= 0 || limit > MaxPopularCategories {
		limit = MaxPopularCategories
	}
	active := true
	return s.repo.ListCategories(ctx, task.CategoryFilter{
		IsActive: &active,
		MinUsage: 1,
		Page:     task.Page{Limit: limit},
	})
}

// Statistics summarizes category usage.
func (s *CategoryService) Statistics(ctx context.Context) (task.CategoryStatistics, error) {
	categories, err := s.repo.ListCategories(ctx, task.CategoryFilter{Page: task.Page{All: true}})
	if err != nil {
		return task.CategoryStatistics{}, err
	}

	stats := task.CategoryStatistics{Total: len(categories)}
	if len(categories) == 0 {
		return stats, nil
	}

	// Listing is ordered by usage descending.
	stats.MostUsed = categories[0].Name
	stats.LeastUsed = categories[len(categories)-1].Name
	usage := 0
	for _, c := range categories {
		if c.IsActive {
			stats.Active++
		}
		usage += c.UsageFrequency
	}
	stats.AverageUsage = math.Round(float64(usage)/float64(len(categories))*100) / 100
	return stats, nil
}

func (s *CategoryService) ensureUniqueName(ctx context.Context, name, selfID string) error {
	existing, err := s.repo.GetCategoryByName(ctx, name)
	switch {
	case errors.Is(err, task.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID == selfID:
		return nil
	}
	return fmt.Errorf("%w: %s", task.ErrDuplicateName, name)
}
