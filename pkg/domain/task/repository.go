package task

import (
	"context"
	"time"
)

// TaskRepository persists tasks.
type TaskRepository interface {
	SaveTask(ctx context.Context, t *Task) error
	GetTask(ctx context.Context, id string) (*Task, error)
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, filter TaskFilter) ([]Task, error)
}

// CategoryRepository persists categories.
type CategoryRepository interface {
	SaveCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, id string) (*Category, error)
	GetCategoryByName(ctx context.Context, name string) (*Category, error)
	DeleteCategory(ctx context.Context, id string) error
	ListCategories(ctx context.Context, filter CategoryFilter) ([]Category, error)
	// AdjustCategoryUsage atomically adds delta to the usage counter of the
	// named category, flooring at zero, and stamps it with at.
	AdjustCategoryUsage(ctx context.Context, name string, delta int, at time.Time) error
}

// ContextRepository persists context entries.
type ContextRepository interface {
	SaveContextEntry(ctx context.Context, e *ContextEntry) error
	GetContextEntry(ctx context.Context, id string) (*ContextEntry, error)
	DeleteContextEntry(ctx context.Context, id string) error
	ListContextEntries(ctx context.Context, filter ContextFilter) ([]ContextEntry, error)
}

// Repository is the full record store.
type Repository interface {
	TaskRepository
	CategoryRepository
	ContextRepository
	Close() error
}
