// Package storage persists the record store on the local filesystem or in
// PostgreSQL.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/retry"

	"github.com/felixgeelhaar/smarttodo/pkg/domain/task"
)

const DataDir = ".smarttodo"
const TasksFile = "tasks.json"
const CategoriesFile = "categories.json"
const ContextEntriesFile = "context_entries.json"

// FilesystemRepository keeps each record kind in one JSON file under
// .smarttodo. Writes replace the file atomically.
type FilesystemRepository struct {
	root        string
	retryConfig retry.Config
	mu          sync.RWMutex
}

var _ task.Repository = (*FilesystemRepository)(nil)

func NewFilesystemRepository(root string) *FilesystemRepository {
	return &FilesystemRepository{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Root returns the workspace root directory.
func (r *FilesystemRepository) Root() string {
	return r.root
}

// ResolvePath ensures the path is within the .smarttodo directory and prevents traversal.
func (r *FilesystemRepository) ResolvePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	baseDir := filepath.Join(r.root, DataDir)
	fullPath := filepath.Join(baseDir, filename)
	cleanPath := filepath.Clean(fullPath)

	if !strings.HasPrefix(cleanPath, baseDir) || filepath.Dir(cleanPath) != baseDir {
		return "", fmt.Errorf("invalid file path: %s", filename)
	}

	return cleanPath, nil
}

func (r *FilesystemRepository) Initialize() error {
	path := filepath.Join(r.root, DataDir)
	// G301: Use 0700 for directories
	if err := os.MkdirAll(path, 0700); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", DataDir, err)
	}
	return nil
}

func (r *FilesystemRepository) IsInitialized() bool {
	_, err := os.Stat(filepath.Join(r.root, DataDir))
	return err == nil
}

// Close releases nothing; files are not held open between calls.
func (r *FilesystemRepository) Close() error {
	return nil
}

// --- tasks ---

func (r *FilesystemRepository) SaveTask(ctx context.Context, t *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return upsert(r, ctx, TasksFile, *t, func(x task.Task) string { return x.ID })
}

func (r *FilesystemRepository) GetTask(ctx context.Context, id string) (*task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return find(r, ctx, TasksFile, "task", func(x task.Task) bool { return x.ID == id }, id)
}

func (r *FilesystemRepository) DeleteTask(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return remove(r, ctx, TasksFile, "task", id, func(x task.Task) string { return x.ID })
}

func (r *FilesystemRepository) ListTasks(ctx context.Context, filter task.TaskFilter) ([]task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items, err := loadCollection[task.Task](r, ctx, TasksFile)
	if err != nil {
		return nil, err
	}
	return filter.Apply(items), nil
}

// --- categories ---

func (r *FilesystemRepository) SaveCategory(ctx context.Context, c *task.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return upsert(r, ctx, CategoriesFile, *c, func(x task.Category) string { return x.ID })
}

func (r *FilesystemRepository) GetCategory(ctx context.Context, id string) (*task.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return find(r, ctx, CategoriesFile, "category", func(x task.Category) bool { return x.ID == id }, id)
}

// GetCategoryByName matches names case-insensitively.
func (r *FilesystemRepository) GetCategoryByName(ctx context.Context, name string) (*task.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return find(r, ctx, CategoriesFile, "category", func(x task.Category) bool {
		return strings.EqualFold(x.Name, name)
	}, name)
}

func (r *FilesystemRepository) AdjustCategoryUsage(ctx context.Context, name string, delta int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	items, err := loadCollection[task.Category](r, ctx, CategoriesFile)
	if err != nil {
		return err
	}
	for i := range items {
		if strings.EqualFold(items[i].Name, name) {
			items[i].AdjustUsage(delta)
			items[i].UpdatedAt = at
			return saveCollection(r, CategoriesFile, items)
		}
	}
	return &task.NotFoundError{Kind: "category", ID: name}
}

func (r *FilesystemRepository) DeleteCategory(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return remove(r, ctx, CategoriesFile, "category", id, func(x task.Category) string { return x.ID })
}

func (r *FilesystemRepository) ListCategories(ctx context.Context, filter task.CategoryFilter) ([]task.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items, err := loadCollection[task.Category](r, ctx, CategoriesFile)
	if err != nil {
		return nil, err
	}
	return filter.Apply(items), nil
}

// --- context entries ---

func (r *FilesystemRepository) SaveContextEntry(ctx context.Context, e *task.ContextEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return upsert(r, ctx, ContextEntriesFile, *e, func(x task.ContextEntry) string { return x.ID })
}

func (r *FilesystemRepository) GetContextEntry(ctx context.Context, id string) (*task.ContextEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return find(r, ctx, ContextEntriesFile, "context entry", func(x task.ContextEntry) bool { return x.ID == id }, id)
}

func (r *FilesystemRepository) DeleteContextEntry(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return remove(r, ctx, ContextEntriesFile, "context entry", id, func(x task.ContextEntry) string { return x.ID })
}

func (r *FilesystemRepository) ListContextEntries(ctx context.Context, filter task.ContextFilter) ([]task.ContextEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items, err := loadCollection[task.ContextEntry](r, ctx, ContextEntriesFile)
	if err != nil {
		return nil, err
	}
	return filter.Apply(items), nil
}

// --- collection helpers; callers hold r.mu ---

func loadCollection[T any](r *FilesystemRepository, ctx context.Context, filename string) ([]T, error) {
	retryer := retry.New[[]T](r.retryConfig)

	return retryer.Do(ctx, func(ctx context.Context) ([]T, error) {
		path, err := r.ResolvePath(filename)
		if err != nil {
			return nil, err
		}

		// #nosec G304 -- Path is resolved and validated via ResolvePath
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			return []T{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", filename, err)
		}

		items := []T{}
		if len(data) == 0 {
			return items, nil
		}
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", filename, err)
		}
		return items, nil
	})
}

func saveCollection[T any](r *FilesystemRepository, filename string, items []T) error {
	if err := r.Initialize(); err != nil {
		return err
	}
	path, err := r.ResolvePath(filename)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filename, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filename+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	// G306: Use 0600 for files
	if err := os.Chmod(tmpName, 0600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func upsert[T any](r *FilesystemRepository, ctx context.Context, filename string, item T, id func(T) string) error {
	items, err := loadCollection[T](r, ctx, filename)
	if err != nil {
		return err
	}
	replaced := false
	for i := range items {
		if id(items[i]) == id(item) {
			items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		items = append(items, item)
	}
	return saveCollection(r, filename, items)
}

func find[T any](r *FilesystemRepository, ctx context.Context, filename, kind string, match func(T) bool, key string) (*T, error) {
	items, err := loadCollection[T](r, ctx, filename)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if match(items[i]) {
			return &items[i], nil
		}
	}
	return nil, &task.NotFoundError{Kind: kind, ID: key}
}

func remove[T any](r *FilesystemRepository, ctx context.Context, filename, kind, key string, id func(T) string) error {
	items, err := loadCollection[T](r, ctx, filename)
	if err != nil {
		return err
	}
	for i := range items {
		if id(items[i]) == key {
			items = append(items[:i], items[i+1:]...)
			return saveCollection(r, filename, items)
		}
	}
	return &task.NotFoundError{Kind: kind, ID: key}
}
