package application_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/smarttodo/pkg/application"
	"github.com/felixgeelhaar/smarttodo/pkg/domain/suggestion"
	"github.com/felixgeelhaar/smarttodo/pkg/domain/task"
)

// MemoryRepo is an in-memory task.Repository.
type MemoryRepo struct {
	mu         sync.Mutex
	tasks      map[string]task.Task
	categories map[string]task.Category
	entries    map[string]task.ContextEntry

	SaveError error
	ListError error
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		tasks:      make(map[string]task.Task),
		categories: make(map[string]task.Category),
		entries:    make(map[string]task.ContextEntry),
	}
}

func (m *MemoryRepo) SaveTask(_ context.Context, t *task.Task) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = *t
	return nil
}

func (m *MemoryRepo) GetTask(_ context.Context, id string) (*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, &task.NotFoundError{Kind: "task", ID: id}
	}
	return &t, nil
}

func (m *MemoryRepo) DeleteTask(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return &task.NotFoundError{Kind: "task", ID: id}
	}
	delete(m.tasks, id)
	return nil
}

func (m *MemoryRepo) ListTasks(_ context.Context, filter task.TaskFilter) ([]task.Task, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]task.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		all = append(all, t)
	}
	return filter.Apply(all), nil
}

func (m *MemoryRepo) SaveCategory(_ context.Context, c *task.Category) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.ID] = *c
	return nil
}

func (m *MemoryRepo) GetCategory(_ context.Context, id string) (*task.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, &task.NotFoundError{Kind: "category", ID: id}
	}
	return &c, nil
}

func (m *MemoryRepo) GetCategoryByName(_ context.Context, name string) (*task.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if strings.EqualFold(c.Name, name) {
			return &c, nil
		}
	}
	return nil, &task.NotFoundError{Kind: "category", ID: name}
}

func (m *MemoryRepo) AdjustCategoryUsage(_ context.Context, name string, delta int, at time.Time) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.categories {
		if strings.EqualFold(c.Name, name) {
			c.AdjustUsage(delta)
			c.UpdatedAt = at
			m.categories[id] = c
			return nil
		}
	}
	return &task.NotFoundError{Kind: "category", ID: name}
}

func (m *MemoryRepo) DeleteCategory(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return &task.NotFoundError{Kind: "category", ID: id}
	}
	delete(m.categories, id)
	return nil
}

func (m *MemoryRepo) ListCategories(_ context.Context, filter task.CategoryFilter) ([]task.Category, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]task.Category, 0, len(m.categories))
	for _, c := range m.categories {
		all = append(all, c)
	}
	return filter.Apply(all), nil
}

func (m *MemoryRepo) SaveContextEntry(_ context.Context, e *task.ContextEntry) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.ID] = *e
	return nil
}

func (m *MemoryRepo) GetContextEntry(_ context.Context, id string) (*task.ContextEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, &task.NotFoundError{Kind: "context entry", ID: id}
	}
	return &e, nil
}

func (m *MemoryRepo) DeleteContextEntry(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return &task.NotFoundError{Kind: "context entry", ID: id}
	}
	delete(m.entries, id)
	return nil
}

func (m *MemoryRepo) ListContextEntries(_ context.Context, filter task.ContextFilter) ([]task.ContextEntry, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]task.ContextEntry, 0, len(m.entries))
	for _, e := range m.entries {
		all = append(all, e)
	}
	return filter.Apply(all), nil
}

func (m *MemoryRepo) Close() error { return nil }

// RecordingSuggester returns a fixed result and keeps the requests it saw.
type RecordingSuggester struct {
	Result   application.SuggestionResult
	Requests []suggestion.Request
}

func (r *RecordingSuggester) Generate(_ context.Context, req suggestion.Request) application.SuggestionResult {
	r.Requests = append(r.Requests, req)
	return r.Result
}
