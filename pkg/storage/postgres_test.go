package storage

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/smarttodo/pkg/domain/task"
)

func newPostgresRepo(t *testing.T) *PostgresRepository {
	t.Helper()
	dsn := os.Getenv("SMARTTODO_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SMARTTODO_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	repo, err := NewPostgresRepository(ctx, dsn)
	if err != nil {
		t.Fatalf("NewPostgresRepository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return repo
}

func TestPostgres_TaskRoundtrip(t *testing.T) {
	ctx := context.Background()
	repo := newPostgresRepo(t)
	now := time.Now().UTC().Truncate(time.Microsecond)

	tk := &task.Task{
		ID:              uuid.NewString(),
		Title:           "Postgres roundtrip",
		Category:        "Work",
		PriorityScore:   8,
		Status:          task.StatusPending,
		AISuggestedTags: []string{"db", "test"},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	t.Cleanup(func() { _ = repo.DeleteTask(ctx, tk.ID) })

	if err := repo.SaveTask(ctx, tk); err != nil {
		t.Fatal(err)
	}
	got, err := repo.GetTask(ctx, tk.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != tk.Title || len(got.AISuggestedTags) != 2 || got.Deadline != nil {
		t.Errorf("roundtrip mismatch: %+v", got)
	}

	list, err := repo.ListTasks(ctx, task.TaskFilter{Search: "postgres ROUND"})
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, l := range list {
		if l.ID == tk.ID {
			found = true
		}
	}
	if !found {
		t.Error("search should find the task")
	}
}

func TestPostgres_DuplicateCategoryName(t *testing.T) {
	ctx := context.Background()
	repo := newPostgresRepo(t)
	now := time.Now().UTC()
	name := "dup-" + uuid.NewString()[:8]

	first := &task.Category{ID: uuid.NewString(), Name: name, Color: task.DefaultColor, IsActive: true, CreatedAt: now, UpdatedAt: now}
	second := &task.Category{ID: uuid.NewString(), Name: name, Color: task.DefaultColor, IsActive: true, CreatedAt: now, UpdatedAt: now}
	t.Cleanup(func() { _ = repo.DeleteCategory(ctx, first.ID) })

	if err := repo.SaveCategory(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := repo.SaveCategory(ctx, second); !errors.Is(err, task.ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
}

func TestPostgres_NotFound(t *testing.T) {
	repo := newPostgresRepo(t)
	if _, err := repo.GetContextEntry(context.Background(), uuid.NewString()); !errors.Is(err, task.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestWhereBuilder(t *testing.T) {
	var w where
	w.add("status = %s", "pending")
	w.add("(title ILIKE %s OR description ILIKE %s)", "%x%")
	page := w.page(task.Page{Skip: 10, Limit: 5})

	if got := w.sql(); got != " WHERE status = $1 AND (title ILIKE $2 OR description ILIKE $2)" {
		t.Errorf("unexpected where clause %q", got)
	}
	if page != " LIMIT $3 OFFSET $4" {
		t.Errorf("unexpected page clause %q", page)
	}
	if len(w.args) != 4 || w.args[2] != 5 || w.args[3] != 10 {
		t.Errorf("unexpected args %v", w.args)
	}

	var all where
	if all.page(task.Page{All: true}) != "" || len(all.args) != 0 {
		t.Error("All should disable pagination")
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`50%_off\`); got != `50\%\_off\\` {
		t.Errorf("unexpected escape %q", got)
	}
}

func TestPostgres_AdjustCategoryUsage(t *testing.T) {
	ctx := context.Background()
	repo := newPostgresRepo(t)
	now := time.Now().UTC().Truncate(time.Microsecond)
	c := &task.Category{ID: uuid.NewString(), Name: "usage-" + uuid.NewString()[:8], Color: task.DefaultColor, IsActive: true, CreatedAt: now, UpdatedAt: now}
	t.Cleanup(func() { _ = repo.DeleteCategory(ctx, c.ID) })
	if err := repo.SaveCategory(ctx, c); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.AdjustCategoryUsage(ctx, c.Name, 1, now); err != nil {
				t.Errorf("AdjustCategoryUsage: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := repo.GetCategory(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.UsageFrequency != 10 {
		t.Errorf("expected usage 10, got %d", got.UsageFrequency)
	}
	if err := repo.AdjustCategoryUsage(ctx, c.Name, -20, now); err != nil {
		t.Fatal(err)
	}
	if got, _ := repo.GetCategory(ctx, c.ID); got.UsageFrequency != 0 {
		t.Errorf("expected usage floored at 0, got %d", got.UsageFrequency)
	}
}
