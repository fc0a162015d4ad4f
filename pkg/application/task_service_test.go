package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/smarttodo/pkg/application"
	"github.com/felixgeelhaar/smarttodo/pkg/domain/suggestion"
	"github.com/felixgeelhaar/smarttodo/pkg/domain/task"
)

var serviceNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func newTaskService(repo *MemoryRepo, suggester application.Suggester) *application.TaskService {
	svc := application.NewTaskService(repo, suggester, nil)
	svc.SetClock(func() time.Time { return serviceNow })
	return svc
}

func TestTaskService_CreateDefaults(t *testing.T) {
	repo := NewMemoryRepo()
	svc := newTaskService(repo, &RecordingSuggester{})

	created, err := svc.Create(context.Background(), application.TaskInput{Title: "  Buy milk  "})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" {
		t.Error("expected generated ID")
	}
	if created.Title != "Buy milk" {
		t.Errorf("expected trimmed title, got %q", created.Title)
	}
	if created.PriorityScore != task.DefaultPriority || created.Status != task.StatusPending {
		t.Errorf("unexpected defaults %+v", created)
	}
	if !created.CreatedAt.Equal(serviceNow) {
		t.Errorf("expected created at %v, got %v", serviceNow, created.CreatedAt)
	}

	got, err := svc.Get(context.Background(), created.ID)
	if err != nil || got.Title != "Buy milk" {
		t.Errorf("Get returned %+v, %v", got, err)
	}
}

func TestTaskService_CreateValidation(t *testing.T) {
	svc := newTaskService(NewMemoryRepo(), &RecordingSuggester{})

	_, err := svc.Create(context.Background(), application.TaskInput{Title: ""})
	if !errors.Is(err, task.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
	_, err = svc.Create(context.Background(), application.TaskInput{Title: "x", PriorityScore: 11})
	if !errors.Is(err, task.ErrInvalid) {
		t.Errorf("expected ErrInvalid for priority, got %v", err)
	}
}

func TestTaskService_CategoryUsage(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	categories := application.NewCategoryService(repo, nil)
	work, err := categories.Create(ctx, application.CategoryInput{Name: "Work"})
	if err != nil {
		t.Fatal(err)
	}
	home, err := categories.Create(ctx, application.CategoryInput{Name: "Home"})
	if err != nil {
		t.Fatal(err)
	}

	svc := newTaskService(repo, &RecordingSuggester{})
	created, err := svc.Create(ctx, application.TaskInput{Title: "Report", Category: "work"})
	if err != nil {
		t.Fatal(err)
	}
	assertUsage(t, repo, work.ID, 1)

	homeName := "Home"
	if _, err := svc.Update(ctx, created.ID, application.TaskUpdate{Category: &homeName}); err != nil {
		t.Fatal(err)
	}
	assertUsage(t, repo, work.ID, 0)
	assertUsage(t, repo, home.ID, 1)

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	assertUsage(t, repo, home.ID, 0)
}

func TestTaskService_ConcurrentCreatesCountEveryTask(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	work, err := application.NewCategoryService(repo, nil).Create(ctx, application.CategoryInput{Name: "Work"})
	if err != nil {
		t.Fatal(err)
	}
	svc := newTaskService(repo, &RecordingSuggester{})

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Create(ctx, application.TaskInput{Title: "Parallel", Category: "Work"}); err != nil {
				t.Errorf("Create failed: %v", err)
			}
		}()
	}
	wg.Wait()

	assertUsage(t, repo, work.ID, n)
	c, err := repo.GetCategory(ctx, work.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !c.UpdatedAt.Equal(serviceNow) {
		t.Errorf("expected usage change stamped at %v, got %v", serviceNow, c.UpdatedAt)
	}
}

func assertUsage(t *testing.T, repo *MemoryRepo, id string, want int) {
	t.Helper()
	c, err := repo.GetCategory(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if c.UsageFrequency != want {
		t.Errorf("category %s: expected usage %d, got %d", c.Name, want, c.UsageFrequency)
	}
}

func TestTaskService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	svc := newTaskService(NewMemoryRepo(), &RecordingSuggester{})
	created, err := svc.Create(ctx, application.TaskInput{Title: "Ship release"})
	if err != nil {
		t.Fatal(err)
	}

	for _, status := range []task.Status{task.StatusInProgress, task.StatusCompleted, task.StatusPending} {
		s := status
		updated, err := svc.Update(ctx, created.ID, application.TaskUpdate{Status: &s})
		if err != nil {
			t.Fatalf("moving to %s failed: %v", status, err)
		}
		if updated.Status != status {
			t.Errorf("expected %s, got %s", status, updated.Status)
		}
	}

	bogus := task.Status("archived")
	if _, err := svc.Update(ctx, created.ID, application.TaskUpdate{Status: &bogus}); !errors.Is(err, task.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestTaskService_UpdateNotFound(t *testing.T) {
	svc := newTaskService(NewMemoryRepo(), &RecordingSuggester{})
	title := "x"
	_, err := svc.Update(context.Background(), "missing", application.TaskUpdate{Title: &title})
	if !errors.Is(err, task.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(context.Background(), "missing"); !errors.Is(err, task.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTaskService_Statistics(t *testing.T) {
	ctx := context.Background()
	svc := newTaskService(NewMemoryRepo(), &RecordingSuggester{})
	past := serviceNow.Add(-time.Hour)

	inputs := []application.TaskInput{
		{Title: "a", PriorityScore: 9, Category: "Work", Deadline: &past},
		{Title: "b", PriorityScore: 7, Category: "Home", Status: task.StatusInProgress},
		{Title: "c", PriorityScore: 2, Category: "Work", Status: task.StatusCompleted, Deadline: &past},
	}
	for _, in := range inputs {
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := svc.Statistics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 3 || stats.Pending != 1 || stats.InProgress != 1 || stats.Completed != 1 {
		t.Errorf("unexpected counts %+v", stats)
	}
	if stats.Overdue != 1 {
		t.Errorf("expected one overdue task, got %d", stats.Overdue)
	}
	if stats.HighPriority != 2 {
		t.Errorf("expected two high priority tasks, got %d", stats.HighPriority)
	}
	if len(stats.Categories) != 2 || stats.Categories[0] != "Home" || stats.Categories[1] != "Work" {
		t.Errorf("unexpected categories %v", stats.Categories)
	}
	if stats.AveragePriority != 6 {
		t.Errorf("expected average 6, got %v", stats.AveragePriority)
	}
}

func TestTaskService_SuggestFillsContextAndWorkload(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	suggester := &RecordingSuggester{Result: application.SuggestionResult{Source: suggestion.SourcePrimary}}
	svc := newTaskService(repo, suggester)
	contexts := application.NewContextService(repo, nil)

	for i := 0; i < 7; i++ {
		if _, err := contexts.Create(ctx, application.ContextInput{Content: "note", SourceType: "notes"}); err != nil {
			t.Fatal(err)
		}
	}
	for _, status := range []task.Status{task.StatusPending, task.StatusInProgress, task.StatusCompleted} {
		if _, err := svc.Create(ctx, application.TaskInput{Title: "t", Status: status}); err != nil {
			t.Fatal(err)
		}
	}

	result, err := svc.Suggest(ctx, suggestion.Request{Title: "Plan trip"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Source != suggestion.SourcePrimary {
		t.Errorf("expected suggester result, got %+v", result)
	}

	req := suggester.Requests[0]
	if len(req.Context) != 5 {
		t.Errorf("expected 5 context snippets, got %d", len(req.Context))
	}
	if req.CurrentWorkload != 2 {
		t.Errorf("expected workload 2, got %d", req.CurrentWorkload)
	}
}

func TestTaskService_SuggestKeepsCallerContext(t *testing.T) {
	suggester := &RecordingSuggester{}
	svc := newTaskService(NewMemoryRepo(), suggester)

	req := suggestion.Request{
		Title:           "Plan trip",
		Context:         []suggestion.ContextSnippet{{SourceType: "email", Content: "flights"}},
		CurrentWorkload: 4,
	}
	if _, err := svc.Suggest(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	got := suggester.Requests[0]
	if len(got.Context) != 1 || got.CurrentWorkload != 4 {
		t.Errorf("caller values should be kept, got %+v", got)
	}
}

func TestTaskService_SuggestRequiresTitle(t *testing.T) {
	svc := newTaskService(NewMemoryRepo(), &RecordingSuggester{})
	if _, err := svc.Suggest(context.Background(), suggestion.Request{Title: " "}); !errors.Is(err, task.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestTaskService_ApplySuggestion(t *testing.T) {
	ctx := context.Background()
	deadline := serviceNow.Add(24 * time.Hour)
	suggester := &RecordingSuggester{Result: application.SuggestionResult{
		Source: suggestion.SourceFallback,
		Suggestion: suggestion.Suggestion{
			PriorityScore:       8,
			SuggestedDeadline:   &deadline,
			EnhancedDescription: "Draft and send the report",
			SuggestedCategory:   "Work",
			Tags:                []string{"report"},
		},
	}}
	svc := newTaskService(NewMemoryRepo(), suggester)

	created, err := svc.Create(ctx, application.TaskInput{Title: "Report"})
	if err != nil {
		t.Fatal(err)
	}

	updated, result, err := svc.ApplySuggestion(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if result.Source != suggestion.SourceFallback {
		t.Errorf("unexpected source %s", result.Source)
	}
	if updated.PriorityScore != 8 || updated.Category != "Work" || updated.AIEnhancedDescription == "" {
		t.Errorf("suggestion not applied: %+v", updated)
	}
	if updated.Deadline == nil || !updated.Deadline.Equal(deadline) {
		t.Errorf("expected deadline %v, got %v", deadline, updated.Deadline)
	}
	if suggester.Requests[0].Title != "Report" {
		t.Errorf("request should describe the task, got %+v", suggester.Requests[0])
	}
}

func TestTaskService_ApplySuggestionKeepsDeadline(t *testing.T) {
	ctx := context.Background()
	own := serviceNow.Add(48 * time.Hour)
	suggested := serviceNow.Add(6 * time.Hour)
	suggester := &RecordingSuggester{Result: application.SuggestionResult{
		Suggestion: suggestion.Suggestion{PriorityScore: 3, SuggestedDeadline: &suggested},
	}}
	svc := newTaskService(NewMemoryRepo(), suggester)

	created, err := svc.Create(ctx, application.TaskInput{Title: "Report", Deadline: &own})
	if err != nil {
		t.Fatal(err)
	}
	updated, _, err := svc.ApplySuggestion(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !updated.Deadline.Equal(own) {
		t.Errorf("existing deadline should be kept, got %v", updated.Deadline)
	}
}
