package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/felixgeelhaar/smarttodo/pkg/application"
	"github.com/felixgeelhaar/smarttodo/pkg/domain/suggestion"
	"github.com/felixgeelhaar/smarttodo/pkg/domain/task"
	"github.com/felixgeelhaar/smarttodo/pkg/infrastructure/api"
	"github.com/felixgeelhaar/smarttodo/pkg/storage"
)

type stubSuggester struct {
	result application.SuggestionResult
}

func (s stubSuggester) Generate(_ context.Context, _ suggestion.Request) application.SuggestionResult {
	return s.result
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	repo := storage.NewFilesystemRepository(t.TempDir())
	suggester := stubSuggester{result: application.SuggestionResult{
		Source: suggestion.SourceHeuristic,
		Suggestion: suggestion.Suggestion{
			PriorityScore:     9,
			SuggestedCategory: "Work",
			Tags:              []string{"urgent"},
			Reasoning:         suggestion.HeuristicReasoning,
			ContextInsights:   []string{},
		},
	}}
	srv := api.NewServer(api.Services{
		Tasks:      application.NewTaskService(repo, suggester, nil),
		Categories: application.NewCategoryService(repo, nil),
		Contexts:   application.NewContextService(repo, nil),
	}, api.Options{Addr: ":0"})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, ts.URL+api.Prefix+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp := do(t, ts, http.MethodGet, "/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decode[map[string]string](t, resp)
	if body["status"] != "healthy" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestTaskLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodPost, "/tasks", map[string]any{"title": "Write report", "priority_score": 8})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	created := decode[task.TaskView](t, resp)
	if created.PriorityLabel != "Critical" || created.Status != task.StatusPending {
		t.Errorf("unexpected task %+v", created)
	}

	resp = do(t, ts, http.MethodPut, "/tasks/"+created.ID, map[string]any{"status": "in_progress"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if updated := decode[task.TaskView](t, resp); updated.Status != task.StatusInProgress {
		t.Errorf("expected in_progress, got %s", updated.Status)
	}

	resp = do(t, ts, http.MethodGet, "/tasks?status=in_progress", nil)
	if list := decode[[]task.TaskView](t, resp); len(list) != 1 {
		t.Errorf("expected one in-progress task, got %d", len(list))
	}

	resp = do(t, ts, http.MethodGet, "/tasks/statistics", nil)
	if stats := decode[task.Statistics](t, resp); stats.Total != 1 || stats.InProgress != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}

	resp = do(t, ts, http.MethodDelete, "/tasks/"+created.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp = do(t, ts, http.MethodGet, "/tasks/"+created.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestTaskValidationErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing title", http.MethodPost, "/tasks", map[string]any{"title": ""}, http.StatusBadRequest},
		{"bad priority", http.MethodPost, "/tasks", map[string]any{"title": "x", "priority_score": 42}, http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/tasks?limit=5000", nil, http.StatusBadRequest},
		{"bad status filter", http.MethodGet, "/tasks?status=done", nil, http.StatusBadRequest},
		{"unknown task", http.MethodGet, "/tasks/nope", nil, http.StatusNotFound},
		{"suggestion without title", http.MethodPost, "/tasks/ai-suggestions", map[string]any{"title": " "}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, ts, tt.method, tt.path, tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
			if body := decode[map[string]string](t, resp); body["error"] == "" {
				t.Error("expected error message")
			}
		})
	}
}

func TestSuggestEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodPost, "/tasks/ai-suggestions", map[string]any{
		"title":        "URGENT: submit tax documents",
		"context_data": []map[string]string{{"source_type": "email", "content": "Reminder"}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get(api.SuggestionSourceHeader); got != "heuristic" {
		t.Errorf("expected heuristic source header, got %q", got)
	}
	body := decode[map[string]any](t, resp)
	if body["priority_score"] != float64(9) {
		t.Errorf("unexpected priority %v", body["priority_score"])
	}
	for _, key := range []string{"suggested_deadline", "enhanced_description", "suggested_category",
		"ai_suggested_tags", "reasoning", "estimated_duration", "context_insights"} {
		if _, ok := body[key]; !ok {
			t.Errorf("response missing %s", key)
		}
	}
}

func TestApplySuggestionEndpoint(t *testing.T) {
	ts := newTestServer(t)
	created := decode[task.TaskView](t, do(t, ts, http.MethodPost, "/tasks", map[string]any{"title": "Pay rent"}))

	resp := do(t, ts, http.MethodPost, "/tasks/"+created.ID+"/apply-suggestion", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decode[struct {
		Task   task.TaskView `json:"task"`
		Source string        `json:"source"`
	}](t, resp)
	if body.Task.PriorityScore != 9 || body.Task.Category != "Work" || body.Source != "heuristic" {
		t.Errorf("unexpected applied task %+v", body)
	}
}

func TestCategoryEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodPost, "/categories", map[string]any{"name": "Work"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	created := decode[task.Category](t, resp)

	resp = do(t, ts, http.MethodPost, "/categories", map[string]any{"name": "work"})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %d", resp.StatusCode)
	}

	do(t, ts, http.MethodPost, "/tasks", map[string]any{"title": "Report", "category": "Work"})

	resp = do(t, ts, http.MethodGet, "/categories/popular?limit=5", nil)
	popular := decode[[]task.Category](t, resp)
	if len(popular) != 1 || popular[0].UsageFrequency != 1 {
		t.Errorf("unexpected popular categories %+v", popular)
	}

	resp = do(t, ts, http.MethodGet, "/categories/statistics", nil)
	if stats := decode[task.CategoryStatistics](t, resp); stats.MostUsed != "Work" {
		t.Errorf("unexpected stats %+v", stats)
	}

	resp = do(t, ts, http.MethodPut, "/categories/"+created.ID, map[string]any{"color": "#000000"})
	if updated := decode[task.Category](t, resp); updated.Color != "#000000" {
		t.Errorf("expected color update, got %s", updated.Color)
	}

	resp = do(t, ts, http.MethodGet, "/categories?is_active=maybe", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestContextEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodPost, "/context-entries", map[string]any{
		"content":     "Please review the project deadline before the meeting",
		"source_type": "email",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	entry := decode[task.ContextEntryView](t, resp)
	if !entry.IsProcessed || entry.ContentPreview == "" {
		t.Errorf("unexpected entry %+v", entry)
	}

	resp = do(t, ts, http.MethodGet, "/context-entries?source_type=email&min_relevance=0.01", nil)
	if list := decode[[]task.ContextEntryView](t, resp); len(list) != 1 {
		t.Errorf("expected one entry, got %d", len(list))
	}

	resp = do(t, ts, http.MethodPost, "/context-entries/analyze", map[string]any{
		"content":          "great work on the project",
		"source_type":      "notes",
		"extract_keywords": false,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	analysis := decode[suggestion.Analysis](t, resp)
	if len(analysis.Keywords) != 0 {
		t.Errorf("keywords were disabled, got %v", analysis.Keywords)
	}
	if analysis.Sentiment != suggestion.SentimentPositive || analysis.RelevanceScore == 0 {
		t.Errorf("unexpected analysis %+v", analysis)
	}

	resp = do(t, ts, http.MethodDelete, "/context-entries/"+entry.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+api.Prefix+"/tasks", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("expected Access-Control-Allow-Origin header")
	}
}
