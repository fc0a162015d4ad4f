package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/smarttodo/internal/infrastructure/config"
	"github.com/felixgeelhaar/smarttodo/pkg/domain/suggestion"
	"github.com/felixgeelhaar/smarttodo/pkg/domain/task"
)

// runCLI executes the root command against a fresh flag state and returns
// stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvProvider, "none")
	t.Setenv(config.EnvDatabaseURL, "")

	jsonOutput = false
	workspaceRoot = "."
	suggestContext, suggestPrefs = nil, nil
	suggestDescription, suggestCategory, suggestWorkload = "", "", 0
	taskDescription, taskCategory, taskPriority, taskDeadline = "", "", 0, ""
	taskStatus, taskSearch, taskLimit = "", "", task.DefaultLimit
	configForce = false

	out := new(bytes.Buffer)
	RootCmd.SetOut(out)
	RootCmd.SetErr(new(bytes.Buffer))
	RootCmd.SetIn(strings.NewReader(stdin))
	RootCmd.SetArgs(args)
	err := RootCmd.Execute()
	return out.String(), err
}

func TestSuggestCommand_JSON(t *testing.T) {
	root := t.TempDir()
	out, err := runCLI(t, "", "--root", root, "--json", "suggest", "Fix", "urgent", "production", "bug",
		"--context", "email:customers report an outage", "--pref", "focus_hours=4")
	if err != nil {
		t.Fatalf("suggest failed: %v", err)
	}

	var payload struct {
		Suggestion suggestion.Suggestion `json:"suggestion"`
		Source     suggestion.Source     `json:"source"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if payload.Source != suggestion.SourceHeuristic {
		t.Errorf("expected heuristic source without a provider, got %s", payload.Source)
	}
	if payload.Suggestion.PriorityScore < 1 || payload.Suggestion.PriorityScore > 10 {
		t.Errorf("priority out of range: %d", payload.Suggestion.PriorityScore)
	}
	if payload.Suggestion.Reasoning != suggestion.HeuristicReasoning {
		t.Errorf("unexpected reasoning: %s", payload.Suggestion.Reasoning)
	}
}

func TestSuggestCommand_Text(t *testing.T) {
	out, err := runCLI(t, "", "--root", t.TempDir(), "suggest", "Write quarterly report")
	if err != nil {
		t.Fatalf("suggest failed: %v", err)
	}
	if !strings.Contains(out, "Write quarterly report") || !strings.Contains(out, "keyword heuristic") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestSuggestCommand_BadContext(t *testing.T) {
	_, err := runCLI(t, "", "--root", t.TempDir(), "suggest", "Task", "--context", "nonsense")
	if err == nil {
		t.Fatal("expected error for malformed context")
	}
}

func TestAnalyzeCommand(t *testing.T) {
	out, err := runCLI(t, "", "--json", "analyze", "--source", "email", "Urgent", "deadline", "for", "the", "client", "report")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	var a suggestion.Analysis
	if err := json.Unmarshal([]byte(out), &a); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if a.RelevanceScore <= 0 {
		t.Errorf("expected positive relevance, got %v", a.RelevanceScore)
	}
	if len(a.Keywords) == 0 {
		t.Error("expected keywords")
	}
}

func TestAnalyzeCommand_Stdin(t *testing.T) {
	out, err := runCLI(t, "Great progress on the launch", "--json", "analyze", "--no-keywords")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	var a suggestion.Analysis
	if err := json.Unmarshal([]byte(out), &a); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if len(a.Keywords) != 0 {
		t.Errorf("keywords should be skipped, got %v", a.Keywords)
	}
	if a.Sentiment != suggestion.SentimentPositive {
		t.Errorf("expected positive sentiment, got %s", a.Sentiment)
	}
}

func TestAnalyzeCommand_Empty(t *testing.T) {
	if _, err := runCLI(t, "   ", "analyze"); err == nil {
		t.Fatal("expected validation error for empty text")
	}
}

func TestTaskLifecycleCommands(t *testing.T) {
	root := t.TempDir()

	out, err := runCLI(t, "", "--root", root, "--json", "task", "add", "Prepare", "demo", "-c", "Work", "-p", "7")
	if err != nil {
		t.Fatalf("task add failed: %v", err)
	}
	var created task.TaskView
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if created.Title != "Prepare demo" || created.PriorityScore != 7 || created.Status != task.StatusPending {
		t.Fatalf("unexpected task: %+v", created.Task)
	}

	if _, err := runCLI(t, "", "--root", root, "task", "start", created.ID); err != nil {
		t.Fatalf("task start failed: %v", err)
	}
	if _, err := runCLI(t, "", "--root", root, "task", "done", created.ID); err != nil {
		t.Fatalf("task done failed: %v", err)
	}

	out, err = runCLI(t, "", "--root", root, "--json", "task", "list", "--status", "completed")
	if err != nil {
		t.Fatalf("task list failed: %v", err)
	}
	var listed []task.Task
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("expected the completed task, got %+v", listed)
	}

	out, err = runCLI(t, "", "--root", root, "--json", "stats")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	var stats task.Statistics
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if stats.Total != 1 || stats.Completed != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	if _, err := runCLI(t, "", "--root", root, "task", "delete", created.ID); err != nil {
		t.Fatalf("task delete failed: %v", err)
	}
	if _, err := runCLI(t, "", "--root", root, "task", "start", created.ID); err == nil {
		t.Fatal("expected not found after delete")
	}
}

func TestTaskApplyCommand(t *testing.T) {
	root := t.TempDir()
	out, err := runCLI(t, "", "--root", root, "--json", "task", "add", "Fix", "critical", "login", "bug")
	if err != nil {
		t.Fatalf("task add failed: %v", err)
	}
	var created task.TaskView
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	out, err = runCLI(t, "", "--root", root, "--json", "task", "apply", created.ID)
	if err != nil {
		t.Fatalf("task apply failed: %v", err)
	}
	var payload struct {
		Task   task.Task         `json:"task"`
		Source suggestion.Source `json:"source"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if payload.Source != suggestion.SourceHeuristic {
		t.Errorf("expected heuristic source, got %s", payload.Source)
	}
	if payload.Task.AIEnhancedDescription == "" {
		t.Error("expected enhanced description to be applied")
	}
}

func TestTaskAddCommand_InvalidInput(t *testing.T) {
	root := t.TempDir()
	if _, err := runCLI(t, "", "--root", root, "task", "add", "x", "--deadline", "tomorrow"); err == nil {
		t.Error("expected error for unparseable deadline")
	}
	if _, err := runCLI(t, "", "--root", root, "task", "add", "x", "-p", "11"); err == nil {
		t.Error("expected error for priority above 10")
	}
	if _, err := runCLI(t, "", "--root", root, "task", "list", "--status", "archived"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestConfigCommands(t *testing.T) {
	root := t.TempDir()

	out, err := runCLI(t, "", "--root", root, "config", "init")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	path := filepath.Join(root, ".smarttodo", config.FileName)
	if !strings.Contains(out, path) {
		t.Errorf("expected path in output, got %q", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	if _, err := runCLI(t, "", "--root", root, "config", "init"); err == nil {
		t.Error("expected error when config already exists")
	}
	if _, err := runCLI(t, "", "--root", root, "config", "init", "--force"); err != nil {
		t.Errorf("--force should overwrite: %v", err)
	}

	t.Setenv("GROQ_API_KEY", "secret-key")
	out, err = runCLI(t, "", "--root", root, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if strings.Contains(out, "secret-key") {
		t.Error("API key must not be printed")
	}
	if !strings.Contains(out, "provider: none") {
		t.Errorf("expected env override in output:\n%s", out)
	}
}

func TestMCPCommand_UnsupportedTransport(t *testing.T) {
	defer func() { mcpTransport = "stdio" }()
	_, err := runCLI(t, "", "--root", t.TempDir(), "mcp", "--transport", "carrier-pigeon")
	if err == nil || !strings.Contains(err.Error(), "unsupported transport") {
		t.Fatalf("expected unsupported transport error, got %v", err)
	}
}
