package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestFileWatcher_DetectsWrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(target, []byte("ai: {}"), 0600); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var events []ChangeEvent
	w, err := NewFileWatcher(target, 50*time.Millisecond, func(e ChangeEvent) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(target, []byte("ai:\n  provider: mock\n"), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(250 * time.Millisecond)
	cancel()

	mu.Lock()
	defer mu.Unlock()
	if len(events) == 0 {
		t.Fatal("expected at least one change event")
	}
	if events[0].Path != target || events[0].ChangeType == "" {
		t.Errorf("unexpected event %+v", events[0])
	}
}

func TestFileWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "config.yaml")

	var count atomic.Int32
	w, err := NewFileWatcher(target, 30*time.Millisecond, func(ChangeEvent) { count.Add(1) })
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "tasks.json"), []byte("[]"), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)

	if got := count.Load(); got != 0 {
		t.Errorf("expected no events for unrelated files, got %d", got)
	}
}

func TestFileWatcher_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	w, err := NewFileWatcher(filepath.Join(dir, "config.yaml"), 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNewFileWatcher_MissingDirectory(t *testing.T) {
	if _, err := NewFileWatcher(filepath.Join(t.TempDir(), "missing", "config.yaml"), 0, nil); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
