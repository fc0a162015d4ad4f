package wiring

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/felixgeelhaar/smarttodo/internal/infrastructure/config"
	"github.com/felixgeelhaar/smarttodo/internal/infrastructure/watch"
	"github.com/felixgeelhaar/smarttodo/pkg/application"
	"github.com/felixgeelhaar/smarttodo/pkg/domain/suggestion"
)

// ReloadableSuggester delegates to a suggestion service that can be replaced
// while requests are in flight. Calls already running finish on the service
// they started with.
type ReloadableSuggester struct {
	current atomic.Pointer[application.SuggestionService]
}

// NewReloadableSuggester starts with svc.
func NewReloadableSuggester(svc *application.SuggestionService) *ReloadableSuggester {
	r := &ReloadableSuggester{}
	r.current.Store(svc)
	return r
}

// Generate runs the current pipeline.
func (r *ReloadableSuggester) Generate(ctx context.Context, req suggestion.Request) application.SuggestionResult {
	return r.current.Load().Generate(ctx, req)
}

// Current returns the active service.
func (r *ReloadableSuggester) Current() *application.SuggestionService {
	return r.current.Load()
}

// Swap installs svc for subsequent calls.
func (r *ReloadableSuggester) Swap(svc *application.SuggestionService) {
	r.current.Store(svc)
}

// Reload reads the configuration for root again and swaps in a rebuilt
// pipeline. On error the running pipeline is kept.
func (r *ReloadableSuggester) Reload(root string, logger *slog.Logger) error {
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}
	svc, err := NewSuggestionService(cfg.AI, logger)
	if err != nil {
		return err
	}
	r.Swap(svc)
	return nil
}

// WatchConfig reloads the suggester whenever the config file for root
// changes. It blocks until ctx is cancelled.
func WatchConfig(ctx context.Context, root string, r *ReloadableSuggester, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	path, err := config.Path(root)
	if err != nil {
		return err
	}

	w, err := watch.NewFileWatcher(path, watch.DefaultDebounce, func(e watch.ChangeEvent) {
		if err := r.Reload(root, logger); err != nil {
			logger.Error("config reload failed, keeping previous settings", "path", e.Path, "error", err)
			return
		}
		cfg := r.Current().Config()
		logger.Info("config reloaded", "change", e.ChangeType, "model", cfg.PrimaryModel, "fallback_model", cfg.FallbackModel)
	})
	if err != nil {
		return err
	}
	logger.Info("watching config for changes", "path", path)
	return w.Run(ctx)
}
