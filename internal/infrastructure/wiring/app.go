package wiring

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/smarttodo/internal/infrastructure/config"
	"github.com/felixgeelhaar/smarttodo/pkg/application"
	"github.com/felixgeelhaar/smarttodo/pkg/domain/task"
	"github.com/felixgeelhaar/smarttodo/pkg/storage"
)

// OpenRepository opens the configured record store and prepares it for use.
func OpenRepository(ctx context.Context, root string, cfg config.StorageConfig) (task.Repository, error) {
	switch cfg.Driver {
	case "", config.DriverFilesystem:
		repo := storage.NewFilesystemRepository(root)
		if err := repo.Initialize(); err != nil {
			return nil, err
		}
		return repo, nil
	case config.DriverPostgres:
		repo, err := storage.NewPostgresRepository(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := repo.Migrate(ctx); err != nil {
			_ = repo.Close()
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}

// App holds the assembled services.
type App struct {
	Root       string
	Config     config.Config
	Logger     *slog.Logger
	Repo       task.Repository
	Suggester  *ReloadableSuggester
	Tasks      *application.TaskService
	Categories *application.CategoryService
	Contexts   *application.ContextService
}

// Build wires storage, the suggestion pipeline and the application services.
func Build(ctx context.Context, root string, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	svc, err := NewSuggestionService(cfg.AI, logger)
	if err != nil {
		return nil, err
	}
	repo, err := OpenRepository(ctx, root, cfg.Storage)
	if err != nil {
		return nil, err
	}

	suggester := NewReloadableSuggester(svc)
	return &App{
		Root:       root,
		Config:     cfg,
		Logger:     logger,
		Repo:       repo,
		Suggester:  suggester,
		Tasks:      application.NewTaskService(repo, suggester, logger),
		Categories: application.NewCategoryService(repo, logger),
		Contexts:   application.NewContextService(repo, logger),
	}, nil
}

// Close releases the record store.
func (a *App) Close() error {
	return a.Repo.Close()
}
