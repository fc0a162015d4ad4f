package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/smarttodo/internal/infrastructure/config"
	"github.com/felixgeelhaar/smarttodo/internal/infrastructure/wiring"
)

// loadApp reads the workspace configuration and assembles the services.
// Logs go to stderr so command output stays clean.
func loadApp(ctx context.Context) (*wiring.App, error) {
	cfg, err := config.Load(workspaceRoot)
	if err != nil {
		return nil, NewCLIError("failed to load configuration", "Run 'smarttodo config show' to inspect the effective settings", err)
	}
	logger, err := config.NewLogger(cfg.Logging, os.Stderr)
	if err != nil {
		return nil, err
	}
	app, err := wiring.Build(ctx, workspaceRoot, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	return app, nil
}

// withApp runs fn with the assembled services and closes them afterwards.
func withApp(cmd *cobra.Command, fn func(*wiring.App) error) error {
	app, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	return MapError(fn(app))
}
