package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/smarttodo/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/smarttodo/pkg/infrastructure/api"
)

const shutdownTimeout = 10 * time.Second

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the task, category, context and suggestion endpoints under /api/v1.

With --watch the AI settings are reloaded whenever .smarttodo/config.yaml
changes. Requests already in flight finish with the previous settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withApp(cmd, func(app *wiring.App) error {
			addr := serveAddr
			if addr == "" {
				addr = app.Config.Server.Addr
			}

			srv := api.NewServer(api.Services{
				Tasks:      app.Tasks,
				Categories: app.Categories,
				Contexts:   app.Contexts,
			}, api.Options{
				Addr:           addr,
				AllowedOrigins: app.Config.Server.AllowedOrigins,
				Logger:         app.Logger,
			})

			if serveWatch {
				go func() {
					if err := wiring.WatchConfig(ctx, app.Root, app.Suggester, app.Logger); err != nil {
						app.Logger.Error("config watcher stopped", "error", err)
					}
				}()
			}

			errCh := make(chan error, 1)
			go func() {
				app.Logger.Info("listening", "addr", addr, "storage", app.Config.Storage.Driver)
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			app.Logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to server.addr from config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Reload AI settings when the config file changes")
	RootCmd.AddCommand(serveCmd)
}
