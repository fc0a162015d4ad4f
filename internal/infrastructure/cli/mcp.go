package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	inframcp "github.com/felixgeelhaar/smarttodo/internal/infrastructure/mcp"
	"github.com/felixgeelhaar/smarttodo/internal/infrastructure/wiring"
)

var (
	mcpTransport string
	mcpAddr      string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the smarttodo MCP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withApp(cmd, func(app *wiring.App) error {
			inframcp.Version, inframcp.BuildCommit, inframcp.BuildDate = Version, Commit, Date
			server := inframcp.NewServer(inframcp.Services{
				Tasks:      app.Tasks,
				Categories: app.Categories,
				Contexts:   app.Contexts,
			})
			switch strings.ToLower(mcpTransport) {
			case "stdio", "":
				return server.ServeStdio(ctx)
			case "http":
				return server.ServeHTTP(ctx, mcpAddr)
			case "ws", "websocket":
				return server.ServeWebSocket(ctx, mcpAddr)
			default:
				return NewCLIError(fmt.Sprintf("unsupported transport: %s", mcpTransport), "Use stdio, http or ws", nil)
			}
		})
	},
}

func init() {
	mcpCmd.Flags().StringVar(&mcpTransport, "transport", "stdio", "Transport to use (stdio, http, ws)")
	mcpCmd.Flags().StringVar(&mcpAddr, "addr", ":8080", "Address for http/ws transports")
	RootCmd.AddCommand(mcpCmd)
}
