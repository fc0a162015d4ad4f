// Package mcp exposes smarttodo tasks, context and suggestions to MCP clients.
package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/smarttodo/pkg/application"
)

var (
	Version     = "dev"
	BuildCommit = "unknown"
	BuildDate   = "unknown"
)

// Services are the application services the tools call into.
type Services struct {
	Tasks      *application.TaskService
	Categories *application.CategoryService
	Contexts   *application.ContextService
}

type Server struct {
	mcpServer   *mcp.Server
	taskSvc     *application.TaskService
	categorySvc *application.CategoryService
	contextSvc  *application.ContextService
}

// mcpErr returns a user-friendly error for MCP clients.
// Internal details are omitted; only the friendly message is returned.
func mcpErr(friendly string) error {
	return fmt.Errorf("%s", friendly)
}

func NewServer(services Services) *Server {
	info := mcp.ServerInfo{
		Name:    "smarttodo",
		Version: Version,
	}

	s := &Server{
		mcpServer: mcp.NewServer(info,
			mcp.WithTitle("smarttodo MCP Server"),
			mcp.WithDescription("smarttodo manages tasks and captured context and suggests priorities, deadlines and descriptions."),
			mcp.WithBuildInfo(BuildCommit, BuildDate),
			mcp.WithInstructions("Capture context first, then ask for suggestions. Suggestions always succeed; check the source field to see whether a model or the keyword heuristic produced them."),
		),
		taskSvc:     services.Tasks,
		categorySvc: services.Categories,
		contextSvc:  services.Contexts,
	}

	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("smarttodo_suggest").
		Description("Suggest priority, deadline, category, tags and an enhanced description for a prospective task").
		Handler(s.handleSuggest)

	s.mcpServer.Tool("smarttodo_analyze_context").
		Description("Extract keywords, relevance, sentiment and insights from a piece of text without storing it").
		Handler(s.handleAnalyzeContext)

	s.mcpServer.Tool("smarttodo_add_context").
		Description("Store a context entry (email, meeting notes, document) for later suggestions").
		Handler(s.handleAddContext)

	s.mcpServer.Tool("smarttodo_list_context").
		Description("List stored context entries, newest first").
		Handler(s.handleListContext)

	s.mcpServer.Tool("smarttodo_create_task").
		Description("Create a task").
		Handler(s.handleCreateTask)

	s.mcpServer.Tool("smarttodo_list_tasks").
		Description("List tasks ordered by priority, optionally filtered by status, category or search text").
		Handler(s.handleListTasks)

	s.mcpServer.Tool("smarttodo_transition_task").
		Description("Move a task to pending, in_progress or completed").
		Handler(s.handleTransitionTask)

	s.mcpServer.Tool("smarttodo_apply_suggestion").
		Description("Generate a suggestion for a stored task and apply it").
		Handler(s.handleApplySuggestion)

	s.mcpServer.Tool("smarttodo_task_statistics").
		Description("Summarize task counts, overdue work and average priority").
		Handler(s.handleTaskStatistics)

	s.mcpServer.Tool("smarttodo_popular_categories").
		Description("List the most used active categories").
		Handler(s.handlePopularCategories)
}

func (s *Server) Start() error {
	return s.StartStdio()
}

func (s *Server) StartStdio() error {
	return s.ServeStdio(context.Background())
}

func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr, mcp.WithDefaultCORS())
}

func (s *Server) ServeWebSocket(ctx context.Context, addr string) error {
	return mcp.ServeWebSocket(ctx, s.mcpServer, addr)
}
