// Package api serves the task store and suggestion pipeline over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/felixgeelhaar/smarttodo/pkg/application"
)

// Prefix is the path under which every endpoint is mounted.
const Prefix = "/api/v1"

// Services are the application services behind the API.
type Services struct {
	Tasks      *application.TaskService
	Categories *application.CategoryService
	Contexts   *application.ContextService
}

// Options configure the server.
type Options struct {
	Addr           string
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Server is the JSON HTTP API server.
type Server struct {
	addr     string
	services Services
	origins  []string
	logger   *slog.Logger
	now      func() time.Time
	server   *http.Server
}

// NewServer creates a new API server.
func NewServer(services Services, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s := &Server{
		addr:     opts.Addr,
		services: services,
		origins:  origins,
		logger:   logger,
		now:      time.Now,
	}
	s.server = &http.Server{
		Addr:        s.addr,
		Handler:     s.Handler(),
		ReadTimeout: 15 * time.Second,
		// Suggestions may wait on two model calls.
		WriteTimeout: 90 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped with CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+Prefix+"/health", s.handleHealth)

	mux.HandleFunc("GET "+Prefix+"/tasks", s.handleListTasks)
	mux.HandleFunc("POST "+Prefix+"/tasks", s.handleCreateTask)
	mux.HandleFunc("GET "+Prefix+"/tasks/statistics", s.handleTaskStatistics)
	mux.HandleFunc("POST "+Prefix+"/tasks/ai-suggestions", s.handleSuggest)
	mux.HandleFunc("GET "+Prefix+"/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("PUT "+Prefix+"/tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE "+Prefix+"/tasks/{id}", s.handleDeleteTask)
	mux.HandleFunc("POST "+Prefix+"/tasks/{id}/apply-suggestion", s.handleApplySuggestion)

	mux.HandleFunc("GET "+Prefix+"/categories", s.handleListCategories)
	mux.HandleFunc("POST "+Prefix+"/categories", s.handleCreateCategory)
	mux.HandleFunc("GET "+Prefix+"/categories/popular", s.handlePopularCategories)
	mux.HandleFunc("GET "+Prefix+"/categories/statistics", s.handleCategoryStatistics)
	mux.HandleFunc("GET "+Prefix+"/categories/{id}", s.handleGetCategory)
	mux.HandleFunc("PUT "+Prefix+"/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE "+Prefix+"/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET "+Prefix+"/context-entries", s.handleListContextEntries)
	mux.HandleFunc("POST "+Prefix+"/context-entries", s.handleCreateContextEntry)
	mux.HandleFunc("POST "+Prefix+"/context-entries/analyze", s.handleAnalyze)
	mux.HandleFunc("GET "+Prefix+"/context-entries/{id}", s.handleGetContextEntry)
	mux.HandleFunc("PUT "+Prefix+"/context-entries/{id}", s.handleUpdateContextEntry)
	mux.HandleFunc("DELETE "+Prefix+"/context-entries/{id}", s.handleDeleteContextEntry)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{SuggestionSourceHeader},
		AllowCredentials: true,
	})
	return c.Handler(mux)
}

// Start starts the API server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("api server starting", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
