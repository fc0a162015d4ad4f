// Package wiring assembles providers, storage and services from configuration.
package wiring

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/felixgeelhaar/smarttodo/internal/infrastructure/config"
	infraai "github.com/felixgeelhaar/smarttodo/pkg/ai"
	"github.com/felixgeelhaar/smarttodo/pkg/application"
	domainai "github.com/felixgeelhaar/smarttodo/pkg/domain/ai"
)

// LoadAIProvider builds the configured backend bounded by the attempt
// timeout. A provider without credentials yields nil, which sends every
// suggestion to the heuristic.
func LoadAIProvider(cfg config.AIConfig, logger *slog.Logger) (domainai.Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	base, err := infraai.NewProvider(infraai.ProviderConfig{
		Name:    cfg.Provider,
		Model:   cfg.Model,
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		// The attempt timeout is enforced by the wrapper below.
		Client: &http.Client{},
	})
	if errors.Is(err, infraai.ErrNotConfigured) {
		logger.Warn("AI provider not configured, using keyword heuristic only", "provider", cfg.Provider, "error", err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if base == nil {
		logger.Info("AI provider disabled, using keyword heuristic only")
		return nil, nil
	}

	return infraai.NewTimeoutProvider(base, cfg.Timeout), nil
}

// NewSuggestionService builds the suggestion pipeline for cfg.
func NewSuggestionService(cfg config.AIConfig, logger *slog.Logger) (*application.SuggestionService, error) {
	provider, err := LoadAIProvider(cfg, logger)
	if err != nil {
		return nil, err
	}
	svc := application.NewSuggestionService(provider, application.SuggestionConfig{
		PrimaryModel:  cfg.Model,
		FallbackModel: cfg.FallbackModel,
		Temperature:   domainai.Float32(cfg.Temperature),
		TopP:          domainai.Float32(cfg.TopP),
		MaxTokens:     cfg.MaxTokens,
	}, application.WithLogger(logger))
	return svc, nil
}
