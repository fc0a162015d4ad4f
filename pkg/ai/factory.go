package ai

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/felixgeelhaar/smarttodo/pkg/domain/ai"
)

// ErrNotConfigured indicates a provider that cannot be used as configured,
// usually because credentials are missing.
var ErrNotConfigured = errors.New("AI provider not configured")

// ProviderConfig selects and configures a backend.
type ProviderConfig struct {
	Name    string
	Model   string
	APIKey  string
	BaseURL string
	Client  *http.Client
}

var apiKeyEnv = map[string]string{
	"groq":      "GROQ_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

type modelPair struct {
	primary  string
	fallback string
}

// defaultModels pairs each hosted model with a cheaper sibling from the same
// vendor for the fallback stage.
var defaultModels = map[string]modelPair{
	"groq":      {DefaultGroqModel, DefaultGroqFallbackModel},
	"openai":    {"gpt-4o", "gpt-4o-mini"},
	"anthropic": {"claude-3-5-sonnet-20240620", "claude-3-haiku-20240307"},
	"gemini":    {"gemini-1.5-pro", "gemini-1.5-flash"},
	"ollama":    {"llama3", "llama3"},
}

// DefaultModels returns the stock primary and fallback models for a
// provider. Unknown providers and "none" yield empty names.
func DefaultModels(providerName string) (primary, fallback string) {
	name := strings.ToLower(strings.TrimSpace(providerName))
	if name == "" {
		name = "groq"
	}
	pair := defaultModels[name]
	return pair.primary, pair.fallback
}

// APIKeyEnv returns the environment variable holding credentials for a
// provider, or "" for providers that need none.
func APIKeyEnv(providerName string) string {
	return apiKeyEnv[strings.ToLower(providerName)]
}

// APIKeyFromEnv looks up the provider's credentials in the environment.
func APIKeyFromEnv(providerName string) string {
	name := APIKeyEnv(providerName)
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

// NewProvider builds a backend from cfg, defaulting to Groq. Provider "none" returns a nil
// provider and no error. Hosted providers without an API key fail with
// ErrNotConfigured.
func NewProvider(cfg ProviderConfig) (ai.Provider, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Name))
	if name == "" {
		name = "groq"
	}
	if APIKeyEnv(name) != "" && cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %s requires %s", ErrNotConfigured, name, APIKeyEnv(name))
	}

	switch name {
	case "none", "disabled":
		return nil, nil
	case "groq":
		return NewGroqProviderWithClient(cfg.Model, cfg.APIKey, cfg.BaseURL, cfg.Client), nil
	case "openai":
		return NewOpenAIProviderWithClient(cfg.Model, cfg.APIKey, cfg.BaseURL, cfg.Client), nil
	case "anthropic":
		return NewAnthropicProviderWithClient(cfg.Model, cfg.APIKey, cfg.BaseURL, cfg.Client), nil
	case "gemini":
		return NewGeminiProviderWithClient(cfg.Model, cfg.APIKey, cfg.BaseURL, cfg.Client), nil
	case "ollama":
		return NewOllamaProviderWithClient(cfg.Model, cfg.BaseURL, cfg.Client), nil
	case "mock":
		return &MockProvider{Model: cfg.Model}, nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Name)
	}
}
