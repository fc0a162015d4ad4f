// Package config loads smarttodo settings from .smarttodo/config.yaml and
// the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	aiprovider "github.com/felixgeelhaar/smarttodo/pkg/ai"
	"github.com/felixgeelhaar/smarttodo/pkg/storage"
)

// FileName is the config file inside the data directory.
const FileName = "config.yaml"

// Storage drivers.
const (
	DriverFilesystem = "filesystem"
	DriverPostgres   = "postgres"
)

// Environment variables that override the file.
const (
	EnvProvider      = "SMARTTODO_AI_PROVIDER"
	EnvModel         = "SMARTTODO_AI_MODEL"
	EnvFallbackModel = "SMARTTODO_AI_FALLBACK_MODEL"
	EnvTimeout       = "SMARTTODO_AI_TIMEOUT"
	EnvDatabaseURL   = "DATABASE_URL"
	EnvAddr          = "SMARTTODO_ADDR"
	EnvLogLevel      = "SMARTTODO_LOG_LEVEL"
)

// Config is the full application configuration.
type Config struct {
	AI      AIConfig      `yaml:"ai"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// AIConfig selects the inference backend and models.
type AIConfig struct {
	Provider      string        `yaml:"provider"`
	Model         string        `yaml:"model"`
	FallbackModel string        `yaml:"fallback_model"`
	BaseURL       string        `yaml:"base_url,omitempty"`
	Timeout       time.Duration `yaml:"timeout"`
	Temperature   float32       `yaml:"temperature"`
	TopP          float32       `yaml:"top_p"`
	MaxTokens     int           `yaml:"max_tokens"`

	// APIKey is only ever read from the environment.
	APIKey string `yaml:"-"`
}

// StorageConfig selects the record store.
type StorageConfig struct {
	Driver      string `yaml:"driver"`
	DatabaseURL string `yaml:"database_url,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		AI: AIConfig{
			Provider:      "groq",
			Model:         aiprovider.DefaultGroqModel,
			FallbackModel: aiprovider.DefaultGroqFallbackModel,
			Timeout:       aiprovider.DefaultAttemptTimeout,
			Temperature:   0.3,
			TopP:          0.9,
			MaxTokens:     1500,
		},
		Storage: StorageConfig{Driver: DriverFilesystem},
		Server: ServerConfig{
			Addr:           ":8000",
			AllowedOrigins: []string{"*"},
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Path returns the config file location for a workspace root.
func Path(root string) (string, error) {
	return storage.NewFilesystemRepository(root).ResolvePath(FileName)
}

// Load builds the configuration for root: defaults, then the config file
// when present, then the environment. Models left unset by both the file and
// the environment follow the selected provider.
func Load(root string) (Config, error) {
	cfg := Default()
	cfg.AI.Model, cfg.AI.FallbackModel = "", ""

	path, err := Path(root)
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path resolved via ResolvePath
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg to the workspace config file.
func Save(root string, cfg Config) error {
	repo := storage.NewFilesystemRepository(root)
	if err := repo.Initialize(); err != nil {
		return err
	}
	path, err := repo.ResolvePath(FileName)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// ApplyEnv overlays environment variables read through getenv. Switching
// provider replaces models that still carry the previous provider's defaults.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvProvider); v != "" && !strings.EqualFold(v, c.AI.Provider) {
		c.AI.dropDefaultModels()
		c.AI.Provider = v
	}
	if v := getenv(EnvModel); v != "" {
		c.AI.Model = v
	}
	if v := getenv(EnvFallbackModel); v != "" {
		c.AI.FallbackModel = v
	}
	if v := getenv(EnvTimeout); v != "" {
		d, err := parseTimeout(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTimeout, err)
		}
		c.AI.Timeout = d
	}
	c.AI.fillDefaultModels()
	if key := aiprovider.APIKeyEnv(c.AI.Provider); key != "" {
		c.AI.APIKey = getenv(key)
	}
	if v := getenv(EnvDatabaseURL); v != "" {
		c.Storage.DatabaseURL = v
		if c.Storage.Driver == "" || c.Storage.Driver == DriverFilesystem {
			c.Storage.Driver = DriverPostgres
		}
	}
	if v := getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// dropDefaultModels clears models equal to the current provider's defaults.
func (a *AIConfig) dropDefaultModels() {
	primary, fallback := aiprovider.DefaultModels(a.Provider)
	if a.Model == primary {
		a.Model = ""
	}
	if a.FallbackModel == fallback {
		a.FallbackModel = ""
	}
}

// fillDefaultModels sets unset models from the provider's defaults.
func (a *AIConfig) fillDefaultModels() {
	primary, fallback := aiprovider.DefaultModels(a.Provider)
	if a.Model == "" {
		a.Model = primary
	}
	if a.FallbackModel == "" {
		a.FallbackModel = fallback
	}
}

// parseTimeout accepts Go durations ("45s") or plain seconds ("45").
func parseTimeout(v string) (time.Duration, error) {
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0, fmt.Errorf("expected a duration such as 30s, got %q", v)
	}
	return time.Duration(secs) * time.Second, nil
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("ai.timeout must be positive")
	}
	switch c.Storage.Driver {
	case DriverFilesystem:
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("storage.database_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver: %s", c.Storage.Driver)
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format: %s", c.Logging.Format)
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.AI.APIKey != "" {
		c.AI.APIKey = "********"
	}
	if c.Storage.DatabaseURL != "" {
		c.Storage.DatabaseURL = redactURL(c.Storage.DatabaseURL)
	}
	return c
}

func redactURL(raw string) string {
	at := strings.LastIndex(raw, "@")
	scheme := strings.Index(raw, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return raw
	}
	return raw[:scheme+3] + "********" + raw[at:]
}
