package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/smarttodo/pkg/domain/ai"
	"github.com/felixgeelhaar/smarttodo/pkg/domain/suggestion"
	"github.com/felixgeelhaar/statekit"
)

// Pipeline states. The machine always starts at stagePrimary.
const (
	stagePrimary   = "primary_model"
	stageFallback  = "fallback_model"
	stageHeuristic = "heuristic"
	stageCompleted = "completed"
)

const (
	eventAccept = "accept"
	eventReject = "reject"
	eventSkip   = "skip"
	eventReset  = "reset"
)

// Generation settings sent with every inference call.
const (
	DefaultTemperature float32 = 0.3
	DefaultTopP        float32 = 0.9
	DefaultMaxTokens           = 1500
)

// maxPipelineSteps bounds the stage loop; a well-formed run takes at most three.
const maxPipelineSteps = 4

// ErrNoProvider is recorded as the attempt error when no backend is configured.
var ErrNoProvider = errors.New("no AI provider configured")

// SuggestionConfig selects models and sampling for the inference attempts.
// Temperature and TopP are pointers so that zero is a valid setting; nil
// picks the package default.
type SuggestionConfig struct {
	PrimaryModel  string
	FallbackModel string
	Temperature   *float32
	TopP          *float32
	MaxTokens     int
}

// DefaultSuggestionConfig returns the stock Groq model pairing.
func DefaultSuggestionConfig() SuggestionConfig {
	return SuggestionConfig{
		PrimaryModel:  "llama-3.1-70b-versatile",
		FallbackModel: "llama-3.1-8b-instant",
		Temperature:   ai.Float32(DefaultTemperature),
		TopP:          ai.Float32(DefaultTopP),
		MaxTokens:     DefaultMaxTokens,
	}
}

// Attempt records the outcome of one pipeline stage.
type Attempt struct {
	Stage      string
	Model      string
	Suggestion suggestion.Suggestion
	Err        error
	Duration   time.Duration
}

// OK reports whether the stage produced a usable suggestion.
func (a Attempt) OK() bool {
	return a.Err == nil
}

// SuggestionResult is a suggestion together with how it was produced.
type SuggestionResult struct {
	Suggestion suggestion.Suggestion
	Source     suggestion.Source
	Attempts   []Attempt
}

// SuggestionService produces task suggestions from a primary model, a
// fallback model and finally the keyword heuristic. It holds no per-call
// state and is safe for concurrent use.
type SuggestionService struct {
	provider  ai.Provider
	cfg       SuggestionConfig
	validator *suggestion.Validator
	heuristic *suggestion.Heuristic
	logger    *slog.Logger
}

// SuggestionOption customizes a SuggestionService.
type SuggestionOption func(*SuggestionService)

// WithClock fixes the time source used for deadlines.
func WithClock(now func() time.Time) SuggestionOption {
	return func(s *SuggestionService) {
		s.validator = &suggestion.Validator{Now: now}
		s.heuristic = &suggestion.Heuristic{Now: now}
	}
}

// WithLogger sets the logger. A nil logger uses slog.Default().
func WithLogger(logger *slog.Logger) SuggestionOption {
	return func(s *SuggestionService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSuggestionService creates the pipeline. A nil provider sends every call
// straight to the heuristic.
func NewSuggestionService(provider ai.Provider, cfg SuggestionConfig, opts ...SuggestionOption) *SuggestionService {
	defaults := DefaultSuggestionConfig()
	if cfg.PrimaryModel == "" {
		cfg.PrimaryModel = defaults.PrimaryModel
	}
	if cfg.FallbackModel == "" {
		cfg.FallbackModel = defaults.FallbackModel
	}
	if cfg.Temperature == nil {
		cfg.Temperature = defaults.Temperature
	} else {
		cfg.Temperature = ai.Float32(*cfg.Temperature)
	}
	if cfg.TopP == nil {
		cfg.TopP = defaults.TopP
	} else {
		cfg.TopP = ai.Float32(*cfg.TopP)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}

	s := &SuggestionService{
		provider:  provider,
		cfg:       cfg,
		validator: suggestion.NewValidator(),
		heuristic: suggestion.NewHeuristic(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the effective configuration.
func (s *SuggestionService) Config() SuggestionConfig {
	cfg := s.cfg
	cfg.Temperature = ai.Float32(*s.cfg.Temperature)
	cfg.TopP = ai.Float32(*s.cfg.TopP)
	return cfg
}

// HasProvider reports whether an inference backend is configured.
func (s *SuggestionService) HasProvider() bool {
	return s.provider != nil
}

// GenerateSuggestions always returns a bounded suggestion.
func (s *SuggestionService) GenerateSuggestions(ctx context.Context, req suggestion.Request) suggestion.Suggestion {
	return s.Generate(ctx, req).Suggestion
}

// Generate runs the pipeline and reports every attempt made.
func (s *SuggestionService) Generate(ctx context.Context, req suggestion.Request) SuggestionResult {
	machine, err := newPipeline()
	if err != nil {
		// The machine definition is static; failing to build it is a programming error.
		s.logger.Error("suggestion pipeline unavailable", "error", err)
		return s.heuristicResult(req, nil)
	}

	prompt := suggestion.BuildPrompt(req)
	var attempts []Attempt

	for step := 0; step < maxPipelineSteps; step++ {
		switch machine.current() {
		case stagePrimary:
			if s.provider == nil {
				attempts = append(attempts, Attempt{Stage: stagePrimary, Err: ErrNoProvider})
				machine.send(eventSkip)
				continue
			}
			attempt := s.infer(ctx, stagePrimary, s.cfg.PrimaryModel, prompt)
			attempts = append(attempts, attempt)
			if attempt.OK() {
				machine.send(eventAccept)
				return s.finish(attempt, suggestion.SourcePrimary, attempts)
			}
			machine.send(eventReject)

		case stageFallback:
			attempt := s.infer(ctx, stageFallback, s.cfg.FallbackModel, prompt)
			attempts = append(attempts, attempt)
			if attempt.OK() {
				machine.send(eventAccept)
				return s.finish(attempt, suggestion.SourceFallback, attempts)
			}
			machine.send(eventReject)

		case stageHeuristic:
			machine.send(eventAccept)
			return s.heuristicResult(req, attempts)

		default:
			s.logger.Error("suggestion pipeline in unexpected state", "state", machine.current())
			return s.heuristicResult(req, attempts)
		}
	}

	s.logger.Error("suggestion pipeline did not settle", "state", machine.current())
	return s.heuristicResult(req, attempts)
}

func (s *SuggestionService) infer(ctx context.Context, stage, model, prompt string) Attempt {
	start := time.Now()
	attempt := Attempt{Stage: stage, Model: model}

	resp, err := s.provider.Complete(ctx, ai.CompletionRequest{
		Prompt:      prompt,
		System:      suggestion.SystemInstruction,
		Model:       model,
		Temperature: s.cfg.Temperature,
		TopP:        s.cfg.TopP,
		MaxTokens:   s.cfg.MaxTokens,
	})
	switch {
	case err != nil:
		attempt.Err = fmt.Errorf("%s: %w", s.provider.ID(), err)
	case resp == nil || resp.Text == "":
		attempt.Err = ai.ErrEmptyResponse
	default:
		attempt.Suggestion, attempt.Err = s.validator.ParseResponse(resp.Text)
	}
	attempt.Duration = time.Since(start)

	if attempt.Err != nil {
		s.logger.Warn("suggestion attempt failed",
			"stage", stage,
			"model", model,
			"duration", attempt.Duration,
			"error", attempt.Err,
		)
	}
	return attempt
}

func (s *SuggestionService) finish(attempt Attempt, source suggestion.Source, attempts []Attempt) SuggestionResult {
	s.logger.Info("suggestion generated", "source", source, "model", attempt.Model, "attempts", len(attempts))
	return SuggestionResult{Suggestion: attempt.Suggestion, Source: source, Attempts: attempts}
}

func (s *SuggestionService) heuristicResult(req suggestion.Request, attempts []Attempt) SuggestionResult {
	result := s.heuristic.Generate(req)
	attempts = append(attempts, Attempt{Stage: stageHeuristic, Suggestion: result})
	s.logger.Info("suggestion generated", "source", suggestion.SourceHeuristic, "attempts", len(attempts))
	return SuggestionResult{Suggestion: result, Source: suggestion.SourceHeuristic, Attempts: attempts}
}

type pipelineContext struct{}

// pipeline is a single-use interpreter over the suggestion state machine.
type pipeline struct {
	interpreter *statekit.Interpreter[pipelineContext]
}

func newPipeline() (*pipeline, error) {
	builder := statekit.NewMachine[pipelineContext]("suggestion-pipeline").
		WithInitial(statekit.StateID(stagePrimary)).
		WithContext(pipelineContext{})

	builder.State(stagePrimary).
		On(eventAccept).Target(stageCompleted).
		On(eventReject).Target(stageFallback).
		On(eventSkip).Target(stageHeuristic).
		Done()

	builder.State(stageFallback).
		On(eventAccept).Target(stageCompleted).
		On(eventReject).Target(stageHeuristic).
		Done()

	builder.State(stageHeuristic).
		On(eventAccept).Target(stageCompleted).
		Done()

	builder.State(stageCompleted).
		On(eventReset).Target(stagePrimary).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build suggestion pipeline: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()
	return &pipeline{interpreter: interpreter}, nil
}

func (p *pipeline) send(event string) {
	p.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
}

func (p *pipeline) current() string {
	return string(p.interpreter.State().Value)
}
