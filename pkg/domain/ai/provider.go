// Package ai defines the contract between the suggestion pipeline and text
// completion backends.
package ai

import (
	"context"
	"errors"
	"fmt"
)

// CompletionRequest represents a prompt to the AI.
type CompletionRequest struct {
	Prompt string
	System string
	// Model overrides the provider's default model when set, so one provider
	// can serve several model identifiers.
	Model string
	// Temperature and TopP are optional; nil leaves the backend's default
	// while a pointer to zero asks for greedy sampling.
	Temperature *float32
	TopP        *float32
	MaxTokens   int
}

// Float32 returns a pointer to v for the optional sampling fields.
func Float32(v float32) *float32 {
	return &v
}

// ResolveModel returns the requested model or fallback when none was set.
func (r CompletionRequest) ResolveModel(fallback string) string {
	if r.Model != "" {
		return r.Model
	}
	return fallback
}

// CompletionResponse represents the AI's answer.
type CompletionResponse struct {
	Text  string
	Usage TokenUsage
	Model string
}

// TokenUsage tracks costs.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// Total returns input plus output tokens.
func (u TokenUsage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// Provider is the interface for all AI backends.
type Provider interface {
	ID() string
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

var (
	// ErrMissingAPIKey indicates a hosted provider without credentials.
	ErrMissingAPIKey = errors.New("api key not provided")

	// ErrEmptyResponse indicates a backend answered without any content.
	ErrEmptyResponse = errors.New("empty completion response")
)

// StatusError reports a non-200 answer from a backend.
type StatusError struct {
	Provider   string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API returned status: %s", e.Provider, e.Status)
}
