package ai

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/smarttodo/pkg/domain/ai"
)

// MockResponse is a well-formed suggestion payload used when no text is set.
const MockResponse = `{
  "priority_score": 6,
  "suggested_deadline": null,
  "enhanced_description": "Mock suggestion generated without a model backend",
  "suggested_category": "General",
  "ai_suggested_tags": ["mock"],
  "reasoning": "Static response from the mock provider",
  "estimated_duration": "1-2 hours",
  "context_insights": []
}`

// MockProvider returns canned text. It is selected with provider "mock" and
// records the requests it receives.
type MockProvider struct {
	Model string
	Text  string
	Err   error

	mu       sync.Mutex
	requests []ai.CompletionRequest
}

func (p *MockProvider) ID() string {
	return "mock:" + p.Model
}

func (p *MockProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Err != nil {
		return nil, p.Err
	}
	text := p.Text
	if text == "" {
		text = MockResponse
	}
	return &ai.CompletionResponse{
		Text:  text,
		Model: req.ResolveModel(p.Model),
		Usage: ai.TokenUsage{InputTokens: len(req.Prompt) / 4, OutputTokens: len(text) / 4},
	}, nil
}

// Requests returns a copy of the requests seen so far.
func (p *MockProvider) Requests() []ai.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ai.CompletionRequest(nil), p.requests...)
}
