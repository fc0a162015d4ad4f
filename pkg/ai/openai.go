package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/felixgeelhaar/smarttodo/pkg/domain/ai"
)

const (
	openAIURL = "https://api.openai.com/v1/chat/completions"
	groqURL   = "https://api.groq.com/openai/v1/chat/completions"

	// DefaultGroqModel and DefaultGroqFallbackModel are the stock Groq pairing.
	DefaultGroqModel         = "llama-3.1-70b-versatile"
	DefaultGroqFallbackModel = "llama-3.1-8b-instant"
)

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint.
// Groq is served through the same wire format.
type OpenAIProvider struct {
	Name       string
	Model      string
	APIKey     string
	baseURL    string
	httpClient *http.Client
}

func NewOpenAIProvider(model string, apiKey string) *OpenAIProvider {
	return NewOpenAIProviderWithClient(model, apiKey, "", nil)
}

// NewOpenAIProviderWithClient creates a provider with custom HTTP client and base URL (for testing).
func NewOpenAIProviderWithClient(model, apiKey, baseURL string, client *http.Client) *OpenAIProvider {
	if model == "" {
		model = defaultModels["openai"].primary
	}
	if baseURL == "" {
		baseURL = openAIURL
	}
	return &OpenAIProvider{
		Name:       "openai",
		Model:      model,
		APIKey:     apiKey,
		baseURL:    baseURL,
		httpClient: client,
	}
}

// NewGroqProvider returns an OpenAI-compatible provider pointed at Groq.
func NewGroqProvider(model string, apiKey string) *OpenAIProvider {
	return NewGroqProviderWithClient(model, apiKey, "", nil)
}

// NewGroqProviderWithClient creates a Groq provider with custom HTTP client and base URL (for testing).
func NewGroqProviderWithClient(model, apiKey, baseURL string, client *http.Client) *OpenAIProvider {
	if model == "" {
		model = DefaultGroqModel
	}
	if baseURL == "" {
		baseURL = groqURL
	}
	return &OpenAIProvider{
		Name:       "groq",
		Model:      model,
		APIKey:     apiKey,
		baseURL:    baseURL,
		httpClient: client,
	}
}

func (p *OpenAIProvider) ID() string {
	return p.Name + ":" + p.Model
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature *float32        `json:"temperature,omitempty"`
	TopP        *float32        `json:"top_p,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Stream      bool            `json:"stream"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (p *OpenAIProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", p.Name, ai.ErrMissingAPIKey)
	}

	messages := []openAIMessage{}
	if req.System != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, openAIMessage{Role: "user", Content: req.Prompt})

	model := req.ResolveModel(p.Model)
	payload := openAIRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	}
	payload.Temperature = req.Temperature
	payload.TopP = req.TopP

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)

	client := p.httpClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on read body

	if resp.StatusCode != http.StatusOK {
		return nil, &ai.StatusError{Provider: p.Name, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var openAIResp openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&openAIResp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", p.Name, err)
	}

	if len(openAIResp.Choices) == 0 || openAIResp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("%s: %w", p.Name, ai.ErrEmptyResponse)
	}

	return &ai.CompletionResponse{
		Text:  openAIResp.Choices[0].Message.Content,
		Model: model,
		Usage: ai.TokenUsage{
			InputTokens:  openAIResp.Usage.PromptTokens,
			OutputTokens: openAIResp.Usage.CompletionTokens,
		},
	}, nil
}
