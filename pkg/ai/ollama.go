package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/smarttodo/pkg/domain/ai"
)

const ollamaURL = "http://localhost:11434/api/generate"

// OllamaProvider talks to a local Ollama server.
type OllamaProvider struct {
	Model      string
	baseURL    string
	httpClient *http.Client
}

func NewOllamaProvider(model string) *OllamaProvider {
	return NewOllamaProviderWithClient(model, "", nil)
}

// NewOllamaProviderWithClient creates a provider with custom HTTP client and base URL (for testing).
func NewOllamaProviderWithClient(model, baseURL string, client *http.Client) *OllamaProvider {
	if model == "" {
		model = defaultModels["ollama"].primary
	}
	if baseURL == "" {
		baseURL = ollamaURL
	}
	return &OllamaProvider{Model: model, baseURL: baseURL, httpClient: client}
}

func (p *OllamaProvider) ID() string {
	return "ollama:" + p.Model
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options *ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature *float32 `json:"temperature,omitempty"`
	TopP        *float32 `json:"top_p,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

var safeModelName = regexp.MustCompile(`^[a-zA-Z0-9:._-]+$`)

func (p *OllamaProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	model := req.ResolveModel(p.Model)
	if !safeModelName.MatchString(model) {
		return nil, fmt.Errorf("invalid model name: %s", model)
	}

	if req.Temperature != nil && *req.Temperature < 0 {
		return nil, fmt.Errorf("invalid temperature")
	}

	format := ""
	if strings.Contains(req.Prompt, "JSON") || strings.Contains(req.System, "JSON") {
		format = "json"
	}

	payload := ollamaRequest{
		Model:  model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: false,
		Format: format,
	}
	if req.Temperature != nil || req.TopP != nil || req.MaxTokens > 0 {
		payload.Options = &ollamaOptions{
			Temperature: req.Temperature,
			TopP:        req.TopP,
			NumPredict:  req.MaxTokens,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	hReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	hReq.Header.Set("Content-Type", "application/json")

	client := p.httpClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(hReq)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ollama API: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on read body

	if resp.StatusCode != http.StatusOK {
		return nil, &ai.StatusError{Provider: "Ollama", StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var oResp ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&oResp); err != nil {
		return nil, fmt.Errorf("failed to decode ollama response: %w", err)
	}

	text := strings.TrimSpace(oResp.Response)
	if text == "" {
		return nil, fmt.Errorf("ollama: %w", ai.ErrEmptyResponse)
	}

	usage := ai.TokenUsage{InputTokens: oResp.PromptEvalCount, OutputTokens: oResp.EvalCount}
	if usage.Total() == 0 {
		usage = ai.TokenUsage{InputTokens: len(req.Prompt) / 4, OutputTokens: len(oResp.Response) / 4}
	}

	return &ai.CompletionResponse{
		Text:  text,
		Model: model,
		Usage: usage,
	}, nil
}
