package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/chunkdoc/chunkdoc/pkg/types"
)

// Provider configuration
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderStatic    = "static"

	// Default models
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
	DefaultOpenAIModel    = "gpt-4o-mini"

	// Environment variables
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"

	anthropicEndpoint = "https://api.anthropic.com/v1/messages"
	anthropicVersion  = "2023-06-01"
	openAIEndpoint    = "https://api.openai.com/v1/chat/completions"

	// Per-call time budget. The chunk size ceiling upstream keeps single
	// calls inside this window.
	requestTimeout = 120 * time.Second

	maxOutputTokens = 4096

	// Published per-million-token rates for the default models; cost on
	// other models is an estimate at these rates.
	anthropicInputRate  = 3.00
	anthropicOutputRate = 15.00
	openAIInputRate     = 0.15
	openAIOutputRate    = 0.60
)

// tokenCost estimates the USD cost of a call from its token usage.
func tokenCost(inputTokens, outputTokens int, inputRate, outputRate float64) float64 {
	return float64(inputTokens)*inputRate/1e6 + float64(outputTokens)*outputRate/1e6
}

// AnthropicProvider implements Generator using the Anthropic messages API.
type AnthropicProvider struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewAnthropicProvider creates an Anthropic-backed generator.
func NewAnthropicProvider(apiKey, model string) (*AnthropicProvider, error) {
	if apiKey == "" {
		apiKey = os.Getenv(EnvAnthropicAPIKey)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvAnthropicAPIKey)
	}
	if model == "" {
		model = DefaultAnthropicModel
	}

	return &AnthropicProvider{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}, nil
}

func (a *AnthropicProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	config := DefaultRetryConfig()
	result, err := retryWithBackoff(ctx, config, func() (*Result, error) {
		return a.callAPI(ctx, BuildPrompt(req))
	})
	if err != nil {
		return nil, classify(err)
	}
	return result, nil
}

func (a *AnthropicProvider) callAPI(ctx context.Context, prompt string) (*Result, error) {
	reqBody := map[string]interface{}{
		"model":      a.model,
		"max_tokens": maxOutputTokens,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, Permanent(fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", anthropicEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, Permanent(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, statusError(resp.StatusCode, bodyBytes)
	}

	var apiResp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Model string `json:"model"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var artifact string
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			artifact += block.Text
		}
	}
	if artifact == "" {
		return nil, fmt.Errorf("empty completion")
	}

	return &Result{
		Artifact: artifact,
		Model:    apiResp.Model,
		Tokens:   apiResp.Usage.InputTokens + apiResp.Usage.OutputTokens,
		Cost: tokenCost(apiResp.Usage.InputTokens, apiResp.Usage.OutputTokens,
			anthropicInputRate, anthropicOutputRate),
	}, nil
}

func (a *AnthropicProvider) Provider() string { return ProviderAnthropic }
func (a *AnthropicProvider) Model() string    { return a.model }

func (a *AnthropicProvider) Close() error {
	a.httpClient.CloseIdleConnections()
	return nil
}

// OpenAIProvider implements Generator against an OpenAI-compatible
// chat-completions endpoint.
type OpenAIProvider struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIProvider creates an OpenAI-backed generator.
func NewOpenAIProvider(apiKey, model string) (*OpenAIProvider, error) {
	if apiKey == "" {
		apiKey = os.Getenv(EnvOpenAIAPIKey)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvOpenAIAPIKey)
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAIProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: openAIEndpoint,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}, nil
}

func (o *OpenAIProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	config := DefaultRetryConfig()
	result, err := retryWithBackoff(ctx, config, func() (*Result, error) {
		return o.callAPI(ctx, BuildPrompt(req))
	})
	if err != nil {
		return nil, classify(err)
	}
	return result, nil
}

func (o *OpenAIProvider) callAPI(ctx context.Context, prompt string) (*Result, error) {
	reqBody := map[string]interface{}{
		"model": o.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, Permanent(fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, Permanent(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, statusError(resp.StatusCode, bodyBytes)
	}

	var apiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Model string `json:"model"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(apiResp.Choices) == 0 || apiResp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("empty completion")
	}

	return &Result{
		Artifact: apiResp.Choices[0].Message.Content,
		Model:    apiResp.Model,
		Tokens:   apiResp.Usage.TotalTokens,
		Cost: tokenCost(apiResp.Usage.PromptTokens, apiResp.Usage.CompletionTokens,
			openAIInputRate, openAIOutputRate),
	}, nil
}

func (o *OpenAIProvider) Provider() string { return ProviderOpenAI }
func (o *OpenAIProvider) Model() string    { return o.model }

func (o *OpenAIProvider) Close() error {
	o.httpClient.CloseIdleConnections()
	return nil
}

// statusError maps an HTTP failure to a retryable or permanent error.
// Rate limits, request timeouts, and server faults are worth retrying;
// other client faults are not.
func statusError(status int, body []byte) error {
	err := fmt.Errorf("api error %d: %s", status, string(body))
	switch {
	case status == http.StatusRequestTimeout,
		status == http.StatusTooManyRequests,
		status >= 500:
		return err
	default:
		return Permanent(err)
	}
}

// classify maps a terminal provider error onto the pipeline's taxonomy so
// the orchestrator can mark the chunk's slot.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", types.ErrGenerationTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", types.ErrGenerationFailed, err)
}
