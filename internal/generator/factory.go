package generator

import (
	"fmt"
	"os"
	"strings"
)

// Config holds generator configuration.
type Config struct {
	Provider string
	APIKey   string
	Model    string
}

// NewFromEnv creates a generator based on environment variables.
// Priority:
//  1. CHUNKDOC_PROVIDER (anthropic, openai, static)
//  2. Check for API keys: ANTHROPIC_API_KEY, OPENAI_API_KEY
//  3. Default to the static provider if no API keys found
func NewFromEnv() (Generator, error) {
	provider := os.Getenv("CHUNKDOC_PROVIDER")
	model := os.Getenv("CHUNKDOC_MODEL")
	anthropicKey := os.Getenv(EnvAnthropicAPIKey)
	openaiKey := os.Getenv(EnvOpenAIAPIKey)

	if provider != "" {
		return New(Config{Provider: strings.ToLower(provider), Model: model})
	}

	if anthropicKey != "" {
		return NewAnthropicProvider(anthropicKey, model)
	}
	if openaiKey != "" {
		return NewOpenAIProvider(openaiKey, model)
	}

	return NewStaticProvider(), nil
}

// New creates a generator with explicit configuration.
func New(cfg Config) (Generator, error) {
	switch cfg.Provider {
	case ProviderAnthropic:
		return NewAnthropicProvider(cfg.APIKey, cfg.Model)
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cfg.Model)
	case ProviderStatic, "":
		return NewStaticProvider(), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
}
