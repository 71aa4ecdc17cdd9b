package llm

import (
	"fmt"
	"strings"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
)

// NewClient creates an LLM client based on provider configuration.
func NewClient(provider, model, baseURL, apiKey string) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", ProviderAnthropic, "claude":
		return NewAnthropicClient(model, apiKey)
	case ProviderOllama:
		return NewOllamaClient(model, baseURL)
	case ProviderOpenAI, "lmstudio", "lm-studio":
		return NewOpenAIClient(model, baseURL, apiKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}
