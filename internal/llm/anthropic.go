package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

const defaultAnthropicModel = "claude-haiku-4-5"

// AnthropicClient implements the Client interface using the Anthropic API.
type AnthropicClient struct {
	client *anthropic.LLM
	model  string
}

// NewAnthropicClient creates a new Anthropic client. The API key defaults to
// the ANTHROPIC_API_KEY environment variable.
func NewAnthropicClient(model, apiKey string) (*AnthropicClient, error) {
	if model == "" {
		model = defaultAnthropicModel
	}
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("anthropic API key is required (set ANTHROPIC_API_KEY)")
	}

	client, err := anthropic.New(
		anthropic.WithModel(model),
		anthropic.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("creating anthropic client: %w", err)
	}

	return &AnthropicClient{client: client, model: model}, nil
}

// Chat sends messages to the LLM and returns the response.
func (c *AnthropicClient) Chat(ctx context.Context, messages []Message) (string, error) {
	resp, err := c.client.GenerateContent(ctx, toLangChainMessages(messages), llms.WithModel(c.model))
	if err != nil {
		return "", fmt.Errorf("anthropic chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}
	return resp.Choices[0].Content, nil
}

// ChatJSON sends messages and decodes the response into result. Anthropic
// has no JSON output mode, so extraction strips code fences and prose.
func (c *AnthropicClient) ChatJSON(ctx context.Context, messages []Message, result any) (string, error) {
	content, err := c.Chat(ctx, messages)
	if err != nil {
		return "", err
	}

	if err := json.Unmarshal([]byte(extractJSON(content)), result); err != nil {
		return content, fmt.Errorf("parsing JSON response: %w", err)
	}
	return content, nil
}
