// Package llm provides interfaces and implementations for LLM providers used
// by the placement proposer.
package llm

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client defines the interface for LLM providers.
type Client interface {
	// Chat sends messages to the LLM and returns the response.
	Chat(ctx context.Context, messages []Message) (string, error)

	// ChatJSON sends messages, requests JSON output where the backend
	// supports it, and decodes the response into result. The raw response
	// text is returned so callers can report what the model actually said
	// when decoding fails.
	ChatJSON(ctx context.Context, messages []Message, result any) (string, error)
}

func toLangChainMessages(messages []Message) []llms.MessageContent {
	result := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		role := llms.ChatMessageTypeHuman
		switch strings.ToLower(msg.Role) {
		case "system":
			role = llms.ChatMessageTypeSystem
		case "assistant":
			role = llms.ChatMessageTypeAI
		case "user":
			role = llms.ChatMessageTypeHuman
		}
		result = append(result, llms.TextParts(role, msg.Content))
	}
	return result
}
