// Package llmservice wraps the language model behind a small chat client.
package llmservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"ragserve/internal/config"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    string // "system", "user" or "assistant"
	Content string
}

// Client is the language model consumed by the query orchestrator.
type Client interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	HealthCheck(ctx context.Context) bool
}

// LangchainClient implements Client over a langchaingo model.
type LangchainClient struct {
	model     llms.Model
	modelName string
}

var _ Client = (*LangchainClient)(nil)

// New creates a client for the configured provider.
func New(cfg *config.LLMConfig) (*LangchainClient, error) {
	var model llms.Model
	var err error
	switch cfg.Provider {
	case "", "ollama":
		model, err = ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	case "openai":
		model, err = openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init llm client: %w", err)
	}
	return &LangchainClient{model: model, modelName: cfg.Model}, nil
}

func (c *LangchainClient) Chat(ctx context.Context, messages []Message) (string, error) {
	content := make([]llms.MessageContent, len(messages))
	for i, m := range messages {
		content[i] = llms.MessageContent{
			Role:  chatRole(m.Role),
			Parts: []llms.ContentPart{llms.TextContent{Text: m.Content}},
		}
	}

	res, err := c.model.GenerateContent(ctx, content)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("model %s returned no choices", c.modelName)
	}
	return res.Choices[0].Content, nil
}

// HealthCheck probes the model with a minimal one-token generation.
func (c *LangchainClient) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	probe := []llms.MessageContent{{
		Role:  schema.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextContent{Text: "ping"}},
	}}
	_, err := c.model.GenerateContent(ctx, probe, llms.WithMaxTokens(1))
	if err != nil {
		log.Warn().Err(err).Str("model", c.modelName).Msg("llm health check failed")
		return false
	}
	return true
}

func chatRole(role string) schema.ChatMessageType {
	switch role {
	case "system":
		return schema.ChatMessageTypeSystem
	case "assistant":
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}
