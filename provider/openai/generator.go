// Package openai generates summaries through an OpenAI-compatible chat
// completion endpoint. text-generation-webui exposes the same API, so one
// Generator serves both the openai and textgenerationwebui backend modes.
package openai

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/youssefsiam38/inlinesummary/generation"
)

var (
	// ErrNoChoices is returned when the completion carried no choices.
	ErrNoChoices = errors.New("completion returned no choices")

	// ErrEmptyResponse is returned when the first choice has no content.
	ErrEmptyResponse = errors.New("empty response from model")
)

// Config configures a Generator.
type Config struct {
	// APIKey is sent as a bearer token. Local backends accept any value.
	APIKey string

	// BaseURL overrides the API root, e.g. "http://localhost:5000" for a
	// local text-generation-webui. "/v1" is appended.
	BaseURL string

	// Model is the chat model name.
	Model string

	// MaxTokens is used when the call does not set MaxResponseTokens.
	// 0 leaves the limit to the server.
	MaxTokens int

	// System is an optional system message sent before the prompt.
	System string
}

// Generator implements generation.Generator with go-openai.
type Generator struct {
	client *openai.Client
	cfg    Config
}

// New creates a Generator from cfg.
func New(cfg Config) *Generator {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = "dummy-key" // Default for local providers
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/") + "/v1"
	}

	return &Generator{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}
}

// Generate performs a non-streaming chat completion of prompt.
func (g *Generator) Generate(ctx context.Context, prompt string, opts generation.Options) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, g.request(prompt, opts))
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

func (g *Generator) request(prompt string, opts generation.Options) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if g.cfg.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: g.cfg.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	maxTokens := g.cfg.MaxTokens
	if opts.MaxResponseTokens > 0 {
		maxTokens = opts.MaxResponseTokens
	}

	return openai.ChatCompletionRequest{
		Model:     g.cfg.Model,
		Messages:  messages,
		MaxTokens: maxTokens,
	}
}

var _ generation.Generator = (*Generator)(nil)
