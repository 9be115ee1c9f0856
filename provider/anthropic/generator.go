// Package anthropic generates summaries and counts prompt tokens with the
// Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/youssefsiam38/inlinesummary/backend"
	"github.com/youssefsiam38/inlinesummary/generation"
)

// DefaultMaxTokens caps responses when neither the call nor the model table
// supplies a limit.
const DefaultMaxTokens = 4096

// ErrEmptyResponse is returned when the stream carried no text.
var ErrEmptyResponse = errors.New("empty response from model")

// Generator implements generation.Generator using Claude's streaming API.
type Generator struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	system    string
}

// NewGenerator creates a Generator for model. maxTokens of 0 uses the
// model's default from backend.KnownModels, or DefaultMaxTokens.
func NewGenerator(client *anthropic.Client, model string, maxTokens int) *Generator {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
		if info, ok := backend.GetModelInfo(model); ok {
			maxTokens = info.DefaultMaxTokens
		}
	}
	return &Generator{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
	}
}

// WithSystem sets a system prompt sent with every request.
func (g *Generator) WithSystem(system string) *Generator {
	g.system = system
	return g
}

// Generate sends prompt as a single user message and returns the streamed text.
func (g *Generator) Generate(ctx context.Context, prompt string, opts generation.Options) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: int64(g.resolveMaxTokens(opts)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if g.system != "" {
		params.System = []anthropic.TextBlockParam{{Text: g.system}}
	}

	stream := g.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	// Accumulate the streamed response
	message := anthropic.Message{}
	for stream.Next() {
		if err := message.Accumulate(stream.Current()); err != nil {
			return "", fmt.Errorf("failed to accumulate stream: %w", err)
		}
	}
	if err := stream.Err(); err != nil {
		return "", err
	}

	var text strings.Builder
	for _, block := range message.Content {
		if t, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(t.Text)
		}
	}
	if text.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return text.String(), nil
}

func (g *Generator) resolveMaxTokens(opts generation.Options) int {
	if opts.MaxResponseTokens > 0 {
		return opts.MaxResponseTokens
	}
	return g.maxTokens
}

var _ generation.Generator = (*Generator)(nil)
