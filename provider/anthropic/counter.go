package anthropic

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/youssefsiam38/inlinesummary/compaction"
)

// TokenCounter counts prompt tokens with the Claude token counting API,
// falling back to compaction.ApproximateTokens once the API has failed.
type TokenCounter struct {
	client   *anthropic.Client
	model    string
	useAPI   bool
	fallback atomic.Bool
	logger   compaction.Logger
}

// NewTokenCounter creates a TokenCounter. If useAPI is false, only the
// character-based approximation is used.
func NewTokenCounter(client *anthropic.Client, model string, useAPI bool, logger compaction.Logger) *TokenCounter {
	if logger == nil {
		logger = compaction.DiscardLogger
	}
	return &TokenCounter{
		client: client,
		model:  model,
		useAPI: useAPI,
		logger: logger,
	}
}

// CountTokens never fails: API errors switch the counter to approximation.
func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	if tc.useAPI && tc.client != nil && !tc.fallback.Load() {
		n, err := tc.countWithAPI(ctx, text)
		if err == nil {
			return n, nil
		}
		tc.fallback.Store(true)
		tc.logger.Warn("token counting API failed, using approximation", "error", err)
	}
	return compaction.ApproximateTokens(text), nil
}

// UsingFallback reports whether the counter has switched to approximation.
func (tc *TokenCounter) UsingFallback() bool {
	return tc.fallback.Load()
}

func (tc *TokenCounter) countWithAPI(ctx context.Context, text string) (int, error) {
	result, err := tc.client.Messages.CountTokens(ctx, anthropic.MessageCountTokensParams{
		Model: anthropic.Model(tc.model),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", compaction.ErrTokenCountingFailed, err)
	}
	return int(result.InputTokens), nil
}

var _ compaction.TokenCounter = (*TokenCounter)(nil)
