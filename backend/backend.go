// Package backend reports the context window of the active generation backend.
package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/youssefsiam38/inlinesummary/compaction"
)

// Mode identifies a generation backend.
type Mode string

const (
	// ModeTextGenWebUI is a text completion backend with a flat context size.
	ModeTextGenWebUI Mode = "textgenerationwebui"

	// ModeOpenAI is an OpenAI-compatible chat completion backend.
	ModeOpenAI Mode = "openai"

	// ModeAnthropic is the Anthropic Messages API.
	ModeAnthropic Mode = "anthropic"
)

// ModelInfo contains model-specific parameters
type ModelInfo struct {
	MaxContextTokens int
	DefaultMaxTokens int
}

// KnownModels maps Anthropic model IDs to their capabilities
var KnownModels = map[string]ModelInfo{
	// Claude 4 models
	"claude-sonnet-4-5-20250929": {MaxContextTokens: 200000, DefaultMaxTokens: 16384},
	"claude-opus-4-5-20251101":   {MaxContextTokens: 200000, DefaultMaxTokens: 16384},
	// Claude 3.5 models
	"claude-3-5-sonnet-20241022": {MaxContextTokens: 200000, DefaultMaxTokens: 8192},
	"claude-3-5-haiku-20241022":  {MaxContextTokens: 200000, DefaultMaxTokens: 8192},
	// Claude 3 models
	"claude-3-opus-20240229":  {MaxContextTokens: 200000, DefaultMaxTokens: 4096},
	"claude-3-haiku-20240307": {MaxContextTokens: 200000, DefaultMaxTokens: 4096},
}

// GetModelInfo returns model info for a known Anthropic model.
func GetModelInfo(model string) (ModelInfo, bool) {
	info, ok := KnownModels[model]
	return info, ok
}

// Info is the backend selection plus the per-mode size settings.
// Only the fields of the selected Mode are read.
type Info struct {
	// Mode selects the backend. Matched case-insensitively.
	Mode Mode

	// MaxContext and MaxResponse apply to ModeTextGenWebUI.
	MaxContext  int
	MaxResponse int

	// ChatMaxContext and ChatMaxTokens apply to ModeOpenAI.
	ChatMaxContext int
	ChatMaxTokens  int

	// AnthropicModel is looked up in KnownModels for ModeAnthropic.
	AnthropicModel string
}

// ContextWindow returns the context size and reserved response size of the
// selected backend. Unsupported modes and unknown models yield a
// *compaction.ConfigError; there is no silent default.
func (i *Info) ContextWindow(_ context.Context) (compaction.ContextWindow, error) {
	switch Mode(strings.ToLower(string(i.Mode))) {
	case ModeTextGenWebUI:
		return compaction.ContextWindow{ContextSize: i.MaxContext, ReservedResponse: i.MaxResponse}, nil

	case ModeOpenAI:
		return compaction.ContextWindow{ContextSize: i.ChatMaxContext, ReservedResponse: i.ChatMaxTokens}, nil

	case ModeAnthropic:
		info, ok := GetModelInfo(i.AnthropicModel)
		if !ok {
			return compaction.ContextWindow{}, compaction.NewConfigError(
				fmt.Errorf("%w: unknown anthropic model %q", compaction.ErrUnsupportedBackend, i.AnthropicModel))
		}
		return compaction.ContextWindow{ContextSize: info.MaxContextTokens, ReservedResponse: info.DefaultMaxTokens}, nil

	default:
		return compaction.ContextWindow{}, compaction.NewConfigError(
			fmt.Errorf("%w: mode %q", compaction.ErrUnsupportedBackend, i.Mode))
	}
}
