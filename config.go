package inlinesummary

import (
	"fmt"

	"github.com/youssefsiam38/inlinesummary/compaction"
	"github.com/youssefsiam38/inlinesummary/generation"
	"github.com/youssefsiam38/inlinesummary/storage"
)

// Config holds the required configuration for a Client.
//
// Example:
//
//	client, _ := inlinesummary.NewClient(inlinesummary.Config{
//	    Store:     storage.NewMemoryStore(),
//	    Generator: anthropicprovider.NewGenerator(&ac, "claude-3-5-haiku-20241022", 0),
//	    Counter:   compaction.ApproximateCounter{},
//	    Backend:   &backend.Info{Mode: backend.ModeAnthropic, AnthropicModel: "claude-3-5-haiku-20241022"},
//	})
type Config struct {
	// Store persists conversations (required)
	Store storage.Store

	// Generator produces summary text (required)
	Generator generation.Generator

	// Counter counts prompt tokens (required)
	Counter compaction.TokenCounter

	// Backend reports the active context window (required)
	Backend compaction.ContextInfo

	// Settings drive prompt assembly and the summarization protocol.
	// Default: compaction.DefaultSettings()
	Settings *compaction.Settings
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Store == nil {
		return fmt.Errorf("%w: Store is required", ErrInvalidConfig)
	}
	if c.Generator == nil {
		return fmt.Errorf("%w: Generator is required", ErrInvalidConfig)
	}
	if c.Counter == nil {
		return fmt.Errorf("%w: Counter is required", ErrInvalidConfig)
	}
	if c.Backend == nil {
		return fmt.Errorf("%w: Backend is required", ErrInvalidConfig)
	}
	if c.Settings != nil {
		if err := c.Settings.Validate(); err != nil {
			return err
		}
	}
	return nil
}
