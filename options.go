package inlinesummary

import (
	"fmt"
	"time"

	"github.com/youssefsiam38/inlinesummary/compaction"
	"github.com/youssefsiam38/inlinesummary/generation"
	"github.com/youssefsiam38/inlinesummary/hooks"
)

// Option is a functional option for configuring a Client
type Option func(*internalConfig) error

// internalConfig holds the optional client parameters
type internalConfig struct {
	logger       compaction.Logger
	hooks        *hooks.Registry
	overrides    generation.ConfigOverride
	scrollDelay  time.Duration
	cacheTokens  bool
	eventHistory bool
	retention    time.Duration
	closers      []func() error
}

func newInternalConfig() *internalConfig {
	return &internalConfig{
		logger:       compaction.DiscardLogger,
		hooks:        hooks.NewRegistry(),
		scrollDelay:  generation.DefaultScrollDelay,
		cacheTokens:  true,
		eventHistory: true,
	}
}

// WithLogger sets the logger used by the client and its sessions
func WithLogger(logger compaction.Logger) Option {
	return func(c *internalConfig) error {
		if logger == nil {
			return fmt.Errorf("%w: logger must not be nil", ErrInvalidConfig)
		}
		c.logger = logger
		return nil
	}
}

// WithHooks sets the hook registry shared by every session
func WithHooks(registry *hooks.Registry) Option {
	return func(c *internalConfig) error {
		if registry == nil {
			return fmt.Errorf("%w: hooks registry must not be nil", ErrInvalidConfig)
		}
		c.hooks = registry
		return nil
	}
}

// WithConfigOverride enables profile and preset swapping during generation
func WithConfigOverride(overrides generation.ConfigOverride) Option {
	return func(c *internalConfig) error {
		c.overrides = overrides
		return nil
	}
}

// WithScrollDelay sets how long sessions wait before asking the view to scroll
func WithScrollDelay(d time.Duration) Option {
	return func(c *internalConfig) error {
		if d < 0 {
			return fmt.Errorf("%w: scroll delay must be non-negative", ErrInvalidConfig)
		}
		c.scrollDelay = d
		return nil
	}
}

// WithTokenCache enables or disables memoizing token counts
func WithTokenCache(enabled bool) Option {
	return func(c *internalConfig) error {
		c.cacheTokens = enabled
		return nil
	}
}

// WithEventHistory enables or disables recording completed operations in the store
func WithEventHistory(enabled bool) Option {
	return func(c *internalConfig) error {
		c.eventHistory = enabled
		return nil
	}
}

// WithEventRetention prunes recorded operations older than retention in the
// background. Zero, the default, keeps history forever.
func WithEventRetention(retention time.Duration) Option {
	return func(c *internalConfig) error {
		if retention < 0 {
			return fmt.Errorf("%w: event retention must be non-negative", ErrInvalidConfig)
		}
		c.retention = retention
		return nil
	}
}

// withCloser registers a function run by Client.Close
func withCloser(fn func() error) Option {
	return func(c *internalConfig) error {
		c.closers = append(c.closers, fn)
		return nil
	}
}
