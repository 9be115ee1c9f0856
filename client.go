package inlinesummary

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/youssefsiam38/inlinesummary/compaction"
	"github.com/youssefsiam38/inlinesummary/generation"
	"github.com/youssefsiam38/inlinesummary/hooks"
	"github.com/youssefsiam38/inlinesummary/maintenance"
	"github.com/youssefsiam38/inlinesummary/selection"
	"github.com/youssefsiam38/inlinesummary/storage"
	"github.com/youssefsiam38/inlinesummary/types"
)

// Version is the current inlinesummary version
const Version = "1.0.0"

// Client owns everything shared between conversations: the store, the
// generation backend and the single lock that serializes AI operations
// across every open Session.
type Client struct {
	lock      *generation.Lock
	store     storage.Store
	generator generation.Generator
	counter   compaction.TokenCounter
	backend   compaction.ContextInfo
	settings  *compaction.Settings
	config    *internalConfig

	closed atomic.Bool
}

// NewClient creates a Client.
//
// Example:
//
//	client, err := inlinesummary.NewClient(cfg, inlinesummary.WithLogger(slog.Default()))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	sess, err := client.Open(ctx, conversationID)
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ic := newInternalConfig()
	for _, opt := range opts {
		if err := opt(ic); err != nil {
			return nil, err
		}
	}

	settings := cfg.Settings
	if settings == nil {
		settings = compaction.DefaultSettings()
	} else {
		settings = settings.Clone()
		settings.ApplyDefaults()
	}

	counter := cfg.Counter
	if ic.cacheTokens {
		counter = compaction.NewCachingCounter(counter)
	}

	c := &Client{
		lock:      generation.NewLock(),
		store:     cfg.Store,
		generator: cfg.Generator,
		counter:   counter,
		backend:   cfg.Backend,
		settings:  settings,
		config:    ic,
	}

	if ic.eventHistory {
		ic.hooks.OnAfterOperation(func(ctx context.Context, event *compaction.Event) error {
			return c.store.SaveEvent(context.WithoutCancel(ctx), event)
		})
		if ic.retention > 0 {
			c.startPruner()
		}
	}

	return c, nil
}

func (c *Client) startPruner() {
	logger := c.config.logger
	pruner := maintenance.NewPruner(c.store, &maintenance.PrunerConfig{
		Retention: c.config.retention,
		OnPruned: func(count int) {
			logger.Info("pruned operation history", "events", count)
		},
		OnError: func(err error) {
			logger.Warn("failed to prune operation history", "error", err)
		},
	})
	c.runPruner(pruner)
}

// runPruner starts pruner and stops it on Close. A pruner that fails to
// start is logged and left out of the closers.
func (c *Client) runPruner(pruner *maintenance.Pruner) {
	if err := pruner.Start(context.Background()); err != nil {
		c.config.logger.Error("failed to start history pruner", "error", err)
		return
	}
	c.config.closers = append(c.config.closers, func() error {
		return pruner.Stop(context.Background())
	})
}

// Settings returns a copy of the settings every session uses.
func (c *Client) Settings() *compaction.Settings {
	return c.settings.Clone()
}

// Hooks returns the registry shared by every session.
func (c *Client) Hooks() *hooks.Registry {
	return c.config.hooks
}

// Busy reports whether an AI operation is running in any session.
func (c *Client) Busy() bool {
	return c.lock.Held()
}

// CreateConversation stores a new conversation with a copy of entries.
func (c *Client) CreateConversation(ctx context.Context, userName, characterName string, entries []types.Entry) (*types.Conversation, error) {
	conv := &types.Conversation{
		UserName:      userName,
		CharacterName: characterName,
		Entries:       types.CloneEntries(entries),
	}
	if err := c.store.CreateConversation(ctx, conv); err != nil {
		return nil, NewSessionError("CreateConversation", err)
	}
	c.config.logger.Info("conversation created", "conversation_id", conv.ID, "entries", len(conv.Entries))
	return conv, nil
}

// DeleteConversation removes a conversation and its operation history.
func (c *Client) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	if err := c.store.DeleteConversation(ctx, id); err != nil {
		return NewSessionErrorWithConversation("DeleteConversation", id, err)
	}
	return nil
}

// Events returns the operations recorded for a conversation, oldest first.
func (c *Client) Events(ctx context.Context, id uuid.UUID) ([]*compaction.Event, error) {
	events, err := c.store.GetEvents(ctx, id)
	if err != nil {
		return nil, NewSessionErrorWithConversation("Events", id, err)
	}
	return events, nil
}

// SessionOption configures a Session opened by Client.Open.
type SessionOption func(*generation.Config)

// WithView sends scroll requests to view.
func WithView(view generation.ViewRefresh) SessionOption {
	return func(c *generation.Config) {
		c.View = view
	}
}

// WithSendControls suspends controls while the session generates.
func WithSendControls(controls generation.SendControls) SessionOption {
	return func(c *generation.Config) {
		c.Controls = controls
	}
}

// Open loads a conversation and returns a Session for it. Opening a
// conversation clears its selection.
func (c *Client) Open(ctx context.Context, id uuid.UUID, opts ...SessionOption) (*Session, error) {
	if c.closed.Load() {
		return nil, NewSessionErrorWithConversation("Open", id, ErrClientClosed)
	}

	conv, err := c.store.LoadConversation(ctx, id)
	if err != nil {
		return nil, NewSessionErrorWithConversation("Open", id, err)
	}
	conv.Selection = types.Selection{}

	s := &Session{
		client: c,
		id:     conv.ID,
		conv:   conv,
	}
	assembler := compaction.NewAssembler(c.counter, c.backend, c.config.logger)
	s.engine = compaction.NewEngine(conv, c.settings, assembler)
	s.selector = selection.New(&conv.Selection)
	s.selector.OnChange(func(sel types.Selection) {
		c.config.hooks.TriggerSelectionChanged(s.id, sel)
	})

	gcfg := generation.Config{
		Lock:           c.lock,
		Engine:         s.engine,
		Selector:       s.selector,
		Generator:      c.generator,
		Persistence:    s,
		Overrides:      c.config.overrides,
		Hooks:          c.config.hooks,
		Logger:         c.config.logger,
		ConversationID: s.id,
		ScrollDelay:    c.config.scrollDelay,
	}
	for _, opt := range opts {
		opt(&gcfg)
	}
	if s.orch, err = generation.New(gcfg); err != nil {
		return nil, NewSessionErrorWithConversation("Open", id, err)
	}

	c.config.logger.Debug("conversation opened", "conversation_id", s.id, "entries", len(conv.Entries))
	return s, nil
}

// Close runs registered cleanup functions, such as closing a database pool.
// Open sessions keep working against the store until it is closed.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	var errs []error
	for i := len(c.config.closers) - 1; i >= 0; i-- {
		if err := c.config.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
