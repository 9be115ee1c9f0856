package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/youssefsiam38/inlinesummary/compaction"
	"github.com/youssefsiam38/inlinesummary/hooks"
	"github.com/youssefsiam38/inlinesummary/selection"
	"github.com/youssefsiam38/inlinesummary/types"
)

// DefaultScrollDelay is how long the orchestrator waits before asking the
// view to scroll, giving a reload time to render.
const DefaultScrollDelay = 100 * time.Millisecond

// Config holds the collaborators of an Orchestrator.
type Config struct {
	// Lock serializes AI-backed operations (required). Share one Lock
	// between every orchestrator in the process.
	Lock *Lock

	// Engine edits the live sequence (required).
	Engine *compaction.Engine

	// Selector holds the pending range (required).
	Selector *selection.Selector

	// Generator produces summary text (required).
	Generator Generator

	// Persistence saves and reloads the conversation (required).
	Persistence Persistence

	// Overrides swaps profile and preset. Optional; nil disables swapping.
	Overrides ConfigOverride

	// View receives scroll requests. Optional.
	View ViewRefresh

	// Controls are suspended during generation. Optional.
	Controls SendControls

	// Hooks receives operation events and notifications. Optional.
	Hooks *hooks.Registry

	// Logger for orchestrator messages. Optional.
	Logger compaction.Logger

	// ConversationID tags events and notifications.
	ConversationID uuid.UUID

	// ScrollDelay before scroll requests. Default: DefaultScrollDelay
	ScrollDelay time.Duration
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch {
	case c.Lock == nil:
		return fmt.Errorf("%w: Lock is required", ErrInvalidConfig)
	case c.Engine == nil:
		return fmt.Errorf("%w: Engine is required", ErrInvalidConfig)
	case c.Selector == nil:
		return fmt.Errorf("%w: Selector is required", ErrInvalidConfig)
	case c.Generator == nil:
		return fmt.Errorf("%w: Generator is required", ErrInvalidConfig)
	case c.Persistence == nil:
		return fmt.Errorf("%w: Persistence is required", ErrInvalidConfig)
	case c.ScrollDelay < 0:
		return fmt.Errorf("%w: ScrollDelay must be non-negative", ErrInvalidConfig)
	}
	return nil
}

// Result describes a completed operation.
type Result struct {
	Operation compaction.Operation

	// Index is the affected summary, or the first restored entry for restore.
	Index int

	// Text is the final summary text.
	Text string

	// Archived is the number of entries held by the summary.
	Archived int

	// PromptTokens is the token cost of the generation prompt.
	PromptTokens int

	// GenerationErr is set when generation failed and Text is a diagnostic.
	GenerationErr *GenerationError

	// Noop is set when the target was not a summary and nothing happened.
	Noop bool

	Duration time.Duration
}

// GenerationFailed reports whether the summary text is a failure diagnostic.
func (r *Result) GenerationFailed() bool {
	return r.GenerationErr != nil
}

// Orchestrator runs compaction operations for one conversation.
type Orchestrator struct {
	lock        *Lock
	engine      *compaction.Engine
	selector    *selection.Selector
	generator   Generator
	persistence Persistence
	overrides   ConfigOverride
	view        ViewRefresh
	controls    SendControls
	hooks       *hooks.Registry
	logger      compaction.Logger
	convID      uuid.UUID
	scrollDelay time.Duration
}

// New creates an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &Orchestrator{
		lock:        cfg.Lock,
		engine:      cfg.Engine,
		selector:    cfg.Selector,
		generator:   cfg.Generator,
		persistence: cfg.Persistence,
		overrides:   cfg.Overrides,
		view:        cfg.View,
		controls:    cfg.Controls,
		hooks:       cfg.Hooks,
		logger:      cfg.Logger,
		convID:      cfg.ConversationID,
		scrollDelay: cfg.ScrollDelay,
	}
	if o.hooks == nil {
		o.hooks = hooks.NewRegistry()
	}
	if o.logger == nil {
		o.logger = compaction.DiscardLogger
	}
	if o.scrollDelay == 0 {
		o.scrollDelay = DefaultScrollDelay
	}
	return o, nil
}

// Busy reports whether any orchestrator sharing the lock is running an operation.
func (o *Orchestrator) Busy() bool {
	return o.lock.Held()
}

// Summarize compacts the selected range and generates its summary.
//
// The placeholder summary is inserted and persisted while generation runs.
// A failed generation does not fail the operation: the summary text becomes
// a diagnostic and Result.GenerationErr is set. Errors are returned only for
// rejections and aborts, which leave the live sequence untouched.
func (o *Orchestrator) Summarize(ctx context.Context) (*Result, error) {
	r, ok := o.selector.Range()
	if !ok {
		o.dropSelection(ctx, compaction.OpSummarize)
		return nil, ErrNoSelection
	}

	release, ok := o.lock.TryAcquire()
	if !ok {
		o.logger.Debug("summarize rejected, operation in progress", "conversation_id", o.convID)
		return nil, ErrOperationInProgress
	}
	defer release()

	event := compaction.NewEvent(o.convID, compaction.OpSummarize)
	cleared := false
	defer func() {
		if !cleared {
			o.dropSelection(ctx, event.Operation)
		}
	}()
	if err := o.hooks.TriggerBeforeOperation(ctx, o.convID, event.Operation); err != nil {
		return nil, o.abort(ctx, event.Operation, err)
	}

	o.suspend()
	defer o.resume()

	restore, err := o.swapOverrides(ctx, event.Operation)
	if err != nil {
		return nil, o.abort(ctx, event.Operation, err)
	}
	defer restore()

	prompt, err := o.engine.Prompt(ctx, r)
	if err != nil {
		return nil, o.abort(ctx, event.Operation, &PromptError{Err: err})
	}

	done := o.dispatch(ctx, prompt.Text)

	index, err := o.engine.Compact(r)
	if err != nil {
		// The range was validated by Prompt, so this only happens if the
		// sequence changed underneath us. Let the generation finish unobserved.
		go func() { <-done }()
		return nil, o.abort(ctx, event.Operation, err)
	}
	// The range no longer addresses the entries it selected.
	o.selector.Clear()
	cleared = true
	o.persist(ctx, event.Operation)
	o.scrollTo(index)

	out := <-done
	result := o.record(ctx, event.Operation, index, out, nil)
	result.Archived = r.Len()
	result.PromptTokens = prompt.Tokens

	o.persist(ctx, event.Operation)
	o.scrollTo(index)

	o.finish(ctx, event, result)
	return result, nil
}

// Regenerate rebuilds the summary at index from its archive. Only the text
// changes; on generation failure the previous text is kept after the
// diagnostic. A plain entry is a no-op.
func (o *Orchestrator) Regenerate(ctx context.Context, index int) (*Result, error) {
	if !o.engine.IsSummary(index) {
		o.dropSelection(ctx, compaction.OpRegenerate)
		return &Result{Operation: compaction.OpRegenerate, Index: index, Noop: true}, nil
	}

	release, ok := o.lock.TryAcquire()
	if !ok {
		o.logger.Debug("regenerate rejected, operation in progress", "conversation_id", o.convID)
		return nil, ErrOperationInProgress
	}
	defer release()

	event := compaction.NewEvent(o.convID, compaction.OpRegenerate)
	cleared := false
	defer func() {
		if !cleared {
			o.dropSelection(ctx, event.Operation)
		}
	}()
	if err := o.hooks.TriggerBeforeOperation(ctx, o.convID, event.Operation); err != nil {
		return nil, o.abort(ctx, event.Operation, err)
	}

	o.suspend()
	defer o.resume()

	restore, err := o.swapOverrides(ctx, event.Operation)
	if err != nil {
		return nil, o.abort(ctx, event.Operation, err)
	}
	defer restore()

	prompt, ok, err := o.engine.RegeneratePrompt(ctx, index)
	if err != nil {
		return nil, o.abort(ctx, event.Operation, &PromptError{Err: err})
	}
	if !ok {
		return &Result{Operation: event.Operation, Index: index, Noop: true}, nil
	}

	done := o.dispatch(ctx, prompt.Text)
	o.scrollTo(index)

	out := <-done
	result := o.record(ctx, event.Operation, index, out, o.engine.ApplyRegenerationFailure)
	result.PromptTokens = prompt.Tokens
	result.Archived = o.engine.ArchiveLen(index)

	o.selector.Clear()
	cleared = true
	o.persist(ctx, event.Operation)
	o.scrollTo(index)

	o.finish(ctx, event, result)
	return result, nil
}

// Restore replaces the summary at index with its archived entries.
// A plain entry is a no-op.
func (o *Orchestrator) Restore(ctx context.Context, index int) (*Result, error) {
	release, ok := o.lock.TryAcquire()
	if !ok {
		return nil, ErrOperationInProgress
	}
	defer release()

	event := compaction.NewEvent(o.convID, compaction.OpRestore)
	archived := o.engine.ArchiveLen(index)

	if !o.engine.Restore(index) {
		o.dropSelection(ctx, event.Operation)
		return &Result{Operation: event.Operation, Index: index, Noop: true}, nil
	}
	o.selector.Clear()
	o.persist(ctx, event.Operation)
	o.scrollTo(index)

	result := &Result{Operation: event.Operation, Index: index, Archived: archived}
	o.finish(ctx, event, result)
	return result, nil
}

// CompactManual compacts the selected range with a placeholder for the user
// to edit. It does not take the lock, but is rejected while one is held.
func (o *Orchestrator) CompactManual(ctx context.Context) (*Result, error) {
	if o.lock.Held() {
		return nil, ErrOperationInProgress
	}
	r, ok := o.selector.Range()
	if !ok {
		o.dropSelection(ctx, compaction.OpManual)
		return nil, ErrNoSelection
	}

	event := compaction.NewEvent(o.convID, compaction.OpManual)
	index, err := o.engine.CompactManual(r)
	if err != nil {
		o.dropSelection(ctx, event.Operation)
		return nil, o.abort(ctx, event.Operation, err)
	}
	o.selector.Clear()
	o.persist(ctx, event.Operation)
	o.scrollTo(index)

	result := &Result{
		Operation: event.Operation,
		Index:     index,
		Text:      compaction.PlaceholderManual,
		Archived:  r.Len(),
	}
	o.finish(ctx, event, result)
	return result, nil
}

type outcome struct {
	text string
	err  error
}

// dispatch starts generation without waiting for it. The call runs to
// completion even if ctx is cancelled.
func (o *Orchestrator) dispatch(ctx context.Context, prompt string) <-chan outcome {
	done := make(chan outcome, 1)
	gctx := context.WithoutCancel(ctx)
	opts := Options{MaxResponseTokens: o.engine.Settings().MaxResponseTokenOverride}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("generator panicked: %v", r)}
			}
		}()
		text, err := o.generator.Generate(gctx, prompt, opts)
		if err == nil && strings.TrimSpace(text) == "" {
			err = ErrEmptyResponse
		}
		done <- outcome{text: text, err: err}
	}()
	return done
}

// record writes the generation outcome into the summary at index. onFailure
// overrides how a failure is written; nil writes the bare diagnostic.
func (o *Orchestrator) record(ctx context.Context, op compaction.Operation, index int, out outcome, onFailure func(int, error) error) *Result {
	result := &Result{Operation: op, Index: index}

	var err error
	if out.err != nil {
		result.GenerationErr = &GenerationError{Err: out.err}
		o.logger.Warn("summary generation failed",
			"conversation_id", o.convID,
			"operation", op,
			"index", index,
			"error", out.err)

		if onFailure != nil {
			err = onFailure(index, out.err)
		} else {
			err = o.engine.CompleteCompaction(index, compaction.FailureText(out.err))
		}
	} else {
		err = o.engine.CompleteCompaction(index, out.text)
	}
	if err != nil {
		o.logger.Error("failed to record summary text", "index", index, "error", err)
		o.notify(ctx, op, hooks.LevelError, "failed to record summary text", err)
	}

	if entries := o.engine.Entries(); index < len(entries) {
		result.Text = entries[index].Text
	}
	return result
}

type override struct {
	kind OverrideKind
	name string
}

// swapOverrides activates the configured profile and preset. The returned
// function restores whatever was swapped; its failures are reported only.
// If the preset swap fails, the profile swap is rolled back first.
func (o *Orchestrator) swapOverrides(ctx context.Context, op compaction.Operation) (func(), error) {
	noop := func() {}
	if o.overrides == nil {
		return noop, nil
	}

	type swapped struct {
		kind     OverrideKind
		previous string
	}
	var done []swapped

	restoreAll := func() {
		rctx := context.WithoutCancel(ctx)
		for i := len(done) - 1; i >= 0; i-- {
			s := done[i]
			if err := o.overrides.Restore(rctx, s.kind, s.previous); err != nil {
				o.logger.Warn("failed to restore config override", "kind", s.kind, "previous", s.previous, "error", err)
				o.notify(rctx, op, hooks.LevelWarning, fmt.Sprintf("failed to restore %s %q", s.kind, s.previous), err)
			}
		}
	}

	settings := o.engine.Settings()
	var wanted []override
	if name, ok := settings.ProfileOverride(); ok {
		wanted = append(wanted, override{kind: KindProfile, name: name})
	}
	if name, ok := settings.PresetOverride(); ok {
		wanted = append(wanted, override{kind: KindPreset, name: name})
	}

	for _, w := range wanted {
		previous, err := o.overrides.Swap(ctx, w.kind, w.name)
		if err != nil {
			restoreAll()
			return noop, &ConfigSwapError{Kind: w.kind, Name: w.name, Err: err}
		}
		o.logger.Debug("swapped config override", "kind", w.kind, "name", w.name, "previous", previous)
		done = append(done, swapped{kind: w.kind, previous: previous})
	}

	return restoreAll, nil
}

// persist saves and reloads the conversation. Failures are reported and the
// operation continues, so the placeholder is still replaced.
func (o *Orchestrator) persist(ctx context.Context, op compaction.Operation) {
	if err := o.persistence.Save(ctx); err != nil {
		o.logger.Error("failed to save conversation", "conversation_id", o.convID, "error", err)
		o.notify(ctx, op, hooks.LevelError, "failed to save conversation", err)
		return
	}
	if err := o.persistence.Reload(ctx); err != nil {
		o.logger.Error("failed to reload conversation", "conversation_id", o.convID, "error", err)
		o.notify(ctx, op, hooks.LevelError, "failed to reload conversation", err)
	}
}

// dropSelection clears the selection on exits that persist nothing else and
// saves it, so the stored selection never outlives the operation. The live
// sequence is unchanged, so there is nothing to reload.
func (o *Orchestrator) dropSelection(ctx context.Context, op compaction.Operation) {
	if o.selector.Current().IsEmpty() {
		return
	}
	o.selector.Clear()
	if err := o.persistence.Save(ctx); err != nil {
		o.logger.Error("failed to save cleared selection", "conversation_id", o.convID, "error", err)
		o.notify(ctx, op, hooks.LevelError, "failed to save conversation", err)
	}
}

func (o *Orchestrator) scrollTo(index int) {
	if o.view == nil || !o.engine.Settings().AutoScroll {
		return
	}
	time.AfterFunc(o.scrollDelay, func() {
		o.view.RequestScrollTo(index)
	})
}

func (o *Orchestrator) suspend() {
	if o.controls != nil {
		o.controls.Suspend()
	}
}

func (o *Orchestrator) resume() {
	if o.controls != nil {
		o.controls.Resume()
	}
}

// abort reports an operation that stopped before mutating anything.
func (o *Orchestrator) abort(ctx context.Context, op compaction.Operation, err error) error {
	o.logger.Warn("operation aborted", "conversation_id", o.convID, "operation", op, "error", err)
	o.notify(ctx, op, hooks.LevelError, string(op)+" aborted", err)
	return err
}

func (o *Orchestrator) notify(ctx context.Context, op compaction.Operation, level hooks.Level, msg string, err error) {
	o.hooks.TriggerNotify(ctx, hooks.Notification{
		ConversationID: o.convID,
		Operation:      op,
		Level:          level,
		Message:        msg,
		Err:            err,
	})
}

func (o *Orchestrator) finish(ctx context.Context, event *compaction.Event, result *Result) {
	event.Finish()
	result.Duration = event.Duration

	event.Index = result.Index
	event.Archived = result.Archived
	event.PromptTokens = result.PromptTokens
	event.GenerationFailed = result.GenerationFailed()

	o.logger.Info("operation complete",
		"conversation_id", o.convID,
		"operation", event.Operation,
		"index", event.Index,
		"archived", event.Archived,
		"generation_failed", event.GenerationFailed,
		"duration", event.Duration)

	if err := o.hooks.TriggerAfterOperation(ctx, event); err != nil {
		o.logger.Warn("after-operation hook failed", "operation", event.Operation, "error", err)
	}
}

// Entries is a convenience for callers that need the live sequence after an operation.
func (o *Orchestrator) Entries() []types.Entry {
	return o.engine.Entries()
}
