package generation

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/youssefsiam38/inlinesummary/compaction"
	"github.com/youssefsiam38/inlinesummary/hooks"
	"github.com/youssefsiam38/inlinesummary/selection"
	"github.com/youssefsiam38/inlinesummary/types"
)

var wordCounter = compaction.TokenCounterFunc(func(_ context.Context, text string) (int, error) {
	return len(strings.Fields(text)), nil
})

type fakeGenerator struct {
	calls  atomic.Int32
	mu     sync.Mutex
	prompt string
	opts   Options
	fn     func(ctx context.Context, prompt string) (string, error)
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	g.calls.Add(1)
	g.mu.Lock()
	g.prompt = prompt
	g.opts = opts
	fn := g.fn
	g.mu.Unlock()
	if fn != nil {
		return fn(ctx, prompt)
	}
	return "S", nil
}

type fakePersistence struct {
	engine   *compaction.Engine
	selector *selection.Selector

	mu         sync.Mutex
	snapshots  [][]types.Entry
	selections []types.Selection
	saved     chan struct{}
	once      sync.Once
	saveErr   error
}

func (p *fakePersistence) Save(context.Context) error {
	if p.saveErr != nil {
		return p.saveErr
	}
	p.mu.Lock()
	p.snapshots = append(p.snapshots, p.engine.Entries())
	p.selections = append(p.selections, p.selector.Current())
	p.mu.Unlock()
	p.once.Do(func() { close(p.saved) })
	return nil
}

func (p *fakePersistence) Reload(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.snapshots) > 0 {
		p.engine.ReplaceEntries(types.CloneEntries(p.snapshots[len(p.snapshots)-1]))
	}
	return nil
}

// savedSelections returns the selection recorded by each save, oldest first.
func (p *fakePersistence) savedSelections() []types.Selection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.Selection(nil), p.selections...)
}

func (p *fakePersistence) saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.snapshots)
}

type fakeOverrides struct {
	mu         sync.Mutex
	active     map[OverrideKind]string
	failSwap   OverrideKind
	restoreErr error
	calls      []string
}

func (f *fakeOverrides) Swap(_ context.Context, kind OverrideKind, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "swap "+string(kind)+" "+name)
	if kind == f.failSwap {
		return "", errors.New("rejected")
	}
	prev := f.active[kind]
	f.active[kind] = name
	return prev, nil
}

func (f *fakeOverrides) Restore(_ context.Context, kind OverrideKind, previous string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "restore "+string(kind)+" "+previous)
	if f.restoreErr != nil {
		return f.restoreErr
	}
	f.active[kind] = previous
	return nil
}

type fakeView struct {
	scrolled chan int
}

func (v *fakeView) RequestScrollTo(index int) {
	select {
	case v.scrolled <- index:
	default:
	}
}

type fakeControls struct {
	suspended atomic.Int32
	resumed   atomic.Int32
}

func (c *fakeControls) Suspend() { c.suspended.Add(1) }
func (c *fakeControls) Resume()  { c.resumed.Add(1) }

type harness struct {
	conv      *types.Conversation
	settings  *compaction.Settings
	engine    *compaction.Engine
	selector  *selection.Selector
	lock      *Lock
	gen       *fakeGenerator
	store     *fakePersistence
	overrides *fakeOverrides
	view      *fakeView
	controls  *fakeControls
	orch      *Orchestrator

	mu     sync.Mutex
	notes  []hooks.Notification
	events []*compaction.Event
}

func newHarness(t *testing.T, texts ...string) *harness {
	t.Helper()

	entries := make([]types.Entry, len(texts))
	for i, text := range texts {
		entries[i] = types.Entry{Name: "Alice", Role: types.RoleUser, Text: text}
	}
	h := &harness{
		conv:     &types.Conversation{ID: uuid.New(), UserName: "Alice", CharacterName: "Bob", Entries: entries},
		settings: compaction.DefaultSettings(),
		lock:     NewLock(),
		gen:      &fakeGenerator{},
		overrides: &fakeOverrides{active: map[OverrideKind]string{
			KindProfile: "chat",
			KindPreset:  "creative",
		}},
		view:     &fakeView{scrolled: make(chan int, 16)},
		controls: &fakeControls{},
	}
	h.settings.LeadInstruction = "Summarize."
	info := compaction.ContextInfoFunc(func(context.Context) (compaction.ContextWindow, error) {
		return compaction.ContextWindow{ContextSize: 1000, ReservedResponse: 100}, nil
	})
	h.engine = compaction.NewEngine(h.conv, h.settings, compaction.NewAssembler(wordCounter, info, nil))
	h.selector = selection.New(&h.conv.Selection)
	h.store = &fakePersistence{engine: h.engine, selector: h.selector, saved: make(chan struct{})}

	reg := hooks.NewRegistry()
	reg.OnNotify(func(_ context.Context, n hooks.Notification) {
		h.mu.Lock()
		h.notes = append(h.notes, n)
		h.mu.Unlock()
	})
	reg.OnAfterOperation(func(_ context.Context, e *compaction.Event) error {
		h.mu.Lock()
		h.events = append(h.events, e)
		h.mu.Unlock()
		return nil
	})

	orch, err := New(Config{
		Lock:           h.lock,
		Engine:         h.engine,
		Selector:       h.selector,
		Generator:      h.gen,
		Persistence:    h.store,
		Overrides:      h.overrides,
		View:           h.view,
		Controls:       h.controls,
		Hooks:          reg,
		ConversationID: h.conv.ID,
		ScrollDelay:    time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h.orch = orch
	return h
}

func (h *harness) selectRange(start, end int) {
	h.selector.Set(&start, &end)
}

func (h *harness) texts() []string {
	entries := h.engine.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Text
	}
	return out
}

func (h *harness) notifications() []hooks.Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]hooks.Notification(nil), h.notes...)
}

func (h *harness) assertCleanedUp(t *testing.T) {
	t.Helper()
	if h.lock.Held() {
		t.Error("lock still held after operation")
	}
	if s, r := h.controls.suspended.Load(), h.controls.resumed.Load(); s != r {
		t.Errorf("send controls suspended %d times, resumed %d times", s, r)
	}
	if !h.selector.Current().IsEmpty() {
		t.Error("selection not cleared after operation")
	}
}

func TestSummarize(t *testing.T) {
	h := newHarness(t, "A", "B", "C", "D")
	h.selectRange(1, 2)

	result, err := h.orch.Summarize(context.Background())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if got, want := h.texts(), []string{"A", "S", "D"}; !reflect.DeepEqual(got, want) {
		t.Errorf("entries = %v, want %v", got, want)
	}
	entries := h.engine.Entries()
	if len(entries[1].Archive) != 2 || entries[1].Archive[0].Text != "B" || entries[1].Archive[1].Text != "C" {
		t.Errorf("archive = %+v, want [B C]", entries[1].Archive)
	}
	if result.Index != 1 || result.Text != "S" || result.Archived != 2 || result.GenerationFailed() {
		t.Errorf("result = %+v", result)
	}
	if result.PromptTokens == 0 {
		t.Error("result.PromptTokens = 0")
	}
	if !strings.Contains(h.gen.prompt, "B\nC") {
		t.Errorf("prompt = %q, want selected content", h.gen.prompt)
	}
	if h.store.saves() != 2 {
		t.Errorf("saves = %d, want 2 (placeholder and final)", h.store.saves())
	}
	if h.controls.suspended.Load() != 1 {
		t.Errorf("controls suspended %d times, want 1", h.controls.suspended.Load())
	}
	h.assertCleanedUp(t)

	h.mu.Lock()
	events := h.events
	h.mu.Unlock()
	if len(events) != 1 || events[0].Operation != compaction.OpSummarize || events[0].Archived != 2 {
		t.Errorf("events = %+v, want one summarize event", events)
	}

	select {
	case idx := <-h.view.scrolled:
		if idx != 1 {
			t.Errorf("scrolled to %d, want 1", idx)
		}
	case <-time.After(time.Second):
		t.Error("no scroll request")
	}
}

func TestSummarizePersistsPlaceholderBeforeWaiting(t *testing.T) {
	h := newHarness(t, "A", "B", "C")
	h.selectRange(0, 1)
	h.gen.fn = func(ctx context.Context, prompt string) (string, error) {
		select {
		case <-h.store.saved:
			return "done", nil
		case <-time.After(2 * time.Second):
			return "", errors.New("placeholder was not persisted while generating")
		}
	}

	result, err := h.orch.Summarize(context.Background())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if result.GenerationFailed() {
		t.Fatalf("generation failed: %v", result.GenerationErr)
	}

	h.store.mu.Lock()
	first := h.store.snapshots[0]
	h.store.mu.Unlock()
	if first[0].Text != compaction.PlaceholderGenerating {
		t.Errorf("first saved text = %q, want placeholder", first[0].Text)
	}
}

func TestSummarizeGenerationFailure(t *testing.T) {
	h := newHarness(t, "A", "B", "C")
	h.selectRange(1, 2)
	boom := errors.New("max tokens reached")
	h.gen.fn = func(context.Context, string) (string, error) { return "", boom }

	result, err := h.orch.Summarize(context.Background())
	if err != nil {
		t.Fatalf("Summarize() error = %v, generation failure must not be returned", err)
	}
	if !result.GenerationFailed() || !errors.Is(result.GenerationErr, boom) {
		t.Errorf("GenerationErr = %v, want wrapping %v", result.GenerationErr, boom)
	}
	if !errors.Is(result.GenerationErr, ErrGeneration) {
		t.Error("GenerationErr does not match ErrGeneration")
	}

	entries := h.engine.Entries()
	if entries[1].Text != compaction.FailureText(boom) {
		t.Errorf("summary text = %q, want failure diagnostic", entries[1].Text)
	}
	if len(entries[1].Archive) != 2 {
		t.Errorf("archive len = %d, want 2", len(entries[1].Archive))
	}
	if len(h.notifications()) != 0 {
		t.Errorf("notifications = %+v, generation failure should surface as summary text", h.notifications())
	}
	h.assertCleanedUp(t)
}

func TestSummarizeEmptyResponse(t *testing.T) {
	h := newHarness(t, "A", "B")
	h.selectRange(0, 1)
	h.gen.fn = func(context.Context, string) (string, error) { return "  \n", nil }

	result, err := h.orch.Summarize(context.Background())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if !errors.Is(result.GenerationErr, ErrEmptyResponse) {
		t.Errorf("GenerationErr = %v, want ErrEmptyResponse", result.GenerationErr)
	}
}

func TestSummarizeGeneratorPanic(t *testing.T) {
	h := newHarness(t, "A", "B")
	h.selectRange(0, 1)
	h.gen.fn = func(context.Context, string) (string, error) { panic("backend crashed") }

	result, err := h.orch.Summarize(context.Background())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if !result.GenerationFailed() {
		t.Error("panic was not recorded as a generation failure")
	}
	if h.texts()[0] == compaction.PlaceholderGenerating {
		t.Error("placeholder left in place")
	}
	h.assertCleanedUp(t)
}

func TestSummarizeAbortsWithoutMutation(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(h *harness)
		wantErr error
	}{
		{
			name: "content too large",
			setup: func(h *harness) {
				h.settings.MaxResponseTokenOverride = 996
			},
			wantErr: compaction.ErrBudgetExceeded,
		},
		{
			name: "instructions too large",
			setup: func(h *harness) {
				h.settings.LeadInstruction = strings.Repeat("word ", 950)
			},
			wantErr: ErrPrompt,
		},
		{
			name: "profile swap rejected",
			setup: func(h *harness) {
				h.settings.UseProfileOverride = true
				h.settings.ProfileName = "summary"
				h.overrides.failSwap = KindProfile
			},
			wantErr: ErrConfigSwap,
		},
		{
			name: "before hook rejects",
			setup: func(h *harness) {
				h.orch.hooks.OnBeforeOperation(func(context.Context, uuid.UUID, compaction.Operation) error {
					return errors.New("quota exhausted")
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "A", "B", "C", "D")
			tt.setup(h)
			h.selectRange(1, 2)
			before := h.engine.Entries()

			result, err := h.orch.Summarize(context.Background())
			if err == nil {
				t.Fatal("Summarize() error = nil, want abort")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Summarize() error = %v, want %v", err, tt.wantErr)
			}
			if result != nil {
				t.Errorf("Summarize() result = %+v, want nil", result)
			}
			if !reflect.DeepEqual(h.engine.Entries(), before) {
				t.Error("aborted operation mutated entries")
			}
			if h.gen.calls.Load() != 0 {
				t.Error("aborted operation dispatched generation")
			}
			if h.store.saves() != 1 {
				t.Fatalf("saves = %d, want 1 (cleared selection)", h.store.saves())
			}
			if !reflect.DeepEqual(h.store.snapshots[0], before) {
				t.Error("aborted operation persisted changed entries")
			}
			if !h.store.savedSelections()[0].IsEmpty() {
				t.Error("aborted operation persisted the stale selection")
			}
			notes := h.notifications()
			if len(notes) != 1 || notes[0].Level != hooks.LevelError {
				t.Errorf("notifications = %+v, want one error", notes)
			}
			h.assertCleanedUp(t)
		})
	}
}

func TestSummarizePromptErrorWrapsBudget(t *testing.T) {
	h := newHarness(t, "A", "B")
	h.settings.MaxResponseTokenOverride = 998
	h.selectRange(0, 1)

	_, err := h.orch.Summarize(context.Background())
	var pe *PromptError
	if !errors.As(err, &pe) {
		t.Fatalf("Summarize() error = %T, want *PromptError", err)
	}
	var be *compaction.BudgetExceededError
	if !errors.As(err, &be) {
		t.Fatalf("PromptError does not wrap *BudgetExceededError: %v", err)
	}
	if be.Reason != compaction.ReasonContentTooLarge {
		t.Errorf("Reason = %q, want %q", be.Reason, compaction.ReasonContentTooLarge)
	}
}

func TestSummarizeSwapsAndRestoresOverrides(t *testing.T) {
	h := newHarness(t, "A", "B")
	h.settings.UseProfileOverride = true
	h.settings.ProfileName = "summary-profile"
	h.settings.UsePresetOverride = true
	h.settings.PresetName = "summary-preset"
	h.selectRange(0, 1)

	var during map[OverrideKind]string
	h.gen.fn = func(context.Context, string) (string, error) {
		h.overrides.mu.Lock()
		during = map[OverrideKind]string{
			KindProfile: h.overrides.active[KindProfile],
			KindPreset:  h.overrides.active[KindPreset],
		}
		h.overrides.mu.Unlock()
		return "S", nil
	}

	if _, err := h.orch.Summarize(context.Background()); err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if during[KindProfile] != "summary-profile" || during[KindPreset] != "summary-preset" {
		t.Errorf("overrides during generation = %v", during)
	}
	if h.overrides.active[KindProfile] != "chat" || h.overrides.active[KindPreset] != "creative" {
		t.Errorf("overrides after = %v, want originals restored", h.overrides.active)
	}
}

func TestSummarizeSecondSwapFailureRollsBackFirst(t *testing.T) {
	h := newHarness(t, "A", "B")
	h.settings.UseProfileOverride = true
	h.settings.ProfileName = "summary-profile"
	h.settings.UsePresetOverride = true
	h.settings.PresetName = "summary-preset"
	h.overrides.failSwap = KindPreset
	h.selectRange(0, 1)

	_, err := h.orch.Summarize(context.Background())
	var se *ConfigSwapError
	if !errors.As(err, &se) || se.Kind != KindPreset {
		t.Fatalf("Summarize() error = %v, want preset *ConfigSwapError", err)
	}
	want := []string{
		"swap profile summary-profile",
		"swap preset summary-preset",
		"restore profile chat",
	}
	if !reflect.DeepEqual(h.overrides.calls, want) {
		t.Errorf("override calls = %v, want %v", h.overrides.calls, want)
	}
}

func TestSummarizeProfileNoneIsNotSwapped(t *testing.T) {
	h := newHarness(t, "A", "B")
	h.settings.UseProfileOverride = true
	h.settings.ProfileName = compaction.NoProfile
	h.selectRange(0, 1)

	if _, err := h.orch.Summarize(context.Background()); err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if len(h.overrides.calls) != 0 {
		t.Errorf("override calls = %v, want none", h.overrides.calls)
	}
}

func TestSummarizeRestoreFailureIsReportedOnly(t *testing.T) {
	h := newHarness(t, "A", "B")
	h.settings.UsePresetOverride = true
	h.settings.PresetName = "summary-preset"
	h.overrides.restoreErr = errors.New("preset vanished")
	h.selectRange(0, 1)

	result, err := h.orch.Summarize(context.Background())
	if err != nil {
		t.Fatalf("Summarize() error = %v, restore failure must not change the outcome", err)
	}
	if result.Text != "S" {
		t.Errorf("result.Text = %q, want S", result.Text)
	}
	notes := h.notifications()
	if len(notes) != 1 || notes[0].Level != hooks.LevelWarning {
		t.Errorf("notifications = %+v, want one warning", notes)
	}
}

func TestSummarizePassesResponseOverride(t *testing.T) {
	h := newHarness(t, "A", "B")
	h.settings.MaxResponseTokenOverride = 300
	h.selectRange(0, 1)

	if _, err := h.orch.Summarize(context.Background()); err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if h.gen.opts.MaxResponseTokens != 300 {
		t.Errorf("MaxResponseTokens = %d, want 300", h.gen.opts.MaxResponseTokens)
	}
}

func TestSummarizeNoSelection(t *testing.T) {
	h := newHarness(t, "A", "B")
	one := 1
	h.selector.SetStart(one)

	if _, err := h.orch.Summarize(context.Background()); !errors.Is(err, ErrNoSelection) {
		t.Errorf("Summarize() error = %v, want ErrNoSelection", err)
	}
	if h.gen.calls.Load() != 0 {
		t.Error("generation dispatched without a selection")
	}
	if !h.selector.Current().IsEmpty() {
		t.Error("partial selection kept after a rejected summarize")
	}
	if got := h.store.savedSelections(); len(got) != 1 || !got[0].IsEmpty() {
		t.Errorf("saved selections = %+v, want one cleared selection", got)
	}
	if got := h.texts(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("entries = %v, want unchanged", got)
	}
}

func TestLockRejectsCompetingOperations(t *testing.T) {
	h := newHarness(t, "A", "B", "C", "D")
	h.selectRange(0, 1)

	started := make(chan struct{})
	proceed := make(chan struct{})
	h.gen.fn = func(context.Context, string) (string, error) {
		close(started)
		<-proceed
		return "S", nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := h.orch.Summarize(context.Background())
		done <- err
	}()
	<-started
	<-h.store.saved

	// Engine state while the first operation is in flight.
	inFlight := h.engine.Entries()

	if _, err := h.orch.Regenerate(context.Background(), 0); !errors.Is(err, ErrOperationInProgress) {
		t.Errorf("Regenerate() error = %v, want ErrOperationInProgress", err)
	}
	if _, err := h.orch.Restore(context.Background(), 0); !errors.Is(err, ErrOperationInProgress) {
		t.Errorf("Restore() error = %v, want ErrOperationInProgress", err)
	}
	h.selectRange(2, 3)
	if _, err := h.orch.CompactManual(context.Background()); !errors.Is(err, ErrOperationInProgress) {
		t.Errorf("CompactManual() error = %v, want ErrOperationInProgress", err)
	}
	if _, err := h.orch.Summarize(context.Background()); !errors.Is(err, ErrOperationInProgress) {
		t.Errorf("Summarize() error = %v, want ErrOperationInProgress", err)
	}

	if !reflect.DeepEqual(h.engine.Entries(), inFlight) {
		t.Error("rejected operations mutated entries")
	}
	if got := h.gen.calls.Load(); got != 1 {
		t.Errorf("generator called %d times, want 1", got)
	}

	close(proceed)
	if err := <-done; err != nil {
		t.Fatalf("first Summarize() error = %v", err)
	}
	if h.lock.Held() {
		t.Error("lock held after first operation")
	}
}

func TestLockSharedAcrossOrchestrators(t *testing.T) {
	h := newHarness(t, "A", "B")
	h.selectRange(0, 1)

	release, ok := h.lock.TryAcquire()
	if !ok {
		t.Fatal("TryAcquire() = false")
	}
	defer release()

	if _, err := h.orch.Summarize(context.Background()); !errors.Is(err, ErrOperationInProgress) {
		t.Errorf("Summarize() error = %v, want ErrOperationInProgress", err)
	}
	if h.gen.calls.Load() != 0 {
		t.Error("rejected operation dispatched generation")
	}
	if h.selector.Current().IsEmpty() {
		t.Error("rejected operation cleared the selection")
	}
}

func TestRegenerate(t *testing.T) {
	h := newHarness(t, "A", "B", "C", "D")
	h.selectRange(2, 3)
	if _, err := h.orch.Summarize(context.Background()); err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	h.gen.fn = func(context.Context, string) (string, error) { return "S2", nil }
	result, err := h.orch.Regenerate(context.Background(), 2)
	if err != nil {
		t.Fatalf("Regenerate() error = %v", err)
	}
	if result.Text != "S2" || result.Archived != 2 {
		t.Errorf("result = %+v", result)
	}
	entries := h.engine.Entries()
	if entries[2].Text != "S2" {
		t.Errorf("summary text = %q, want S2", entries[2].Text)
	}
	if got := []string{entries[2].Archive[0].Text, entries[2].Archive[1].Text}; !reflect.DeepEqual(got, []string{"C", "D"}) {
		t.Errorf("archive = %v, want [C D]", got)
	}
	if !strings.Contains(h.gen.prompt, "A\nB") {
		t.Errorf("prompt = %q, want live history", h.gen.prompt)
	}
	h.assertCleanedUp(t)
}

func TestRegenerateFailureKeepsPrevious(t *testing.T) {
	h := newHarness(t, "A", "B", "C")
	h.selectRange(0, 1)
	if _, err := h.orch.Summarize(context.Background()); err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	h.gen.fn = func(context.Context, string) (string, error) { return "", errors.New("overloaded") }
	result, err := h.orch.Regenerate(context.Background(), 0)
	if err != nil {
		t.Fatalf("Regenerate() error = %v", err)
	}
	if !result.GenerationFailed() {
		t.Error("GenerationFailed() = false")
	}
	entries := h.engine.Entries()
	if !strings.HasSuffix(entries[0].Text, "[Previous Summary]\n\nS") {
		t.Errorf("summary text = %q, want previous summary kept", entries[0].Text)
	}
	if len(entries[0].Archive) != 2 {
		t.Errorf("archive len = %d, want 2", len(entries[0].Archive))
	}
}

func TestRegeneratePlainIsNoop(t *testing.T) {
	h := newHarness(t, "A", "B")

	result, err := h.orch.Regenerate(context.Background(), 0)
	if err != nil {
		t.Fatalf("Regenerate() error = %v", err)
	}
	if !result.Noop {
		t.Error("Regenerate() on plain entry should be a no-op")
	}
	if h.store.saves() != 0 {
		t.Error("no-op regenerate without a selection persisted")
	}

	h.selectRange(0, 1)
	if _, err := h.orch.Regenerate(context.Background(), 0); err != nil {
		t.Fatalf("Regenerate() error = %v", err)
	}
	if got := h.store.savedSelections(); len(got) != 1 || !got[0].IsEmpty() {
		t.Errorf("saved selections = %+v, want one cleared selection", got)
	}
	if h.gen.calls.Load() != 0 {
		t.Error("no-op regenerate dispatched generation")
	}
}

func TestRestore(t *testing.T) {
	h := newHarness(t, "A", "B", "C", "D")
	h.selectRange(1, 2)
	if _, err := h.orch.Summarize(context.Background()); err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	result, err := h.orch.Restore(context.Background(), 1)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if result.Noop || result.Archived != 2 {
		t.Errorf("result = %+v", result)
	}
	if got, want := h.texts(), []string{"A", "B", "C", "D"}; !reflect.DeepEqual(got, want) {
		t.Errorf("entries = %v, want %v", got, want)
	}

	result, err = h.orch.Restore(context.Background(), 1)
	if err != nil || !result.Noop {
		t.Errorf("Restore(plain) = %+v, %v; want no-op", result, err)
	}
	h.assertCleanedUp(t)
}

func TestCompactManual(t *testing.T) {
	h := newHarness(t, "A", "B", "C")
	h.selectRange(0, 2)

	result, err := h.orch.CompactManual(context.Background())
	if err != nil {
		t.Fatalf("CompactManual() error = %v", err)
	}
	if result.Text != compaction.PlaceholderManual || result.Archived != 3 {
		t.Errorf("result = %+v", result)
	}
	if h.gen.calls.Load() != 0 {
		t.Error("manual compaction called the generator")
	}
	if h.store.saves() != 1 {
		t.Errorf("saves = %d, want 1", h.store.saves())
	}
	h.assertCleanedUp(t)
}

func TestPersistenceFailureIsReported(t *testing.T) {
	h := newHarness(t, "A", "B")
	h.store.saveErr = errors.New("disk full")
	h.selectRange(0, 1)

	result, err := h.orch.Summarize(context.Background())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if result.Text != "S" {
		t.Errorf("result.Text = %q, want S", result.Text)
	}
	if n := len(h.notifications()); n != 2 {
		t.Errorf("notifications = %d, want 2 (one per save)", n)
	}
}

func TestConfigValidate(t *testing.T) {
	h := newHarness(t, "A")
	valid := Config{
		Lock:        NewLock(),
		Engine:      h.engine,
		Selector:    h.selector,
		Generator:   h.gen,
		Persistence: h.store,
	}

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "missing lock", modify: func(c *Config) { c.Lock = nil }},
		{name: "missing engine", modify: func(c *Config) { c.Engine = nil }},
		{name: "missing selector", modify: func(c *Config) { c.Selector = nil }},
		{name: "missing generator", modify: func(c *Config) { c.Generator = nil }},
		{name: "missing persistence", modify: func(c *Config) { c.Persistence = nil }},
		{name: "negative scroll delay", modify: func(c *Config) { c.ScrollDelay = -time.Second }},
	}

	if _, err := New(valid); err != nil {
		t.Fatalf("New(valid) error = %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.modify(&cfg)
			if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("New() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestPersistedSelectionClearedAfterOperations(t *testing.T) {
	tests := []struct {
		name string
		run  func(h *harness) error
	}{
		{
			name: "summarize",
			run: func(h *harness) error {
				h.selectRange(1, 2)
				_, err := h.orch.Summarize(context.Background())
				return err
			},
		},
		{
			name: "manual",
			run: func(h *harness) error {
				h.selectRange(1, 2)
				_, err := h.orch.CompactManual(context.Background())
				return err
			},
		},
		{
			name: "regenerate",
			run: func(h *harness) error {
				h.selectRange(1, 2)
				if _, err := h.orch.Summarize(context.Background()); err != nil {
					return err
				}
				h.selectRange(0, 1)
				_, err := h.orch.Regenerate(context.Background(), 1)
				return err
			},
		},
		{
			name: "restore",
			run: func(h *harness) error {
				h.selectRange(1, 2)
				if _, err := h.orch.Summarize(context.Background()); err != nil {
					return err
				}
				h.selectRange(0, 1)
				_, err := h.orch.Restore(context.Background(), 1)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "A", "B", "C", "D")
			if err := tt.run(h); err != nil {
				t.Fatalf("operation error = %v", err)
			}
			for i, sel := range h.store.savedSelections() {
				if !sel.IsEmpty() {
					t.Errorf("save %d persisted selection %+v, want cleared", i, sel)
				}
			}
			h.assertCleanedUp(t)
		})
	}
}
