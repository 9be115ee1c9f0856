package compaction

import (
	"context"
	"fmt"
	"sync"

	"github.com/youssefsiam38/inlinesummary/types"
)

// Placeholder texts for new summary entries.
const (
	// PlaceholderGenerating marks a summary whose generation is in progress.
	PlaceholderGenerating = "Generating..."

	// PlaceholderManual is the text of a manually created summary awaiting an edit.
	PlaceholderManual = "[This is where I'd put the manual summary... if you wrote one!]\nEdit this message and write a summary."
)

const (
	failureHeader         = "[Failed to get a response]\nThis can happen if the token limit is too low and reasoning uses up all of it.\nRaw Error:\n"
	previousSummaryHeader = "\n\n[Previous Summary]\n\n"
)

// FailureText is the summary text recorded when generation fails.
func FailureText(cause error) string {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return failureHeader + msg
}

// Engine performs compaction edits on one conversation's live entry sequence.
// It is the only writer of conv.Entries.
type Engine struct {
	mu        sync.RWMutex
	conv      *types.Conversation
	settings  *Settings
	assembler *Assembler
}

// NewEngine creates an Engine over conv.
func NewEngine(conv *types.Conversation, settings *Settings, assembler *Assembler) *Engine {
	return &Engine{
		conv:      conv,
		settings:  settings,
		assembler: assembler,
	}
}

// Settings returns the settings the engine was created with.
func (e *Engine) Settings() *Settings {
	return e.settings
}

// Entries returns a deep copy of the live sequence.
func (e *Engine) Entries() []types.Entry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return types.CloneEntries(e.conv.Entries)
}

// Len returns the length of the live sequence.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.conv.Entries)
}

// ReplaceEntries swaps the live sequence for entries, as after a reload.
func (e *Engine) ReplaceEntries(entries []types.Entry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.conv.Entries = entries
}

// IsSummary reports whether the entry at index has an archive.
func (e *Engine) IsSummary(index int) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if index < 0 || index >= len(e.conv.Entries) {
		return false
	}
	return e.conv.Entries[index].IsSummary()
}

// ArchiveLen returns the archive length of the entry at index, 0 for a
// plain entry or an index out of range.
func (e *Engine) ArchiveLen(index int) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if index < 0 || index >= len(e.conv.Entries) {
		return 0
	}
	return len(e.conv.Entries[index].Archive)
}

// ValidateRange checks that r selects at least two entries of the live sequence.
func (e *Engine) ValidateRange(r types.Range) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.validateRange(r)
}

func (e *Engine) validateRange(r types.Range) error {
	if r.Start < 0 || r.End >= len(e.conv.Entries) || r.End-r.Start < 1 {
		return NewCompactionError("ValidateRange", ErrInvalidRange).
			WithContext("start", r.Start).
			WithContext("end", r.End).
			WithContext("len", len(e.conv.Entries))
	}
	return nil
}

// Prompt assembles the summarization prompt for r without mutating anything.
func (e *Engine) Prompt(ctx context.Context, r types.Range) (*Prompt, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if err := e.validateRange(r); err != nil {
		return nil, err
	}
	live := e.conv.Entries
	return e.assembler.Assemble(ctx, r.Start, live[r.Start:r.End+1], live, e.settings)
}

// Compact replaces the entries in r with one summary entry whose archive
// holds them in order, and returns the summary's index. The summary text is
// PlaceholderGenerating until CompleteCompaction replaces it.
func (e *Engine) Compact(r types.Range) (int, error) {
	return e.compact(r, PlaceholderGenerating)
}

// CompactManual is Compact with PlaceholderManual as the summary text.
func (e *Engine) CompactManual(r types.Range) (int, error) {
	return e.compact(r, PlaceholderManual)
}

func (e *Engine) compact(r types.Range, text string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validateRange(r); err != nil {
		return 0, err
	}

	live := e.conv.Entries
	archive := make([]types.Entry, r.Len())
	copy(archive, live[r.Start:r.End+1])

	name, role := e.summaryAuthor()
	summary := types.Entry{
		Name:    name,
		Role:    role,
		Text:    text,
		Archive: archive,
	}

	out := make([]types.Entry, 0, len(live)-r.Len()+1)
	out = append(out, live[:r.Start]...)
	out = append(out, summary)
	out = append(out, live[r.End+1:]...)
	e.conv.Entries = out

	return r.Start, nil
}

func (e *Engine) summaryAuthor() (string, types.Role) {
	switch e.settings.SummaryAuthorMode {
	case AuthorUser:
		return e.conv.UserName, types.RoleUser
	case AuthorCharacter:
		return e.conv.CharacterName, types.RoleAssistant
	default:
		return e.settings.SummaryName, types.RoleAssistant
	}
}

// CompleteCompaction replaces the text of the summary entry at index.
func (e *Engine) CompleteCompaction(index int, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.summaryAt("CompleteCompaction", index)
	if err != nil {
		return err
	}
	s.Text = text
	return nil
}

// ApplyRegeneration replaces the text of a regenerated summary.
// The archive is left untouched.
func (e *Engine) ApplyRegeneration(index int, text string) error {
	return e.CompleteCompaction(index, text)
}

// ApplyRegenerationFailure records a failed regeneration, keeping the
// previous summary text after the diagnostic.
func (e *Engine) ApplyRegenerationFailure(index int, cause error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.summaryAt("ApplyRegenerationFailure", index)
	if err != nil {
		return err
	}
	s.Text = FailureText(cause) + previousSummaryHeader + s.Text
	return nil
}

func (e *Engine) summaryAt(op string, index int) (*types.Entry, error) {
	if index < 0 || index >= len(e.conv.Entries) {
		return nil, NewCompactionError(op, ErrIndexOutOfRange).
			WithContext("index", index).
			WithContext("len", len(e.conv.Entries))
	}
	s := &e.conv.Entries[index]
	if !s.IsSummary() {
		return nil, NewCompactionError(op, ErrNotSummary).WithContext("index", index)
	}
	return s, nil
}

// Restore puts the archived entries of the summary at index back into the
// live sequence in its place. It reports false, changing nothing, when index
// does not address a summary.
func (e *Engine) Restore(index int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.summaryAt("Restore", index)
	if err != nil {
		return false
	}
	archive := s.Archive
	s.Archive = nil

	live := e.conv.Entries
	out := make([]types.Entry, 0, len(live)-1+len(archive))
	out = append(out, live[:index]...)
	out = append(out, archive...)
	out = append(out, live[index+1:]...)
	e.conv.Entries = out

	return true
}

// RegeneratePrompt assembles a prompt from the archive of the summary at
// index, with history taken from the current live sequence. It reports false
// when index does not address a summary.
func (e *Engine) RegeneratePrompt(ctx context.Context, index int) (*Prompt, bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if index < 0 || index >= len(e.conv.Entries) || !e.conv.Entries[index].IsSummary() {
		return nil, false, nil
	}
	live := e.conv.Entries
	p, err := e.assembler.Assemble(ctx, index, live[index].Archive, live, e.settings)
	if err != nil {
		return nil, true, err
	}
	return p, true, nil
}

// Describe returns a short description of the entry at index for logs.
func (e *Engine) Describe(index int) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if index < 0 || index >= len(e.conv.Entries) {
		return fmt.Sprintf("#%d (out of range)", index)
	}
	entry := e.conv.Entries[index]
	return fmt.Sprintf("#%d %s (%s, archive=%d)", index, entry.Name, entry.Role, len(entry.Archive))
}
