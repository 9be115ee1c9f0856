package compaction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/youssefsiam38/inlinesummary/types"
)

// DefaultLeadInstruction is the lead instruction used when none is configured.
// It asks for a summary of the marked content, using the history block only
// as background.
const DefaultLeadInstruction = `You are summarising part of an ongoing roleplay conversation. The summary will replace the original messages in the chat log, so it must preserve everything needed to continue the story.

The text between the historical context markers is earlier conversation. Use it only to understand names, places and ongoing events; do not summarise it.

The text between the content markers is what you must summarise. Write a concise, chronological summary in past tense covering:
- Key events and decisions
- Changes in relationships, goals or emotional state
- Important facts, items, locations and promises introduced

Reply with the summary text only. Do not add commentary, headings or a preamble.`

// ContextWindow describes the generation backend's context budget.
type ContextWindow struct {
	// ContextSize is the total number of tokens the backend accepts.
	ContextSize int

	// ReservedResponse is the number of tokens held back for the response.
	ReservedResponse int
}

// ContextInfo reports the context window of the active backend.
// Unsupported backends return a *ConfigError.
type ContextInfo interface {
	ContextWindow(ctx context.Context) (ContextWindow, error)
}

// ContextInfoFunc adapts a function to the ContextInfo interface.
type ContextInfoFunc func(ctx context.Context) (ContextWindow, error)

// ContextWindow calls f(ctx).
func (f ContextInfoFunc) ContextWindow(ctx context.Context) (ContextWindow, error) {
	return f(ctx)
}

// Prompt is an assembled generation prompt.
type Prompt struct {
	// Text is the full prompt.
	Text string

	// Tokens is the token cost of Text.
	Tokens int

	// Available is the prompt budget the text was fitted into.
	Available int

	// HistoryEntries is how many entries made it into the history block.
	HistoryEntries int
}

// Assembler builds summarization prompts that fit the backend's context window.
type Assembler struct {
	counter TokenCounter
	info    ContextInfo
	logger  Logger
}

// NewAssembler creates an Assembler. A nil logger discards messages.
func NewAssembler(counter TokenCounter, info ContextInfo, logger Logger) *Assembler {
	if logger == nil {
		logger = DiscardLogger
	}
	return &Assembler{
		counter: counter,
		info:    info,
		logger:  logger,
	}
}

// budget tracks the remaining prompt tokens during one assembly.
type budget struct {
	available int
	remaining int
}

func (b *budget) spend(n int) {
	b.remaining -= n
}

func (b *budget) used() int {
	return b.available - b.remaining
}

func (b *budget) exceeded(reason string) *BudgetExceededError {
	return &BudgetExceededError{Reason: reason, Used: b.used(), Available: b.available}
}

// Assemble builds the prompt for summarizing target, the entries of live
// starting at index start. Entries before start feed the history block.
//
// Instructions and target content are never truncated: if they do not fit,
// Assemble returns a *BudgetExceededError. History is truncated silently at
// the first entry, scanning backwards, that would overflow the budget.
func (a *Assembler) Assemble(ctx context.Context, start int, target, live []types.Entry, s *Settings) (*Prompt, error) {
	window, err := a.info.ContextWindow(ctx)
	if err != nil {
		return nil, asConfigError(err)
	}

	reserved := window.ReservedResponse
	if s.MaxResponseTokenOverride > 0 {
		reserved = s.MaxResponseTokenOverride
	}
	b := &budget{available: window.ContextSize - reserved}
	b.remaining = b.available

	lead := s.LeadInstruction
	mid := prefixLine(s.MidInstruction)
	trailing := prefixLine(s.TrailingInstruction)

	for _, part := range []string{lead, mid, trailing} {
		n, err := a.count(ctx, part)
		if err != nil {
			return nil, err
		}
		b.spend(n)
	}
	if b.remaining < 0 {
		return nil, b.exceeded(ReasonInstructionsTooLarge)
	}

	content := contentBlock(target, s)
	n, err := a.count(ctx, content)
	if err != nil {
		return nil, err
	}
	b.spend(n)
	if b.remaining < 0 {
		return nil, b.exceeded(ReasonContentTooLarge)
	}

	history, included, err := a.history(ctx, start, live, s, b.remaining)
	if err != nil {
		return nil, err
	}
	n, err = a.count(ctx, history)
	if err != nil {
		return nil, err
	}
	b.spend(n)

	text := lead + history + mid + content + trailing

	total, err := a.count(ctx, text)
	if err != nil {
		return nil, err
	}
	if total > b.available {
		return nil, &BudgetExceededError{
			Reason:    ReasonFinalPromptTooLarge,
			Used:      total,
			Available: b.available,
		}
	}

	a.logger.Debug("assembled summary prompt",
		"tokens", total,
		"available", b.available,
		"target_entries", len(target),
		"history_entries", included)

	return &Prompt{
		Text:           text,
		Tokens:         total,
		Available:      b.available,
		HistoryEntries: included,
	}, nil
}

// history scans backwards from start-1 and prepends entries while the
// wrapped block still fits in remaining. The returned block is wrapped even
// when no entry fits.
func (a *Assembler) history(ctx context.Context, start int, live []types.Entry, s *Settings, remaining int) (string, int, error) {
	lower := 0
	if s.HistoryDepth >= 0 {
		lower = max(0, start-s.HistoryDepth)
	}
	if start > len(live) {
		start = len(live)
	}

	accumulated := ""
	included := 0
	for i := start - 1; i >= lower; i-- {
		text := strings.TrimSpace(live[i].Text)
		if text == "" {
			continue
		}

		candidate := "\n" + text + accumulated
		n, err := a.count(ctx, wrapHistory(candidate, s))
		if err != nil {
			return "", 0, err
		}
		if n > remaining {
			break
		}
		accumulated = candidate
		included++
	}

	return wrapHistory(accumulated, s), included, nil
}

func (a *Assembler) count(ctx context.Context, text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	n, err := a.counter.CountTokens(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTokenCountingFailed, err)
	}
	return n, nil
}

// contentBlock wraps the non-empty trimmed text of each entry in the
// summary markers, one entry per line.
func contentBlock(entries []types.Entry, s *Settings) string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(s.SummaryStartMarker)
	for _, e := range entries {
		text := strings.TrimSpace(e.Text)
		if text == "" {
			continue
		}
		sb.WriteString("\n")
		sb.WriteString(text)
	}
	sb.WriteString("\n")
	sb.WriteString(s.SummaryEndMarker)
	return sb.String()
}

func wrapHistory(history string, s *Settings) string {
	return "\n" + s.HistoryStartMarker + history + "\n" + s.HistoryEndMarker
}

func prefixLine(text string) string {
	if text == "" {
		return ""
	}
	return "\n" + text
}

func asConfigError(err error) error {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return err
	}
	return NewConfigError(err)
}
