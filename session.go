package inlinesummary

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/youssefsiam38/inlinesummary/command"
	"github.com/youssefsiam38/inlinesummary/compaction"
	"github.com/youssefsiam38/inlinesummary/generation"
	"github.com/youssefsiam38/inlinesummary/provenance"
	"github.com/youssefsiam38/inlinesummary/selection"
	"github.com/youssefsiam38/inlinesummary/types"
)

// Session is one open conversation. Its AI operations share the client's
// lock with every other session.
type Session struct {
	client   *Client
	id       uuid.UUID
	conv     *types.Conversation
	engine   *compaction.Engine
	selector *selection.Selector
	orch     *generation.Orchestrator

	// saveMu orders Save and Reload against each other.
	saveMu sync.Mutex
}

// ID returns the conversation ID.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Entries returns a copy of the live sequence.
func (s *Session) Entries() []types.Entry {
	return s.engine.Entries()
}

// Selection returns a copy of the pending selection.
func (s *Session) Selection() types.Selection {
	return s.selector.Current()
}

// Busy reports whether any session is running an AI operation.
func (s *Session) Busy() bool {
	return s.client.lock.Held()
}

// SelectStart sets the start of the pending range. Selection edits are
// refused while an operation is running.
func (s *Session) SelectStart(index int) error {
	if err := s.checkSelectable("SelectStart", index); err != nil {
		return err
	}
	s.selector.SetStart(index)
	return nil
}

// SelectEnd sets the end of the pending range.
func (s *Session) SelectEnd(index int) error {
	if err := s.checkSelectable("SelectEnd", index); err != nil {
		return err
	}
	s.selector.SetEnd(index)
	return nil
}

// ClearSelection clears the pending range.
func (s *Session) ClearSelection() error {
	if s.client.lock.Held() {
		return s.wrap("ClearSelection", ErrOperationInProgress)
	}
	s.selector.Clear()
	return nil
}

func (s *Session) checkSelectable(op string, index int) error {
	if s.client.lock.Held() {
		return s.wrap(op, ErrOperationInProgress)
	}
	if n := s.engine.Len(); index < 0 || index >= n {
		return s.wrap(op, compaction.ErrIndexOutOfRange).
			WithContext("index", index).
			WithContext("len", n)
	}
	return nil
}

// Summarize compacts the selected range and generates its summary.
func (s *Session) Summarize(ctx context.Context) (*generation.Result, error) {
	res, err := s.orch.Summarize(ctx)
	if err != nil {
		return nil, s.wrap("Summarize", err)
	}
	return res, nil
}

// SummarizeManual compacts the selected range with a placeholder summary
// for the user to write.
func (s *Session) SummarizeManual(ctx context.Context) (*generation.Result, error) {
	res, err := s.orch.CompactManual(ctx)
	if err != nil {
		return nil, s.wrap("SummarizeManual", err)
	}
	return res, nil
}

// Regenerate regenerates the summary at index from its archive.
func (s *Session) Regenerate(ctx context.Context, index int) (*generation.Result, error) {
	res, err := s.orch.Regenerate(ctx, index)
	if err != nil {
		return nil, s.wrap("Regenerate", err)
	}
	return res, nil
}

// Restore replaces the summary at index with the entries it archived.
func (s *Session) Restore(ctx context.Context, index int) (*generation.Result, error) {
	res, err := s.orch.Restore(ctx, index)
	if err != nil {
		return nil, s.wrap("Restore", err)
	}
	return res, nil
}

// RunCommand runs the arguments of the summarise command, e.g. "8 16" or
// "manual=true 10 20". An invalid range clears the selection.
func (s *Session) RunCommand(ctx context.Context, args string) (*generation.Result, error) {
	if s.client.lock.Held() {
		return nil, s.wrap("RunCommand", ErrOperationInProgress)
	}

	cmd, err := command.Parse(args, s.engine.Len())
	if err != nil {
		s.selector.Clear()
		return nil, s.wrap("RunCommand", err).WithContext("args", args)
	}
	s.selector.Set(cmd.Selection.Start, cmd.Selection.End)

	if cmd.Manual {
		return s.SummarizeManual(ctx)
	}
	return s.Summarize(ctx)
}

// PreviewPrompt assembles the prompt Summarize would send for the current
// selection, without changing anything.
func (s *Session) PreviewPrompt(ctx context.Context) (*compaction.Prompt, error) {
	r, ok := s.selector.Range()
	if !ok {
		return nil, s.wrap("PreviewPrompt", ErrNoSelection)
	}
	p, err := s.engine.Prompt(ctx, r)
	if err != nil {
		return nil, s.wrap("PreviewPrompt", err)
	}
	return p, nil
}

// EntryAt returns a copy of the entry at path in the provenance tree: the
// first index addresses a live summary, each further index descends into
// an archive.
func (s *Session) EntryAt(path ...int) (types.Entry, error) {
	e, err := provenance.GetByPath(s.engine.Entries(), path)
	if err != nil {
		return types.Entry{}, s.wrap("EntryAt", err).WithContext("path", path)
	}
	return e.Clone(), nil
}

// Save persists the live sequence and selection.
func (s *Session) Save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	snapshot := &types.Conversation{
		ID:            s.id,
		UserName:      s.conv.UserName,
		CharacterName: s.conv.CharacterName,
		Entries:       s.engine.Entries(),
		Selection:     s.selector.Current(),
	}
	return s.client.store.SaveConversation(ctx, snapshot)
}

// Reload replaces the live sequence with the stored one.
func (s *Session) Reload(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	conv, err := s.client.store.LoadConversation(ctx, s.id)
	if err != nil {
		return err
	}
	s.engine.ReplaceEntries(conv.Entries)
	return nil
}

func (s *Session) wrap(op string, err error) *SessionError {
	var se *SessionError
	if errors.As(err, &se) && se.ConversationID == s.id {
		return se
	}
	return NewSessionErrorWithConversation(op, s.id, err)
}

var _ generation.Persistence = (*Session)(nil)
