// Package selection holds the pending range selection over a conversation's
// live entries and notifies view collaborators whenever it changes.
package selection

import (
	"sync"

	"github.com/youssefsiam38/inlinesummary/types"
)

// Listener is called synchronously after every selection mutation with a
// copy of the new selection.
type Listener func(sel types.Selection)

// Selector mutates a conversation's selection. It does not own the
// selection value; it edits the one persisted with the conversation.
type Selector struct {
	mu        sync.Mutex
	sel       *types.Selection
	listeners []Listener
}

// New creates a Selector editing sel. A nil sel gets a private zero selection.
func New(sel *types.Selection) *Selector {
	if sel == nil {
		sel = &types.Selection{}
	}
	return &Selector{sel: sel}
}

// OnChange registers a listener for selection changes
func (s *Selector) OnChange(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// SetStart sets the start bound.
func (s *Selector) SetStart(index int) {
	s.update(func(sel *types.Selection) {
		sel.Start = &index
	})
}

// SetEnd sets the end bound.
func (s *Selector) SetEnd(index int) {
	s.update(func(sel *types.Selection) {
		sel.End = &index
	})
}

// Set sets both bounds in one mutation. Nil leaves a bound unset.
func (s *Selector) Set(start, end *int) {
	s.update(func(sel *types.Selection) {
		*sel = types.Selection{Start: start, End: end}.Copy()
	})
}

// Clear unsets both bounds.
func (s *Selector) Clear() {
	s.update(func(sel *types.Selection) {
		*sel = types.Selection{}
	})
}

// IsValid reports whether both bounds are set and end-start >= 1.
func (s *Selector) IsValid() bool {
	return s.Current().IsValid()
}

// Contains reports whether index lies within the selected range.
func (s *Selector) Contains(index int) bool {
	return s.Current().Contains(index)
}

// Range returns the selected range, or ok=false when the selection is not valid.
func (s *Selector) Range() (types.Range, bool) {
	return s.Current().Range()
}

// Current returns a copy of the selection.
func (s *Selector) Current() types.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.Copy()
}

func (s *Selector) update(fn func(sel *types.Selection)) {
	s.mu.Lock()
	fn(s.sel)
	snapshot := s.sel.Copy()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}
