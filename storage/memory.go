package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/youssefsiam38/inlinesummary/compaction"
	"github.com/youssefsiam38/inlinesummary/types"
)

// MemoryStore implements Store in process memory. Conversations are held in
// their encoded form so callers never share entries with the store.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[uuid.UUID][]byte
	events        map[uuid.UUID][]compaction.Event
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[uuid.UUID][]byte),
		events:        make(map[uuid.UUID][]compaction.Event),
	}
}

// CreateConversation stores conv, assigning an ID when it has none.
func (s *MemoryStore) CreateConversation(_ context.Context, conv *types.Conversation) error {
	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[conv.ID]; ok {
		return fmt.Errorf("%w: %s", ErrConversationExists, conv.ID)
	}
	s.conversations[conv.ID] = data
	return nil
}

// LoadConversation returns a fresh copy of the stored conversation.
func (s *MemoryStore) LoadConversation(_ context.Context, id uuid.UUID) (*types.Conversation, error) {
	s.mu.RLock()
	data, ok := s.conversations[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}

	var conv types.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("unmarshal conversation: %w", err)
	}
	return &conv, nil
}

// SaveConversation overwrites an existing conversation.
func (s *MemoryStore) SaveConversation(_ context.Context, conv *types.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[conv.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, conv.ID)
	}
	s.conversations[conv.ID] = data
	return nil
}

// DeleteConversation removes a conversation and its events.
func (s *MemoryStore) DeleteConversation(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[id]; !ok {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	delete(s.conversations, id)
	delete(s.events, id)
	return nil
}

// SaveEvent appends event to its conversation's history.
func (s *MemoryStore) SaveEvent(_ context.Context, event *compaction.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[event.ConversationID]; !ok {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, event.ConversationID)
	}
	s.events[event.ConversationID] = append(s.events[event.ConversationID], *event)
	return nil
}

// GetEvents returns a conversation's events, oldest first.
func (s *MemoryStore) GetEvents(_ context.Context, conversationID uuid.UUID) ([]*compaction.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.events[conversationID]
	out := make([]*compaction.Event, len(stored))
	for i := range stored {
		e := stored[i]
		out[i] = &e
	}
	return out, nil
}

// DeleteEventsBefore removes events that started before the cutoff and
// returns how many were removed.
func (s *MemoryStore) DeleteEventsBefore(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, stored := range s.events {
		kept := stored[:0]
		for _, e := range stored {
			if e.StartedAt.Before(before) {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		s.events[id] = kept
	}
	return removed, nil
}

var _ Store = (*MemoryStore)(nil)
