// Package storage persists conversations and the operations applied to them.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/youssefsiam38/inlinesummary/compaction"
	"github.com/youssefsiam38/inlinesummary/types"
)

var (
	// ErrConversationNotFound is returned when no conversation has the requested ID.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrConversationExists is returned when creating a conversation whose ID is taken.
	ErrConversationExists = errors.New("conversation already exists")
)

// Store defines the storage interface for conversations.
type Store interface {
	// Conversation operations
	CreateConversation(ctx context.Context, conv *types.Conversation) error
	LoadConversation(ctx context.Context, id uuid.UUID) (*types.Conversation, error)
	SaveConversation(ctx context.Context, conv *types.Conversation) error
	DeleteConversation(ctx context.Context, id uuid.UUID) error

	// Operation history
	SaveEvent(ctx context.Context, event *compaction.Event) error
	GetEvents(ctx context.Context, conversationID uuid.UUID) ([]*compaction.Event, error)
	DeleteEventsBefore(ctx context.Context, before time.Time) (int, error)
}
