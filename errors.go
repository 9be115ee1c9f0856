package inlinesummary

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/youssefsiam38/inlinesummary/generation"
	"github.com/youssefsiam38/inlinesummary/storage"
)

// Common errors
var (
	// ErrInvalidConfig is returned when the client configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConversationNotFound is returned when a conversation does not exist
	ErrConversationNotFound = storage.ErrConversationNotFound

	// ErrOperationInProgress is returned while any session's AI operation
	// holds the process-wide lock
	ErrOperationInProgress = generation.ErrOperationInProgress

	// ErrNoSelection is returned when compacting without a valid range
	ErrNoSelection = generation.ErrNoSelection

	// ErrClientClosed is returned when opening a session on a closed client
	ErrClientClosed = errors.New("client closed")
)

// SessionError represents an error with additional context
type SessionError struct {
	Op             string         // Operation that failed
	Err            error          // Underlying error
	ConversationID uuid.UUID      // Conversation ID if applicable
	Context        map[string]any // Additional context
}

// Error implements the error interface
func (e *SessionError) Error() string {
	if e.ConversationID != uuid.Nil {
		return fmt.Sprintf("%s (conversation=%s): %v", e.Op, e.ConversationID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *SessionError) Unwrap() error {
	return e.Err
}

// WithContext adds additional context to the error
func (e *SessionError) WithContext(key string, value any) *SessionError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// NewSessionError creates a new SessionError
func NewSessionError(op string, err error) *SessionError {
	return &SessionError{
		Op:  op,
		Err: err,
	}
}

// NewSessionErrorWithConversation creates a new SessionError with a conversation ID
func NewSessionErrorWithConversation(op string, conversationID uuid.UUID, err error) *SessionError {
	return &SessionError{
		Op:             op,
		Err:            err,
		ConversationID: conversationID,
	}
}
