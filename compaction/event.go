package compaction

import (
	"time"

	"github.com/google/uuid"
)

// Operation names an operation performed on the live sequence.
type Operation string

const (
	OpSummarize  Operation = "summarize"
	OpManual     Operation = "manual"
	OpRestore    Operation = "restore"
	OpRegenerate Operation = "regenerate"
)

// Event describes a completed operation.
type Event struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	Operation      Operation

	// Index is the summary index for summarize, manual and regenerate,
	// and the former summary index for restore.
	Index int

	// Archived is the number of entries held by the summary.
	Archived int

	// PromptTokens is the token cost of the generation prompt, 0 when none was built.
	PromptTokens int

	// GenerationFailed is set when the summary text is a failure diagnostic.
	GenerationFailed bool

	StartedAt time.Time
	Duration  time.Duration
}

// NewEvent returns an Event with a fresh ID, started now.
func NewEvent(conversationID uuid.UUID, op Operation) *Event {
	return &Event{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Operation:      op,
		StartedAt:      time.Now(),
	}
}

// Finish records the operation's duration.
func (e *Event) Finish() {
	e.Duration = time.Since(e.StartedAt)
}
