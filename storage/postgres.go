package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/youssefsiam38/inlinesummary/compaction"
	"github.com/youssefsiam38/inlinesummary/driver"
	"github.com/youssefsiam38/inlinesummary/types"
)

// Schema creates the tables used by PostgresStore.
const Schema = `
CREATE TABLE IF NOT EXISTS inlinesummary_conversations (
	id             UUID PRIMARY KEY,
	user_name      TEXT NOT NULL DEFAULT '',
	character_name TEXT NOT NULL DEFAULT '',
	entries        JSONB NOT NULL DEFAULT '[]',
	selection      JSONB NOT NULL DEFAULT '{}',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS inlinesummary_events (
	id                UUID PRIMARY KEY,
	conversation_id   UUID NOT NULL REFERENCES inlinesummary_conversations(id) ON DELETE CASCADE,
	operation         TEXT NOT NULL,
	summary_index     INTEGER NOT NULL,
	archived          INTEGER NOT NULL DEFAULT 0,
	prompt_tokens     INTEGER NOT NULL DEFAULT 0,
	generation_failed BOOLEAN NOT NULL DEFAULT FALSE,
	started_at        TIMESTAMPTZ NOT NULL,
	duration_us       BIGINT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS inlinesummary_events_conversation_idx
	ON inlinesummary_events (conversation_id, started_at);
`

// PostgresStore implements Store on any driver.Executor. Operations join the
// transaction carried by the context when there is one.
type PostgresStore struct {
	exec driver.Executor
}

// NewPostgresStore creates a new PostgreSQL store.
func NewPostgresStore(exec driver.Executor) *PostgresStore {
	return &PostgresStore{exec: exec}
}

// getExecutor returns the transaction from context if present, otherwise the default executor.
func (s *PostgresStore) getExecutor(ctx context.Context) driver.Executor {
	if tx := driver.ExecutorFromContext(ctx); tx != nil {
		return tx
	}
	return s.exec
}

// Migrate creates the store's tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.getExecutor(ctx).Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// CreateConversation inserts conv, assigning an ID when it has none.
func (s *PostgresStore) CreateConversation(ctx context.Context, conv *types.Conversation) error {
	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}
	entries, selection, err := encodeConversation(conv)
	if err != nil {
		return err
	}

	_, err = s.getExecutor(ctx).Exec(ctx, `
		INSERT INTO inlinesummary_conversations (id, user_name, character_name, entries, selection, created_at, updated_at)
		VALUES ($1::uuid, $2, $3, $4::jsonb, $5::jsonb, NOW(), NOW())
	`, conv.ID.String(), conv.UserName, conv.CharacterName, entries, selection)
	if errors.Is(err, driver.ErrUniqueViolation) {
		return fmt.Errorf("%w: %s", ErrConversationExists, conv.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

// LoadConversation retrieves a conversation by ID.
func (s *PostgresStore) LoadConversation(ctx context.Context, id uuid.UUID) (*types.Conversation, error) {
	var (
		conv               types.Conversation
		rawID              string
		entries, selection []byte
	)
	err := s.getExecutor(ctx).QueryRow(ctx, `
		SELECT id::text, user_name, character_name, entries, selection
		FROM inlinesummary_conversations
		WHERE id = $1::uuid
	`, id.String()).Scan(&rawID, &conv.UserName, &conv.CharacterName, &entries, &selection)
	if errors.Is(err, driver.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	if conv.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("failed to parse conversation id: %w", err)
	}
	if err := json.Unmarshal(entries, &conv.Entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entries: %w", err)
	}
	if err := json.Unmarshal(selection, &conv.Selection); err != nil {
		return nil, fmt.Errorf("failed to unmarshal selection: %w", err)
	}
	return &conv, nil
}

// SaveConversation overwrites the stored layout of an existing conversation.
func (s *PostgresStore) SaveConversation(ctx context.Context, conv *types.Conversation) error {
	entries, selection, err := encodeConversation(conv)
	if err != nil {
		return err
	}

	n, err := s.getExecutor(ctx).Exec(ctx, `
		UPDATE inlinesummary_conversations
		SET user_name = $2, character_name = $3, entries = $4::jsonb, selection = $5::jsonb, updated_at = NOW()
		WHERE id = $1::uuid
	`, conv.ID.String(), conv.UserName, conv.CharacterName, entries, selection)
	if err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, conv.ID)
	}
	return nil
}

// DeleteConversation removes a conversation. Its events go with it.
func (s *PostgresStore) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	n, err := s.getExecutor(ctx).Exec(ctx, `
		DELETE FROM inlinesummary_conversations WHERE id = $1::uuid
	`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	return nil
}

// SaveEvent records a completed operation.
func (s *PostgresStore) SaveEvent(ctx context.Context, event *compaction.Event) error {
	_, err := s.getExecutor(ctx).Exec(ctx, `
		INSERT INTO inlinesummary_events (
			id, conversation_id, operation, summary_index, archived,
			prompt_tokens, generation_failed, started_at, duration_us
		) VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, $8, $9)
	`,
		event.ID.String(),
		event.ConversationID.String(),
		string(event.Operation),
		event.Index,
		event.Archived,
		event.PromptTokens,
		event.GenerationFailed,
		event.StartedAt,
		event.Duration.Microseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}
	return nil
}

// GetEvents returns a conversation's events, oldest first.
func (s *PostgresStore) GetEvents(ctx context.Context, conversationID uuid.UUID) ([]*compaction.Event, error) {
	rows, err := s.getExecutor(ctx).Query(ctx, `
		SELECT id::text, operation, summary_index, archived, prompt_tokens,
		       generation_failed, started_at, duration_us
		FROM inlinesummary_events
		WHERE conversation_id = $1::uuid
		ORDER BY started_at ASC
	`, conversationID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*compaction.Event
	for rows.Next() {
		var (
			e          compaction.Event
			rawID, op  string
			durationUS int64
		)
		if err := rows.Scan(&rawID, &op, &e.Index, &e.Archived, &e.PromptTokens,
			&e.GenerationFailed, &e.StartedAt, &durationUS); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if e.ID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("failed to parse event id: %w", err)
		}
		e.ConversationID = conversationID
		e.Operation = compaction.Operation(op)
		e.Duration = time.Duration(durationUS) * time.Microsecond
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

// DeleteEventsBefore removes events that started before the cutoff.
func (s *PostgresStore) DeleteEventsBefore(ctx context.Context, before time.Time) (int, error) {
	n, err := s.getExecutor(ctx).Exec(ctx, `
		DELETE FROM inlinesummary_events WHERE started_at < $1
	`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete events: %w", err)
	}
	return int(n), nil
}

func encodeConversation(conv *types.Conversation) (entries, selection string, err error) {
	entryList := conv.Entries
	if entryList == nil {
		entryList = []types.Entry{}
	}
	e, err := json.Marshal(entryList)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal entries: %w", err)
	}
	sel, err := json.Marshal(conv.Selection)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal selection: %w", err)
	}
	return string(e), string(sel), nil
}

var _ Store = (*PostgresStore)(nil)
