package storage_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/youssefsiam38/inlinesummary/compaction"
	"github.com/youssefsiam38/inlinesummary/driver"
	"github.com/youssefsiam38/inlinesummary/driver/databasesql"
	"github.com/youssefsiam38/inlinesummary/driver/pgxv5"
	"github.com/youssefsiam38/inlinesummary/internal/testutil"
	"github.com/youssefsiam38/inlinesummary/storage"
	"github.com/youssefsiam38/inlinesummary/types"
)

// recordingExecutor records the SQL it receives and fails every call.
type recordingExecutor struct {
	name    string
	queries []string
}

var errRecorded = errors.New("recorded")

type failingRow struct{}

func (failingRow) Scan(...any) error { return errRecorded }

func (r *recordingExecutor) Begin(context.Context) (driver.ExecutorTx, error) {
	return nil, errRecorded
}

func (r *recordingExecutor) Exec(_ context.Context, sql string, _ ...any) (int64, error) {
	r.queries = append(r.queries, sql)
	return 0, errRecorded
}

func (r *recordingExecutor) Query(_ context.Context, sql string, _ ...any) (driver.Rows, error) {
	r.queries = append(r.queries, sql)
	return nil, errRecorded
}

func (r *recordingExecutor) QueryRow(_ context.Context, sql string, _ ...any) driver.Row {
	r.queries = append(r.queries, sql)
	return failingRow{}
}

type recordingTx struct{ recordingExecutor }

func (*recordingTx) Commit(context.Context) error   { return nil }
func (*recordingTx) Rollback(context.Context) error { return nil }

func TestPostgresStoreUsesContextTransaction(t *testing.T) {
	pool := &recordingExecutor{name: "pool"}
	tx := &recordingTx{recordingExecutor{name: "tx"}}
	s := storage.NewPostgresStore(pool)

	ctx := driver.WithExecutor(context.Background(), tx)
	if _, err := s.LoadConversation(ctx, uuid.New()); !errors.Is(err, errRecorded) {
		t.Fatalf("LoadConversation() error = %v, want recorded error", err)
	}
	if len(tx.queries) != 1 || len(pool.queries) != 0 {
		t.Errorf("tx queries = %d, pool queries = %d; want 1, 0", len(tx.queries), len(pool.queries))
	}

	if _, err := s.LoadConversation(context.Background(), uuid.New()); !errors.Is(err, errRecorded) {
		t.Fatalf("LoadConversation() error = %v, want recorded error", err)
	}
	if len(pool.queries) != 1 {
		t.Errorf("pool queries = %d, want 1", len(pool.queries))
	}
}

func integrationStores(t *testing.T) map[string]storage.Store {
	t.Helper()
	testutil.RequireIntegration(t)

	db := testutil.NewTestDB(t)
	t.Cleanup(db.Close)

	ctx := context.Background()
	if err := db.ApplySchema(ctx, storage.Schema); err != nil {
		t.Fatalf("ApplySchema() error = %v", err)
	}
	if err := db.CleanTables(ctx); err != nil {
		t.Fatalf("Failed to clean tables: %v", err)
	}

	sqlDrv, err := databasesql.Open(db.URL)
	if err != nil {
		t.Fatalf("databasesql.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = sqlDrv.Close() })

	return map[string]storage.Store{
		"pgxv5":       storage.NewPostgresStore(pgxv5.New(db.Pool).GetExecutor()),
		"databasesql": storage.NewPostgresStore(sqlDrv.GetExecutor()),
	}
}

func TestIntegration_PostgresStore_ConversationLifecycle(t *testing.T) {
	for name, store := range integrationStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			start, end := 1, 2
			conv := &types.Conversation{
				UserName:      "Alice",
				CharacterName: "Bob",
				Entries: []types.Entry{
					{Name: "Alice", Role: types.RoleUser, Text: "hello"},
					{Name: "Summary", Role: types.RoleAssistant, Text: "S", Archive: []types.Entry{
						{Name: "Bob", Role: types.RoleAssistant, Text: "a"},
						{Name: "Alice", Role: types.RoleUser, Text: "b"},
					}},
					{Name: "Bob", Role: types.RoleAssistant, Text: "bye"},
				},
				Selection: types.Selection{Start: &start, End: &end},
			}

			if err := store.CreateConversation(ctx, conv); err != nil {
				t.Fatalf("CreateConversation failed: %v", err)
			}
			if err := store.CreateConversation(ctx, conv); !errors.Is(err, storage.ErrConversationExists) {
				t.Errorf("duplicate CreateConversation error = %v, want ErrConversationExists", err)
			}

			got, err := store.LoadConversation(ctx, conv.ID)
			if err != nil {
				t.Fatalf("LoadConversation failed: %v", err)
			}
			if !reflect.DeepEqual(got, conv) {
				t.Errorf("LoadConversation = %+v, want %+v", got, conv)
			}

			got.Entries = got.Entries[:1]
			got.Selection = types.Selection{}
			if err := store.SaveConversation(ctx, got); err != nil {
				t.Fatalf("SaveConversation failed: %v", err)
			}
			reloaded, err := store.LoadConversation(ctx, conv.ID)
			if err != nil {
				t.Fatalf("LoadConversation failed: %v", err)
			}
			if len(reloaded.Entries) != 1 || !reloaded.Selection.IsEmpty() {
				t.Errorf("reloaded = %+v, want one entry and empty selection", reloaded)
			}

			event := compaction.NewEvent(conv.ID, compaction.OpSummarize)
			event.Index, event.Archived, event.PromptTokens = 1, 2, 30
			event.Finish()
			if err := store.SaveEvent(ctx, event); err != nil {
				t.Fatalf("SaveEvent failed: %v", err)
			}
			events, err := store.GetEvents(ctx, conv.ID)
			if err != nil {
				t.Fatalf("GetEvents failed: %v", err)
			}
			if len(events) != 1 || events[0].ID != event.ID || events[0].Archived != 2 {
				t.Errorf("GetEvents = %+v, want the saved event", events)
			}

			if err := store.DeleteConversation(ctx, conv.ID); err != nil {
				t.Fatalf("DeleteConversation failed: %v", err)
			}
			if _, err := store.LoadConversation(ctx, conv.ID); !errors.Is(err, storage.ErrConversationNotFound) {
				t.Errorf("LoadConversation after delete error = %v, want ErrConversationNotFound", err)
			}
		})
	}
}

func TestIntegration_PostgresStore_Transaction(t *testing.T) {
	testutil.RequireIntegration(t)

	db := testutil.NewTestDB(t)
	defer db.Close()

	ctx := context.Background()
	if err := db.ApplySchema(ctx, storage.Schema); err != nil {
		t.Fatalf("ApplySchema() error = %v", err)
	}
	if err := db.CleanTables(ctx); err != nil {
		t.Fatalf("Failed to clean tables: %v", err)
	}

	drv := pgxv5.New(db.Pool)
	store := storage.NewPostgresStore(drv.GetExecutor())

	tx, err := drv.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	conv := &types.Conversation{UserName: "Alice"}
	if err := store.CreateConversation(driver.WithExecutor(ctx, tx), conv); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	if _, err := store.LoadConversation(ctx, conv.ID); !errors.Is(err, storage.ErrConversationNotFound) {
		t.Errorf("LoadConversation after rollback error = %v, want ErrConversationNotFound", err)
	}
}
