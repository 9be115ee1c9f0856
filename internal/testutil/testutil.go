// Package testutil provides test utilities for inlinesummary
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Tables lists the store's tables, children first.
var Tables = []string{
	"inlinesummary_events",
	"inlinesummary_conversations",
}

// TestDB wraps a PostgreSQL connection pool for testing
type TestDB struct {
	Pool *pgxpool.Pool
	URL  string
}

// NewTestDB creates a test database connection from DATABASE_URL env var.
// The test is skipped if DATABASE_URL is not set.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Fatalf("Failed to ping database: %v", err)
	}

	return &TestDB{Pool: pool, URL: dbURL}
}

// Close closes the database connection
func (db *TestDB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// ApplySchema executes schema, typically storage.Schema.
func (db *TestDB) ApplySchema(ctx context.Context, schema string) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// CleanTables truncates all tables for test isolation
func (db *TestDB) CleanTables(ctx context.Context) error {
	for _, table := range Tables {
		_, err := db.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}

	return nil
}

// SetupTestConversation inserts an empty conversation and returns its ID.
func (db *TestDB) SetupTestConversation(ctx context.Context, t *testing.T) string {
	t.Helper()

	var id string
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO inlinesummary_conversations (id, user_name, character_name, entries, selection, created_at, updated_at)
		VALUES (gen_random_uuid(), 'test-user', 'test-character', '[]', '{}', NOW(), NOW())
		RETURNING id::text
	`).Scan(&id)

	if err != nil {
		t.Fatalf("Failed to create test conversation: %v", err)
	}

	return id
}

// RequireIntegration skips the test if not running integration tests
func RequireIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("Skipping integration test: DATABASE_URL not set")
	}
}
