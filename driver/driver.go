// Package driver provides database driver abstractions for inlinesummary.
//
// This package defines the interfaces that database drivers must implement
// to back storage.PostgresStore. It enables support for multiple database
// backends (pgx/v5, database/sql) through a generic driver pattern.
package driver

import (
	"context"
)

// Driver provides database operations for conversation storage.
// TTx is the native transaction type (e.g., pgx.Tx for pgx/v5, *sql.Tx for database/sql).
//
// Implementations should be created using the driver-specific New() functions:
//   - github.com/youssefsiam38/inlinesummary/driver/pgxv5.New(pool)
//   - github.com/youssefsiam38/inlinesummary/driver/databasesql.New(db)
type Driver[TTx any] interface {
	// GetExecutor returns an executor for non-transactional operations.
	// The returned Executor uses the underlying connection pool.
	GetExecutor() Executor

	// UnwrapExecutor converts a native transaction to an ExecutorTx.
	// This allows stores to work with user-provided transactions.
	UnwrapExecutor(tx TTx) ExecutorTx

	// UnwrapTx extracts the native transaction from an ExecutorTx.
	UnwrapTx(execTx ExecutorTx) TTx

	// Begin starts a new transaction and returns an ExecutorTx.
	Begin(ctx context.Context) (ExecutorTx, error)

	// PoolIsSet returns true if the driver has a database pool configured.
	PoolIsSet() bool
}

// Beginner is an interface for types that can begin transactions.
// This is used internally to handle driver abstraction in non-generic contexts.
type Beginner interface {
	Begin(ctx context.Context) (ExecutorTx, error)
}
