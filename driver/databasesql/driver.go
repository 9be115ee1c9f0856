// Package databasesql provides a database/sql driver implementation for
// inlinesummary, using lib/pq as the PostgreSQL driver.
package databasesql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/lib/pq"

	"github.com/youssefsiam38/inlinesummary/driver"
)

// Driver implements driver.Driver using database/sql.
type Driver struct {
	db *sql.DB
}

// New creates a new database/sql driver using the provided connection.
func New(db *sql.DB) *Driver {
	return &Driver{db: db}
}

// Open opens a PostgreSQL connection through lib/pq and wraps it in a Driver.
func Open(connStr string) (*Driver, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return New(db), nil
}

// GetExecutor returns an executor for non-transactional operations.
func (d *Driver) GetExecutor() driver.Executor {
	return &Executor{db: d.db}
}

// UnwrapExecutor converts a *sql.Tx to an ExecutorTx.
func (d *Driver) UnwrapExecutor(tx *sql.Tx) driver.ExecutorTx {
	return &ExecutorTx{tx: tx}
}

// UnwrapTx extracts the *sql.Tx from an ExecutorTx.
func (d *Driver) UnwrapTx(execTx driver.ExecutorTx) *sql.Tx {
	return execTx.(*ExecutorTx).tx
}

// Begin starts a new transaction and returns an ExecutorTx.
func (d *Driver) Begin(ctx context.Context) (driver.ExecutorTx, error) {
	return d.GetExecutor().Begin(ctx)
}

// PoolIsSet returns true if the driver has a database configured.
func (d *Driver) PoolIsSet() bool {
	return d.db != nil
}

// DB returns the underlying database connection.
func (d *Driver) DB() *sql.DB {
	return d.db
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.db.Close()
}

// Executor wraps *sql.DB for non-transactional operations.
type Executor struct {
	db *sql.DB
}

// Begin starts a new transaction.
func (e *Executor) Begin(ctx context.Context) (driver.ExecutorTx, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &ExecutorTx{tx: tx}, nil
}

// Exec executes a query that doesn't return rows.
func (e *Executor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return exec(e.db.ExecContext(ctx, query, args...))
}

// Query executes a query that returns rows.
func (e *Executor) Query(ctx context.Context, query string, args ...any) (driver.Rows, error) {
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	return &rowsWrapper{rows}, nil
}

// QueryRow executes a query that returns at most one row.
func (e *Executor) QueryRow(ctx context.Context, query string, args ...any) driver.Row {
	return rowWrapper{e.db.QueryRowContext(ctx, query, args...)}
}

var savepointSeq atomic.Uint64

// ExecutorTx wraps *sql.Tx. A non-empty savepoint marks a nested transaction.
type ExecutorTx struct {
	tx        *sql.Tx
	savepoint string
}

// Begin starts a nested transaction using a savepoint.
func (e *ExecutorTx) Begin(ctx context.Context) (driver.ExecutorTx, error) {
	name := fmt.Sprintf("inlinesummary_sp_%d", savepointSeq.Add(1))
	if _, err := e.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return nil, err
	}
	return &ExecutorTx{tx: e.tx, savepoint: name}, nil
}

// Exec executes a query that doesn't return rows within the transaction.
func (e *ExecutorTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return exec(e.tx.ExecContext(ctx, query, args...))
}

// Query executes a query that returns rows within the transaction.
func (e *ExecutorTx) Query(ctx context.Context, query string, args ...any) (driver.Rows, error) {
	rows, err := e.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	return &rowsWrapper{rows}, nil
}

// QueryRow executes a query that returns at most one row within the transaction.
func (e *ExecutorTx) QueryRow(ctx context.Context, query string, args ...any) driver.Row {
	return rowWrapper{e.tx.QueryRowContext(ctx, query, args...)}
}

// Commit commits the transaction, or releases the savepoint when nested.
func (e *ExecutorTx) Commit(ctx context.Context) error {
	if e.savepoint != "" {
		_, err := e.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+e.savepoint)
		return err
	}
	return e.tx.Commit()
}

// Rollback rolls back the transaction, or to the savepoint when nested.
func (e *ExecutorTx) Rollback(ctx context.Context) error {
	if e.savepoint != "" {
		_, err := e.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+e.savepoint)
		return err
	}
	return e.tx.Rollback()
}

func exec(result sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, translate(err)
	}
	return result.RowsAffected()
}

type rowWrapper struct {
	row *sql.Row
}

func (r rowWrapper) Scan(dest ...any) error {
	return translate(r.row.Scan(dest...))
}

type rowsWrapper struct {
	*sql.Rows
}

func (r *rowsWrapper) Close() {
	_ = r.Rows.Close()
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Join(driver.ErrNoRows, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == driver.UniqueViolationCode {
		return errors.Join(driver.ErrUniqueViolation, err)
	}
	return err
}

// Compile-time check
var _ driver.Driver[*sql.Tx] = (*Driver)(nil)
