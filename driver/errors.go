package driver

import "errors"

// Driver-neutral errors. Drivers translate their native errors to these so
// stores can match them with errors.Is.
var (
	// ErrNoRows is returned by Row.Scan when the query matched nothing.
	ErrNoRows = errors.New("no rows in result set")

	// ErrUniqueViolation is returned when an insert conflicts with an existing key.
	ErrUniqueViolation = errors.New("unique constraint violation")
)

// UniqueViolationCode is the PostgreSQL SQLSTATE for unique_violation.
const UniqueViolationCode = "23505"
