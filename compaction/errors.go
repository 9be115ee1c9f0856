package compaction

import (
	"errors"
	"fmt"
)

// Sentinel errors for compaction operations.
var (
	// ErrInvalidConfig indicates invalid compaction settings.
	ErrInvalidConfig = errors.New("invalid compaction configuration")

	// ErrConfig is matched by every *ConfigError.
	ErrConfig = errors.New("backend configuration error")

	// ErrUnsupportedBackend indicates the backend cannot report its context size.
	ErrUnsupportedBackend = errors.New("unsupported backend")

	// ErrBudgetExceeded is matched by every *BudgetExceededError.
	ErrBudgetExceeded = errors.New("token budget exceeded")

	// ErrTokenCountingFailed indicates token counting failed.
	ErrTokenCountingFailed = errors.New("token counting failed")

	// ErrInvalidRange indicates a range that does not select at least two live entries.
	ErrInvalidRange = errors.New("invalid compaction range")

	// ErrNotSummary indicates the addressed entry has no archive.
	ErrNotSummary = errors.New("entry is not a summary")

	// ErrIndexOutOfRange indicates an index outside the live sequence.
	ErrIndexOutOfRange = errors.New("entry index out of range")
)

// Budget failure reasons.
const (
	ReasonInstructionsTooLarge = "instructions too large"
	ReasonContentTooLarge      = "content too large"
	ReasonFinalPromptTooLarge  = "final prompt exceeded context"
)

// ConfigError reports an unsupported or misconfigured backend.
type ConfigError struct {
	Err error
}

// NewConfigError wraps err as a ConfigError.
func NewConfigError(err error) *ConfigError {
	return &ConfigError{Err: err}
}

func (e *ConfigError) Error() string {
	if e.Err == nil {
		return ErrConfig.Error()
	}
	return ErrConfig.Error() + ": " + e.Err.Error()
}

// Unwrap exposes both ErrConfig and the underlying cause.
func (e *ConfigError) Unwrap() []error {
	return []error{ErrConfig, e.Err}
}

// BudgetExceededError reports a prompt segment that does not fit the
// context window. Instructions and explicit content are never truncated.
type BudgetExceededError struct {
	// Reason is one of the Reason* constants.
	Reason string

	// Used is the number of tokens consumed when the check failed.
	Used int

	// Available is the prompt budget: context size minus response reservation.
	Available int
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("%s: %s (%d of %d tokens)", ErrBudgetExceeded, e.Reason, e.Used, e.Available)
}

// Unwrap returns ErrBudgetExceeded.
func (e *BudgetExceededError) Unwrap() error {
	return ErrBudgetExceeded
}

// CompactionError provides structured error context for compaction operations.
type CompactionError struct {
	// Op is the operation that failed (e.g., "Compact", "Restore")
	Op string

	// Err is the underlying error
	Err error

	// Context holds additional key-value pairs for debugging
	Context map[string]any
}

// Error returns a formatted error message.
func (e *CompactionError) Error() string {
	msg := fmt.Sprintf("compaction %s failed", e.Op)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *CompactionError) Unwrap() error {
	return e.Err
}

// NewCompactionError creates a new CompactionError with the given operation and underlying error.
func NewCompactionError(op string, err error) *CompactionError {
	return &CompactionError{
		Op:      op,
		Err:     err,
		Context: make(map[string]any),
	}
}

// WithContext adds a key-value pair to the error context and returns the error for chaining.
func (e *CompactionError) WithContext(key string, value any) *CompactionError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WrapError wraps an error with operation context. If err is nil, returns nil.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return NewCompactionError(op, err)
}
