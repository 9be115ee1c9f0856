package generation

import (
	"errors"
	"fmt"
)

var (
	// ErrOperationInProgress is returned when another operation holds the lock.
	ErrOperationInProgress = errors.New("a summary operation is already in progress")

	// ErrNoSelection is returned when the selection does not span two entries.
	ErrNoSelection = errors.New("no valid range selected")

	// ErrInvalidConfig indicates a missing orchestrator dependency.
	ErrInvalidConfig = errors.New("invalid orchestrator configuration")

	// ErrConfigSwap is matched by every *ConfigSwapError.
	ErrConfigSwap = errors.New("config override swap failed")

	// ErrPrompt is matched by every *PromptError.
	ErrPrompt = errors.New("failed to make summary prompt")

	// ErrGeneration is matched by every *GenerationError.
	ErrGeneration = errors.New("failed to get a response")

	// ErrEmptyResponse is the cause recorded when the generator returns no text.
	ErrEmptyResponse = errors.New("empty response")
)

// ConfigSwapError reports a rejected profile or preset switch.
type ConfigSwapError struct {
	Kind OverrideKind
	Name string
	Err  error
}

func (e *ConfigSwapError) Error() string {
	return fmt.Sprintf("%s: %s %q: %v", ErrConfigSwap, e.Kind, e.Name, e.Err)
}

func (e *ConfigSwapError) Unwrap() []error {
	return []error{ErrConfigSwap, e.Err}
}

// PromptError wraps a prompt assembly failure.
type PromptError struct {
	Err error
}

func (e *PromptError) Error() string {
	return ErrPrompt.Error() + ": " + e.Err.Error()
}

func (e *PromptError) Unwrap() []error {
	return []error{ErrPrompt, e.Err}
}

// GenerationError wraps a failed generation call. It is recorded in the
// Result and in the summary text, never returned.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return ErrGeneration.Error() + ": " + e.Err.Error()
}

func (e *GenerationError) Unwrap() []error {
	return []error{ErrGeneration, e.Err}
}
