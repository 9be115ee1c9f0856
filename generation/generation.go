// Package generation runs AI-backed compaction operations under a single
// process-wide lock.
//
// Each operation follows the same protocol: take the lock, suspend send
// controls, swap in the summarization profile and preset, assemble the
// prompt, dispatch generation, insert and persist the placeholder, wait for
// the result and record it, restore the profile and preset, then release
// everything and clear the selection. Every exit path runs the cleanup steps.
package generation

import (
	"context"
)

// Options are per-call generation parameters.
type Options struct {
	// MaxResponseTokens caps the response length. 0 uses the generator default.
	MaxResponseTokens int
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string, opts Options) (string, error)

// Generate calls f(ctx, prompt, opts).
func (f GeneratorFunc) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	return f(ctx, prompt, opts)
}

// OverrideKind names a generation setting that can be temporarily replaced.
type OverrideKind string

const (
	KindProfile OverrideKind = "profile"
	KindPreset  OverrideKind = "preset"
)

// ConfigOverride switches the active generation profile or preset.
type ConfigOverride interface {
	// Swap activates name and returns the previously active value.
	Swap(ctx context.Context, kind OverrideKind, name string) (previous string, err error)

	// Restore reactivates a value returned by Swap.
	Restore(ctx context.Context, kind OverrideKind, previous string) error
}

// Persistence saves the live sequence and reloads it.
type Persistence interface {
	Save(ctx context.Context) error
	Reload(ctx context.Context) error
}

// ViewRefresh asks the view to bring an entry into view. Best effort.
type ViewRefresh interface {
	RequestScrollTo(index int)
}

// SendControls suspends competing user send actions while a generation runs.
type SendControls interface {
	Suspend()
	Resume()
}
