package maintenance

import "errors"

// Errors returned by the maintenance package.
var (
	// ErrAlreadyStarted is returned when Start() is called on a running pruner.
	ErrAlreadyStarted = errors.New("pruner already started")

	// ErrNotStarted is returned when Stop() is called on a pruner that isn't running.
	ErrNotStarted = errors.New("pruner not started")
)
