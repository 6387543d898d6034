package domain

import "errors"

var (
	// ErrValidation marks malformed caller input. Never retried.
	ErrValidation = errors.New("validation failed")
	// ErrConflict is returned once store contention outlasts the retry budget.
	// Callers may resubmit.
	ErrConflict = errors.New("write conflict: retries exhausted")
	// ErrStore wraps non-retryable backing store failures.
	ErrStore = errors.New("store failure")
	// ErrInsufficientData means fewer than two businesses are known.
	ErrInsufficientData = errors.New("insufficient data: at least two businesses are required")
	// ErrAlreadyRunning rejects a generator start while a job exists.
	ErrAlreadyRunning = errors.New("generator already running")
	// ErrNotRunning rejects a generator stop while no job is active.
	ErrNotRunning = errors.New("generator not running")
	// ErrStartAborted is returned by a start that was stopped before its ticker was armed.
	ErrStartAborted = errors.New("generator start aborted by stop request")
	// ErrControllerClosed rejects a generator start after shutdown.
	ErrControllerClosed = errors.New("generator controller is shut down")
)
