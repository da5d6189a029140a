package task

import (
	"errors"
	"fmt"
)

// Common errors returned by the Scheduler
var (
	ErrAlreadyInitialized = errors.New("scheduler already initialized")
	ErrMissingCallback    = errors.New("result callback is required")
	ErrInvalidPoolSize    = errors.New("connection count must be positive")
	ErrPoolNotInitialized = errors.New("connection pool not initialized")
	ErrDispatcherRunning  = errors.New("dispatcher already started")
	ErrQueueFull          = errors.New("task queue is full")
	ErrSchedulerClosed    = errors.New("scheduler is closed")
)

// ConnectionInitError reports a pool slot whose connection could not be
// opened. The slot stays unusable for the lifetime of the pool.
type ConnectionInitError struct {
	Slot int
	Err  error
}

// Error implements the error interface for ConnectionInitError.
func (e *ConnectionInitError) Error() string {
	return fmt.Sprintf("connection %d failed to open: %v", e.Slot, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ConnectionInitError) Unwrap() error {
	return e.Err
}

// UnknownErrorCode is logged for failures that carry no driver error code,
// such as timeouts or dropped connections.
const UnknownErrorCode = "HY000"
