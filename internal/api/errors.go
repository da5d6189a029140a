package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/asyncsql/internal/task"
)

// MapErrorToStatusCode maps scheduler errors to HTTP status codes.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrSchedulerClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err that never
// includes query text or driver details.
func GetSafeErrorMessage(err error) string {
	switch {
	case errors.Is(err, task.ErrQueueFull):
		return "Query queue is full, retry later"
	case errors.Is(err, task.ErrSchedulerClosed):
		return "Scheduler is shutting down"
	default:
		return "An unexpected error occurred"
	}
}
