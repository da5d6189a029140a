package api

import (
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/phrazzld/asyncsql/internal/task"
)

// ResultStore keeps the most recently delivered results so HTTP clients can
// poll for them. It is the scheduler's Callback in the server.
type ResultStore struct {
	cache  *lru.Cache[task.TaskID, ResultBody]
	logger *slog.Logger
}

// NewResultStore creates a store holding at most size results.
func NewResultStore(size int, logger *slog.Logger) (*ResultStore, error) {
	cache, err := lru.New[task.TaskID, ResultBody](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}
	return &ResultStore{cache: cache, logger: logger}, nil
}

// Deliver implements task.Callback.
func (s *ResultStore) Deliver(target task.Target, result task.Result, id task.TaskID) {
	if evicted := s.cache.Add(id, NewResultBody(id, target, result)); evicted {
		s.logger.Debug("result cache full, evicted oldest result")
	}
}

// Get returns the delivered result for id. Results that were never
// delivered, or were evicted, are reported as missing.
func (s *ResultStore) Get(id task.TaskID) (ResultBody, bool) {
	return s.cache.Get(id)
}

// Len returns the number of stored results.
func (s *ResultStore) Len() int {
	return s.cache.Len()
}
