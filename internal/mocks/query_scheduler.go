package mocks

import (
	"sync"

	"github.com/phrazzld/asyncsql/internal/task"
)

// EnqueueCall records a single Enqueue invocation
type EnqueueCall struct {
	Query   string
	Target  task.Target
	Capture bool
}

// MockQueryScheduler implements api.QueryScheduler for testing
type MockQueryScheduler struct {
	// Custom behavior functions
	EnqueueFn func(query string, target task.Target, capture bool) (task.TaskID, error)

	// Default response values
	NextID   task.TaskID
	Err      error
	StatsVal task.Stats

	mu              sync.Mutex
	enqueueCalls    []EnqueueCall
	disconnectCalls []task.EntityID
}

// Enqueue implements api.QueryScheduler
func (m *MockQueryScheduler) Enqueue(query string, target task.Target, capture bool) (task.TaskID, error) {
	m.mu.Lock()
	m.enqueueCalls = append(m.enqueueCalls, EnqueueCall{Query: query, Target: target, Capture: capture})
	m.mu.Unlock()

	if m.EnqueueFn != nil {
		return m.EnqueueFn(query, target, capture)
	}
	if m.Err != nil {
		return 0, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.NextID++
	return m.NextID, nil
}

// NotifyDisconnected implements api.QueryScheduler
func (m *MockQueryScheduler) NotifyDisconnected(entity task.EntityID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnectCalls = append(m.disconnectCalls, entity)
}

// Stats implements api.QueryScheduler
func (m *MockQueryScheduler) Stats() task.Stats {
	return m.StatsVal
}

// EnqueueCalls returns a copy of the recorded Enqueue calls
func (m *MockQueryScheduler) EnqueueCalls() []EnqueueCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]EnqueueCall(nil), m.enqueueCalls...)
}

// DisconnectCalls returns a copy of the recorded NotifyDisconnected calls
func (m *MockQueryScheduler) DisconnectCalls() []task.EntityID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]task.EntityID(nil), m.disconnectCalls...)
}
