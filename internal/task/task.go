package task

import (
	"database/sql"
	"fmt"
)

// TaskID identifies a submitted query for the lifetime of the process.
// IDs are positive and wrap from math.MaxInt32 back to 1.
type TaskID int32

// TaskState represents the current state of a task
type TaskState int

// Possible task states. A task only ever moves forward through them.
const (
	TaskStatePending TaskState = iota
	TaskStateRunning
	TaskStateDone
)

// String returns the lowercase name of the state
func (s TaskState) String() string {
	switch s {
	case TaskStatePending:
		return "pending"
	case TaskStateRunning:
		return "running"
	case TaskStateDone:
		return "done"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// EntityID is the host's handle for an external entity (for example a
// connected player) that query results can be delivered to.
type EntityID int

// Target identifies where a result callback runs. The zero value is the
// global scope.
type Target struct {
	entity EntityID
	bound  bool
}

// Global is the target for queries that are not tied to any entity.
var Global = Target{}

// Entity returns a target bound to the given entity.
func Entity(id EntityID) Target {
	return Target{entity: id, bound: true}
}

// IsGlobal reports whether the target is the global scope.
func (t Target) IsGlobal() bool {
	return !t.bound
}

// Entity returns the bound entity, if any.
func (t Target) Entity() (EntityID, bool) {
	return t.entity, t.bound
}

// String implements fmt.Stringer for logging
func (t Target) String() string {
	if !t.bound {
		return "global"
	}
	return fmt.Sprintf("entity:%d", t.entity)
}

// Field is a single column value. Valid is false for SQL NULL.
type Field = sql.NullString

// Row is an ordered sequence of column values.
type Row []Field

// Result is the ordered set of rows captured for a query.
// A nil Result means "no value": the query failed, capture was not
// requested, or the statement produced no result set.
type Result []Row

// Task is one submitted query together with its scheduling state.
// All fields are guarded by the owning Scheduler's lock.
type Task struct {
	ID           TaskID
	Query        string
	Capture      bool
	Target       Target
	Disconnected bool
	State        TaskState
	Result       Result

	// conn is the connection bound to the task while it is running
	conn *Connection
}

// Callback receives query outcomes on behalf of the host environment.
// Deliver is invoked from OnTick with the resolved target, the captured
// result (nil for "no value") and the task ID. Implementations own any
// execution context they create and must release it before returning.
type Callback interface {
	Deliver(target Target, result Result, id TaskID)
}

// CallbackFunc adapts an ordinary function to the Callback interface.
type CallbackFunc func(target Target, result Result, id TaskID)

// Deliver calls f(target, result, id).
func (f CallbackFunc) Deliver(target Target, result Result, id TaskID) {
	f(target, result, id)
}
