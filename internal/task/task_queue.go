package task

import (
	"container/list"
	"fmt"
	"math"
	"unicode/utf8"
)

// DefaultMaxQueryLength bounds the stored query text in bytes.
const DefaultMaxQueryLength = 1024

// TaskQueue keeps in-flight tasks in submission order, addressable by id.
//
// TaskQueue does no locking of its own: every method must be called with the
// owning Scheduler's lock held.
type TaskQueue struct {
	order *list.List
	index map[TaskID]*list.Element

	lastID         TaskID
	maxPending     int
	maxQueryLength int
	pending        int
}

// NewTaskQueue creates an empty queue. maxPending <= 0 means unbounded;
// maxQueryLength <= 0 falls back to DefaultMaxQueryLength.
func NewTaskQueue(maxPending, maxQueryLength int) *TaskQueue {
	if maxQueryLength <= 0 {
		maxQueryLength = DefaultMaxQueryLength
	}
	return &TaskQueue{
		order:          list.New(),
		index:          make(map[TaskID]*list.Element),
		maxPending:     maxPending,
		maxQueryLength: maxQueryLength,
	}
}

// Enqueue appends a new Pending task and returns it.
// Returns ErrQueueFull when the pending bound is reached.
func (q *TaskQueue) Enqueue(query string, target Target, capture bool) (*Task, error) {
	if q.maxPending > 0 && q.pending >= q.maxPending {
		return nil, fmt.Errorf("%w: %d tasks pending", ErrQueueFull, q.pending)
	}

	t := &Task{
		ID:      q.nextID(),
		Query:   truncateQuery(query, q.maxQueryLength),
		Capture: capture,
		Target:  target,
		State:   TaskStatePending,
	}
	q.index[t.ID] = q.order.PushBack(t)
	q.pending++
	return t, nil
}

// nextID advances the id counter, wrapping to 1 after math.MaxInt32 and
// skipping ids that still belong to a queued task.
func (q *TaskQueue) nextID() TaskID {
	for {
		if q.lastID == math.MaxInt32 {
			q.lastID = 0
		}
		q.lastID++
		if _, taken := q.index[q.lastID]; !taken {
			return q.lastID
		}
	}
}

// ScanPending returns Pending tasks, oldest first.
func (q *TaskQueue) ScanPending() []*Task {
	return q.scan(TaskStatePending)
}

// ScanDone returns Done tasks in queue order.
func (q *TaskQueue) ScanDone() []*Task {
	return q.scan(TaskStateDone)
}

func (q *TaskQueue) scan(state TaskState) []*Task {
	var tasks []*Task
	for e := q.order.Front(); e != nil; e = e.Next() {
		if t := e.Value.(*Task); t.State == state {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

// Get returns the queued task with the given id.
func (q *TaskQueue) Get(id TaskID) (*Task, bool) {
	e, ok := q.index[id]
	if !ok {
		return nil, false
	}
	return e.Value.(*Task), true
}

// MarkRunning moves a Pending task to Running.
func (q *TaskQueue) MarkRunning(t *Task) {
	if t.State != TaskStatePending {
		return
	}
	t.State = TaskStateRunning
	q.pending--
}

// MarkDone moves a task to Done. Done is terminal.
func (q *TaskQueue) MarkDone(t *Task) {
	if t.State == TaskStatePending {
		q.pending--
	}
	t.State = TaskStateDone
}

// Remove detaches a task from the queue. It reports false if the id is not
// queued, so a second removal is a no-op.
func (q *TaskQueue) Remove(id TaskID) bool {
	e, ok := q.index[id]
	if !ok {
		return false
	}
	if e.Value.(*Task).State == TaskStatePending {
		q.pending--
	}
	q.order.Remove(e)
	delete(q.index, id)
	return true
}

// MarkDisconnected flags every task bound to entity and returns how many
// tasks were touched.
func (q *TaskQueue) MarkDisconnected(entity EntityID) int {
	n := 0
	for e := q.order.Front(); e != nil; e = e.Next() {
		t := e.Value.(*Task)
		if id, ok := t.Target.Entity(); ok && id == entity {
			t.Disconnected = true
			n++
		}
	}
	return n
}

// Len returns the number of queued tasks in any state.
func (q *TaskQueue) Len() int {
	return q.order.Len()
}

// Pending returns the number of tasks waiting for a connection.
func (q *TaskQueue) Pending() int {
	return q.pending
}

// truncateQuery cuts query to at most limit bytes without splitting a rune.
func truncateQuery(query string, limit int) string {
	if len(query) <= limit {
		return query
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(query[cut]) {
		cut--
	}
	return query[:cut]
}
