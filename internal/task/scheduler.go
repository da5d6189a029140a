package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/asyncsql/internal/redact"
)

// SchedulerConfig holds configuration for the scheduler
type SchedulerConfig struct {
	// DispatchInterval is the fallback period between dispatcher cycles when
	// no enqueue or connection release wakes it earlier
	DispatchInterval time.Duration

	// MaxPending bounds the number of tasks waiting for a connection.
	// Zero means unbounded; Enqueue returns ErrQueueFull once it is reached.
	MaxPending int

	// MaxQueryLength is the number of bytes of query text kept per task
	MaxQueryLength int

	// QueryTimeout bounds a single query execution. Zero disables it.
	QueryTimeout time.Duration
}

// DefaultSchedulerConfig returns a SchedulerConfig with reasonable defaults
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		DispatchInterval: 10 * time.Millisecond,
		MaxPending:       0,
		MaxQueryLength:   DefaultMaxQueryLength,
		QueryTimeout:     0,
	}
}

// Stats is a point-in-time snapshot of the scheduler.
type Stats struct {
	Pending     int `json:"pending"`
	Running     int `json:"running"`
	Done        int `json:"done"`
	Connections int `json:"connections"`
	Idle        int `json:"idle"`
}

// Scheduler runs queries on a fixed pool of connections without blocking the
// caller and hands their outcomes to a Callback on each host tick.
type Scheduler struct {
	// mu guards queue, pool bindings, callback and the lifecycle flags
	mu          sync.Mutex
	queue       *TaskQueue
	pool        *ConnectionPool
	callback    Callback
	initialized bool
	closed      bool

	// inflight holds tasks harvested by OnTick whose callback has not run yet
	inflight []*Task

	// dispatcher state
	dispatcherRunning bool
	dispatcherDone    chan struct{}
	wake              chan struct{}
	assignments       chan assignment
	workers           sync.WaitGroup

	// tickMu keeps OnTick from running concurrently with itself
	tickMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc

	driver  Driver
	config  SchedulerConfig
	errLog  ErrorLog
	metrics *Metrics
	logger  *slog.Logger
}

// NewScheduler creates a scheduler. errLog and metrics may be nil; a nil
// logger falls back to slog.Default().
func NewScheduler(
	driver Driver,
	config SchedulerConfig,
	errLog ErrorLog,
	metrics *Metrics,
	logger *slog.Logger,
) *Scheduler {
	if config.DispatchInterval <= 0 {
		config.DispatchInterval = DefaultSchedulerConfig().DispatchInterval
	}
	if errLog == nil {
		errLog = nopErrorLog{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		queue:          NewTaskQueue(config.MaxPending, config.MaxQueryLength),
		dispatcherDone: make(chan struct{}),
		wake:           make(chan struct{}, 1),
		ctx:            ctx,
		cancel:         cancel,
		driver:         driver,
		config:         config,
		errLog:         errLog,
		metrics:        metrics,
		logger:         logger.With("component", "query_scheduler"),
	}
}

// Initialize opens count connections, registers the result callback and
// starts the dispatcher. It may succeed exactly once per scheduler.
//
// Connections that fail to open are logged and reported by
// ConnectionInitErrors; the pool runs with whatever opened.
func (s *Scheduler) Initialize(ctx context.Context, cfg ConnectionConfig, count int, cb Callback) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSchedulerClosed
	}
	if s.initialized {
		s.mu.Unlock()
		s.logger.Error("scheduler already initialized, keeping existing pool")
		return ErrAlreadyInitialized
	}
	if isNilCallback(cb) {
		s.mu.Unlock()
		return ErrMissingCallback
	}
	if count <= 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: got %d", ErrInvalidPoolSize, count)
	}
	s.initialized = true
	s.mu.Unlock()

	pool := openPool(ctx, s.driver, cfg, count, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Close may have run while the connections were opening
	if s.closed {
		if err := pool.close(); err != nil {
			s.logger.Error("failed to close connection pool", "error", redact.Error(err))
		}
		return ErrSchedulerClosed
	}

	s.pool = pool
	s.callback = cb
	s.startWorkers(pool.Size())
	if err := s.startDispatcherLocked(); err != nil {
		return fmt.Errorf("failed to start dispatcher: %w", err)
	}
	return nil
}

func isNilCallback(cb Callback) bool {
	if cb == nil {
		return true
	}
	f, ok := cb.(CallbackFunc)
	return ok && f == nil
}

// Enqueue submits a query and returns its id immediately. The result is
// delivered on a later OnTick. capture selects whether result rows are kept.
func (s *Scheduler) Enqueue(query string, target Target, capture bool) (TaskID, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrSchedulerClosed
	}
	t, err := s.queue.Enqueue(query, target, capture)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	id := t.ID
	s.mu.Unlock()

	s.metrics.taskEnqueued()
	s.logger.Debug("task enqueued",
		"task_id", id,
		"target", target.String(),
		"capture", capture)
	s.signal()
	return id, nil
}

// NotifyDisconnected marks every queued task bound to entity so its result
// is dropped instead of delivered. Safe to call for unknown entities.
func (s *Scheduler) NotifyDisconnected(entity EntityID) {
	s.mu.Lock()
	n := s.queue.MarkDisconnected(entity)
	for _, t := range s.inflight {
		if id, ok := t.Target.Entity(); ok && id == entity {
			t.Disconnected = true
			n++
		}
	}
	s.mu.Unlock()

	if n > 0 {
		s.logger.Debug("entity disconnected, results will be dropped",
			"entity_id", entity,
			"affected_tasks", n)
	}
}

// Stats returns the current queue and pool counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		Pending: s.queue.Pending(),
		Done:    len(s.queue.ScanDone()),
	}
	st.Running = s.queue.Len() - st.Pending - st.Done
	if s.pool != nil {
		st.Connections = s.pool.Size()
		st.Idle = st.Connections - s.pool.busy()
	}
	return st
}

// ConnectionInitErrors returns the pool slots that failed to open.
func (s *Scheduler) ConnectionInitErrors() []*ConnectionInitError {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool == nil {
		return nil
	}
	return s.pool.InitErrors()
}

// Close stops the dispatcher, waits for running queries to finish and
// closes the connections. Tasks still queued are dropped without delivery.
// If ctx expires first, Close returns its error and leaves the connections
// open for the stuck workers.
func (s *Scheduler) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	running := s.dispatcherRunning
	assignments := s.assignments
	pool := s.pool
	dropped := s.queue.Len()
	s.mu.Unlock()

	s.cancel()
	if running {
		<-s.dispatcherDone
	}
	if assignments != nil {
		close(assignments)
	}

	drained := make(chan struct{})
	go func() {
		s.workers.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for running queries: %w", ctx.Err())
	}

	s.logger.Info("query scheduler stopped", "dropped_tasks", dropped)
	if pool == nil {
		return nil
	}
	return pool.close()
}

// signal wakes the dispatcher without blocking.
func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
