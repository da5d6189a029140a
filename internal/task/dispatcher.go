package task

import "time"

// startDispatcher launches the single dispatcher goroutine.
// It is rejected before the pool exists, after Close or when already running.
func (s *Scheduler) startDispatcher() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startDispatcherLocked()
}

// startDispatcherLocked is startDispatcher for callers holding s.mu.
func (s *Scheduler) startDispatcherLocked() error {
	if s.closed {
		return ErrSchedulerClosed
	}
	if s.pool == nil {
		s.logger.Error("dispatcher started before the connection pool was initialized")
		return ErrPoolNotInitialized
	}
	if s.dispatcherRunning {
		s.logger.Error("dispatcher already started")
		return ErrDispatcherRunning
	}
	s.dispatcherRunning = true

	go s.runDispatcher()
	return nil
}

// runDispatcher assigns pending tasks to idle connections until shutdown.
// A cycle runs on every wake signal (enqueue or connection release) and at
// least once per DispatchInterval.
func (s *Scheduler) runDispatcher() {
	defer close(s.dispatcherDone)

	ticker := time.NewTicker(s.config.DispatchInterval)
	defer ticker.Stop()

	s.logger.Debug("dispatcher started", "interval", s.config.DispatchInterval)

	for {
		s.dispatch()

		select {
		case <-s.ctx.Done():
			s.logger.Debug("stopping dispatcher")
			return
		case <-s.wake:
		case <-ticker.C:
		}
	}
}

// dispatch binds pending tasks to idle connections, oldest task first, and
// hands each pair to the worker pool. It stops at the first pending task
// that finds no idle connection. Returns the number of tasks started.
func (s *Scheduler) dispatch() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.pool == nil || s.queue.Pending() == 0 {
		return 0
	}

	started := 0
	for _, t := range s.queue.ScanPending() {
		conn := s.pool.findIdle()
		if conn == nil {
			break
		}

		s.queue.MarkRunning(t)
		conn.task = t
		t.conn = conn

		// Never blocks: the channel holds one slot per connection and a
		// connection carries at most one outstanding assignment.
		s.assignments <- assignment{conn: conn, task: t}
		started++

		s.metrics.taskStarted()
		s.logger.Debug("task dispatched",
			"task_id", t.ID,
			"connection_id", conn.ID)
	}
	return started
}
