package task

// OnTick delivers every finished task to the registered callback and
// retires it. The host must call it once per tick; concurrent calls are
// serialized. Before Initialize it does nothing.
//
// Tasks are harvested under the scheduler lock in queue order, so the Done
// check, the disconnect check and the removal happen atomically. The
// callback itself runs after the lock is released, which lets it enqueue
// follow-up queries. Harvested tasks stay visible to NotifyDisconnected
// until their callback has run.
func (s *Scheduler) OnTick() {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	cb, batch := s.harvest()
	for _, t := range batch {
		s.deliver(cb, t)
	}

	if batch != nil {
		s.mu.Lock()
		s.inflight = nil
		s.mu.Unlock()
	}
}

// harvest removes Done tasks from the queue and returns the ones whose
// result should reach the callback. Tasks whose entity disconnected are
// retired without a delivery.
func (s *Scheduler) harvest() (Callback, []*Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.callback == nil {
		return nil, nil
	}

	var batch []*Task
	for _, t := range s.queue.ScanDone() {
		if !s.queue.Remove(t.ID) {
			continue
		}

		if t.Disconnected {
			s.suppress(t)
			continue
		}
		batch = append(batch, t)
	}
	s.inflight = batch
	return s.callback, batch
}

// deliver invokes the callback for a single task, unless its entity
// disconnected after harvest. A panicking callback is logged and does not
// stop the rest of the batch.
func (s *Scheduler) deliver(cb Callback, t *Task) {
	s.mu.Lock()
	if t.Disconnected {
		s.suppress(t)
		s.mu.Unlock()
		return
	}
	result := t.Result
	t.Result = nil
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.metrics.taskRetired("callback_panic")
			s.logger.Error("result callback panicked",
				"task_id", t.ID,
				"target", t.Target.String(),
				"panic", r)
		}
	}()

	cb.Deliver(t.Target, result, t.ID)
	s.metrics.taskRetired("delivered")
}

// suppress drops the result of a task whose entity disconnected.
// The caller must hold s.mu.
func (s *Scheduler) suppress(t *Task) {
	s.metrics.taskRetired("suppressed")
	s.logger.Debug("dropping result for disconnected entity",
		"task_id", t.ID,
		"target", t.Target.String())
	t.Result = nil
}
