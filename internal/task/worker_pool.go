package task

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/phrazzld/asyncsql/internal/redact"
)

// assignment is a task bound to the connection it must run on
type assignment struct {
	conn *Connection
	task *Task
}

// startWorkers starts one worker per usable connection. Workers consume
// assignments until the channel is closed by Close. The caller must hold s.mu.
func (s *Scheduler) startWorkers(count int) {
	s.assignments = make(chan assignment, max(count, 1))

	for i := range count {
		s.workers.Add(1)
		go s.worker(i + 1)
	}
}

// worker processes assignments from the dispatcher
func (s *Scheduler) worker(id int) {
	defer s.workers.Done()

	s.logger.Debug("starting worker", "worker_id", id)

	for a := range s.assignments {
		s.execute(a, id)
	}

	s.logger.Debug("assignment channel closed, stopping worker", "worker_id", id)
}

// execute runs one query outside the scheduler lock, records the outcome
// and releases the connection. Failed queries are never retried.
func (s *Scheduler) execute(a assignment, workerID int) {
	logger := s.logger.With(
		"task_id", a.task.ID,
		"connection_id", a.conn.ID,
		"worker_id", workerID,
	)

	started := time.Now()
	result, err := s.runQuery(a.conn.db, a.task.Query, a.task.Capture)
	elapsed := time.Since(started)

	outcome := "success"
	if err != nil {
		outcome = "error"
		code, message := s.driver.ErrorCode(err)
		s.errLog.Append(a.task.Query, code, message)
		logger.Error("query execution failed",
			"error_code", code,
			"error", redact.String(message),
			"duration", elapsed)
		result = nil
	} else {
		logger.Debug("query executed",
			"rows", len(result),
			"duration", elapsed)
	}

	s.complete(a, result)
	s.metrics.taskFinished(outcome, elapsed)
}

// runQuery executes query on db. Rows are always drained so that the
// statement runs to completion; they are only kept when capture is set.
// A panic inside the driver is converted into an error.
func (s *Scheduler) runQuery(db *sql.DB, query string, capture bool) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("query execution panicked: %v", r)
		}
	}()

	ctx := context.Background()
	if s.config.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.QueryTimeout)
		defer cancel()
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !capture {
		for rows.Next() {
		}
		return nil, rows.Err()
	}
	return readRows(rows)
}

// readRows copies every row into a Result. Statements that produce no
// result set yield nil.
func readRows(rows *sql.Rows) (Result, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}
	if len(cols) == 0 {
		for rows.Next() {
		}
		return nil, rows.Err()
	}

	result := Result{}
	for rows.Next() {
		row := make(Row, len(cols))
		dest := make([]any, len(cols))
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// complete marks the task Done, unbinds its connection and wakes the
// dispatcher so the connection is reused without waiting for the interval.
func (s *Scheduler) complete(a assignment, result Result) {
	s.mu.Lock()
	a.task.Result = result
	s.queue.MarkDone(a.task)
	a.task.conn = nil
	a.conn.task = nil
	s.mu.Unlock()

	s.signal()
}
