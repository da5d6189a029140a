package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/phrazzld/asyncsql/internal/redact"
)

// ConnectionConfig holds the parameters used to open every pool connection.
type ConnectionConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// Driver opens database handles and interprets driver errors.
type Driver interface {
	// Name returns the driver identifier used in logs
	Name() string

	// Open returns a handle for a single persistent connection.
	// The handle must be usable immediately; Open should verify it.
	Open(ctx context.Context, cfg ConnectionConfig) (*sql.DB, error)

	// ErrorCode extracts the driver specific error code and message from a
	// failed query.
	ErrorCode(err error) (code string, message string)
}

// Connection is one persistent link to the database, bound to at most one
// task at a time. The binding is guarded by the Scheduler's lock.
type Connection struct {
	ID   int
	db   *sql.DB
	task *Task
}

// Idle reports whether no task is bound to the connection.
func (c *Connection) Idle() bool {
	return c.task == nil
}

// ConnectionPool is the fixed set of connections created at initialization.
type ConnectionPool struct {
	conns      []*Connection
	initErrors []*ConnectionInitError
}

// openPool opens count connections concurrently. Slots that fail are
// reported as ConnectionInitError and left out of the pool.
func openPool(
	ctx context.Context,
	driver Driver,
	cfg ConnectionConfig,
	count int,
	logger *slog.Logger,
) *ConnectionPool {
	dbs := make([]*sql.DB, count)
	errs := make([]error, count)

	var g errgroup.Group
	for i := range count {
		g.Go(func() error {
			db, err := driver.Open(ctx, cfg)
			if err != nil {
				errs[i] = err
				return nil
			}
			// database/sql redials a broken connection on next use, so a
			// single-connection handle behaves as a reconnecting link.
			db.SetMaxOpenConns(1)
			db.SetMaxIdleConns(1)
			db.SetConnMaxLifetime(0)
			db.SetConnMaxIdleTime(0)
			dbs[i] = db
			return nil
		})
	}
	_ = g.Wait()

	pool := &ConnectionPool{}
	for i := range count {
		if errs[i] != nil {
			initErr := &ConnectionInitError{Slot: i + 1, Err: errs[i]}
			pool.initErrors = append(pool.initErrors, initErr)
			logger.Error("failed to open connection",
				"slot", i+1,
				"driver", driver.Name(),
				"error", redact.Error(errs[i]))
			continue
		}
		pool.conns = append(pool.conns, &Connection{ID: i + 1, db: dbs[i]})
	}

	if len(pool.conns) == 0 {
		logger.Warn("connection pool has no usable connections, queued tasks will wait indefinitely",
			"requested", count)
	} else {
		logger.Info("connection pool initialized",
			"driver", driver.Name(),
			"requested", count,
			"usable", len(pool.conns))
	}
	return pool
}

// findIdle returns the first connection with no bound task, or nil.
// The caller must hold the Scheduler's lock.
func (p *ConnectionPool) findIdle() *Connection {
	for _, c := range p.conns {
		if c.Idle() {
			return c
		}
	}
	return nil
}

// Size returns the number of usable connections.
func (p *ConnectionPool) Size() int {
	return len(p.conns)
}

// InitErrors returns the slots that failed to open.
func (p *ConnectionPool) InitErrors() []*ConnectionInitError {
	return p.initErrors
}

// busy counts bound connections. The caller must hold the Scheduler's lock.
func (p *ConnectionPool) busy() int {
	n := 0
	for _, c := range p.conns {
		if !c.Idle() {
			n++
		}
	}
	return n
}

// close closes every connection handle.
func (p *ConnectionPool) close() error {
	var errs []error
	for _, c := range p.conns {
		if err := c.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection %d: %w", c.ID, err))
		}
	}
	return errors.Join(errs...)
}
