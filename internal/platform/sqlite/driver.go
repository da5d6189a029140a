package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mattn/go-sqlite3"

	"github.com/phrazzld/asyncsql/internal/task"
)

// Driver opens SQLite connections for the scheduler's pool.
type Driver struct {
	// BusyTimeoutMillis is how long a connection waits on a locked database
	BusyTimeoutMillis int
}

// NewDriver returns a Driver with a 5 second busy timeout.
func NewDriver() *Driver {
	return &Driver{BusyTimeoutMillis: 5000}
}

// Name implements task.Driver.
func (d *Driver) Name() string {
	return "sqlite"
}

// DSN builds the data source name for the database file at path.
func (d *Driver) DSN(path string) string {
	params := url.Values{}
	params.Set("_busy_timeout", strconv.Itoa(d.BusyTimeoutMillis))
	params.Set("_journal_mode", "WAL")
	params.Set("_foreign_keys", "on")
	return "file:" + path + "?" + params.Encode()
}

// Open implements task.Driver. The handle is verified with a ping.
func (d *Driver) Open(ctx context.Context, cfg task.ConnectionConfig) (*sql.DB, error) {
	if cfg.Database == "" {
		return nil, errors.New("database file path is required")
	}

	db, err := sql.Open("sqlite3", d.DSN(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// ErrorCode implements task.Driver. SQLite errors report their primary
// result code in decimal.
func (d *Driver) ErrorCode(err error) (string, string) {
	if err == nil {
		return "", ""
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return strconv.Itoa(int(sqliteErr.Code)), sqliteErr.Error()
	}
	return task.UnknownErrorCode, err.Error()
}
