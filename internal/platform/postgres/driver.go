package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/phrazzld/asyncsql/internal/task"
)

// DefaultPort is used when the connection config leaves the port unset
const DefaultPort = 5432

// Driver opens PostgreSQL connections for the scheduler's pool.
type Driver struct {
	// ConnectTimeout bounds the initial ping of each connection
	ConnectTimeout time.Duration
}

// NewDriver returns a Driver with a 5 second connect timeout.
func NewDriver() *Driver {
	return &Driver{ConnectTimeout: 5 * time.Second}
}

// Name implements task.Driver.
func (d *Driver) Name() string {
	return "postgres"
}

// DSN builds a connection URL from cfg.
func DSN(cfg task.ConnectionConfig) string {
	port := cfg.Port
	if port <= 0 {
		port = DefaultPort
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		Path:   "/" + cfg.Database,
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	return u.String()
}

// Open implements task.Driver. The handle is verified with a ping.
func (d *Driver) Open(ctx context.Context, cfg task.ConnectionConfig) (*sql.DB, error) {
	connConfig, err := pgx.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}
	connConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	db := stdlib.OpenDB(*connConfig)

	if d.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.ConnectTimeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// ErrorCode implements task.Driver. PostgreSQL errors report their SQLSTATE.
func (d *Driver) ErrorCode(err error) (string, string) {
	return ErrorCode(err)
}
