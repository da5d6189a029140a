package main

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/phrazzld/asyncsql/internal/config"
	"github.com/phrazzld/asyncsql/internal/task"
	"github.com/phrazzld/asyncsql/internal/testdb"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testConfig returns a valid configuration backed by a seeded SQLite file
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	db := testdb.SQLiteConfig(t,
		`CREATE TABLE players (name TEXT NOT NULL, clan TEXT, score INTEGER NOT NULL)`,
		`INSERT INTO players (name, clan, score) VALUES ('alice', 'red', 30), ('bob', NULL, 12)`,
	)

	cfg := &config.Config{
		Server: config.ServerConfig{Port: 28961, LogLevel: "debug"},
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			Name:   db.Database,
		},
		Scheduler: config.SchedulerConfig{
			ConnectionCount:  2,
			DispatchInterval: 5 * time.Millisecond,
			MaxQueryLength:   task.DefaultMaxQueryLength,
		},
		ErrorLog: config.ErrorLogConfig{Dir: dir},
		Host: config.HostConfig{
			TickInterval:    5 * time.Millisecond,
			ResultCacheSize: 64,
		},
	}
	require.NoError(t, config.Validate(cfg))

	return cfg
}
