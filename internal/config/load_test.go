package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv sets environment variables for the duration of the test
func setupEnv(t *testing.T, envVars map[string]string) {
	t.Helper()
	for name, value := range envVars {
		t.Setenv(name, value)
	}
}

// writeConfigFile writes a YAML config file into a temp dir and returns its path
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "asyncsql.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestLoadDefaults verifies the values used when nothing is configured.
func TestLoadDefaults(t *testing.T) {
	setupEnv(t, map[string]string{
		"ASYNCSQL_SERVER_PORT":      "",
		"ASYNCSQL_SERVER_LOG_LEVEL": "",
	})

	cfg, err := Load("")

	require.NoError(t, err, "Load() should not return an error with default values")
	require.NotNil(t, cfg)
	assert.Equal(t, 28960, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "asyncsql.db", cfg.Database.Name)
	assert.Equal(t, 4, cfg.Scheduler.ConnectionCount)
	assert.Equal(t, 10*time.Millisecond, cfg.Scheduler.DispatchInterval)
	assert.Equal(t, 0, cfg.Scheduler.MaxPending, "queue is unbounded by default")
	assert.Equal(t, 1024, cfg.Scheduler.MaxQueryLength)
	assert.Zero(t, cfg.Scheduler.QueryTimeout, "queries have no timeout by default")
	assert.Equal(t, ".", cfg.ErrorLog.Dir)
	assert.Equal(t, 50*time.Millisecond, cfg.Host.TickInterval)
	assert.Equal(t, 1024, cfg.Host.ResultCacheSize)
}

// TestLoadFromEnv verifies that the Load function correctly reads values from environment variables.
func TestLoadFromEnv(t *testing.T) {
	setupEnv(t, map[string]string{
		"ASYNCSQL_SERVER_PORT":                 "9090",
		"ASYNCSQL_SERVER_LOG_LEVEL":            "debug",
		"ASYNCSQL_DATABASE_DRIVER":             "postgres",
		"ASYNCSQL_DATABASE_HOST":               "db.internal",
		"ASYNCSQL_DATABASE_PORT":               "6432",
		"ASYNCSQL_DATABASE_USER":               "game",
		"ASYNCSQL_DATABASE_PASSWORD":           "hunter2",
		"ASYNCSQL_DATABASE_NAME":               "world",
		"ASYNCSQL_SCHEDULER_CONNECTION_COUNT":  "8",
		"ASYNCSQL_SCHEDULER_DISPATCH_INTERVAL": "25ms",
		"ASYNCSQL_SCHEDULER_MAX_PENDING":       "500",
		"ASYNCSQL_SCHEDULER_QUERY_TIMEOUT":     "3s",
		"ASYNCSQL_ERROR_LOG_DIR":               "/var/log/asyncsql",
	})

	cfg, err := Load("")

	require.NoError(t, err, "Load() should not return an error with valid environment variables")
	require.NotNil(t, cfg)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, DatabaseConfig{
		Driver:   "postgres",
		Host:     "db.internal",
		Port:     6432,
		User:     "game",
		Password: "hunter2",
		Name:     "world",
	}, cfg.Database)
	assert.Equal(t, 8, cfg.Scheduler.ConnectionCount)
	assert.Equal(t, 25*time.Millisecond, cfg.Scheduler.DispatchInterval)
	assert.Equal(t, 500, cfg.Scheduler.MaxPending)
	assert.Equal(t, 3*time.Second, cfg.Scheduler.QueryTimeout)
	assert.Equal(t, "/var/log/asyncsql", cfg.ErrorLog.Dir)
}

// TestLoadFromFile verifies that file values are used and environment variables take precedence.
func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 7070
  log_level: warn
database:
  driver: sqlite
  name: /tmp/level.db
scheduler:
  connection_count: 2
host:
  tick_interval: 100ms
`)
	setupEnv(t, map[string]string{
		"ASYNCSQL_SERVER_PORT": "9191",
	})

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port, "environment overrides the config file")
	assert.Equal(t, "warn", cfg.Server.LogLevel)
	assert.Equal(t, "/tmp/level.db", cfg.Database.Name)
	assert.Equal(t, 2, cfg.Scheduler.ConnectionCount)
	assert.Equal(t, 100*time.Millisecond, cfg.Host.TickInterval)
	assert.Equal(t, 10*time.Millisecond, cfg.Scheduler.DispatchInterval, "unset keys keep defaults")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
	assert.Nil(t, cfg)
}

// TestLoadValidationErrors verifies that the Load function correctly validates the configuration.
func TestLoadValidationErrors(t *testing.T) {
	testCases := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name:    "Invalid port number",
			envVars: map[string]string{"ASYNCSQL_SERVER_PORT": "999999"},
		},
		{
			name:    "Invalid log level",
			envVars: map[string]string{"ASYNCSQL_SERVER_LOG_LEVEL": "verbose"},
		},
		{
			name:    "Unknown driver",
			envVars: map[string]string{"ASYNCSQL_DATABASE_DRIVER": "mysql"},
		},
		{
			name: "Postgres without host",
			envVars: map[string]string{
				"ASYNCSQL_DATABASE_DRIVER": "postgres",
				"ASYNCSQL_DATABASE_USER":   "game",
			},
		},
		{
			name:    "Zero connections",
			envVars: map[string]string{"ASYNCSQL_SCHEDULER_CONNECTION_COUNT": "0"},
		},
		{
			name:    "Negative queue bound",
			envVars: map[string]string{"ASYNCSQL_SCHEDULER_MAX_PENDING": "-1"},
		},
		{
			name:    "Zero tick interval",
			envVars: map[string]string{"ASYNCSQL_HOST_TICK_INTERVAL": "0s"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setupEnv(t, tc.envVars)

			cfg, err := Load("")

			require.Error(t, err, "Load() should return an error with invalid configuration")
			assert.Contains(t, err.Error(), "validation failed")
			assert.Nil(t, cfg, "Config should be nil when an error occurs")
		})
	}
}
