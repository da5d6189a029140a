package testdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/asyncsql/internal/platform/sqlite"
	"github.com/phrazzld/asyncsql/internal/task"
)

// TestTimeout defines a default timeout for test database operations.
const TestTimeout = 5 * time.Second

// SQLiteConfig creates a fresh SQLite database file in a temporary
// directory, applies each schema statement in order and returns the
// settings a scheduler pool needs to open it.
func SQLiteConfig(t *testing.T, schema ...string) task.ConnectionConfig {
	t.Helper()

	cfg := task.ConnectionConfig{Database: filepath.Join(t.TempDir(), "test.db")}
	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	db, err := sqlite.NewDriver().Open(ctx, cfg)
	require.NoError(t, err, "failed to create SQLite test database")
	defer db.Close()

	for _, stmt := range schema {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err, "failed to apply schema statement: %s", stmt)
	}
	return cfg
}

// PostgresConfig returns connection settings parsed from
// ASYNCSQL_TEST_DATABASE_URL. The test is skipped when it is unset.
func PostgresConfig(t *testing.T) task.ConnectionConfig {
	t.Helper()

	if ShouldSkipDatabaseTest() {
		t.Skipf("%s not set, skipping PostgreSQL integration test", DatabaseURLEnv)
	}

	parsed, err := pgx.ParseConfig(os.Getenv(DatabaseURLEnv))
	require.NoError(t, err, "invalid %s", DatabaseURLEnv)

	return task.ConnectionConfig{
		Host:     parsed.Host,
		Port:     int(parsed.Port),
		User:     parsed.User,
		Password: parsed.Password,
		Database: parsed.Database,
	}
}
