package testdb

import "os"

// DatabaseURLEnv names the PostgreSQL URL used by integration tests.
const DatabaseURLEnv = "ASYNCSQL_TEST_DATABASE_URL"

// IsIntegrationTestEnvironment returns true if a PostgreSQL test database
// has been configured.
func IsIntegrationTestEnvironment() bool {
	return os.Getenv(DatabaseURLEnv) != ""
}

// ShouldSkipDatabaseTest returns true if PostgreSQL integration tests
// cannot run in this environment.
func ShouldSkipDatabaseTest() bool {
	return !IsIntegrationTestEnvironment()
}
