// Package testdb provides database fixtures for tests: throwaway SQLite
// files seeded with a schema, and connection settings for an optional
// PostgreSQL integration database.
package testdb
