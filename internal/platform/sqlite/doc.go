// Package sqlite provides the SQLite driver for the query scheduler.
// The connection config's Database field is the database file path; host,
// port and credentials are ignored. Every pool connection opens the same
// file in WAL mode so readers do not block the writer.
package sqlite
