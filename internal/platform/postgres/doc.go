// Package postgres provides the PostgreSQL driver for the query scheduler.
// Connections go through pgx's database/sql adapter using the simple query
// protocol, so a query string may hold several statements and results come
// back in text form.
package postgres
