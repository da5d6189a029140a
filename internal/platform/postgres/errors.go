package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/phrazzld/asyncsql/internal/task"
)

// syntaxErrorCode is the SQLSTATE for a malformed statement
const syntaxErrorCode = "42601"

// ErrorCode returns the SQLSTATE and server message of a PostgreSQL error.
// Syntax errors carry the character position the server reported.
// Errors that did not come from the server (network, timeouts) report
// task.UnknownErrorCode and the error text.
func ErrorCode(err error) (string, string) {
	if err == nil {
		return "", ""
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return task.UnknownErrorCode, err.Error()
	}

	if IsSyntaxError(pgErr) && pgErr.Position > 0 {
		return pgErr.Code, fmt.Sprintf("%s at character %d", pgErr.Message, pgErr.Position)
	}
	return pgErr.Code, pgErr.Message
}

// IsSyntaxError checks if the given error is a PostgreSQL syntax error.
func IsSyntaxError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == syntaxErrorCode
}
