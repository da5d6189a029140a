package task

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// ErrorLog records failed queries.
type ErrorLog interface {
	Append(query, code, message string)
}

// FileErrorLog appends one line per failed query to a per-instance file.
// It has its own lock so file I/O never holds up dispatching.
type FileErrorLog struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// ErrorLogPath returns the log file path for the instance listening on port.
func ErrorLogPath(dir string, port int) string {
	return filepath.Join(dir, fmt.Sprintf("query_errors_%d.log", port))
}

// NewFileErrorLog creates an error log for the instance identified by port.
func NewFileErrorLog(dir string, port int, logger *slog.Logger) *FileErrorLog {
	return &FileErrorLog{
		path:   ErrorLogPath(dir, port),
		logger: logger,
	}
}

// Path returns the file the log appends to.
func (l *FileErrorLog) Path() string {
	return l.path
}

// Append opens the log file in append mode and writes a single line.
// Write failures are logged and otherwise ignored.
func (l *FileErrorLog) Append(query, code, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		l.logger.Error("failed to open query error log", "path", l.path, "error", err)
		return
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "Query \"%s\" caused error %s (%s)\n", query, code, message); err != nil {
		l.logger.Error("failed to write query error log", "path", l.path, "error", err)
	}
}

type nopErrorLog struct{}

func (nopErrorLog) Append(string, string, string) {}
