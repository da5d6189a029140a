package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/asyncsql/internal/api/shared"
	"github.com/phrazzld/asyncsql/internal/platform/logger"
)

// NewTraceMiddleware returns middleware that attaches a trace ID to the
// request context and echoes it in the response headers. Handlers find a
// logger tagged with the trace ID in the context. Each request is logged at
// debug level once it completes.
func NewTraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context(), r.Header.Get(shared.TraceIDHeader))
			traceID := shared.GetTraceID(ctx)
			w.Header().Set(shared.TraceIDHeader, traceID)

			reqLogger := base.With(slog.String("trace_id", traceID))
			ctx = logger.WithContext(ctx, reqLogger)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()

			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Debug("request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(started)))
		})
	}
}
