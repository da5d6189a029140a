package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/phrazzld/asyncsql/internal/api"
	apiMiddleware "github.com/phrazzld/asyncsql/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	queryHandler := api.NewQueryHandler(app.scheduler, app.results, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/queries", queryHandler.SubmitQuery)
		r.Post("/entities/{id}/disconnect", queryHandler.DisconnectEntity)
		r.Get("/results/{id}", queryHandler.GetResult)
		r.Get("/stats", queryHandler.GetStats)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	r.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))

	return r
}
