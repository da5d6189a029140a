package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/asyncsql/internal/api/shared"
	"github.com/phrazzld/asyncsql/internal/platform/logger"
	"github.com/phrazzld/asyncsql/internal/task"
)

// QueryScheduler is the part of task.Scheduler the handlers use
type QueryScheduler interface {
	Enqueue(query string, target task.Target, capture bool) (task.TaskID, error)
	NotifyDisconnected(entity task.EntityID)
	Stats() task.Stats
}

// ResultReader looks up delivered results
type ResultReader interface {
	Get(id task.TaskID) (ResultBody, bool)
}

// QueryHandler handles query submission and result retrieval
type QueryHandler struct {
	scheduler QueryScheduler
	results   ResultReader
	logger    *slog.Logger
}

// NewQueryHandler creates a new QueryHandler
func NewQueryHandler(scheduler QueryScheduler, results ResultReader, logger *slog.Logger) *QueryHandler {
	return &QueryHandler{
		scheduler: scheduler,
		results:   results,
		logger:    logger.With("component", "query_handler"),
	}
}

// SubmitQuery handles POST /api/queries requests
func (h *QueryHandler) SubmitQuery(w http.ResponseWriter, r *http.Request) {
	var req SubmitQueryRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	target := req.Target()
	id, err := h.scheduler.Enqueue(req.Query, target, req.Capture)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	// 202 Accepted: the result arrives on a later tick
	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitQueryResponse{
		TaskID: id,
		Target: target.String(),
	})
}

// DisconnectEntity handles POST /api/entities/{id}/disconnect requests
func (h *QueryHandler) DisconnectEntity(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid entity ID")
		return
	}

	h.scheduler.NotifyDisconnected(task.EntityID(id))
	logger.FromContextOrDefault(r.Context(), h.logger).
		Debug("entity disconnect reported", "entity_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// GetResult handles GET /api/results/{id} requests
func (h *QueryHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	raw, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 32)
	if err != nil || raw <= 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	body, ok := h.results.Get(task.TaskID(raw))
	if !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "Result not delivered")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, body)
}

// GetStats handles GET /api/stats requests
func (h *QueryHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.scheduler.Stats())
}
