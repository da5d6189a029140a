package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/asyncsql/internal/api/shared"
	"github.com/phrazzld/asyncsql/internal/mocks"
	"github.com/phrazzld/asyncsql/internal/task"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupRouter wires the handler the same way the server does
func setupRouter(t *testing.T, scheduler QueryScheduler, results ResultReader) http.Handler {
	t.Helper()
	h := NewQueryHandler(scheduler, results, setupTestLogger())
	r := chi.NewRouter()
	r.Post("/api/queries", h.SubmitQuery)
	r.Post("/api/entities/{id}/disconnect", h.DisconnectEntity)
	r.Get("/api/results/{id}", h.GetResult)
	r.Get("/api/stats", h.GetStats)
	return r
}

func newResultStore(t *testing.T) *ResultStore {
	t.Helper()
	store, err := NewResultStore(16, setupTestLogger())
	require.NoError(t, err)
	return store
}

func TestSubmitQuery(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		err         error
		wantStatus  int
		wantTarget  task.Target
		wantCapture bool
	}{
		{
			name:        "global query with capture",
			body:        `{"query":"SELECT * FROM bans","capture":true}`,
			wantStatus:  http.StatusAccepted,
			wantTarget:  task.Global,
			wantCapture: true,
		},
		{
			name:       "entity query",
			body:       `{"query":"UPDATE players SET score = 1","entity_id":7}`,
			wantStatus: http.StatusAccepted,
			wantTarget: task.Entity(7),
		},
		{
			name:       "entity zero is a real entity",
			body:       `{"query":"SELECT 1","entity_id":0}`,
			wantStatus: http.StatusAccepted,
			wantTarget: task.Entity(0),
		},
		{
			name:       "queue full",
			body:       `{"query":"SELECT 1"}`,
			err:        task.ErrQueueFull,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "scheduler closed",
			body:       `{"query":"SELECT 1"}`,
			err:        task.ErrSchedulerClosed,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "unexpected error",
			body:       `{"query":"SELECT 1"}`,
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			scheduler := &mocks.MockQueryScheduler{NextID: 41, Err: tc.err}
			router := setupRouter(t, scheduler, newResultStore(t))

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/queries", strings.NewReader(tc.body)))

			assert.Equal(t, tc.wantStatus, w.Code)
			calls := scheduler.EnqueueCalls()
			require.Len(t, calls, 1)

			if tc.err != nil {
				var resp shared.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, GetSafeErrorMessage(tc.err), resp.Error)
				return
			}

			assert.Equal(t, tc.wantTarget, calls[0].Target)
			assert.Equal(t, tc.wantCapture, calls[0].Capture)

			var resp SubmitQueryResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, task.TaskID(42), resp.TaskID)
			assert.Equal(t, tc.wantTarget.String(), resp.Target)
		})
	}
}

func TestSubmitQueryRejectsBadInput(t *testing.T) {
	bodies := map[string]string{
		"malformed":       `{"query":`,
		"missing query":   `{"capture":true}`,
		"negative entity": `{"query":"SELECT 1","entity_id":-3}`,
		"unknown field":   `{"query":"SELECT 1","priority":9}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			scheduler := &mocks.MockQueryScheduler{}
			router := setupRouter(t, scheduler, newResultStore(t))

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/queries", strings.NewReader(body)))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, scheduler.EnqueueCalls(), "invalid requests never reach the scheduler")
		})
	}
}

func TestDisconnectEntity(t *testing.T) {
	scheduler := &mocks.MockQueryScheduler{}
	router := setupRouter(t, scheduler, newResultStore(t))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/entities/12/disconnect", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []task.EntityID{12}, scheduler.DisconnectCalls())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/entities/abc/disconnect", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, scheduler.DisconnectCalls(), 1)
}

func TestGetResult(t *testing.T) {
	store := newResultStore(t)
	router := setupRouter(t, &mocks.MockQueryScheduler{}, store)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	assert.Equal(t, http.StatusNotFound, get("/api/results/3").Code, "not delivered yet")
	assert.Equal(t, http.StatusBadRequest, get("/api/results/0").Code)
	assert.Equal(t, http.StatusBadRequest, get("/api/results/99999999999").Code)

	store.Deliver(task.Entity(5), task.Result{
		{{String: "alice", Valid: true}, {}},
	}, 3)

	w := get("/api/results/3")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["alice", null]`, mustRows(t, w.Body.Bytes()))

	var body ResultBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, task.TaskID(3), body.TaskID)
	assert.Equal(t, "entity:5", body.Target)
	assert.True(t, body.HasValue)
}

// mustRows extracts the first row of a result body as raw JSON
func mustRows(t *testing.T, data []byte) string {
	t.Helper()
	var raw struct {
		Rows []json.RawMessage `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	require.NotEmpty(t, raw.Rows)
	return string(raw.Rows[0])
}

func TestGetStats(t *testing.T) {
	scheduler := &mocks.MockQueryScheduler{
		StatsVal: task.Stats{Pending: 3, Running: 2, Done: 1, Connections: 2, Idle: 0},
	}
	router := setupRouter(t, scheduler, newResultStore(t))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"pending":3,"running":2,"done":1,"connections":2,"idle":0}`, w.Body.String())
}
