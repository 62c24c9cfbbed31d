package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/snarg/callengine/internal/database"
	"github.com/snarg/callengine/internal/jobqueue"
)

// HealthResponse reports the reachability of this service's two hard
// external dependencies (Postgres for Call/Client persistence, Redis for
// JobQueue) plus process uptime.
type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks"`
}

// HealthHandler serves GET /healthz.
type HealthHandler struct {
	db        *database.DB
	queue     *jobqueue.Queue
	version   string
	startTime time.Time
}

// NewHealthHandler builds a HealthHandler. queue may be nil in tests.
func NewHealthHandler(db *database.DB, queue *jobqueue.Queue, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{db: db, queue: queue, version: version, startTime: startTime}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	if err := h.db.HealthCheck(r.Context()); err != nil {
		checks["database"] = "error"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if h.queue != nil {
		if err := h.queue.Ping(r.Context()); err != nil {
			checks["redis"] = "error"
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["redis"] = "ok"
		}
	} else {
		checks["redis"] = "not_configured"
	}

	resp := HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(resp)
}
