package httpapi

import (
	"net/http"
	"time"
)

// handleCurrent implements GET /api/metrics/current.
func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	snap := s.ring.Latest()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no_data", "ring buffer is empty")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleHistory implements GET /api/metrics/history.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	metric := r.URL.Query().Get("metric")
	if metric == "" {
		writeError(w, http.StatusBadRequest, "missing_parameter", "metric is required")
		return
	}
	hours := queryInt(r, "hours", 1, 1, 168)
	maxPoints := queryInt(r, "max_points", 1000, 1, 10000)

	to := time.Now()
	from := to.Add(-time.Duration(hours) * time.Hour)

	points, err := s.store.History(r.Context(), metric, from, to, maxPoints)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_metric", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// handleProcesses implements GET /api/metrics/processes.
func (s *Server) handleProcesses(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 15, 1, 100)
	procs, err := s.store.Processes(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, procs)
}

// handleSummary implements GET /api/metrics/summary.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	hours := queryInt(r, "window", 1, 1, 168)
	summary, err := s.store.Summary(r.Context(), time.Duration(hours)*time.Hour)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleAnomalies implements GET /api/patterns/anomalies.
func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	hours := queryInt(r, "hours", 24, 1, 168)
	to := time.Now()
	from := to.Add(-time.Duration(hours) * time.Hour)

	anomalies, err := s.store.Anomalies(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, anomalies)
}

// handleHealth implements GET /health. It never returns a 5xx, even when
// a component is degraded (spec.md §6.2).
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var matrix HealthMatrix
	if s.health != nil {
		matrix = s.health.Health()
	}
	writeJSON(w, http.StatusOK, matrix)
}

// handleTraining implements GET /api/status/training.
func (s *Server) handleTraining(w http.ResponseWriter, r *http.Request) {
	if s.readiness == nil {
		writeJSON(w, http.StatusOK, TrainingStatus{})
		return
	}
	status, err := s.readiness.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}
