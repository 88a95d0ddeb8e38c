// Package httpapi exposes the read-only REST surface: current metrics,
// decimated history, recent processes, summary statistics, anomalies, a
// health matrix, and training readiness. Grounded on the mcpdrill control
// plane's net/http.ServeMux server (server.go) and its writeJSON/
// writeError envelope helpers (handlers.go), narrowed to GET-only,
// loopback-bound endpoints with no auth middleware since spec.md scopes
// authentication out (local-only service).
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sentineld/sentineld/internal/model"
	"github.com/sentineld/sentineld/internal/otel"
	"github.com/sentineld/sentineld/internal/store"
)

// RingBuffer is the subset of the ring buffer's read contract the HTTP
// surface depends on.
type RingBuffer interface {
	Latest() *model.Snapshot
	Len() int
}

// Store is the subset of the store's read contract the HTTP surface
// depends on.
type Store interface {
	History(ctx context.Context, metric string, from, to time.Time, maxPoints int) ([]store.HistoryPoint, error)
	Processes(ctx context.Context, n int) ([]model.Process, error)
	Summary(ctx context.Context, window time.Duration) (map[string]store.MetricSummary, error)
	Anomalies(ctx context.Context, from, to time.Time) ([]model.Anomaly, error)
}

// HealthProvider supplies the component health matrix for GET /health.
type HealthProvider interface {
	Health() HealthMatrix
}

// TrainingReadiness supplies the sample-count/hours-collected inputs for
// GET /api/status/training.
type TrainingReadiness interface {
	Status(ctx context.Context) (TrainingStatus, error)
}

// ErrorResponse is the uniform error envelope for every non-2xx response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries a stable machine-readable code plus a human message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server serves the telemetry HTTP surface on loopback by default.
type Server struct {
	ring        RingBuffer
	store       Store
	health      HealthProvider
	readiness   TrainingReadiness
	requestTTL  time.Duration
	tracer      *otel.Tracer

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New constructs a Server. requestTTL bounds the context of every handler
// except /health (default 5s, spec.md §5).
func New(ring RingBuffer, st Store, health HealthProvider, readiness TrainingReadiness, requestTTL time.Duration) *Server {
	if requestTTL <= 0 {
		requestTTL = 5 * time.Second
	}
	return &Server{ring: ring, store: st, health: health, readiness: readiness, requestTTL: requestTTL}
}

// SetTracer wires an OpenTelemetry tracer into the HTTP surface. Optional;
// call before Start. A nil or disabled tracer leaves request handling
// untouched.
func (s *Server) SetTracer(t *otel.Tracer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracer = t
}

// Start binds addr and begins serving. It returns once the listener is
// established; serving continues in a background goroutine.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/metrics/current", s.withDeadline(s.handleCurrent))
	mux.HandleFunc("/api/metrics/history", s.withDeadline(s.handleHistory))
	mux.HandleFunc("/api/metrics/processes", s.withDeadline(s.handleProcesses))
	mux.HandleFunc("/api/metrics/summary", s.withDeadline(s.handleSummary))
	mux.HandleFunc("/api/patterns/anomalies", s.withDeadline(s.handleAnomalies))
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/status/training", s.withDeadline(s.handleTraining))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bind_failure: %w", err)
	}
	s.listener = listener

	var handler http.Handler = mux
	if s.tracer != nil {
		handler = otel.Middleware(s.tracer)(mux)
	}

	s.server = &http.Server{
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			fmt.Println("httpapi: server error:", err)
		}
	}()
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight
// requests to finish, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) withDeadline(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.requestTTL)
		defer cancel()
		h(w, r.WithContext(ctx))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

func queryInt(r *http.Request, key string, def, min, max int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
