package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sentineld/sentineld/internal/selfmetrics"
)

// metricsHTTPServer serves the Prometheus self-metrics endpoint on its own
// listener, separate from the query API's http.Server, so a slow /metrics
// scrape can never hold up /api requests or vice versa.
type metricsHTTPServer struct {
	server *http.Server
}

func startMetricsServer(addr string, metrics *selfmetrics.Metrics, logger *slog.Logger) *metricsHTTPServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()
	logger.Info("self-metrics listening", "addr", addr)

	return &metricsHTTPServer{server: srv}
}

func (m *metricsHTTPServer) Shutdown(ctx context.Context) {
	if m == nil || m.server == nil {
		return
	}
	_ = m.server.Shutdown(ctx)
}
