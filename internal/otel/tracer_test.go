package otel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDefaultConfigIsDisabled(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Enabled {
		t.Error("expected Enabled to be false by default")
	}
	if cfg.ExporterType != ExporterNone {
		t.Errorf("expected ExporterType none, got %q", cfg.ExporterType)
	}
}

func TestNewWithDisabledConfigIsNoop(t *testing.T) {
	ctx := context.Background()
	tracer, err := New(ctx, DefaultConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer tracer.Shutdown(ctx)

	if tracer.Enabled() {
		t.Error("expected a disabled tracer")
	}

	_, span := tracer.StartTickSpan(ctx, "high", []string{"cpu", "ram"})
	if span == nil {
		t.Fatal("expected a non-nil no-op span")
	}
	span.End()
}

func TestNewWithNilConfigDefaultsToDisabled(t *testing.T) {
	tracer, err := New(context.Background(), nil)
	if err != nil {
		t.Fatalf("New with nil config failed: %v", err)
	}
	if tracer.Enabled() {
		t.Error("expected nil config to default to disabled")
	}
}

func TestMiddlewarePassesThroughWhenTracerNil(t *testing.T) {
	handlerCalled := false
	h := Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if !handlerCalled {
		t.Fatal("expected the wrapped handler to run")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
}

func TestMiddlewarePassesThroughWhenTracerDisabled(t *testing.T) {
	tracer := Noop()
	handlerCalled := false
	h := Middleware(tracer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/metrics/current", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if !handlerCalled {
		t.Fatal("expected the wrapped handler to run through a no-op tracer")
	}
}
