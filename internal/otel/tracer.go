// Package otel wraps OpenTelemetry tracing for sentineld. Grounded on
// mcpdrill's internal/otel package (tracer.go, middleware.go): the same
// no-op-by-default Tracer with a pluggable exporter, generalized here to
// span a collection tick and an HTTP request rather than an MCP operation.
package otel

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ExporterType selects where spans are sent.
type ExporterType string

const (
	ExporterNone      ExporterType = "none"
	ExporterStdout    ExporterType = "stdout"
	ExporterOTLPGRPC  ExporterType = "otlp-grpc"
	ExporterOTLPHTTP  ExporterType = "otlp-http"
)

// Config configures the tracer. Enabled defaults to false: tracing is an
// opt-in diagnostic layer, matching spec.md's Non-goal that excludes a
// dedicated metrics/observability surface from the core feature set while
// still carrying the ambient capability.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	ExporterType   ExporterType
	OTLPEndpoint   string
	OTLPInsecure   bool
	SampleRate     float64
}

// DefaultConfig returns tracing disabled.
func DefaultConfig() *Config {
	return &Config{
		Enabled:      false,
		ServiceName:  "sentineld",
		ExporterType: ExporterNone,
		SampleRate:   1.0,
	}
}

// Tracer wraps an OpenTelemetry TracerProvider with sentineld-specific span
// helpers for a collection tick and an HTTP request.
type Tracer struct {
	config     *Config
	provider   trace.TracerProvider
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	shutdown   func(context.Context) error
	mu         sync.RWMutex
}

// New constructs a Tracer. A disabled or ExporterNone config yields a
// no-op tracer so every call site can unconditionally start spans.
func New(ctx context.Context, cfg *Config) (*Tracer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	t := &Tracer{
		config:     cfg,
		propagator: propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}),
	}

	if !cfg.Enabled || cfg.ExporterType == ExporterNone {
		t.provider = noop.NewTracerProvider()
		t.tracer = t.provider.Tracer(cfg.ServiceName)
		t.shutdown = func(context.Context) error { return nil }
		return t, nil
	}

	exporter, err := t.createExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes("",
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("build trace resource: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.SampleRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case cfg.SampleRate <= 0.0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	t.provider = tp
	t.tracer = tp.Tracer(cfg.ServiceName)
	t.shutdown = tp.Shutdown
	otel.SetTextMapPropagator(t.propagator)

	return t, nil
}

func (t *Tracer) createExporter(ctx context.Context, cfg *Config) (sdktrace.SpanExporter, error) {
	switch cfg.ExporterType {
	case ExporterStdout:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case ExporterOTLPGRPC:
		opts := []otlptracegrpc.Option{}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint))
		}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)
	case ExporterOTLPHTTP:
		opts := []otlptracehttp.Option{}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.OTLPEndpoint))
		}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unknown exporter type: %s", cfg.ExporterType)
	}
}

// Enabled reports whether spans are actually exported anywhere.
func (t *Tracer) Enabled() bool {
	return t.config.Enabled && t.config.ExporterType != ExporterNone
}

// Propagator returns the text map propagator used by Middleware.
func (t *Tracer) Propagator() propagation.TextMapPropagator {
	return t.propagator
}

// StartSpan starts a generically-named span.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// StartTickSpan starts a span covering one scheduler-driven collection
// tick, tagged with the cadence and the set of collectors fanned out to.
func (t *Tracer) StartTickSpan(ctx context.Context, cadence string, collectorNames []string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("sentineld.cadence", cadence),
		attribute.StringSlice("sentineld.collectors", collectorNames),
	}
	return t.tracer.Start(ctx, "tick."+cadence,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// Tick starts a tick span and returns a closure that ends it, so callers
// that only need span lifetime (not the trace.Span API) don't need to
// import go.opentelemetry.io/otel/trace themselves.
func (t *Tracer) Tick(ctx context.Context, cadence string, collectorNames []string) (context.Context, func()) {
	spanCtx, span := t.StartTickSpan(ctx, cadence, collectorNames)
	return spanCtx, func() { span.End() }
}

// RecordWriteFailure records a store write failure on span, if any is
// active in ctx.
func RecordWriteFailure(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(attribute.Bool("sentineld.store_write_failed", true))
}

// Shutdown flushes and releases the underlying exporter.
func (t *Tracer) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.shutdown != nil {
		return t.shutdown(ctx)
	}
	return nil
}

// Noop returns a tracer that never exports, for tests and disabled runs.
func Noop() *Tracer {
	tp := noop.NewTracerProvider()
	return &Tracer{
		config:     DefaultConfig(),
		provider:   tp,
		tracer:     tp.Tracer("sentineld"),
		propagator: propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}),
		shutdown:   func(context.Context) error { return nil },
	}
}
