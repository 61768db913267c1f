// Package telemetry sets up opt-in OpenTelemetry tracing and the per-frame
// pipeline span.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/ayusman/mudra/internal/arbiter"
)

// ServiceName identifies this process in exported traces.
const ServiceName = "mudra"

const instrumentationName = "github.com/ayusman/mudra/internal/telemetry"

// Config selects the OTLP/HTTP collector.
type Config struct {
	Endpoint string
	Enabled  bool
}

// Setup initialises OpenTelemetry tracing for the given service.
//
// Tracing is opt-in: when the endpoint is empty or Enabled is false, Setup
// returns a no-op shutdown function and no global provider is registered.
//
// The returned shutdown function flushes pending spans and should be deferred
// by the caller.
func Setup(ctx context.Context, cfg Config, serviceName string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	if !cfg.Enabled || cfg.Endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(cfg.Endpoint),
	)
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// FrameTracer opens one span per processed frame.
type FrameTracer struct {
	tracer trace.Tracer
}

// NewFrameTracer uses tp, or the global provider when tp is nil. With no
// provider registered the spans are no-ops.
func NewFrameTracer(tp trace.TracerProvider) *FrameTracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &FrameTracer{tracer: tp.Tracer(instrumentationName)}
}

// Start begins the span for frame seq.
func (f *FrameTracer) Start(ctx context.Context, seq uint64) (context.Context, trace.Span) {
	return f.tracer.Start(ctx, "frame",
		trace.WithAttributes(attribute.Int64("mudra.frame", int64(seq))),
	)
}

// End records the frame outcome and ends the span.
func (f *FrameTracer) End(span trace.Span, s arbiter.State, err error) {
	span.SetAttributes(
		attribute.String("mudra.gesture_text", s.GestureText),
		attribute.String("mudra.winner", s.WinnerText),
		attribute.String("mudra.expression", s.Expression.String()),
		attribute.String("mudra.image_key", string(s.ImageKey)),
		attribute.Int("mudra.hands", len(s.Hands)),
		attribute.Bool("mudra.camera_error", s.CameraError),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
