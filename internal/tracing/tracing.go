// Package tracing installs an OpenTelemetry tracer provider that writes
// spans to a stream. Without Setup the global no-op provider stays in place
// and dag spans cost nothing.
package tracing

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ServiceName identifies this program in exported spans.
const ServiceName = "blockflow"

// ShutdownFunc flushes pending spans and releases the provider.
type ShutdownFunc func(context.Context) error

// NewProvider creates a provider exporting pretty-printed spans to w.
// Spans are exported synchronously so nothing is lost when a short-lived
// command exits.
func NewProvider(w io.Writer) (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}
	res := resource.NewWithAttributes("", attribute.String("service.name", ServiceName))
	return sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	), nil
}

// Setup installs a stdout provider as the global tracer provider.
func Setup(w io.Writer) (ShutdownFunc, error) {
	tp, err := NewProvider(w)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
