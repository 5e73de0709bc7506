package oteltrace

import (
	"context"

	"github.com/zapshift/zapshift-backend/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type tracer struct{ t trace.Tracer }

// New returns a Tracer port backed by the global OTel tracer provider. Wiring
// an exporter is the host process's job (sdktrace.TracerProvider + otel.SetTracerProvider).
func New(name string) observability.Tracer {
	if name == "" {
		name = "zapshift"
	}
	return &tracer{t: otel.Tracer(name)}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...))
}
