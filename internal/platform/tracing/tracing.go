// Package tracing exposes the process tracer. Without a configured
// provider the returned tracer is a no-op, so instrumented code pays
// nothing in development.
package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "rosterd"

// Tracer returns the shared tracer for command workflows.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
