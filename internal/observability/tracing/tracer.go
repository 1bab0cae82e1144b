package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the service-wide tracer; crawl spans hang off the request span
// the middleware opens.
var tracer = otel.Tracer("twmarket-crawler")

// GetTracer returns the service tracer for opening child spans, e.g. one
// span per listing page or article fetch.
func GetTracer() trace.Tracer {
	return tracer
}
