package tracing

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// statusRecorder captures the response status for the span attributes.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware joins incoming requests to a distributed trace. It extracts
// W3C Trace Context from the request headers, opens a server span, and
// echoes the trace ID back in X-Trace-Id so a caller can quote it when
// reporting a slow or failed crawl.
//
// Spans are provisionally named "METHOD /path" and renamed to the matched
// route pattern (e.g. "GET /{source}") once the mux has routed the
// request, so arbitrary source-name probes don't fan out span names.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(
			r.Context(),
			propagation.HeaderCarrier(r.Header),
		)

		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
		)
		defer span.End()

		w.Header().Set("X-Trace-Id", span.SpanContext().TraceID().String())

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		r = r.WithContext(ctx)
		next.ServeHTTP(rw, r)

		// r.Pattern is only populated after ServeMux routing, hence the
		// rename after the handler returns.
		if r.Pattern != "" {
			span.SetName(r.Method + " " + r.Pattern)
		}

		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.path", r.URL.Path),
			attribute.Int("http.status_code", rw.status),
		)
		if rw.status >= 500 {
			span.SetAttributes(attribute.Bool("error", true))
		}
	})
}
