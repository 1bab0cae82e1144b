// Package tracing provides OpenTelemetry tracing integration.
//
// The middleware extracts W3C Trace Context from incoming requests, opens a
// server span per request and echoes the trace ID in the X-Trace-Id response
// header so slow crawls can be correlated with exporter backends.
//
// Example usage:
//
//	mux := http.NewServeMux()
//	mux.Handle("GET /{source}", crawlHandler)
//	handler := tracing.Middleware(mux)
//
//	func enrich(ctx context.Context) {
//	    ctx, span := tracing.GetTracer().Start(ctx, "enrich-articles")
//	    defer span.End()
//	    // ... fetch article bodies ...
//	}
package tracing
