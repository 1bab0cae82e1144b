// Package observability provides the observability infrastructure shared by
// the crawl service: structured logging, Prometheus metrics for upstream
// exchange and news-site traffic, and OpenTelemetry tracing.
//
// Subpackages:
//   - logging: structured logging utilities with slog
//   - metrics: Prometheus metrics for upstream fetches
//   - tracing: OpenTelemetry tracing middleware and tracer access
//
// Example usage:
//
//	import (
//	    "twmarket-crawler/internal/observability/logging"
//	    "twmarket-crawler/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("service started")
//
//	    metrics.RecordUpstreamRequest("www.twse.com.tw", 200, duration, bytes)
//	}
package observability
