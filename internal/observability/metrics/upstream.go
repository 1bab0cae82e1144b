// Package metrics provides centralized Prometheus metrics for upstream
// exchange and news-site traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upstream metrics track every HTTP exchange with the crawled sites. The
// host label is the upstream hostname, which is a small fixed set, so
// cardinality stays bounded.
var (
	// UpstreamRequestsTotal counts upstream requests by host and status code.
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of HTTP requests sent to upstream sites",
		},
		[]string{"host", "status"},
	)

	// UpstreamRequestDuration measures upstream round-trip time in seconds.
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Upstream HTTP request duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"host"},
	)

	// UpstreamResponseSize measures upstream response body size in bytes.
	UpstreamResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_response_size_bytes",
			Help:    "Upstream HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		},
		[]string{"host"},
	)
)

// RecordUpstreamRequest records one completed upstream HTTP exchange.
// A status of 0 means the request failed before a response arrived.
func RecordUpstreamRequest(host string, status int, duration time.Duration, size int) {
	UpstreamRequestsTotal.WithLabelValues(host, strconv.Itoa(status)).Inc()
	UpstreamRequestDuration.WithLabelValues(host).Observe(duration.Seconds())
	if size > 0 {
		UpstreamResponseSize.WithLabelValues(host).Observe(float64(size))
	}
}
