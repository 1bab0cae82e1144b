package crawl

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Crawl metrics track scanning and enrichment behavior per source.
var (
	pagesScannedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawl_pages_scanned_total",
			Help: "Total listing pages fetched and scanned",
		},
		[]string{"source"},
	)

	scanStopTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawl_scan_stop_total",
			Help: "Scan terminations by reason",
		},
		[]string{"source", "reason"},
	)

	enrichFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawl_enrich_failures_total",
			Help: "Article enrichments that failed and were dropped",
		},
		[]string{"source"},
	)

	crawlDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crawl_duration_seconds",
			Help:    "End-to-end crawl duration per source",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"source", "mode"},
	)

	crawlArticlesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawl_articles_total",
			Help: "Articles returned by completed crawls",
		},
		[]string{"source"},
	)
)

func recordPageScanned(source string) {
	pagesScannedTotal.WithLabelValues(source).Inc()
}

func recordScanStop(source string, reason StopReason) {
	scanStopTotal.WithLabelValues(source, reason.String()).Inc()
}

func recordEnrichFailure(source string) {
	enrichFailuresTotal.WithLabelValues(source).Inc()
}

// RecordCrawl records the duration and yield of one completed crawl.
func RecordCrawl(source, mode string, d time.Duration, articles int) {
	crawlDuration.WithLabelValues(source, mode).Observe(d.Seconds())
	crawlArticlesTotal.WithLabelValues(source).Add(float64(articles))
}
