// Package news implements the listing sources and article enrichers for
// the financial-news crawlers (CNYES, CTEE, MoneyUDN, PTT). Each source
// parses its own listing format into the shared candidate shape consumed
// by the pagination scanner.
package news

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"twmarket-crawler/internal/observability/metrics"
)

const (
	// requestTimeout bounds a single upstream HTTP call.
	requestTimeout = 30 * time.Second

	// maxBodySize limits response reads to prevent memory exhaustion.
	maxBodySize = 10 * 1024 * 1024

	// browserUserAgent is sent to sources that reject non-browser clients.
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// NewHTTPClient returns the outbound client shared by all news sources.
// The client itself is safe for concurrent crawls; per-crawl state
// (cookies, page cursors) lives in the session, not here.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// HTTPError reports a non-2xx upstream response.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// HTTPStatus exposes the status code to the retry classifier.
func (e *HTTPError) HTTPStatus() int { return e.StatusCode }

// get issues a GET with browser-like headers and returns the (size-capped)
// body. Extra headers are applied on top of the defaults.
func get(ctx context.Context, client *http.Client, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept-Language", "zh-TW,zh;q=0.9,en-US;q=0.8,en;q=0.7")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(req.URL.Hostname(), 0, time.Since(start), 0)
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordUpstreamRequest(req.URL.Hostname(), resp.StatusCode, time.Since(start), 0)
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	metrics.RecordUpstreamRequest(req.URL.Hostname(), resp.StatusCode, time.Since(start), len(body))
	return body, nil
}
