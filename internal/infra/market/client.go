// Package market implements the daily market-data fetchers: exchange
// quotes, institutional flows, margin balances, futures and holder
// distribution. Unlike the news crawlers these are single-shot JSON/CSV
// downloads with no pagination, keyed by trading date.
package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"twmarket-crawler/internal/observability/metrics"
)

const (
	requestTimeout = 30 * time.Second
	maxBodySize    = 50 << 20

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// NewHTTPClient returns the client shared by the market fetchers.
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

func doRequest(client *http.Client, req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept-Language", "zh-TW,zh;q=0.9,en-US;q=0.8,en;q=0.7")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(req.URL.Hostname(), 0, time.Since(start), 0)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.RecordUpstreamRequest(req.URL.Hostname(), resp.StatusCode, time.Since(start), 0)
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: req.URL.String()}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", req.URL.String(), err)
	}
	metrics.RecordUpstreamRequest(req.URL.Hostname(), resp.StatusCode, time.Since(start), len(body))
	return body, nil
}

// getJSON fetches a URL and decodes it into target, keeping numeric cells
// as json.Number so mixed string/number payloads survive intact.
func getJSON(ctx context.Context, client *http.Client, rawURL string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	body, err := doRequest(client, req)
	if err != nil {
		return err
	}
	return decodeJSON(body, target)
}

// postFormJSON sends a form POST and decodes the JSON response.
func postFormJSON(ctx context.Context, client *http.Client, rawURL string, form url.Values, target any) error {
	body, err := postForm(ctx, client, rawURL, form)
	if err != nil {
		return err
	}
	return decodeJSON(body, target)
}

// postForm sends a form POST and returns the raw response body.
func postForm(ctx context.Context, client *http.Client, rawURL string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return doRequest(client, req)
}

func decodeJSON(body []byte, target any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// compactDate turns YYYY-MM-DD into the YYYYMMDD form the TWSE endpoints
// expect; slashDate turns it into YYYY/MM/DD for TPEX and TAIFEX.
func compactDate(date string) string { return strings.ReplaceAll(date, "-", "") }

func slashDate(date string) string { return strings.ReplaceAll(date, "-", "/") }
