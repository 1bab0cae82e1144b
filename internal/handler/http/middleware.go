package http

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"twmarket-crawler/internal/handler/http/requestid"
	"twmarket-crawler/internal/handler/http/respond"
	"twmarket-crawler/internal/handler/http/responsewriter"

	"go.opentelemetry.io/otel/trace"
)

// Logging returns middleware that logs each completed request with
// structured fields, including the request ID and the OpenTelemetry trace
// ID so logs can be joined with traces.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := responsewriter.Wrap(w)
			next.ServeHTTP(wrapped, r)

			span := trace.SpanFromContext(r.Context())
			duration := time.Since(start)

			logger.Info("request completed",
				slog.String("request_id", requestid.FromContext(r.Context())),
				slog.String("trace_id", span.SpanContext().TraceID().String()),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("query", r.URL.RawQuery),
				slog.String("remote_addr", r.RemoteAddr),
				slog.Int("status", wrapped.StatusCode()),
				slog.Int("bytes", wrapped.BytesWritten()),
				slog.Duration("duration", duration),
			)
		})
	}
}

// Recover returns middleware that converts panics into 500 responses and
// logs the stack instead of letting the server die mid-crawl.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					respond.SafeError(
						w,
						http.StatusInternalServerError,
						fmt.Errorf("internal error"),
					)
					logger.Error("panic recovered",
						slog.String("request_id", requestid.FromContext(r.Context())),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.Any("panic", rec),
						slog.String("stack", string(debug.Stack())),
					)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Timeout returns middleware that cancels the request context after the
// given duration and answers 504 if the handler has not written by then.
// Crawl handlers run for minutes, so the duration is configured per
// deployment rather than hard-coded.
func Timeout(duration time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), duration)
			defer cancel()
			r = r.WithContext(ctx)

			done := make(chan struct{})
			var mu sync.Mutex
			timedOut := false

			wrapped := &timeoutResponseWriter{
				ResponseWriter: w,
				mu:             &mu,
				timedOut:       &timedOut,
			}

			go func() {
				next.ServeHTTP(wrapped, r)
				close(done)
			}()

			select {
			case <-done:
			case <-ctx.Done():
				mu.Lock()
				timedOut = true
				if !wrapped.written {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusGatewayTimeout)
					_, _ = w.Write([]byte(`{"error":"request timeout"}`))
				}
				mu.Unlock()
			}
		})
	}
}

// timeoutResponseWriter suppresses handler writes that race a timeout
// response. Only one side ever touches the underlying writer.
type timeoutResponseWriter struct {
	http.ResponseWriter
	mu       *sync.Mutex
	timedOut *bool
	written  bool
}

func (w *timeoutResponseWriter) WriteHeader(statusCode int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !*w.timedOut && !w.written {
		w.written = true
		w.ResponseWriter.WriteHeader(statusCode)
	}
}

func (w *timeoutResponseWriter) Write(data []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if *w.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	if !w.written {
		w.written = true
		w.ResponseWriter.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(data)
}

// requestRecord stores request timestamps for sliding window rate limiting.
type requestRecord struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// RateLimiter is IP-based sliding-window rate limiting middleware. The
// crawl endpoints hammer the exchanges on every request, so a per-client
// budget protects the upstreams as much as this service.
type RateLimiter struct {
	records   sync.Map // map[string]*requestRecord
	limit     int
	window    time.Duration
	cleanMu   sync.Mutex
	lastClean time.Time
}

// NewRateLimiter allows at most limit requests per client IP within window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:     limit,
		window:    window,
		lastClean: time.Now(),
	}
}

// Limit applies the rate limit, answering 429 when a client exceeds it.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		rl.periodicCleanup()
		if !rl.allow(ip) {
			respond.Error(w, http.StatusTooManyRequests, fmt.Errorf("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allow reports whether a request from ip fits in the window, recording
// its timestamp when it does.
func (rl *RateLimiter) allow(ip string) bool {
	now := time.Now()

	val, _ := rl.records.LoadOrStore(ip, &requestRecord{
		timestamps: make([]time.Time, 0, rl.limit),
	})
	record := val.(*requestRecord)

	record.mu.Lock()
	defer record.mu.Unlock()

	cutoff := now.Add(-rl.window)
	valid := record.timestamps[:0]
	for _, ts := range record.timestamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}
	record.timestamps = valid

	if len(record.timestamps) >= rl.limit {
		return false
	}
	record.timestamps = append(record.timestamps, now)
	return true
}

// periodicCleanup drops records whose every timestamp has aged out, at
// most once every ten minutes.
func (rl *RateLimiter) periodicCleanup() {
	rl.cleanMu.Lock()
	defer rl.cleanMu.Unlock()

	if time.Since(rl.lastClean) < 10*time.Minute {
		return
	}
	rl.lastClean = time.Now()
	cutoff := time.Now().Add(-rl.window * 2)

	rl.records.Range(func(key, value any) bool {
		record := value.(*requestRecord)
		record.mu.Lock()
		stale := true
		for _, ts := range record.timestamps {
			if ts.After(cutoff) {
				stale = false
				break
			}
		}
		record.mu.Unlock()
		if stale {
			rl.records.Delete(key)
		}
		return true
	})
}

// extractIP resolves the client IP, trusting X-Forwarded-For and X-Real-IP
// before falling back to the connection address.
func extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := parseFirstIP(xff); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// parseFirstIP parses the first address in a comma-separated list.
func parseFirstIP(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			if ip := net.ParseIP(s[:i]); ip != nil {
				return ip.String()
			}
			return ""
		}
	}
	if ip := net.ParseIP(s); ip != nil {
		return ip.String()
	}
	return ""
}
