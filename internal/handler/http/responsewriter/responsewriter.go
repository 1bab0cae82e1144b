// Package responsewriter wraps http.ResponseWriter to expose the status
// code and body size after a handler has run. The logging and metrics
// middleware both need those; net/http doesn't surface them.
package responsewriter

import (
	"net/http"
)

// ResponseWriter records the status and byte count of one response.
type ResponseWriter struct {
	http.ResponseWriter
	status  int
	bytes   int
	written bool
}

// Wrap returns a recording wrapper around w. The status defaults to 200,
// matching net/http's behavior when a handler writes without calling
// WriteHeader.
func Wrap(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{
		ResponseWriter: w,
		status:         http.StatusOK,
	}
}

// WriteHeader records the status code once; later calls are dropped the
// same way net/http drops superfluous WriteHeader calls.
func (w *ResponseWriter) WriteHeader(statusCode int) {
	if w.written {
		return
	}
	w.status = statusCode
	w.written = true
	w.ResponseWriter.WriteHeader(statusCode)
}

// Write forwards to the underlying writer and accumulates the byte count.
func (w *ResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// StatusCode returns the recorded status code.
func (w *ResponseWriter) StatusCode() int {
	return w.status
}

// BytesWritten returns the number of body bytes written so far.
func (w *ResponseWriter) BytesWritten() int {
	return w.bytes
}

// Unwrap exposes the underlying writer for http.ResponseController.
func (w *ResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
