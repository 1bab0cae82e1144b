// Package http provides the HTTP surface of the crawl service: the
// per-source and aggregate crawl endpoints, health and metrics endpoints,
// and the middleware stack around them.
package http

import (
	"net/http"
	"time"

	"twmarket-crawler/internal/handler/http/respond"
)

// HealthResponse is the JSON body of the health endpoint.
type HealthResponse struct {
	Status    string   `json:"status"`
	Timestamp string   `json:"timestamp"` // RFC 3339, UTC
	Sources   []string `json:"sources"`   // registered crawl sources
	Version   string   `json:"version"`
}

// HealthHandler serves GET /healthz. The service holds no connections and
// no state between requests, so being able to answer at all means healthy;
// the source listing lets operators confirm what a deployment registered.
type HealthHandler struct {
	Registry *Registry
	Version  string
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Sources:   h.Registry.Names(),
		Version:   h.Version,
	})
}
