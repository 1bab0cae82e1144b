package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"twmarket-crawler/internal/crawl"
	"twmarket-crawler/internal/domain/entity"
	"twmarket-crawler/internal/handler/http/requestid"
	"twmarket-crawler/internal/handler/http/respond"
)

const (
	minHours = 1
	maxHours = 72
)

// SourceHandler serves GET /{source}. It validates the query parameters,
// dispatches to the registered crawler and serializes the result table.
//
// Parameter errors are the caller's fault and return 400. A crawl that
// starts but fails upstream returns 200 with an error field instead, so
// that schedulers polling many sources can tell "bad request" apart from
// "exchange had a bad day" by status code alone.
type SourceHandler struct {
	Registry *Registry
	Logger   *slog.Logger
}

func (h *SourceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue("source")

	crawler, ok := h.Registry.Get(name)
	if !ok {
		respond.Error(w, http.StatusNotFound, fmt.Errorf("unknown source %q", name))
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().In(crawl.Taipei).Format(crawl.DateLayout)
	} else if _, err := crawl.ParseDate(date); err != nil {
		respond.Error(w, http.StatusBadRequest,
			fmt.Errorf("invalid date %q: must be YYYY-MM-DD", date))
		return
	}

	hours := 0
	if raw := r.URL.Query().Get("hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < minHours || n > maxHours {
			respond.Error(w, http.StatusBadRequest,
				fmt.Errorf("invalid hours %q: must be an integer between %d and %d", raw, minHours, maxHours))
			return
		}
		if !crawler.SupportsHours() {
			respond.Error(w, http.StatusBadRequest,
				fmt.Errorf("invalid hours: not supported by source %q", name))
			return
		}
		hours = n
	}

	logger := h.Logger.With(
		slog.String("request_id", requestid.FromContext(ctx)),
		slog.String("source", name),
	)

	table, err := crawler.Crawl(ctx, date, hours)
	if err != nil {
		if errors.Is(err, entity.ErrInvalidInput) {
			respond.Error(w, http.StatusBadRequest, err)
			return
		}
		logger.Error("crawl failed",
			slog.String("date", date),
			slog.Int("hours", hours),
			slog.Any("error", err))
		respond.JSON(w, http.StatusOK, crawlErrorBody(date, hours, err))
		return
	}

	logger.Info("crawl completed",
		slog.String("date", date),
		slog.Int("hours", hours),
		slog.Int("rows", table.Len()))

	body := map[string]any{"data": table.Records()}
	if hours > 0 {
		body["hours"] = hours
	} else {
		body["date"] = date
	}
	respond.JSON(w, http.StatusOK, body)
}

// crawlErrorBody is the 200-with-error payload for crawls that failed
// after validation passed.
func crawlErrorBody(date string, hours int, err error) map[string]any {
	body := map[string]any{"error": err.Error()}
	if hours > 0 {
		body["hours"] = hours
	} else {
		body["date"] = date
	}
	return body
}
