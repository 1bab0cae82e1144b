package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"twmarket-crawler/internal/crawl"
	"twmarket-crawler/internal/handler/http/requestid"
	"twmarket-crawler/internal/handler/http/respond"
)

// aggregateConcurrency caps how many exchanges are fetched at once. The
// market endpoints share TWSE infrastructure, so fanning out wider mostly
// earns 429s rather than speed.
const aggregateConcurrency = 5

// AggregateHandler serves GET /. It fans out across every market crawler
// for a single trade date and collects the results into one response.
// A failed source contributes an error entry instead of failing the whole
// response; the endpoint always returns 200 once the date validates.
type AggregateHandler struct {
	Registry *Registry
	Logger   *slog.Logger
}

func (h *AggregateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().In(crawl.Taipei).Format(crawl.DateLayout)
	} else if _, err := crawl.ParseDate(date); err != nil {
		respond.Error(w, http.StatusBadRequest,
			fmt.Errorf("invalid date %q: must be YYYY-MM-DD", date))
		return
	}

	logger := h.Logger.With(
		slog.String("request_id", requestid.FromContext(ctx)),
		slog.String("date", date),
	)

	crawlers := h.Registry.Market()
	data := make(map[string]any, len(crawlers))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(aggregateConcurrency)
	for _, c := range crawlers {
		g.Go(func() error {
			table, err := c.Crawl(gctx, date, 0)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("aggregate source failed",
					slog.String("source", c.Name()),
					slog.Any("error", err))
				data[c.Name()] = map[string]string{"error": err.Error()}
				return nil
			}
			data[c.Name()] = table.Records()
			return nil
		})
	}
	// Workers never return errors; Wait only joins them.
	_ = g.Wait()

	logger.Info("aggregate completed", slog.Int("sources", len(crawlers)))
	respond.JSON(w, http.StatusOK, map[string]any{
		"date": date,
		"data": data,
	})
}
