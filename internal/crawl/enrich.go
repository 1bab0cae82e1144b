package crawl

import (
	"context"
	"log/slog"
	"time"

	"twmarket-crawler/internal/domain/entity"
)

// Enricher turns one accumulated candidate into a full article, fetching
// the article's own page where the listing did not already carry the body.
// Enrichment may reveal a more precise timestamp than the listing offered.
type Enricher interface {
	Enrich(ctx context.Context, cand entity.Candidate) (*entity.Article, error)
}

// EnrichAll enriches candidates one at a time with pacing between article
// fetches. A failed enrichment drops that one candidate and continues the
// batch; it never aborts the remaining candidates.
//
// Precision refinement: a candidate that passed the coarse listing-level
// filter is re-evaluated against the cutoff once the article page supplies
// a full timestamp, and excluded when it falls outside after all.
func EnrichAll(ctx context.Context, cands []entity.Candidate, enricher Enricher, cutoff Cutoff, pacer Pacer, sourceName string, logger *slog.Logger) []entity.Article {
	articles := make([]entity.Article, 0, len(cands))

	for _, cand := range cands {
		if pacer != nil {
			if err := pacer.Wait(ctx); err != nil {
				logger.Warn("enrichment aborted by context",
					slog.String("source", sourceName),
					slog.Any("error", err))
				return articles
			}
		}

		article, err := enricher.Enrich(ctx, cand)
		if err != nil {
			logger.Warn("article enrichment failed, dropping candidate",
				slog.String("source", sourceName),
				slog.String("url", cand.URL),
				slog.Any("error", err))
			recordEnrichFailure(sourceName)
			continue
		}

		if ts, ok := articleTimestamp(article); ok && !cutoff.Keep(ts) {
			logger.Debug("article outside cutoff after enrichment, dropping",
				slog.String("source", sourceName),
				slog.String("url", cand.URL),
				slog.Time("published", ts))
			continue
		}

		articles = append(articles, *article)
		logger.Info("article enriched",
			slog.String("source", sourceName),
			slog.String("url", cand.URL))
	}

	return articles
}

// articleTimestamp reconstructs the article's precise publication instant
// from its Date and Time fields. Articles whose source never exposes a
// time-of-day cannot be refined and report ok=false.
func articleTimestamp(a *entity.Article) (time.Time, bool) {
	if a.Date == "" || a.Time == "" {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(DateLayout+" 15:04:05", a.Date+" "+a.Time, Taipei)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
