package crawl

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"twmarket-crawler/internal/domain/entity"
	"twmarket-crawler/internal/observability/tracing"
)

// Session bundles the listing source and enricher for one crawl invocation.
// Sessions are single-use: a session owns its page cursor and any HTTP
// state (cookies, scraper headers) for exactly one scan.
type Session interface {
	ListingSource
	Enricher
}

// NewsConfig holds the per-source scan parameters.
type NewsConfig struct {
	// MaxPages bounds the listing scan.
	MaxPages int
	// IncludeUndated selects the conservative-include policy for listing
	// items without a parseable timestamp.
	IncludeUndated bool
	// ListPacer builds the inter-page pacer for one crawl. Nil disables
	// pacing between listing pages.
	ListPacer func() Pacer
	// ArticlePacer builds the inter-article pacer for one crawl. Nil
	// disables pacing between article fetches.
	ArticlePacer func() Pacer
}

// NewsCrawler runs the scan-then-enrich pipeline for one news source and
// presents it behind the uniform crawler contract: a date (or rolling
// window) in, a fixed-schema table out. Failures of individual pages or
// articles degrade the result instead of failing the crawl.
type NewsCrawler struct {
	name       string
	columns    []string
	cfg        NewsConfig
	newSession func(target time.Time) Session
	logger     *slog.Logger
}

// NewNewsCrawler builds a crawler for one source. columns fixes the output
// schema; newSession must return a fresh Session per call. The target date
// is passed through because some listings omit the year (PTT) or the date
// entirely and need it to complete their timestamps.
func NewNewsCrawler(name string, columns []string, cfg NewsConfig, newSession func(target time.Time) Session, logger *slog.Logger) *NewsCrawler {
	return &NewsCrawler{
		name:       name,
		columns:    columns,
		cfg:        cfg,
		newSession: newSession,
		logger:     logger,
	}
}

// Name returns the registry key for this source.
func (c *NewsCrawler) Name() string { return c.name }

// SupportsHours reports that news sources accept the rolling-window mode.
func (c *NewsCrawler) SupportsHours() bool { return true }

// Columns returns the fixed output schema.
func (c *NewsCrawler) Columns() []string { return c.columns }

// Crawl scans the listing for the given date (hours == 0) or the past
// hours window, enriches the matches, and returns them as a table. A crawl
// that matches nothing returns an empty table with the full column set,
// never nil.
func (c *NewsCrawler) Crawl(ctx context.Context, date string, hours int) (*entity.Table, error) {
	targetDate, err := ParseDate(date)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	cutoff := ResolveCutoff(targetDate, hours, time.Now())
	mode := "date"
	if cutoff.Mode == ModeRollingWindow {
		mode = "hours"
		c.logger.Info("starting news crawl",
			slog.String("source", c.name),
			slog.String("mode", mode),
			slog.Int("hours", hours),
			slog.Time("cutoff", cutoff.Instant))
	} else {
		c.logger.Info("starting news crawl",
			slog.String("source", c.name),
			slog.String("mode", mode),
			slog.String("date", date))
	}

	sess := c.newSession(targetDate)

	scanCfg := ScanConfig{
		Source:         c.name,
		MaxPages:       c.cfg.MaxPages,
		IncludeUndated: c.cfg.IncludeUndated,
	}
	if c.cfg.ListPacer != nil {
		scanCfg.Pacer = c.cfg.ListPacer()
	}

	scanCtx, scanSpan := tracing.GetTracer().Start(ctx, "scan-listing",
		trace.WithAttributes(attribute.String("source", c.name)))
	scan := Scan(scanCtx, sess, cutoff, scanCfg, c.logger)
	scanSpan.SetAttributes(
		attribute.Int("pages", scan.Pages),
		attribute.Int("candidates", len(scan.Candidates)))
	scanSpan.End()
	c.logger.Info("listing scan finished",
		slog.String("source", c.name),
		slog.String("stop", scan.Stop.String()),
		slog.Int("pages", scan.Pages),
		slog.Int("candidates", len(scan.Candidates)))

	var articlePacer Pacer
	if c.cfg.ArticlePacer != nil {
		articlePacer = c.cfg.ArticlePacer()
	}
	enrichCtx, enrichSpan := tracing.GetTracer().Start(ctx, "enrich-articles",
		trace.WithAttributes(attribute.String("source", c.name)))
	articles := EnrichAll(enrichCtx, scan.Candidates, sess, cutoff, articlePacer, c.name, c.logger)
	enrichSpan.SetAttributes(attribute.Int("articles", len(articles)))
	enrichSpan.End()

	RecordCrawl(c.name, mode, time.Since(start), len(articles))
	c.logger.Info("news crawl completed",
		slog.String("source", c.name),
		slog.Int("articles", len(articles)))

	return ArticlesTable(c.columns, articles), nil
}

// ArticlesTable lays enriched articles out as a fixed-schema table. An
// empty publication time becomes nil so it serializes as JSON null.
func ArticlesTable(columns []string, articles []entity.Article) *entity.Table {
	table := entity.NewTable(columns...)
	for _, a := range articles {
		row := map[string]any{
			"Date":    a.Date,
			"Author":  a.Author,
			"Head":    a.Head,
			"SubHead": a.SubHead,
			"HashTag": a.HashTag,
			"url":     a.URL,
			"Content": a.Content,
		}
		if a.Time != "" {
			row["Time"] = a.Time
		} else {
			row["Time"] = nil
		}
		table.Append(row)
	}
	return table
}
