package crawl

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"twmarket-crawler/internal/domain/entity"
	"twmarket-crawler/internal/observability/tracing"
	"twmarket-crawler/internal/resilience/circuitbreaker"
	"twmarket-crawler/internal/resilience/retry"
)

// MarketFetchFunc downloads one trading day from an exchange endpoint.
type MarketFetchFunc func(ctx context.Context, date string) (*entity.Table, error)

// MarketCrawler presents a single-shot market fetch behind the uniform
// crawler contract. Unlike the news scanner, market fetches retry on
// transient failures and sit behind a per-source circuit breaker: the
// exchange endpoints rate-limit hard and a tripped breaker keeps the
// aggregate endpoint responsive.
type MarketCrawler struct {
	name     string
	columns  []string
	fetch    MarketFetchFunc
	retryCfg retry.Config
	breaker  *circuitbreaker.CircuitBreaker
	logger   *slog.Logger
}

func NewMarketCrawler(name string, columns []string, fetch MarketFetchFunc, logger *slog.Logger) *MarketCrawler {
	return &MarketCrawler{
		name:     name,
		columns:  columns,
		fetch:    fetch,
		retryCfg: retry.MarketDataConfig(),
		breaker:  circuitbreaker.New(circuitbreaker.MarketDataConfig(name)),
		logger:   logger,
	}
}

// Name returns the registry key for this source.
func (c *MarketCrawler) Name() string { return c.name }

// SupportsHours reports that market sources are date-keyed only.
func (c *MarketCrawler) SupportsHours() bool { return false }

// Columns returns the fixed output schema.
func (c *MarketCrawler) Columns() []string { return c.columns }

// Crawl fetches one trading day through the retry and breaker wrappers.
func (c *MarketCrawler) Crawl(ctx context.Context, date string, hours int) (*entity.Table, error) {
	if hours != 0 {
		return nil, &entity.ValidationError{Field: "hours", Message: "not supported for market sources"}
	}
	if _, err := ParseDate(date); err != nil {
		return nil, err
	}

	c.logger.Info("starting market fetch",
		slog.String("source", c.name),
		slog.String("date", date))
	start := time.Now()

	fetchCtx, span := tracing.GetTracer().Start(ctx, "fetch-market-data",
		trace.WithAttributes(
			attribute.String("source", c.name),
			attribute.String("date", date)))
	result, err := c.breaker.Execute(func() (any, error) {
		var table *entity.Table
		retryErr := retry.WithBackoff(fetchCtx, c.retryCfg, func() error {
			var fetchErr error
			table, fetchErr = c.fetch(fetchCtx, date)
			return fetchErr
		})
		return table, retryErr
	})
	span.End()
	if err != nil {
		return nil, err
	}

	table := result.(*entity.Table)
	RecordCrawl(c.name, "date", time.Since(start), table.Len())
	c.logger.Info("market fetch completed",
		slog.String("source", c.name),
		slog.Int("rows", table.Len()))
	return table, nil
}
