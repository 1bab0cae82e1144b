// Command api runs the Taiwan market-data and financial-news crawl service.
// It exposes one HTTP endpoint per registered source plus an aggregate
// endpoint that fans out across the market fetchers.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"twmarket-crawler/internal/crawl"
	hhttp "twmarket-crawler/internal/handler/http"
	"twmarket-crawler/internal/handler/http/requestid"
	"twmarket-crawler/internal/infra/market"
	"twmarket-crawler/internal/infra/news"
	"twmarket-crawler/internal/observability/logging"
	"twmarket-crawler/internal/observability/tracing"
	"twmarket-crawler/internal/pkg/config"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	shutdownTracing := initTracing()
	defer shutdownTracing()

	registry := buildRegistry(cfg, logger)
	handler := applyMiddleware(logger, cfg, setupRoutes(registry, logger))

	runServer(logger, cfg, handler)
}

// initTracing installs the global tracer provider and W3C propagation.
// Returns the shutdown function to flush spans on exit.
func initTracing() func() {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
	}
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}

// buildRegistry wires every crawl source. News sources get fresh sessions
// per crawl (they hold page cursors and cookies); market fetchers share one
// client and are wrapped with retry and a per-source circuit breaker.
func buildRegistry(cfg *config.Config, logger *slog.Logger) *hhttp.Registry {
	newsClient := news.NewHTTPClient()
	marketClient := market.NewHTTPClient()

	newsCrawler := func(name string, columns []string, newSession func(target time.Time) crawl.Session) *crawl.NewsCrawler {
		src := cfg.Source(name)
		pacer := pacerBuilder(src)
		return crawl.NewNewsCrawler(name, columns, crawl.NewsConfig{
			MaxPages:       src.MaxPages,
			IncludeUndated: src.IncludeUndated,
			ListPacer:      pacer,
			ArticlePacer:   pacer,
		}, newSession, logger)
	}

	twse := market.NewTWSE(marketClient, logger)
	tpex := market.NewTPEX(marketClient, logger)
	taifex := market.NewTAIFEX(marketClient, logger)
	faoi := market.NewFAOI(marketClient, logger)
	mgts := market.NewMGTS(marketClient, logger)
	tdcc := market.NewTDCC(marketClient, logger)

	return hhttp.NewRegistry(
		newsCrawler("cnyes", news.CNYESColumns, func(time.Time) crawl.Session {
			return news.NewCNYES(newsClient, logger)
		}),
		newsCrawler("ctee", news.CTEEColumns, func(target time.Time) crawl.Session {
			return news.NewCTEE(newsClient, target, logger)
		}),
		newsCrawler("moneyudn", news.MoneyUDNColumns, func(time.Time) crawl.Session {
			return news.NewMoneyUDN(newsClient, logger)
		}),
		newsCrawler("ptt", news.PTTColumns, func(target time.Time) crawl.Session {
			return news.NewPTT(newsClient, target, logger)
		}),
		crawl.NewMarketCrawler("twse", market.TWSEColumns, twse.Fetch, logger),
		crawl.NewMarketCrawler("tpex", market.TPEXColumns, tpex.Fetch, logger),
		crawl.NewMarketCrawler("taifex", market.TAIFEXColumns, taifex.Fetch, logger),
		crawl.NewMarketCrawler("faoi", market.FAOIColumns, faoi.Fetch, logger),
		crawl.NewMarketCrawler("mgts", market.MGTSColumns, mgts.Fetch, logger),
		crawl.NewMarketCrawler("tdcc", market.TDCCColumns, tdcc.Fetch, logger),
	)
}

// pacerBuilder maps the source tuning onto a pacer factory. A jitter range
// wins over a fixed interval; neither means no pacing.
func pacerBuilder(src config.SourceConfig) func() crawl.Pacer {
	switch {
	case src.MaxDelay > 0:
		return func() crawl.Pacer { return crawl.NewJitterPacer(src.MinDelay, src.MaxDelay) }
	case src.Interval > 0:
		return func() crawl.Pacer { return crawl.NewIntervalPacer(src.Interval) }
	default:
		return nil
	}
}

// setupRoutes registers the HTTP endpoints.
func setupRoutes(registry *hhttp.Registry, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /{$}", &hhttp.AggregateHandler{Registry: registry, Logger: logger})
	mux.Handle("GET /healthz", &hhttp.HealthHandler{Registry: registry, Version: getVersion()})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())
	mux.Handle("GET /{source}", &hhttp.SourceHandler{Registry: registry, Logger: logger})
	return mux
}

// applyMiddleware wraps the mux with the middleware chain, outermost first:
// Recover → RateLimit (optional) → RequestID → Tracing → Logging → Metrics
// → Timeout. Timeout sits innermost so the logging and metrics layers see
// the 504 a cancelled crawl produces.
func applyMiddleware(logger *slog.Logger, cfg *config.Config, mux *http.ServeMux) http.Handler {
	chain := hhttp.Timeout(cfg.Server.RequestTimeout)(mux)
	chain = hhttp.MetricsMiddleware(chain)
	chain = hhttp.Logging(logger)(chain)
	chain = tracing.Middleware(chain)
	chain = requestid.Middleware(chain)

	if rl := cfg.Server.RateLimit; rl.Enabled {
		limiter := hhttp.NewRateLimiter(rl.Limit, rl.Window)
		chain = limiter.Limit(chain)
		logger.Info("rate limiting enabled",
			slog.Int("limit", rl.Limit),
			slog.Duration("window", rl.Window))
	}

	return hhttp.Recover(logger)(chain)
}

// runServer starts the HTTP server and blocks until shutdown completes.
func runServer(logger *slog.Logger, cfg *config.Config, handler http.Handler) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.Server.Addr),
			slog.String("version", getVersion()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		return
	}
	logger.Info("server stopped")
}
