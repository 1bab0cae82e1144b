// Package logging builds the service's structured loggers on log/slog and
// carries them through request contexts alongside the request ID.
//
// LOG_LEVEL and LOG_FORMAT control the process-wide logger; see NewLogger.
// Crawl code receives its logger by injection and attaches per-source
// fields, so one grep for source=ptt isolates a single crawl's output.
//
//	logger := logging.NewLogger()
//	slog.SetDefault(logger)
//
//	func (h *SourceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
//	    logger := logging.WithRequestID(r.Context(), h.Logger)
//	    logger.Info("crawl requested", slog.String("source", name))
//	}
package logging
