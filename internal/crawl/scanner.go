package crawl

import (
	"context"
	"log/slog"

	"twmarket-crawler/internal/domain/entity"
)

// Page is one fetched-and-parsed page of a reverse-chronological listing.
// Items must be in the source's natural newest-first order; the stopping
// rule depends on it.
type Page struct {
	Items []entity.Candidate
	// LastPage is the source-reported total page count, when the source
	// exposes one (CNYES does). Zero means unknown.
	LastPage int
}

// ListingSource retrieves one page of a listing. Implementations are owned
// by a single crawl invocation; they may keep a page cursor between calls
// (PTT walks previous-page links) and are never shared across crawls.
type ListingSource interface {
	FetchPage(ctx context.Context, page int) (*Page, error)
}

// StopReason is the terminal state of a scan. The scanner reports it as a
// value rather than an error so each terminal state is testable in
// isolation.
type StopReason int

const (
	// StopBoundary: an item older than the cutoff was seen; all further
	// pages would be strictly older.
	StopBoundary StopReason = iota
	// StopEmptyPage: the listing ran out of items (or the source reported
	// its last page).
	StopEmptyPage
	// StopMaxPages: the page safety limit was reached.
	StopMaxPages
	// StopFetchError: a page fetch failed; candidates gathered from earlier
	// pages are still returned.
	StopFetchError
)

// String returns the reason label used in logs and metrics.
func (r StopReason) String() string {
	switch r {
	case StopBoundary:
		return "boundary"
	case StopEmptyPage:
		return "empty_page"
	case StopMaxPages:
		return "max_pages"
	case StopFetchError:
		return "fetch_error"
	default:
		return "unknown"
	}
}

// ScanConfig controls one scan invocation.
type ScanConfig struct {
	// Source names the crawler for logs and metrics.
	Source string
	// MaxPages bounds the scan regardless of boundary state.
	MaxPages int
	// Pacer inserts the inter-page courtesy delay. May be nil.
	Pacer Pacer
	// IncludeUndated selects the conservative-include policy for items the
	// listing could not date: include them as candidates and let the
	// enricher's precise timestamp decide, instead of dropping them.
	IncludeUndated bool
}

// ScanResult is the outcome of a scan. Candidates are deduplicated by URL
// across pages and valid even when Stop is StopFetchError (partial results
// from the pages that did succeed).
type ScanResult struct {
	Candidates []entity.Candidate
	Stop       StopReason
	Pages      int
	// Err is the fetch failure when Stop is StopFetchError, nil otherwise.
	Err error
}

// Scan drives the listing source page by page, classifying every item
// against the cutoff and accumulating matches until a terminal state.
//
// Boundary detection is conservative: a page is always consumed to its end
// before the boundary stop triggers, because listings are not guaranteed to
// be perfectly time-ordered within a page.
func Scan(ctx context.Context, source ListingSource, cutoff Cutoff, cfg ScanConfig, logger *slog.Logger) ScanResult {
	result := ScanResult{}
	seen := make(map[string]struct{})
	lastPage := 0

	for page := 1; ; page++ {
		if page > 1 && cfg.Pacer != nil {
			if err := cfg.Pacer.Wait(ctx); err != nil {
				result.Stop = StopFetchError
				result.Err = err
				return result
			}
		}

		fetched, err := source.FetchPage(ctx, page)
		if err != nil {
			logger.Error("listing page fetch failed, keeping partial results",
				slog.String("source", cfg.Source),
				slog.Int("page", page),
				slog.Any("error", err))
			result.Stop = StopFetchError
			result.Err = err
			recordScanStop(cfg.Source, StopFetchError)
			return result
		}
		result.Pages = page
		recordPageScanned(cfg.Source)

		if len(fetched.Items) == 0 {
			logger.Info("listing page empty, stopping",
				slog.String("source", cfg.Source),
				slog.Int("page", page))
			result.Stop = StopEmptyPage
			recordScanStop(cfg.Source, StopEmptyPage)
			return result
		}

		if fetched.LastPage > 0 {
			lastPage = fetched.LastPage
		}

		foundOlder := false
		matched := 0
		for _, cand := range fetched.Items {
			switch cutoff.Evaluate(cand) {
			case VerdictMatch:
				if _, dup := seen[cand.URL]; !dup {
					seen[cand.URL] = struct{}{}
					result.Candidates = append(result.Candidates, cand)
					matched++
				}
			case VerdictOlder:
				// Keep scanning the rest of the page; pages can interleave
				// slightly out of order at the boundary.
				foundOlder = true
			case VerdictUndated:
				if !cfg.IncludeUndated {
					logger.Warn("item without parseable timestamp skipped",
						slog.String("source", cfg.Source),
						slog.String("url", cand.URL))
					continue
				}
				if _, dup := seen[cand.URL]; !dup {
					seen[cand.URL] = struct{}{}
					result.Candidates = append(result.Candidates, cand)
					matched++
				}
			case VerdictSkip:
			}
		}

		logger.Info("listing page scanned",
			slog.String("source", cfg.Source),
			slog.Int("page", page),
			slog.Int("matched", matched),
			slog.Int("items", len(fetched.Items)))

		switch {
		case foundOlder:
			result.Stop = StopBoundary
		case page >= cfg.MaxPages:
			result.Stop = StopMaxPages
		case lastPage > 0 && page >= lastPage:
			result.Stop = StopEmptyPage
		default:
			continue
		}
		recordScanStop(cfg.Source, result.Stop)
		return result
	}
}
