// Package crawl implements the per-source pagination-and-cutoff scanning
// algorithm shared by all news crawlers: given a target date or a rolling
// time window, repeatedly fetch pages of a reverse-chronological listing,
// filter items against the cutoff, and decide when to stop paginating.
package crawl

import (
	"time"

	"twmarket-crawler/internal/domain/entity"
)

// Taipei is the market's local timezone. Every timestamp comparison in a
// crawl happens in this zone; naive timestamps parsed from sources are
// treated as already being Taipei time.
var Taipei = time.FixedZone("Asia/Taipei", 8*60*60)

// DateLayout is the wire format for calendar dates throughout the service.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string as a Taipei calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, Taipei)
	if err != nil {
		return time.Time{}, &entity.ValidationError{Field: "date", Message: "must be YYYY-MM-DD"}
	}
	return t, nil
}

// CutoffMode selects which boundary variant is active for one crawl.
type CutoffMode int

const (
	// ModeExactDate keeps items whose effective date equals the target date.
	ModeExactDate CutoffMode = iota
	// ModeRollingWindow keeps items whose timestamp is at or after the
	// window start ("now minus N hours").
	ModeRollingWindow
)

// Cutoff is the filtering boundary for one crawl invocation. Exactly one
// variant is active; it is resolved once per crawl so the boundary stays
// stable across a multi-second, multi-page scan.
type Cutoff struct {
	Mode CutoffMode
	// Date is the target calendar date (midnight Taipei), date mode only.
	Date time.Time
	// Instant is the window start, rolling-window mode only.
	Instant time.Time
}

// ResolveCutoff computes the boundary from caller input. hours == 0 selects
// date mode; a positive hours selects a rolling window anchored at now.
// Range-validating hours is the caller's concern, not the resolver's.
func ResolveCutoff(targetDate time.Time, hours int, now time.Time) Cutoff {
	if hours > 0 {
		return Cutoff{
			Mode:    ModeRollingWindow,
			Instant: now.In(Taipei).Add(-time.Duration(hours) * time.Hour),
		}
	}
	return Cutoff{Mode: ModeExactDate, Date: dateOnly(targetDate.In(Taipei))}
}

// Verdict is the scanner's per-item classification against the cutoff.
type Verdict int

const (
	// VerdictMatch means the item belongs in the result set.
	VerdictMatch Verdict = iota
	// VerdictOlder means the item is past the boundary; once a page has
	// produced one of these the scan stops after finishing that page.
	VerdictOlder
	// VerdictSkip means the item is outside the selection but not past the
	// boundary (e.g. newer than the target date in date mode).
	VerdictSkip
	// VerdictUndated means the listing gave no usable timestamp; the
	// configured include-or-skip policy applies.
	VerdictUndated
)

// Evaluate classifies one listing candidate against the boundary.
// Date-granularity candidates are compared at date granularity even in
// window mode; the enricher re-evaluates them precisely once the article
// page reveals a full timestamp.
func (c Cutoff) Evaluate(cand entity.Candidate) Verdict {
	if cand.Precision == entity.PrecisionNone {
		return VerdictUndated
	}

	published := cand.Published.In(Taipei)

	if c.Mode == ModeRollingWindow {
		if cand.Precision == entity.PrecisionTime {
			if !published.Before(c.Instant) {
				return VerdictMatch
			}
			return VerdictOlder
		}
		// Date-only listing entry: loose date comparison, refined later.
		if !dateOnly(published).Before(dateOnly(c.Instant.In(Taipei))) {
			return VerdictMatch
		}
		return VerdictOlder
	}

	itemDate := dateOnly(published)
	switch {
	case itemDate.Equal(c.Date):
		return VerdictMatch
	case itemDate.Before(c.Date):
		return VerdictOlder
	default:
		return VerdictSkip
	}
}

// Keep reports whether a precise article-page timestamp still satisfies the
// cutoff. It is used by the enricher to re-evaluate candidates that passed
// the coarse listing-level filter.
func (c Cutoff) Keep(ts time.Time) bool {
	ts = ts.In(Taipei)
	if c.Mode == ModeRollingWindow {
		return !ts.Before(c.Instant)
	}
	return dateOnly(ts).Equal(c.Date)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Taipei)
}
