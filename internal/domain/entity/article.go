// Package entity defines the core domain entities for the crawl service.
// It contains the fundamental business objects such as Article and Table,
// along with their validation rules and domain-specific errors.
package entity

import "time"

// Article is a fully enriched news record, ready for serialization.
// It is immutable once built and is discarded after the response is written;
// nothing in this system persists articles.
type Article struct {
	// Date is the article's publication date in YYYY-MM-DD form.
	Date string
	// Time is the publication time in HH:MM:SS form, or empty when the
	// source only exposes a date. Empty Time serializes as JSON null.
	Time string
	// Author may be empty; sources that omit it yield "" rather than null.
	Author string
	// Head is the headline from the listing or article page.
	Head string
	// SubHead is the secondary headline; only some sources (CTEE) have one.
	SubHead string
	// HashTag is a comma-joined keyword list; empty when the source has none.
	HashTag string
	// URL is the canonical article URL and the deduplication key.
	URL string
	// Content is the article body as plain text or Markdown. It may embed
	// image references in Markdown form.
	Content string
}

// TimePrecision describes how much of a listing item's timestamp could be
// recovered at scan time. The pagination scanner uses it to decide between
// exact comparison, date-granularity comparison, and the configurable
// include-or-skip policy for undated items.
type TimePrecision int

const (
	// PrecisionNone means the listing exposed no usable timestamp at all.
	PrecisionNone TimePrecision = iota
	// PrecisionDate means only a calendar date was visible on the listing.
	PrecisionDate
	// PrecisionTime means a full timestamp was available.
	PrecisionTime
)

// String returns a short label for logging.
func (p TimePrecision) String() string {
	switch p {
	case PrecisionDate:
		return "date"
	case PrecisionTime:
		return "time"
	default:
		return "none"
	}
}

// Candidate is a provisional match produced by the listing scan, prior to
// full-article enrichment. A Candidate is immutable once created; the
// enricher builds a new Article rather than mutating the Candidate.
type Candidate struct {
	// URL uniquely identifies the candidate within one crawl invocation.
	URL string
	// Title is the listing-page headline.
	Title string
	// Author may be empty.
	Author string
	// Published is the best timestamp the listing offered. Its granularity
	// is described by Precision; with PrecisionNone the zero value is stored.
	Published time.Time
	// Precision qualifies Published.
	Precision TimePrecision
	// Payload carries source-specific listing data forward to enrichment,
	// e.g. the full content CNYES already ships in its listing API.
	Payload any
}

// EffectiveDate returns the candidate's publication date formatted as
// YYYY-MM-DD, or the fallback when no date was recoverable at scan time.
func (c Candidate) EffectiveDate(fallback string) string {
	if c.Precision == PrecisionNone {
		return fallback
	}
	return c.Published.Format("2006-01-02")
}
