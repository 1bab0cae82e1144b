package http

import (
	"context"
	"sort"

	"twmarket-crawler/internal/domain/entity"
)

// Crawler is the per-source entry point the HTTP layer dispatches to.
// News crawlers accept an hours window in place of a date; market crawlers
// are date-only and report SupportsHours false.
type Crawler interface {
	// Name returns the registry key for this source.
	Name() string
	// SupportsHours reports whether the hours query parameter is accepted.
	SupportsHours() bool
	// Columns returns the fixed column set of the source's result table.
	Columns() []string
	// Crawl runs one crawl. Exactly one of date (YYYY-MM-DD) or hours is
	// honored: hours takes precedence when non-zero.
	Crawl(ctx context.Context, date string, hours int) (*entity.Table, error)
}

// Registry holds the source-name to crawler mapping. It is built once at
// startup and read-only afterwards, so lookups need no locking.
type Registry struct {
	crawlers map[string]Crawler
}

// NewRegistry builds a registry from the given crawlers, keyed by Name.
func NewRegistry(crawlers ...Crawler) *Registry {
	m := make(map[string]Crawler, len(crawlers))
	for _, c := range crawlers {
		m[c.Name()] = c
	}
	return &Registry{crawlers: m}
}

// Get looks up a crawler by source name.
func (r *Registry) Get(name string) (Crawler, bool) {
	c, ok := r.crawlers[name]
	return c, ok
}

// Names returns all registered source names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.crawlers))
	for name := range r.crawlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Market returns the date-only crawlers in name order. These are the
// sources the aggregate endpoint fans out across.
func (r *Registry) Market() []Crawler {
	var out []Crawler
	for _, name := range r.Names() {
		if c := r.crawlers[name]; !c.SupportsHours() {
			out = append(out, c)
		}
	}
	return out
}
