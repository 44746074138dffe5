// Package enricher attaches publication dates to listing items by fetching
// each article page under a bounded worker pool.
package enricher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/raffaelramalhorosa/runnersworld-rss/internal/dates"
	"github.com/raffaelramalhorosa/runnersworld-rss/internal/models"
	"github.com/raffaelramalhorosa/runnersworld-rss/internal/pool"
)

const (
	DefaultConcurrency = 3
	DefaultCap         = 10
	DefaultTimeout     = 7 * time.Second
)

// Fallback selects what an item gets when no real date can be found.
type Fallback int

const (
	// FallbackPseudoDate dates the item with dates.PseudoDate.
	FallbackPseudoDate Fallback = iota
	// FallbackNone leaves the item undated.
	FallbackNone
)

// ParseFallback maps "pseudo" and "none", in any case, to a Fallback.
func ParseFallback(s string) (Fallback, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pseudo":
		return FallbackPseudoDate, nil
	case "none":
		return FallbackNone, nil
	}
	return 0, fmt.Errorf("unknown date fallback %q", s)
}

// Fetcher downloads a document within timeout.
type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error)
}

// Options tunes an Enricher. The zero value fetches no pages; start from
// DefaultOptions.
type Options struct {
	// Concurrency bounds in-flight article fetches.
	Concurrency int
	// Cap is how many leading items are fetched; the rest pass through
	// undated. Negative means every item.
	Cap      int
	Timeout  time.Duration
	Fallback Fallback
}

// DefaultOptions returns the production settings.
func DefaultOptions() Options {
	return Options{
		Concurrency: DefaultConcurrency,
		Cap:         DefaultCap,
		Timeout:     DefaultTimeout,
		Fallback:    FallbackPseudoDate,
	}
}

// Enricher resolves a date for each item from its own page.
type Enricher struct {
	fetcher Fetcher
	opts    Options
	logger  *slog.Logger
}

// New returns an Enricher that fetches pages through f. A Concurrency below
// 1 or a non-positive Timeout takes the default; a nil logger discards.
func New(f Fetcher, opts Options, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Enricher{fetcher: f, opts: opts, logger: logger}
}

// Enrich returns one EnrichedItem per input item, in input order. It never
// fails: an item whose page cannot be fetched, parsed or dated gets the
// configured fallback instead.
func (e *Enricher) Enrich(ctx context.Context, items []models.ListingItem) []models.EnrichedItem {
	head := e.Head(len(items))

	// Workers never return an error, so Map cannot fail.
	enriched, _ := pool.Map(ctx, items[:head], e.opts.Concurrency, func(ctx context.Context, _ int, item models.ListingItem) (models.EnrichedItem, error) {
		return e.enrichOne(ctx, item), nil
	})

	out := make([]models.EnrichedItem, 0, len(items))
	out = append(out, enriched...)
	for _, item := range items[head:] {
		out = append(out, models.EnrichedItem{ListingItem: item})
	}

	resolved := 0
	for _, item := range enriched {
		if item.Dated() {
			resolved++
		}
	}
	e.logger.Info("enrichment complete",
		"items", len(items),
		"fetched", head,
		"dated", resolved,
	)
	return out
}

// Head reports how many leading items of an n-item batch get a page fetch.
func (e *Enricher) Head(n int) int {
	if e.opts.Cap >= 0 && e.opts.Cap < n {
		return e.opts.Cap
	}
	return n
}

func (e *Enricher) enrichOne(ctx context.Context, item models.ListingItem) (out models.EnrichedItem) {
	out.ListingItem = item

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("article enrichment panicked", "url", item.Link, "panic", r)
			out.PubDate = e.fallback(item.Link)
		}
	}()

	body, err := e.fetcher.Fetch(ctx, item.Link, e.opts.Timeout)
	if err != nil {
		e.logger.Debug("article fetch failed", "url", item.Link, "error", err)
		out.PubDate = e.fallback(item.Link)
		return out
	}

	pubDate, ok, err := dates.ResolveHTML(body)
	if err != nil {
		e.logger.Debug("article parse failed", "url", item.Link, "error", err)
		out.PubDate = e.fallback(item.Link)
		return out
	}
	if !ok {
		e.logger.Debug("no date found", "url", item.Link)
		out.PubDate = e.fallback(item.Link)
		return out
	}

	out.PubDate = pubDate
	return out
}

func (e *Enricher) fallback(link string) string {
	if e.opts.Fallback == FallbackNone {
		return ""
	}
	return dates.PseudoDate(link)
}
