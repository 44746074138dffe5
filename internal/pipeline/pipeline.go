// Package pipeline turns the listing page into a finished RSS document:
// extract, enrich, sort, build. Build always yields a valid feed.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/raffaelramalhorosa/runnersworld-rss/internal/dates"
	"github.com/raffaelramalhorosa/runnersworld-rss/internal/feed"
	"github.com/raffaelramalhorosa/runnersworld-rss/internal/models"
)

const (
	DefaultListingURL     = "https://www.runnersworld.com/gear"
	DefaultListingTimeout = 10 * time.Second
	DefaultLimit          = 15
	MaxLimit              = 50

	FallbackTitle       = "Runner's World – sample item"
	FallbackLink        = "https://www.runnersworld.com/gear/"
	FallbackDescription = "Fallback item due to fetch error."
)

// ErrListing wraps every failure to obtain or parse the listing page.
var ErrListing = errors.New("listing unavailable")

// DefaultChannel is the channel metadata of the gear feed.
var DefaultChannel = models.Channel{
	Title:       "Runner's World – Gear",
	Description: "Latest gear articles from Runner's World",
	Link:        "https://www.runnersworld.com/gear",
	Language:    "en-us",
}

// TailPolicy decides where items beyond the enrichment cap end up.
type TailPolicy int

const (
	// TailInclude keeps tail items in the feed; being undated they sort
	// last, in listing order.
	TailInclude TailPolicy = iota
	// TailDrop leaves tail items out of the feed.
	TailDrop
)

// ParseTailPolicy maps "include" and "drop", in any case, to a TailPolicy.
func ParseTailPolicy(s string) (TailPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "include":
		return TailInclude, nil
	case "drop":
		return TailDrop, nil
	}
	return 0, fmt.Errorf("unknown tail policy %q", s)
}

// Fetcher downloads a document within timeout.
type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error)
}

// Extractor turns a listing document into at most limit items.
type Extractor interface {
	ExtractHTML(body []byte, limit int) ([]models.ListingItem, error)
}

// Enricher dates items; it returns exactly one output per input. Head
// reports how many leading items of an n-item batch it fetches pages for;
// the rest come back undated.
type Enricher interface {
	Enrich(ctx context.Context, items []models.ListingItem) []models.EnrichedItem
	Head(n int) int
}

// Deps are the collaborators a Pipeline drives.
type Deps struct {
	Fetcher   Fetcher
	Extractor Extractor
	Enricher  Enricher
}

// Options configures a Pipeline. Zero fields take DefaultOptions values.
type Options struct {
	ListingURL     string
	ListingTimeout time.Duration
	DefaultLimit   int
	// MaxLimit is the hard ceiling on items per feed.
	MaxLimit int
	Tail     TailPolicy
	Channel  models.Channel
	// Now defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns the production settings.
func DefaultOptions() Options {
	return Options{
		ListingURL:     DefaultListingURL,
		ListingTimeout: DefaultListingTimeout,
		DefaultLimit:   DefaultLimit,
		MaxLimit:       MaxLimit,
		Tail:           TailInclude,
		Channel:        DefaultChannel,
	}
}

// Pipeline runs one extract → enrich → sort → build cycle per call.
type Pipeline struct {
	deps   Deps
	opts   Options
	logger *slog.Logger
}

// New returns a Pipeline driving deps. MaxLimit never exceeds the package
// MaxLimit and DefaultLimit never exceeds MaxLimit.
func New(deps Deps, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	def := DefaultOptions()
	if opts.ListingURL == "" {
		opts.ListingURL = def.ListingURL
	}
	if opts.ListingTimeout <= 0 {
		opts.ListingTimeout = def.ListingTimeout
	}
	if opts.MaxLimit <= 0 || opts.MaxLimit > MaxLimit {
		opts.MaxLimit = MaxLimit
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = def.DefaultLimit
	}
	opts.DefaultLimit = min(opts.DefaultLimit, opts.MaxLimit)
	if opts.Channel == (models.Channel{}) {
		opts.Channel = def.Channel
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{deps: deps, opts: opts, logger: logger}
}

// ClampLimit maps a requested item count into [1, MaxLimit]; values below
// 1 mean "use the default".
func (p *Pipeline) ClampLimit(limit int) int {
	if limit < 1 {
		return p.opts.DefaultLimit
	}
	return min(limit, p.opts.MaxLimit)
}

// Build produces the RSS document for up to limit items. It never fails:
// any unrecoverable error yields FallbackFeed instead.
func (p *Pipeline) Build(ctx context.Context, limit int) (doc []byte) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("feed build panicked, serving fallback", "panic", r)
			doc = p.fallback()
		}
	}()

	items, err := p.run(ctx, p.ClampLimit(limit))
	if err != nil {
		p.logger.Warn("feed build failed, serving fallback", "error", err)
		return p.fallback()
	}

	doc, err = feed.Build(models.Feed{Channel: p.opts.Channel, BuiltAt: p.opts.Now(), Items: items})
	if err != nil {
		p.logger.Error("feed render failed, serving fallback", "error", err)
		return p.fallback()
	}
	return doc
}

func (p *Pipeline) run(ctx context.Context, limit int) ([]models.EnrichedItem, error) {
	start := time.Now()

	body, err := p.deps.Fetcher.Fetch(ctx, p.opts.ListingURL, p.opts.ListingTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListing, err)
	}
	listed, err := p.deps.Extractor.ExtractHTML(body, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListing, err)
	}

	items := p.deps.Enricher.Enrich(ctx, listed)
	if len(items) != len(listed) {
		return nil, fmt.Errorf("enricher returned %d items for %d", len(items), len(listed))
	}

	head := min(p.deps.Enricher.Head(len(listed)), len(items))
	if p.opts.Tail == TailDrop {
		items = items[:head]
	}
	SortByDate(items)

	p.logger.Info("listing enriched",
		"listed", len(listed),
		"enriched", head,
		"elapsed", time.Since(start),
	)
	return items, nil
}

// SortByDate orders items newest first. The sort is stable; undated items
// and items whose date does not parse sort last.
func SortByDate(items []models.EnrichedItem) {
	keys := make(map[string]time.Time, len(items))
	for _, it := range items {
		if t, ok := dates.ParseRFC822(it.PubDate); ok {
			keys[it.PubDate] = t
		}
	}
	slices.SortStableFunc(items, func(a, b models.EnrichedItem) int {
		ta, okA := keys[a.PubDate]
		tb, okB := keys[b.PubDate]
		switch {
		case okA && okB:
			return tb.Compare(ta)
		case okA:
			return -1
		case okB:
			return 1
		}
		return 0
	})
}

func (p *Pipeline) fallback() []byte {
	doc, err := feed.Build(FallbackFeed(p.opts.Channel, p.opts.Now()))
	if err != nil {
		// The fallback feed is fixed text; encoding it cannot fail.
		panic(fmt.Sprintf("render fallback feed: %v", err))
	}
	return doc
}

// FallbackFeed is served when the listing cannot be turned into a feed.
func FallbackFeed(ch models.Channel, now time.Time) models.Feed {
	return models.Feed{
		Channel: ch,
		BuiltAt: now,
		Items: []models.EnrichedItem{{
			ListingItem: models.ListingItem{
				Title:       FallbackTitle,
				Link:        FallbackLink,
				Description: FallbackDescription,
			},
			PubDate: dates.FormatRFC822(now),
		}},
	}
}
