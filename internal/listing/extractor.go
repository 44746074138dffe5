// Package listing turns the gear listing page into ordered ListingItems.
package listing

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/raffaelramalhorosa/runnersworld-rss/internal/models"
)

const (
	DefaultSelector    = `a[data-theme-key="custom-item"]`
	DefaultPathSegment = "/gear/"
	DefaultOrigin      = "https://www.runnersworld.com"
	DefaultDescription = "Latest gear article from Runner's World"
)

// Options configures an Extractor. Empty fields take the defaults above.
type Options struct {
	Selector    string
	PathSegment string
	Origin      string
	Description string
}

// Extractor walks listing cards in document order.
type Extractor struct {
	selector    string
	segment     string
	origin      *url.URL
	description string
}

// New validates opts and returns an Extractor.
func New(opts Options) (*Extractor, error) {
	if opts.Selector == "" {
		opts.Selector = DefaultSelector
	}
	if opts.PathSegment == "" {
		opts.PathSegment = DefaultPathSegment
	}
	if opts.Origin == "" {
		opts.Origin = DefaultOrigin
	}
	if opts.Description == "" {
		opts.Description = DefaultDescription
	}

	origin, err := url.Parse(opts.Origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin %q: %w", opts.Origin, err)
	}
	if !isAbsoluteHTTP(origin) {
		return nil, fmt.Errorf("origin %q must be an absolute http(s) URL", opts.Origin)
	}

	return &Extractor{
		selector:    opts.Selector,
		segment:     opts.PathSegment,
		origin:      origin,
		description: opts.Description,
	}, nil
}

// ExtractHTML parses body and calls Extract.
func (e *Extractor) ExtractHTML(body []byte, limit int) ([]models.ListingItem, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}
	return e.Extract(doc, limit), nil
}

// Extract returns at most limit items in document order. Cards without a
// matching link or without a title are skipped; scanning stops as soon as
// limit items have been accepted.
func (e *Extractor) Extract(doc *goquery.Document, limit int) []models.ListingItem {
	if limit <= 0 {
		return []models.ListingItem{}
	}

	items := make([]models.ListingItem, 0, limit)
	doc.Find(e.selector).EachWithBreak(func(_ int, card *goquery.Selection) bool {
		if item, ok := e.item(card); ok {
			items = append(items, item)
		}
		return len(items) < limit
	})
	return items
}

func (e *Extractor) item(card *goquery.Selection) (models.ListingItem, bool) {
	href, ok := card.Attr("href")
	if !ok || !strings.Contains(href, e.segment) {
		return models.ListingItem{}, false
	}

	link, ok := e.resolve(href)
	if !ok {
		return models.ListingItem{}, false
	}

	title := strings.TrimSpace(card.Find("h3").Text())
	if title == "" {
		title = strings.TrimSpace(card.Text())
	}
	if title == "" {
		return models.ListingItem{}, false
	}

	description := strings.TrimSpace(card.Find("p").First().Text())
	if description == "" {
		description = e.description
	}

	return models.ListingItem{
		Title:       title,
		Link:        link,
		Description: description,
	}, true
}

// resolve makes href absolute against the site origin.
func (e *Extractor) resolve(href string) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	abs := e.origin.ResolveReference(ref)
	if !isAbsoluteHTTP(abs) {
		return "", false
	}
	return abs.String(), true
}

func isAbsoluteHTTP(u *url.URL) bool {
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
