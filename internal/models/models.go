package models

import "time"

// ListingItem is a candidate article discovered on the listing page.
type ListingItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
}

// EnrichedItem is a ListingItem with an optional RFC-822 publication date.
// An empty PubDate means the item is undated.
type EnrichedItem struct {
	ListingItem
	PubDate string `json:"pub_date,omitempty"`
}

// Dated reports whether the item carries a publication date.
func (e EnrichedItem) Dated() bool {
	return e.PubDate != ""
}

// Channel holds the feed-level metadata written into <channel>.
type Channel struct {
	Title       string
	Description string
	Link        string
	Language    string
}

// Feed is an ordered item sequence plus channel metadata, built once per request.
type Feed struct {
	Channel Channel
	BuiltAt time.Time
	Items   []EnrichedItem
}
