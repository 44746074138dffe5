// Package feed renders enriched items as an RSS 2.0 document.
package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/raffaelramalhorosa/runnersworld-rss/internal/dates"
	"github.com/raffaelramalhorosa/runnersworld-rss/internal/models"
)

// ContentType is the media type the feed is served with.
const ContentType = "application/rss+xml; charset=utf-8"

type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Description   string    `xml:"description"`
	Link          string    `xml:"link"`
	Language      string    `xml:"language"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       cdata   `xml:"title"`
	Link        string  `xml:"link"`
	Description cdata   `xml:"description"`
	PubDate     string  `xml:"pubDate,omitempty"`
	GUID        rssGUID `xml:"guid"`
}

// cdata is emitted as a CDATA section; encoding/xml splits any "]]>" in it.
type cdata struct {
	Text string `xml:",cdata"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// Build renders f as a complete RSS 2.0 document.
func Build(f models.Feed) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders f to w.
func Write(w io.Writer, f models.Feed) error {
	doc := rssDoc{
		Version: "2.0",
		Channel: rssChannel{
			Title:         clean(f.Channel.Title),
			Description:   clean(f.Channel.Description),
			Link:          f.Channel.Link,
			Language:      f.Channel.Language,
			LastBuildDate: dates.FormatRFC822(f.BuiltAt),
			Items:         make([]rssItem, 0, len(f.Items)),
		},
	}
	for _, it := range f.Items {
		doc.Channel.Items = append(doc.Channel.Items, rssItem{
			Title:       cdata{clean(it.Title)},
			Link:        it.Link,
			Description: cdata{clean(it.Description)},
			PubDate:     it.PubDate,
			GUID:        rssGUID{IsPermaLink: true, Value: it.Link},
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("write feed header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode feed: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode feed: %w", err)
	}
	return nil
}

// clean drops runes that XML 1.0 does not allow anywhere in a document,
// CDATA sections included.
func clean(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r < 0x20:
			return -1
		case r >= 0xD800 && r <= 0xDFFF, r == 0xFFFE, r == 0xFFFF:
			return -1
		}
		return r
	}, s)
}
