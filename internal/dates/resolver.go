package dates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// source yields candidate timestamp strings in priority order.
type source func(doc *goquery.Document) []string

// strategies are tried in order; the first candidate that parses wins.
var strategies = []source{
	metaContent(`meta[property="article:published_time"]`),
	metaContent(`meta[name="parsely-pub-date"]`),
	firstTimeElement,
	jsonLD,
	metaContent(`meta[property="og:updated_time"]`),
	metaContent(`meta[property="article:modified_time"]`),
}

// Resolve returns the article's publication date as an RFC-822 UTC string.
// ok is false when no strategy produced a parseable timestamp.
func Resolve(doc *goquery.Document) (pubDate string, ok bool) {
	for _, strategy := range strategies {
		for _, candidate := range strategy(doc) {
			if t, parsed := ParseTimestamp(candidate); parsed {
				return FormatRFC822(t), true
			}
		}
	}
	return "", false
}

// ResolveHTML parses body and calls Resolve.
func ResolveHTML(body []byte) (string, bool, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("parse article: %w", err)
	}
	pubDate, ok := Resolve(doc)
	return pubDate, ok, nil
}

func metaContent(selector string) source {
	return func(doc *goquery.Document) []string {
		v, ok := doc.Find(selector).First().Attr("content")
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		return []string{v}
	}
}

func firstTimeElement(doc *goquery.Document) []string {
	v, ok := doc.Find("time[datetime]").First().Attr("datetime")
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	return []string{v}
}

// jsonLD collects datePublished/dateCreated values from every linked-data
// block in document order. Blocks that are not valid JSON are skipped.
func jsonLD(doc *goquery.Document) []string {
	var out []string
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}

		var data any
		if err := json.Unmarshal([]byte(text), &data); err != nil {
			return
		}

		nodes, isArray := data.([]any)
		if !isArray {
			nodes = []any{data}
		}
		for _, n := range nodes {
			obj, isObj := n.(map[string]any)
			if !isObj {
				continue
			}
			if v := stringField(obj, "datePublished"); v != "" {
				out = append(out, v)
			} else if v := stringField(obj, "dateCreated"); v != "" {
				out = append(out, v)
			}
		}
	})
	return out
}

func stringField(obj map[string]any, key string) string {
	v, _ := obj[key].(string)
	return strings.TrimSpace(v)
}
