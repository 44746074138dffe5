package feed_test

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/require"

	"github.com/raffaelramalhorosa/runnersworld-rss/internal/feed"
	"github.com/raffaelramalhorosa/runnersworld-rss/internal/models"
)

var channel = models.Channel{
	Title:       "Runner's World – Gear",
	Description: "Latest gear articles from Runner's World",
	Link:        "https://www.runnersworld.com/gear",
	Language:    "en-us",
}

var builtAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// wellFormed walks every token so malformed markup fails the test.
func wellFormed(t *testing.T, doc []byte) {
	t.Helper()
	dec := xml.NewDecoder(bytes.NewReader(doc))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return
		}
		require.NoError(t, err)
	}
}

func parse(t *testing.T, doc []byte) *gofeed.Feed {
	t.Helper()
	wellFormed(t, doc)
	parsed, err := gofeed.NewParser().ParseString(string(doc))
	require.NoError(t, err)
	require.Equal(t, "rss", parsed.FeedType)
	return parsed
}

func TestBuildChannelAndItems(t *testing.T) {
	t.Parallel()

	doc, err := feed.Build(models.Feed{
		Channel: channel,
		BuiltAt: builtAt,
		Items: []models.EnrichedItem{
			{
				ListingItem: models.ListingItem{Title: "Best Shoes", Link: "https://www.runnersworld.com/gear/a1/best/", Description: "Top picks"},
				PubDate:     "Sun, 05 Mar 2023 10:00:00 GMT",
			},
			{
				ListingItem: models.ListingItem{Title: "Undated", Link: "https://www.runnersworld.com/gear/a2/undated/", Description: "No date"},
			},
		},
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(doc), `<?xml version="1.0" encoding="UTF-8"?>`))
	require.Contains(t, string(doc), `<rss version="2.0">`)
	require.Contains(t, string(doc), `<guid isPermaLink="true">https://www.runnersworld.com/gear/a1/best/</guid>`)
	require.Contains(t, string(doc), `<lastBuildDate>Sat, 01 Mar 2025 12:00:00 GMT</lastBuildDate>`)
	require.Equal(t, 1, strings.Count(string(doc), "<pubDate>"), "undated item must not carry pubDate")

	parsed := parse(t, doc)
	require.Equal(t, channel.Title, parsed.Title)
	require.Equal(t, channel.Link, parsed.Link)
	require.Equal(t, "en-us", parsed.Language)
	require.Len(t, parsed.Items, 2)
	require.Equal(t, "Best Shoes", parsed.Items[0].Title)
	require.Equal(t, "Top picks", parsed.Items[0].Description)
	require.NotNil(t, parsed.Items[0].PublishedParsed)
	require.True(t, parsed.Items[0].PublishedParsed.Equal(time.Date(2023, 3, 5, 10, 0, 0, 0, time.UTC)))
	require.Empty(t, parsed.Items[1].Published)
	require.Equal(t, "https://www.runnersworld.com/gear/a2/undated/", parsed.Items[1].GUID)
}

func TestBuildEscapesHostileText(t *testing.T) {
	t.Parallel()

	title := `Shoes ]]> <script>alert("x")</script> & more`
	desc := "<p>Cushioned</p> ]]]]> \x00\x1b bell"

	doc, err := feed.Build(models.Feed{
		Channel: channel,
		BuiltAt: builtAt,
		Items: []models.EnrichedItem{{
			ListingItem: models.ListingItem{Title: title, Link: "https://www.runnersworld.com/gear/a3/x/?a=1&b=2", Description: desc},
		}},
	})
	require.NoError(t, err)
	require.Contains(t, string(doc), "<![CDATA[Shoes ]]]]><![CDATA[>")

	var raw struct {
		Channel struct {
			Items []struct {
				Title       string `xml:"title"`
				Link        string `xml:"link"`
				Description string `xml:"description"`
			} `xml:"item"`
		} `xml:"channel"`
	}
	wellFormed(t, doc)
	require.NoError(t, xml.Unmarshal(doc, &raw))
	require.Len(t, raw.Channel.Items, 1)
	require.Equal(t, title, raw.Channel.Items[0].Title)
	require.Equal(t, "<p>Cushioned</p> ]]]]>  bell", raw.Channel.Items[0].Description)
	require.Equal(t, "https://www.runnersworld.com/gear/a3/x/?a=1&b=2", raw.Channel.Items[0].Link)
}

func TestBuildEmptyChannel(t *testing.T) {
	t.Parallel()

	doc, err := feed.Build(models.Feed{Channel: channel, BuiltAt: builtAt})
	require.NoError(t, err)
	require.NotContains(t, string(doc), "<item>")

	parsed := parse(t, doc)
	require.Empty(t, parsed.Items)
	require.Equal(t, channel.Description, parsed.Description)
}
