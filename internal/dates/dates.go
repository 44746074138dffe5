// Package dates extracts publication dates from article pages and renders
// them in the RFC-822 form used by RSS pubDate.
package dates

import (
	"strings"
	"time"
	"unicode/utf16"
)

// RFC822 is the pubDate layout. It is always rendered in UTC with a GMT suffix.
const RFC822 = "Mon, 02 Jan 2006 15:04:05 GMT"

const pseudoDateSpanDays = 1800

// pseudoDateEpoch anchors every pseudo-date.
var pseudoDateEpoch = time.Date(2005, time.January, 1, 0, 0, 0, 0, time.UTC)

// layouts accepted by ParseTimestamp, tried in order.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC822Z,
	time.RFC822,
	time.RFC850,
	time.ANSIC,
	time.UnixDate,
}

// zoneOffsets are the named zones accepted besides UTC/GMT, in seconds
// east of UTC.
var zoneOffsets = map[string]int{
	"EST": -5 * 3600, "EDT": -4 * 3600,
	"CST": -6 * 3600, "CDT": -5 * 3600,
	"MST": -7 * 3600, "MDT": -6 * 3600,
	"PST": -8 * 3600, "PDT": -7 * 3600,
}

// ParseTimestamp parses s as a calendar date-time. Values without a zone
// are taken as UTC. It reports false for empty or unrecognised input and
// for zone abbreviations whose offset is unknown.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if strings.Contains(layout, "MST") {
			var ok bool
			if t, ok = applyZoneName(t); !ok {
				return time.Time{}, false
			}
		}
		return t.UTC(), true
	}
	return time.Time{}, false
}

// applyZoneName fixes the offset of a time parsed from a named zone.
// time.Parse gives an abbreviation it does not know a zero offset.
func applyZoneName(t time.Time) (time.Time, bool) {
	name, offset := t.Zone()
	if offset != 0 {
		return t, true
	}
	switch name {
	case "UTC", "GMT", "UT", "Z":
		return t, true
	}
	off, ok := zoneOffsets[name]
	if !ok {
		return time.Time{}, false
	}
	y, mo, d := t.Date()
	h, mi, sec := t.Clock()
	return time.Date(y, mo, d, h, mi, sec, t.Nanosecond(), time.FixedZone(name, off)), true
}

// FormatRFC822 renders t in UTC using RFC822.
func FormatRFC822(t time.Time) string {
	return t.UTC().Format(RFC822)
}

// ParseRFC822 parses a pubDate value produced by FormatRFC822 or any other
// layout ParseTimestamp understands.
func ParseRFC822(s string) (time.Time, bool) {
	if t, err := time.Parse(RFC822, s); err == nil {
		return t, true
	}
	return ParseTimestamp(s)
}

// PseudoDate derives a stable substitute pubDate from link alone: a 32-bit
// rolling hash over the link's UTF-16 code units picks a whole-day offset
// in [0, 1800) from 2005-01-01 UTC.
func PseudoDate(link string) string {
	var h uint32
	for _, c := range utf16.Encode([]rune(link)) {
		h = h*31 + uint32(c)
	}
	offset := int(h % pseudoDateSpanDays)
	return FormatRFC822(pseudoDateEpoch.AddDate(0, 0, offset))
}
