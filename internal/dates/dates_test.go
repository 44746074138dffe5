package dates

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPseudoDateKnownValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		link string
		want string
	}{
		{link: "https://www.runnersworld.com/gear/", want: "Tue, 18 Dec 2007 00:00:00 GMT"},
		{link: "https://www.runnersworld.com/gear/a12345/best-running-shoes/", want: "Tue, 21 Aug 2007 00:00:00 GMT"},
		{link: "", want: "Sat, 01 Jan 2005 00:00:00 GMT"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, PseudoDate(c.link), "link %q", c.link)
	}
}

func TestPseudoDateDeterministic(t *testing.T) {
	t.Parallel()

	link := "https://www.runnersworld.com/gear/a6/trail-shoes/"
	require.Equal(t, PseudoDate(link), PseudoDate(link))
}

func TestPseudoDateWithinWindow(t *testing.T) {
	t.Parallel()

	last := pseudoDateEpoch.AddDate(0, 0, pseudoDateSpanDays-1)
	for i := range 500 {
		link := fmt.Sprintf("https://www.runnersworld.com/gear/a%d/item-%d/", i*7919, i)
		got, err := time.Parse(RFC822, PseudoDate(link))
		require.NoError(t, err)
		require.False(t, got.Before(pseudoDateEpoch), "%s before epoch", got)
		require.False(t, got.After(last), "%s after window", got)
		require.Zero(t, got.Hour()+got.Minute()+got.Second(), "offset must be whole days")
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2023-03-05T10:00:00Z", time.Date(2023, 3, 5, 10, 0, 0, 0, time.UTC), true},
		{"2023-03-05T10:00:00.123+02:00", time.Date(2023, 3, 5, 8, 0, 0, 123000000, time.UTC), true},
		{"2023-03-05T10:00:00-0500", time.Date(2023, 3, 5, 15, 0, 0, 0, time.UTC), true},
		{"2023-03-05T10:00:00", time.Date(2023, 3, 5, 10, 0, 0, 0, time.UTC), true},
		{"2023-03-05", time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"Sun, 05 Mar 2023 10:00:00 +0100", time.Date(2023, 3, 5, 9, 0, 0, 0, time.UTC), true},
		{"Sun, 05 Mar 2023 10:00:00 GMT", time.Date(2023, 3, 5, 10, 0, 0, 0, time.UTC), true},
		{"  2024-06-01T00:00:00Z  ", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), true},
		{"Sun, 05 Mar 2023 10:00:00 EST", time.Date(2023, 3, 5, 15, 0, 0, 0, time.UTC), true},
		{"Sun, 05 Mar 2023 10:00:00 PDT", time.Date(2023, 3, 5, 17, 0, 0, 0, time.UTC), true},
		{"Sunday, 05-Mar-23 10:00:00 CST", time.Date(2023, 3, 5, 16, 0, 0, 0, time.UTC), true},
		{"Sun, 05 Mar 2023 10:00:00 XYZ", time.Time{}, false},
		{"2023-13-45T99:00:00Z", time.Time{}, false},
		{"yesterday", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, c := range cases {
		got, ok := ParseTimestamp(c.in)
		require.Equal(t, c.ok, ok, "input %q", c.in)
		if c.ok {
			require.True(t, c.want.Equal(got), "input %q: got %s want %s", c.in, got, c.want)
		}
	}
}

func TestFormatRFC822UsesUTC(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("EST", -5*3600)
	got := FormatRFC822(time.Date(2024, 1, 1, 20, 30, 0, 0, loc))
	require.Equal(t, "Tue, 02 Jan 2024 01:30:00 GMT", got)

	back, ok := ParseRFC822(got)
	require.True(t, ok)
	require.True(t, back.Equal(time.Date(2024, 1, 2, 1, 30, 0, 0, time.UTC)))
}
