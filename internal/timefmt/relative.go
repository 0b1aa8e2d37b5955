// Package timefmt renders post timestamps the way the feed shows them.
package timefmt

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// AbsoluteLayout is used for anything a week old or older
const AbsoluteLayout = "1/2/2006"

const week = 7 * 24 * time.Hour

// layouts accepted for input timestamps, most specific first
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	AbsoluteLayout,
}

// "seconds" stays plural even for 1
var magnitudes = []humanize.RelTimeMagnitude{
	{D: time.Minute, Format: "%d seconds %s", DivBy: time.Second},
	{D: 2 * time.Minute, Format: "1 minute %s", DivBy: 1},
	{D: time.Hour, Format: "%d minutes %s", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "1 hour %s", DivBy: 1},
	{D: 24 * time.Hour, Format: "%d hours %s", DivBy: time.Hour},
	{D: 48 * time.Hour, Format: "1 day %s", DivBy: 1},
	{D: week, Format: "%d days %s", DivBy: 24 * time.Hour},
}

// Parse reads a timestamp in any accepted layout
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Relative renders s relative to now. Unparsable input is returned unchanged;
// timestamps in the future count as "0 seconds ago".
func Relative(s string, now time.Time) string {
	t, ok := Parse(s)
	if !ok {
		return s
	}

	diff := now.Sub(t)
	if diff < 0 {
		t = now
		diff = 0
	}
	if diff >= week {
		return t.Format(AbsoluteLayout)
	}
	return humanize.CustomRelTime(t, now, "ago", "from now", magnitudes)
}

// FormatAll renders every value relative to now
func FormatAll(values []string, now time.Time) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = Relative(strings.TrimSpace(v), now)
	}
	return out
}
