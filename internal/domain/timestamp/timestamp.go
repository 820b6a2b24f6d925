// Package timestamp handles the date-time strings exchanged with the loyalty
// backend and the precision rules used to display them.
package timestamp

import (
	"strings"
	"time"
)

// Display layouts.
const (
	DateLayout   = "2006-01-02"
	MinuteLayout = "2006-01-02 15:04"
	// InputLayout matches <input type="datetime-local">.
	InputLayout = "2006-01-02T15:04"
)

const placeholder = "-"

var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	InputLayout,
	MinuteLayout,
	DateLayout,
}

// Stamp is a backend timestamp. The backend emits zone-less local date-times
// such as "2024-05-01T09:30:00"; an empty Stamp means absent.
type Stamp string

// Parse reads s in any accepted layout, interpreting zone-less values in
// the local time zone.
// PRE: none
// POST: ok is false when s is empty or matches no layout
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Time parses the stamp.
func (s Stamp) Time() (time.Time, bool) {
	return Parse(string(s))
}

// Day returns the stamp truncated to midnight of its calendar date.
func (s Stamp) Day() (time.Time, bool) {
	t, ok := s.Time()
	if !ok {
		return time.Time{}, false
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()), true
}

// Date formats the stamp at date precision, or "-" when absent.
func (s Stamp) Date() string {
	t, ok := s.Time()
	if !ok {
		return placeholder
	}
	return t.Format(DateLayout)
}

// Minute formats the stamp at minute precision, or "-" when absent.
func (s Stamp) Minute() string {
	t, ok := s.Time()
	if !ok {
		return placeholder
	}
	return t.Format(MinuteLayout)
}

// Compare orders stamps chronologically; absent stamps sort first.
func Compare(a, b Stamp) int {
	ta, oka := a.Time()
	tb, okb := b.Time()
	switch {
	case !oka && !okb:
		return 0
	case !oka:
		return -1
	case !okb:
		return 1
	}
	return ta.Compare(tb)
}
