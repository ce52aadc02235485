package format

import (
	"strings"
	"time"
)

var flexibleDateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"2006-01-02",
	"2006-1-2",
	"02.01.2006",
	"2.1.2006",
}

var clockLayouts = []string{
	"15:04",
	"15.04",
}

// ParseFlexibleDate tries the day-first and ISO date formats users type in chats.
// It returns the parsed date in the local timezone and true on success.
func ParseFlexibleDate(input string) (time.Time, bool) {
	return parseAny(input, flexibleDateLayouts)
}

// ParseClock parses a 24h time of day such as "14:00".
func ParseClock(input string) (time.Time, bool) {
	return parseAny(input, clockLayouts)
}

func parseAny(input string, layouts []string) (time.Time, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
