package models

import (
	"errors"
	"strings"
	"time"
)

var errInvalidTimestamp = errors.New("invalid ISO-8601 timestamp")

// ISO8601 is the layout timestamps are written with.
const ISO8601 = time.RFC3339Nano

var iso8601Layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"20060102T150405Z07:00",
	"20060102T150405.999999999Z07:00",
	"20060102T150405",
	"20060102T150405.999999999",
}

// FormatISO8601 renders t in the ISO-8601 extended format.
func FormatISO8601(t time.Time) string {
	return t.Format(ISO8601)
}

// ParseISO8601 accepts the extended (2006-01-02T15:04:05Z) and basic
// (20060102T150405) ISO-8601 forms. Values without a zone are UTC.
func ParseISO8601(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	for _, layout := range iso8601Layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, errInvalidTimestamp
}
