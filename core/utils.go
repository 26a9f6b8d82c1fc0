package core

import (
	"strings"
	"time"
)

// LocalDatetimeFormat is the wire format for all datetimes: naive local time,
// no zone suffix.
const LocalDatetimeFormat = "2006-01-02T15:04:05"

var localDatetimeLayouts = []string{LocalDatetimeFormat, "2006-01-02T15:04"}

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// ParseLocalDatetime parses a naive local datetime string, with or without
// seconds. The zero time is returned when `s` is empty or unparseable.
func ParseLocalDatetime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range localDatetimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

// FormatLocalDatetime renders `t` in the wire format; nil stays nil.
func FormatLocalDatetime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(LocalDatetimeFormat)
	return &s
}
