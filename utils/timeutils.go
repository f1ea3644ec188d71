package utils

import (
	"time"
)

// Iso8601 formats t in UTC; the zero time yields "".
func Iso8601(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ParseTimestamp accepts RFC3339 (with or without fractional seconds) or Unix
// seconds, the formats found in trajectory exports.
func ParseTimestamp(s string) (time.Time, bool) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	if sec, ok := parseUnix(s); ok {
		return time.Unix(sec, 0).UTC(), true
	}
	return time.Time{}, false
}

func parseUnix(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	var n int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int64(r-'0')
	}
	return n, true
}
