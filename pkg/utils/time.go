package utils

import "time"

// numericLayout is the compact UTC timestamp format carried inside
// records ("yyyyMMddHHmmss" in the client's terms).
const numericLayout = "20060102150405"

// FormatTime renders t as a compact numeric UTC timestamp string.
func FormatTime(t time.Time) string {
	return t.UTC().Format(numericLayout)
}

// ParseTime parses a compact numeric UTC timestamp string.
func ParseTime(s string) (time.Time, error) {
	return time.ParseInLocation(numericLayout, s, time.UTC)
}
