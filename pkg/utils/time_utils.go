package utils

import "time"

// FromUnixMillis returns the zero time for ms<=0 so callers can render "no date".
func FromUnixMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// FormatBillingDate renders a renewal date the way plan cards show it, e.g. "March 4, 2026".
func FormatBillingDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("January 2, 2006")
}
