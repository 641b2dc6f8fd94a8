// Package refday computes calendar days in the platform's fixed reference
// time zone (UTC-5). Daily resets happen at the same instant for every
// viewer regardless of where they are, so "today" must never depend on the
// client's locale or the server's local zone.
package refday

import "time"

// Zone is the fixed reference time zone used for all daily-reset logic.
var Zone = time.FixedZone("UTC-5", -5*60*60)

// DayFormat is the canonical key format for a reference-zone calendar day.
const DayFormat = "2006-01-02"

// Day returns the reference-zone calendar day of t as "YYYY-MM-DD".
func Day(t time.Time) string {
	return t.In(Zone).Format(DayFormat)
}

// Today returns the current reference-zone calendar day.
func Today() string {
	return Day(time.Now())
}

// SameDay reports whether a and b fall on the same reference-zone day.
func SameDay(a, b time.Time) bool {
	return Day(a) == Day(b)
}

// StartOfDay returns the instant the reference-zone day containing t began.
func StartOfDay(t time.Time) time.Time {
	local := t.In(Zone)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Zone)
}

// NextReset returns the instant the next reference-zone day begins after t.
func NextReset(t time.Time) time.Time {
	return StartOfDay(t).Add(24 * time.Hour)
}
