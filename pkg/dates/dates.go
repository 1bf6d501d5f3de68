package dates

import "time"

// UTCDayBounds returns the midnight-to-midnight UTC window containing t.
// The calendar day is taken from t's UTC fields, not its local fields,
// because message timestamps are compared in UTC throughout the system.
// ok is false when t is the zero time; callers treat that as "no date filter".
func UTCDayBounds(t time.Time) (start, end time.Time, ok bool) {
	if t.IsZero() {
		return time.Time{}, time.Time{}, false
	}
	u := t.UTC()
	start = time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	end = start.Add(24 * time.Hour)
	return start, end, true
}

// SameUTCDay reports whether a and b fall on the same UTC calendar day.
func SameUTCDay(a, b time.Time) bool {
	au, bu := a.UTC(), b.UTC()
	return au.Year() == bu.Year() && au.Month() == bu.Month() && au.Day() == bu.Day()
}
