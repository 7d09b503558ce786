package billing

import "time"

// Noon returns the calendar date of t at 12:00 UTC. The calendar date is
// read in t's own location, so a local midnight keeps its day.
func Noon(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 12, 0, 0, 0, time.UTC).Day()
}

// AddMonths moves t forward by n calendar months (backwards for negative
// n). The day is clamped to the last day of the target month, so
// January 31 plus one month is the last day of February. The result is
// normalized to noon.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 12, 0, 0, 0, time.UTC)
	if last := DaysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 12, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return Noon(a).Equal(Noon(b))
}
