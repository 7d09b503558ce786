package billing

import (
	"time"

	"github.com/iho/cardledger/internal/domain"
)

// ResolveCycle returns the billing cycle an entry dated date belongs to on
// a card that closes on closingDay. Purchases after the closing day land on
// the next month's invoice. closingDay is compared as given; it is not
// clamped to the length of date's month.
func ResolveCycle(date time.Time, closingDay int) domain.Cycle {
	cycle := domain.CycleOf(date)
	if date.Day() > closingDay {
		return cycle.Next()
	}
	return cycle
}

// Bounds is an inclusive date range.
type Bounds struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the calendar date of t lies within the bounds.
func (b Bounds) Contains(t time.Time) bool {
	d := Noon(t)
	return !d.Before(b.Start) && !d.After(b.End)
}

// CycleBounds returns the statement window of cycle: from closingDay of the
// previous month through closingDay-1 of the cycle's month. Days outside a
// month roll over the way time.Date normalizes them; closing day 1 ends on
// the last day of the previous month.
func CycleBounds(cycle domain.Cycle, closingDay int) Bounds {
	start := time.Date(cycle.Year, cycle.Month-1, closingDay, 0, 0, 0, 0, time.UTC)
	end := time.Date(cycle.Year, cycle.Month, closingDay-1, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	return Bounds{Start: start, End: end}
}
