package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Cycle is the (year, month) a dated entry is billed in.
type Cycle struct {
	Year  int
	Month time.Month
}

// NewCycle builds a cycle, normalizing out-of-range months.
func NewCycle(year int, month time.Month) Cycle {
	t := time.Date(year, month, 1, 12, 0, 0, 0, time.UTC)
	return Cycle{Year: t.Year(), Month: t.Month()}
}

// CycleOf returns the calendar month of t.
func CycleOf(t time.Time) Cycle {
	return Cycle{Year: t.Year(), Month: t.Month()}
}

// Next returns the following month.
func (c Cycle) Next() Cycle { return NewCycle(c.Year, c.Month+1) }

// Prev returns the preceding month.
func (c Cycle) Prev() Cycle { return NewCycle(c.Year, c.Month-1) }

// Add shifts the cycle by n months.
func (c Cycle) Add(n int) Cycle { return NewCycle(c.Year, c.Month+time.Month(n)) }

// Contains reports whether t falls in the cycle's calendar month.
func (c Cycle) Contains(t time.Time) bool {
	return t.Year() == c.Year && t.Month() == c.Month
}

func (c Cycle) String() string {
	return fmt.Sprintf("%04d-%02d", c.Year, int(c.Month))
}

// ValidateCycle rejects months outside 1..12.
func ValidateCycle(year, month int) (Cycle, error) {
	if month < 1 || month > 12 {
		return Cycle{}, fmt.Errorf("%w: month %d", ErrInvalidCycle, month)
	}
	if year < 1 || year > 9999 {
		return Cycle{}, fmt.Errorf("%w: year %d", ErrInvalidCycle, year)
	}
	return Cycle{Year: year, Month: time.Month(month)}, nil
}

// VirtualInvoice is the derived monthly bill of one card. It is never
// persisted; it is rebuilt from entries on every read.
type VirtualInvoice struct {
	DueDate     time.Time
	Cycle       Cycle
	ID          string
	CardID      string
	Description string
	Status      EntryStatus
	MemberIDs   []string
	Total       decimal.Decimal
}

// InvoiceID builds the synthetic identifier for a card's invoice in a cycle.
func InvoiceID(cardID string, c Cycle) string {
	return cardID + ":" + c.String()
}
