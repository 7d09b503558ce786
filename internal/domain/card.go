package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Card is a credit card with a monthly statement cycle.
type Card struct {
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ID         string
	UserID     string
	Name       string
	Color      string
	Limit      decimal.Decimal
	ClosingDay int
	DueDay     int
}

// Validate checks card fields supplied by callers.
func (c *Card) Validate() error {
	if err := ValidateCardName(c.Name); err != nil {
		return err
	}
	if err := ValidateDayOfMonth(c.ClosingDay); err != nil {
		return ErrInvalidClosingDay
	}
	if err := ValidateDayOfMonth(c.DueDay); err != nil {
		return ErrInvalidDueDay
	}
	if c.Limit.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}
