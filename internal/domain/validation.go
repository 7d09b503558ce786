package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidCardName    = errors.New("invalid card name")
	ErrInvalidDescription = errors.New("invalid description")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrAmountTooLarge     = errors.New("amount exceeds maximum allowed")
	ErrInvalidDay         = errors.New("day of month must be between 1 and 31")
)

// Validation constants
const (
	MaxCardNameLength    = 100
	MaxDescriptionLength = 255
	MaxCategoryLength    = 64
	MaxEntryAmount       = "1000000000" // 1 billion
	MaxInstallments      = 120
)

// ValidateCardName validates a card display name.
func ValidateCardName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidCardName)
	}

	if len(name) > MaxCardNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidCardName, MaxCardNameLength)
	}

	return nil
}

// ValidateDescription validates an entry description.
func ValidateDescription(description string) error {
	description = strings.TrimSpace(description)

	if description == "" {
		return fmt.Errorf("%w: description cannot be empty", ErrInvalidDescription)
	}

	if len(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidDescription, MaxDescriptionLength)
	}

	return nil
}

// ValidateCategory validates a category tag. Empty categories are allowed.
func ValidateCategory(category string) error {
	if len(category) > MaxCategoryLength {
		return fmt.Errorf("%w: category exceeds %d characters", ErrInvalidCategory, MaxCategoryLength)
	}
	return nil
}

// ValidateDayOfMonth validates closing and due days.
func ValidateDayOfMonth(day int) error {
	if day < 1 || day > 31 {
		return fmt.Errorf("%w: got %d", ErrInvalidDay, day)
	}
	return nil
}

// ValidateAmount validates an entry amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxEntryAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxEntryAmount)
	}

	return nil
}

// ValidateInstallments validates the number of installments requested.
// Values below one are accepted; the generator treats them as one.
func ValidateInstallments(count int) error {
	if count > MaxInstallments {
		return fmt.Errorf("%w: maximum is %d", ErrInvalidInstallments, MaxInstallments)
	}
	return nil
}
