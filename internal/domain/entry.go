package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind classifies a ledger entry.
type EntryKind string

const (
	KindIncome      EntryKind = "income"
	KindExpense     EntryKind = "expense"
	KindCardExpense EntryKind = "card_expense"
)

// Valid reports whether k is a known kind.
func (k EntryKind) Valid() bool {
	switch k {
	case KindIncome, KindExpense, KindCardExpense:
		return true
	}
	return false
}

// EntryStatus is the settlement status of an entry.
type EntryStatus string

const (
	StatusPending   EntryStatus = "pending"
	StatusCompleted EntryStatus = "completed"
)

// Valid reports whether s is a known status.
func (s EntryStatus) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Opposite returns the other status.
func (s EntryStatus) Opposite() EntryStatus {
	if s == StatusCompleted {
		return StatusPending
	}
	return StatusCompleted
}

// InstallmentLink ties an entry to the series it was generated with.
// For one GroupID the positions are exactly 1..Count.
type InstallmentLink struct {
	GroupID  string
	Position int
	Count    int
}

// Entry is a single income or expense record.
type Entry struct {
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Date        time.Time
	Installment *InstallmentLink
	ID          string
	UserID      string
	Description string
	Category    string
	CardID      string
	Kind        EntryKind
	Status      EntryStatus
	Amount      decimal.Decimal
}

// InSeries reports whether the entry belongs to an installment series.
func (e *Entry) InSeries() bool {
	return e.Installment != nil && e.Installment.GroupID != ""
}

// Clone returns a copy that does not share the installment link.
func (e Entry) Clone() Entry {
	if e.Installment != nil {
		link := *e.Installment
		e.Installment = &link
	}
	return e
}

// Validate checks the per-entry invariants enforced at the API boundary.
func (e *Entry) Validate() error {
	if !e.Kind.Valid() {
		return ErrInvalidKind
	}
	if !e.Status.Valid() {
		return ErrInvalidStatus
	}
	if err := ValidateAmount(e.Amount); err != nil {
		return err
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if e.Kind == KindCardExpense && e.CardID == "" {
		return ErrCardRequired
	}
	if e.Kind != KindCardExpense && e.CardID != "" {
		return ErrUnexpectedCard
	}
	if err := ValidateDescription(e.Description); err != nil {
		return err
	}
	return ValidateCategory(e.Category)
}
