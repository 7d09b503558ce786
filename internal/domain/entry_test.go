package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validEntry() Entry {
	return Entry{
		ID:          "e1",
		UserID:      "u1",
		Description: "Lunch",
		Amount:      decimal.NewFromInt(25),
		Date:        time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC),
		Kind:        KindExpense,
		Status:      StatusPending,
	}
}

func TestEntryValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(e *Entry)
		want   error
	}{
		{"valid expense", func(e *Entry) {}, nil},
		{"valid card expense", func(e *Entry) { e.Kind = KindCardExpense; e.CardID = "c1" }, nil},
		{"unknown kind", func(e *Entry) { e.Kind = "transfer" }, ErrInvalidKind},
		{"unknown status", func(e *Entry) { e.Status = "overdue" }, ErrInvalidStatus},
		{"negative amount", func(e *Entry) { e.Amount = decimal.NewFromInt(-1) }, ErrInvalidAmount},
		{"zero date", func(e *Entry) { e.Date = time.Time{} }, ErrInvalidDate},
		{"card expense without card", func(e *Entry) { e.Kind = KindCardExpense }, ErrCardRequired},
		{"income with card", func(e *Entry) { e.Kind = KindIncome; e.CardID = "c1" }, ErrUnexpectedCard},
		{"blank description", func(e *Entry) { e.Description = " " }, ErrInvalidDescription},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEntry()
			tt.modify(&e)
			err := e.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEntryCloneDoesNotShareLink(t *testing.T) {
	t.Parallel()

	e := validEntry()
	e.Installment = &InstallmentLink{GroupID: "g1", Position: 1, Count: 3}

	c := e.Clone()
	c.Installment.Position = 2

	if e.Installment.Position != 1 {
		t.Fatalf("clone mutated the original link")
	}
	if !c.InSeries() {
		t.Fatalf("clone should still be in series")
	}
}

func TestEntryStatusOpposite(t *testing.T) {
	t.Parallel()

	if StatusPending.Opposite() != StatusCompleted {
		t.Fatalf("pending should flip to completed")
	}
	if StatusCompleted.Opposite() != StatusPending {
		t.Fatalf("completed should flip to pending")
	}
}

func TestCycle(t *testing.T) {
	t.Parallel()

	dec := NewCycle(2024, time.December)
	if got := dec.Next(); got != (Cycle{Year: 2025, Month: time.January}) {
		t.Fatalf("expected 2025-01, got %s", got)
	}
	if got := NewCycle(2024, time.January).Prev(); got != (Cycle{Year: 2023, Month: time.December}) {
		t.Fatalf("expected 2023-12, got %s", got)
	}
	if got := dec.Add(-13).String(); got != "2023-11" {
		t.Fatalf("expected 2023-11, got %s", got)
	}
	if !dec.Contains(time.Date(2024, 12, 31, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected December 31 to be in 2024-12")
	}
	if got := InvoiceID("card-1", dec); got != "card-1:2024-12" {
		t.Fatalf("unexpected invoice id %q", got)
	}

	if _, err := ValidateCycle(2024, 13); !errors.Is(err, ErrInvalidCycle) {
		t.Fatalf("expected ErrInvalidCycle, got %v", err)
	}
}
