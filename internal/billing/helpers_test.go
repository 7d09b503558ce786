package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cardledger/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// sequentialIDs returns deterministic generators: e1, e2, ... and g1, g2, ...
func sequentialIDs() IDs {
	var entries, groups int
	return IDs{
		Entry: func() string { entries++; return fmt.Sprintf("e%d", entries) },
		Group: func() string { groups++; return fmt.Sprintf("g%d", groups) },
	}
}

func cardExpense(id, cardID string, date time.Time, amount string) domain.Entry {
	return domain.Entry{
		ID:          id,
		UserID:      "u1",
		Description: "purchase " + id,
		Amount:      dec(amount),
		Date:        date,
		Kind:        domain.KindCardExpense,
		Status:      domain.StatusPending,
		CardID:      cardID,
	}
}

func plainEntry(id string, kind domain.EntryKind, date time.Time, amount string) domain.Entry {
	return domain.Entry{
		ID:          id,
		UserID:      "u1",
		Description: "entry " + id,
		Amount:      dec(amount),
		Date:        date,
		Kind:        kind,
		Status:      domain.StatusPending,
	}
}

func ids(entries []domain.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}
