package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cardledger/internal/domain"
)

// Aggregation is the month view: plain entries plus one virtual invoice per
// card that has card expenses in the cycle.
type Aggregation struct {
	Cycle    domain.Cycle
	NonCard  []domain.Entry
	Invoices []domain.VirtualInvoice
}

// Aggregate builds the month view for cycle. Entries that are not card
// expenses are listed unchanged when their own calendar month is cycle.
// Card expenses are grouped per card by ResolveCycle and emitted as
// invoices in card order; a card with no members gets no invoice. Card
// expenses whose card is unknown appear nowhere.
func Aggregate(entries []domain.Entry, cards []domain.Card, cycle domain.Cycle) Aggregation {
	out := Aggregation{Cycle: cycle}
	byID := indexCards(cards)
	members := make(map[string][]domain.Entry)

	for _, e := range entries {
		if e.Kind != domain.KindCardExpense {
			if cycle.Contains(e.Date) {
				out.NonCard = append(out.NonCard, e)
			}
			continue
		}
		card, ok := byID[e.CardID]
		if !ok {
			continue
		}
		if ResolveCycle(e.Date, card.ClosingDay) == cycle {
			members[card.ID] = append(members[card.ID], e)
		}
	}

	for _, card := range cards {
		m, ok := members[card.ID]
		if !ok {
			continue
		}
		delete(members, card.ID)
		out.Invoices = append(out.Invoices, buildInvoice(card, cycle, m))
	}
	return out
}

// InvoiceStatus is completed only when there is at least one member and
// every member is completed.
func InvoiceStatus(members []domain.Entry) domain.EntryStatus {
	if len(members) == 0 {
		return domain.StatusPending
	}
	for _, e := range members {
		if e.Status != domain.StatusCompleted {
			return domain.StatusPending
		}
	}
	return domain.StatusCompleted
}

func buildInvoice(card domain.Card, cycle domain.Cycle, members []domain.Entry) domain.VirtualInvoice {
	total := decimal.Zero
	ids := make([]string, 0, len(members))
	for _, e := range members {
		total = total.Add(e.Amount)
		ids = append(ids, e.ID)
	}
	return domain.VirtualInvoice{
		ID:          domain.InvoiceID(card.ID, cycle),
		CardID:      card.ID,
		Cycle:       cycle,
		Description: "Invoice " + card.Name,
		Total:       total,
		DueDate:     dueDate(cycle, card.DueDay),
		Status:      InvoiceStatus(members),
		MemberIDs:   ids,
	}
}

func dueDate(cycle domain.Cycle, dueDay int) time.Time {
	return time.Date(cycle.Year, cycle.Month, dueDay, 12, 0, 0, 0, time.UTC)
}

// indexCards keeps the first card for each ID.
func indexCards(cards []domain.Card) map[string]domain.Card {
	byID := make(map[string]domain.Card, len(cards))
	for _, c := range cards {
		if _, dup := byID[c.ID]; !dup {
			byID[c.ID] = c
		}
	}
	return byID
}
