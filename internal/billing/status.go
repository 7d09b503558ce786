package billing

import (
	"github.com/iho/cardledger/internal/domain"
)

// StatusChange is the batch a payment-status toggle must write: every
// member of the invoice gets Status.
type StatusChange struct {
	Cycle     domain.Cycle
	InvoiceID string
	CardID    string
	Status    domain.EntryStatus
	MemberIDs []string
}

// Empty reports whether the change touches no entries.
func (c StatusChange) Empty() bool {
	return len(c.MemberIDs) == 0
}

// InvoiceMembers returns the card expenses that make up cardID's invoice in
// cycle. The set is the same one Aggregate totals for that card.
func InvoiceMembers(cardID string, cycle domain.Cycle, entries []domain.Entry, cards []domain.Card) []domain.Entry {
	card, ok := indexCards(cards)[cardID]
	if !ok {
		return nil
	}
	var members []domain.Entry
	for _, e := range entries {
		if e.Kind != domain.KindCardExpense || e.CardID != card.ID {
			continue
		}
		if ResolveCycle(e.Date, card.ClosingDay) == cycle {
			members = append(members, e)
		}
	}
	return members
}

// ToggleInvoiceStatus returns the status write that marks cardID's invoice
// in cycle as newStatus. The aggregate status is never stored; it is
// derived from the members on the next read.
func ToggleInvoiceStatus(cardID string, cycle domain.Cycle, entries []domain.Entry, cards []domain.Card, newStatus domain.EntryStatus) StatusChange {
	members := InvoiceMembers(cardID, cycle, entries, cards)
	ids := make([]string, 0, len(members))
	for _, e := range members {
		ids = append(ids, e.ID)
	}
	return StatusChange{
		Cycle:     cycle,
		InvoiceID: domain.InvoiceID(cardID, cycle),
		CardID:    cardID,
		Status:    newStatus,
		MemberIDs: ids,
	}
}

// NextInvoiceStatus is the status a plain toggle writes: completed unless
// the invoice is already completed.
func NextInvoiceStatus(cardID string, cycle domain.Cycle, entries []domain.Entry, cards []domain.Card) domain.EntryStatus {
	return InvoiceStatus(InvoiceMembers(cardID, cycle, entries, cards)).Opposite()
}
