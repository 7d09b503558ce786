package billing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cardledger/internal/domain"
)

// FieldUpdates holds the fields a forward edit rewrites on every affected
// series member. Nil fields are left alone.
type FieldUpdates struct {
	Description *string
	Category    *string
	CardID      *string
	Kind        *domain.EntryKind
	Amount      *decimal.Decimal
}

// Empty reports whether no field is set.
func (f FieldUpdates) Empty() bool {
	return f.Description == nil && f.Category == nil && f.CardID == nil &&
		f.Kind == nil && f.Amount == nil
}

// Apply writes the set fields onto e. Amounts are rounded to cents. An entry
// that ends up with a kind other than card_expense loses its card reference.
func (f FieldUpdates) Apply(e *domain.Entry) {
	if f.Description != nil {
		e.Description = *f.Description
	}
	if f.Category != nil {
		e.Category = *f.Category
	}
	if f.Amount != nil {
		e.Amount = f.Amount.Round(2)
	}
	if f.Kind != nil {
		e.Kind = *f.Kind
	}
	if f.CardID != nil {
		e.CardID = *f.CardID
	}
	if e.Kind != domain.KindCardExpense {
		e.CardID = ""
	}
}

// SeriesMembers returns the members of groupID ordered by position.
func SeriesMembers(entries []domain.Entry, groupID string) []domain.Entry {
	if groupID == "" {
		return nil
	}
	var members []domain.Entry
	for _, e := range entries {
		if e.InSeries() && e.Installment.GroupID == groupID {
			members = append(members, e)
		}
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Installment.Position < members[j].Installment.Position
	})
	return members
}

// UpdateForward rewrites every member of groupID at or after
// anchorPosition. Member p is redated to newAnchorDate plus
// (p - anchorPosition) months and receives fields. Members before the
// anchor are not returned and keep their values; group, position and count
// are never changed. The returned entries are copies ready to persist.
func UpdateForward(entries []domain.Entry, groupID string, anchorPosition int, newAnchorDate time.Time, fields FieldUpdates) []domain.Entry {
	anchor := Noon(newAnchorDate)

	var updates []domain.Entry
	for _, e := range SeriesMembers(entries, groupID) {
		pos := e.Installment.Position
		if pos < anchorPosition {
			continue
		}
		u := e.Clone()
		u.Date = AddMonths(anchor, pos-anchorPosition)
		fields.Apply(&u)
		updates = append(updates, u)
	}
	return updates
}

// DeleteForward returns the IDs of members of groupID dated on or after
// cutoff, compared by calendar day.
func DeleteForward(entries []domain.Entry, groupID string, cutoff time.Time) []string {
	c := Noon(cutoff)

	var ids []string
	for _, e := range SeriesMembers(entries, groupID) {
		if !Noon(e.Date).Before(c) {
			ids = append(ids, e.ID)
		}
	}
	return ids
}
