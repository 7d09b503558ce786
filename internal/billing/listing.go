package billing

import (
	"sort"

	"github.com/iho/cardledger/internal/domain"
)

// SortBy names the field a listing is ordered by.
type SortBy string

const (
	SortByDate   SortBy = "date"
	SortByAmount SortBy = "amount"
)

// SortOrder is ascending or descending.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// EntriesInMonth returns the entries dated in cycle's calendar month,
// card expenses included, optionally restricted to kinds.
func EntriesInMonth(entries []domain.Entry, cycle domain.Cycle, kinds ...domain.EntryKind) []domain.Entry {
	var out []domain.Entry
	for _, e := range entries {
		if !cycle.Contains(e.Date) {
			continue
		}
		if len(kinds) > 0 && !hasKind(kinds, e.Kind) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func hasKind(kinds []domain.EntryKind, k domain.EntryKind) bool {
	for _, want := range kinds {
		if want == k {
			return true
		}
	}
	return false
}

// SortEntries returns a sorted copy of entries. Ties keep their input
// order. Unknown fields sort by date and unknown orders sort descending.
func SortEntries(entries []domain.Entry, by SortBy, order SortOrder) []domain.Entry {
	out := make([]domain.Entry, len(entries))
	copy(out, entries)

	compare := func(a, b domain.Entry) int {
		if by == SortByAmount {
			return a.Amount.Cmp(b.Amount)
		}
		switch {
		case a.Date.Before(b.Date):
			return -1
		case a.Date.After(b.Date):
			return 1
		}
		return 0
	}

	sort.SliceStable(out, func(i, j int) bool {
		c := compare(out[i], out[j])
		if order == OrderAsc {
			return c < 0
		}
		return c > 0
	})
	return out
}
