package billing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iho/cardledger/internal/domain"
)

// CategoryTotal is the amount spent in one category.
type CategoryTotal struct {
	Category string
	Amount   decimal.Decimal
}

// MonthSummary is the dashboard view of one cycle.
type MonthSummary struct {
	Cycle           domain.Cycle
	Income          decimal.Decimal
	Expenses        decimal.Decimal
	Balance         decimal.Decimal
	PendingIncome   decimal.Decimal
	PendingExpenses decimal.Decimal
	Categories      []CategoryTotal
}

const uncategorized = "Other"

// BelongsTo reports whether e counts toward cycle. Card expenses are placed
// by their card's closing day and dropped when the card is unknown; every
// other entry by its calendar month.
func BelongsTo(e domain.Entry, cardsByID map[string]domain.Card, cycle domain.Cycle) bool {
	if e.Kind != domain.KindCardExpense {
		return cycle.Contains(e.Date)
	}
	card, ok := cardsByID[e.CardID]
	if !ok {
		return false
	}
	return ResolveCycle(e.Date, card.ClosingDay) == cycle
}

// Summarize totals the entries that belong to cycle. Categories are sorted
// by amount, largest first, and cut to topN when topN is positive.
func Summarize(entries []domain.Entry, cards []domain.Card, cycle domain.Cycle, topN int) MonthSummary {
	byID := indexCards(cards)
	s := MonthSummary{
		Cycle:           cycle,
		Income:          decimal.Zero,
		Expenses:        decimal.Zero,
		PendingIncome:   decimal.Zero,
		PendingExpenses: decimal.Zero,
	}
	byCategory := make(map[string]decimal.Decimal)

	for _, e := range entries {
		if !BelongsTo(e, byID, cycle) {
			continue
		}
		pending := e.Status == domain.StatusPending
		if e.Kind == domain.KindIncome {
			s.Income = s.Income.Add(e.Amount)
			if pending {
				s.PendingIncome = s.PendingIncome.Add(e.Amount)
			}
			continue
		}
		s.Expenses = s.Expenses.Add(e.Amount)
		if pending {
			s.PendingExpenses = s.PendingExpenses.Add(e.Amount)
		}
		cat := e.Category
		if cat == "" {
			cat = uncategorized
		}
		byCategory[cat] = byCategory[cat].Add(e.Amount)
	}
	s.Balance = s.Income.Sub(s.Expenses)

	for cat, amount := range byCategory {
		s.Categories = append(s.Categories, CategoryTotal{Category: cat, Amount: amount})
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		if c := s.Categories[i].Amount.Cmp(s.Categories[j].Amount); c != 0 {
			return c > 0
		}
		return s.Categories[i].Category < s.Categories[j].Category
	})
	if topN > 0 && len(s.Categories) > topN {
		s.Categories = s.Categories[:topN]
	}
	return s
}

// CardUsageReport shows how much of a card's limit one invoice uses.
// Utilization is a percentage capped at 100; nothing is enforced.
type CardUsageReport struct {
	Cycle        domain.Cycle
	CardID       string
	InvoiceTotal decimal.Decimal
	Limit        decimal.Decimal
	Available    decimal.Decimal
	Utilization  decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// CardUsage reports card's invoice total for cycle against its limit.
func CardUsage(card domain.Card, entries []domain.Entry, cycle domain.Cycle) CardUsageReport {
	total := decimal.Zero
	for _, e := range InvoiceMembers(card.ID, cycle, entries, []domain.Card{card}) {
		total = total.Add(e.Amount)
	}

	r := CardUsageReport{
		Cycle:        cycle,
		CardID:       card.ID,
		InvoiceTotal: total,
		Limit:        card.Limit,
		Available:    card.Limit.Sub(total),
		Utilization:  decimal.Zero,
	}
	if card.Limit.IsPositive() {
		r.Utilization = decimal.Min(total.Div(card.Limit).Mul(hundred), hundred).Round(2)
	}
	return r
}

// HistoryPoint holds the totals of one cycle.
type HistoryPoint struct {
	Cycle        domain.Cycle
	Income       decimal.Decimal
	Expenses     decimal.Decimal
	CardInvoices decimal.Decimal
}

// History returns months points ending at end, oldest first.
func History(entries []domain.Entry, cards []domain.Card, end domain.Cycle, months int) []HistoryPoint {
	if months < 1 {
		months = 1
	}
	byID := indexCards(cards)
	points := make([]HistoryPoint, months)
	index := make(map[domain.Cycle]int, months)
	for i := range points {
		c := end.Add(i - months + 1)
		points[i] = HistoryPoint{Cycle: c, Income: decimal.Zero, Expenses: decimal.Zero, CardInvoices: decimal.Zero}
		index[c] = i
	}

	for _, e := range entries {
		var c domain.Cycle
		switch e.Kind {
		case domain.KindCardExpense:
			card, ok := byID[e.CardID]
			if !ok {
				continue
			}
			c = ResolveCycle(e.Date, card.ClosingDay)
		default:
			c = domain.CycleOf(e.Date)
		}
		i, ok := index[c]
		if !ok {
			continue
		}
		p := &points[i]
		switch e.Kind {
		case domain.KindIncome:
			p.Income = p.Income.Add(e.Amount)
		case domain.KindCardExpense:
			p.CardInvoices = p.CardInvoices.Add(e.Amount)
			p.Expenses = p.Expenses.Add(e.Amount)
		default:
			p.Expenses = p.Expenses.Add(e.Amount)
		}
	}
	return points
}
