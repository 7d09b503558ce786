package billing

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cardledger/internal/domain"
)

// Candidate is one line item extracted from a card statement.
type Candidate struct {
	Description string
	Category    string
	Date        string
	Amount      decimal.Decimal
	Income      bool
}

// RejectReason says why a candidate was not imported.
type RejectReason string

const (
	RejectInvalidDate   RejectReason = "invalid_date"
	RejectOutsideCycle  RejectReason = "outside_cycle"
	RejectInvalidAmount RejectReason = "invalid_amount"
)

// Rejection pairs a candidate with the reason it was dropped.
type Rejection struct {
	Candidate Candidate
	Reason    RejectReason
}

// ImportResult is the outcome of validating a statement against one card
// cycle.
type ImportResult struct {
	Bounds   Bounds
	Accepted []domain.Entry
	Rejected []Rejection
}

var errUnparseableDate = errors.New("unparseable statement date")

var statementDateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"2006-01-02",
	time.RFC3339,
}

// ParseStatementDate parses DD/MM/YYYY or ISO dates and returns the day at
// noon UTC.
func ParseStatementDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range statementDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Noon(t), nil
		}
	}
	return time.Time{}, errUnparseableDate
}

// ValidateImport turns statement candidates into entries for card in cycle.
// Candidates with dates that do not parse or fall outside the cycle's
// statement window are rejected. Income candidates become income entries
// without a card; everything else becomes a completed card expense on card.
func ValidateImport(candidates []Candidate, card domain.Card, cycle domain.Cycle, ids IDs) ImportResult {
	ids = ids.withDefaults()
	res := ImportResult{Bounds: CycleBounds(cycle, card.ClosingDay)}

	for _, c := range candidates {
		date, err := ParseStatementDate(c.Date)
		if err != nil {
			res.Rejected = append(res.Rejected, Rejection{Candidate: c, Reason: RejectInvalidDate})
			continue
		}
		if !res.Bounds.Contains(date) {
			res.Rejected = append(res.Rejected, Rejection{Candidate: c, Reason: RejectOutsideCycle})
			continue
		}
		if c.Amount.IsNegative() {
			res.Rejected = append(res.Rejected, Rejection{Candidate: c, Reason: RejectInvalidAmount})
			continue
		}

		e := domain.Entry{
			ID:          ids.Entry(),
			UserID:      card.UserID,
			Description: strings.TrimSpace(c.Description),
			Category:    c.Category,
			Amount:      c.Amount.Round(2),
			Date:        date,
			Status:      domain.StatusCompleted,
		}
		if c.Income {
			e.Kind = domain.KindIncome
		} else {
			e.Kind = domain.KindCardExpense
			e.CardID = card.ID
		}
		res.Accepted = append(res.Accepted, e)
	}
	return res
}
