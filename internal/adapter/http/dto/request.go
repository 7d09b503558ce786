package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cardledger/internal/billing"
	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

// CardRequest represents a request to create or replace a card.
type CardRequest struct {
	Name       string `json:"name"`
	Color      string `json:"color"`
	Limit      string `json:"limit"`
	ClosingDay int    `json:"closing_day"`
	DueDay     int    `json:"due_day"`
}

// ToUseCaseInput converts to use case input.
func (r *CardRequest) ToUseCaseInput(userID string) (usecase.CardInput, error) {
	limit := decimal.Zero
	if r.Limit != "" {
		var err error
		limit, err = decimal.NewFromString(r.Limit)
		if err != nil {
			return usecase.CardInput{}, fmt.Errorf("%w: limit %q", domain.ErrInvalidAmount, r.Limit)
		}
	}

	return usecase.CardInput{
		UserID:     userID,
		Name:       r.Name,
		Color:      r.Color,
		Limit:      limit,
		ClosingDay: r.ClosingDay,
		DueDay:     r.DueDay,
	}, nil
}

// CreateEntryRequest represents a request to create an entry. Installments
// above one create a series; AmountMode says whether Amount is the total
// or the per-installment value.
type CreateEntryRequest struct {
	Description  string `json:"description"`
	Category     string `json:"category"`
	Amount       string `json:"amount"`
	Date         string `json:"date"`
	Kind         string `json:"kind"`
	Status       string `json:"status,omitempty"`
	CardID       string `json:"card_id,omitempty"`
	AmountMode   string `json:"amount_mode,omitempty"`
	Installments int    `json:"installments,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateEntryRequest) ToUseCaseInput(userID string) (usecase.CreateEntryInput, error) {
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return usecase.CreateEntryInput{}, err
	}
	date, err := ParseDate(r.Date)
	if err != nil {
		return usecase.CreateEntryInput{}, err
	}

	return usecase.CreateEntryInput{
		Date:         date,
		UserID:       userID,
		Description:  r.Description,
		Category:     r.Category,
		CardID:       r.CardID,
		Kind:         domain.EntryKind(r.Kind),
		Status:       domain.EntryStatus(r.Status),
		AmountMode:   billing.AmountMode(r.AmountMode),
		Amount:       amount,
		Installments: r.Installments,
	}, nil
}

// UpdateEntryRequest is a partial update; omitted fields are kept.
type UpdateEntryRequest struct {
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Amount      *string `json:"amount,omitempty"`
	Date        *string `json:"date,omitempty"`
	Kind        *string `json:"kind,omitempty"`
	Status      *string `json:"status,omitempty"`
	CardID      *string `json:"card_id,omitempty"`
}

func (r *UpdateEntryRequest) fields() (billing.FieldUpdates, *time.Time, error) {
	f := billing.FieldUpdates{
		Description: r.Description,
		Category:    r.Category,
		CardID:      r.CardID,
	}
	if r.Kind != nil {
		kind := domain.EntryKind(*r.Kind)
		f.Kind = &kind
	}
	if r.Amount != nil {
		amount, err := parseAmount(*r.Amount)
		if err != nil {
			return billing.FieldUpdates{}, nil, err
		}
		f.Amount = &amount
	}

	var date *time.Time
	if r.Date != nil {
		d, err := ParseDate(*r.Date)
		if err != nil {
			return billing.FieldUpdates{}, nil, err
		}
		date = &d
	}

	return f, date, nil
}

// ToUpdateInput converts to a single-entry update.
func (r *UpdateEntryRequest) ToUpdateInput(userID, id string) (usecase.UpdateEntryInput, error) {
	f, date, err := r.fields()
	if err != nil {
		return usecase.UpdateEntryInput{}, err
	}

	in := usecase.UpdateEntryInput{Date: date, UserID: userID, ID: id, Fields: f}
	if r.Status != nil {
		status := domain.EntryStatus(*r.Status)
		in.Status = &status
	}
	return in, nil
}

// ToForwardInput converts to a forward series update anchored at id.
// Status is not propagated forward.
func (r *UpdateEntryRequest) ToForwardInput(userID, id string) (usecase.UpdateForwardInput, error) {
	f, date, err := r.fields()
	if err != nil {
		return usecase.UpdateForwardInput{}, err
	}
	return usecase.UpdateForwardInput{Date: date, UserID: userID, EntryID: id, Fields: f}, nil
}

// InvoiceStatusRequest sets an invoice's status. An omitted status toggles.
type InvoiceStatusRequest struct {
	Status *string `json:"status,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *InvoiceStatusRequest) ToUseCaseInput(userID, cardID string, cycle domain.Cycle) usecase.SetInvoiceStatusInput {
	in := usecase.SetInvoiceStatusInput{Cycle: cycle, UserID: userID, CardID: cardID}
	if r.Status != nil {
		status := domain.EntryStatus(*r.Status)
		in.Status = &status
	}
	return in
}

// CandidateItem is one statement line as sent by a client.
type CandidateItem struct {
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Income      bool   `json:"income,omitempty"`
}

// ImportRequest carries either raw statement text or parsed candidates.
type ImportRequest struct {
	Text       string          `json:"text,omitempty"`
	Candidates []CandidateItem `json:"candidates,omitempty"`
}

// ToUseCaseInput converts to use case input. Amounts that do not parse are
// passed on as negative so validation rejects the line instead of the
// whole request.
func (r *ImportRequest) ToUseCaseInput(userID, cardID string, cycle domain.Cycle) usecase.ImportStatementInput {
	in := usecase.ImportStatementInput{Cycle: cycle, UserID: userID, CardID: cardID, Text: r.Text}
	for _, c := range r.Candidates {
		amount, err := decimal.NewFromString(c.Amount)
		if err != nil {
			amount = decimal.NewFromInt(-1)
		}
		in.Candidates = append(in.Candidates, billing.Candidate{
			Description: c.Description,
			Category:    c.Category,
			Date:        c.Date,
			Amount:      amount,
			Income:      c.Income,
		})
	}
	return in
}

// ParseDate accepts YYYY-MM-DD, DD/MM/YYYY or RFC 3339 and returns the day
// at noon UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := billing.ParseStatementDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", domain.ErrInvalidDate, s)
	}
	return t, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, s)
	}
	return d, nil
}
