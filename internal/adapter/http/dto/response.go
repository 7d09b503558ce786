package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cardledger/internal/billing"
	"github.com/iho/cardledger/internal/domain"
)

const dateLayout = "2006-01-02"

// CardResponse represents a card in API responses.
type CardResponse struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Color      string          `json:"color"`
	Limit      decimal.Decimal `json:"limit"`
	ClosingDay int             `json:"closing_day"`
	DueDay     int             `json:"due_day"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// CardFromDomain converts a domain card to a response.
func CardFromDomain(c *domain.Card) *CardResponse {
	return &CardResponse{
		ID:         c.ID,
		Name:       c.Name,
		Color:      c.Color,
		Limit:      c.Limit,
		ClosingDay: c.ClosingDay,
		DueDay:     c.DueDay,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// CardsFromDomain converts domain cards to responses.
func CardsFromDomain(cards []domain.Card) []*CardResponse {
	result := make([]*CardResponse, len(cards))
	for i := range cards {
		result[i] = CardFromDomain(&cards[i])
	}
	return result
}

// InstallmentResponse places an entry in its series.
type InstallmentResponse struct {
	GroupID  string `json:"group_id"`
	Position int    `json:"position"`
	Count    int    `json:"count"`
}

// EntryResponse represents an entry in API responses.
type EntryResponse struct {
	ID          string               `json:"id"`
	Description string               `json:"description"`
	Category    string               `json:"category"`
	Amount      decimal.Decimal      `json:"amount"`
	Date        string               `json:"date"`
	Kind        string               `json:"kind"`
	Status      string               `json:"status"`
	CardID      string               `json:"card_id,omitempty"`
	Installment *InstallmentResponse `json:"installment,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// EntryFromDomain converts a domain entry to a response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	resp := &EntryResponse{
		ID:          e.ID,
		Description: e.Description,
		Category:    e.Category,
		Amount:      e.Amount,
		Date:        e.Date.Format(dateLayout),
		Kind:        string(e.Kind),
		Status:      string(e.Status),
		CardID:      e.CardID,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if e.Installment != nil {
		resp.Installment = &InstallmentResponse{
			GroupID:  e.Installment.GroupID,
			Position: e.Installment.Position,
			Count:    e.Installment.Count,
		}
	}
	return resp
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i := range entries {
		result[i] = EntryFromDomain(&entries[i])
	}
	return result
}

// InvoiceResponse represents a virtual invoice.
type InvoiceResponse struct {
	ID          string          `json:"id"`
	CardID      string          `json:"card_id"`
	Description string          `json:"description"`
	Cycle       string          `json:"cycle"`
	DueDate     string          `json:"due_date"`
	Status      string          `json:"status"`
	Total       decimal.Decimal `json:"total"`
	MemberIDs   []string        `json:"member_ids"`
}

// InvoiceFromDomain converts a virtual invoice to a response.
func InvoiceFromDomain(inv *domain.VirtualInvoice) *InvoiceResponse {
	return &InvoiceResponse{
		ID:          inv.ID,
		CardID:      inv.CardID,
		Description: inv.Description,
		Cycle:       inv.Cycle.String(),
		DueDate:     inv.DueDate.Format(dateLayout),
		Status:      string(inv.Status),
		Total:       inv.Total,
		MemberIDs:   inv.MemberIDs,
	}
}

// MonthResponse is the aggregated view of one cycle.
type MonthResponse struct {
	Cycle    string             `json:"cycle"`
	Entries  []*EntryResponse   `json:"entries"`
	Invoices []*InvoiceResponse `json:"invoices"`
}

// MonthFromAggregation converts an aggregation to a response.
func MonthFromAggregation(a billing.Aggregation) *MonthResponse {
	resp := &MonthResponse{
		Cycle:    a.Cycle.String(),
		Entries:  EntriesFromDomain(a.NonCard),
		Invoices: make([]*InvoiceResponse, len(a.Invoices)),
	}
	for i := range a.Invoices {
		resp.Invoices[i] = InvoiceFromDomain(&a.Invoices[i])
	}
	return resp
}

// StatusChangeResponse reports an invoice status change.
type StatusChangeResponse struct {
	InvoiceID string   `json:"invoice_id"`
	CardID    string   `json:"card_id"`
	Cycle     string   `json:"cycle"`
	Status    string   `json:"status,omitempty"`
	MemberIDs []string `json:"member_ids"`
}

// StatusChangeFromBilling converts a status change to a response.
func StatusChangeFromBilling(c billing.StatusChange) *StatusChangeResponse {
	ids := c.MemberIDs
	if ids == nil {
		ids = []string{}
	}
	return &StatusChangeResponse{
		InvoiceID: c.InvoiceID,
		CardID:    c.CardID,
		Cycle:     c.Cycle.String(),
		Status:    string(c.Status),
		MemberIDs: ids,
	}
}

// RejectionResponse is a statement line that was not imported.
type RejectionResponse struct {
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Reason      string          `json:"reason"`
}

// ImportResponse reports the outcome of a statement import.
type ImportResponse struct {
	WindowStart time.Time            `json:"window_start"`
	WindowEnd   time.Time            `json:"window_end"`
	Accepted    []*EntryResponse     `json:"accepted"`
	Rejected    []*RejectionResponse `json:"rejected"`
}

// ImportFromBilling converts an import result to a response.
func ImportFromBilling(r billing.ImportResult) *ImportResponse {
	resp := &ImportResponse{
		WindowStart: r.Bounds.Start,
		WindowEnd:   r.Bounds.End,
		Accepted:    EntriesFromDomain(r.Accepted),
		Rejected:    make([]*RejectionResponse, len(r.Rejected)),
	}
	for i, rej := range r.Rejected {
		resp.Rejected[i] = &RejectionResponse{
			Description: rej.Candidate.Description,
			Date:        rej.Candidate.Date,
			Amount:      rej.Candidate.Amount,
			Reason:      string(rej.Reason),
		}
	}
	return resp
}

// DeleteForwardResponse lists the entries removed by a forward delete.
type DeleteForwardResponse struct {
	Deleted []string `json:"deleted"`
}

// CategoryResponse is one category total.
type CategoryResponse struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// SummaryResponse is the dashboard view of a cycle.
type SummaryResponse struct {
	Cycle           string              `json:"cycle"`
	Income          decimal.Decimal     `json:"income"`
	Expenses        decimal.Decimal     `json:"expenses"`
	Balance         decimal.Decimal     `json:"balance"`
	PendingIncome   decimal.Decimal     `json:"pending_income"`
	PendingExpenses decimal.Decimal     `json:"pending_expenses"`
	Categories      []*CategoryResponse `json:"categories"`
}

// SummaryFromBilling converts a month summary to a response.
func SummaryFromBilling(s billing.MonthSummary) *SummaryResponse {
	resp := &SummaryResponse{
		Cycle:           s.Cycle.String(),
		Income:          s.Income,
		Expenses:        s.Expenses,
		Balance:         s.Balance,
		PendingIncome:   s.PendingIncome,
		PendingExpenses: s.PendingExpenses,
		Categories:      make([]*CategoryResponse, len(s.Categories)),
	}
	for i, c := range s.Categories {
		resp.Categories[i] = &CategoryResponse{Category: c.Category, Amount: c.Amount}
	}
	return resp
}

// HistoryPointResponse holds the totals of one cycle.
type HistoryPointResponse struct {
	Cycle        string          `json:"cycle"`
	Income       decimal.Decimal `json:"income"`
	Expenses     decimal.Decimal `json:"expenses"`
	CardInvoices decimal.Decimal `json:"card_invoices"`
}

// HistoryFromBilling converts history points to responses.
func HistoryFromBilling(points []billing.HistoryPoint) []*HistoryPointResponse {
	result := make([]*HistoryPointResponse, len(points))
	for i, p := range points {
		result[i] = &HistoryPointResponse{
			Cycle:        p.Cycle.String(),
			Income:       p.Income,
			Expenses:     p.Expenses,
			CardInvoices: p.CardInvoices,
		}
	}
	return result
}

// UsageResponse shows how much of a card's limit an invoice uses.
type UsageResponse struct {
	CardID       string          `json:"card_id"`
	Cycle        string          `json:"cycle"`
	InvoiceTotal decimal.Decimal `json:"invoice_total"`
	Limit        decimal.Decimal `json:"limit"`
	Available    decimal.Decimal `json:"available"`
	Utilization  decimal.Decimal `json:"utilization"`
}

// UsageFromBilling converts a card usage report to a response.
func UsageFromBilling(u billing.CardUsageReport) *UsageResponse {
	return &UsageResponse{
		CardID:       u.CardID,
		Cycle:        u.Cycle.String(),
		InvoiceTotal: u.InvoiceTotal,
		Limit:        u.Limit,
		Available:    u.Available,
		Utilization:  u.Utilization,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
