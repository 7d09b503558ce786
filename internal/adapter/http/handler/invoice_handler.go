package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/cardledger/internal/adapter/http/dto"
	"github.com/iho/cardledger/internal/billing"
	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

// InvoiceService defines the behavior needed by InvoiceHandler.
type InvoiceService interface {
	Month(ctx context.Context, userID string, cycle domain.Cycle) (billing.Aggregation, error)
	SetInvoiceStatus(ctx context.Context, input usecase.SetInvoiceStatusInput) (billing.StatusChange, error)
	ImportStatement(ctx context.Context, input usecase.ImportStatementInput) (billing.ImportResult, error)
}

// InvoiceHandler serves the month view and invoice operations.
type InvoiceHandler struct {
	invoiceUC InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceUC InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceUC: invoiceUC}
}

// Month returns the non-card entries and virtual invoices of a cycle.
func (h *InvoiceHandler) Month(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	cycle, err := pathCycle(r)
	if err != nil {
		writeDomainError(w, "invalid month", err)
		return
	}

	agg, err := h.invoiceUC.Month(r.Context(), userID, cycle)
	if err != nil {
		writeDomainError(w, "failed to load month", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MonthFromAggregation(agg))
}

// SetStatus sets or toggles the payment status of a card's invoice.
func (h *InvoiceHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	cycle, err := pathCycle(r)
	if err != nil {
		writeDomainError(w, "invalid month", err)
		return
	}

	var req dto.InvoiceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	change, err := h.invoiceUC.SetInvoiceStatus(r.Context(), req.ToUseCaseInput(userID, chi.URLParam(r, "id"), cycle))
	if err != nil {
		writeDomainError(w, "failed to set invoice status", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.StatusChangeFromBilling(change))
}

// Import validates statement lines against the invoice's window and stores
// the accepted ones.
func (h *InvoiceHandler) Import(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	cycle, err := pathCycle(r)
	if err != nil {
		writeDomainError(w, "invalid month", err)
		return
	}

	var req dto.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Text == "" && len(req.Candidates) == 0 {
		writeError(w, http.StatusBadRequest, "text or candidates required", "")
		return
	}

	result, err := h.invoiceUC.ImportStatement(r.Context(), req.ToUseCaseInput(userID, chi.URLParam(r, "id"), cycle))
	if err != nil {
		if errors.Is(err, domain.ErrNoCandidatesAccepted) {
			writeJSON(w, http.StatusUnprocessableEntity, dto.ImportFromBilling(result))
			return
		}
		writeDomainError(w, "failed to import statement", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ImportFromBilling(result))
}
