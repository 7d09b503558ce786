package handler

import (
	"context"
	"net/http"

	"github.com/iho/cardledger/internal/adapter/http/dto"
	"github.com/iho/cardledger/internal/billing"
	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

// SummaryService defines the behavior needed by SummaryHandler.
type SummaryService interface {
	Summary(ctx context.Context, userID string, cycle domain.Cycle, topN int) (billing.MonthSummary, error)
	History(ctx context.Context, userID string, end domain.Cycle, months int) ([]billing.HistoryPoint, error)
}

// SummaryHandler serves dashboard totals.
type SummaryHandler struct {
	summaryUC SummaryService
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(summaryUC SummaryService) *SummaryHandler {
	return &SummaryHandler{summaryUC: summaryUC}
}

// Summary returns the month's totals and top categories (?top=).
func (h *SummaryHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	cycle, err := pathCycle(r)
	if err != nil {
		writeDomainError(w, "invalid month", err)
		return
	}

	s, err := h.summaryUC.Summary(r.Context(), userID, cycle, parseIntQuery(r, "top", usecase.DefaultTopCategories))
	if err != nil {
		writeDomainError(w, "failed to summarize month", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SummaryFromBilling(s))
}

// History returns ?months= cycles of totals ending at the given month.
func (h *SummaryHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	cycle, err := pathCycle(r)
	if err != nil {
		writeDomainError(w, "invalid month", err)
		return
	}

	points, err := h.summaryUC.History(r.Context(), userID, cycle, parseIntQuery(r, "months", usecase.DefaultHistoryMonths))
	if err != nil {
		writeDomainError(w, "failed to load history", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HistoryFromBilling(points))
}
