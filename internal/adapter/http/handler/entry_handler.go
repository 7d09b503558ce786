package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/cardledger/internal/adapter/http/dto"
	"github.com/iho/cardledger/internal/billing"
	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

// EntryService defines the single-entry behavior needed by EntryHandler.
type EntryService interface {
	CreateEntry(ctx context.Context, input usecase.CreateEntryInput) ([]domain.Entry, error)
	GetEntry(ctx context.Context, userID, id string) (*domain.Entry, error)
	ListEntries(ctx context.Context, input usecase.ListEntriesInput) ([]domain.Entry, error)
	UpdateEntry(ctx context.Context, input usecase.UpdateEntryInput) (*domain.Entry, error)
	ToggleStatus(ctx context.Context, userID, id string) (*domain.Entry, error)
	DeleteEntry(ctx context.Context, userID, id string) error
}

// SeriesService defines the forward series operations.
type SeriesService interface {
	UpdateForward(ctx context.Context, input usecase.UpdateForwardInput) ([]domain.Entry, error)
	DeleteForward(ctx context.Context, input usecase.DeleteForwardInput) ([]string, error)
}

// EntryHandler handles entry and series HTTP requests.
type EntryHandler struct {
	entryUC  EntryService
	seriesUC SeriesService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryUC EntryService, seriesUC SeriesService) *EntryHandler {
	return &EntryHandler{entryUC: entryUC, seriesUC: seriesUC}
}

// Create creates an entry, or a whole installment series.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	input, err := req.ToUseCaseInput(userID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entries, err := h.entryUC.CreateEntry(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to create entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntriesFromDomain(entries))
}

// List lists entries, optionally for one calendar month.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	cycle, err := queryCycle(r)
	if err != nil {
		writeDomainError(w, "invalid month", err)
		return
	}

	q := r.URL.Query()
	input := usecase.ListEntriesInput{
		Cycle:  cycle,
		UserID: userID,
		SortBy: billing.SortBy(q.Get("sort_by")),
		Order:  billing.SortOrder(q.Get("order")),
	}
	switch input.SortBy {
	case "", billing.SortByDate, billing.SortByAmount:
	default:
		writeError(w, http.StatusBadRequest, "invalid sort_by", string(input.SortBy))
		return
	}
	switch input.Order {
	case "", billing.OrderAsc, billing.OrderDesc:
	default:
		writeError(w, http.StatusBadRequest, "invalid order", string(input.Order))
		return
	}

	entries, err := h.entryUC.ListEntries(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

// Get retrieves an entry by ID.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	entry, err := h.entryUC.GetEntry(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Update changes a single entry.
func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	input, err := req.ToUpdateInput(userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.entryUC.UpdateEntry(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to update entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// ToggleStatus flips an entry between pending and completed.
func (h *EntryHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	entry, err := h.entryUC.ToggleStatus(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to toggle status", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Delete removes a single entry.
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.entryUC.DeleteEntry(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "failed to delete entry", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateForward applies the change to this entry and every later member of
// its series.
func (h *EntryHandler) UpdateForward(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	input, err := req.ToForwardInput(userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entries, err := h.seriesUC.UpdateForward(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to update series", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

// DeleteForward removes the series members dated on or after ?from=,
// which defaults to this entry's date.
func (h *EntryHandler) DeleteForward(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	input := usecase.DeleteForwardInput{UserID: userID, EntryID: chi.URLParam(r, "id")}
	if from := r.URL.Query().Get("from"); from != "" {
		d, err := dto.ParseDate(from)
		if err != nil {
			writeDomainError(w, "invalid from date", err)
			return
		}
		input.From = &d
	}

	deleted, err := h.seriesUC.DeleteForward(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to delete series", err)
		return
	}
	if deleted == nil {
		deleted = []string{}
	}

	writeJSON(w, http.StatusOK, dto.DeleteForwardResponse{Deleted: deleted})
}
