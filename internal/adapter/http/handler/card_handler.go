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

// CardService defines the behavior needed by CardHandler.
type CardService interface {
	CreateCard(ctx context.Context, input usecase.CardInput) (*domain.Card, error)
	GetCard(ctx context.Context, userID, id string) (*domain.Card, error)
	ListCards(ctx context.Context, userID string) ([]domain.Card, error)
	UpdateCard(ctx context.Context, id string, input usecase.CardInput) (*domain.Card, error)
	DeleteCard(ctx context.Context, userID, id string) error
	Usage(ctx context.Context, userID, id string, cycle domain.Cycle) (billing.CardUsageReport, error)
}

// CardHandler handles card-related HTTP requests.
type CardHandler struct {
	cardUC CardService
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cardUC CardService) *CardHandler {
	return &CardHandler{cardUC: cardUC}
}

// Create creates a new card.
func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.CardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	input, err := req.ToUseCaseInput(userID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	card, err := h.cardUC.CreateCard(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to create card", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.CardFromDomain(card))
}

// List lists the user's cards.
func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	cards, err := h.cardUC.ListCards(r.Context(), userID)
	if err != nil {
		writeDomainError(w, "failed to list cards", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CardsFromDomain(cards))
}

// Get retrieves a card by ID.
func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	card, err := h.cardUC.GetCard(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get card", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CardFromDomain(card))
}

// Update replaces a card's editable fields.
func (h *CardHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.CardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	input, err := req.ToUseCaseInput(userID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	card, err := h.cardUC.UpdateCard(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeDomainError(w, "failed to update card", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CardFromDomain(card))
}

// Delete removes a card. Its entries are kept.
func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.cardUC.DeleteCard(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "failed to delete card", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Usage reports the card's invoice total against its limit for the cycle
// given by the year and month query parameters.
func (h *CardHandler) Usage(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	cycle, err := queryCycle(r)
	if err != nil || cycle == nil {
		writeError(w, http.StatusBadRequest, "year and month are required", "")
		return
	}

	report, err := h.cardUC.Usage(r.Context(), userID, chi.URLParam(r, "id"), *cycle)
	if err != nil {
		writeDomainError(w, "failed to compute card usage", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UsageFromBilling(report))
}
