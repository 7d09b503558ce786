package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cardledger/internal/billing"
	"github.com/iho/cardledger/internal/domain"
)

// CardUseCase handles card business logic.
type CardUseCase struct {
	cardRepo  CardRepository
	entryRepo EntryRepository
	idGen     IDGenerator
}

// NewCardUseCase creates a new CardUseCase.
func NewCardUseCase(cardRepo CardRepository, entryRepo EntryRepository, idGen IDGenerator) *CardUseCase {
	return &CardUseCase{
		cardRepo:  cardRepo,
		entryRepo: entryRepo,
		idGen:     idGen,
	}
}

// CardInput represents the caller-editable fields of a card.
type CardInput struct {
	UserID     string
	Name       string
	Color      string
	Limit      decimal.Decimal
	ClosingDay int
	DueDay     int
}

// CreateCard creates a new card.
func (uc *CardUseCase) CreateCard(ctx context.Context, input CardInput) (*domain.Card, error) {
	now := time.Now().UTC()
	card := &domain.Card{
		ID:         uc.idGen.Generate(),
		UserID:     input.UserID,
		Name:       input.Name,
		Color:      input.Color,
		Limit:      input.Limit,
		ClosingDay: input.ClosingDay,
		DueDay:     input.DueDay,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	if err := uc.cardRepo.Create(ctx, card); err != nil {
		return nil, err
	}

	return card, nil
}

// GetCard returns one card of the user.
func (uc *CardUseCase) GetCard(ctx context.Context, userID, id string) (*domain.Card, error) {
	return uc.cardRepo.GetByID(ctx, userID, id)
}

// ListCards lists the user's cards.
func (uc *CardUseCase) ListCards(ctx context.Context, userID string) ([]domain.Card, error) {
	return uc.cardRepo.ListByUser(ctx, userID)
}

// UpdateCard replaces the editable fields of a card. Changing the closing
// day moves existing card expenses between invoices on the next read.
func (uc *CardUseCase) UpdateCard(ctx context.Context, id string, input CardInput) (*domain.Card, error) {
	card, err := uc.cardRepo.GetByID(ctx, input.UserID, id)
	if err != nil {
		return nil, err
	}

	card.Name = input.Name
	card.Color = input.Color
	card.Limit = input.Limit
	card.ClosingDay = input.ClosingDay
	card.DueDay = input.DueDay
	card.UpdatedAt = time.Now().UTC()

	if err := card.Validate(); err != nil {
		return nil, err
	}

	if err := uc.cardRepo.Update(ctx, card); err != nil {
		return nil, err
	}

	return card, nil
}

// DeleteCard removes a card. Its card expenses stay stored but no longer
// appear on any invoice.
func (uc *CardUseCase) DeleteCard(ctx context.Context, userID, id string) error {
	return uc.cardRepo.Delete(ctx, userID, id)
}

// Usage reports the card's invoice total for cycle against its limit.
func (uc *CardUseCase) Usage(ctx context.Context, userID, id string, cycle domain.Cycle) (billing.CardUsageReport, error) {
	card, err := uc.cardRepo.GetByID(ctx, userID, id)
	if err != nil {
		return billing.CardUsageReport{}, err
	}

	entries, err := uc.entryRepo.ListByUser(ctx, userID)
	if err != nil {
		return billing.CardUsageReport{}, err
	}

	return billing.CardUsage(*card, entries, cycle), nil
}
