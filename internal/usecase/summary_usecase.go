package usecase

import (
	"context"

	"github.com/iho/cardledger/internal/billing"
	"github.com/iho/cardledger/internal/domain"
)

// SummaryUseCase builds dashboard totals.
type SummaryUseCase struct {
	entryRepo EntryRepository
	cardRepo  CardRepository
}

// NewSummaryUseCase creates a new SummaryUseCase.
func NewSummaryUseCase(entryRepo EntryRepository, cardRepo CardRepository) *SummaryUseCase {
	return &SummaryUseCase{
		entryRepo: entryRepo,
		cardRepo:  cardRepo,
	}
}

// Summary returns the month totals for cycle with the topN largest
// categories.
func (uc *SummaryUseCase) Summary(ctx context.Context, userID string, cycle domain.Cycle, topN int) (billing.MonthSummary, error) {
	if topN <= 0 {
		topN = DefaultTopCategories
	}

	entries, err := uc.entryRepo.ListByUser(ctx, userID)
	if err != nil {
		return billing.MonthSummary{}, err
	}
	cards, err := uc.cardRepo.ListByUser(ctx, userID)
	if err != nil {
		return billing.MonthSummary{}, err
	}

	return billing.Summarize(entries, cards, cycle, topN), nil
}

// History returns totals for the months cycles ending at end.
func (uc *SummaryUseCase) History(ctx context.Context, userID string, end domain.Cycle, months int) ([]billing.HistoryPoint, error) {
	if months <= 0 {
		months = DefaultHistoryMonths
	}
	if months > MaxHistoryMonths {
		months = MaxHistoryMonths
	}

	entries, err := uc.entryRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	cards, err := uc.cardRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return billing.History(entries, cards, end, months), nil
}
