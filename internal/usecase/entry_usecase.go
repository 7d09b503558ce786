package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/cardledger/internal/billing"
	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/infrastructure/metrics"
)

// EntryUseCase handles single entries and installment purchases.
type EntryUseCase struct {
	entryRepo  EntryRepository
	cardRepo   CardRepository
	outboxRepo OutboxRepository
	batch      *BatchRunner
	idGen      IDGenerator
	groupIDGen IDGenerator
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewEntryUseCase creates a new EntryUseCase.
func NewEntryUseCase(
	entryRepo EntryRepository,
	cardRepo CardRepository,
	outboxRepo OutboxRepository,
	batch *BatchRunner,
	idGen IDGenerator,
	groupIDGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *EntryUseCase {
	return &EntryUseCase{
		entryRepo:  entryRepo,
		cardRepo:   cardRepo,
		outboxRepo: outboxRepo,
		batch:      batch,
		idGen:      idGen,
		groupIDGen: groupIDGen,
		metrics:    metrics,
		logger:     logger,
	}
}

// CreateEntryInput represents input for creating an entry or an
// installment purchase.
type CreateEntryInput struct {
	Date         time.Time
	UserID       string
	Description  string
	Category     string
	CardID       string
	Kind         domain.EntryKind
	Status       domain.EntryStatus
	AmountMode   billing.AmountMode
	Amount       decimal.Decimal
	Installments int
}

// CreateEntry validates input and stores it as one entry, or as a full
// installment series when Installments is greater than one. All entries are
// written in one transaction.
func (uc *EntryUseCase) CreateEntry(ctx context.Context, input CreateEntryInput) ([]domain.Entry, error) {
	if input.Status == "" {
		input.Status = domain.StatusPending
	}
	if input.AmountMode == "" {
		input.AmountMode = billing.AmountTotal
	}
	if !input.AmountMode.Valid() {
		return nil, domain.ErrInvalidAmountMode
	}
	if err := domain.ValidateInstallments(input.Installments); err != nil {
		return nil, err
	}

	template := domain.Entry{
		UserID:      input.UserID,
		Description: input.Description,
		Category:    input.Category,
		CardID:      input.CardID,
		Kind:        input.Kind,
		Status:      input.Status,
		Amount:      input.Amount,
		Date:        billing.Noon(input.Date),
	}
	if err := template.Validate(); err != nil {
		return nil, err
	}
	if err := uc.ensureCard(ctx, &template); err != nil {
		return nil, err
	}

	entries := billing.GenerateInstallments(template, input.Installments, input.AmountMode, billing.IDs{
		Entry: uc.idGen.Generate,
		Group: uc.groupIDGen.Generate,
	})

	now := time.Now().UTC()
	for i := range entries {
		entries[i].CreatedAt = now
		entries[i].UpdatedAt = now
	}

	first := entries[0]
	aggregateType, aggregateID := domain.AggregateTypeEntry, first.ID
	payload := map[string]any{
		"entry_ids": entryIDs(entries),
		"kind":      string(first.Kind),
		"amount":    first.Amount.String(),
	}
	if first.InSeries() {
		aggregateType, aggregateID = domain.AggregateTypeSeries, first.Installment.GroupID
		payload["group_id"] = first.Installment.GroupID
		payload["count"] = first.Installment.Count
	}

	err := uc.batch.InTx(ctx, "create_entries", func(ctx context.Context, tx Transaction) error {
		if err := uc.entryRepo.CreateBatch(ctx, tx, entries); err != nil {
			return err
		}
		event := newEvent(uc.idGen, input.UserID, aggregateType, aggregateID, domain.EventTypeEntriesCreated, payload, now)
		return uc.outboxRepo.Create(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.EntriesCreated.Add(float64(len(entries)))
		if first.InSeries() {
			uc.metrics.SeriesCreated.Inc()
			uc.metrics.InstallmentsPerSeries.Observe(float64(len(entries)))
		}
	}
	uc.logger.Debug().
		Str("user_id", input.UserID).
		Int("entries", len(entries)).
		Msg("entries created")

	return entries, nil
}

// GetEntry returns one entry of the user.
func (uc *EntryUseCase) GetEntry(ctx context.Context, userID, id string) (*domain.Entry, error) {
	return uc.entryRepo.GetByID(ctx, userID, id)
}

// ListEntriesInput represents input for listing entries.
type ListEntriesInput struct {
	Cycle  *domain.Cycle
	UserID string
	SortBy billing.SortBy
	Order  billing.SortOrder
}

// ListEntries lists the user's entries, limited to one calendar month when
// Cycle is set, sorted by date descending unless asked otherwise.
func (uc *EntryUseCase) ListEntries(ctx context.Context, input ListEntriesInput) ([]domain.Entry, error) {
	entries, err := uc.entryRepo.ListByUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if input.Cycle != nil {
		entries = billing.EntriesInMonth(entries, *input.Cycle)
	}
	if input.SortBy == "" {
		input.SortBy = billing.SortByDate
	}
	if input.Order == "" {
		input.Order = billing.OrderDesc
	}
	return billing.SortEntries(entries, input.SortBy, input.Order), nil
}

// UpdateEntryInput represents a change to a single entry.
type UpdateEntryInput struct {
	Date   *time.Time
	Status *domain.EntryStatus
	UserID string
	ID     string
	Fields billing.FieldUpdates
}

// UpdateEntry changes one entry only, even when it belongs to a series.
func (uc *EntryUseCase) UpdateEntry(ctx context.Context, input UpdateEntryInput) (*domain.Entry, error) {
	existing, err := uc.entryRepo.GetByID(ctx, input.UserID, input.ID)
	if err != nil {
		return nil, err
	}

	updated := existing.Clone()
	input.Fields.Apply(&updated)
	if input.Date != nil {
		updated.Date = billing.Noon(*input.Date)
	}
	if input.Status != nil {
		updated.Status = *input.Status
	}
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if err := uc.ensureCard(ctx, &updated); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updated.UpdatedAt = now

	err = uc.batch.InTx(ctx, "update_entry", func(ctx context.Context, tx Transaction) error {
		if err := uc.entryRepo.UpdateBatch(ctx, tx, []domain.Entry{updated}); err != nil {
			return err
		}
		event := newEvent(uc.idGen, input.UserID, domain.AggregateTypeEntry, updated.ID, domain.EventTypeEntryUpdated, map[string]any{
			"entry_id": updated.ID,
			"status":   string(updated.Status),
			"amount":   updated.Amount.String(),
		}, now)
		return uc.outboxRepo.Create(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// ToggleStatus flips one entry between pending and completed.
func (uc *EntryUseCase) ToggleStatus(ctx context.Context, userID, id string) (*domain.Entry, error) {
	existing, err := uc.entryRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	status := existing.Status.Opposite()
	now := time.Now().UTC()

	err = uc.batch.InTx(ctx, "toggle_entry_status", func(ctx context.Context, tx Transaction) error {
		if err := uc.entryRepo.UpdateStatusBatch(ctx, tx, userID, []string{id}, status, now); err != nil {
			return err
		}
		event := newEvent(uc.idGen, userID, domain.AggregateTypeEntry, id, domain.EventTypeEntryUpdated, map[string]any{
			"entry_id": id,
			"status":   string(status),
		}, now)
		return uc.outboxRepo.Create(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	existing.Status = status
	existing.UpdatedAt = now
	return existing, nil
}

// DeleteEntry removes one entry only, even when it belongs to a series.
func (uc *EntryUseCase) DeleteEntry(ctx context.Context, userID, id string) error {
	if _, err := uc.entryRepo.GetByID(ctx, userID, id); err != nil {
		return err
	}

	now := time.Now().UTC()
	return uc.batch.InTx(ctx, "delete_entry", func(ctx context.Context, tx Transaction) error {
		if err := uc.entryRepo.DeleteBatch(ctx, tx, userID, []string{id}); err != nil {
			return err
		}
		event := newEvent(uc.idGen, userID, domain.AggregateTypeEntry, id, domain.EventTypeEntryDeleted, map[string]any{
			"entry_id": id,
		}, now)
		return uc.outboxRepo.Create(ctx, tx, event)
	})
}

// ensureCard checks that a card expense references one of the user's cards.
func (uc *EntryUseCase) ensureCard(ctx context.Context, e *domain.Entry) error {
	if e == nil || e.Kind != domain.KindCardExpense {
		return nil
	}
	_, err := uc.cardRepo.GetByID(ctx, e.UserID, e.CardID)
	return err
}
