package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cardledger/internal/billing"
	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/infrastructure/metrics"
)

// SeriesUseCase applies "from this point forward" edits and deletes to
// installment series.
type SeriesUseCase struct {
	entryRepo  EntryRepository
	outboxRepo OutboxRepository
	entries    *EntryUseCase
	batch      *BatchRunner
	idGen      IDGenerator
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewSeriesUseCase creates a new SeriesUseCase. Entries that are not part
// of a series are delegated to entries.
func NewSeriesUseCase(
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	entries *EntryUseCase,
	batch *BatchRunner,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *SeriesUseCase {
	return &SeriesUseCase{
		entryRepo:  entryRepo,
		outboxRepo: outboxRepo,
		entries:    entries,
		batch:      batch,
		idGen:      idGen,
		metrics:    metrics,
		logger:     logger,
	}
}

func seriesLockKey(groupID string) string {
	return "series:" + groupID
}

// UpdateForwardInput represents a forward edit anchored at one entry.
type UpdateForwardInput struct {
	Date    *time.Time
	UserID  string
	EntryID string
	Fields  billing.FieldUpdates
}

// UpdateForward rewrites the anchor entry and every later member of its
// series in one batch. The anchor moves to Date (or keeps its date) and
// later members follow at monthly steps. Earlier members are untouched. An
// entry outside any series is updated alone.
func (uc *SeriesUseCase) UpdateForward(ctx context.Context, input UpdateForwardInput) ([]domain.Entry, error) {
	anchor, err := uc.entryRepo.GetByID(ctx, input.UserID, input.EntryID)
	if err != nil {
		return nil, err
	}

	if !anchor.InSeries() {
		updated, err := uc.entries.UpdateEntry(ctx, UpdateEntryInput{
			UserID: input.UserID,
			ID:     input.EntryID,
			Date:   input.Date,
			Fields: input.Fields,
		})
		if err != nil {
			return nil, err
		}
		return []domain.Entry{*updated}, nil
	}

	anchorDate := anchor.Date
	if input.Date != nil {
		anchorDate = *input.Date
	}
	groupID := anchor.Installment.GroupID
	position := anchor.Installment.Position

	var updates []domain.Entry
	err = uc.batch.Locked(ctx, "series", seriesLockKey(groupID), func(ctx context.Context) error {
		return uc.batch.InTx(ctx, "update_forward", func(ctx context.Context, tx Transaction) error {
			members, err := uc.entryRepo.ListByGroupForUpdate(ctx, tx, input.UserID, groupID)
			if err != nil {
				return err
			}

			updates = billing.UpdateForward(members, groupID, position, anchorDate, input.Fields)
			for i := range updates {
				if err := updates[i].Validate(); err != nil {
					return err
				}
			}
			if err := uc.entries.ensureCard(ctx, firstOrNil(updates)); err != nil {
				return err
			}

			now := time.Now().UTC()
			stamp(updates, now)
			if err := uc.entryRepo.UpdateBatch(ctx, tx, updates); err != nil {
				return err
			}

			event := newEvent(uc.idGen, input.UserID, domain.AggregateTypeSeries, groupID, domain.EventTypeSeriesUpdated, map[string]any{
				"group_id":        groupID,
				"anchor_position": position,
				"entry_ids":       entryIDs(updates),
			}, now)
			return uc.outboxRepo.Create(ctx, tx, event)
		})
	})
	if err != nil {
		return nil, err
	}

	uc.record("update_forward", len(updates))
	uc.logger.Info().
		Str("group_id", groupID).
		Int("from_position", position).
		Int("entries", len(updates)).
		Msg("series updated forward")

	return updates, nil
}

// DeleteForwardInput represents a forward delete anchored at one entry.
type DeleteForwardInput struct {
	From    *time.Time
	UserID  string
	EntryID string
}

// DeleteForward removes every member of the entry's series dated on or
// after From, which defaults to the entry's own date. An entry outside any
// series is deleted alone. It returns the deleted IDs.
func (uc *SeriesUseCase) DeleteForward(ctx context.Context, input DeleteForwardInput) ([]string, error) {
	anchor, err := uc.entryRepo.GetByID(ctx, input.UserID, input.EntryID)
	if err != nil {
		return nil, err
	}

	if !anchor.InSeries() {
		if err := uc.entries.DeleteEntry(ctx, input.UserID, input.EntryID); err != nil {
			return nil, err
		}
		return []string{input.EntryID}, nil
	}

	cutoff := anchor.Date
	if input.From != nil {
		cutoff = *input.From
	}
	groupID := anchor.Installment.GroupID

	var deleted []string
	err = uc.batch.Locked(ctx, "series", seriesLockKey(groupID), func(ctx context.Context) error {
		return uc.batch.InTx(ctx, "delete_forward", func(ctx context.Context, tx Transaction) error {
			members, err := uc.entryRepo.ListByGroupForUpdate(ctx, tx, input.UserID, groupID)
			if err != nil {
				return err
			}

			deleted = billing.DeleteForward(members, groupID, cutoff)
			if len(deleted) == 0 {
				return nil
			}
			if err := uc.entryRepo.DeleteBatch(ctx, tx, input.UserID, deleted); err != nil {
				return err
			}

			event := newEvent(uc.idGen, input.UserID, domain.AggregateTypeSeries, groupID, domain.EventTypeSeriesTruncated, map[string]any{
				"group_id":  groupID,
				"cutoff":    billing.Noon(cutoff).Format(time.DateOnly),
				"entry_ids": deleted,
			}, time.Now().UTC())
			return uc.outboxRepo.Create(ctx, tx, event)
		})
	})
	if err != nil {
		return nil, err
	}

	uc.record("delete_forward", len(deleted))
	uc.logger.Info().
		Str("group_id", groupID).
		Int("entries", len(deleted)).
		Msg("series truncated")

	return deleted, nil
}

func (uc *SeriesUseCase) record(operation string, n int) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.SeriesMutations.WithLabelValues(operation).Inc()
	uc.metrics.SeriesMutationSize.Observe(float64(n))
}

// firstOrNil returns the first entry or nil. Members of one series share
// their kind and card, so checking one of them is enough.
func firstOrNil(entries []domain.Entry) *domain.Entry {
	if len(entries) == 0 {
		return nil
	}
	return &entries[0]
}
