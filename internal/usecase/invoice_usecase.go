package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cardledger/internal/billing"
	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/infrastructure/metrics"
)

// InvoiceUseCase builds month views with virtual invoices and applies
// invoice-wide status changes and statement imports.
type InvoiceUseCase struct {
	entryRepo  EntryRepository
	cardRepo   CardRepository
	outboxRepo OutboxRepository
	parser     StatementParser
	batch      *BatchRunner
	idGen      IDGenerator
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewInvoiceUseCase creates a new InvoiceUseCase. parser may be nil, in
// which case only pre-parsed candidates can be imported.
func NewInvoiceUseCase(
	entryRepo EntryRepository,
	cardRepo CardRepository,
	outboxRepo OutboxRepository,
	parser StatementParser,
	batch *BatchRunner,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *InvoiceUseCase {
	return &InvoiceUseCase{
		entryRepo:  entryRepo,
		cardRepo:   cardRepo,
		outboxRepo: outboxRepo,
		parser:     parser,
		batch:      batch,
		idGen:      idGen,
		metrics:    metrics,
		logger:     logger,
	}
}

func invoiceLockKey(cardID string, cycle domain.Cycle) string {
	return "invoice:" + domain.InvoiceID(cardID, cycle)
}

// Month returns the user's non-card entries and virtual invoices for cycle.
func (uc *InvoiceUseCase) Month(ctx context.Context, userID string, cycle domain.Cycle) (billing.Aggregation, error) {
	entries, cards, err := uc.load(ctx, userID)
	if err != nil {
		return billing.Aggregation{}, err
	}
	return billing.Aggregate(entries, cards, cycle), nil
}

// SetInvoiceStatusInput represents an invoice payment-status change.
// A nil Status toggles the invoice's current aggregate status.
type SetInvoiceStatusInput struct {
	Status *domain.EntryStatus
	Cycle  domain.Cycle
	UserID string
	CardID string
}

// SetInvoiceStatus writes one status to every member of the card's invoice
// for the cycle in a single batch. Membership is read inside the batch
// transaction with the card's entries locked, so a concurrent series edit
// cannot move an entry out of the invoice between the read and the write.
// An invoice without members is a no-op.
func (uc *InvoiceUseCase) SetInvoiceStatus(ctx context.Context, input SetInvoiceStatusInput) (billing.StatusChange, error) {
	if input.Status != nil && !input.Status.Valid() {
		return billing.StatusChange{}, domain.ErrInvalidStatus
	}
	card, err := uc.cardRepo.GetByID(ctx, input.UserID, input.CardID)
	if err != nil {
		return billing.StatusChange{}, err
	}
	cards := []domain.Card{*card}

	var change billing.StatusChange
	err = uc.batch.Locked(ctx, "invoice", invoiceLockKey(input.CardID, input.Cycle), func(ctx context.Context) error {
		return uc.batch.InTx(ctx, "invoice_status", func(ctx context.Context, tx Transaction) error {
			entries, err := uc.entryRepo.ListByCardForUpdate(ctx, tx, input.UserID, input.CardID)
			if err != nil {
				return err
			}

			status := billing.NextInvoiceStatus(input.CardID, input.Cycle, entries, cards)
			if input.Status != nil {
				status = *input.Status
			}
			change = billing.ToggleInvoiceStatus(input.CardID, input.Cycle, entries, cards, status)
			if change.Empty() {
				return nil
			}

			now := time.Now().UTC()
			if err := uc.entryRepo.UpdateStatusBatch(ctx, tx, input.UserID, change.MemberIDs, change.Status, now); err != nil {
				return err
			}
			event := newEvent(uc.idGen, input.UserID, domain.AggregateTypeInvoice, change.InvoiceID, domain.EventTypeInvoiceStatusChanged, map[string]any{
				"invoice_id": change.InvoiceID,
				"card_id":    change.CardID,
				"cycle":      change.Cycle.String(),
				"status":     string(change.Status),
				"entry_ids":  change.MemberIDs,
			}, now)
			return uc.outboxRepo.Create(ctx, tx, event)
		})
	})
	if err != nil {
		return billing.StatusChange{}, err
	}

	if uc.metrics != nil && !change.Empty() {
		uc.metrics.InvoiceStatusChanges.WithLabelValues(string(change.Status)).Inc()
	}
	uc.logger.Info().
		Str("invoice_id", change.InvoiceID).
		Str("status", string(change.Status)).
		Int("entries", len(change.MemberIDs)).
		Msg("invoice status changed")

	return change, nil
}

// ImportStatementInput represents a card statement to import into one
// invoice. Text is sent to the statement parser when no Candidates are
// given.
type ImportStatementInput struct {
	Cycle      domain.Cycle
	UserID     string
	CardID     string
	Text       string
	Candidates []billing.Candidate
}

// ImportStatement validates statement lines against the card's cycle window
// and stores the accepted ones in one batch. It fails with
// domain.ErrNoCandidatesAccepted, along with the rejections, when nothing
// can be imported.
func (uc *InvoiceUseCase) ImportStatement(ctx context.Context, input ImportStatementInput) (billing.ImportResult, error) {
	card, err := uc.cardRepo.GetByID(ctx, input.UserID, input.CardID)
	if err != nil {
		return billing.ImportResult{}, err
	}

	candidates := input.Candidates
	if len(candidates) == 0 && strings.TrimSpace(input.Text) != "" {
		if uc.parser == nil {
			return billing.ImportResult{}, fmt.Errorf("%w: statement parser is not configured", domain.ErrNoCandidatesAccepted)
		}
		candidates, err = uc.parser.Parse(ctx, input.Text)
		if err != nil {
			return billing.ImportResult{}, err
		}
	}

	result := billing.ValidateImport(candidates, *card, input.Cycle, billing.IDs{Entry: uc.idGen.Generate})
	uc.recordImport(result)
	if len(result.Accepted) == 0 {
		return result, domain.ErrNoCandidatesAccepted
	}

	now := time.Now().UTC()
	for i := range result.Accepted {
		result.Accepted[i].CreatedAt = now
		result.Accepted[i].UpdatedAt = now
	}

	invoiceID := domain.InvoiceID(card.ID, input.Cycle)
	err = uc.batch.InTx(ctx, "import_statement", func(ctx context.Context, tx Transaction) error {
		if err := uc.entryRepo.CreateBatch(ctx, tx, result.Accepted); err != nil {
			return err
		}
		event := newEvent(uc.idGen, input.UserID, domain.AggregateTypeInvoice, invoiceID, domain.EventTypeStatementImported, map[string]any{
			"invoice_id": invoiceID,
			"card_id":    card.ID,
			"cycle":      input.Cycle.String(),
			"accepted":   len(result.Accepted),
			"rejected":   len(result.Rejected),
			"entry_ids":  entryIDs(result.Accepted),
		}, now)
		return uc.outboxRepo.Create(ctx, tx, event)
	})
	if err != nil {
		return billing.ImportResult{}, err
	}

	uc.logger.Info().
		Str("invoice_id", invoiceID).
		Int("accepted", len(result.Accepted)).
		Int("rejected", len(result.Rejected)).
		Msg("statement imported")

	return result, nil
}

func (uc *InvoiceUseCase) recordImport(result billing.ImportResult) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.ImportCandidates.WithLabelValues("accepted").Add(float64(len(result.Accepted)))
	for _, r := range result.Rejected {
		uc.metrics.ImportCandidates.WithLabelValues(string(r.Reason)).Inc()
	}
}

func (uc *InvoiceUseCase) load(ctx context.Context, userID string) ([]domain.Entry, []domain.Card, error) {
	entries, err := uc.entryRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	cards, err := uc.cardRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return entries, cards, nil
}
