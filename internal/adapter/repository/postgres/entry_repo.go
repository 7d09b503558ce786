package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

const entryColumns = `id, user_id, description, category, amount, entry_date, kind, status,
	card_id, group_id, position, installment_count, created_at, updated_at`

var entryCopyColumns = []string{
	"id", "user_id", "description", "category", "amount", "entry_date", "kind", "status",
	"card_id", "group_id", "position", "installment_count", "created_at", "updated_at",
}

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	db querier
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return newEntryRepository(pool)
}

func newEntryRepository(db querier) *EntryRepository {
	return &EntryRepository{db: db}
}

// ListByUser returns all entries of a user ordered by date.
func (r *EntryRepository) ListByUser(ctx context.Context, userID string) ([]domain.Entry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE user_id = $1 ORDER BY entry_date, id`,
		userID,
	)
	if err != nil {
		return nil, err
	}

	return collectEntries(rows)
}

// GetByID retrieves an entry by ID.
func (r *EntryRepository) GetByID(ctx context.Context, userID, id string) (*domain.Entry, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE user_id = $1 AND id = $2`,
		userID, id,
	)

	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}

	return &e, nil
}

// ListByGroupForUpdate returns the members of a series ordered by position
// and locks them with FOR UPDATE.
func (r *EntryRepository) ListByGroupForUpdate(ctx context.Context, tx usecase.Transaction, userID, groupID string) ([]domain.Entry, error) {
	rows, err := pgxTx(tx).Query(ctx,
		`SELECT `+entryColumns+` FROM entries
		WHERE user_id = $1 AND group_id = $2
		ORDER BY position
		FOR UPDATE`,
		userID, groupID,
	)
	if err != nil {
		return nil, err
	}

	return collectEntries(rows)
}

// ListByCardForUpdate returns the card expenses charged to cardID ordered by
// date and locks them with FOR UPDATE.
func (r *EntryRepository) ListByCardForUpdate(ctx context.Context, tx usecase.Transaction, userID, cardID string) ([]domain.Entry, error) {
	rows, err := pgxTx(tx).Query(ctx,
		`SELECT `+entryColumns+` FROM entries
		WHERE user_id = $1 AND card_id = $2 AND kind = 'card_expense'
		ORDER BY entry_date, id
		FOR UPDATE`,
		userID, cardID,
	)
	if err != nil {
		return nil, err
	}

	return collectEntries(rows)
}

// CreateBatch inserts entries with COPY.
func (r *EntryRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, entries []domain.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	n, err := pgxTx(tx).CopyFrom(ctx, pgx.Identifier{"entries"}, entryCopyColumns,
		pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
			return entryValues(&entries[i]), nil
		}),
	)
	if err != nil {
		return err
	}
	if int(n) != len(entries) {
		return fmt.Errorf("inserted %d of %d entries", n, len(entries))
	}

	return nil
}

// UpdateBatch rewrites the mutable columns of each entry. Group, position
// and count are never changed.
func (r *EntryRepository) UpdateBatch(ctx context.Context, tx usecase.Transaction, entries []domain.Entry) error {
	db := pgxTx(tx)

	for i := range entries {
		e := &entries[i]
		tag, err := db.Exec(ctx,
			`UPDATE entries
			SET description = $3, category = $4, amount = $5, entry_date = $6,
				kind = $7, status = $8, card_id = $9, updated_at = $10
			WHERE user_id = $1 AND id = $2`,
			e.UserID, e.ID, e.Description, e.Category, decimalToNumeric(e.Amount),
			timeToPgTimestamptz(e.Date), string(e.Kind), string(e.Status),
			textOrNull(e.CardID), timeToPgTimestamptz(e.UpdatedAt),
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", domain.ErrEntryNotFound, e.ID)
		}
	}

	return nil
}

// DeleteBatch deletes the given entries of a user.
func (r *EntryRepository) DeleteBatch(ctx context.Context, tx usecase.Transaction, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := pgxTx(tx).Exec(ctx,
		`DELETE FROM entries WHERE user_id = $1 AND id = ANY($2)`,
		userID, ids,
	)

	return err
}

// UpdateStatusBatch sets one status on the given entries of a user.
func (r *EntryRepository) UpdateStatusBatch(ctx context.Context, tx usecase.Transaction, userID string, ids []string, status domain.EntryStatus, updatedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := pgxTx(tx).Exec(ctx,
		`UPDATE entries SET status = $3, updated_at = $4 WHERE user_id = $1 AND id = ANY($2)`,
		userID, ids, string(status), timeToPgTimestamptz(updatedAt),
	)

	return err
}

func entryValues(e *domain.Entry) []any {
	var groupID pgtype.Text
	var position, count pgtype.Int4
	if e.Installment != nil {
		groupID = textOrNull(e.Installment.GroupID)
		position = pgtype.Int4{Int32: int32(e.Installment.Position), Valid: true}
		count = pgtype.Int4{Int32: int32(e.Installment.Count), Valid: true}
	}

	return []any{
		e.ID, e.UserID, e.Description, e.Category, decimalToNumeric(e.Amount),
		timeToPgTimestamptz(e.Date), string(e.Kind), string(e.Status),
		textOrNull(e.CardID), groupID, position, count,
		timeToPgTimestamptz(e.CreatedAt), timeToPgTimestamptz(e.UpdatedAt),
	}
}

func scanEntry(row pgx.Row) (domain.Entry, error) {
	var (
		e               domain.Entry
		kind, status    string
		amount          pgtype.Numeric
		cardID, groupID pgtype.Text
		position, count pgtype.Int4
	)

	err := row.Scan(
		&e.ID, &e.UserID, &e.Description, &e.Category, &amount, &e.Date, &kind, &status,
		&cardID, &groupID, &position, &count, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return domain.Entry{}, err
	}

	e.Amount = numericToDecimal(amount)
	e.Date = e.Date.UTC()
	e.Kind = domain.EntryKind(kind)
	e.Status = domain.EntryStatus(status)
	e.CardID = cardID.String
	if groupID.Valid {
		e.Installment = &domain.InstallmentLink{
			GroupID:  groupID.String,
			Position: int(position.Int32),
			Count:    int(count.Int32),
		}
	}

	return e, nil
}

func collectEntries(rows pgx.Rows) ([]domain.Entry, error) {
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
