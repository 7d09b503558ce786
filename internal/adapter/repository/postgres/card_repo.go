package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/cardledger/internal/domain"
)

const cardColumns = `id, user_id, name, color, credit_limit, closing_day, due_day, created_at, updated_at`

// CardRepository implements usecase.CardRepository.
type CardRepository struct {
	db querier
}

// NewCardRepository creates a new CardRepository.
func NewCardRepository(pool *pgxpool.Pool) *CardRepository {
	return newCardRepository(pool)
}

func newCardRepository(db querier) *CardRepository {
	return &CardRepository{db: db}
}

// ListByUser returns a user's cards in creation order.
func (r *CardRepository) ListByUser(ctx context.Context, userID string) ([]domain.Card, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE user_id = $1 ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}

	return cards, rows.Err()
}

// GetByID retrieves a card by ID.
func (r *CardRepository) GetByID(ctx context.Context, userID, id string) (*domain.Card, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE user_id = $1 AND id = $2`,
		userID, id,
	)

	c, err := scanCard(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCardNotFound
		}
		return nil, err
	}

	return &c, nil
}

// Create creates a new card.
func (r *CardRepository) Create(ctx context.Context, card *domain.Card) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO cards (`+cardColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		card.ID, card.UserID, card.Name, card.Color, decimalToNumeric(card.Limit),
		card.ClosingDay, card.DueDay,
		timeToPgTimestamptz(card.CreatedAt), timeToPgTimestamptz(card.UpdatedAt),
	)

	return err
}

// Update replaces the editable fields of a card.
func (r *CardRepository) Update(ctx context.Context, card *domain.Card) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE cards
		SET name = $3, color = $4, credit_limit = $5, closing_day = $6, due_day = $7, updated_at = $8
		WHERE user_id = $1 AND id = $2`,
		card.UserID, card.ID, card.Name, card.Color, decimalToNumeric(card.Limit),
		card.ClosingDay, card.DueDay, timeToPgTimestamptz(card.UpdatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCardNotFound
	}

	return nil
}

// Delete removes a card.
func (r *CardRepository) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM cards WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCardNotFound
	}

	return nil
}

func scanCard(row pgx.Row) (domain.Card, error) {
	var (
		c                  domain.Card
		limit              pgtype.Numeric
		closingDay, dueDay int16
	)

	if err := row.Scan(
		&c.ID, &c.UserID, &c.Name, &c.Color, &limit, &closingDay, &dueDay, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return domain.Card{}, err
	}

	c.Limit = numericToDecimal(limit)
	c.ClosingDay = int(closingDay)
	c.DueDay = int(dueDay)

	return c, nil
}
