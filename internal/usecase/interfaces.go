package usecase

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

import (
	"context"
	"time"

	"github.com/iho/cardledger/internal/billing"
	"github.com/iho/cardledger/internal/domain"
)

// EntryRepository defines data access for entries. All reads are scoped to
// one user.
type EntryRepository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Entry, error)
	GetByID(ctx context.Context, userID, id string) (*domain.Entry, error)
	// ListByGroupForUpdate returns the members of an installment series and
	// locks their rows until tx ends.
	ListByGroupForUpdate(ctx context.Context, tx Transaction, userID, groupID string) ([]domain.Entry, error)
	// ListByCardForUpdate returns the card expenses charged to a card and
	// locks their rows until tx ends.
	ListByCardForUpdate(ctx context.Context, tx Transaction, userID, cardID string) ([]domain.Entry, error)
	CreateBatch(ctx context.Context, tx Transaction, entries []domain.Entry) error
	UpdateBatch(ctx context.Context, tx Transaction, entries []domain.Entry) error
	DeleteBatch(ctx context.Context, tx Transaction, userID string, ids []string) error
	UpdateStatusBatch(ctx context.Context, tx Transaction, userID string, ids []string, status domain.EntryStatus, updatedAt time.Time) error
}

// CardRepository defines data access for cards.
type CardRepository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Card, error)
	GetByID(ctx context.Context, userID, id string) (*domain.Card, error)
	Create(ctx context.Context, card *domain.Card) error
	Update(ctx context.Context, card *domain.Card) error
	Delete(ctx context.Context, userID, id string) error
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation while it fails with a transient store error.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Locker serializes batches against one logical target (a series or an
// invoice). Lock fails with domain.ErrMutationInFlight while another holder
// owns key.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key whose request did not complete.
	Release(ctx context.Context, key string) error
}

// StatementParser extracts candidate entries from free statement text.
type StatementParser interface {
	Parse(ctx context.Context, text string) ([]billing.Candidate, error)
}
