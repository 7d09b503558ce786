package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds a single batch attempt, from BEGIN to
	// COMMIT.
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultMutationLockTTL bounds how long a series or invoice stays locked
	// if the holder dies before unlocking.
	DefaultMutationLockTTL = 30 * time.Second

	// IdempotencyKeyTTL is how long a replayable response is kept when the
	// middleware is given no TTL.
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultTopCategories is how many categories a month summary lists.
	DefaultTopCategories = 5

	// DefaultHistoryMonths is the length of the history chart.
	DefaultHistoryMonths = 6

	// MaxHistoryMonths caps the history length a caller may request.
	MaxHistoryMonths = 36
)
