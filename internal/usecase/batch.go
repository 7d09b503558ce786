package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/infrastructure/metrics"
)

// BatchRunner applies a store batch atomically: one transaction, bounded by
// DefaultTransactionTimeout, retried on transient store errors, and
// optionally serialized per target through a Locker.
type BatchRunner struct {
	txManager TransactionManager
	retrier   Retrier
	locker    Locker
	lockTTL   time.Duration
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// BatchOption configures a BatchRunner.
type BatchOption func(*BatchRunner)

// WithRetrier retries failed transactions with r.
func WithRetrier(r Retrier) BatchOption {
	return func(b *BatchRunner) { b.retrier = r }
}

// WithLocker serializes batches per target with l.
func WithLocker(l Locker, ttl time.Duration) BatchOption {
	return func(b *BatchRunner) {
		b.locker = l
		if ttl > 0 {
			b.lockTTL = ttl
		}
	}
}

// WithMetrics records batch durations and lock conflicts.
func WithMetrics(m *metrics.Metrics) BatchOption {
	return func(b *BatchRunner) { b.metrics = m }
}

// WithLogger sets the logger for lock and retry diagnostics.
func WithLogger(l zerolog.Logger) BatchOption {
	return func(b *BatchRunner) { b.logger = l }
}

// NewBatchRunner creates a BatchRunner on top of txManager.
func NewBatchRunner(txManager TransactionManager, opts ...BatchOption) *BatchRunner {
	b := &BatchRunner{
		txManager: txManager,
		lockTTL:   DefaultMutationLockTTL,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Locked runs fn while holding the mutation lock for key. target labels the
// kind of resource for metrics. Without a Locker fn runs unguarded.
func (b *BatchRunner) Locked(ctx context.Context, target, key string, fn func(ctx context.Context) error) error {
	if b.locker == nil {
		return fn(ctx)
	}

	token, err := b.locker.Lock(ctx, key, b.lockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrMutationInFlight) && b.metrics != nil {
			b.metrics.MutationConflicts.WithLabelValues(target).Inc()
		}
		return err
	}
	defer func() {
		if err := b.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
			b.logger.Warn().Err(err).Str("key", key).Msg("failed to release mutation lock")
		}
	}()

	return fn(ctx)
}

// InTx runs fn inside a transaction and commits when fn succeeds. The whole
// attempt is retried through the Retrier, so fn must be safe to re-run.
func (b *BatchRunner) InTx(ctx context.Context, operation string, fn func(ctx context.Context, tx Transaction) error) error {
	start := time.Now()

	attempt := func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := b.txManager.Begin(txCtx)
		if err != nil {
			b.storeError(operation)
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if err := fn(txCtx, tx); err != nil {
			return err
		}

		if err := tx.Commit(txCtx); err != nil {
			b.storeError(operation)
			return err
		}
		return nil
	}

	var err error
	if b.retrier != nil {
		err = b.retrier.Retry(ctx, attempt)
	} else {
		err = attempt()
	}

	if b.metrics != nil {
		b.metrics.BatchDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
	return err
}

// storeError counts begin and commit failures.
func (b *BatchRunner) storeError(operation string) {
	if b.metrics != nil {
		b.metrics.DBErrors.WithLabelValues(operation).Inc()
	}
}
