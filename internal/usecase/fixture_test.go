package usecase_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
	"github.com/iho/cardledger/internal/usecase/mocks"
)

const (
	testUser = "user-1"
	lockTTL  = time.Minute
)

type fixture struct {
	entries *mocks.MockEntryRepository
	cards   *mocks.MockCardRepository
	outbox  *mocks.MockOutboxRepository
	txMgr   *mocks.MockTransactionManager
	tx      *mocks.MockTransaction
	locker  *mocks.MockLocker
	parser  *mocks.MockStatementParser
	ids     *seqGen
	groups  *seqGen
	batch   *usecase.BatchRunner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		entries: mocks.NewMockEntryRepository(ctrl),
		cards:   mocks.NewMockCardRepository(ctrl),
		outbox:  mocks.NewMockOutboxRepository(ctrl),
		txMgr:   mocks.NewMockTransactionManager(ctrl),
		tx:      mocks.NewMockTransaction(ctrl),
		locker:  mocks.NewMockLocker(ctrl),
		parser:  mocks.NewMockStatementParser(ctrl),
		ids:     &seqGen{prefix: "id"},
		groups:  &seqGen{prefix: "group"},
	}
	f.batch = usecase.NewBatchRunner(f.txMgr, usecase.WithLocker(f.locker, lockTTL))
	return f
}

func (f *fixture) entryUseCase() *usecase.EntryUseCase {
	return usecase.NewEntryUseCase(f.entries, f.cards, f.outbox, f.batch, f.ids, f.groups, nil, zerolog.Nop())
}

func (f *fixture) seriesUseCase() *usecase.SeriesUseCase {
	return usecase.NewSeriesUseCase(f.entries, f.outbox, f.entryUseCase(), f.batch, f.ids, nil, zerolog.Nop())
}

func (f *fixture) invoiceUseCase() *usecase.InvoiceUseCase {
	return usecase.NewInvoiceUseCase(f.entries, f.cards, f.outbox, f.parser, f.batch, f.ids, nil, zerolog.Nop())
}

// expectCommit expects one transaction that commits.
func (f *fixture) expectCommit() {
	f.txMgr.EXPECT().Begin(gomock.Any()).Return(f.tx, nil)
	f.tx.EXPECT().Commit(gomock.Any()).Return(nil)
	f.tx.EXPECT().Rollback(gomock.Any()).Return(nil).AnyTimes()
}

// expectRollback expects one transaction that is rolled back without commit.
func (f *fixture) expectRollback() {
	f.txMgr.EXPECT().Begin(gomock.Any()).Return(f.tx, nil)
	f.tx.EXPECT().Rollback(gomock.Any()).Return(nil)
}

func (f *fixture) expectLock(key string) {
	f.locker.EXPECT().Lock(gomock.Any(), key, lockTTL).Return("token", nil)
	f.locker.EXPECT().Unlock(gomock.Any(), key, "token").Return(nil)
}

func (f *fixture) expectEvent(eventType string, check func(e *domain.OutboxEvent)) {
	f.outbox.EXPECT().Create(gomock.Any(), f.tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ usecase.Transaction, e *domain.OutboxEvent) error {
			if e.EventType != eventType {
				return fmt.Errorf("unexpected event type %q, want %q", e.EventType, eventType)
			}
			if check != nil {
				check(e)
			}
			return nil
		})
}

type seqGen struct {
	prefix string
	n      int
}

func (g *seqGen) Generate() string {
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

func noon(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func visa() *domain.Card {
	return &domain.Card{ID: "visa", UserID: testUser, Name: "Visa", ClosingDay: 10, DueDay: 17, Limit: decimal.NewFromInt(1000)}
}

func cardEntry(id string, date time.Time, amount int64) domain.Entry {
	return domain.Entry{
		ID:          id,
		UserID:      testUser,
		Description: "purchase",
		Amount:      decimal.NewFromInt(amount),
		Date:        date,
		Kind:        domain.KindCardExpense,
		Status:      domain.StatusPending,
		CardID:      "visa",
	}
}

func seriesMember(id string, pos, count int, date time.Time) domain.Entry {
	e := cardEntry(id, date, 50)
	e.Installment = &domain.InstallmentLink{GroupID: "g1", Position: pos, Count: count}
	return e
}

func fourMemberSeries() []domain.Entry {
	return []domain.Entry{
		seriesMember("s1", 1, 4, noon(2024, time.January, 15)),
		seriesMember("s2", 2, 4, noon(2024, time.February, 15)),
		seriesMember("s3", 3, 4, noon(2024, time.March, 15)),
		seriesMember("s4", 4, 4, noon(2024, time.April, 15)),
	}
}
