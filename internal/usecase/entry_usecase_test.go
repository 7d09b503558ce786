package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/cardledger/internal/billing"
	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

func TestEntryUseCase_CreateEntry_Installments(t *testing.T) {
	f := newFixture(t)
	uc := f.entryUseCase()

	f.cards.EXPECT().GetByID(gomock.Any(), testUser, "visa").Return(visa(), nil)
	f.expectCommit()
	f.entries.EXPECT().CreateBatch(gomock.Any(), f.tx, gomock.Len(3)).Return(nil)
	f.expectEvent(domain.EventTypeEntriesCreated, func(e *domain.OutboxEvent) {
		if e.AggregateType != domain.AggregateTypeSeries || e.AggregateID != "group-1" {
			t.Errorf("expected series aggregate group-1, got %s %s", e.AggregateType, e.AggregateID)
		}
		if e.UserID != testUser {
			t.Errorf("expected user %s, got %s", testUser, e.UserID)
		}
	})

	entries, err := uc.CreateEntry(context.Background(), usecase.CreateEntryInput{
		UserID:       testUser,
		Description:  "Headphones",
		CardID:       "visa",
		Kind:         domain.KindCardExpense,
		Amount:       decimal.NewFromInt(100),
		Date:         time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC),
		Installments: 3,
		AmountMode:   billing.AmountTotal,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	wantDates := []time.Time{noon(2024, time.January, 31), noon(2024, time.February, 29), noon(2024, time.March, 31)}
	for i, e := range entries {
		if !e.Amount.Equal(decimal.RequireFromString("33.33")) {
			t.Errorf("entry %d: expected 33.33, got %s", i, e.Amount)
		}
		if !e.Date.Equal(wantDates[i]) {
			t.Errorf("entry %d: expected %s, got %s", i, wantDates[i], e.Date)
		}
		if e.Installment == nil || e.Installment.Position != i+1 || e.Installment.GroupID != "group-1" {
			t.Errorf("entry %d: unexpected link %+v", i, e.Installment)
		}
		if e.Status != domain.StatusPending {
			t.Errorf("entry %d: expected default pending status, got %s", i, e.Status)
		}
		if e.CreatedAt.IsZero() {
			t.Errorf("entry %d: expected created timestamp", i)
		}
	}
}

func TestEntryUseCase_CreateEntry_Single(t *testing.T) {
	f := newFixture(t)
	uc := f.entryUseCase()

	f.expectCommit()
	f.entries.EXPECT().CreateBatch(gomock.Any(), f.tx, gomock.Len(1)).Return(nil)
	f.expectEvent(domain.EventTypeEntriesCreated, func(e *domain.OutboxEvent) {
		if e.AggregateType != domain.AggregateTypeEntry {
			t.Errorf("expected entry aggregate, got %s", e.AggregateType)
		}
	})

	entries, err := uc.CreateEntry(context.Background(), usecase.CreateEntryInput{
		UserID:      testUser,
		Description: "Salary",
		Kind:        domain.KindIncome,
		Status:      domain.StatusCompleted,
		Amount:      decimal.NewFromInt(3000),
		Date:        noon(2024, time.March, 5),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Installment != nil {
		t.Fatalf("expected one unlinked entry, got %+v", entries)
	}
}

func TestEntryUseCase_CreateEntry_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.CreateEntryInput
		setup   func(f *fixture)
		wantErr error
	}{
		{
			name: "card expense without card",
			input: usecase.CreateEntryInput{
				Description: "x", Kind: domain.KindCardExpense, Amount: decimal.NewFromInt(1), Date: noon(2024, 3, 1),
			},
			wantErr: domain.ErrCardRequired,
		},
		{
			name: "unknown card",
			input: usecase.CreateEntryInput{
				Description: "x", Kind: domain.KindCardExpense, CardID: "amex", Amount: decimal.NewFromInt(1), Date: noon(2024, 3, 1),
			},
			setup: func(f *fixture) {
				f.cards.EXPECT().GetByID(gomock.Any(), testUser, "amex").Return(nil, domain.ErrCardNotFound)
			},
			wantErr: domain.ErrCardNotFound,
		},
		{
			name: "invalid amount mode",
			input: usecase.CreateEntryInput{
				Description: "x", Kind: domain.KindExpense, Amount: decimal.NewFromInt(1), Date: noon(2024, 3, 1), AmountMode: "split",
			},
			wantErr: domain.ErrInvalidAmountMode,
		},
		{
			name: "too many installments",
			input: usecase.CreateEntryInput{
				Description: "x", Kind: domain.KindExpense, Amount: decimal.NewFromInt(1), Date: noon(2024, 3, 1), Installments: 500,
			},
			wantErr: domain.ErrInvalidInstallments,
		},
		{
			name: "negative amount",
			input: usecase.CreateEntryInput{
				Description: "x", Kind: domain.KindExpense, Amount: decimal.NewFromInt(-5), Date: noon(2024, 3, 1),
			},
			wantErr: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}
			tt.input.UserID = testUser

			_, err := f.entryUseCase().CreateEntry(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEntryUseCase_CreateEntry_StoreFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	storeErr := errors.New("insert failed")

	f.expectRollback()
	f.entries.EXPECT().CreateBatch(gomock.Any(), f.tx, gomock.Any()).Return(storeErr)

	_, err := f.entryUseCase().CreateEntry(context.Background(), usecase.CreateEntryInput{
		UserID: testUser, Description: "Rent", Kind: domain.KindExpense, Amount: decimal.NewFromInt(900), Date: noon(2024, 3, 1),
	})
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestEntryUseCase_ListEntries(t *testing.T) {
	f := newFixture(t)
	uc := f.entryUseCase()

	f.entries.EXPECT().ListByUser(gomock.Any(), testUser).Return([]domain.Entry{
		cardEntry("feb", noon(2024, time.February, 28), 10),
		cardEntry("mar-early", noon(2024, time.March, 1), 30),
		cardEntry("mar-late", noon(2024, time.March, 20), 20),
	}, nil)

	march := domain.NewCycle(2024, time.March)
	entries, err := uc.ListEntries(context.Background(), usecase.ListEntriesInput{UserID: testUser, Cycle: &march})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(entries) != 2 || entries[0].ID != "mar-late" || entries[1].ID != "mar-early" {
		t.Fatalf("expected March entries newest first, got %+v", entries)
	}
}

func TestEntryUseCase_UpdateEntry_KindChangeClearsCard(t *testing.T) {
	f := newFixture(t)
	uc := f.entryUseCase()

	existing := cardEntry("e1", noon(2024, time.March, 3), 40)
	f.entries.EXPECT().GetByID(gomock.Any(), testUser, "e1").Return(&existing, nil)
	f.expectCommit()
	f.entries.EXPECT().UpdateBatch(gomock.Any(), f.tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ usecase.Transaction, entries []domain.Entry) error {
			if len(entries) != 1 || entries[0].CardID != "" || entries[0].Kind != domain.KindExpense {
				t.Errorf("unexpected update batch %+v", entries)
			}
			return nil
		})
	f.expectEvent(domain.EventTypeEntryUpdated, nil)

	kind := domain.KindExpense
	newDate := time.Date(2024, 3, 9, 22, 0, 0, 0, time.UTC)
	updated, err := uc.UpdateEntry(context.Background(), usecase.UpdateEntryInput{
		UserID: testUser,
		ID:     "e1",
		Date:   &newDate,
		Fields: billing.FieldUpdates{Kind: &kind},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.Date.Equal(noon(2024, time.March, 9)) {
		t.Fatalf("expected date normalized to noon, got %s", updated.Date)
	}
	if existing.Kind != domain.KindCardExpense {
		t.Fatalf("stored entry must not be modified in place")
	}
}

func TestEntryUseCase_ToggleStatus(t *testing.T) {
	f := newFixture(t)
	uc := f.entryUseCase()

	existing := cardEntry("e1", noon(2024, time.March, 3), 40)
	f.entries.EXPECT().GetByID(gomock.Any(), testUser, "e1").Return(&existing, nil)
	f.expectCommit()
	f.entries.EXPECT().UpdateStatusBatch(gomock.Any(), f.tx, testUser, []string{"e1"}, domain.StatusCompleted, gomock.Any()).Return(nil)
	f.expectEvent(domain.EventTypeEntryUpdated, nil)

	updated, err := uc.ToggleStatus(context.Background(), testUser, "e1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s", updated.Status)
	}
}

func TestEntryUseCase_DeleteEntry_NotFound(t *testing.T) {
	f := newFixture(t)

	f.entries.EXPECT().GetByID(gomock.Any(), testUser, "missing").Return(nil, domain.ErrEntryNotFound)

	err := f.entryUseCase().DeleteEntry(context.Background(), testUser, "missing")
	if !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestEntryUseCase_DeleteEntry(t *testing.T) {
	f := newFixture(t)

	existing := cardEntry("e1", noon(2024, time.March, 3), 40)
	f.entries.EXPECT().GetByID(gomock.Any(), testUser, "e1").Return(&existing, nil)
	f.expectCommit()
	f.entries.EXPECT().DeleteBatch(gomock.Any(), f.tx, testUser, []string{"e1"}).Return(nil)
	f.expectEvent(domain.EventTypeEntryDeleted, nil)

	if err := f.entryUseCase().DeleteEntry(context.Background(), testUser, "e1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
