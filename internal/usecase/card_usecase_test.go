package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

func TestCardUseCase_CreateCard(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.CardInput
		wantErr error
	}{
		{
			name:  "valid card",
			input: usecase.CardInput{Name: "Visa", ClosingDay: 10, DueDay: 17, Limit: decimal.NewFromInt(1000)},
		},
		{
			name:    "closing day out of range",
			input:   usecase.CardInput{Name: "Visa", ClosingDay: 0, DueDay: 17},
			wantErr: domain.ErrInvalidClosingDay,
		},
		{
			name:    "missing name",
			input:   usecase.CardInput{ClosingDay: 10, DueDay: 17},
			wantErr: domain.ErrInvalidCardName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.wantErr == nil {
				f.cards.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
			}
			tt.input.UserID = testUser

			card, err := usecase.NewCardUseCase(f.cards, f.entries, f.ids).CreateCard(context.Background(), tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if card.ID != "id-1" || card.UserID != testUser {
				t.Fatalf("unexpected card %+v", card)
			}
		})
	}
}

func TestCardUseCase_UpdateCard(t *testing.T) {
	f := newFixture(t)
	uc := usecase.NewCardUseCase(f.cards, f.entries, f.ids)

	f.cards.EXPECT().GetByID(gomock.Any(), testUser, "visa").Return(visa(), nil)
	f.cards.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c *domain.Card) error {
		if c.ClosingDay != 25 || c.Name != "Visa Gold" {
			t.Errorf("unexpected card passed to store %+v", c)
		}
		return nil
	})

	_, err := uc.UpdateCard(context.Background(), "visa", usecase.CardInput{
		UserID: testUser, Name: "Visa Gold", ClosingDay: 25, DueDay: 5, Limit: decimal.NewFromInt(2000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCardUseCase_Usage(t *testing.T) {
	f := newFixture(t)
	uc := usecase.NewCardUseCase(f.cards, f.entries, f.ids)

	f.cards.EXPECT().GetByID(gomock.Any(), testUser, "visa").Return(visa(), nil)
	f.entries.EXPECT().ListByUser(gomock.Any(), testUser).Return([]domain.Entry{
		cardEntry("a", noon(2024, time.March, 1), 250),
		cardEntry("b", noon(2024, time.March, 20), 999),
	}, nil)

	report, err := uc.Usage(context.Background(), testUser, "visa", march2024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.InvoiceTotal.Equal(decimal.NewFromInt(250)) || !report.Utilization.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("unexpected usage %+v", report)
	}
}

func TestCardUseCase_Usage_UnknownCard(t *testing.T) {
	f := newFixture(t)

	f.cards.EXPECT().GetByID(gomock.Any(), testUser, "amex").Return(nil, domain.ErrCardNotFound)

	_, err := usecase.NewCardUseCase(f.cards, f.entries, f.ids).Usage(context.Background(), testUser, "amex", march2024)
	if !errors.Is(err, domain.ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound, got %v", err)
	}
}
