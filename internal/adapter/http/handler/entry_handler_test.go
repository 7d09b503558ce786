package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cardledger/internal/adapter/http/dto"
	"github.com/iho/cardledger/internal/billing"
	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

type entryServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateEntryInput) ([]domain.Entry, error)
	getFn    func(ctx context.Context, userID, id string) (*domain.Entry, error)
	listFn   func(ctx context.Context, input usecase.ListEntriesInput) ([]domain.Entry, error)
	updateFn func(ctx context.Context, input usecase.UpdateEntryInput) (*domain.Entry, error)
	toggleFn func(ctx context.Context, userID, id string) (*domain.Entry, error)
	deleteFn func(ctx context.Context, userID, id string) error
}

func (s *entryServiceStub) CreateEntry(ctx context.Context, input usecase.CreateEntryInput) ([]domain.Entry, error) {
	return s.createFn(ctx, input)
}

func (s *entryServiceStub) GetEntry(ctx context.Context, userID, id string) (*domain.Entry, error) {
	return s.getFn(ctx, userID, id)
}

func (s *entryServiceStub) ListEntries(ctx context.Context, input usecase.ListEntriesInput) ([]domain.Entry, error) {
	return s.listFn(ctx, input)
}

func (s *entryServiceStub) UpdateEntry(ctx context.Context, input usecase.UpdateEntryInput) (*domain.Entry, error) {
	return s.updateFn(ctx, input)
}

func (s *entryServiceStub) ToggleStatus(ctx context.Context, userID, id string) (*domain.Entry, error) {
	return s.toggleFn(ctx, userID, id)
}

func (s *entryServiceStub) DeleteEntry(ctx context.Context, userID, id string) error {
	return s.deleteFn(ctx, userID, id)
}

type seriesServiceStub struct {
	updateForwardFn func(ctx context.Context, input usecase.UpdateForwardInput) ([]domain.Entry, error)
	deleteForwardFn func(ctx context.Context, input usecase.DeleteForwardInput) ([]string, error)
}

func (s *seriesServiceStub) UpdateForward(ctx context.Context, input usecase.UpdateForwardInput) ([]domain.Entry, error) {
	return s.updateForwardFn(ctx, input)
}

func (s *seriesServiceStub) DeleteForward(ctx context.Context, input usecase.DeleteForwardInput) ([]string, error) {
	return s.deleteForwardFn(ctx, input)
}

func sampleEntry(id string, pos int) domain.Entry {
	return domain.Entry{
		ID:          id,
		UserID:      testUser,
		Description: "Phone",
		Amount:      decimal.NewFromInt(100),
		Date:        time.Date(2024, time.Month(pos), 15, 12, 0, 0, 0, time.UTC),
		Kind:        domain.KindCardExpense,
		Status:      domain.StatusPending,
		CardID:      "card-1",
		Installment: &domain.InstallmentLink{GroupID: "g1", Position: pos, Count: 3},
	}
}

func TestEntryHandler_Create_Series(t *testing.T) {
	var captured usecase.CreateEntryInput
	h := NewEntryHandler(&entryServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateEntryInput) ([]domain.Entry, error) {
			captured = input
			return []domain.Entry{sampleEntry("e1", 1), sampleEntry("e2", 2), sampleEntry("e3", 3)}, nil
		},
	}, &seriesServiceStub{})

	body, _ := json.Marshal(dto.CreateEntryRequest{
		Description:  "Phone",
		Amount:       "300",
		Date:         "2024-01-15",
		Kind:         "card_expense",
		CardID:       "card-1",
		AmountMode:   "total",
		Installments: 3,
	})
	req := withUser(httptest.NewRequest(http.MethodPost, "/entries", bytes.NewReader(body)), nil)
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.UserID != testUser || captured.Installments != 3 || captured.AmountMode != billing.AmountTotal {
		t.Fatalf("unexpected input %+v", captured)
	}

	var resp []dto.EntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 3 || resp[2].Installment.Position != 3 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestEntryHandler_Create_ValidationError(t *testing.T) {
	h := NewEntryHandler(&entryServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateEntryInput) ([]domain.Entry, error) {
			return nil, domain.ErrCardRequired
		},
	}, &seriesServiceStub{})

	body := `{"description":"x","amount":"10","date":"2024-01-15","kind":"card_expense"}`
	req := withUser(httptest.NewRequest(http.MethodPost, "/entries", bytes.NewBufferString(body)), nil)
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestEntryHandler_Create_InvalidJSON(t *testing.T) {
	h := NewEntryHandler(&entryServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateEntryInput) ([]domain.Entry, error) {
			t.Fatal("CreateEntry should not be called for invalid payload")
			return nil, nil
		},
	}, &seriesServiceStub{})

	req := withUser(httptest.NewRequest(http.MethodPost, "/entries", bytes.NewBufferString("{invalid json")), nil)
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestEntryHandler_List(t *testing.T) {
	var captured usecase.ListEntriesInput
	h := NewEntryHandler(&entryServiceStub{
		listFn: func(ctx context.Context, input usecase.ListEntriesInput) ([]domain.Entry, error) {
			captured = input
			return nil, nil
		},
	}, &seriesServiceStub{})

	req := withUser(httptest.NewRequest(http.MethodGet, "/entries?year=2024&month=3&sort_by=amount&order=asc", nil), nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.Cycle == nil || *captured.Cycle != (domain.Cycle{Year: 2024, Month: time.March}) {
		t.Fatalf("expected March 2024 filter, got %v", captured.Cycle)
	}
	if captured.SortBy != billing.SortByAmount || captured.Order != billing.OrderAsc {
		t.Fatalf("unexpected sort %s %s", captured.SortBy, captured.Order)
	}
	if rec.Body.String() != "[]\n" {
		t.Fatalf("expected empty JSON array, got %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.List(rec, withUser(httptest.NewRequest(http.MethodGet, "/entries?sort_by=name", nil), nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown sort field, got %d", rec.Code)
	}
}

func TestEntryHandler_Get_NotFound(t *testing.T) {
	h := NewEntryHandler(&entryServiceStub{
		getFn: func(ctx context.Context, userID, id string) (*domain.Entry, error) {
			if id != "missing" {
				t.Fatalf("expected id from URL, got %s", id)
			}
			return nil, domain.ErrEntryNotFound
		},
	}, &seriesServiceStub{})

	req := withUser(httptest.NewRequest(http.MethodGet, "/entries/missing", nil), map[string]string{"id": "missing"})
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestEntryHandler_UpdateForward(t *testing.T) {
	var captured usecase.UpdateForwardInput
	h := NewEntryHandler(&entryServiceStub{}, &seriesServiceStub{
		updateForwardFn: func(ctx context.Context, input usecase.UpdateForwardInput) ([]domain.Entry, error) {
			captured = input
			return []domain.Entry{sampleEntry("e2", 2), sampleEntry("e3", 3)}, nil
		},
	})

	body := `{"amount":"120","date":"2024-02-20"}`
	req := withUser(httptest.NewRequest(http.MethodPut, "/entries/e2/forward", bytes.NewBufferString(body)),
		map[string]string{"id": "e2"})
	rec := httptest.NewRecorder()

	h.UpdateForward(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.EntryID != "e2" || captured.Date == nil || captured.Date.Day() != 20 {
		t.Fatalf("unexpected input %+v", captured)
	}
	if captured.Fields.Amount == nil || !captured.Fields.Amount.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("expected amount change, got %v", captured.Fields.Amount)
	}
}

func TestEntryHandler_UpdateForward_Conflict(t *testing.T) {
	h := NewEntryHandler(&entryServiceStub{}, &seriesServiceStub{
		updateForwardFn: func(ctx context.Context, input usecase.UpdateForwardInput) ([]domain.Entry, error) {
			return nil, domain.ErrMutationInFlight
		},
	})

	req := withUser(httptest.NewRequest(http.MethodPut, "/entries/e2/forward", bytes.NewBufferString(`{}`)),
		map[string]string{"id": "e2"})
	rec := httptest.NewRecorder()

	h.UpdateForward(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestEntryHandler_DeleteForward(t *testing.T) {
	var captured usecase.DeleteForwardInput
	h := NewEntryHandler(&entryServiceStub{}, &seriesServiceStub{
		deleteForwardFn: func(ctx context.Context, input usecase.DeleteForwardInput) ([]string, error) {
			captured = input
			return []string{"e2", "e3"}, nil
		},
	})

	req := withUser(httptest.NewRequest(http.MethodDelete, "/entries/e1/forward?from=2024-02-01", nil),
		map[string]string{"id": "e1"})
	rec := httptest.NewRecorder()

	h.DeleteForward(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	if captured.From == nil || !captured.From.Equal(want) {
		t.Fatalf("expected cutoff %v, got %v", want, captured.From)
	}

	var resp dto.DeleteForwardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Deleted) != 2 {
		t.Fatalf("expected 2 deleted ids, got %v", resp.Deleted)
	}
}

func TestEntryHandler_DeleteForward_DefaultCutoff(t *testing.T) {
	h := NewEntryHandler(&entryServiceStub{}, &seriesServiceStub{
		deleteForwardFn: func(ctx context.Context, input usecase.DeleteForwardInput) ([]string, error) {
			if input.From != nil {
				t.Fatalf("expected no explicit cutoff, got %v", input.From)
			}
			return nil, nil
		},
	})

	req := withUser(httptest.NewRequest(http.MethodDelete, "/entries/e1/forward", nil), map[string]string{"id": "e1"})
	rec := httptest.NewRecorder()

	h.DeleteForward(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "{\"deleted\":[]}\n" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestEntryHandler_ToggleAndDelete(t *testing.T) {
	deleted := ""
	h := NewEntryHandler(&entryServiceStub{
		toggleFn: func(ctx context.Context, userID, id string) (*domain.Entry, error) {
			e := sampleEntry(id, 1)
			e.Status = domain.StatusCompleted
			return &e, nil
		},
		deleteFn: func(ctx context.Context, userID, id string) error {
			deleted = id
			return nil
		},
	}, &seriesServiceStub{})

	rec := httptest.NewRecorder()
	h.ToggleStatus(rec, withUser(httptest.NewRequest(http.MethodPost, "/entries/e1/toggle-status", nil), map[string]string{"id": "e1"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.EntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "completed" {
		t.Fatalf("expected completed, got %s", resp.Status)
	}

	rec = httptest.NewRecorder()
	h.Delete(rec, withUser(httptest.NewRequest(http.MethodDelete, "/entries/e1", nil), map[string]string{"id": "e1"}))
	if rec.Code != http.StatusNoContent || deleted != "e1" {
		t.Fatalf("expected 204 deleting e1, got %d deleting %q", rec.Code, deleted)
	}
}
