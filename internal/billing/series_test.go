package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/cardledger/internal/domain"
)

func fourPartSeries() []domain.Entry {
	template := cardExpense("", "visa", day(2024, time.January, 31), "50")
	template.Description = "Phone"
	return GenerateInstallments(template, 4, AmountPerInstallment, sequentialIDs())
}

func TestUpdateForwardFromAnchor(t *testing.T) {
	t.Parallel()

	series := fourPartSeries()
	desc := "Laptop"
	amount := dec("60")

	updates := UpdateForward(series, "g1", 3, day(2024, time.April, 30), FieldUpdates{
		Description: &desc,
		Amount:      &amount,
	})

	require.Len(t, updates, 2)
	assert.Equal(t, []string{"e3", "e4"}, ids(updates))
	assert.Equal(t, day(2024, time.April, 30), updates[0].Date)
	assert.Equal(t, day(2024, time.May, 30), updates[1].Date)
	for _, u := range updates {
		assert.Equal(t, "Laptop", u.Description)
		assert.True(t, amount.Equal(u.Amount))
		assert.Equal(t, "g1", u.Installment.GroupID)
		assert.Equal(t, 4, u.Installment.Count)
	}
	assert.Equal(t, 3, updates[0].Installment.Position)

	// The input is not modified.
	assert.Equal(t, "Phone", series[2].Description)
	assert.Equal(t, day(2024, time.March, 31), series[2].Date)
}

func TestUpdateForwardFromFirstMember(t *testing.T) {
	t.Parallel()

	updates := UpdateForward(fourPartSeries(), "g1", 1, day(2024, time.February, 5), FieldUpdates{})

	require.Len(t, updates, 4)
	assert.Equal(t, day(2024, time.February, 5), updates[0].Date)
	assert.Equal(t, day(2024, time.May, 5), updates[3].Date)
}

func TestUpdateForwardKindChangeClearsCard(t *testing.T) {
	t.Parallel()

	kind := domain.KindExpense
	updates := UpdateForward(fourPartSeries(), "g1", 2, day(2024, time.February, 29), FieldUpdates{Kind: &kind})

	require.Len(t, updates, 3)
	for _, u := range updates {
		assert.Equal(t, domain.KindExpense, u.Kind)
		assert.Empty(t, u.CardID)
	}
}

func TestUpdateForwardRoundsAmountToCents(t *testing.T) {
	t.Parallel()

	amount := dec("33.333")
	updates := UpdateForward(fourPartSeries(), "g1", 2, day(2024, time.February, 29), FieldUpdates{Amount: &amount})

	require.Len(t, updates, 3)
	for _, u := range updates {
		assert.True(t, dec("33.33").Equal(u.Amount), "got %s", u.Amount)
	}
}

func TestFieldUpdatesApplyRoundsAmount(t *testing.T) {
	t.Parallel()

	e := plainEntry("e1", domain.KindIncome, day(2024, time.May, 1), "1")
	amount := dec("99.999")
	FieldUpdates{Amount: &amount}.Apply(&e)

	assert.True(t, dec("100").Equal(e.Amount), "got %s", e.Amount)
}

func TestUpdateForwardUnknownGroup(t *testing.T) {
	t.Parallel()

	assert.Empty(t, UpdateForward(fourPartSeries(), "nope", 1, day(2024, time.March, 1), FieldUpdates{}))
	assert.Empty(t, UpdateForward(fourPartSeries(), "", 1, day(2024, time.March, 1), FieldUpdates{}))
}

func TestDeleteForward(t *testing.T) {
	t.Parallel()

	series := fourPartSeries() // Jan 31, Feb 29, Mar 31, Apr 30

	t.Run("cutoff on a member date includes it", func(t *testing.T) {
		assert.Equal(t, []string{"e2", "e3", "e4"}, DeleteForward(series, "g1", day(2024, time.February, 29)))
	})

	t.Run("time of day is ignored", func(t *testing.T) {
		cutoff := time.Date(2024, time.March, 31, 23, 0, 0, 0, time.UTC)
		assert.Equal(t, []string{"e3", "e4"}, DeleteForward(series, "g1", cutoff))
	})

	t.Run("cutoff after last member", func(t *testing.T) {
		assert.Empty(t, DeleteForward(series, "g1", day(2024, time.May, 1)))
	})

	t.Run("unknown group", func(t *testing.T) {
		assert.Empty(t, DeleteForward(series, "other", day(2024, time.January, 1)))
	})
}

func TestSeriesMembersOrdersByPosition(t *testing.T) {
	t.Parallel()

	series := fourPartSeries()
	shuffled := []domain.Entry{series[3], series[0], series[2], series[1]}

	assert.Equal(t, []string{"e1", "e2", "e3", "e4"}, ids(SeriesMembers(shuffled, "g1")))
}

func TestFieldUpdatesEmpty(t *testing.T) {
	t.Parallel()

	cat := "Food"
	assert.True(t, FieldUpdates{}.Empty())
	assert.False(t, FieldUpdates{Category: &cat}.Empty())
}
