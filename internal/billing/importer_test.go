package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/cardledger/internal/domain"
)

func TestParseStatementDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Time
	}{
		{"05/03/2024", day(2024, time.March, 5)},
		{" 5/3/2024 ", day(2024, time.March, 5)},
		{"2024-03-05", day(2024, time.March, 5)},
		{"2024-03-05T23:10:00Z", day(2024, time.March, 5)},
	}
	for _, tt := range tests {
		got, err := ParseStatementDate(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "31/02/2024", "March 5", "2024/03/05"} {
		_, err := ParseStatementDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestValidateImport(t *testing.T) {
	t.Parallel()

	card := testCards()[0] // closes on the 10th
	march := domain.NewCycle(2024, time.March)

	candidates := []Candidate{
		{Description: "Coffee", Amount: dec("4.50"), Date: "10/02/2024", Category: "Food"},
		{Description: "Book", Amount: dec("30"), Date: "09/03/2024", Category: "Leisure"},
		{Description: "Too late", Amount: dec("12"), Date: "10/03/2024"},
		{Description: "Too early", Amount: dec("12"), Date: "09/02/2024"},
		{Description: "Refund", Amount: dec("20"), Date: "2024-02-15", Income: true},
		{Description: "Garbled", Amount: dec("1"), Date: "??"},
		{Description: "Negative", Amount: dec("-3"), Date: "01/03/2024"},
	}

	res := ValidateImport(candidates, card, march, sequentialIDs())

	require.Len(t, res.Accepted, 3)
	coffee := res.Accepted[0]
	assert.Equal(t, "e1", coffee.ID)
	assert.Equal(t, domain.KindCardExpense, coffee.Kind)
	assert.Equal(t, "visa", coffee.CardID)
	assert.Equal(t, "u1", coffee.UserID)
	assert.Equal(t, domain.StatusCompleted, coffee.Status)
	assert.Equal(t, day(2024, time.February, 10), coffee.Date)

	refund := res.Accepted[2]
	assert.Equal(t, domain.KindIncome, refund.Kind)
	assert.Empty(t, refund.CardID)
	assert.Equal(t, domain.StatusCompleted, refund.Status)

	require.Len(t, res.Rejected, 4)
	assert.Equal(t, RejectOutsideCycle, res.Rejected[0].Reason)
	assert.Equal(t, "Too late", res.Rejected[0].Candidate.Description)
	assert.Equal(t, RejectOutsideCycle, res.Rejected[1].Reason)
	assert.Equal(t, RejectInvalidDate, res.Rejected[2].Reason)
	assert.Equal(t, RejectInvalidAmount, res.Rejected[3].Reason)
}

func TestValidateImportRejectsDayAfterBoundsEnd(t *testing.T) {
	t.Parallel()

	card := testCards()[0]
	cycle := domain.NewCycle(2024, time.March)
	end := CycleBounds(cycle, card.ClosingDay).End
	dayAfter := end.AddDate(0, 0, 1).Format("02/01/2006")

	res := ValidateImport([]Candidate{{Description: "x", Amount: dec("1"), Date: dayAfter}}, card, cycle, sequentialIDs())

	assert.Empty(t, res.Accepted)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, RejectOutsideCycle, res.Rejected[0].Reason)
}
