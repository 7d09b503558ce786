package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iho/cardledger/internal/domain"
)

func TestResolveCycle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		date time.Time
		want domain.Cycle
	}{
		{"on closing day stays", day(2024, time.March, 10), domain.NewCycle(2024, time.March)},
		{"after closing day moves", day(2024, time.March, 11), domain.NewCycle(2024, time.April)},
		{"before closing day stays", day(2024, time.March, 1), domain.NewCycle(2024, time.March)},
		{"december rolls into january", day(2024, time.December, 15), domain.NewCycle(2025, time.January)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveCycle(tt.date, 10))
		})
	}
}

func TestResolveCycleClosingDayBeyondMonth(t *testing.T) {
	t.Parallel()

	// Closing day 31 in February: no day exceeds it, so nothing rolls over.
	assert.Equal(t, domain.NewCycle(2024, time.February), ResolveCycle(day(2024, time.February, 29), 31))
}

func TestCycleBounds(t *testing.T) {
	t.Parallel()

	b := CycleBounds(domain.NewCycle(2024, time.March), 10)

	assert.Equal(t, time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC), b.Start)
	assert.Equal(t, time.Date(2024, time.March, 9, 23, 59, 59, 999999999, time.UTC), b.End)

	assert.True(t, b.Contains(day(2024, time.February, 10)))
	assert.True(t, b.Contains(day(2024, time.March, 9)))
	assert.False(t, b.Contains(day(2024, time.February, 9)))
	assert.False(t, b.Contains(day(2024, time.March, 10)))
}

func TestCycleBoundsRollover(t *testing.T) {
	t.Parallel()

	t.Run("january cycle starts in previous december", func(t *testing.T) {
		b := CycleBounds(domain.NewCycle(2025, time.January), 10)
		assert.Equal(t, time.Date(2024, time.December, 10, 0, 0, 0, 0, time.UTC), b.Start)
	})

	t.Run("closing day one ends on last day of previous month", func(t *testing.T) {
		b := CycleBounds(domain.NewCycle(2024, time.March), 1)
		assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), b.Start)
		assert.Equal(t, time.Date(2024, time.February, 29, 23, 59, 59, 999999999, time.UTC), b.End)
	})

	t.Run("closing day past month end normalizes", func(t *testing.T) {
		b := CycleBounds(domain.NewCycle(2024, time.March), 31)
		assert.Equal(t, time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC), b.Start)
		assert.Equal(t, time.Date(2024, time.March, 30, 23, 59, 59, 999999999, time.UTC), b.End)
	})
}
