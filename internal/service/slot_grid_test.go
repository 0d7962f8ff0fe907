package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pantry-sync-api/internal/models"
)

func bounds(first, last string) models.DayBounds {
	return models.DayBounds{First: strPtr(first), Last: strPtr(last)}
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func TestGenerateGridHalfHourWindow(t *testing.T) {
	var days [7]models.DayBounds
	days[0] = bounds("08:00", "08:30")

	grid := GenerateGrid(days)

	assert.Equal(t, []string{"08:00", "08:15", "08:30"}, grid.Day(1))
	for day := 2; day <= 7; day++ {
		assert.Empty(t, grid.Day(day), "day %d", day)
	}
}

func TestGenerateGridAlignsToQuarterHours(t *testing.T) {
	var days [7]models.DayBounds
	days[2] = bounds("08:07", "09:00:00")

	grid := GenerateGrid(days)

	assert.Equal(t, []string{"08:15", "08:30", "08:45", "09:00"}, grid.Day(3))
}

func TestGenerateGridEmptyDays(t *testing.T) {
	var days [7]models.DayBounds
	days[0] = models.DayBounds{First: strPtr("08:00")}
	days[1] = models.DayBounds{Last: strPtr("09:00")}
	days[2] = bounds("10:00", "09:00")
	days[3] = bounds("not-a-time", "09:00")

	grid := GenerateGrid(days)
	for day := 1; day <= 7; day++ {
		assert.NotNil(t, grid.Day(day))
		assert.Empty(t, grid.Day(day), "day %d", day)
	}
}

func TestGenerateGridSlotsStayInsideBounds(t *testing.T) {
	cases := [][2]string{
		{"00:00", "00:00"},
		{"08:00", "22:00"},
		{"12:01", "12:14"},
		{"12:01", "12:15"},
		{"23:30", "23:59"},
		{"06:45:30", "07:30"},
	}
	for _, tc := range cases {
		var days [7]models.DayBounds
		days[0] = bounds(tc[0], tc[1])
		slots := GenerateGrid(days).Day(1)

		first, err := ParseClock(tc[0])
		require.NoError(t, err)
		last, err := ParseClock(tc[1])
		require.NoError(t, err)

		prev := -1
		for _, s := range slots {
			secs, err := ParseClock(s)
			require.NoError(t, err)
			assert.Zero(t, secs%SlotStep, "slot %s not aligned", s)
			assert.GreaterOrEqual(t, secs, first)
			assert.LessOrEqual(t, secs, last)
			assert.Greater(t, secs, prev)
			prev = secs
		}
	}

	var days [7]models.DayBounds
	days[0] = bounds("12:01", "12:14")
	assert.Empty(t, GenerateGrid(days).Day(1))
	days[0] = bounds("23:30", "23:59")
	assert.Equal(t, []string{"23:30", "23:45"}, GenerateGrid(days).Day(1))
}

func TestGridContains(t *testing.T) {
	var days [7]models.DayBounds
	days[0] = bounds("08:00", "22:00")
	grid := GenerateGrid(days)

	assert.True(t, grid.Contains(1, "08:00"))
	assert.True(t, grid.Contains(1, "22:00"))
	assert.False(t, grid.Contains(1, "07:45"))
	assert.False(t, grid.Contains(1, "08:10"))
	assert.False(t, grid.Contains(2, "08:00"))
	assert.False(t, grid.Contains(9, "08:00"))
}

func TestNormalizeSlot(t *testing.T) {
	assert.Equal(t, "09:00", NormalizeSlot("09:00:00"))
	assert.Equal(t, "9:00", NormalizeSlot("9:00"), "non padded values are left for validation")
	assert.Equal(t, "09:00:30", NormalizeSlot("09:00:30"))
}

func TestGridCacheInvalidatesOnBoundsChange(t *testing.T) {
	cache := newGridCache()
	d := models.DistributionPeriod{Distribution: "2024-05-06"}
	d.Days[0] = bounds("08:00", "08:15")

	assert.Len(t, cache.Get(d).Day(1), 2)

	d.Days[0] = bounds("08:00", "09:00")
	assert.Len(t, cache.Get(d).Day(1), 5)

	cache.Invalidate(d.Distribution)
	assert.Len(t, cache.Get(d).Day(1), 5)
}
