package availability

import (
	"testing"
	"time"

	"github.com/healthfirst/portal/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekRangeSpansSundayToSaturday(t *testing.T) {
	anchor := date(2025, 1, 1)
	for i := 0; i < 400; i++ {
		a := anchor.AddDate(0, 0, i).Add(13 * time.Hour)
		sunday, saturday := WeekRange(a)

		assert.Equal(t, time.Sunday, sunday.Weekday())
		assert.Equal(t, time.Saturday, saturday.Weekday())
		assert.Equal(t, 6*24*time.Hour, saturday.Sub(sunday))
		day := dateOnly(a)
		assert.False(t, day.Before(sunday), "anchor %s", a)
		assert.False(t, day.After(saturday), "anchor %s", a)
	}
}

func TestMonthGridAlwaysHas42Cells(t *testing.T) {
	for y := 2024; y <= 2026; y++ {
		for m := time.January; m <= time.December; m++ {
			grid := MonthGrid(date(y, m, 15), date(2025, 8, 11))
			require.Len(t, grid, GridCells)

			assert.Equal(t, time.Sunday, grid[0].Date.Weekday())
			assert.False(t, grid[0].Date.After(date(y, m, 1)))
			assert.True(t, grid[0].Date.AddDate(0, 0, 7).After(date(y, m, 1)))

			inMonth := 0
			for i, c := range grid {
				if i > 0 {
					assert.Equal(t, grid[i-1].Date.AddDate(0, 0, 1), c.Date)
				}
				if c.InMonth {
					inMonth++
				}
			}
			assert.Equal(t, date(y, m+1, 1).AddDate(0, 0, -1).Day(), inMonth)
		}
	}
}

func TestMonthGridLayout(t *testing.T) {
	// August 2025 starts on a Friday
	grid := MonthGrid(date(2025, 8, 20), date(2025, 8, 11))
	assert.Equal(t, date(2025, 7, 27), grid[0].Date)
	assert.False(t, grid[0].InMonth)
	assert.Equal(t, date(2025, 8, 1), grid[5].Date)
	assert.True(t, grid[5].InMonth)
	assert.Equal(t, date(2025, 9, 6), grid[41].Date)

	today := 0
	for _, c := range grid {
		if c.IsToday {
			today++
			assert.Equal(t, date(2025, 8, 11), c.Date)
		}
	}
	assert.Equal(t, 1, today)

	// February 2026 starts on a Sunday and still gets six rows
	feb := MonthGrid(date(2026, 2, 1), date(2025, 8, 11))
	assert.Equal(t, date(2026, 2, 1), feb[0].Date)
	assert.Equal(t, date(2026, 3, 14), feb[41].Date)
}

func calendarSlots() []types.TimeSlot {
	return []types.TimeSlot{
		{ID: "a", Date: "2025-08-11", StartTime: "14:00", EndTime: "14:30"},
		{ID: "b", Date: "2025-08-11", StartTime: "09:00", EndTime: "09:30"},
		{ID: "c", Date: "2025-08-10", StartTime: "10:00", EndTime: "10:30"},
		{ID: "d", Date: "2025-08-16", StartTime: "10:00", EndTime: "10:30"},
		{ID: "e", Date: "2025-08-17", StartTime: "10:00", EndTime: "10:30"},
		{ID: "f", Date: "2025-07-31", StartTime: "10:00", EndTime: "10:30"},
		{ID: "g", Date: "2025-08-31", StartTime: "08:00", EndTime: "08:30"},
		{ID: "h", Date: "not-a-date", StartTime: "08:00", EndTime: "08:30"},
	}
}

func ids(slots []types.TimeSlot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	anchor := time.Date(2025, 8, 11, 18, 30, 0, 0, time.UTC)

	assert.Equal(t, []string{"b", "a"}, ids(Filter(calendarSlots(), ViewDay, anchor)))
	assert.Equal(t, []string{"c", "b", "a", "d"}, ids(Filter(calendarSlots(), ViewWeek, anchor)))
	assert.Equal(t, []string{"c", "b", "a", "d", "e", "g"}, ids(Filter(calendarSlots(), ViewMonth, anchor)))
	assert.Nil(t, Filter(calendarSlots(), ViewMode("year"), anchor))
}

func TestGroupByDateSortsByStart(t *testing.T) {
	groups := GroupByDate(calendarSlots())
	assert.Equal(t, []string{"b", "a"}, ids(groups["2025-08-11"]))
	assert.Len(t, groups["2025-08-17"], 1)
}

func TestPopulateGrid(t *testing.T) {
	grid := MonthGrid(date(2025, 8, 1), date(2025, 8, 1))
	PopulateGrid(&grid, calendarSlots())

	// 2025-07-31 is a leading padding cell and still shows its slot
	assert.Equal(t, []string{"f"}, ids(grid[4].Slots))
	assert.Equal(t, date(2025, 8, 11), grid[15].Date)
	assert.Equal(t, []string{"b", "a"}, ids(grid[15].Slots))
}

func TestParseViewMode(t *testing.T) {
	v, err := ParseViewMode("week")
	require.NoError(t, err)
	assert.Equal(t, ViewWeek, v)

	_, err = ParseViewMode("fortnight")
	assert.True(t, types.IsType(err, types.ErrorTypeValidation))
}

func TestModelCalendar(t *testing.T) {
	now := time.Date(2025, 8, 11, 9, 0, 0, 0, time.UTC)
	m := newTestModel(WithClock(func() time.Time { return now }))
	_, err := m.AddSlot(def("2025-08-11", "09:00", "09:30"))
	require.NoError(t, err)

	grid := m.Calendar(now)
	assert.True(t, grid[15].IsToday)
	assert.Len(t, grid[15].Slots, 1)
	assert.Len(t, m.View(ViewDay, now), 1)
}
