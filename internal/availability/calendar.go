package availability

import (
	"fmt"
	"sort"
	"time"

	"github.com/healthfirst/portal/pkg/types"
)

// ViewMode selects the calendar window
type ViewMode string

const (
	ViewDay   ViewMode = "day"
	ViewWeek  ViewMode = "week"
	ViewMonth ViewMode = "month"
)

// ParseViewMode validates a view mode string
func ParseViewMode(s string) (ViewMode, error) {
	switch v := ViewMode(s); v {
	case ViewDay, ViewWeek, ViewMonth:
		return v, nil
	}
	return "", types.NewValidationError(types.ErrCodeInvalidInput,
		fmt.Sprintf("unknown view %q, expected day, week or month", s), map[string]interface{}{"field": "view"})
}

// GridCells is the number of cells in a month grid: 6 weeks of 7 days
const GridCells = 42

// GridCell is one day of the month grid
type GridCell struct {
	Date    time.Time        `json:"date"`
	InMonth bool             `json:"in_month"`
	IsToday bool             `json:"is_today"`
	Slots   []types.TimeSlot `json:"slots,omitempty"`
}

// WeekRange returns the Sunday and Saturday of the week containing anchor
func WeekRange(anchor time.Time) (time.Time, time.Time) {
	day := dateOnly(anchor)
	sunday := day.AddDate(0, 0, -int(day.Weekday()))
	return sunday, sunday.AddDate(0, 0, 6)
}

// MonthGrid lays out the month of anchor as 42 cells starting on the
// Sunday on or before the first of the month. today marks IsToday.
func MonthGrid(anchor, today time.Time) [GridCells]GridCell {
	y, m, _ := anchor.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	todayDate := dateOnly(today)

	var grid [GridCells]GridCell
	for i := range grid {
		d := start.AddDate(0, 0, i)
		grid[i] = GridCell{
			Date:    d,
			InMonth: d.Month() == m,
			IsToday: d.Equal(todayDate),
		}
	}
	return grid
}

// PopulateGrid attaches to each cell the slots dated on it, sorted by start
func PopulateGrid(grid *[GridCells]GridCell, slots []types.TimeSlot) {
	byDate := GroupByDate(slots)
	for i := range grid {
		grid[i].Slots = byDate[formatDate(grid[i].Date)]
	}
}

// Filter returns the slots inside the mode's window around anchor, ordered
// by date and then start time. Slots with an unparseable date are skipped.
func Filter(slots []types.TimeSlot, mode ViewMode, anchor time.Time) []types.TimeSlot {
	day := dateOnly(anchor)

	var in func(time.Time) bool
	switch mode {
	case ViewDay:
		in = func(d time.Time) bool { return d.Equal(day) }
	case ViewWeek:
		sunday, saturday := WeekRange(day)
		in = func(d time.Time) bool { return !d.Before(sunday) && !d.After(saturday) }
	case ViewMonth:
		in = func(d time.Time) bool { return d.Year() == day.Year() && d.Month() == day.Month() }
	default:
		return nil
	}

	var out []types.TimeSlot
	for _, s := range slots {
		d, err := parseDate(s.Date)
		if err != nil {
			continue
		}
		if in(d) {
			out = append(out, s)
		}
	}
	sortSlots(out)
	return out
}

// GroupByDate buckets slots by date, each bucket sorted by start time
func GroupByDate(slots []types.TimeSlot) map[string][]types.TimeSlot {
	out := make(map[string][]types.TimeSlot)
	for _, s := range slots {
		out[s.Date] = append(out[s.Date], s)
	}
	for _, bucket := range out {
		sortSlots(bucket)
	}
	return out
}

// sortSlots orders by date then start time. Both are zero padded, so
// string order is chronological.
func sortSlots(slots []types.TimeSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Date != slots[j].Date {
			return slots[i].Date < slots[j].Date
		}
		return slots[i].StartTime < slots[j].StartTime
	})
}

// View filters the model's slots for display
func (m *Model) View(mode ViewMode, anchor time.Time) []types.TimeSlot {
	return Filter(m.Slots(), mode, anchor)
}

// Calendar returns the populated month grid around anchor
func (m *Model) Calendar(anchor time.Time) [GridCells]GridCell {
	grid := MonthGrid(anchor, m.now())
	PopulateGrid(&grid, m.Slots())
	return grid
}
