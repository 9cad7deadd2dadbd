package availability

import (
	"fmt"
	"testing"
	"time"

	"github.com/healthfirst/portal/pkg/logger"
	"github.com/healthfirst/portal/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestModel(opts ...Option) *Model {
	opts = append([]Option{WithIDGenerator(sequentialIDs())}, opts...)
	return NewModel(logger.Discard(), opts...)
}

func def(date, start, end string) types.SlotDefinition {
	return types.SlotDefinition{Date: date, StartTime: start, EndTime: end, Status: types.SlotAvailable}
}

type recorder struct {
	counts map[string]int
}

func (r *recorder) RecordSlotMutation(op string, n int) {
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[op] += n
}

func TestNewModelDefaults(t *testing.T) {
	m := newTestModel()

	weekly := m.WeeklyTemplate()
	require.Len(t, weekly, 6)
	assert.Equal(t, "Monday", weekly[0].Day)
	assert.Equal(t, "Saturday", weekly[5].Day)
	for _, d := range weekly {
		assert.Equal(t, "09:00", d.FromTime)
		assert.Equal(t, "18:00", d.TillTime)
	}

	blocks := m.BlockDays()
	require.Len(t, blocks, 1)
	assert.Empty(t, blocks[0].Date)
	assert.Empty(t, m.Slots())
}

func TestAddSlot(t *testing.T) {
	m := newTestModel()

	slot, err := m.AddSlot(def("2025-08-11", "09:00", "09:45"))
	require.NoError(t, err)
	assert.NotEmpty(t, slot.ID)
	assert.Equal(t, 45, slot.Duration)
	assert.Equal(t, types.SlotAvailable, slot.Status)

	got, ok := m.Slot(slot.ID)
	require.True(t, ok)
	assert.Equal(t, slot, got)
}

func TestAddSlotValidation(t *testing.T) {
	tests := []struct {
		name  string
		def   types.SlotDefinition
		field string
	}{
		{"missing date", def("", "09:00", "09:30"), "date"},
		{"bad date", def("2025-13-01", "09:00", "09:30"), "date"},
		{"unpadded time", def("2025-08-11", "9:00", "09:30"), "start_time"},
		{"end before start", def("2025-08-11", "10:00", "09:30"), "end_time"},
		{"equal times", def("2025-08-11", "10:00", "10:00"), "end_time"},
		{
			"duration mismatch",
			types.SlotDefinition{Date: "2025-08-11", StartTime: "09:00", EndTime: "09:30", Duration: 45},
			"duration",
		},
		{
			"unknown status",
			types.SlotDefinition{Date: "2025-08-11", StartTime: "09:00", EndTime: "09:30", Status: "maybe"},
			"status",
		},
		{
			"unknown pattern",
			types.SlotDefinition{Date: "2025-08-11", StartTime: "09:00", EndTime: "09:30", RecurrencePattern: "daily"},
			"recurrence_pattern",
		},
		{
			"recurring without pattern",
			types.SlotDefinition{Date: "2025-08-11", StartTime: "09:00", EndTime: "09:30", IsRecurring: true},
			"recurrence_pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel()
			_, err := m.AddSlot(tt.def)
			require.Error(t, err)
			assert.True(t, types.IsType(err, types.ErrorTypeValidation))

			var pe *types.PortalError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.field, pe.Details["field"])
			assert.Empty(t, m.Slots())
		})
	}
}

func TestAddRemoveRoundTrip(t *testing.T) {
	m := newTestModel()
	_, err := m.AddSlot(def("2025-08-11", "09:00", "09:30"))
	require.NoError(t, err)
	_, err = m.AddSlot(def("2025-08-12", "10:00", "10:30"))
	require.NoError(t, err)

	before := m.Slots()

	added, err := m.AddSlot(def("2025-08-11", "11:00", "11:30"))
	require.NoError(t, err)
	assert.True(t, m.RemoveSlot(added.ID))

	assert.Equal(t, before, m.Slots())
	assert.False(t, m.RemoveSlot(added.ID), "second removal is a no-op")
}

func TestUpdateSlot(t *testing.T) {
	m := newTestModel()
	slot, err := m.AddSlot(def("2025-08-11", "09:00", "09:30"))
	require.NoError(t, err)

	status := types.SlotBooked
	name := "Emma Jones"
	end := "10:00"
	require.NoError(t, m.UpdateSlot(slot.ID, types.SlotUpdate{Status: &status, PatientName: &name, EndTime: &end}))

	got, _ := m.Slot(slot.ID)
	assert.Equal(t, types.SlotBooked, got.Status)
	assert.Equal(t, "Emma Jones", got.PatientName)
	assert.Equal(t, "10:00", got.EndTime)
	assert.Equal(t, 60, got.Duration, "duration re-derived from the new end time")
}

func TestUpdateSlotUnknownIDIsNoop(t *testing.T) {
	m := newTestModel()
	_, err := m.AddSlot(def("2025-08-11", "09:00", "09:30"))
	require.NoError(t, err)
	before := m.Slots()

	status := types.SlotBlocked
	assert.NoError(t, m.UpdateSlot("missing", types.SlotUpdate{Status: &status}))
	assert.Equal(t, before, m.Slots())
}

func TestUpdateSlotRejectsInvalidMerge(t *testing.T) {
	m := newTestModel()
	slot, err := m.AddSlot(def("2025-08-11", "09:00", "09:30"))
	require.NoError(t, err)

	start := "10:00"
	err = m.UpdateSlot(slot.ID, types.SlotUpdate{StartTime: &start})
	require.Error(t, err)
	assert.True(t, types.IsType(err, types.ErrorTypeValidation))

	got, _ := m.Slot(slot.ID)
	assert.Equal(t, slot, got, "slot untouched after rejected merge")

	d := 15
	err = m.UpdateSlot(slot.ID, types.SlotUpdate{Duration: &d})
	assert.True(t, types.IsType(err, types.ErrorTypeValidation))
}

func TestBulkSetStatus(t *testing.T) {
	m := newTestModel()
	var ids []string
	for i := 0; i < 6; i++ {
		s, err := m.AddSlot(def("2025-08-11", formatClock(540+i*30), formatClock(570+i*30)))
		require.NoError(t, err)
		ids = append(ids, s.ID)
	}

	target := []string{ids[0], ids[2], ids[4], "not-there"}
	changed, err := m.BulkSetStatus(target, types.SlotBlocked)
	require.NoError(t, err)
	assert.Equal(t, 3, changed)

	var blocked []string
	for _, s := range m.SlotsByStatus(types.SlotBlocked) {
		blocked = append(blocked, s.ID)
	}
	assert.ElementsMatch(t, []string{ids[0], ids[2], ids[4]}, blocked)

	// Already blocked slots are not counted again
	changed, err = m.BulkSetStatus(target, types.SlotBlocked)
	require.NoError(t, err)
	assert.Equal(t, 0, changed)

	_, err = m.BulkSetStatus(ids, "bogus")
	assert.True(t, types.IsType(err, types.ErrorTypeValidation))
}

func TestBulkDelete(t *testing.T) {
	rec := &recorder{}
	m := newTestModel(WithMetrics(rec))
	a, _ := m.AddSlot(def("2025-08-11", "09:00", "09:30"))
	b, _ := m.AddSlot(def("2025-08-11", "09:30", "10:00"))
	c, _ := m.AddSlot(def("2025-08-11", "10:00", "10:30"))

	assert.Equal(t, 2, m.BulkDelete([]string{a.ID, c.ID, "nope"}))

	remaining := m.Slots()
	require.Len(t, remaining, 1)
	assert.Equal(t, b.ID, remaining[0].ID)
	assert.Equal(t, 3, rec.counts["add"])
	assert.Equal(t, 2, rec.counts["bulk_delete"])
}

func TestConflictPolicy(t *testing.T) {
	m := newTestModel()
	first, err := m.AddSlot(def("2025-08-11", "09:00", "10:00"))
	require.NoError(t, err)

	// overlaps are accepted by default
	_, err = m.AddSlot(def("2025-08-11", "09:30", "10:30"))
	require.NoError(t, err)

	ids, err := m.DetectConflicts(def("2025-08-11", "09:45", "10:15"))
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.Contains(t, ids, first.ID)

	m.SetConflictPolicy(RejectOverlaps)
	_, err = m.AddSlot(def("2025-08-11", "09:15", "09:45"))
	require.Error(t, err)
	assert.True(t, types.IsType(err, types.ErrorTypeConflict))

	// touching windows do not overlap
	_, err = m.AddSlot(def("2025-08-11", "10:30", "11:00"))
	assert.NoError(t, err)

	// other dates are unaffected
	_, err = m.AddSlot(def("2025-08-12", "09:00", "10:00"))
	assert.NoError(t, err)
}

func TestWeeklyTemplateEdits(t *testing.T) {
	m := newTestModel()

	require.NoError(t, m.SetDayAvailability("sunday", "10:00", "14:00"))
	require.NoError(t, m.SetDayAvailability("MONDAY", "08:00", "16:00"))

	weekly := m.WeeklyTemplate()
	require.Len(t, weekly, 7)
	assert.Equal(t, "Monday", weekly[0].Day)
	assert.Equal(t, "08:00", weekly[0].FromTime)
	assert.Equal(t, "Sunday", weekly[6].Day)

	err := m.SetDayAvailability("Funday", "10:00", "14:00")
	assert.True(t, types.IsType(err, types.ErrorTypeValidation))
	err = m.SetDayAvailability("Tuesday", "14:00", "10:00")
	assert.True(t, types.IsType(err, types.ErrorTypeValidation))

	assert.True(t, m.RemoveDay("saturday"))
	assert.False(t, m.RemoveDay("saturday"))
	assert.Len(t, m.WeeklyTemplate(), 6)

	// labels stay unique
	seen := map[string]bool{}
	for _, d := range m.WeeklyTemplate() {
		assert.False(t, seen[d.Day])
		seen[d.Day] = true
	}
}

func TestBlockDays(t *testing.T) {
	m := newTestModel()

	b, err := m.AddBlockDay(types.BlockDay{Date: "2025-08-15", Reason: "Holiday"})
	require.NoError(t, err)
	assert.Equal(t, "09:00", b.FromTime)
	assert.Equal(t, "18:00", b.TillTime)

	assert.True(t, m.IsBlocked("2025-08-15", "10:00", "10:30"))
	assert.False(t, m.IsBlocked("2025-08-15", "18:00", "18:30"))
	assert.False(t, m.IsBlocked("2025-08-16", "10:00", "10:30"))

	b.TillTime = "12:00"
	require.NoError(t, m.UpdateBlockDay(b))
	assert.False(t, m.IsBlocked("2025-08-15", "13:00", "13:30"))

	err = m.UpdateBlockDay(types.BlockDay{ID: "missing"})
	assert.True(t, types.IsType(err, types.ErrorTypeNotFound))

	_, err = m.AddBlockDay(types.BlockDay{Date: "15/08/2025"})
	assert.True(t, types.IsType(err, types.ErrorTypeValidation))

	assert.True(t, m.RemoveBlockDay(b.ID))
	assert.Len(t, m.BlockDays(), 1)
}

func TestStatsRecomputedOnEveryChange(t *testing.T) {
	m := newTestModel()
	assert.Equal(t, 0.0, m.Stats().UtilizationRate)

	var ids []string
	for i := 0; i < 10; i++ {
		s, err := m.AddSlot(def("2025-08-11", formatClock(480+i*30), formatClock(510+i*30)))
		require.NoError(t, err)
		ids = append(ids, s.ID)
	}
	_, err := m.BulkSetStatus(ids[:3], types.SlotBooked)
	require.NoError(t, err)

	stats := m.Stats()
	assert.Equal(t, 10, stats.TotalSlots)
	assert.Equal(t, 3, stats.BookedSlots)
	assert.Equal(t, 7, stats.AvailableSlots)
	assert.Equal(t, 30.0, stats.UtilizationRate)

	m.RemoveSlot(ids[9])
	assert.Equal(t, 9, m.Stats().TotalSlots)
}

func TestUtilization(t *testing.T) {
	assert.Equal(t, 30.0, Utilization(3, 10))
	assert.Equal(t, 0.0, Utilization(0, 0))
	assert.Equal(t, 100.0, Utilization(4, 4))
}

func TestGenerateMockSlots(t *testing.T) {
	m := newTestModel()
	_, err := m.AddBlockDay(types.BlockDay{Date: "2025-08-12", FromTime: "09:00", TillTime: "18:00"})
	require.NoError(t, err)

	// Sunday 2025-08-10 through Tuesday 2025-08-12
	n := m.GenerateMockSlots(time.Date(2025, 8, 10, 15, 0, 0, 0, time.UTC), 3)

	// Sunday has no template row, Tuesday is blocked, Monday yields 18 half hours
	assert.Equal(t, 18, n)
	for _, s := range m.Slots() {
		assert.Equal(t, "2025-08-11", s.Date)
		assert.Equal(t, 30, s.Duration)
		assert.True(t, s.Status.Valid())
		if s.StartTime[:2] == "12" {
			assert.Equal(t, types.SlotBreak, s.Status)
		}
	}

	again := newTestModel()
	again.AddBlockDay(types.BlockDay{Date: "2025-08-12", FromTime: "09:00", TillTime: "18:00"})
	again.GenerateMockSlots(time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC), 3)
	assert.Equal(t, m.Stats(), again.Stats(), "generation is deterministic")
}
