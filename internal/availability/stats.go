package availability

import (
	"time"

	"github.com/healthfirst/portal/pkg/types"
)

// ComputeStats derives provider statistics from a slot set
func ComputeStats(slots []types.TimeSlot) types.ProviderStats {
	var s types.ProviderStats
	s.TotalSlots = len(slots)
	for _, slot := range slots {
		switch slot.Status {
		case types.SlotAvailable:
			s.AvailableSlots++
		case types.SlotBooked:
			s.BookedSlots++
		case types.SlotBlocked:
			s.BlockedSlots++
		case types.SlotTentative:
			s.TentativeSlots++
		case types.SlotBreak:
			s.BreakSlots++
		}
	}
	s.UtilizationRate = Utilization(s.BookedSlots, s.TotalSlots)
	return s
}

// Utilization is booked/total as a percentage, 0 for an empty set
func Utilization(booked, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(booked) * 100 / float64(total)
}

// Stats recomputes statistics from the current slot set
func (m *Model) Stats() types.ProviderStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ComputeStats(m.slots)
}

const mockSlotMinutes = 30

var (
	mockStatusCycle = []types.SlotStatus{
		types.SlotAvailable,
		types.SlotBooked,
		types.SlotAvailable,
		types.SlotTentative,
		types.SlotAvailable,
		types.SlotBooked,
		types.SlotBlocked,
	}
	mockPatients = []string{"Emma Jones", "Liam Patel", "Olivia Chen", "Noah Garcia"}
)

// GenerateMockSlots fills days calendar days starting at from with
// 30-minute slots inside the weekly template. Days without a template row
// and windows covered by a block day are skipped; slots starting in the
// noon hour become breaks. Statuses follow a fixed cycle so the output is
// deterministic. It returns the number of slots added.
func (m *Model) GenerateMockSlots(from time.Time, days int) int {
	start := dateOnly(from)

	var generated []types.TimeSlot
	seq := 0
	for d := 0; d < days; d++ {
		date := start.AddDate(0, 0, d)
		row, ok := m.DayWindow(date)
		if !ok {
			continue
		}
		windows, err := GenerateSlots(row.FromTime, row.TillTime, mockSlotMinutes, 0)
		if err != nil {
			continue
		}

		dateStr := formatDate(date)
		for _, w := range windows {
			if m.IsBlocked(dateStr, w.StartTime, w.EndTime) {
				continue
			}

			slot := types.TimeSlot{
				Date:      dateStr,
				StartTime: w.StartTime,
				EndTime:   w.EndTime,
				Duration:  mockSlotMinutes,
				Status:    mockStatusCycle[seq%len(mockStatusCycle)],
			}
			if w.StartTime[:2] == "12" {
				slot.Status = types.SlotBreak
				slot.Notes = "Lunch"
			}
			switch slot.Status {
			case types.SlotBooked:
				slot.AppointmentType = types.TypeConsultation
				slot.PatientName = mockPatients[seq%len(mockPatients)]
			case types.SlotTentative:
				slot.AppointmentType = types.TypeFollowUp
			}
			generated = append(generated, slot)
			seq++
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range generated {
		generated[i].ID = m.newID()
	}
	m.slots = append(m.slots, generated...)
	m.record("mock", len(generated))
	return len(generated)
}
