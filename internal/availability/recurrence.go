package availability

import (
	"fmt"
	"time"

	"github.com/healthfirst/portal/pkg/types"
)

// Slot length bounds accepted by GenerateSlots
const (
	MinSlotMinutes = 15
	MaxSlotMinutes = 240

	maxOccurrences = 366
)

// Window is a start/end pair of HH:MM times
type Window struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// GenerateSlots cuts the start-end window into back-to-back slots of
// duration minutes separated by breakMinutes. A trailing remainder shorter
// than duration is dropped.
func GenerateSlots(start, end string, duration, breakMinutes int) ([]Window, error) {
	if duration < MinSlotMinutes || duration > MaxSlotMinutes {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput,
			fmt.Sprintf("Slot duration must be between %d and %d minutes", MinSlotMinutes, MaxSlotMinutes),
			map[string]interface{}{"field": "slot_duration"})
	}
	if breakMinutes < 0 {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "break duration cannot be negative",
			map[string]interface{}{"field": "break_duration"})
	}
	if err := ValidateWindow(start, end); err != nil {
		return nil, err
	}

	from, _ := parseClock(start)
	till, _ := parseClock(end)

	var out []Window
	for cur := from; cur+duration <= till; cur += duration + breakMinutes {
		out = append(out, Window{StartTime: formatClock(cur), EndTime: formatClock(cur + duration)})
	}
	return out, nil
}

// NextOccurrence returns the k-th occurrence after first for a pattern.
// Monthly occurrences step one month at a time from the previous
// occurrence, each step clamped to the last day of the month, so a series
// starting on the 31st settles on the shortest day it has passed through.
func NextOccurrence(first time.Time, pattern types.RecurrencePattern, k int) (time.Time, error) {
	if !pattern.Valid() {
		return time.Time{}, fmt.Errorf("unknown recurrence pattern %q", pattern)
	}
	d := first
	for i := 0; i < k; i++ {
		d, _ = nextDate(d, pattern)
	}
	return d, nil
}

func nextDate(current time.Time, pattern types.RecurrencePattern) (time.Time, error) {
	switch pattern {
	case types.RecurrenceWeekly:
		return current.AddDate(0, 0, 7), nil
	case types.RecurrenceBiweekly:
		return current.AddDate(0, 0, 14), nil
	case types.RecurrenceMonthly:
		y, m, d := current.Date()
		target := time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC)
		if last := target.AddDate(0, 1, -1).Day(); d > last {
			d = last
		}
		return time.Date(target.Year(), target.Month(), d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("unknown recurrence pattern %q", pattern)
}

// ExpandRecurrence lists the dates from first through until (inclusive)
// on which a recurring slot occurs
func ExpandRecurrence(first string, pattern types.RecurrencePattern, until string) ([]string, error) {
	start, err := parseDate(first)
	if err != nil {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, err.Error(), map[string]interface{}{"field": "date"})
	}
	end, err := parseDate(until)
	if err != nil {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, err.Error(), map[string]interface{}{"field": "recurrence_end_date"})
	}
	if end.Before(start) {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "recurrence end date is before the first date",
			map[string]interface{}{"field": "recurrence_end_date"})
	}
	if !pattern.Valid() {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, fmt.Sprintf("unknown recurrence pattern %q", pattern),
			map[string]interface{}{"field": "recurrence_pattern"})
	}

	var dates []string
	d := start
	for k := 0; k < maxOccurrences && !d.After(end); k++ {
		dates = append(dates, formatDate(d))
		if d, err = nextDate(d, pattern); err != nil {
			return nil, err
		}
	}
	return dates, nil
}

// AvailabilityRequest describes a block of bookable time, optionally repeating
type AvailabilityRequest struct {
	Date            string                  `json:"date"`
	StartTime       string                  `json:"start_time"`
	EndTime         string                  `json:"end_time"`
	SlotDuration    int                     `json:"slot_duration"`
	BreakDuration   int                     `json:"break_duration"`
	Status          types.SlotStatus        `json:"status,omitempty"`
	AppointmentType types.AppointmentType   `json:"appointment_type,omitempty"`
	Pattern         types.RecurrencePattern `json:"recurrence_pattern,omitempty"`
	Until           string                  `json:"recurrence_end_date,omitempty"`
}

// CreateAvailability cuts the request window into slots on its date and,
// when a pattern is given, on every recurrence up to Until. Either every
// slot is added or none is.
func (m *Model) CreateAvailability(req AvailabilityRequest) ([]types.TimeSlot, error) {
	if req.SlotDuration == 0 {
		req.SlotDuration = 30
	}
	windows, err := GenerateSlots(req.StartTime, req.EndTime, req.SlotDuration, req.BreakDuration)
	if err != nil {
		return nil, err
	}

	dates := []string{req.Date}
	if req.Pattern != "" {
		until := req.Until
		if until == "" {
			until = req.Date
		}
		if dates, err = ExpandRecurrence(req.Date, req.Pattern, until); err != nil {
			return nil, err
		}
	}

	var candidates []types.TimeSlot
	for _, date := range dates {
		for _, w := range windows {
			slot, err := buildSlot(types.SlotDefinition{
				Date:              date,
				StartTime:         w.StartTime,
				EndTime:           w.EndTime,
				Status:            req.Status,
				AppointmentType:   req.AppointmentType,
				IsRecurring:       req.Pattern != "",
				RecurrencePattern: req.Pattern,
			}, true)
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, slot)
		}
	}

	return m.addAll("recurring", candidates)
}

// addAll assigns ids and appends candidates atomically
func (m *Model) addAll(operation string, candidates []types.TimeSlot) ([]types.TimeSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkConflictsLocked(candidates, ""); err != nil {
		return nil, err
	}

	for i := range candidates {
		candidates[i].ID = m.newID()
	}
	m.slots = append(m.slots, candidates...)
	m.record(operation, len(candidates))

	out := make([]types.TimeSlot, len(candidates))
	copy(out, candidates)
	return out, nil
}
