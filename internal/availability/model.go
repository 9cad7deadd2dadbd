// Package availability holds a provider's schedule: discrete time slots,
// the weekly recurring template and one-off block days, together with the
// calendar projections and slot templates built on top of them.
package availability

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/healthfirst/portal/pkg/logger"
	"github.com/healthfirst/portal/pkg/types"
)

// Weekdays lists the weekly template labels in display order
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

const (
	defaultFromTime = "09:00"
	defaultTillTime = "18:00"
)

// ConflictPolicy controls whether overlapping slots may coexist on a date
type ConflictPolicy int

const (
	// AllowOverlaps accepts slots regardless of what is already booked on the date
	AllowOverlaps ConflictPolicy = iota
	// RejectOverlaps refuses slots whose window overlaps an existing slot
	RejectOverlaps
)

// MutationRecorder receives slot mutation counts
type MutationRecorder interface {
	RecordSlotMutation(operation string, count int)
}

// Model is the in-memory schedule of a single provider
type Model struct {
	mu        sync.RWMutex
	slots     []types.TimeSlot
	weekly    []types.DayAvailability
	blockDays []types.BlockDay

	policy  ConflictPolicy
	newID   func() string
	now     func() time.Time
	logger  *logger.Logger
	metrics MutationRecorder
}

// Option configures a Model
type Option func(*Model)

// WithIDGenerator replaces the uuid based id generator
func WithIDGenerator(fn func() string) Option {
	return func(m *Model) { m.newID = fn }
}

// WithClock replaces time.Now
func WithClock(fn func() time.Time) Option {
	return func(m *Model) { m.now = fn }
}

// WithMetrics records slot mutations
func WithMetrics(r MutationRecorder) Option {
	return func(m *Model) { m.metrics = r }
}

// WithConflictPolicy sets the overlap policy
func WithConflictPolicy(p ConflictPolicy) Option {
	return func(m *Model) { m.policy = p }
}

// NewModel creates a model seeded with the default weekly template,
// Monday to Saturday 09:00-18:00, and one block day with no date yet
func NewModel(log *logger.Logger, opts ...Option) *Model {
	m := &Model{
		newID:  uuid.NewString,
		now:    time.Now,
		logger: log,
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, day := range Weekdays[:6] {
		m.weekly = append(m.weekly, types.DayAvailability{
			ID:       m.newID(),
			Day:      day,
			FromTime: defaultFromTime,
			TillTime: defaultTillTime,
		})
	}
	m.blockDays = []types.BlockDay{{
		ID:       m.newID(),
		FromTime: defaultFromTime,
		TillTime: defaultTillTime,
	}}

	return m
}

// SetConflictPolicy changes the overlap policy for later mutations
func (m *Model) SetConflictPolicy(p ConflictPolicy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policy = p
}

func (m *Model) record(operation string, count int) {
	if m.metrics != nil && count > 0 {
		m.metrics.RecordSlotMutation(operation, count)
	}
}

// buildSlot validates a definition and returns the slot it describes,
// without an id. Duration is derived when zero and must match otherwise.
func buildSlot(def types.SlotDefinition, requireDate bool) (types.TimeSlot, error) {
	invalid := func(field, msg string) error {
		return types.NewValidationError(types.ErrCodeInvalidInput, msg, map[string]interface{}{"field": field})
	}

	if def.Date == "" {
		if requireDate {
			return types.TimeSlot{}, invalid("date", "date is required")
		}
	} else if _, err := parseDate(def.Date); err != nil {
		return types.TimeSlot{}, invalid("date", err.Error())
	}

	start, err := parseClock(def.StartTime)
	if err != nil {
		return types.TimeSlot{}, invalid("start_time", err.Error())
	}
	end, err := parseClock(def.EndTime)
	if err != nil {
		return types.TimeSlot{}, invalid("end_time", err.Error())
	}
	if start >= end {
		return types.TimeSlot{}, invalid("end_time", "end time must be after start time")
	}

	duration := end - start
	if def.Duration != 0 && def.Duration != duration {
		return types.TimeSlot{}, invalid("duration",
			fmt.Sprintf("duration %d does not match %s-%s (%d minutes)", def.Duration, def.StartTime, def.EndTime, duration))
	}

	status := def.Status
	if status == "" {
		status = types.SlotAvailable
	}
	if !status.Valid() {
		return types.TimeSlot{}, invalid("status", fmt.Sprintf("unknown slot status %q", def.Status))
	}

	if def.RecurrencePattern != "" && !def.RecurrencePattern.Valid() {
		return types.TimeSlot{}, invalid("recurrence_pattern", fmt.Sprintf("unknown recurrence pattern %q", def.RecurrencePattern))
	}
	if def.IsRecurring && def.RecurrencePattern == "" {
		return types.TimeSlot{}, invalid("recurrence_pattern", "recurring slots need a recurrence pattern")
	}

	return types.TimeSlot{
		Date:              def.Date,
		StartTime:         def.StartTime,
		EndTime:           def.EndTime,
		Duration:          duration,
		Status:            status,
		AppointmentType:   def.AppointmentType,
		PatientName:       def.PatientName,
		Notes:             def.Notes,
		IsRecurring:       def.IsRecurring,
		RecurrencePattern: def.RecurrencePattern,
	}, nil
}

func definitionOf(s types.TimeSlot) types.SlotDefinition {
	return types.SlotDefinition{
		Date:              s.Date,
		StartTime:         s.StartTime,
		EndTime:           s.EndTime,
		Duration:          s.Duration,
		Status:            s.Status,
		AppointmentType:   s.AppointmentType,
		PatientName:       s.PatientName,
		Notes:             s.Notes,
		IsRecurring:       s.IsRecurring,
		RecurrencePattern: s.RecurrencePattern,
	}
}

// AddSlot appends a new slot with a fresh id
func (m *Model) AddSlot(def types.SlotDefinition) (types.TimeSlot, error) {
	slot, err := buildSlot(def, true)
	if err != nil {
		return types.TimeSlot{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkConflictsLocked([]types.TimeSlot{slot}, ""); err != nil {
		return types.TimeSlot{}, err
	}

	slot.ID = m.newID()
	m.slots = append(m.slots, slot)
	m.record("add", 1)
	return slot, nil
}

// UpdateSlot merges the set fields of upd into the slot with the given id.
// An unknown id is a no-op. Changing a time without giving a duration
// re-derives the duration. A merge that leaves the slot invalid is
// rejected and the slot is left untouched.
func (m *Model) UpdateSlot(id string, upd types.SlotUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexLocked(id)
	if idx < 0 {
		return nil
	}

	merged := m.slots[idx]
	if upd.Date != nil {
		merged.Date = *upd.Date
	}
	if upd.StartTime != nil {
		merged.StartTime = *upd.StartTime
	}
	if upd.EndTime != nil {
		merged.EndTime = *upd.EndTime
	}
	if upd.Duration != nil {
		merged.Duration = *upd.Duration
	} else if upd.StartTime != nil || upd.EndTime != nil {
		merged.Duration = 0
	}
	if upd.Status != nil {
		merged.Status = *upd.Status
	}
	if upd.AppointmentType != nil {
		merged.AppointmentType = *upd.AppointmentType
	}
	if upd.PatientName != nil {
		merged.PatientName = *upd.PatientName
	}
	if upd.Notes != nil {
		merged.Notes = *upd.Notes
	}
	if upd.IsRecurring != nil {
		merged.IsRecurring = *upd.IsRecurring
	}
	if upd.RecurrencePattern != nil {
		merged.RecurrencePattern = *upd.RecurrencePattern
	}

	slot, err := buildSlot(definitionOf(merged), true)
	if err != nil {
		return err
	}
	if err := m.checkConflictsLocked([]types.TimeSlot{slot}, id); err != nil {
		return err
	}

	slot.ID = id
	m.slots[idx] = slot
	m.record("update", 1)
	return nil
}

// RemoveSlot deletes the slot with the given id and reports whether it existed
func (m *Model) RemoveSlot(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexLocked(id)
	if idx < 0 {
		return false
	}
	m.slots = append(m.slots[:idx], m.slots[idx+1:]...)
	m.record("remove", 1)
	return true
}

// BulkSetStatus applies status to every slot whose id is in ids. Unknown
// ids are ignored. It returns how many slots were changed.
func (m *Model) BulkSetStatus(ids []string, status types.SlotStatus) (int, error) {
	if !status.Valid() {
		return 0, types.NewValidationError(types.ErrCodeInvalidInput,
			fmt.Sprintf("unknown slot status %q", status), map[string]interface{}{"field": "status"})
	}

	set := toSet(ids)

	m.mu.Lock()
	defer m.mu.Unlock()

	changed := 0
	for i := range m.slots {
		if _, ok := set[m.slots[i].ID]; !ok {
			continue
		}
		if m.slots[i].Status != status {
			m.slots[i].Status = status
			changed++
		}
	}
	m.record("bulk_status", changed)
	return changed, nil
}

// BulkDelete removes every slot whose id is in ids and returns how many were removed
func (m *Model) BulkDelete(ids []string) int {
	set := toSet(ids)

	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.slots[:0]
	for _, s := range m.slots {
		if _, ok := set[s.ID]; !ok {
			kept = append(kept, s)
		}
	}
	removed := len(m.slots) - len(kept)
	m.slots = kept
	m.record("bulk_delete", removed)
	return removed
}

// Slots returns a copy of all slots in insertion order
func (m *Model) Slots() []types.TimeSlot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.TimeSlot, len(m.slots))
	copy(out, m.slots)
	return out
}

// Slot returns the slot with the given id
func (m *Model) Slot(id string) (types.TimeSlot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if idx := m.indexLocked(id); idx >= 0 {
		return m.slots[idx], true
	}
	return types.TimeSlot{}, false
}

// SlotsByStatus returns the slots currently in the given status
func (m *Model) SlotsByStatus(status types.SlotStatus) []types.TimeSlot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []types.TimeSlot
	for _, s := range m.slots {
		if s.Status == status {
			out = append(out, s)
		}
	}
	return out
}

func (m *Model) indexLocked(id string) int {
	for i := range m.slots {
		if m.slots[i].ID == id {
			return i
		}
	}
	return -1
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// DetectConflicts returns the ids of existing slots on the same date whose
// window overlaps def
func (m *Model) DetectConflicts(def types.SlotDefinition) ([]string, error) {
	slot, err := buildSlot(def, true)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.overlappingLocked(slot, ""), nil
}

func (m *Model) overlappingLocked(slot types.TimeSlot, exclude string) []string {
	start, _ := parseClock(slot.StartTime)
	end, _ := parseClock(slot.EndTime)

	var ids []string
	for _, s := range m.slots {
		if s.ID == exclude || s.Date != slot.Date {
			continue
		}
		sStart, _ := parseClock(s.StartTime)
		sEnd, _ := parseClock(s.EndTime)
		if start < sEnd && sStart < end {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// checkConflictsLocked enforces RejectOverlaps against the stored slots and
// among the candidates themselves
func (m *Model) checkConflictsLocked(candidates []types.TimeSlot, exclude string) error {
	if m.policy != RejectOverlaps {
		return nil
	}

	for i, c := range candidates {
		ids := m.overlappingLocked(c, exclude)
		cStart, _ := parseClock(c.StartTime)
		cEnd, _ := parseClock(c.EndTime)
		for _, other := range candidates[:i] {
			oStart, _ := parseClock(other.StartTime)
			oEnd, _ := parseClock(other.EndTime)
			if other.Date == c.Date && cStart < oEnd && oStart < cEnd {
				ids = append(ids, fmt.Sprintf("pending:%s-%s", other.StartTime, other.EndTime))
			}
		}
		if len(ids) > 0 {
			return types.NewConflictError(types.ErrCodeSlotOverlap,
				fmt.Sprintf("slot %s %s-%s overlaps existing slots", c.Date, c.StartTime, c.EndTime),
				map[string]interface{}{"conflicting_ids": ids})
		}
	}
	return nil
}

// canonicalDay maps any casing of a weekday name to its template label
func canonicalDay(day string) (string, bool) {
	for _, d := range Weekdays {
		if strings.EqualFold(d, strings.TrimSpace(day)) {
			return d, true
		}
	}
	return "", false
}

func weekdayIndex(day string) int {
	for i, d := range Weekdays {
		if d == day {
			return i
		}
	}
	return len(Weekdays)
}

// WeeklyTemplate returns a copy of the weekly recurring template
func (m *Model) WeeklyTemplate() []types.DayAvailability {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.DayAvailability, len(m.weekly))
	copy(out, m.weekly)
	return out
}

// ValidateWindow checks that from and till are HH:MM and till is later
func ValidateWindow(from, till string) error {
	start, err := parseClock(from)
	if err != nil {
		return types.NewValidationError(types.ErrCodeInvalidInput, err.Error(), map[string]interface{}{"field": "from_time"})
	}
	end, err := parseClock(till)
	if err != nil {
		return types.NewValidationError(types.ErrCodeInvalidInput, err.Error(), map[string]interface{}{"field": "till_time"})
	}
	if start >= end {
		return types.NewValidationError(types.ErrCodeInvalidInput, "till time must be after from time", map[string]interface{}{"field": "till_time"})
	}
	return nil
}

// SetDayAvailability sets the working window of a weekday, adding the day
// to the template when it is not present yet
func (m *Model) SetDayAvailability(day, from, till string) error {
	label, ok := canonicalDay(day)
	if !ok {
		return types.NewValidationError(types.ErrCodeInvalidInput, fmt.Sprintf("unknown weekday %q", day), map[string]interface{}{"field": "day"})
	}
	if err := ValidateWindow(from, till); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.setDayLocked(label, from, till)
	return nil
}

func (m *Model) setDayLocked(label, from, till string) {
	for i := range m.weekly {
		if m.weekly[i].Day == label {
			m.weekly[i].FromTime = from
			m.weekly[i].TillTime = till
			return
		}
	}
	m.weekly = append(m.weekly, types.DayAvailability{ID: m.newID(), Day: label, FromTime: from, TillTime: till})
	sort.SliceStable(m.weekly, func(i, j int) bool {
		return weekdayIndex(m.weekly[i].Day) < weekdayIndex(m.weekly[j].Day)
	})
}

// RemoveDay drops a weekday from the template
func (m *Model) RemoveDay(day string) bool {
	label, ok := canonicalDay(day)
	if !ok {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.weekly {
		if m.weekly[i].Day == label {
			m.weekly = append(m.weekly[:i], m.weekly[i+1:]...)
			return true
		}
	}
	return false
}

// DayWindow returns the template row for the weekday of date
func (m *Model) DayWindow(date time.Time) (types.DayAvailability, bool) {
	label := date.Weekday().String()

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, d := range m.weekly {
		if d.Day == label {
			return d, true
		}
	}
	return types.DayAvailability{}, false
}

func normalizeBlockDay(b types.BlockDay) (types.BlockDay, error) {
	if b.FromTime == "" {
		b.FromTime = defaultFromTime
	}
	if b.TillTime == "" {
		b.TillTime = defaultTillTime
	}
	if b.Date != "" {
		if _, err := parseDate(b.Date); err != nil {
			return b, types.NewValidationError(types.ErrCodeInvalidInput, err.Error(), map[string]interface{}{"field": "date"})
		}
	}
	if err := ValidateWindow(b.FromTime, b.TillTime); err != nil {
		return b, err
	}
	return b, nil
}

// AddBlockDay appends a block day with a fresh id. Empty times default to
// 09:00-18:00 and the date may be left empty until chosen.
func (m *Model) AddBlockDay(b types.BlockDay) (types.BlockDay, error) {
	b, err := normalizeBlockDay(b)
	if err != nil {
		return types.BlockDay{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	b.ID = m.newID()
	m.blockDays = append(m.blockDays, b)
	return b, nil
}

// UpdateBlockDay replaces the block day with b.ID
func (m *Model) UpdateBlockDay(b types.BlockDay) error {
	b, err := normalizeBlockDay(b)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.blockDays {
		if m.blockDays[i].ID == b.ID {
			m.blockDays[i] = b
			return nil
		}
	}
	return types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("block day %s not found", b.ID))
}

// RemoveBlockDay deletes a block day and reports whether it existed
func (m *Model) RemoveBlockDay(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.blockDays {
		if m.blockDays[i].ID == id {
			m.blockDays = append(m.blockDays[:i], m.blockDays[i+1:]...)
			return true
		}
	}
	return false
}

// BlockDays returns a copy of the block days
func (m *Model) BlockDays() []types.BlockDay {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.BlockDay, len(m.blockDays))
	copy(out, m.blockDays)
	return out
}

// IsBlocked reports whether a block day on date overlaps the from-till window
func (m *Model) IsBlocked(date, from, till string) bool {
	start, err := parseClock(from)
	if err != nil {
		return false
	}
	end, err := parseClock(till)
	if err != nil {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, b := range m.blockDays {
		if b.Date == "" || b.Date != date {
			continue
		}
		bStart, _ := parseClock(b.FromTime)
		bEnd, _ := parseClock(b.TillTime)
		if start < bEnd && bStart < end {
			return true
		}
	}
	return false
}
