package availability

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/healthfirst/portal/pkg/types"
)

// ApplyTemplate stamps every slot definition of tpl onto date, in order,
// giving each new slot an id from newID. The template is not modified.
func ApplyTemplate(tpl types.AvailabilityTemplate, date time.Time, newID func() string) ([]types.TimeSlot, error) {
	if newID == nil {
		newID = uuid.NewString
	}
	target := formatDate(date)

	out := make([]types.TimeSlot, 0, len(tpl.TimeSlots))
	for i, def := range tpl.TimeSlots {
		def.Date = target
		slot, err := buildSlot(def, true)
		if err != nil {
			return nil, fmt.Errorf("template %q slot %d: %w", tpl.Name, i, err)
		}
		slot.ID = newID()
		out = append(out, slot)
	}
	return out, nil
}

// ApplyTemplate stamps tpl onto date and appends the new slots
func (m *Model) ApplyTemplate(tpl types.AvailabilityTemplate, date time.Time) ([]types.TimeSlot, error) {
	slots, err := ApplyTemplate(tpl, date, func() string { return "" })
	if err != nil {
		return nil, err
	}
	return m.addAll("template", slots)
}

// DefaultTemplates returns the built-in template catalog. Each call returns
// fresh values so callers cannot alter the catalog.
func DefaultTemplates() []types.AvailabilityTemplate {
	return []types.AvailabilityTemplate{
		{
			ID:          "standard-day",
			Name:        "Standard Day",
			Description: "Morning and afternoon consultations with a lunch break",
			IsDefault:   true,
			TimeSlots: []types.SlotDefinition{
				{StartTime: "09:00", EndTime: "09:30", Status: types.SlotAvailable, AppointmentType: types.TypeConsultation},
				{StartTime: "09:30", EndTime: "10:00", Status: types.SlotAvailable, AppointmentType: types.TypeConsultation},
				{StartTime: "10:00", EndTime: "10:30", Status: types.SlotAvailable, AppointmentType: types.TypeConsultation},
				{StartTime: "10:30", EndTime: "11:00", Status: types.SlotAvailable, AppointmentType: types.TypeFollowUp},
				{StartTime: "11:00", EndTime: "11:30", Status: types.SlotAvailable, AppointmentType: types.TypeFollowUp},
				{StartTime: "11:30", EndTime: "12:00", Status: types.SlotAvailable, AppointmentType: types.TypeFollowUp},
				{StartTime: "12:00", EndTime: "13:00", Status: types.SlotBreak, Notes: "Lunch"},
				{StartTime: "13:00", EndTime: "13:30", Status: types.SlotAvailable, AppointmentType: types.TypeConsultation},
				{StartTime: "13:30", EndTime: "14:00", Status: types.SlotAvailable, AppointmentType: types.TypeConsultation},
				{StartTime: "14:00", EndTime: "14:30", Status: types.SlotAvailable, AppointmentType: types.TypeConsultation},
				{StartTime: "14:30", EndTime: "15:00", Status: types.SlotAvailable, AppointmentType: types.TypeFollowUp},
				{StartTime: "15:00", EndTime: "15:30", Status: types.SlotAvailable, AppointmentType: types.TypeFollowUp},
				{StartTime: "15:30", EndTime: "16:00", Status: types.SlotAvailable, AppointmentType: types.TypeFollowUp},
			},
		},
		{
			ID:          "half-day",
			Name:        "Half Day",
			Description: "Morning clinic only",
			TimeSlots: []types.SlotDefinition{
				{StartTime: "09:00", EndTime: "09:30", Status: types.SlotAvailable, AppointmentType: types.TypeConsultation},
				{StartTime: "09:30", EndTime: "10:00", Status: types.SlotAvailable, AppointmentType: types.TypeConsultation},
				{StartTime: "10:00", EndTime: "10:30", Status: types.SlotAvailable, AppointmentType: types.TypeConsultation},
				{StartTime: "10:30", EndTime: "11:00", Status: types.SlotAvailable, AppointmentType: types.TypeFollowUp},
				{StartTime: "11:00", EndTime: "11:30", Status: types.SlotAvailable, AppointmentType: types.TypeFollowUp},
				{StartTime: "11:30", EndTime: "12:00", Status: types.SlotAvailable, AppointmentType: types.TypeFollowUp},
			},
		},
		{
			ID:          "surgery-day",
			Name:        "Surgery Day",
			Description: "Procedures in the morning, post-op follow ups in the afternoon",
			TimeSlots: []types.SlotDefinition{
				{StartTime: "08:00", EndTime: "10:00", Status: types.SlotBlocked, AppointmentType: types.TypeProcedure, Notes: "Operating room"},
				{StartTime: "10:00", EndTime: "12:00", Status: types.SlotBlocked, AppointmentType: types.TypeProcedure, Notes: "Operating room"},
				{StartTime: "12:00", EndTime: "13:00", Status: types.SlotBreak},
				{StartTime: "13:00", EndTime: "13:30", Status: types.SlotAvailable, AppointmentType: types.TypeFollowUp},
				{StartTime: "13:30", EndTime: "14:00", Status: types.SlotAvailable, AppointmentType: types.TypeFollowUp},
				{StartTime: "14:00", EndTime: "14:30", Status: types.SlotTentative, AppointmentType: types.TypeEmergency, Notes: "Held for urgent cases"},
			},
		},
		{
			ID:          "telehealth-evening",
			Name:        "Telehealth Evening",
			Description: "Video visits after clinic hours",
			TimeSlots: []types.SlotDefinition{
				{StartTime: "17:00", EndTime: "17:20", Status: types.SlotAvailable, AppointmentType: types.TypeTelehealth},
				{StartTime: "17:20", EndTime: "17:40", Status: types.SlotAvailable, AppointmentType: types.TypeTelehealth},
				{StartTime: "17:40", EndTime: "18:00", Status: types.SlotAvailable, AppointmentType: types.TypeTelehealth},
				{StartTime: "18:00", EndTime: "18:20", Status: types.SlotAvailable, AppointmentType: types.TypeTelehealth},
				{StartTime: "18:20", EndTime: "18:40", Status: types.SlotAvailable, AppointmentType: types.TypeTelehealth},
			},
		},
	}
}

// FindTemplate looks a template up by id or display name
func FindTemplate(catalog []types.AvailabilityTemplate, key string) (types.AvailabilityTemplate, bool) {
	for _, t := range catalog {
		if t.ID == key || t.Name == key {
			return t, true
		}
	}
	return types.AvailabilityTemplate{}, false
}

// DefaultTemplate returns the catalog entry marked default
func DefaultTemplate(catalog []types.AvailabilityTemplate) (types.AvailabilityTemplate, bool) {
	for _, t := range catalog {
		if t.IsDefault {
			return t, true
		}
	}
	return types.AvailabilityTemplate{}, false
}

// ValidateCatalog checks that at most one template is marked default and
// that every slot definition is well formed
func ValidateCatalog(catalog []types.AvailabilityTemplate) error {
	var defaults []string
	for _, t := range catalog {
		if t.IsDefault {
			defaults = append(defaults, t.Name)
		}
		for i, def := range t.TimeSlots {
			if _, err := buildSlot(def, false); err != nil {
				return fmt.Errorf("template %q slot %d: %w", t.Name, i, err)
			}
		}
	}
	if len(defaults) > 1 {
		return types.NewValidationError(types.ErrCodeValidationFailed,
			"at most one template may be marked default", map[string]interface{}{"defaults": defaults})
	}
	return nil
}
