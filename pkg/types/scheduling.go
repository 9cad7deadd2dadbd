package types

import "time"

// DateLayout is the calendar date format used on the wire and in slot dates
const DateLayout = "2006-01-02"

// ClockLayout is the zero-padded wall clock format used for slot times
const ClockLayout = "15:04"

// SlotStatus represents the booking state of a time slot
type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
	SlotBlocked   SlotStatus = "blocked"
	SlotTentative SlotStatus = "tentative"
	SlotBreak     SlotStatus = "break"
)

// Valid reports whether the status is one of the known slot states
func (s SlotStatus) Valid() bool {
	switch s {
	case SlotAvailable, SlotBooked, SlotBlocked, SlotTentative, SlotBreak:
		return true
	}
	return false
}

// RecurrencePattern represents how a recurring slot repeats
type RecurrencePattern string

const (
	RecurrenceWeekly   RecurrencePattern = "weekly"
	RecurrenceBiweekly RecurrencePattern = "biweekly"
	RecurrenceMonthly  RecurrencePattern = "monthly"
)

// Valid reports whether the pattern is one of the known recurrence patterns
func (p RecurrencePattern) Valid() bool {
	switch p {
	case RecurrenceWeekly, RecurrenceBiweekly, RecurrenceMonthly:
		return true
	}
	return false
}

// AppointmentType labels what a slot is intended for
type AppointmentType string

const (
	TypeConsultation AppointmentType = "consultation"
	TypeFollowUp     AppointmentType = "follow_up"
	TypeProcedure    AppointmentType = "procedure"
	TypeEmergency    AppointmentType = "emergency"
	TypeTelehealth   AppointmentType = "telehealth"
)

// TimeSlot represents a discrete bookable time window for a provider.
// Date is YYYY-MM-DD; StartTime and EndTime are zero-padded HH:MM.
type TimeSlot struct {
	ID                string            `json:"id"`
	Date              string            `json:"date"`
	StartTime         string            `json:"start_time"`
	EndTime           string            `json:"end_time"`
	Duration          int               `json:"duration"`
	Status            SlotStatus        `json:"status"`
	AppointmentType   AppointmentType   `json:"appointment_type,omitempty"`
	PatientName       string            `json:"patient_name,omitempty"`
	Notes             string            `json:"notes,omitempty"`
	IsRecurring       bool              `json:"is_recurring,omitempty"`
	RecurrencePattern RecurrencePattern `json:"recurrence_pattern,omitempty"`
}

// SlotDefinition describes a slot without identity or date; used by
// AddSlot and by availability templates
type SlotDefinition struct {
	Date              string            `json:"date,omitempty"`
	StartTime         string            `json:"start_time"`
	EndTime           string            `json:"end_time"`
	Duration          int               `json:"duration,omitempty"`
	Status            SlotStatus        `json:"status"`
	AppointmentType   AppointmentType   `json:"appointment_type,omitempty"`
	PatientName       string            `json:"patient_name,omitempty"`
	Notes             string            `json:"notes,omitempty"`
	IsRecurring       bool              `json:"is_recurring,omitempty"`
	RecurrencePattern RecurrencePattern `json:"recurrence_pattern,omitempty"`
}

// SlotUpdate represents a partial update to a time slot
type SlotUpdate struct {
	Date              *string            `json:"date,omitempty"`
	StartTime         *string            `json:"start_time,omitempty"`
	EndTime           *string            `json:"end_time,omitempty"`
	Duration          *int               `json:"duration,omitempty"`
	Status            *SlotStatus        `json:"status,omitempty"`
	AppointmentType   *AppointmentType   `json:"appointment_type,omitempty"`
	PatientName       *string            `json:"patient_name,omitempty"`
	Notes             *string            `json:"notes,omitempty"`
	IsRecurring       *bool              `json:"is_recurring,omitempty"`
	RecurrencePattern *RecurrencePattern `json:"recurrence_pattern,omitempty"`
}

// DayAvailability is one row of the weekly recurring template
type DayAvailability struct {
	ID       string `json:"id"`
	Day      string `json:"day"`
	FromTime string `json:"from_time"`
	TillTime string `json:"till_time"`
}

// BlockDay is a date or window on which the provider is unavailable.
// Date is empty until one is chosen.
type BlockDay struct {
	ID       string `json:"id"`
	Date     string `json:"date,omitempty"`
	FromTime string `json:"from_time"`
	TillTime string `json:"till_time"`
	Reason   string `json:"reason,omitempty"`
}

// AvailabilityTemplate is a named, reusable set of slot definitions
type AvailabilityTemplate struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	TimeSlots   []SlotDefinition `json:"time_slots"`
	IsDefault   bool             `json:"is_default"`
}

// ProviderStats is derived from the current slot set
type ProviderStats struct {
	TotalSlots      int     `json:"total_slots"`
	AvailableSlots  int     `json:"available_slots"`
	BookedSlots     int     `json:"booked_slots"`
	BlockedSlots    int     `json:"blocked_slots"`
	TentativeSlots  int     `json:"tentative_slots"`
	BreakSlots      int     `json:"break_slots"`
	UtilizationRate float64 `json:"utilization_rate"`
}

// DateRange is an inclusive range of calendar dates
type DateRange struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// DayWindow is the wire form of one weekday in the availability payload
type DayWindow struct {
	FromTime    string `json:"from_time"`
	TillTime    string `json:"till_time"`
	IsAvailable bool   `json:"is_available"`
}

// BlockDayPayload is the wire form of a block day
type BlockDayPayload struct {
	Date     string `json:"date"`
	FromTime string `json:"from_time"`
	TillTime string `json:"till_time"`
	Reason   string `json:"reason,omitempty"`
}

// AvailabilityPayload is the response of the provider availability endpoint
type AvailabilityPayload struct {
	ProviderID   string               `json:"provider_id"`
	StartDate    string               `json:"start_date"`
	EndDate      string               `json:"end_date"`
	Availability map[string]DayWindow `json:"availability"`
	BlockDays    []BlockDayPayload    `json:"block_days"`
}
