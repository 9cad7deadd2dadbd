package types

// Result wraps a gateway response. When the backend could not be reached
// and an offline fixture was served instead, Fallback is set and Warning
// carries the NetworkUnavailable error to surface as a non-fatal banner.
type Result[T any] struct {
	Value    T
	Fallback bool
	Warning  error
}

// AvailabilityUpdateRequest is the body of PUT /api/v1/provider/{id}/availability
type AvailabilityUpdateRequest struct {
	Availability map[string]DayWindow `json:"availability"`
	BlockDays    []BlockDayPayload    `json:"block_days"`
}
