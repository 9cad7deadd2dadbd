package availability

import (
	"context"
	"fmt"
	"sort"

	"github.com/healthfirst/portal/internal/fixtures"
	"github.com/healthfirst/portal/pkg/types"
)

// AvailabilityFetcher is the part of the gateway the model refreshes from
type AvailabilityFetcher interface {
	FetchAvailability(ctx context.Context, providerID string, r types.DateRange) (types.Result[*types.AvailabilityPayload], error)
}

// RefreshResult describes how a refresh was satisfied
type RefreshResult struct {
	// Ignored lists payload keys that are not weekdays or whose merged
	// window was rejected
	Ignored []string
	// Fallback is set when the built-in schedule was used
	Fallback bool
	// Warning is the non-fatal cause to show alongside fallback data
	Warning error
}

// HydrateFromRemote merges a fetched payload into the model.
//
// Weekly rows merge per day: a known weekday updates the matching row,
// keeping prior times where the payload leaves them empty; a weekday not in
// the template is added when marked available. Keys that are not weekdays,
// and rows whose merged window does not end after it starts, leave the
// template unchanged and are returned. Block days are replaced wholesale when the
// payload carries any, with fresh ids and 09:00-18:00 for missing times.
func (m *Model) HydrateFromRemote(p *types.AvailabilityPayload) []string {
	if p == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var ignored []string
	for key, window := range p.Availability {
		label, ok := canonicalDay(key)
		if !ok || !m.mergeDayLocked(label, window) {
			ignored = append(ignored, key)
		}
	}
	sort.Strings(ignored)

	if len(p.BlockDays) > 0 {
		blockDays := make([]types.BlockDay, 0, len(p.BlockDays))
		for _, b := range p.BlockDays {
			bd := types.BlockDay{
				ID:       m.newID(),
				Date:     b.Date,
				FromTime: b.FromTime,
				TillTime: b.TillTime,
				Reason:   b.Reason,
			}
			if !validClock(bd.FromTime) {
				bd.FromTime = defaultFromTime
			}
			if !validClock(bd.TillTime) {
				bd.TillTime = defaultTillTime
			}
			blockDays = append(blockDays, bd)
		}
		m.blockDays = blockDays
	}

	if len(ignored) > 0 && m.logger != nil {
		m.logger.WithField("ignored_keys", ignored).Warn("Availability payload contained unknown weekdays or invalid windows")
	}
	return ignored
}

func validClock(s string) bool {
	_, err := parseClock(s)
	return err == nil
}

// mergeDayLocked applies one payload row. It reports false, leaving the
// template unchanged, when the merged window does not end after it starts.
func (m *Model) mergeDayLocked(label string, window types.DayWindow) bool {
	for i := range m.weekly {
		if m.weekly[i].Day != label {
			continue
		}
		from, till := m.weekly[i].FromTime, m.weekly[i].TillTime
		if validClock(window.FromTime) {
			from = window.FromTime
		}
		if validClock(window.TillTime) {
			till = window.TillTime
		}
		if ValidateWindow(from, till) != nil {
			return false
		}
		m.weekly[i].FromTime, m.weekly[i].TillTime = from, till
		return true
	}

	if !window.IsAvailable {
		return true
	}
	from, till := window.FromTime, window.TillTime
	if !validClock(from) {
		from = defaultFromTime
	}
	if !validClock(till) {
		till = defaultTillTime
	}
	if ValidateWindow(from, till) != nil {
		return false
	}
	m.setDayLocked(label, from, till)
	return true
}

// Refresh fetches the provider's availability and hydrates the model.
// When the backend is unreachable the built-in schedule is hydrated instead
// and the cause is returned as a warning. Any other error leaves the model
// untouched.
func (m *Model) Refresh(ctx context.Context, gw AvailabilityFetcher, providerID string, r types.DateRange) (RefreshResult, error) {
	var (
		payload *types.AvailabilityPayload
		result  RefreshResult
	)

	res, err := gw.FetchAvailability(ctx, providerID, r)
	switch {
	case err == nil:
		payload = res.Value
		result.Fallback = res.Fallback
		result.Warning = res.Warning
	case types.IsType(err, types.ErrorTypeNetworkUnavailable):
		payload = fixtures.Availability(providerID, r)
		result.Fallback = true
		result.Warning = err
	default:
		return RefreshResult{}, fmt.Errorf("failed to fetch availability: %w", err)
	}

	if payload == nil {
		return RefreshResult{}, types.NewServerError(0, "Availability response was empty.", nil)
	}

	result.Ignored = m.HydrateFromRemote(payload)

	if result.Fallback && m.logger != nil {
		m.logger.WithProvider(providerID).WithError(result.Warning).Warn("Using built-in availability schedule")
	}
	return result, nil
}
