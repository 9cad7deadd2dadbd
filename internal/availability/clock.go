package availability

import (
	"fmt"
	"time"

	"github.com/healthfirst/portal/pkg/types"
)

// parseClock converts a zero-padded HH:MM string into minutes after midnight
func parseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("time %q must be HH:MM", s)
	}
	t, err := time.Parse(types.ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("time %q must be HH:MM: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// formatClock renders minutes after midnight as HH:MM
func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// parseDate parses a YYYY-MM-DD calendar date in UTC
func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(types.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be YYYY-MM-DD: %w", s, err)
	}
	return d, nil
}

// dateOnly truncates t to its calendar date in UTC, keeping the wall date
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func formatDate(t time.Time) string {
	return t.Format(types.DateLayout)
}
