package ledger

import "time"

// Calendar helpers for the booking service. Pure functions: no store
// access, no clock access beyond the caller-supplied "today".

// ParseDate parses a calendar date in YYYY-MM-DD form.
// Any other shape yields ErrInvalidDateFormat.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return t, nil
}

// SpanDays returns the inclusive day count between start and end:
// (end - start) + 1. A single-day booking spans 1 day.
// Returns ErrInvalidRange when end is before start.
func SpanDays(start, end time.Time) (int, error) {
	if end.Before(start) {
		return 0, ErrInvalidRange
	}
	return int(end.Sub(start).Hours()/24) + 1, nil
}

// ValidateNotPast rejects a range when either date is strictly before
// today. Both boundaries are compared at day granularity in the
// caller's clock.
func ValidateNotPast(start, end, today time.Time) error {
	day := DateOnly(today)
	if start.Before(day) || end.Before(day) {
		return ErrPastDate
	}
	return nil
}

// DateOnly drops the time-of-day component, keeping the calendar date.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
