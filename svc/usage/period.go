package usage

import "time"

// PeriodStart returns the first instant of the calendar month containing t,
// evaluated in loc.
func PeriodStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
}

// PeriodBounds returns [start, end) of the month beginning at start.
func PeriodBounds(start time.Time) (time.Time, time.Time) {
	return start, start.AddDate(0, 1, 0)
}
