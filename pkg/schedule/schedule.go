package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule determines when a periodic job should run next.
// A zero time means never.
type Schedule interface {
	Next(from time.Time) time.Time
	String() string
}

type intervalSchedule struct {
	every time.Duration
}

func (s intervalSchedule) Next(from time.Time) time.Time {
	return from.Add(s.every)
}

func (s intervalSchedule) String() string {
	return "every@" + s.every.String()
}

type hourlySchedule struct {
	minute int
}

func (s hourlySchedule) Next(from time.Time) time.Time {
	next := time.Date(from.Year(), from.Month(), from.Day(), from.Hour(), s.minute, 0, 0, from.Location())
	if !next.After(from) {
		next = next.Add(time.Hour)
	}
	return next
}

func (s hourlySchedule) String() string {
	return fmt.Sprintf("hourly@%02d", s.minute)
}

type dailySchedule struct {
	hour   int
	minute int
}

func (s dailySchedule) Next(from time.Time) time.Time {
	next := time.Date(from.Year(), from.Month(), from.Day(), s.hour, s.minute, 0, 0, from.Location())
	if !next.After(from) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s dailySchedule) String() string {
	return fmt.Sprintf("daily@%02d:%02d", s.hour, s.minute)
}

type never struct{}

func (never) Next(time.Time) time.Time { return time.Time{} }
func (never) String() string           { return "off" }

// Every runs at fixed intervals.
func Every(d time.Duration) Schedule {
	return intervalSchedule{every: d}
}

// HourlyAt runs every hour at the given minute.
func HourlyAt(minute int) Schedule {
	return hourlySchedule{minute: minute}
}

// DailyAt runs once a day at hour:minute in the location of the reference time.
func DailyAt(hour, minute int) Schedule {
	return dailySchedule{hour: hour, minute: minute}
}

// Never returns a schedule that never fires.
func Never() Schedule {
	return never{}
}

// Parse reads a schedule expression such as "daily@09:00", "hourly@15",
// "every@1h" or "off".
func Parse(expr string) (Schedule, error) {
	expr = strings.TrimSpace(strings.ToLower(expr))
	if expr == "" || expr == "off" {
		return Never(), nil
	}

	kind, arg, ok := strings.Cut(expr, "@")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSchedule, expr)
	}

	switch kind {
	case "every":
		d, err := time.ParseDuration(arg)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%w: bad interval %q", ErrInvalidSchedule, arg)
		}
		return Every(d), nil
	case "hourly":
		m, err := strconv.Atoi(arg)
		if err != nil || m < 0 || m > 59 {
			return nil, fmt.Errorf("%w: bad minute %q", ErrInvalidSchedule, arg)
		}
		return HourlyAt(m), nil
	case "daily":
		t, err := time.Parse("15:04", arg)
		if err != nil {
			return nil, fmt.Errorf("%w: bad time of day %q", ErrInvalidSchedule, arg)
		}
		return DailyAt(t.Hour(), t.Minute()), nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidSchedule, kind)
	}
}
