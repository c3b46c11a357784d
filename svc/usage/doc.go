// Package usage aggregates per-period project and AI token consumption and
// checks it against the user's effective plan.
//
// The period is the calendar month in the configured billing time zone,
// from the 1st at 00:00 up to (not including) the next month's 1st. There is
// no rolling 30-day window.
package usage
