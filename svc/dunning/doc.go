// Package dunning runs the reminder and suspension pass over past_due
// subscriptions.
//
// Each pass handles every past_due subscription on its own. A subscription
// without a grace period gets one and nothing else happens to it in that
// pass. One whose grace period has elapsed is suspended. Otherwise a staged
// reminder may go out:
//
//	dunning_count 0  first reminder, always
//	dunning_count 1  second reminder, once SecondReminderAfter passed since the last one
//	dunning_count 2  final reminder, once at most FinalReminderWindow remains
//	dunning_count 3+ nothing
//
// Failures are counted in the Summary and never stop the pass. A failed
// reminder leaves the subscription untouched so the next pass retries it.
package dunning
