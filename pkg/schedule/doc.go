// Package schedule runs periodic in-process jobs.
//
// A Schedule computes the next run time from a reference time. Parse accepts
// the compact forms used in configuration:
//
//	off            never runs
//	every@15m      fixed interval (any time.ParseDuration value)
//	hourly@05      every hour at minute 05
//	daily@09:30    every day at 09:30 in the runner location
//
// Runner executes registered jobs on their schedules until the context is
// cancelled. A failing or panicking job is logged and does not stop the
// runner or other jobs.
package schedule
