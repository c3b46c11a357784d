package schedule

import "errors"

var (
	ErrInvalidSchedule      = errors.New("invalid schedule")
	ErrJobAlreadyRegistered = errors.New("job already registered")
	ErrNoJobs               = errors.New("runner has no jobs")
	ErrNilJob               = errors.New("job function is nil")
)
