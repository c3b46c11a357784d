package billing

import "fmt"

// Status is the stored lifecycle state of a subscription.
type Status string

const (
	StatusActive    Status = "active"
	StatusPastDue   Status = "past_due"
	StatusSuspended Status = "suspended"
	StatusCanceled  Status = "canceled"
	StatusExpired   Status = "expired"
)

// ParseStatus rejects anything outside the closed set.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusActive, StatusPastDue, StatusSuspended, StatusCanceled, StatusExpired:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// Entitled reports whether the status keeps the paid plan. past_due keeps
// it during the grace period.
func (s Status) Entitled() bool {
	switch s {
	case StatusActive, StatusPastDue:
		return true
	case StatusSuspended, StatusCanceled, StatusExpired:
		return false
	default:
		return false
	}
}

// Terminal reports whether the status ends the current cycle. Only a new
// activation leaves a terminal status.
func (s Status) Terminal() bool {
	return s == StatusSuspended || s == StatusCanceled || s == StatusExpired
}
