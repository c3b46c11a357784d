package notify

import "errors"

var (
	ErrDispatchFailed    = errors.New("notify.errors.dispatch_failed")
	ErrPermanentFailure  = errors.New("notify.errors.permanent_failure")
	ErrInvalidConfig     = errors.New("notify.errors.invalid_config")
	ErrUnknownEventType  = errors.New("notify.errors.unknown_event_type")
	ErrRecipientNotFound = errors.New("notify.errors.recipient_not_found")
	ErrMissingUserID     = errors.New("notify.errors.missing_user_id")
)
