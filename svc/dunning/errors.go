package dunning

import "errors"

var (
	ErrFailedToListSubscriptions = errors.New("dunning.errors.failed_to_list_subscriptions")
	ErrReminderFailed            = errors.New("dunning.errors.reminder_failed")
	ErrSuspensionNoticeFailed    = errors.New("dunning.errors.suspension_notice_failed")
)
