package billing

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("billing.errors.subscription_not_found")
	ErrMissingUserID        = errors.New("billing.errors.missing_user_id")
	ErrUnknownEventType     = errors.New("billing.errors.unknown_event_type")
	ErrUnknownStatus        = errors.New("billing.errors.unknown_status")
	ErrDuplicateEvent       = errors.New("billing.errors.duplicate_event")
	ErrDuplicatePayment     = errors.New("billing.errors.duplicate_payment")
	ErrInvalidTransition    = errors.New("billing.errors.invalid_transition")
	ErrInvalidSignature     = errors.New("billing.errors.invalid_signature")
	ErrInvalidPayload       = errors.New("billing.errors.invalid_payload")
	ErrPayloadTooLarge      = errors.New("billing.errors.payload_too_large")
	ErrProviderDisabled     = errors.New("billing.errors.provider_disabled")
	ErrGracePeriodActive    = errors.New("billing.errors.grace_period_active")
	ErrConcurrentUpdate     = errors.New("billing.errors.concurrent_update")
)
