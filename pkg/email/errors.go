package email

import "errors"

var (
	ErrFailedToSendEmail = errors.New("email: failed to send email")
	ErrInvalidConfig     = errors.New("email: invalid config")
	ErrInvalidParams     = errors.New("email: invalid params")
	// ErrRecipientRejected marks addresses the provider will not deliver to.
	ErrRecipientRejected = errors.New("email: recipient rejected")
)
