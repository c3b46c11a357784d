// Package email sends transactional emails through a provider-agnostic
// EmailSender interface.
//
// Implementations:
//   - NewPostmarkClient delivers through Postmark with open and link tracking.
//   - NewDevSender writes each message to disk as HTML plus JSON metadata.
//
// Every implementation validates SendEmailParams before doing any work, so
// callers can rely on ErrInvalidParams for malformed input:
//
//	sender, err := email.NewPostmarkClient(cfg)
//	if err != nil {
//		return err
//	}
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//		SendTo:   "user@example.com",
//		Subject:  "Payment failed",
//		BodyHTML: html,
//		Tag:      "payment_failed_reminder",
//	})
//
// Use New to pick an implementation from configuration: Postmark when a
// server token is set, the disk sender otherwise.
package email
