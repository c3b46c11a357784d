package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/qalam-studio/qalam/pkg/email"
	"github.com/qalam-studio/qalam/pkg/email/templates"
	"github.com/qalam-studio/qalam/svc/notify/emails"
)

// RecipientResolver looks up the email address of a user.
type RecipientResolver interface {
	Email(ctx context.Context, userID uuid.UUID) (string, error)
}

// composer builds the email of one event type from the notification data.
type composer func(appURL string, data map[string]any) emails.Message

var composers = map[string]composer{
	EventPaymentFailedReminder: func(appURL string, d map[string]any) emails.Message {
		return emails.PaymentFailedReminder(appURL, emails.Reminder{
			Final:          field(d, "stage") == StageFinal,
			GracePeriodEnd: field(d, "grace_period_end"),
			DaysRemaining:  field(d, "days_remaining"),
		})
	},
	EventSubscriptionSuspended: func(appURL string, d map[string]any) emails.Message {
		return emails.SubscriptionSuspended(appURL, emails.Suspension{GracePeriodEnd: field(d, "grace_period_end")})
	},
	EventSubscriptionCancelled: func(appURL string, d map[string]any) emails.Message {
		return emails.SubscriptionEnded(appURL, emails.Ending{
			Status:           field(d, "status"),
			EffectiveEndDate: field(d, "effective_end_date"),
		})
	},
	EventSubscriptionActivated: func(appURL string, d map[string]any) emails.Message {
		return emails.SubscriptionActivated(appURL, emails.Activation{
			PlanName:         field(d, "plan_name"),
			CurrentPeriodEnd: field(d, "current_period_end"),
		})
	},
	EventPaymentReceived: func(appURL string, d map[string]any) emails.Message {
		return emails.PaymentReceived(appURL, emails.Payment{
			Amount:   field(d, "amount"),
			Currency: field(d, "currency"),
		})
	},
}

func field(data map[string]any, key string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// EmailDispatcher renders the email of an event type and sends it.
type EmailDispatcher struct {
	sender     email.EmailSender
	recipients RecipientResolver
	appURL     string
}

func NewEmailDispatcher(sender email.EmailSender, recipients RecipientResolver, appURL string) (*EmailDispatcher, error) {
	if sender == nil || recipients == nil {
		return nil, fmt.Errorf("%w: email sender and recipient resolver are required", ErrInvalidConfig)
	}
	return &EmailDispatcher{
		sender:     sender,
		recipients: recipients,
		appURL:     strings.TrimRight(appURL, "/"),
	}, nil
}

// Dispatch renders and sends n.
func (d *EmailDispatcher) Dispatch(ctx context.Context, n Notification) error {
	if n.UserID == uuid.Nil {
		return ErrMissingUserID
	}
	compose, ok := composers[n.EventType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEventType, n.EventType)
	}

	to, err := d.recipients.Email(ctx, n.UserID)
	if err != nil {
		return errors.Join(ErrRecipientNotFound, err)
	}

	msg := compose(d.appURL, n.Data)
	body, err := templates.Render(ctx, msg.Body)
	if err != nil {
		return fmt.Errorf("render %s email: %w", n.EventType, err)
	}

	if err := d.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   to,
		Subject:  msg.Subject,
		BodyHTML: body,
		Tag:      n.EventType,
		Metadata: map[string]string{"user_id": n.UserID.String(), "event_type": n.EventType},
	}); err != nil {
		return errors.Join(ErrDispatchFailed, err)
	}
	return nil
}
