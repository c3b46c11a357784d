package notify

import (
	"context"

	"github.com/google/uuid"
)

// Event types understood by the notification collaborator.
const (
	EventPaymentFailedReminder = "payment_failed_reminder"
	EventSubscriptionSuspended = "subscription_suspended"
	EventSubscriptionCancelled = "subscription_cancelled"
	EventSubscriptionActivated = "subscription_activated"
	EventPaymentReceived       = "payment_received"
)

// Reminder stages of the dunning cycle.
const (
	StageFirst  = "first"
	StageSecond = "second"
	StageFinal  = "final"
)

// Notification is a request to inform a user about a billing event.
type Notification struct {
	UserID    uuid.UUID      `json:"userId"`
	EventType string         `json:"eventType"`
	Data      map[string]any `json:"data"`
}

// Dispatcher delivers notifications.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, n Notification) error

func (f DispatcherFunc) Dispatch(ctx context.Context, n Notification) error { return f(ctx, n) }

// Nop discards every notification.
var Nop Dispatcher = DispatcherFunc(func(context.Context, Notification) error { return nil })
