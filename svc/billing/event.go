package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType is the provider-independent kind of a webhook event.
type EventType string

const (
	EventSubscriptionActivated EventType = "subscription_activated"
	EventSaleCompleted         EventType = "sale_completed"
	EventPaymentDenied         EventType = "payment_denied"
	EventPaymentFailed         EventType = "payment_failed"
	EventSubscriptionCancelled EventType = "subscription_cancelled"
	EventSubscriptionSuspended EventType = "subscription_suspended"
	EventSubscriptionExpired   EventType = "subscription_expired"
	EventUnknown               EventType = "unknown"
)

// Known reports whether t has a handler.
func (t EventType) Known() bool {
	switch t {
	case EventSubscriptionActivated, EventSaleCompleted, EventPaymentDenied, EventPaymentFailed,
		EventSubscriptionCancelled, EventSubscriptionSuspended, EventSubscriptionExpired:
		return true
	}
	return false
}

// Event is a normalized webhook event. Which fields are set depends on Type:
// activation carries PlanID and the period, sales carry the payment fields.
type Event struct {
	ID             string          `json:"id"`
	Provider       string          `json:"provider"`
	Type           EventType       `json:"type"`
	ProviderEvent  string          `json:"provider_event"`
	SubscriptionID string          `json:"subscription_id,omitempty"` // provider subscription id
	UserID         uuid.UUID       `json:"user_id,omitempty"`
	PlanID         string          `json:"plan_id,omitempty"`
	PeriodStart    time.Time       `json:"period_start,omitzero"`
	PeriodEnd      time.Time       `json:"period_end,omitzero"`
	PaymentID      string          `json:"payment_id,omitempty"`
	Amount         decimal.Decimal `json:"amount,omitzero"`
	Currency       string          `json:"currency,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at,omitzero"`

	// DecodeErr is set when the provider delivered the item but it could not
	// be normalized. Such events are reported as failed and never applied.
	DecodeErr error `json:"-"`
}

// Key identifies the event for de-duplication.
func (e Event) Key() string {
	if e.ID == "" {
		return ""
	}
	return e.Provider + ":" + e.ID
}
