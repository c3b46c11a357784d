package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/qalam-studio/qalam/svc/plans"
)

// Subscription is the billing relationship of one user.
type Subscription struct {
	ID                     uuid.UUID           `json:"id"`
	UserID                 uuid.UUID           `json:"user_id"`
	PlanSlug               string              `json:"plan"`
	Status                 Status              `json:"status"`
	BillingPeriod          plans.BillingPeriod `json:"billing_period"`
	CurrentPeriodStart     time.Time           `json:"current_period_start"`
	CurrentPeriodEnd       time.Time           `json:"current_period_end"`
	ProviderSubID          string              `json:"provider_subscription_id"`
	GracePeriodEnd         *time.Time          `json:"grace_period_end,omitempty"`
	DunningCount           int                 `json:"dunning_count"`
	LastDunningEmail       *time.Time          `json:"last_dunning_email,omitempty"`
	CancelAtPeriodEnd      bool                `json:"cancel_at_period_end"`
	ProjectsUsedThisPeriod int                 `json:"projects_used_this_period"`
	CreatedAt              time.Time           `json:"created_at"`
	UpdatedAt              time.Time           `json:"updated_at"`

	// Version is bumped by every store write. A write carrying a stale
	// version fails with ErrConcurrentUpdate.
	Version int `json:"-"`
}

// GraceExpired reports whether the grace period ended before now.
func (s Subscription) GraceExpired(now time.Time) bool {
	return s.GracePeriodEnd != nil && now.After(*s.GracePeriodEnd)
}

// EntitledAt reports whether the subscription grants its plan at now.
// A past_due subscription whose grace period elapsed is no longer entitled,
// even before the dunning pass suspends it.
func (s Subscription) EntitledAt(now time.Time) bool {
	if !s.Status.Entitled() {
		return false
	}
	return !(s.Status == StatusPastDue && s.GraceExpired(now))
}

// Tier is the denormalized plan slug stored on the user profile.
func (s Subscription) Tier() string {
	if s.Status.Entitled() && s.PlanSlug != "" {
		return s.PlanSlug
	}
	return plans.FreeSlug
}

// Payment is a settled charge.
type Payment struct {
	ID                uuid.UUID       `json:"id"`
	UserID            uuid.UUID       `json:"user_id"`
	SubscriptionID    uuid.UUID       `json:"subscription_id"`
	ProviderPaymentID string          `json:"provider_payment_id"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	CreatedAt         time.Time       `json:"created_at"`
}
