package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/qalam-studio/qalam/svc/plans"
)

// SubscriptionReader is the read side of Store.
type SubscriptionReader interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (Subscription, error)
}

// Store persists subscriptions and payments. Lookups return
// ErrSubscriptionNotFound when nothing matches.
type Store interface {
	SubscriptionReader
	GetByProviderID(ctx context.Context, providerSubID string) (Subscription, error)
	// Upsert inserts or replaces the subscription of sub.UserID, keeping the
	// existing row id. It returns the stored row. Replacing a row whose
	// version differs from sub.Version returns ErrConcurrentUpdate.
	Upsert(ctx context.Context, sub Subscription) (Subscription, error)
	// Update writes sub only while the stored version equals sub.Version
	// and bumps the stored version by one. A stale write returns
	// ErrConcurrentUpdate.
	Update(ctx context.Context, sub Subscription) error
	ListPastDue(ctx context.Context) ([]Subscription, error)
	// InsertPayment returns ErrDuplicatePayment for a known provider payment id.
	InsertPayment(ctx context.Context, p Payment) error
}

// ProfileStore keeps the denormalized subscription tier on user profiles.
type ProfileStore interface {
	SetSubscriptionTier(ctx context.Context, userID uuid.UUID, tier string) error
}

// PlanCatalog is the subset of plans.Catalog used by billing.
type PlanCatalog interface {
	ResolveProviderPlan(id string) (plans.Plan, plans.BillingPeriod, error)
	Get(slug string) (plans.Plan, error)
}

// EntitledPlanSlug builds the catalog resolver: the subscription's plan slug
// while it is entitled at now(), "" otherwise.
func EntitledPlanSlug(store SubscriptionReader, now func() time.Time) plans.SlugResolver {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context, userID uuid.UUID) (string, error) {
		sub, err := store.GetByUserID(ctx, userID)
		if errors.Is(err, ErrSubscriptionNotFound) {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		if !sub.EntitledAt(now()) {
			return "", nil
		}
		return sub.PlanSlug, nil
	}
}
