package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/qalam-studio/qalam/pkg/pg"
	"github.com/qalam-studio/qalam/svc/billing"
	"github.com/qalam-studio/qalam/svc/plans"
)

// Subscriptions implements billing.Store.
type Subscriptions struct {
	base
}

const subscriptionColumns = `id, user_id, plan_slug, status, billing_period,
	current_period_start, current_period_end, provider_subscription_id,
	grace_period_end, dunning_count, last_dunning_email, cancel_at_period_end,
	projects_used_this_period, created_at, updated_at, version`

func scanSubscription(row pgx.Row) (billing.Subscription, error) {
	var (
		sub         billing.Subscription
		status      string
		period      string
		providerSub *string
	)
	err := row.Scan(
		&sub.ID, &sub.UserID, &sub.PlanSlug, &status, &period,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &providerSub,
		&sub.GracePeriodEnd, &sub.DunningCount, &sub.LastDunningEmail, &sub.CancelAtPeriodEnd,
		&sub.ProjectsUsedThisPeriod, &sub.CreatedAt, &sub.UpdatedAt, &sub.Version,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return billing.Subscription{}, billing.ErrSubscriptionNotFound
		}
		return billing.Subscription{}, err
	}

	if sub.Status, err = billing.ParseStatus(status); err != nil {
		return billing.Subscription{}, fmt.Errorf("subscription %s: %w", sub.ID, err)
	}
	sub.BillingPeriod = plans.BillingPeriod(period)
	sub.ProviderSubID = derefString(providerSub)
	return sub, nil
}

func (r *Subscriptions) GetByUserID(ctx context.Context, userID uuid.UUID) (billing.Subscription, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()
	return scanSubscription(r.db.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1`, userID))
}

func (r *Subscriptions) GetByProviderID(ctx context.Context, providerSubID string) (billing.Subscription, error) {
	if providerSubID == "" {
		return billing.Subscription{}, billing.ErrSubscriptionNotFound
	}
	ctx, cancel := r.ctx(ctx)
	defer cancel()
	return scanSubscription(r.db.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE provider_subscription_id = $1
		ORDER BY updated_at DESC LIMIT 1`, providerSubID))
}

// Upsert relies on the unique user_id: a second activation for the same
// user replaces the row in place and keeps its id. The conflict branch only
// fires for the version the caller read, so a stale replace returns no row.
func (r *Subscriptions) Upsert(ctx context.Context, sub billing.Subscription) (billing.Subscription, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	now := time.Now().UTC()
	if sub.UpdatedAt.IsZero() {
		sub.UpdatedAt = now
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = sub.UpdatedAt
	}

	stored, err := scanSubscription(r.db.QueryRow(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (user_id) DO UPDATE SET
			plan_slug = EXCLUDED.plan_slug,
			status = EXCLUDED.status,
			billing_period = EXCLUDED.billing_period,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			provider_subscription_id = EXCLUDED.provider_subscription_id,
			grace_period_end = EXCLUDED.grace_period_end,
			dunning_count = EXCLUDED.dunning_count,
			last_dunning_email = EXCLUDED.last_dunning_email,
			cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			projects_used_this_period = EXCLUDED.projects_used_this_period,
			updated_at = EXCLUDED.updated_at,
			version = subscriptions.version + 1
		WHERE subscriptions.version = EXCLUDED.version
		RETURNING `+subscriptionColumns,
		sub.ID, sub.UserID, sub.PlanSlug, string(sub.Status), string(sub.BillingPeriod),
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, nullString(sub.ProviderSubID),
		sub.GracePeriodEnd, sub.DunningCount, sub.LastDunningEmail, sub.CancelAtPeriodEnd,
		sub.ProjectsUsedThisPeriod, sub.CreatedAt, sub.UpdatedAt, sub.Version,
	))
	if err != nil {
		if errors.Is(err, billing.ErrSubscriptionNotFound) {
			return billing.Subscription{}, billing.ErrConcurrentUpdate
		}
		if pg.IsForeignKeyViolationError(err) {
			return billing.Subscription{}, errors.Join(plans.ErrPlanNotFound, err)
		}
		return billing.Subscription{}, fmt.Errorf("upsert subscription: %w", err)
	}
	return stored, nil
}

func (r *Subscriptions) Update(ctx context.Context, sub billing.Subscription) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	if sub.UpdatedAt.IsZero() {
		sub.UpdatedAt = time.Now().UTC()
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE subscriptions SET
			plan_slug = $2,
			status = $3,
			billing_period = $4,
			current_period_start = $5,
			current_period_end = $6,
			provider_subscription_id = $7,
			grace_period_end = $8,
			dunning_count = $9,
			last_dunning_email = $10,
			cancel_at_period_end = $11,
			projects_used_this_period = $12,
			updated_at = $13,
			version = version + 1
		WHERE id = $1 AND version = $14`,
		sub.ID, sub.PlanSlug, string(sub.Status), string(sub.BillingPeriod),
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, nullString(sub.ProviderSubID),
		sub.GracePeriodEnd, sub.DunningCount, sub.LastDunningEmail, sub.CancelAtPeriodEnd,
		sub.ProjectsUsedThisPeriod, sub.UpdatedAt, sub.Version,
	)
	if err != nil {
		return fmt.Errorf("update subscription %s: %w", sub.ID, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var current int
	err = r.db.QueryRow(ctx, `SELECT version FROM subscriptions WHERE id = $1`, sub.ID).Scan(&current)
	switch {
	case pg.IsNotFoundError(err):
		return billing.ErrSubscriptionNotFound
	case err != nil:
		return fmt.Errorf("update subscription %s: %w", sub.ID, err)
	}
	return fmt.Errorf("%w: subscription %s at version %d, write based on %d",
		billing.ErrConcurrentUpdate, sub.ID, current, sub.Version)
}

func (r *Subscriptions) ListPastDue(ctx context.Context) ([]billing.Subscription, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	rows, err := r.db.Query(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE status = $1 ORDER BY created_at, id`,
		string(billing.StatusPastDue))
	if err != nil {
		return nil, fmt.Errorf("list past due subscriptions: %w", err)
	}
	defer rows.Close()

	var out []billing.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (r *Subscriptions) InsertPayment(ctx context.Context, p billing.Payment) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO payments (id, user_id, subscription_id, provider_payment_id, amount, currency, created_at)
		VALUES ($1, $2, $3, $4, $5::text::numeric, $6, $7)`,
		p.ID, p.UserID, p.SubscriptionID, p.ProviderPaymentID, p.Amount.String(), p.Currency, p.CreatedAt,
	)
	if pg.IsDuplicateKeyError(err) {
		return billing.ErrDuplicatePayment
	}
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}
