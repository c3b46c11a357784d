package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/qalam-studio/qalam/svc/plans"
)

// Store reads and appends usage data.
type Store interface {
	CountProjectsCreated(ctx context.Context, userID uuid.UUID, from, to time.Time) (int64, error)
	SumTokenUsage(ctx context.Context, userID uuid.UUID, from, to time.Time) (TokenTotals, error)
	InsertTokenUsage(ctx context.Context, rec TokenUsage) error
}

// PlanResolver resolves a user's effective plan.
type PlanResolver interface {
	ResolveEffectivePlan(ctx context.Context, userID uuid.UUID) (plans.Plan, error)
}

// Accumulator computes per-period usage.
type Accumulator struct {
	store    Store
	plans    PlanResolver
	location *time.Location
	now      func() time.Time
}

// Option configures an Accumulator.
type Option func(*Accumulator)

// WithLocation sets the billing time zone.
func WithLocation(loc *time.Location) Option {
	return func(a *Accumulator) {
		if loc != nil {
			a.location = loc
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Accumulator) { a.now = now }
}

// NewAccumulator creates an Accumulator.
func NewAccumulator(store Store, resolver PlanResolver, opts ...Option) *Accumulator {
	a := &Accumulator{
		store:    store,
		plans:    resolver,
		location: time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CurrentPeriodStart returns the start of the month containing now.
func (a *Accumulator) CurrentPeriodStart() time.Time {
	return PeriodStart(a.now(), a.location)
}

// GetMonthlyUsage aggregates projects and token records created within the
// month beginning at periodStart. Zero records yield zero values.
func (a *Accumulator) GetMonthlyUsage(ctx context.Context, userID uuid.UUID, periodStart time.Time) (Usage, error) {
	from, to := PeriodBounds(periodStart)

	projects, err := a.store.CountProjectsCreated(ctx, userID, from, to)
	if err != nil {
		return Usage{}, errors.Join(ErrFailedToCountUsage, err)
	}

	totals, err := a.store.SumTokenUsage(ctx, userID, from, to)
	if err != nil {
		return Usage{}, errors.Join(ErrFailedToCountUsage, err)
	}

	return Usage{
		ProjectsUsed: projects,
		TokensUsed:   totals.Tokens,
		TotalCost:    totals.Cost,
		RequestCount: totals.Requests,
	}, nil
}

// CurrentUsage is GetMonthlyUsage for the current period.
func (a *Accumulator) CurrentUsage(ctx context.Context, userID uuid.UUID) (Usage, error) {
	return a.GetMonthlyUsage(ctx, userID, a.CurrentPeriodStart())
}

// Record appends a token usage record. ID and CreatedAt are filled when empty.
func (a *Accumulator) Record(ctx context.Context, rec TokenUsage) (TokenUsage, error) {
	if err := rec.Validate(); err != nil {
		return TokenUsage{}, err
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = a.now().UTC()
	}
	if err := a.store.InsertTokenUsage(ctx, rec); err != nil {
		return TokenUsage{}, errors.Join(ErrFailedToRecordUsage, err)
	}
	return rec, nil
}

// CheckProjectQuota returns ErrProjectQuotaExceeded when creating one more
// project this period would exceed the plan limit.
func (a *Accumulator) CheckProjectQuota(ctx context.Context, userID uuid.UUID) error {
	plan, u, err := a.planAndUsage(ctx, userID)
	if err != nil {
		return err
	}
	if plan.ProjectsLimit != plans.Unlimited && u.ProjectsUsed >= plan.ProjectsLimit {
		return fmt.Errorf("%w: %d of %d", ErrProjectQuotaExceeded, u.ProjectsUsed, plan.ProjectsLimit)
	}
	return nil
}

// CheckTokenQuota returns ErrTokenQuotaExceeded when spending tokens on top
// of this period's usage would exceed the plan limit.
func (a *Accumulator) CheckTokenQuota(ctx context.Context, userID uuid.UUID, tokens int64) error {
	plan, u, err := a.planAndUsage(ctx, userID)
	if err != nil {
		return err
	}
	if plan.TokensLimit != plans.Unlimited && u.TokensUsed+tokens > plan.TokensLimit {
		return fmt.Errorf("%w: %d + %d of %d", ErrTokenQuotaExceeded, u.TokensUsed, tokens, plan.TokensLimit)
	}
	return nil
}

// Report returns current-period usage with limits and percentages.
func (a *Accumulator) Report(ctx context.Context, userID uuid.UUID) (Report, error) {
	plan, u, err := a.planAndUsage(ctx, userID)
	if err != nil {
		return Report{}, err
	}
	start, end := PeriodBounds(a.CurrentPeriodStart())
	return Report{
		PlanSlug:    plan.Slug,
		PeriodStart: start,
		PeriodEnd:   end,
		Usage:       u,
		Projects:    quota(u.ProjectsUsed, plan.ProjectsLimit),
		Tokens:      quota(u.TokensUsed, plan.TokensLimit),
	}, nil
}

func (a *Accumulator) planAndUsage(ctx context.Context, userID uuid.UUID) (plans.Plan, Usage, error) {
	plan, err := a.plans.ResolveEffectivePlan(ctx, userID)
	if err != nil {
		return plans.Plan{}, Usage{}, err
	}
	u, err := a.CurrentUsage(ctx, userID)
	if err != nil {
		return plans.Plan{}, Usage{}, err
	}
	return plan, u, nil
}

func quota(used, limit int64) Quota {
	q := Quota{Used: used, Limit: limit}
	switch {
	case limit == plans.Unlimited:
		q.Percent = -1
	case limit == 0:
		q.Percent = 100
	case used >= limit:
		q.Percent = 100
	case used <= 0:
		q.Percent = 0
	default:
		// used*100 overflows int64 for counters near the type's range.
		pct, _ := decimal.NewFromInt(used).Mul(hundred).QuoRem(decimal.NewFromInt(limit), 0)
		q.Percent = int(pct.IntPart())
	}
	return q
}

var hundred = decimal.NewFromInt(100)
