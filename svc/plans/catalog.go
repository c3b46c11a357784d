package plans

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/qalam-studio/qalam/pkg/logger"
)

// SlugResolver returns the plan slug of the user's entitling subscription,
// or "" when the user has none.
type SlugResolver func(ctx context.Context, userID uuid.UUID) (string, error)

type priceRef struct {
	slug   string
	period BillingPeriod
}

// Catalog is an immutable, validated plan set.
type Catalog struct {
	plans    map[string]Plan
	order    []string
	prices   map[string]priceRef
	resolver SlugResolver
	logger   *slog.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithSlugResolver sets how a user's subscribed plan slug is looked up.
// Without one every user resolves to the free plan.
func WithSlugResolver(r SlugResolver) Option {
	return func(c *Catalog) { c.resolver = r }
}

// WithLogger sets the catalog logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCatalog loads and validates plans from src. A missing free plan is a
// configuration error.
func NewCatalog(ctx context.Context, src Source, opts ...Option) (*Catalog, error) {
	loaded, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	c := &Catalog{
		plans:  make(map[string]Plan, len(loaded)),
		order:  make([]string, 0, len(loaded)),
		prices: make(map[string]priceRef),
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, p := range loaded {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.plans[p.Slug]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlan, p.Slug)
		}
		c.plans[p.Slug] = p
		c.order = append(c.order, p.Slug)

		for id, period := range map[string]BillingPeriod{p.MonthlyPriceID: PeriodMonthly, p.YearlyPriceID: PeriodYearly} {
			if id == "" {
				continue
			}
			if _, dup := c.prices[id]; dup {
				return nil, fmt.Errorf("%w: %s", ErrDuplicatePriceID, id)
			}
			c.prices[id] = priceRef{slug: p.Slug, period: period}
		}
	}

	if _, ok := c.plans[FreeSlug]; !ok {
		return nil, ErrFreePlanMissing
	}

	return c, nil
}

// Get returns the plan with the given slug.
func (c *Catalog) Get(slug string) (Plan, error) {
	p, ok := c.plans[slug]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, slug)
	}
	return p, nil
}

// Free returns the fallback plan.
func (c *Catalog) Free() Plan {
	return c.plans[FreeSlug]
}

// List returns all plans in source order.
func (c *Catalog) List() []Plan {
	out := make([]Plan, 0, len(c.order))
	for _, slug := range c.order {
		out = append(out, c.plans[slug])
	}
	return out
}

// Slugs returns all plan slugs in source order.
func (c *Catalog) Slugs() []string {
	return slices.Clone(c.order)
}

// ResolveProviderPlan maps a payment-provider plan or price id to a plan.
// A bare plan slug is accepted too and resolves as monthly.
func (c *Catalog) ResolveProviderPlan(id string) (Plan, BillingPeriod, error) {
	if ref, ok := c.prices[id]; ok {
		return c.plans[ref.slug], ref.period, nil
	}
	if p, ok := c.plans[id]; ok {
		return p, PeriodMonthly, nil
	}
	return Plan{}, "", fmt.Errorf("%w: provider plan %q", ErrPlanNotFound, id)
}

// ResolveEffectivePlan returns the plan of the user's entitling subscription,
// or the free plan when there is none. A subscription pointing at a slug the
// catalog does not know also resolves to free. Only storage failures are
// returned as errors.
func (c *Catalog) ResolveEffectivePlan(ctx context.Context, userID uuid.UUID) (Plan, error) {
	if c.resolver == nil {
		return c.Free(), nil
	}

	slug, err := c.resolver(ctx, userID)
	if err != nil {
		return Plan{}, errors.Join(ErrFailedToResolvePlan, err)
	}
	if slug == "" {
		return c.Free(), nil
	}

	p, ok := c.plans[slug]
	if !ok {
		c.logger.WarnContext(ctx, "subscription references unknown plan, using free",
			logger.UserID(userID), logger.PlanSlug(slug))
		return c.Free(), nil
	}
	return p, nil
}
