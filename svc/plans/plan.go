package plans

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// FreeSlug identifies the fallback plan.
const FreeSlug = "free"

// Unlimited marks a limit without a cap.
const Unlimited int64 = -1

// Feature is a boolean plan capability.
type Feature string

const (
	FeatureExport          Feature = "export"
	FeatureAPIAccess       Feature = "api_access"
	FeaturePrioritySupport Feature = "priority_support"
)

// BillingPeriod is the recurrence of a paid plan.
type BillingPeriod string

const (
	PeriodMonthly BillingPeriod = "monthly"
	PeriodYearly  BillingPeriod = "yearly"
)

// Valid reports whether p is a known billing period.
func (p BillingPeriod) Valid() bool {
	return p == PeriodMonthly || p == PeriodYearly
}

// Plan is a subscription tier with its numeric limits and capabilities.
type Plan struct {
	Slug            string           `json:"slug"`
	Name            string           `json:"name"`
	ProjectsLimit   int64            `json:"projects_per_month"` // Unlimited when -1
	TokensLimit     int64            `json:"tokens_per_month"`
	RedoLimitPerTab int              `json:"redo_limit_per_tab"`
	ExportEnabled   bool             `json:"export_enabled"`
	APIAccess       bool             `json:"api_access"`
	PrioritySupport bool             `json:"priority_support"`
	PriceMonthly    *decimal.Decimal `json:"price_monthly,omitempty"`
	PriceYearly     *decimal.Decimal `json:"price_yearly,omitempty"`
	MonthlyPriceID  string           `json:"-"`
	YearlyPriceID   string           `json:"-"`
}

// IsFree reports whether p is the fallback plan.
func (p Plan) IsFree() bool {
	return p.Slug == FreeSlug
}

// HasFeature reports whether the plan grants f.
func (p Plan) HasFeature(f Feature) bool {
	switch f {
	case FeatureExport:
		return p.ExportEnabled
	case FeatureAPIAccess:
		return p.APIAccess
	case FeaturePrioritySupport:
		return p.PrioritySupport
	default:
		return false
	}
}

// RedoRunLimit is the total number of runs a tab allows: the initial run plus
// RedoLimitPerTab regenerations.
func (p Plan) RedoRunLimit() int {
	return p.RedoLimitPerTab + 1
}

// Price returns the price for period, or nil for free plans.
func (p Plan) Price(period BillingPeriod) *decimal.Decimal {
	if period == PeriodYearly {
		return p.PriceYearly
	}
	return p.PriceMonthly
}

var slugRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,31}$`)

// Validate checks limits and identifiers.
func (p Plan) Validate() error {
	switch {
	case !slugRegex.MatchString(p.Slug):
		return fmt.Errorf("%w: bad slug %q", ErrInvalidPlan, p.Slug)
	case p.ProjectsLimit < Unlimited:
		return fmt.Errorf("%w: %s: projects limit %d", ErrInvalidPlan, p.Slug, p.ProjectsLimit)
	case p.TokensLimit < Unlimited:
		return fmt.Errorf("%w: %s: tokens limit %d", ErrInvalidPlan, p.Slug, p.TokensLimit)
	case p.RedoLimitPerTab < 0:
		return fmt.Errorf("%w: %s: redo limit %d", ErrInvalidPlan, p.Slug, p.RedoLimitPerTab)
	case p.PriceMonthly != nil && p.PriceMonthly.IsNegative(),
		p.PriceYearly != nil && p.PriceYearly.IsNegative():
		return fmt.Errorf("%w: %s: negative price", ErrInvalidPlan, p.Slug)
	}
	return nil
}
