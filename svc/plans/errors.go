package plans

import "errors"

var (
	ErrPlanNotFound        = errors.New("plans.errors.plan_not_found")
	ErrFreePlanMissing     = errors.New("plans.errors.free_plan_missing")
	ErrInvalidPlan         = errors.New("plans.errors.invalid_plan")
	ErrDuplicatePlan       = errors.New("plans.errors.duplicate_plan")
	ErrDuplicatePriceID    = errors.New("plans.errors.duplicate_price_id")
	ErrFailedToLoadPlans   = errors.New("plans.errors.failed_to_load_plans")
	ErrFailedToResolvePlan = errors.New("plans.errors.failed_to_resolve_plan")
)
