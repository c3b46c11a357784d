package repository

import (
	"context"
	"fmt"

	"github.com/qalam-studio/qalam/svc/plans"
)

// Plans is a plans.Source reading the plans table.
type Plans struct {
	base
}

func (r *Plans) Load(ctx context.Context) ([]plans.Plan, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT slug, name, monthly_project_limit, monthly_token_limit, redo_limit_per_tab,
		       export_enabled, api_access, priority_support,
		       price_monthly::text, price_yearly::text, monthly_price_id, yearly_price_id
		FROM plans
		ORDER BY sort_order, slug`)
	if err != nil {
		return nil, fmt.Errorf("load plans: %w", err)
	}
	defer rows.Close()

	var out []plans.Plan
	for rows.Next() {
		var (
			p                   plans.Plan
			projects            *int64
			monthly, yearly     *string
			monthlyID, yearlyID *string
		)
		if err := rows.Scan(&p.Slug, &p.Name, &projects, &p.TokensLimit, &p.RedoLimitPerTab,
			&p.ExportEnabled, &p.APIAccess, &p.PrioritySupport,
			&monthly, &yearly, &monthlyID, &yearlyID); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}

		p.ProjectsLimit = plans.Unlimited
		if projects != nil {
			p.ProjectsLimit = *projects
		}
		if p.PriceMonthly, err = parseNumeric(monthly); err != nil {
			return nil, fmt.Errorf("plan %s price_monthly: %w", p.Slug, err)
		}
		if p.PriceYearly, err = parseNumeric(yearly); err != nil {
			return nil, fmt.Errorf("plan %s price_yearly: %w", p.Slug, err)
		}
		p.MonthlyPriceID = derefString(monthlyID)
		p.YearlyPriceID = derefString(yearlyID)
		out = append(out, p)
	}
	return out, rows.Err()
}
