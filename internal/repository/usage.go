package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/qalam-studio/qalam/svc/usage"
)

// Usage implements usage.Store over projects and token_usage.
type Usage struct {
	base
}

func (r *Usage) CountProjectsCreated(ctx context.Context, userID uuid.UUID, from, to time.Time) (int64, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM projects WHERE user_id = $1 AND created_at >= $2 AND created_at < $3`,
		userID, from, to).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return n, nil
}

func (r *Usage) SumTokenUsage(ctx context.Context, userID uuid.UUID, from, to time.Time) (usage.TokenTotals, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	var (
		totals usage.TokenTotals
		cost   string
	)
	err := r.db.QueryRow(ctx, `
		SELECT coalesce(sum(tokens), 0)::bigint, coalesce(sum(cost), 0)::text, count(*)
		FROM token_usage
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3`,
		userID, from, to).Scan(&totals.Tokens, &cost, &totals.Requests)
	if err != nil {
		return usage.TokenTotals{}, fmt.Errorf("sum token usage: %w", err)
	}
	if totals.Cost, err = decimal.NewFromString(cost); err != nil {
		return usage.TokenTotals{}, fmt.Errorf("sum token usage cost: %w", err)
	}
	return totals, nil
}

func (r *Usage) InsertTokenUsage(ctx context.Context, rec usage.TokenUsage) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO token_usage (id, user_id, tokens, cost, function_name, created_at)
		VALUES ($1, $2, $3, $4::text::numeric, $5, $6)`,
		rec.ID, rec.UserID, rec.Tokens, rec.Cost.String(), rec.FunctionName, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert token usage: %w", err)
	}
	return nil
}
