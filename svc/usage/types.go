package usage

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/qalam-studio/qalam/pkg/validator"
)

// Usage is the consumption of one user within one period.
type Usage struct {
	ProjectsUsed int64           `json:"projects_used"`
	TokensUsed   int64           `json:"tokens_used"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	RequestCount int64           `json:"request_count"`
}

// TokenTotals is the aggregate over token usage records.
type TokenTotals struct {
	Tokens   int64
	Cost     decimal.Decimal
	Requests int64
}

// TokenUsage is one append-only record of AI consumption.
type TokenUsage struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	Tokens       int64           `json:"tokens"`
	Cost         decimal.Decimal `json:"cost"`
	FunctionName string          `json:"function_name"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Validate enforces positive tokens, a non-negative cost that fits
// NUMERIC(12, 6) and a function name. A missing user is reported on its own.
func (r TokenUsage) Validate() error {
	if r.UserID == uuid.Nil {
		return ErrMissingUserID
	}
	if err := validator.Apply(
		validator.PositiveNum("tokens", r.Tokens),
		validator.NonNegativeDecimal("cost", r.Cost),
		validator.MaxDecimalPlaces("cost", r.Cost, costPlaces),
		validator.RequiredString("function_name", r.FunctionName),
		validator.MaxLenString("function_name", r.FunctionName, maxFunctionName),
	); err != nil {
		return errors.Join(ErrInvalidTokenUsage, err)
	}
	return nil
}

const (
	costPlaces      = 6
	maxFunctionName = 128
)

// Quota is usage against a limit. Percent is -1 when the limit is unlimited.
type Quota struct {
	Used    int64 `json:"used"`
	Limit   int64 `json:"limit"`
	Percent int   `json:"percent"`
}

// Report is a dashboard view of the current period.
type Report struct {
	PlanSlug    string    `json:"plan"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	Usage       Usage     `json:"usage"`
	Projects    Quota     `json:"projects"`
	Tokens      Quota     `json:"tokens"`
}
