package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/qalam-studio/qalam/pkg/handler"
	"github.com/qalam-studio/qalam/pkg/logger"
	"github.com/qalam-studio/qalam/pkg/validator"
	"github.com/qalam-studio/qalam/svc/billing"
	"github.com/qalam-studio/qalam/svc/redo"
	"github.com/qalam-studio/qalam/svc/usage"
)

type endpoints struct {
	svc    Services
	logger *slog.Logger
}

type projectTabRequest struct {
	ProjectID uuid.UUID `path:"projectID"`
	Tab       redo.Tab  `path:"tab"`
}

type userRequest struct {
	UserID uuid.UUID `path:"userID"`
}

func (e *endpoints) webhook(p billing.Provider) handler.HandlerFunc[struct{}] {
	return func(ctx handler.Context, _ struct{}) handler.Response {
		events, err := p.ParseWebhook(ctx.Request())
		switch {
		case errors.Is(err, billing.ErrInvalidPayload):
			// Verified but unreadable; acknowledge so the provider stops retrying.
			e.logger.LogAttrs(ctx, slog.LevelWarn, "webhook payload skipped",
				logger.Provider(p.Name()), logger.Error(err))
			return handler.JSON(billing.Result{
				Failed: 1,
				Errors: []billing.EventError{{Error: err.Error()}},
			})
		case err != nil:
			return handler.Fail(err, logger.Provider(p.Name()))
		}
		return handler.JSON(e.svc.Billing.HandleEvents(ctx, events))
	}
}

func (e *endpoints) checkRedo(ctx handler.Context, req projectTabRequest) handler.Response {
	if err := validator.Apply(validator.NonNilUUID("project_id", req.ProjectID)); err != nil {
		return handler.Fail(err)
	}
	d, err := e.svc.Redo.CheckRedoAllowed(ctx, req.ProjectID, req.Tab)
	if err != nil {
		return handler.Fail(err, logger.ProjectID(req.ProjectID), logger.Tab(string(req.Tab)))
	}
	if !d.Allowed {
		return handler.JSON(handler.JSONResponse{
			Data:  d,
			Error: &handler.ErrorDetail{Code: codeRedoLimit, Message: "redo limit reached for this tab"},
		}, handler.WithJSONStatus(errRedoLimit.Code))
	}
	return handler.JSON(d)
}

type runCount struct {
	Count int `json:"count"`
}

func (e *endpoints) incrementRuns(ctx handler.Context, req projectTabRequest) handler.Response {
	if err := validator.Apply(validator.NonNilUUID("project_id", req.ProjectID)); err != nil {
		return handler.Fail(err)
	}
	n, err := e.svc.Redo.IncrementRunCount(ctx, req.ProjectID, req.Tab)
	if err != nil {
		return handler.Fail(err, logger.ProjectID(req.ProjectID), logger.Tab(string(req.Tab)))
	}
	return handler.JSON(runCount{Count: n})
}

func (e *endpoints) effectivePlan(ctx handler.Context, req userRequest) handler.Response {
	if err := validator.Apply(validator.NonNilUUID("user_id", req.UserID)); err != nil {
		return handler.Fail(err)
	}
	plan, err := e.svc.Plans.ResolveEffectivePlan(ctx, req.UserID)
	if err != nil {
		return handler.Fail(err, logger.UserID(req.UserID))
	}
	return handler.JSON(plan)
}

func (e *endpoints) usageReport(ctx handler.Context, req userRequest) handler.Response {
	if err := validator.Apply(validator.NonNilUUID("user_id", req.UserID)); err != nil {
		return handler.Fail(err)
	}
	rep, err := e.svc.Usage.Report(ctx, req.UserID)
	if err != nil {
		return handler.Fail(err, logger.UserID(req.UserID))
	}
	return handler.JSON(rep)
}

type tokenUsageRequest struct {
	UserID       uuid.UUID       `path:"userID" json:"-"`
	Tokens       int64           `json:"tokens"`
	Cost         decimal.Decimal `json:"cost"`
	FunctionName string          `json:"function_name"`
}

func (e *endpoints) recordTokenUsage(ctx handler.Context, req tokenUsageRequest) handler.Response {
	rec, err := e.svc.Usage.Record(ctx, usage.TokenUsage{
		UserID:       req.UserID,
		Tokens:       req.Tokens,
		Cost:         req.Cost,
		FunctionName: req.FunctionName,
	})
	if err != nil {
		return handler.Fail(err, logger.UserID(req.UserID))
	}
	return handler.JSON(rec, handler.WithJSONStatus(http.StatusCreated))
}

func (e *endpoints) subscription(ctx handler.Context, req userRequest) handler.Response {
	if err := validator.Apply(validator.NonNilUUID("user_id", req.UserID)); err != nil {
		return handler.Fail(err)
	}
	sub, err := e.svc.Billing.GetSubscription(ctx, req.UserID)
	if err != nil {
		return handler.Fail(err, logger.UserID(req.UserID))
	}
	return handler.JSON(sub)
}

func (e *endpoints) runDunning(ctx handler.Context, _ struct{}) handler.Response {
	sum, err := e.svc.Dunning.RunOnce(ctx)
	if err != nil {
		return handler.Fail(err, logger.Component("dunning"))
	}
	return handler.JSON(sum)
}
