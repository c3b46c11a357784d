package api

import (
	"errors"
	"net/http"

	"github.com/qalam-studio/qalam/pkg/handler"
	"github.com/qalam-studio/qalam/svc/billing"
	"github.com/qalam-studio/qalam/svc/plans"
	"github.com/qalam-studio/qalam/svc/redo"
	"github.com/qalam-studio/qalam/svc/usage"
)

const (
	codeRedoLimit        = "redo_limit_reached"
	codeConfiguration    = "configuration_error"
	codeInvalidSignature = "invalid_signature"
	codeConflict         = "conflict"
)

var (
	errInvalidSignature = handler.NewHTTPError(http.StatusUnauthorized, codeInvalidSignature)
	errRedoLimit        = handler.NewHTTPError(http.StatusTooManyRequests, codeRedoLimit)
	errConfiguration    = handler.NewHTTPError(http.StatusInternalServerError, codeConfiguration)
	errConflict         = handler.NewHTTPError(http.StatusConflict, codeConflict)
)

// classify maps domain errors onto HTTP statuses.
func classify(err error) (handler.HTTPError, bool) {
	switch {
	case errors.Is(err, billing.ErrInvalidSignature):
		return errInvalidSignature, true
	case errors.Is(err, billing.ErrPayloadTooLarge):
		return handler.ErrRequestEntityTooLarge, true
	case errors.Is(err, redo.ErrUnknownTab),
		errors.Is(err, billing.ErrMissingUserID),
		errors.Is(err, usage.ErrMissingUserID),
		errors.Is(err, billing.ErrInvalidPayload):
		return handler.ErrBadRequest, true
	case errors.Is(err, usage.ErrInvalidTokenUsage):
		return handler.ErrUnprocessableEntity, true
	case errors.Is(err, redo.ErrProjectNotFound),
		errors.Is(err, billing.ErrSubscriptionNotFound),
		errors.Is(err, plans.ErrPlanNotFound):
		return handler.ErrNotFound, true
	case errors.Is(err, redo.ErrRedoLimitReached):
		return errRedoLimit, true
	case errors.Is(err, billing.ErrConcurrentUpdate):
		return errConflict, true
	case errors.Is(err, plans.ErrFreePlanMissing),
		errors.Is(err, billing.ErrProviderDisabled):
		return errConfiguration, true
	}
	return handler.HTTPError{}, false
}

// reject writes an error envelope from middleware, outside any handler.
func reject(w http.ResponseWriter, r *http.Request, e handler.HTTPError, msg string) {
	_ = handler.JSONError(e.Wrap(errors.New(msg))).Render(w, r)
}
