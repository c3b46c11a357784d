package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/qalam-studio/qalam/pkg/binder"
	"github.com/qalam-studio/qalam/pkg/logger"
	"github.com/qalam-studio/qalam/pkg/validator"
)

// Classifier maps a domain error onto an HTTPError. ok is false when the
// classifier does not recognise err.
type Classifier func(err error) (e HTTPError, ok bool)

// ErrorInfo is how an error is reported to the client and the log.
type ErrorInfo struct {
	HTTPError
	LogLevel slog.Level
}

func determineLogLevel(status int) slog.Level {
	if status < http.StatusInternalServerError {
		return slog.LevelWarn
	}
	return slog.LevelError
}

// classifyError resolves validation errors, explicit HTTPErrors, binder
// failures and then each classifier in turn. Unrecognised errors are 500.
func classifyError(err error, classifiers []Classifier) ErrorInfo {
	e := ErrInternalServerError.Wrap(err)

	var httpErr HTTPError
	switch {
	case validator.IsValidationError(err):
		e = ErrUnprocessableEntity.Wrap(err)
	case errors.As(err, &httpErr):
		e = httpErr
	case errors.Is(err, binder.ErrBodyTooLarge):
		e = ErrRequestEntityTooLarge.Wrap(err)
	case errors.Is(err, binder.ErrUnsupportedMediaType):
		e = ErrUnsupportedMediaType.Wrap(err)
	case errors.Is(err, binder.ErrMissingContentType),
		errors.Is(err, binder.ErrInvalidJSON),
		errors.Is(err, binder.ErrInvalidPath):
		e = ErrBadRequest.Wrap(err)
	default:
		for _, classify := range classifiers {
			if c, ok := classify(err); ok {
				e = c.Wrap(err)
				break
			}
		}
	}

	return ErrorInfo{HTTPError: e, LogLevel: determineLogLevel(e.Code)}
}

func logError(log *slog.Logger, ctx Context, err error, info ErrorInfo) {
	attrs := []slog.Attr{
		logger.Error(err),
		slog.Int("status_code", info.Code),
		slog.String("code", info.Key),
		slog.String("method", ctx.Request().Method),
		slog.String("path", ctx.Request().URL.Path),
		logger.Component("error_handler"),
	}
	var ae attributedError
	if errors.As(err, &ae) {
		attrs = append(attrs, ae.attrs...)
	}
	log.LogAttrs(ctx, info.LogLevel, "request error", attrs...)
}

// NewErrorHandler logs every failed request and replies with the JSON
// error envelope.
func NewErrorHandler(log *slog.Logger, classifiers ...Classifier) ErrorHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(ctx Context, err error) {
		info := classifyError(err, classifiers)
		logError(log, ctx, err, info)

		resp := JSONError(info.HTTPError)
		if err := resp.Render(ctx.ResponseWriter(), ctx.Request()); err != nil {
			log.LogAttrs(ctx, slog.LevelError, "failed to write error response",
				logger.Error(err), logger.Component("error_handler"))
		}
	}
}
