package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qalam-studio/qalam/pkg/binder"
	"github.com/qalam-studio/qalam/pkg/environment"
	"github.com/qalam-studio/qalam/pkg/handler"
	"github.com/qalam-studio/qalam/pkg/logger"
	"github.com/qalam-studio/qalam/pkg/validator"
)

var errQuotaExceeded = errors.New("usage.errors.quota_exceeded")

func classifyQuota(err error) (handler.HTTPError, bool) {
	if errors.Is(err, errQuotaExceeded) {
		return handler.ErrTooManyRequests, true
	}
	return handler.HTTPError{}, false
}

type envelope struct {
	Data  json.RawMessage      `json:"data"`
	Error *handler.ErrorDetail `json:"error"`
	Meta  map[string]any       `json:"meta"`
}

type runRequest struct {
	Tokens int64 `json:"tokens"`
}

func serve(t *testing.T, h http.HandlerFunc, r *http.Request) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h(rec, r)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestWrap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		fn       handler.HandlerFunc[runRequest]
		status   int
		code     string
		message  string
		details  map[string][]string
		logLevel string
	}{
		{
			name: "data",
			body: `{"tokens": 7}`,
			fn: func(_ handler.Context, req runRequest) handler.Response {
				return handler.JSON(req, handler.WithJSONStatus(http.StatusCreated))
			},
			status: http.StatusCreated,
		},
		{
			name:     "bind failure",
			body:     `{"tokens": "seven"}`,
			fn:       func(handler.Context, runRequest) handler.Response { panic("not reached") },
			status:   http.StatusBadRequest,
			code:     "bad_request",
			logLevel: "WARN",
		},
		{
			name: "validation failure",
			body: `{"tokens": 0}`,
			fn: func(_ handler.Context, req runRequest) handler.Response {
				return handler.Fail(validator.Apply(validator.PositiveNum("tokens", req.Tokens)))
			},
			status:   http.StatusUnprocessableEntity,
			code:     "validation_error",
			message:  "validation failed: tokens: must be positive",
			details:  map[string][]string{"tokens": {"must be positive"}},
			logLevel: "WARN",
		},
		{
			name: "classified domain error",
			body: `{"tokens": 1}`,
			fn: func(handler.Context, runRequest) handler.Response {
				return handler.Fail(fmt.Errorf("%w: 10 of 10", errQuotaExceeded))
			},
			status:   http.StatusTooManyRequests,
			code:     "too_many_requests",
			message:  "usage.errors.quota_exceeded: 10 of 10",
			logLevel: "WARN",
		},
		{
			name: "explicit http error",
			body: `{"tokens": 1}`,
			fn: func(handler.Context, runRequest) handler.Response {
				return handler.Fail(handler.ErrNotFound)
			},
			status:   http.StatusNotFound,
			code:     "not_found",
			message:  "Not Found",
			logLevel: "WARN",
		},
		{
			name: "unknown error",
			body: `{"tokens": 1}`,
			fn: func(handler.Context, runRequest) handler.Response {
				return handler.Fail(errors.New("pool closed"), logger.Component("plans"))
			},
			status:   http.StatusInternalServerError,
			code:     "internal_error",
			message:  "pool closed",
			logLevel: "ERROR",
		},
		{
			name:     "nil response",
			body:     `{"tokens": 1}`,
			fn:       func(handler.Context, runRequest) handler.Response { return nil },
			status:   http.StatusInternalServerError,
			code:     "internal_error",
			message:  handler.ErrNilResponse.Error(),
			logLevel: "ERROR",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var logs bytes.Buffer
			log := slog.New(slog.NewJSONHandler(&logs, nil))
			h := handler.Wrap(tt.fn,
				handler.WithBinders(binder.JSON()),
				handler.WithErrorHandler(handler.NewErrorHandler(log, classifyQuota)),
			)
			r := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", "application/json")

			status, env := serve(t, h, r)
			assert.Equal(t, tt.status, status)
			if tt.code == "" {
				assert.Nil(t, env.Error)
				assert.JSONEq(t, tt.body, string(env.Data))
				assert.Empty(t, logs.String())
				return
			}
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, env.Error.Message)
			}
			assert.Equal(t, tt.details, env.Error.Details)
			assert.Contains(t, logs.String(), `"level":"`+tt.logLevel+`"`)
			assert.Contains(t, logs.String(), `"component":"error_handler"`)
		})
	}
}

func TestWrap_FailAttrsAreLogged(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	h := handler.Wrap(func(handler.Context, struct{}) handler.Response {
		return handler.Fail(errors.New("pool closed"), logger.UserID("u-1"))
	}, handler.WithErrorHandler(handler.NewErrorHandler(slog.New(slog.NewJSONHandler(&logs, nil)))))

	status, _ := serve(t, h, httptest.NewRequest(http.MethodGet, "/plan", nil))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, logs.String(), `"user_id":"u-1"`)
	assert.Contains(t, logs.String(), `"path":"/plan"`)
}

func TestJSON_ServerErrorsHiddenInProduction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		env     environment.Environment
		err     error
		message string
	}{
		{"development keeps cause", environment.Development, errors.New("pool closed"), "pool closed"},
		{"production hides cause", environment.Production, errors.New("pool closed"), "Internal Server Error"},
		{"production keeps client errors", environment.Production, handler.ErrBadRequest.Wrap(errors.New("tab is required")), "tab is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := handler.Wrap(func(handler.Context, struct{}) handler.Response {
				return handler.JSONError(tt.err)
			})
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r = r.WithContext(environment.WithContext(r.Context(), tt.env))

			_, env := serve(t, h, r)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.message, env.Error.Message)
		})
	}
}

func TestJSON_Envelope(t *testing.T) {
	t.Parallel()

	h := handler.Wrap(func(handler.Context, struct{}) handler.Response {
		return handler.JSON(handler.JSONResponse{
			Data:  map[string]int{"current": 2},
			Error: &handler.ErrorDetail{Code: "redo_limit_reached", Message: "limit reached"},
		}, handler.WithJSONStatus(http.StatusTooManyRequests), handler.WithJSONMeta(map[string]any{"limit": 2}))
	})

	status, env := serve(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.JSONEq(t, `{"current":2}`, string(env.Data))
	assert.Equal(t, "redo_limit_reached", env.Error.Code)
	assert.Equal(t, map[string]any{"limit": float64(2)}, env.Meta)
}
