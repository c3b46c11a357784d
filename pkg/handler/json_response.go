package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/qalam-studio/qalam/pkg/environment"
	"github.com/qalam-studio/qalam/pkg/validator"
)

// JSONResponse is the envelope of every JSON reply.
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   JSONResponse
}

// Render writes the envelope. Server error messages are replaced with the
// status text in production.
func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	body := j.body
	if body.Error != nil && j.status >= http.StatusInternalServerError && environment.IsProduction(r.Context()) {
		hidden := *body.Error
		hidden.Message = http.StatusText(j.status)
		body.Error = &hidden
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(body)
}

type JSONOption func(*jsonResponse)

func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) {
		r.status = status
	}
}

func WithJSONMeta(meta map[string]any) JSONOption {
	return func(r *jsonResponse) {
		r.body.Meta = meta
	}
}

// JSON replies 200 with v as data. A JSONResponse is sent as is and an
// error is converted as JSONError would.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK}

	switch val := v.(type) {
	case JSONResponse:
		r.body = val
	case *ErrorDetail:
		r.body.Error = val
		r.status = http.StatusInternalServerError
	case error:
		r.body.Error = errorToDetail(val, &r.status)
	default:
		r.body.Data = v
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONError replies with err as the error body. HTTPError and validation
// errors pick their own status; anything else is a 500.
func JSONError(err error, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusInternalServerError}
	r.body.Error = errorToDetail(err, &r.status)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func errorToDetail(err error, status *int) *ErrorDetail {
	if ve := validator.ExtractValidationErrors(err); ve != nil {
		*status = http.StatusUnprocessableEntity
		return &ErrorDetail{Code: ErrUnprocessableEntity.Key, Message: ve.Error(), Details: ve.Map()}
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		*status = httpErr.Code
		msg := http.StatusText(httpErr.Code)
		if httpErr.Err != nil {
			msg = httpErr.Err.Error()
		}
		return &ErrorDetail{Code: httpErr.Key, Message: msg}
	}

	if *status < http.StatusBadRequest {
		*status = http.StatusInternalServerError
	}
	return &ErrorDetail{Code: ErrInternalServerError.Key, Message: err.Error()}
}
