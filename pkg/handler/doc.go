// Package handler turns typed handler functions into http.HandlerFunc.
//
// A HandlerFunc receives a request value already filled by the configured
// binders and returns a Response. Failures from binding, from Fail or from
// Render reach one ErrorHandler, which classifies the error, logs it and
// writes the JSON envelope:
//
//	{"data": ..., "error": {"code": "not_found", "message": "...", "details": {...}}}
//
// Validation errors from pkg/validator become 422 with per-field details.
// Server error messages are replaced with the status text in production.
package handler
