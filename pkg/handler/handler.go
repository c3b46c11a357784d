package handler

import (
	"log/slog"
	"net/http"
)

// HandlerFunc handles a request whose input has already been bound into req.
type HandlerFunc[R any] func(ctx Context, req R) Response

// Response writes itself to the client. An error returned from Render goes
// to the ErrorHandler.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Bind populates v from the request.
type Bind func(r *http.Request, v any) error

// ErrorHandler renders a failed bind, a nil response or a Render error.
type ErrorHandler func(ctx Context, err error)

type wrapConfig struct {
	binders      []Bind
	errorHandler ErrorHandler
}

// WrapOption configures Wrap.
type WrapOption func(*wrapConfig)

// WithBinders appends binders. They run in order over the same value.
func WithBinders(binders ...Bind) WrapOption {
	return func(c *wrapConfig) {
		for _, b := range binders {
			if b != nil {
				c.binders = append(c.binders, b)
			}
		}
	}
}

func WithErrorHandler(h ErrorHandler) WrapOption {
	return func(c *wrapConfig) {
		if h != nil {
			c.errorHandler = h
		}
	}
}

func defaultErrorHandler(ctx Context, err error) {
	_ = JSONError(err).Render(ctx.ResponseWriter(), ctx.Request())
}

// Wrap adapts h to http.HandlerFunc: it binds the request into a fresh R,
// calls h and renders the result.
//
//	r.Get("/users/{userID}/plan", handler.Wrap(h.effectivePlan,
//		handler.WithBinders(binder.Path(chi.URLParam)),
//		handler.WithErrorHandler(errorHandler),
//	))
func Wrap[R any](h HandlerFunc[R], opts ...WrapOption) http.HandlerFunc {
	cfg := &wrapConfig{errorHandler: defaultErrorHandler}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := NewContext(w, r)

		var req R
		for _, bind := range cfg.binders {
			if err := bind(r, &req); err != nil {
				cfg.errorHandler(ctx, err)
				return
			}
		}

		response := h(ctx, req)
		if response == nil {
			cfg.errorHandler(ctx, ErrNilResponse)
			return
		}
		if err := response.Render(w, r); err != nil {
			cfg.errorHandler(ctx, err)
		}
	}
}

type failure struct {
	err   error
	attrs []slog.Attr
}

func (f failure) Render(http.ResponseWriter, *http.Request) error {
	if len(f.attrs) == 0 {
		return f.err
	}
	return attributedError{err: f.err, attrs: f.attrs}
}

// Fail hands err to the ErrorHandler, which classifies it, logs it with
// attrs and writes the error response.
func Fail(err error, attrs ...slog.Attr) Response {
	return failure{err: err, attrs: attrs}
}

// attributedError carries log attributes from a handler to the ErrorHandler.
type attributedError struct {
	err   error
	attrs []slog.Attr
}

func (e attributedError) Error() string { return e.err.Error() }
func (e attributedError) Unwrap() error { return e.err }
