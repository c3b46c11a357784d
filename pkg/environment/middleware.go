package environment

import "net/http"

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middleware)

type middleware struct {
	env    Environment
	header string
}

// WithResponseHeader echoes the environment in the named response header.
// Production responses never carry it.
func WithResponseHeader(name string) MiddlewareOption {
	return func(m *middleware) { m.header = http.CanonicalHeaderKey(name) }
}

// Middleware stores env in every request context so handlers can call
// IsProduction without holding the config.
func Middleware(env Environment, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	m := &middleware{env: env}
	for _, opt := range opts {
		opt(m)
	}
	expose := m.header != "" && env != Production && env != ""

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expose {
				w.Header().Set(m.header, string(m.env))
			}
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), m.env)))
		})
	}
}
