// Package environment propagates the application environment (development,
// staging or production) through context.Context.
//
// Parse normalizes the APP_ENV value and Middleware attaches it to every
// request:
//
//	env := environment.Parse(cfg.App.Env)
//	handler = environment.Middleware(env, environment.WithResponseHeader("X-App-Environment"))(handler)
//	if environment.IsProduction(ctx) {
//		// hide internal error details
//	}
//
// Missing values resolve to the empty Environment.
package environment
