// Package httpserver wraps net/http.Server with context-driven graceful
// shutdown and a dependency-aware health handler.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		return err
//	}
//
// Run blocks until ctx is cancelled or the listener fails; process signals
// are expected to be turned into context cancellation by the caller
// (signal.NotifyContext).
package httpserver
