// Package logger builds *slog.Logger instances for the billing services.
//
// New applies functional options on top of production defaults (JSON, info
// level, stdout) and wraps the handler so that request-scoped values stored in
// context.Context, such as the request id, are added to every record.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "qalam-billing"),
//		logger.WithContextExtractors(logger.RequestIDExtractor(middleware.RequestIDKey)),
//	)
//	log.LogAttrs(ctx, slog.LevelWarn, "webhook event skipped",
//		logger.EventType(evt.ProviderEvent),
//		logger.Error(err),
//	)
//
// Attribute helpers in attr.go keep key names consistent across packages.
package logger
