// Package api exposes the billing core over HTTP with a chi router.
//
// Webhook receivers are authenticated by provider signatures, internal
// endpoints by a bearer API key and the dunning trigger by a cron secret.
// Endpoints are pkg/handler functions whose path and body input is bound
// by pkg/binder. Every JSON response uses the envelope
// {"data": ..., "error": {"code", "message", "details"}}.
package api
