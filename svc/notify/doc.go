// Package notify delivers user-facing billing notifications.
//
// Callers only decide when to notify and with which data; a Dispatcher does
// the delivery:
//
//   - HTTPDispatcher POSTs {userId, eventType, data} to an external
//     notification service with a bearer token, a per-attempt timeout and
//     bounded exponential retry.
//   - EmailDispatcher renders the templ component of the event type (see
//     package emails) and sends it through pkg/email.
//   - Detached wraps any dispatcher so the call returns immediately and the
//     delivery runs in the background with its own timeout. Failures are
//     logged only.
//
// Delivery is best effort. State changes that trigger a notification are
// never rolled back because delivery failed.
package notify
