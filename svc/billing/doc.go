// Package billing tracks subscriptions through their lifecycle:
//
//	(none) --activated--> active --payment failed--> past_due --grace elapsed--> suspended
//	                        |  ^                        |
//	                        |  +----sale completed------+
//	                        +--cancelled/suspended/expired--> canceled/suspended/expired
//
// Payment providers deliver webhooks that a Provider verifies and normalizes
// into Events. Service.HandleEvents applies a batch of events, each one in
// isolation: an event with an unknown plan, an unknown subscription or an
// impossible transition is logged and skipped without affecting the rest.
//
// Transitions are declared once in a pkg/statemachine table. The stored row
// is the only source of the current state, and actions only mutate the
// in-memory copy; the Service persists the result, keeps the profile's
// subscription tier in sync and emits notifications.
//
// EntitledPlanSlug plugs the subscription store into the plan catalog so the
// effective plan follows the subscription status.
package billing
