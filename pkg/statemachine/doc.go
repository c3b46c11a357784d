// Package statemachine provides a generic, stateless finite-state machine.
//
// A Machine holds only the transition table. The current state lives with the
// caller (usually a database row), which makes a single Machine safe to share
// between goroutines and requests:
//
//	type Status string
//	type Event string
//
//	m := statemachine.MustNew(
//	    statemachine.WithTransition[Status, Event, *Order]("draft", "submitted", "submit"),
//	    statemachine.WithTransitionFromAny[Status, Event, *Order]("canceled", "cancel"),
//	)
//
//	next, err := m.Fire(ctx, order.Status, "submit", order)
//
// # Guards and Actions
//
// Guards veto a transition based on runtime data. When several transitions
// share a source state and event, the first one whose guards all pass wins,
// so registration order is priority order. Transitions registered with
// WithTransitionFromAny are considered only after the specific ones.
//
// Actions run in order after the guards succeed. Any action error aborts the
// transition and Fire returns the source state together with the error.
//
// # Errors
//
// ErrNoTransitionAvailable means the table has no entry for the pair;
// ErrTransitionRejected means entries exist but every guard set refused.
// Use IsNoTransitionAvailableError and IsTransitionRejectedError to tell them
// apart.
package statemachine
