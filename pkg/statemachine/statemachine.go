package statemachine

import (
	"context"
	"fmt"
)

// Action executes side effects during a transition. Returning an error prevents it.
type Action[S, E ~string, D any] func(ctx context.Context, from, to S, event E, data D) error

// Guard reports whether a transition may proceed.
type Guard[S, E ~string, D any] func(ctx context.Context, from S, event E, data D) bool

// Transition is a state change triggered by an event.
type Transition[S, E ~string, D any] struct {
	From    S
	To      S
	Event   E
	AnyFrom bool
	Guards  []Guard[S, E, D]
	Actions []Action[S, E, D]
}

// Machine is an immutable transition table. It is safe for concurrent use.
type Machine[S, E ~string, D any] struct {
	transitions map[S]map[E][]Transition[S, E, D]
	fromAny     map[E][]Transition[S, E, D]
}

// New builds a machine from options.
func New[S, E ~string, D any](opts ...Option[S, E, D]) (*Machine[S, E, D], error) {
	m := &Machine[S, E, D]{
		transitions: make(map[S]map[E][]Transition[S, E, D]),
		fromAny:     make(map[E][]Transition[S, E, D]),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is like New but panics on a malformed table.
func MustNew[S, E ~string, D any](opts ...Option[S, E, D]) *Machine[S, E, D] {
	m, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Machine[S, E, D]) add(t Transition[S, E, D]) error {
	if t.To == "" || t.Event == "" {
		return ErrInvalidTransition
	}
	if t.AnyFrom {
		m.fromAny[t.Event] = append(m.fromAny[t.Event], t)
		return nil
	}
	if _, ok := m.transitions[t.From]; !ok {
		m.transitions[t.From] = make(map[E][]Transition[S, E, D])
	}
	m.transitions[t.From][t.Event] = append(m.transitions[t.From][t.Event], t)
	return nil
}

func (m *Machine[S, E, D]) candidates(from S, event E) []Transition[S, E, D] {
	specific := m.transitions[from][event]
	wildcard := m.fromAny[event]
	if len(wildcard) == 0 {
		return specific
	}
	out := make([]Transition[S, E, D], 0, len(specific)+len(wildcard))
	out = append(out, specific...)
	return append(out, wildcard...)
}

func (m *Machine[S, E, D]) match(ctx context.Context, from S, event E, data D) (*Transition[S, E, D], error) {
	if event == "" {
		return nil, ErrInvalidEvent
	}

	candidates := m.candidates(from, event)
	if len(candidates) == 0 {
		return nil, NewErrNoTransitionAvailable(string(from), string(event))
	}

	// First transition with passing guards wins
	for i := range candidates {
		passed := true
		for _, guard := range candidates[i].Guards {
			if guard != nil && !guard(ctx, from, event, data) {
				passed = false
				break
			}
		}
		if passed {
			return &candidates[i], nil
		}
	}

	return nil, NewErrTransitionRejected(string(from), string(event))
}

// Fire resolves the transition for (from, event), runs its actions and
// returns the target state. On any error the returned state is from.
func (m *Machine[S, E, D]) Fire(ctx context.Context, from S, event E, data D) (S, error) {
	t, err := m.match(ctx, from, event, data)
	if err != nil {
		return from, err
	}

	for _, action := range t.Actions {
		if action == nil {
			continue
		}
		if err := action(ctx, from, t.To, event, data); err != nil {
			return from, fmt.Errorf("action failed: %w", err)
		}
	}

	return t.To, nil
}

// CanFire reports whether Fire would find a transition whose guards pass.
// Actions are not executed.
func (m *Machine[S, E, D]) CanFire(ctx context.Context, from S, event E, data D) bool {
	_, err := m.match(ctx, from, event, data)
	return err == nil
}

// Permitted lists the events that have at least one transition out of from,
// ignoring guards.
func (m *Machine[S, E, D]) Permitted(from S) []E {
	seen := make(map[E]struct{})
	var events []E
	for event := range m.transitions[from] {
		seen[event] = struct{}{}
		events = append(events, event)
	}
	for event := range m.fromAny {
		if _, ok := seen[event]; !ok {
			events = append(events, event)
		}
	}
	return events
}
