package statemachine

// Option configures a Machine during construction.
type Option[S, E ~string, D any] func(*Machine[S, E, D]) error

// WithTransition adds a transition without guards or actions.
func WithTransition[S, E ~string, D any](from, to S, event E) Option[S, E, D] {
	return WithGuardedTransition[S, E, D](from, to, event, nil, nil)
}

// WithGuardedTransition adds a transition with guards and actions.
func WithGuardedTransition[S, E ~string, D any](from, to S, event E, guards []Guard[S, E, D], actions []Action[S, E, D]) Option[S, E, D] {
	return func(m *Machine[S, E, D]) error {
		return m.add(Transition[S, E, D]{From: from, To: to, Event: event, Guards: guards, Actions: actions})
	}
}

// WithTransitionFromAny adds a transition that applies from every state,
// including the empty one.
func WithTransitionFromAny[S, E ~string, D any](to S, event E, actions ...Action[S, E, D]) Option[S, E, D] {
	return func(m *Machine[S, E, D]) error {
		return m.add(Transition[S, E, D]{To: to, Event: event, AnyFrom: true, Actions: actions})
	}
}

// WithTransitions adds several prebuilt transitions at once.
func WithTransitions[S, E ~string, D any](transitions ...Transition[S, E, D]) Option[S, E, D] {
	return func(m *Machine[S, E, D]) error {
		for _, t := range transitions {
			if err := m.add(t); err != nil {
				return err
			}
		}
		return nil
	}
}
